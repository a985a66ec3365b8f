// internal/handlers/view/view_handler.go
package view

import (
	"net/http"

	"retention-service/internal/domain/view"
	customerhandler "retention-service/internal/handlers/customer"
	"retention-service/internal/pkg/response"
	"retention-service/internal/service/export"
	service "retention-service/internal/service/view"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Publisher pushes a page to the sockets following a view.
type Publisher interface {
	BroadcastPage(viewID string, page any)
}

type ViewHandler struct {
	viewService   *service.ViewService
	exportService *export.ExportService
	publisher     Publisher
	logger        *zap.Logger
}

func NewViewHandler(viewService *service.ViewService, exportService *export.ExportService, publisher Publisher, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{
		viewService:   viewService,
		exportService: exportService,
		publisher:     publisher,
		logger:        logger,
	}
}

func (h *ViewHandler) CreateView(c *gin.Context) {
	var req view.CreateViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	page, err := h.viewService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create view", err)
		return
	}

	response.Success(c, http.StatusCreated, "view created", page)
}

func (h *ViewHandler) GetView(c *gin.Context) {
	page, err := h.viewService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, "failed to get view", err)
		return
	}

	response.Success(c, http.StatusOK, "view retrieved", page)
}

// ApplyCommand runs one dashboard command. Commands sent here are applied
// immediately; only the socket debounces search input.
func (h *ViewHandler) ApplyCommand(c *gin.Context) {
	var cmd view.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ValidationError(c, "invalid command", err)
		return
	}

	id := c.Param("id")
	page, err := h.viewService.Apply(c.Request.Context(), id, &cmd)
	if err != nil {
		response.FromError(c, "failed to apply command", err)
		return
	}
	h.publish(id, page)

	response.Success(c, http.StatusOK, "command applied", page)
}

func (h *ViewHandler) SwitchAgency(c *gin.Context) {
	var req view.SwitchAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	id := c.Param("id")
	page, err := h.viewService.SwitchAgency(c.Request.Context(), id, req.Agency)
	if err != nil {
		response.FromError(c, "failed to switch agency", err)
		return
	}
	h.publish(id, page)

	response.Success(c, http.StatusOK, "agency switched", page)
}

// ExportView downloads every row passing the view's filters
func (h *ViewHandler) ExportView(c *gin.Context) {
	v, rows, err := h.viewService.Rows(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, "failed to export view", err)
		return
	}

	customerhandler.WriteWorkbook(c, h.exportService, h.logger, v.Agency, rows)
}

func (h *ViewHandler) DeleteView(c *gin.Context) {
	if err := h.viewService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, "failed to delete view", err)
		return
	}

	response.Success(c, http.StatusOK, "view deleted", nil)
}

func (h *ViewHandler) publish(id string, page *view.ViewPage) {
	if h.publisher != nil {
		h.publisher.BroadcastPage(id, page)
	}
}
