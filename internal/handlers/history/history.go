// internal/handlers/history/history_handler.go
package history

import (
	"net/http"

	"retention-service/internal/domain/customer"
	"retention-service/internal/pkg/response"
	service "retention-service/internal/service/history"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	historyService *service.HistoryService
}

func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// ListHistory returns the recent serial searches of an agency
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	entries, err := h.historyService.List(c.Request.Context(), c.Param("agency"))
	if err != nil {
		response.FromError(c, "failed to load search history", err)
		return
	}

	response.Success(c, http.StatusOK, "search history retrieved", entries)
}

func (h *HistoryHandler) RecordSearch(c *gin.Context) {
	var req customer.SearchHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	entry, err := h.historyService.Record(c.Request.Context(), c.Param("agency"), req.Term)
	if err != nil {
		response.FromError(c, "failed to record search", err)
		return
	}

	response.Success(c, http.StatusCreated, "search recorded", entry)
}

// ClearHistory removes the given ?term= values, or everything when none
func (h *HistoryHandler) ClearHistory(c *gin.Context) {
	if err := h.historyService.Clear(c.Request.Context(), c.Param("agency"), c.QueryArray("term")...); err != nil {
		response.FromError(c, "failed to clear search history", err)
		return
	}

	response.Success(c, http.StatusOK, "search history cleared", nil)
}
