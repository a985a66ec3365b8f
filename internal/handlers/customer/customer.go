// internal/handlers/customer/customer_handler.go
package customer

import (
	"bytes"
	"net/http"
	"time"

	"retention-service/internal/domain/customer"
	"retention-service/internal/pkg/response"
	service "retention-service/internal/service/customer"
	"retention-service/internal/service/export"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customerService *service.CustomerService
	exportService   *export.ExportService
	logger          *zap.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, exportService *export.ExportService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		exportService:   exportService,
		logger:          logger,
	}
}

// ListCustomers filters and pages the records of an agency
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var filters customer.CustomerListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), c.Param("agency"), &filters)
	if err != nil {
		response.FromError(c, "failed to list customers", err)
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", result)
}

// GetMetadata returns the filter options of an agency
func (h *CustomerHandler) GetMetadata(c *gin.Context) {
	meta, err := h.customerService.GetMetadata(c.Request.Context(), c.Param("agency"))
	if err != nil {
		response.FromError(c, "failed to load metadata", err)
		return
	}

	response.Success(c, http.StatusOK, "metadata retrieved", meta)
}

func (h *CustomerHandler) GetStats(c *gin.Context) {
	stats, err := h.customerService.GetStats(c.Request.Context(), c.Param("agency"))
	if err != nil {
		response.FromError(c, "failed to load stats", err)
		return
	}

	response.Success(c, http.StatusOK, "stats retrieved", stats)
}

// ExportCustomers downloads the filtered records as XLSX
func (h *CustomerHandler) ExportCustomers(c *gin.Context) {
	var filters customer.CustomerListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	agencyName := c.Param("agency")
	rows, err := h.customerService.FilteredCustomers(c.Request.Context(), agencyName, &filters)
	if err != nil {
		response.FromError(c, "failed to export customers", err)
		return
	}

	WriteWorkbook(c, h.exportService, h.logger, agencyName, rows)
}

// WriteWorkbook renders rows and sends them as an attachment. The workbook
// is built in memory so a failure can still answer with a JSON error.
func WriteWorkbook(c *gin.Context, svc *export.ExportService, logger *zap.Logger, agencyName string, rows []customer.Customer) {
	var buf bytes.Buffer
	if err := svc.WriteXLSX(&buf, rows); err != nil {
		logger.Error("xlsx export failed", zap.String("agency", agencyName), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to build export", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(agencyName, time.Now())+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
