// internal/handlers/agency/agency_handler.go
package agency

import (
	"net/http"
	"time"

	"retention-service/internal/domain/agency"
	"retention-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type AgencyHandler struct {
	registry *agency.Registry
}

func NewAgencyHandler(registry *agency.Registry) *AgencyHandler {
	return &AgencyHandler{registry: registry}
}

// ListAgencies returns the configured agencies in display order
func (h *AgencyHandler) ListAgencies(c *gin.Context) {
	response.Success(c, http.StatusOK, "agencies retrieved", h.registry.List())
}

func (h *AgencyHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, "ok", gin.H{
		"status":    "healthy",
		"agencies":  len(h.registry.Names()),
		"timestamp": time.Now(),
	})
}
