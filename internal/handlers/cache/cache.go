// internal/handlers/cache/cache_handler.go
package cache

import (
	"net/http"
	"time"

	"retention-service/internal/cache"
	"retention-service/internal/domain/customer"
	"retention-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CacheHandler serves the data proxy endpoints: raw agency data and cache
// administration.
type CacheHandler struct {
	cache  *cache.AgencyCache
	logger *zap.Logger
}

func NewCacheHandler(agencyCache *cache.AgencyCache, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  agencyCache,
		logger: logger,
	}
}

type DataResponse struct {
	Agency   string              `json:"agency"`
	Data     []customer.Customer `json:"data"`
	Count    int                 `json:"count"`
	Version  uint64              `json:"version"`
	LoadedAt time.Time           `json:"loaded_at"`
}

// GetData returns the whole normalized store of an agency
func (h *CacheHandler) GetData(c *gin.Context) {
	snap, err := h.cache.Get(c.Request.Context(), c.Param("agencyName"))
	if err != nil {
		response.FromError(c, "failed to load agency data", err)
		return
	}

	response.Success(c, http.StatusOK, "data retrieved", DataResponse{
		Agency:   snap.Agency.Name,
		Data:     snap.Store.Records(),
		Count:    snap.Store.Len(),
		Version:  snap.Version,
		LoadedAt: snap.LoadedAt,
	})
}

func (h *CacheHandler) GetStatus(c *gin.Context) {
	response.Success(c, http.StatusOK, "cache status", h.cache.Status())
}

// InvalidateAll drops every cached agency
func (h *CacheHandler) InvalidateAll(c *gin.Context) {
	if err := h.cache.InvalidateAll(c.Request.Context()); err != nil {
		response.FromError(c, "failed to invalidate cache", err)
		return
	}

	h.logger.Info("cache invalidated")
	response.Success(c, http.StatusOK, "cache invalidated", nil)
}

func (h *CacheHandler) InvalidateAgency(c *gin.Context) {
	name := c.Param("agencyName")
	if err := h.cache.Invalidate(c.Request.Context(), name); err != nil {
		response.FromError(c, "failed to invalidate agency", err)
		return
	}

	h.logger.Info("agency cache invalidated", zap.String("agency", name))
	response.Success(c, http.StatusOK, "agency cache invalidated", gin.H{"agency": name})
}

// Preload warms every configured agency
func (h *CacheHandler) Preload(c *gin.Context) {
	h.preload(c)
}

func (h *CacheHandler) PreloadAgency(c *gin.Context) {
	h.preload(c, c.Param("agencyName"))
}

func (h *CacheHandler) preload(c *gin.Context, names ...string) {
	results, err := h.cache.Preload(c.Request.Context(), names...)
	if err != nil {
		response.FromError(c, "failed to preload", err)
		return
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	h.logger.Info("preload finished", zap.Int("agencies", len(results)), zap.Int("failed", failed))

	response.Success(c, http.StatusOK, "preload finished", gin.H{
		"results": results,
		"failed":  failed,
	})
}
