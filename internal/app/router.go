// internal/app/router.go
package app

import (
	agencyHandler "retention-service/internal/handlers/agency"
	cacheHandler "retention-service/internal/handlers/cache"
	customerHandler "retention-service/internal/handlers/customer"
	historyHandler "retention-service/internal/handlers/history"
	viewHandler "retention-service/internal/handlers/view"
	wsHandler "retention-service/internal/handlers/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	AgencyHandler   *agencyHandler.AgencyHandler
	CacheHandler    *cacheHandler.CacheHandler
	CustomerHandler *customerHandler.CustomerHandler
	HistoryHandler  *historyHandler.HistoryHandler
	ViewHandler     *viewHandler.ViewHandler
	WSHandler       *wsHandler.WebSocketHandler
	Registry        *prometheus.Registry
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	// ==================== Metrics ====================
	if h.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Registry, promhttp.HandlerOpts{})))
	}

	// ==================== Data Proxy ====================
	proxy := r.Group("/api")
	{
		proxy.GET("/data/:agencyName", h.CacheHandler.GetData)
		proxy.GET("/cache/status", h.CacheHandler.GetStatus)
		proxy.POST("/cache/invalidate", h.CacheHandler.InvalidateAll)
		proxy.POST("/cache/invalidate/:agencyName", h.CacheHandler.InvalidateAgency)
		proxy.POST("/preload", h.CacheHandler.Preload)
		proxy.POST("/preload/:agencyName", h.CacheHandler.PreloadAgency)
	}

	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", h.AgencyHandler.Health)

	// ==================== Agencies ====================
	api.GET("/agencies", h.AgencyHandler.ListAgencies)

	agencies := api.Group("/agencies/:agency")
	{
		agencies.GET("/clientes", h.CustomerHandler.ListCustomers)
		agencies.GET("/clientes/export", h.CustomerHandler.ExportCustomers)
		agencies.GET("/metadata", h.CustomerHandler.GetMetadata)
		agencies.GET("/stats", h.CustomerHandler.GetStats)

		agencies.GET("/search-history", h.HistoryHandler.ListHistory)
		agencies.POST("/search-history", h.HistoryHandler.RecordSearch)
		agencies.DELETE("/search-history", h.HistoryHandler.ClearHistory)
	}

	// ==================== Views ====================
	views := api.Group("/views")
	{
		views.POST("", h.ViewHandler.CreateView)
		views.GET("/:id", h.ViewHandler.GetView)
		views.DELETE("/:id", h.ViewHandler.DeleteView)
		views.POST("/:id/commands", h.ViewHandler.ApplyCommand)
		views.PUT("/:id/agency", h.ViewHandler.SwitchAgency)
		views.GET("/:id/export", h.ViewHandler.ExportView)
	}

	// ==================== WebSocket ====================
	if h.WSHandler != nil {
		views.GET("/:id/ws", h.WSHandler.HandleConnection)
		api.GET("/ws/stats", h.WSHandler.GetStats)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
