package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"retention-service/internal/cache"
	"retention-service/internal/domain/agency"
	agencyHandler "retention-service/internal/handlers/agency"
	cacheHandler "retention-service/internal/handlers/cache"
	customerHandler "retention-service/internal/handlers/customer"
	historyHandler "retention-service/internal/handlers/history"
	viewHandler "retention-service/internal/handlers/view"
	wsHandler "retention-service/internal/handlers/websocket"
	"retention-service/internal/middleware"
	"retention-service/internal/observability"
	"retention-service/internal/repository/memory"
	customersvc "retention-service/internal/service/customer"
	"retention-service/internal/service/export"
	historysvc "retention-service/internal/service/history"
	viewsvc "retention-service/internal/service/view"
	"retention-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource map[string][]customersvc.Row

func (s stubSource) Fetch(_ context.Context, a agency.Agency) ([]customersvc.Row, error) {
	rows, ok := s[a.Name]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return rows, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	agencies := agency.NewRegistry([]agency.Agency{
		{Name: "Centro", Source: agency.SourceSpreadsheet, File: "centro.csv"},
		{Name: "Norte", Source: agency.SourceSpreadsheet, File: "norte.csv"},
		{Name: "Caido", Source: agency.SourceSpreadsheet, File: "caido.csv"},
	})
	source := stubSource{
		"Centro": {
			{"SERIE": "ABC123", "MODELO": "Aveo", "NOMBRE_FAC": "Juan Perez", "AGENCIA": "Centro", "CELULAR": "8112345678", "DIAS_SIN_VENIR": "10", "ULT_VISITA": "2024-03-10", "ANIO_VIN": "2020"},
			{"SERIE": "XYZ789", "MODELO": "Onix", "NOMBRE_FAC": "Maria Lopez", "AGENCIA": "Centro", "TELEFONO": "8187654321", "DIAS_SIN_VENIR": "500", "ULT_VISITA": "2023-01-05", "ANIO_VIN": "2018"},
		},
		"Norte": {
			{"SERIE": "NNN111", "MODELO": "Spark", "NOMBRE_FAC": "Pedro", "AGENCIA": "Norte", "DIAS_SIN_VENIR": "30", "ULT_VISITA": "2024-01-01"},
		},
	}

	agencyCache := cache.NewAgencyCache(agencies, source, cache.Options{TTL: time.Hour, Metrics: metrics}, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub(metrics, logger)
	go hub.Run(ctx)

	customerService := customersvc.NewCustomerService(agencyCache, metrics, logger)
	historyService := historysvc.NewHistoryService(memory.NewSearchHistoryRepository(), agencies, logger)
	viewService := viewsvc.NewViewService(memory.NewViewRepository(16, time.Hour), customerService, 50, metrics, logger)
	exportService := export.NewExportService(logger)

	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(logger), middleware.MetricsMiddleware(metrics))
	SetupRouter(r, logger, &Handlers{
		AgencyHandler:   agencyHandler.NewAgencyHandler(agencies),
		CacheHandler:    cacheHandler.NewCacheHandler(agencyCache, logger),
		CustomerHandler: customerHandler.NewCustomerHandler(customerService, exportService, logger),
		HistoryHandler:  historyHandler.NewHistoryHandler(historyService),
		ViewHandler:     viewHandler.NewViewHandler(viewService, exportService, hub, logger),
		WSHandler:       wsHandler.NewWebSocketHandler(hub, viewService, 10*time.Millisecond, logger),
		Registry:        registry,
	})
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if target != nil {
		require.NoError(t, json.Unmarshal(env.Data, target))
	}
	return env
}

type listResult struct {
	Customers []struct {
		ID     int    `json:"id"`
		Serial string `json:"serial"`
	} `json:"customers"`
	Total         int  `json:"total"`
	StoreTotal    int  `json:"store_total"`
	FiltersActive bool `json:"filters_active"`
}

func TestHealthAndAgencies(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var list []agency.AgencyInfo
	w = do(t, r, http.MethodGet, "/api/v1/agencies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list, 3)
	assert.Equal(t, "Centro", list[0].Name)
}

func TestListCustomers(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name   string
		query  string
		serial []string
		active bool
	}{
		{"no filters", "", []string{"ABC123", "XYZ789"}, false},
		{"serial search", "?search=abc", []string{"ABC123"}, true},
		{"union search", "?search=abc,%20xyz", []string{"ABC123", "XYZ789"}, true},
		{"wide range", "?days_min=5&days_max=5000", []string{"ABC123", "XYZ789"}, true},
		{"above all", "?days_min=600", nil, true},
		{"zero range is no filter", "?days_min=0&days_max=0", []string{"ABC123", "XYZ789"}, false},
		{"model", "?model=Onix", []string{"XYZ789"}, true},
		{"phone", "?phone=8187", []string{"XYZ789"}, true},
		{"dates", "?from=2024-03-10&to=2024-03-10", []string{"ABC123"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, http.MethodGet, "/api/v1/agencies/Centro/clientes"+tc.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var res listResult
			decode(t, w, &res)
			var serials []string
			for _, c := range res.Customers {
				serials = append(serials, c.Serial)
			}
			assert.Equal(t, tc.serial, serials)
			assert.Equal(t, 2, res.StoreTotal)
			assert.Equal(t, tc.active, res.FiltersActive)
		})
	}
}

func TestListCustomersErrors(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/agencies/Nowhere/clientes", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/agencies/Caido/clientes", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	env := decode(t, w, nil)
	assert.False(t, env.Success)

	w = do(t, r, http.MethodGet, "/api/v1/agencies/Centro/clientes?from=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/agencies/Centro/clientes?days_min=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPageSizeLimits(t *testing.T) {
	r := newTestRouter(t)
	path := fmt.Sprintf("/api/v1/agencies/Centro/clientes?page_size=%d", customersvc.DefaultPageSize)

	w := do(t, r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		PageSize int `json:"page_size"`
	}
	decode(t, w, &res)
	assert.Equal(t, customersvc.DefaultPageSize, res.PageSize)

	w = do(t, r, http.MethodGet, "/api/v1/agencies/Centro/clientes?page_size=1001", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/views", gin.H{"agency": "Centro", "page_size": customersvc.DefaultPageSize})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestMetadataAndStats(t *testing.T) {
	r := newTestRouter(t)

	var meta struct {
		Models []string `json:"models"`
		Years  []string `json:"years"`
		Days   struct {
			Min int `json:"min"`
			Max int `json:"max"`
		} `json:"days"`
	}
	w := do(t, r, http.MethodGet, "/api/v1/agencies/Centro/metadata", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &meta)
	assert.Equal(t, []string{"Aveo", "Onix"}, meta.Models)
	assert.Equal(t, []string{"2020", "2018"}, meta.Years)
	assert.Equal(t, 10, meta.Days.Min)
	assert.Equal(t, 500, meta.Days.Max)

	w = do(t, r, http.MethodGet, "/api/v1/agencies/Centro/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportCustomers(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/agencies/Centro/clientes/export?search=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "clientes_Centro_")
	assert.NotZero(t, w.Body.Len())
}

func TestSearchHistory(t *testing.T) {
	r := newTestRouter(t)

	for _, term := range []string{"abc", "xyz", "abc"} {
		w := do(t, r, http.MethodPost, "/api/v1/agencies/Centro/search-history", gin.H{"term": term})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	var entries []struct {
		Term string `json:"term"`
	}
	w := do(t, r, http.MethodGet, "/api/v1/agencies/Centro/search-history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc", entries[0].Term)

	w = do(t, r, http.MethodDelete, "/api/v1/agencies/Centro/search-history?term=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/api/v1/agencies/Centro/search-history", nil)
	decode(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "xyz", entries[0].Term)

	w = do(t, r, http.MethodPost, "/api/v1/agencies/Centro/search-history", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type viewResult struct {
	View struct {
		ID      string `json:"id"`
		Agency  string `json:"agency"`
		Page    int    `json:"page"`
		Loading bool   `json:"loading"`
	} `json:"view"`
	Total      int `json:"total"`
	StoreTotal int `json:"store_total"`
}

func TestViewLifecycle(t *testing.T) {
	r := newTestRouter(t)

	var created viewResult
	w := do(t, r, http.MethodPost, "/api/v1/views", gin.H{"agency": "Centro"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &created)
	id := created.View.ID
	require.NotEmpty(t, id)
	assert.Equal(t, 2, created.Total)

	var page viewResult
	w = do(t, r, http.MethodPost, "/api/v1/views/"+id+"/commands", gin.H{"op": "search", "value": "xyz"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &page)
	assert.Equal(t, 1, page.Total)

	w = do(t, r, http.MethodPost, "/api/v1/views/"+id+"/commands", gin.H{"op": "toggle", "category": "model", "value": "Onix"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &page)
	assert.Equal(t, 0, page.Total)

	w = do(t, r, http.MethodGet, "/api/v1/views/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.Equal(t, 0, page.Total)

	w = do(t, r, http.MethodGet, "/api/v1/views/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))

	w = do(t, r, http.MethodPost, "/api/v1/views/"+id+"/commands", gin.H{"op": "reset"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.Equal(t, 2, page.Total)

	w = do(t, r, http.MethodPut, "/api/v1/views/"+id+"/agency", gin.H{"agency": "Norte"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &page)
	assert.Equal(t, "Norte", page.View.Agency)
	assert.Equal(t, 1, page.StoreTotal)

	w = do(t, r, http.MethodPut, "/api/v1/views/"+id+"/agency", gin.H{"agency": "Caido"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	w = do(t, r, http.MethodGet, "/api/v1/views/"+id, nil)
	decode(t, w, &page)
	assert.Equal(t, "Norte", page.View.Agency)
	assert.False(t, page.View.Loading)

	w = do(t, r, http.MethodDelete, "/api/v1/views/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/api/v1/views/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestViewErrors(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/views", gin.H{"agency": "Nowhere"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/views", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var created viewResult
	w = do(t, r, http.MethodPost, "/api/v1/views", gin.H{"agency": "Centro"})
	decode(t, w, &created)

	w = do(t, r, http.MethodPost, "/api/v1/views/"+created.View.ID+"/commands", gin.H{"op": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/views/"+created.View.ID+"/commands", gin.H{"op": "toggle", "category": "colors", "value": "red"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/views/missing/commands", gin.H{"op": "reset"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDataProxy(t *testing.T) {
	r := newTestRouter(t)

	var data struct {
		Agency string `json:"agency"`
		Count  int    `json:"count"`
	}
	w := do(t, r, http.MethodGet, "/api/data/Centro", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &data)
	assert.Equal(t, 2, data.Count)

	var status cache.Status
	w = do(t, r, http.MethodGet, "/api/cache/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &status)
	assert.Equal(t, 1, status.TotalCacheEntries)
	require.Len(t, status.Agencies, 3)
	assert.True(t, status.Agencies[0].Cached)

	w = do(t, r, http.MethodPost, "/api/cache/invalidate/Centro", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/api/cache/status", nil)
	decode(t, w, &status)
	assert.Equal(t, 0, status.TotalCacheEntries)

	var preload struct {
		Results []cache.PreloadResult `json:"results"`
		Failed  int                   `json:"failed"`
	}
	w = do(t, r, http.MethodPost, "/api/preload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &preload)
	assert.Len(t, preload.Results, 3)
	assert.Equal(t, 1, preload.Failed)

	w = do(t, r, http.MethodPost, "/api/preload/Norte", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/preload/Nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/cache/invalidate", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	do(t, r, http.MethodGet, "/api/v1/agencies/Centro/clientes", nil)

	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "retention_http_requests_total"))
	assert.True(t, strings.Contains(body, "retention_cache_loads_total"))
}
