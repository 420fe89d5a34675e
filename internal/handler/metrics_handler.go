package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/pkg/response"
)

type metricsService interface {
	Handler() http.Handler
	Snapshot() models.SystemMetrics
}

type onlineReporter interface {
	IsOnline() bool
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics metricsService
	online  onlineReporter
}

// NewMetricsHandler constructs a metrics handler. online may be nil.
func NewMetricsHandler(metrics metricsService, online onlineReporter) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, online: online}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Snapshot godoc
// @Summary Console metrics summary
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

// Health responds with a generic OK payload for liveness usage. The school
// API being unreachable is reported but does not fail the probe.
func (h *MetricsHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.online != nil {
		body["school_api_online"] = h.online.IsOnline()
	}
	c.JSON(http.StatusOK, body)
}
