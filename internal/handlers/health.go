package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Service identity reported by the health endpoints
const (
	ServiceName    = "genrelay-api"
	ServiceVersion = "0.1.0"
)

// StatusReporter reports the state of one dependency, e.g. "healthy",
// "not configured" or "unhealthy: <reason>".
type StatusReporter interface {
	Status() string
}

// StatusFunc adapts a plain function to StatusReporter
type StatusFunc func() string

// Status implements StatusReporter
func (f StatusFunc) Status() string { return f() }

// HealthHandler handles health check endpoints
type HealthHandler struct {
	deps map[string]StatusReporter
}

// NewHealthHandler creates a new health handler. deps is keyed by the
// name reported in the response.
func NewHealthHandler(deps map[string]StatusReporter) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Health returns basic health status
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: ServiceVersion,
	})
}

// DeepHealth returns health status with dependency checks
// @Summary Dependency health
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health/deep [get]
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	deps := make(map[string]string, len(h.deps))
	allHealthy := true
	for name, r := range h.deps {
		status := "not configured"
		if r != nil {
			status = r.Status()
		}
		deps[name] = status
		if strings.HasPrefix(status, "unhealthy") {
			allHealthy = false
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:       status,
		Service:      ServiceName,
		Version:      ServiceVersion,
		Dependencies: deps,
	})
}
