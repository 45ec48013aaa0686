package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniops/academic-records-api/internal/service"
	"github.com/uniops/academic-records-api/pkg/response"
)

// OpsHandler exposes the metrics snapshot.
type OpsHandler struct {
	metrics *service.MetricsService
}

// NewOpsHandler constructs handler.
func NewOpsHandler(metrics *service.MetricsService) *OpsHandler {
	return &OpsHandler{metrics: metrics}
}

// Snapshot godoc
// @Summary Aggregated system metrics
// @Tags Ops
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ops/metrics [get]
func (h *OpsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
