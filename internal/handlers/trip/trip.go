// internal/handlers/trip/trip.go
package trip

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	xerrors "junketops-service/internal/pkg/errors"
	"junketops-service/internal/pkg/response"
	service "junketops-service/internal/service/report"
)

type TripHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewTripHandler(reportService *service.ReportService, logger *zap.Logger) *TripHandler {
	return &TripHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// GetTripSummary returns one trip's financial view in the display
// currency, including the per-customer breakdown.
func (h *TripHandler) GetTripSummary(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		response.Error(c, http.StatusBadRequest, "trip id is required", nil)
		return
	}

	result, err := h.reportService.TripSummary(c.Request.Context(), tripID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "trip not found", err)
			return
		}
		h.logger.Error("failed to build trip summary",
			zap.String("trip_id", tripID), zap.Error(err))
		response.Error(c, http.StatusBadGateway, "failed to load trip", err)
		return
	}

	response.Success(c, http.StatusOK, "trip summary generated", result)
}

// RefreshTrip rebuilds one trip summary from upstream, bypassing the
// cache. Admin only.
func (h *TripHandler) RefreshTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		response.Error(c, http.StatusBadRequest, "trip id is required", nil)
		return
	}

	result, err := h.reportService.RefreshTrip(c.Request.Context(), tripID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "trip not found", err)
			return
		}
		h.logger.Error("trip refresh failed",
			zap.String("trip_id", tripID), zap.Error(err))
		response.Error(c, http.StatusBadGateway, "failed to refresh trip", err)
		return
	}

	response.Success(c, http.StatusOK, "trip summary refreshed", result)
}
