// internal/handlers/dashboard/dashboard.go
package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"junketops-service/internal/domain/report"
	"junketops-service/internal/metrics"
	"junketops-service/internal/middleware"
	"junketops-service/internal/pkg/response"
	service "junketops-service/internal/service/report"
)

type DashboardHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewDashboardHandler(reportService *service.ReportService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// GetDashboard returns the complete reporting view for the caller's
// scope. Ranking parameters are optional; the default is rolling,
// descending.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	var q report.RankQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid ranking parameters", err)
		return
	}

	result, err := h.reportService.Dashboard(c.Request.Context(), scopeFrom(c), q)
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to build dashboard", err)
		return
	}

	response.Success(c, http.StatusOK, "dashboard generated", result)
}

// GetRankedCustomers returns the scoped customer ranking on its own,
// for views that re-sort without reloading the whole dashboard.
func (h *DashboardHandler) GetRankedCustomers(c *gin.Context) {
	var q report.RankQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid ranking parameters", err)
		return
	}

	result, err := h.reportService.RankedCustomers(c.Request.Context(), scopeFrom(c), q)
	if err != nil {
		h.logger.Error("failed to rank customers", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to rank customers", err)
		return
	}

	response.Success(c, http.StatusOK, "customers ranked", result)
}

// Refresh forces a new upstream snapshot and returns the dashboard
// built from it. Admin only.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if _, err := h.reportService.Refresh(c.Request.Context()); err != nil {
		h.logger.Error("forced refresh failed", zap.Error(err))
		response.Error(c, http.StatusBadGateway, "failed to refresh report data", err)
		return
	}

	result, err := h.reportService.Dashboard(c.Request.Context(), metrics.Scope{}, report.RankQuery{})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to build dashboard", err)
		return
	}

	response.Success(c, http.StatusOK, "report data refreshed", result)
}

// scopeFrom narrows computations for agent viewers; admins get the
// unrestricted view but may narrow to one agent's book via the
// agent_id query parameter. Scoping runs before aggregation, never
// after.
func scopeFrom(c *gin.Context) metrics.Scope {
	if middleware.IsAdmin(c) {
		return metrics.Scope{AgentID: c.Query("agent_id")}
	}
	return metrics.Scope{AgentID: middleware.GetAgentID(c)}
}
