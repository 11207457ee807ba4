package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sgms/grievance-api/internal/service"
	"github.com/sgms/grievance-api/pkg/response"
)

// StatsHandler exposes the role dashboards.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// StudentDashboard godoc
// @Summary Summary of the caller's grievances
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/student [get]
func (h *StatsHandler) StudentDashboard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	stats, err := h.stats.StudentDashboard(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", stats)
}

// FacultyDashboard godoc
// @Summary Summary of the caller's assigned workload
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/faculty [get]
func (h *StatsHandler) FacultyDashboard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	stats, err := h.stats.FacultyDashboard(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", stats)
}

// AdminDashboard godoc
// @Summary System-wide grievance rollups
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/admin [get]
func (h *StatsHandler) AdminDashboard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	stats, err := h.stats.AdminDashboard(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", stats)
}
