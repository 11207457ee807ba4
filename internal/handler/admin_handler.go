package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sgms/grievance-api/internal/models"
	"github.com/sgms/grievance-api/internal/service"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
	"github.com/sgms/grievance-api/pkg/response"
)

// AdminHandler exposes admin-only management endpoints: assignment,
// account administration, exports, and system diagnostics.
type AdminHandler struct {
	grievances *service.GrievanceService
	users      *service.UserService
	exports    *service.ExportService
	stats      *service.StatsService
	metrics    *service.MetricsService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(grievances *service.GrievanceService, users *service.UserService, exports *service.ExportService, stats *service.StatsService, metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{grievances: grievances, users: users, exports: exports, stats: stats, metrics: metrics}
}

// AssignRequest is the assignment payload.
type AssignRequest struct {
	FacultyID int64 `json:"faculty_id" binding:"required,gt=0"`
}

// Assign godoc
// @Summary Assign a grievance to a faculty member
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grievance ID"
// @Param payload body AssignRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /grievances/{id}/assign [put]
func (h *AdminHandler) Assign(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	grievanceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.grievances.Assign(c.Request.Context(), actor, grievanceID, req.FacultyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "grievance assigned", detail)
}

func listUsersRequest(c *gin.Context) service.ListUsersRequest {
	return service.ListUsersRequest{
		Search:     strings.TrimSpace(c.Query("search")),
		Department: c.Query("department"),
		Active:     queryBoolPtr(c, "active"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 20),
	}
}

// ListStudents godoc
// @Summary List student accounts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, email, or enrollment number"
// @Param department query string false "Filter by department"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} response.Envelope
// @Router /admin/students [get]
func (h *AdminHandler) ListStudents(c *gin.Context) {
	students, pagination, err := h.users.ListStudents(c.Request.Context(), listUsersRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", students, pagination)
}

// ListFaculty godoc
// @Summary List faculty accounts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, email, or employee id"
// @Param department query string false "Filter by department"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} response.Envelope
// @Router /admin/faculty [get]
func (h *AdminHandler) ListFaculty(c *gin.Context) {
	faculty, pagination, err := h.users.ListFaculty(c.Request.Context(), listUsersRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", faculty, pagination)
}

// CreateStudent godoc
// @Summary Provision a student account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /admin/students [post]
func (h *AdminHandler) CreateStudent(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.users.CreateStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "student created", student)
}

// CreateFaculty godoc
// @Summary Provision a faculty account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /admin/faculty [post]
func (h *AdminHandler) CreateFaculty(c *gin.Context) {
	var req service.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	faculty, err := h.users.CreateFaculty(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "faculty created", faculty)
}

// UpdateStudent godoc
// @Summary Update a student account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id} [put]
func (h *AdminHandler) UpdateStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.users.UpdateStudent(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "student updated", student)
}

// UpdateFaculty godoc
// @Summary Update a faculty account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Faculty ID"
// @Param payload body service.UpdateFacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /admin/faculty/{id} [put]
func (h *AdminHandler) UpdateFaculty(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	faculty, err := h.users.UpdateFaculty(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "faculty updated", faculty)
}

// Export godoc
// @Summary Export the grievance register
// @Tags Admin
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string true "csv or pdf"
// @Param status query string false "Filter by status name"
// @Param category_id query int false "Filter by category"
// @Param priority query string false "Filter by priority"
// @Param department query string false "Filter by department"
// @Success 200 {file} binary
// @Router /admin/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filter := models.GrievanceFilter{
		Status:     c.Query("status"),
		CategoryID: queryInt64(c, "category_id"),
		Priority:   c.Query("priority"),
		Department: c.Query("department"),
		Search:     strings.TrimSpace(c.Query("search")),
	}
	result, err := h.exports.Grievances(c.Request.Context(), actor, c.DefaultQuery("format", "csv"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.FileName)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// Workloads godoc
// @Summary Report assignment load per faculty member
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/workloads [get]
func (h *AdminHandler) Workloads(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	workloads, err := h.stats.FacultyWorkloads(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", workloads)
}

// SystemMetrics godoc
// @Summary Runtime health snapshot
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/system [get]
func (h *AdminHandler) SystemMetrics(c *gin.Context) {
	response.OK(c, "", h.metrics.Snapshot())
}
