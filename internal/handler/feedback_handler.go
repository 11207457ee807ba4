package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sgms/grievance-api/internal/service"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
	"github.com/sgms/grievance-api/pkg/response"
)

// FeedbackHandler exposes post-resolution feedback endpoints.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler constructs FeedbackHandler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// Submit godoc
// @Summary Submit feedback on a resolved grievance
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grievance ID"
// @Param payload body service.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Router /grievances/{id}/feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	grievanceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	feedback, err := h.feedback.Submit(c.Request.Context(), actor, grievanceID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "feedback submitted", feedback)
}

// Get godoc
// @Summary Get feedback for a grievance
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grievance ID"
// @Success 200 {object} response.Envelope
// @Router /grievances/{id}/feedback [get]
func (h *FeedbackHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	grievanceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	feedback, err := h.feedback.Get(c.Request.Context(), actor, grievanceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", feedback)
}
