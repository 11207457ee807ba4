package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sgms/grievance-api/internal/service"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
	"github.com/sgms/grievance-api/pkg/response"
)

// MessageHandler exposes the per-grievance conversation endpoints.
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler constructs MessageHandler.
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// List godoc
// @Summary List messages on a grievance
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grievance ID"
// @Success 200 {object} response.Envelope
// @Router /grievances/{id}/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	grievanceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messages, err := h.messages.List(c.Request.Context(), actor, grievanceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", messages)
}

// Send godoc
// @Summary Send a message on a grievance
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grievance ID"
// @Param payload body service.SendMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Router /grievances/{id}/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	grievanceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	message, err := h.messages.Send(c.Request.Context(), actor, grievanceID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "message sent", message)
}
