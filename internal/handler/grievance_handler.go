package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sgms/grievance-api/internal/service"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
	"github.com/sgms/grievance-api/pkg/response"
	"github.com/sgms/grievance-api/pkg/storage"
)

// GrievanceHandler exposes the grievance lifecycle endpoints.
type GrievanceHandler struct {
	grievances  *service.GrievanceService
	attachments *storage.AttachmentStore
	signer      *storage.SignedURLSigner
}

// NewGrievanceHandler constructs GrievanceHandler.
func NewGrievanceHandler(grievances *service.GrievanceService, attachments *storage.AttachmentStore, signer *storage.SignedURLSigner) *GrievanceHandler {
	return &GrievanceHandler{grievances: grievances, attachments: attachments, signer: signer}
}

// Submit godoc
// @Summary Submit a grievance
// @Tags Grievances
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param category_id formData int true "Category"
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param priority formData string false "Priority (low, medium, high)"
// @Param attachment formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Router /grievances [post]
func (h *GrievanceHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req service.SubmitGrievanceRequest
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		req.CategoryID = parseFormInt64(c.PostForm("category_id"))
		req.Title = strings.TrimSpace(c.PostForm("title"))
		req.Description = strings.TrimSpace(c.PostForm("description"))
		req.Priority = c.PostForm("priority")

		file, err := c.FormFile("attachment")
		if err == nil && file != nil {
			src, err := file.Open()
			if err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable attachment"))
				return
			}
			defer src.Close() //nolint:errcheck

			relPath, err := h.attachments.Save(file.Filename, file.Size, src)
			if err != nil {
				response.Error(c, err)
				return
			}
			req.AttachmentPath = &relPath
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	detail, err := h.grievances.Submit(c.Request.Context(), actor, req)
	if err != nil {
		// New submissions must not leave orphaned files behind.
		if req.AttachmentPath != nil {
			_ = h.attachments.Delete(*req.AttachmentPath)
		}
		response.Error(c, err)
		return
	}
	response.Created(c, "grievance submitted", detail)
}

// List godoc
// @Summary List grievances visible to the caller
// @Tags Grievances
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status name"
// @Param category_id query int false "Filter by category"
// @Param priority query string false "Filter by priority"
// @Param department query string false "Filter by student department (admin only)"
// @Param search query string false "Search title and description"
// @Param page query int false "Page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} response.Envelope
// @Router /grievances [get]
func (h *GrievanceHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	req := service.ListGrievancesRequest{
		Status:     c.Query("status"),
		CategoryID: queryInt64(c, "category_id"),
		Priority:   c.Query("priority"),
		Department: c.Query("department"),
		Search:     strings.TrimSpace(c.Query("search")),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 10),
	}

	rows, pagination, err := h.grievances.List(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", rows, pagination)
}

// Get godoc
// @Summary Get a grievance
// @Tags Grievances
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grievance ID"
// @Success 200 {object} response.Envelope
// @Router /grievances/{id} [get]
func (h *GrievanceHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.grievances.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", detail)
}

// Update godoc
// @Summary Update grievance status, notes, or priority
// @Tags Grievances
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grievance ID"
// @Param payload body service.UpdateGrievanceRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /grievances/{id} [put]
func (h *GrievanceHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateGrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.grievances.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "grievance updated", detail)
}

// Delete godoc
// @Summary Delete a grievance
// @Tags Grievances
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grievance ID"
// @Success 200 {object} response.Envelope
// @Router /grievances/{id} [delete]
func (h *GrievanceHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.grievances.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "grievance deleted", nil)
}

// AttachmentURL godoc
// @Summary Generate a short-lived download link for a grievance attachment
// @Tags Grievances
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grievance ID"
// @Success 200 {object} response.Envelope
// @Router /grievances/{id}/attachment-url [get]
func (h *GrievanceHandler) AttachmentURL(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.grievances.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if detail.AttachmentPath == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "grievance has no attachment"))
		return
	}

	token, expiresAt, err := h.signer.Generate(id, *detail.AttachmentPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to sign url"))
		return
	}
	response.OK(c, "", gin.H{
		"url":        "/api/v1/attachments/" + token,
		"expires_at": expiresAt,
	})
}

// DownloadAttachment streams an attachment referenced by a signed token.
// The token itself carries the authorization, so this route is public.
func (h *GrievanceHandler) DownloadAttachment(c *gin.Context) {
	token := c.Param("token")
	_, relPath, _, err := h.signer.Parse(token)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link"))
		return
	}
	c.FileAttachment(h.attachments.Path(relPath), relPath)
}

func parseFormInt64(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
