package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sgms/grievance-api/internal/middleware"
	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
	"github.com/sgms/grievance-api/pkg/response"
)

// currentActor extracts the authenticated actor from the gin context. It
// writes a 401 response and returns false when no claims are present.
func currentActor(c *gin.Context) (models.Actor, bool) {
	claimsValue, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

// pathID parses a positive integer path parameter. It writes a 400 response
// and returns false when the parameter is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}

// queryInt64 parses an int64 query parameter, returning 0 when absent.
// Malformed values yield -1 so the service rejects instead of unfiltering.
func queryInt64(c *gin.Context, name string) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return -1
	}
	return value
}

// queryBoolPtr parses an optional boolean query parameter.
func queryBoolPtr(c *gin.Context, name string) *bool {
	switch c.Query(name) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}
