package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/familyconnect/familyconnect/internal/services"
	"github.com/familyconnect/familyconnect/pkg/response"
)

// ProfileHandler serves the public profiles directory.
type ProfileHandler struct {
	profiles *services.ProfileService
}

// NewProfileHandler constructs a profile handler.
func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Directory lists the first page of directory entries.
func (h *ProfileHandler) Directory(c *gin.Context) {
	entries, err := h.profiles.Directory(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

// Create adds a directory entry.
func (h *ProfileHandler) Create(c *gin.Context) {
	var req services.CreateProfileInput
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Create(requestContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, profile)
}
