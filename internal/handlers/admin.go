package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/familyconnect/familyconnect/internal/auth"
	"github.com/familyconnect/familyconnect/internal/services"
	"github.com/familyconnect/familyconnect/pkg/response"
)

// AdminHandler serves the admin console: the audit trail and console
// password management.
type AdminHandler struct {
	audit *services.AuditService
	admin *iauth.AdminService
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(audit *services.AuditService, admin *iauth.AdminService) *AdminHandler {
	return &AdminHandler{audit: audit, admin: admin}
}

type setPasswordRequest struct {
	ProfileID string `json:"profile_id" validate:"required,uuid4"`
	Password  string `json:"password" validate:"required,min=8"`
}

// AuditLogs lists audit rows with optional filters.
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	rows, total, err := h.audit.List(requestContext(c), services.ListAuditInput{
		ActorID:  c.Query("actor_id"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
		Limit:    parseIntQuery(c, "limit", 50),
		Offset:   parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, rows, &response.Meta{Total: int(total)})
}

// SetPassword stores a console password for an admin or staff profile.
func (h *AdminHandler) SetPassword(c *gin.Context) {
	var req setPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.admin.SetPassword(requestContext(c), req.ProfileID, req.Password); err != nil {
		response.Error(c, err)
		return
	}

	if actor := currentUserID(c); actor != "" {
		h.audit.Record(requestContext(c), services.AuditEntry{
			ActorID:    actor,
			Action:     services.AuditActionProfileUpdate,
			Resource:   "profile",
			ResourceID: req.ProfileID,
			Details:    map[string]any{"field": "password"},
			IPAddress:  c.ClientIP(),
		})
	}
	response.Success(c, http.StatusOK, gin.H{"message": "password updated"})
}
