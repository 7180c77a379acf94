package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/familyconnect/familyconnect/internal/auth"
	"github.com/familyconnect/familyconnect/internal/services"
	appErrors "github.com/familyconnect/familyconnect/pkg/errors"
	"github.com/familyconnect/familyconnect/pkg/response"
)

// AuthHandler exposes the passwordless sign-in flow, the admin console login,
// and the identity endpoints.
type AuthHandler struct {
	signin   *iauth.SignInService
	admin    *iauth.AdminService
	profiles *services.ProfileService
	audit    *services.AuditService

	// exposeLinks returns magic links in API responses instead of relying on
	// email delivery. Development only.
	exposeLinks bool
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(signin *iauth.SignInService, admin *iauth.AdminService, profiles *services.ProfileService, audit *services.AuditService, exposeLinks bool) *AuthHandler {
	return &AuthHandler{
		signin:      signin,
		admin:       admin,
		profiles:    profiles,
		audit:       audit,
		exposeLinks: exposeLinks,
	}
}

type requestLinkRequest struct {
	Email      string `json:"email" validate:"required,email"`
	InviteCode string `json:"invite_code" validate:"omitempty,max=128"`
}

type redeemRequest struct {
	Token string `json:"token" validate:"required"`
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
	Profile     any    `json:"profile"`
	InviteCode  string `json:"invite_code,omitempty"`
}

// RequestLink issues a sign-in link for the supplied email. The response is
// identical whether or not the email maps to an existing profile.
func (h *AuthHandler) RequestLink(c *gin.Context) {
	var req requestLinkRequest
	if !bindAndValidate(c, &req) {
		return
	}

	link, err := h.signin.RequestLink(requestContext(c), req.Email, req.InviteCode)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := gin.H{"message": "Check your email for a sign-in link"}
	if h.exposeLinks {
		payload["link"] = link
	}
	response.Success(c, http.StatusAccepted, payload)
}

// Redeem exchanges a sign-in token for a bearer token.
func (h *AuthHandler) Redeem(c *gin.Context) {
	var req redeemRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.signin.Redeem(requestContext(c), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, sessionResponse{
		AccessToken: result.AccessToken,
		Profile:     result.Profile,
		InviteCode:  result.InviteCode,
	})
}

// AdminLogin performs password authentication for the admin console.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, token, err := h.admin.Login(requestContext(c), iauth.AdminLoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, sessionResponse{
		AccessToken: token,
		Profile:     profile,
	})
}

// Me returns the authenticated account's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.profiles.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// Logout records the sign-out. Tokens are stateless; clients drop them.
func (h *AuthHandler) Logout(c *gin.Context) {
	if userID := currentUserID(c); userID != "" && h.audit != nil {
		h.audit.Record(requestContext(c), services.AuditEntry{
			ActorID:   userID,
			Action:    services.AuditActionLogout,
			Resource:  "session",
			IPAddress: c.ClientIP(),
		})
	}
	response.Success(c, http.StatusOK, gin.H{"message": "signed out"})
}
