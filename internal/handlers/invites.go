package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/familyconnect/familyconnect/internal/services"
	appErrors "github.com/familyconnect/familyconnect/pkg/errors"
	"github.com/familyconnect/familyconnect/pkg/response"
)

// InviteHandler exposes the invitation lifecycle over HTTP.
type InviteHandler struct {
	invites *services.InviteService
}

// NewInviteHandler constructs an invite handler.
func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

type createInviteRequest struct {
	MemberID string `json:"member_id" validate:"omitempty,uuid4"`
	Email    string `json:"email" validate:"omitempty,email"`
	Message  string `json:"message" validate:"omitempty,max=1024"`
}

type acceptInviteRequest struct {
	Code string `json:"code" validate:"required,max=128"`
}

type inviteCreatedResponse struct {
	Invite any    `json:"invite"`
	Link   string `json:"link"`
}

// Create issues a new invitation for the current account.
func (h *InviteHandler) Create(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req createInviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invite, link, err := h.invites.Issue(requestContext(c), userID, services.IssueInviteInput{
		TargetMemberID: req.MemberID,
		RecipientEmail: req.Email,
		Message:        req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, inviteCreatedResponse{Invite: invite, Link: link})
}

// List returns the current account's sent invitations.
func (h *InviteHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	invites, err := h.invites.ListForSender(requestContext(c), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invites)
}

// Accept consumes an invitation code on behalf of the current account.
func (h *InviteHandler) Accept(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req acceptInviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invite, err := h.invites.Accept(requestContext(c), req.Code, userID)
	switch {
	case errors.Is(err, services.ErrInviteInvalid):
		response.Error(c, appErrors.ErrInviteInvalid)
		return
	case errors.Is(err, services.ErrInviteExpired):
		response.Error(c, appErrors.ErrInviteExpired)
		return
	case err != nil:
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invite)
}

// QRCode renders the invitation link as a PNG for in-person sharing.
func (h *InviteHandler) QRCode(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	code := c.Param("code")
	invite, err := h.invites.GetForSender(requestContext(c), code, userID)
	if errors.Is(err, services.ErrInviteInvalid) {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	png, err := qrcode.Encode(h.invites.InviteLink(invite.InviteCode), qrcode.Medium, 256)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
