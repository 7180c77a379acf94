package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/familyconnect/familyconnect/internal/services"
	appErrors "github.com/familyconnect/familyconnect/pkg/errors"
	"github.com/familyconnect/familyconnect/pkg/response"
)

// MemberHandler serves the family graph read endpoints and the soft removal.
type MemberHandler struct {
	members       *services.MemberService
	kinship       *services.KinshipService
	notifications *services.NotificationService
}

// NewMemberHandler constructs a member handler.
func NewMemberHandler(members *services.MemberService, kinship *services.KinshipService, notifications *services.NotificationService) *MemberHandler {
	return &MemberHandler{members: members, kinship: kinship, notifications: notifications}
}

// List returns the visible members of the current account's graph.
func (h *MemberHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	members, err := h.members.ListForAccount(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

// Get returns one member.
func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.members.Get(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// Tree returns members and edges for the tree page.
func (h *MemberHandler) Tree(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	tree, err := h.members.Tree(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tree)
}

// Stats returns the member count and generation estimate.
func (h *MemberHandler) Stats(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.members.Stats(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Remove soft-hides a member from the current account's graph.
func (h *MemberHandler) Remove(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if err := h.members.RemoveMember(requestContext(c), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "member removed"})
}

// Relate computes the kinship between two members. A found relation emits a
// connection_found notification to the current user.
func (h *MemberHandler) Relate(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fromID := strings.TrimSpace(c.Query("from"))
	toID := strings.TrimSpace(c.Query("to"))
	if fromID == "" || toID == "" {
		response.Error(c, appErrors.NewBadRequest("from and to member ids are required"))
		return
	}

	relation, err := h.kinship.Relate(requestContext(c), fromID, toID)
	if errors.Is(err, services.ErrNoRelation) {
		response.Success(c, http.StatusOK, gin.H{"related": false})
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.notifications != nil && relation.Label != "self" {
		// Best effort; discovery still succeeds if the notification fails.
		_, _ = h.notifications.Create(requestContext(c), services.CreateNotificationInput{
			UserID:  userID,
			Type:    services.TypeConnectionFound,
			Title:   "Connection Found",
			Message: "You are related: " + relation.Label,
			Metadata: map[string]any{
				"from":  fromID,
				"to":    toID,
				"label": relation.Label,
			},
		})
	}

	response.Success(c, http.StatusOK, gin.H{
		"related":  true,
		"relation": relation,
	})
}
