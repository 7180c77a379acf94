package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familyconnect/familyconnect/internal/models"
	"github.com/familyconnect/familyconnect/internal/services"
)

func mountInvites(t *testing.T, env *testEnv, userID string) *services.InviteService {
	t.Helper()
	notifications, err := services.NewNotificationService(env.db, nil)
	require.NoError(t, err)
	invites, err := services.NewInviteService(env.db, nil, notifications,
		services.WithInviteBaseURL("https://familyconnect.test"))
	require.NoError(t, err)
	handler := NewInviteHandler(invites)

	group := env.router.Group("/api/invites", asUser(userID))
	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.POST("/accept", handler.Accept)
	group.GET("/:code/qr", handler.QRCode)
	return invites
}

func TestInviteCreateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	sender := env.seedProfile(t)
	mountInvites(t, env, sender.ID)

	w := env.do(t, http.MethodPost, "/api/invites", map[string]any{})
	mustStatus(t, w, http.StatusCreated)

	data := decodeData(t, w)
	link, _ := data["link"].(string)
	assert.Contains(t, link, "https://familyconnect.test/auth?invite=")

	var count int64
	require.NoError(t, env.db.Model(&models.Invitation{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestInviteCreateRejectsBadEmail(t *testing.T) {
	env := newTestEnv(t)
	sender := env.seedProfile(t)
	mountInvites(t, env, sender.ID)

	w := env.do(t, http.MethodPost, "/api/invites", map[string]any{"email": "not-an-email"})
	mustStatus(t, w, http.StatusBadRequest)
}

func TestInviteAcceptEndpoint(t *testing.T) {
	env := newTestEnv(t)
	sender := env.seedProfile(t)
	accepter := env.seedProfile(t)

	// The accepting account drives the router identity for this test.
	invites := mountInvites(t, env, accepter.ID)
	invite, _, err := invites.Issue(requestContext(nil), sender.ID, services.IssueInviteInput{})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/invites/accept", map[string]any{"code": invite.InviteCode})
	mustStatus(t, w, http.StatusOK)

	data := decodeData(t, w)
	assert.Equal(t, models.InviteAccepted, data["status"])
}

func TestInviteAcceptUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	accepter := env.seedProfile(t)
	mountInvites(t, env, accepter.ID)

	w := env.do(t, http.MethodPost, "/api/invites/accept", map[string]any{"code": "bogus"})
	mustStatus(t, w, http.StatusNotFound)
}

func TestInviteQRCodeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	sender := env.seedProfile(t)
	invites := mountInvites(t, env, sender.ID)

	invite, _, err := invites.Issue(requestContext(nil), sender.ID, services.IssueInviteInput{})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/invites/"+invite.InviteCode+"/qr", nil)
	mustStatus(t, w, http.StatusOK)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestInviteQRCodeWorksBeyondDefaultListPage(t *testing.T) {
	env := newTestEnv(t)
	sender := env.seedProfile(t)
	invites := mountInvites(t, env, sender.ID)

	// The oldest code must stay reachable no matter how many invitations
	// the sender has issued since.
	first, _, err := invites.Issue(requestContext(nil), sender.ID, services.IssueInviteInput{})
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		_, _, err := invites.Issue(requestContext(nil), sender.ID, services.IssueInviteInput{})
		require.NoError(t, err)
	}

	w := env.do(t, http.MethodGet, "/api/invites/"+first.InviteCode+"/qr", nil)
	mustStatus(t, w, http.StatusOK)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestInviteQRCodeForeignCodeHidden(t *testing.T) {
	env := newTestEnv(t)
	sender := env.seedProfile(t)
	other := env.seedProfile(t)
	invites := mountInvites(t, env, other.ID)

	invite, _, err := invites.Issue(requestContext(nil), sender.ID, services.IssueInviteInput{})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/invites/"+invite.InviteCode+"/qr", nil)
	mustStatus(t, w, http.StatusNotFound)
}
