package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/familyconnect/familyconnect/internal/auditctx"
	"github.com/familyconnect/familyconnect/internal/middleware"
)

// requestContext returns the request context annotated with actor metadata so
// service-layer audit writes can attribute the action. Falls back to a
// background context for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}

	ctx := context.Background()
	if req := c.Request; req != nil {
		ctx = req.Context()
	}

	actor := auditctx.Actor{UserID: currentUserID(c)}
	if c.Request != nil {
		actor.IPAddress = c.ClientIP()
		actor.UserAgent = c.Request.UserAgent()
	}
	return auditctx.WithActor(ctx, actor)
}

// currentUserID pulls the authenticated account id set by the auth middleware.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}
