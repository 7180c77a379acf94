package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/app"
	iauth "github.com/familyconnect/familyconnect/internal/auth"
	"github.com/familyconnect/familyconnect/internal/handlers"
	"github.com/familyconnect/familyconnect/internal/middleware"
	"github.com/familyconnect/familyconnect/internal/notifications"
	"github.com/familyconnect/familyconnect/internal/services"
	"github.com/familyconnect/familyconnect/pkg/mail"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, cfg *app.Config, hub *notifications.Hub, mailer mail.Mailer) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if hub == nil {
		hub = notifications.NewHub()
	}
	if mailer == nil {
		var err error
		mailer, err = mail.NewSMTPMailer(cfg.Email.SMTPSettings())
		if err != nil {
			return nil, err
		}
	}

	jwt, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, err
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	notificationSvc, err := services.NewNotificationService(db, hub)
	if err != nil {
		return nil, err
	}
	profileSvc, err := services.NewProfileService(db)
	if err != nil {
		return nil, err
	}
	memberSvc, err := services.NewMemberService(db)
	if err != nil {
		return nil, err
	}
	kinshipSvc, err := services.NewKinshipService(db)
	if err != nil {
		return nil, err
	}
	onboardingSvc, err := services.NewOnboardingService(db)
	if err != nil {
		return nil, err
	}

	inviteOpts := []services.InviteOption{services.WithInviteBaseURL(cfg.Server.PublicURL)}
	if cfg.Invites.TTL > 0 {
		inviteOpts = append(inviteOpts, services.WithInviteExpiry(cfg.Invites.TTL))
	}
	if cfg.Invites.CodeSize > 0 {
		inviteOpts = append(inviteOpts, services.WithInviteCodeSize(cfg.Invites.CodeSize))
	}
	inviteSvc, err := services.NewInviteService(db, mailer, notificationSvc, inviteOpts...)
	if err != nil {
		return nil, err
	}

	signinOpts := []iauth.SignInOption{iauth.WithSignInBaseURL(cfg.Server.PublicURL)}
	if cfg.Auth.SignIn.LinkTTL > 0 {
		signinOpts = append(signinOpts, iauth.WithSignInExpiry(cfg.Auth.SignIn.LinkTTL))
	}
	signinSvc, err := iauth.NewSignInService(db, jwt, mailer, signinOpts...)
	if err != nil {
		return nil, err
	}
	adminSvc, err := iauth.NewAdminService(db, jwt, auditSvc)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.Server.CORS.AllowedOrigins}))
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	r.NoRoute(middleware.NotFoundHandler)

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(signinSvc, adminSvc, profileSvc, auditSvc, cfg.Server.ExposeSignInLinks)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingSvc)
	inviteHandler := handlers.NewInviteHandler(inviteSvc)
	notificationHandler := handlers.NewNotificationHandler(notificationSvc, hub)
	memberHandler := handlers.NewMemberHandler(memberSvc, kinshipSvc, notificationSvc)
	profileHandler := handlers.NewProfileHandler(profileSvc)
	adminHandler := handlers.NewAdminHandler(auditSvc, adminSvc)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/request-link", authHandler.RequestLink)
		auth.POST("/redeem", authHandler.Redeem)
		auth.POST("/admin/login", authHandler.AdminLogin)
	}

	// The profile directory backs the public landing page.
	r.GET("/api/profiles", profileHandler.Directory)
	r.POST("/api/profiles", profileHandler.Create)

	// Protected routes
	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	// Authenticated auth routes
	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)

	onboarding := api.Group("/onboarding")
	{
		onboarding.POST("/bootstrap", onboardingHandler.Bootstrap)
		onboarding.POST("/parents", onboardingHandler.AddParents)
		onboarding.POST("/relatives", onboardingHandler.AddRelative)
		onboarding.POST("/complete", onboardingHandler.Complete)
	}

	members := api.Group("/members")
	{
		members.GET("", memberHandler.List)
		members.GET("/tree", memberHandler.Tree)
		members.GET("/stats", memberHandler.Stats)
		members.GET("/relate", memberHandler.Relate)
		members.GET("/:id", memberHandler.Get)
		members.DELETE("/:id", memberHandler.Remove)
	}

	invites := api.Group("/invites")
	{
		invites.POST("", inviteHandler.Create)
		invites.GET("", inviteHandler.List)
		invites.POST("/accept", inviteHandler.Accept)
		invites.GET("/:code/qr", inviteHandler.QRCode)
	}

	notify := api.Group("/notifications")
	{
		notify.GET("", notificationHandler.List)
		notify.GET("/unread", notificationHandler.UnreadCount)
		notify.POST("/:id/read", notificationHandler.MarkRead)
		notify.POST("/read-all", notificationHandler.MarkAllRead)
		notify.GET("/stream", notificationHandler.Stream)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireConsoleRole())
	{
		admin.GET("/audit", adminHandler.AuditLogs)
		admin.POST("/password", adminHandler.SetPassword)
	}

	return r, nil
}
