package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/familyconnect/familyconnect/internal/auth"
	"github.com/familyconnect/familyconnect/internal/services"
	"github.com/familyconnect/familyconnect/pkg/logger"
)

const (
	defaultSchedule              = "0 3 * * *"
	defaultNotificationRetention = 30 * 24 * time.Hour
	defaultAuditRetention        = 90 * 24 * time.Hour
)

// Cleaner coordinates background maintenance tasks: expiring stale invitations,
// purging consumed sign-in links, and pruning read notifications and old audit rows.
type Cleaner struct {
	invites       *services.InviteService
	notifications *services.NotificationService
	audit         *services.AuditService
	signin        *iauth.SignInService

	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger

	schedule              string
	notificationRetention time.Duration
	auditRetention        time.Duration
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron specification shared by all cleanup jobs.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithNotificationRetention adjusts how long read notifications are kept.
func WithNotificationRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.notificationRetention = d
		}
	}
}

// WithAuditRetention adjusts how long audit log entries are kept.
func WithAuditRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.auditRetention = d
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding cleanup job being skipped.
func NewCleaner(invites *services.InviteService, notifications *services.NotificationService, audit *services.AuditService, signin *iauth.SignInService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		invites:               invites,
		notifications:         notifications,
		audit:                 audit,
		signin:                signin,
		now:                   time.Now,
		schedule:              defaultSchedule,
		notificationRetention: defaultNotificationRetention,
		auditRetention:        defaultAuditRetention,
		log:                   logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("scheduled cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Also used
// during graceful shutdown so retention is enforced at least once per run.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	now := c.now()
	var errs error

	if c.invites != nil {
		expired, err := c.invites.ExpireStale(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if expired > 0 {
			c.log.Info("expired stale invitations", zap.Int64("count", expired))
		}
	}

	if c.signin != nil {
		purged, err := c.signin.PurgeExpired(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if purged > 0 {
			c.log.Info("purged sign-in links", zap.Int64("count", purged))
		}
	}

	if c.notifications != nil {
		purged, err := c.notifications.PurgeRead(ctx, now.Add(-c.notificationRetention))
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if purged > 0 {
			c.log.Info("purged read notifications", zap.Int64("count", purged))
		}
	}

	if c.audit != nil {
		pruned, err := c.audit.Prune(ctx, now.Add(-c.auditRetention))
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if pruned > 0 {
			c.log.Info("pruned audit entries", zap.Int64("count", pruned))
		}
	}

	return errs
}
