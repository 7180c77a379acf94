package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MembersCreated counts family member nodes created, by source (self|parent|relative).
	MembersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familyconnect_members_created_total",
			Help: "Total number of family member nodes created",
		},
		[]string{"source"},
	)

	// InviteOutcomes counts invitation acceptance attempts by outcome (accepted|invalid|expired).
	InviteOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familyconnect_invite_outcomes_total",
			Help: "Total number of invitation acceptance attempts",
		},
		[]string{"outcome"},
	)

	// NotificationsEmitted counts notifications appended to the sink, by type.
	NotificationsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familyconnect_notifications_emitted_total",
			Help: "Total number of notifications written",
		},
		[]string{"type"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "familyconnect_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
