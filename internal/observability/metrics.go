// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradehub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ReactionToggles counts vote and like toggles by resource and resulting state.
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradehub_reaction_toggles_total",
		Help: "Total reaction toggles by resource type and resulting state",
	}, []string{"resource_type", "state"})

	// ReactionConflicts counts toggles that lost a race on the unique index.
	ReactionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradehub_reaction_conflicts_total",
		Help: "Total reaction toggles rejected by a concurrent write",
	}, []string{"resource_type"})

	// ReportsFiled counts reports by target type and reason.
	ReportsFiled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradehub_reports_filed_total",
		Help: "Total reports filed by target type and reason",
	}, []string{"target_type", "reason"})

	// ModerationActions counts moderator and admin actions.
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradehub_moderation_actions_total",
		Help: "Total moderation actions by action type",
	}, []string{"action"})

	// CascadeDeletes counts resource deletions and how many dependents they removed.
	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradehub_cascade_deletes_total",
		Help: "Total resource deletions by resource type",
	}, []string{"resource_type"})

	// AttachmentCleanupFailures counts best-effort attachment deletions that failed.
	AttachmentCleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradehub_attachment_cleanup_failures_total",
		Help: "Total attachment deletions that failed after a resource was removed",
	})

	// AuthFailures counts rejected credentials by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradehub_auth_failures_total",
		Help: "Total authentication failures by reason",
	}, []string{"reason"})

	// AuditPublishFailures counts moderation audit events that could not be delivered.
	AuditPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradehub_audit_publish_failures_total",
		Help: "Total audit events that failed to publish by sink",
	}, []string{"sink"})
)
