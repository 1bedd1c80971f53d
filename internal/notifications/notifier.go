// Package notifications delivers user notifications and moderation audit
// events over Redis pub/sub, with an optional Kafka stream for audits.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"tradehub/internal/middleware"
	"tradehub/internal/models"
	"tradehub/internal/observability"

	"github.com/redis/go-redis/v9"
)

// AuditChannel carries every moderation audit event.
const AuditChannel = "audit:moderation"

// Audit actions.
const (
	ActionBan                 = "ban"
	ActionUnban               = "unban"
	ActionSetRole             = "set_role"
	ActionSetActive           = "set_active"
	ActionResolveReport       = "resolve_report"
	ActionRemoveContent       = "remove_content"
	ActionResolveVerification = "resolve_verification"
	ActionPin                 = "pin"
	ActionLock                = "lock"
)

// AuditEvent records one moderation mutation.
type AuditEvent struct {
	Action     string              `json:"action"`
	ActorID    uint                `json:"actor_id"`
	ActorRole  models.Role         `json:"actor_role"`
	TargetType models.ResourceType `json:"target_type"`
	TargetID   uint                `json:"target_id"`
	Detail     map[string]any      `json:"detail,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// Key groups events for the same target onto one partition.
func (e AuditEvent) Key() string {
	return string(e.TargetType) + ":" + strconv.FormatUint(uint64(e.TargetID), 10)
}

// Sink is an additional destination for audit events.
type Sink interface {
	Name() string
	Publish(ctx context.Context, event AuditEvent) error
	Close() error
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb   *redis.Client
	sinks []Sink
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client, sinks ...Sink) *Notifier {
	return &Notifier{rdb: rdb, sinks: sinks}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(userID), body).Err()
}

// Audit delivers event to Redis and every sink. Delivery failures are logged
// and counted; they never fail the moderation action that produced them.
func (n *Notifier) Audit(ctx context.Context, event AuditEvent) {
	if n == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	if n.rdb != nil {
		body, err := json.Marshal(event)
		if err == nil {
			err = n.rdb.Publish(ctx, AuditChannel, body).Err()
		}
		if err != nil {
			n.reportFailure(ctx, "redis", event, err)
		}
	}

	for _, sink := range n.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			n.reportFailure(ctx, sink.Name(), event, err)
		}
	}
}

func (n *Notifier) reportFailure(ctx context.Context, sink string, event AuditEvent, err error) {
	observability.AuditPublishFailures.WithLabelValues(sink).Inc()
	middleware.Logger.WarnContext(ctx, "audit publish failed",
		slog.String("sink", sink),
		slog.String("action", event.Action),
		slog.String("target", event.Key()),
		slog.String("error", err.Error()))
}

// StartAuditSubscriber subscribes to the audit channel and calls onEvent for
// each decoded event until ctx is cancelled.
func (n *Notifier) StartAuditSubscriber(ctx context.Context, onEvent func(AuditEvent)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, AuditChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", AuditChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event AuditEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					middleware.Logger.Warn("dropping malformed audit event", slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in audit subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(event)
				}()
			}
		}
	}()

	return nil
}

// Close releases every sink.
func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	var firstErr error
	for _, sink := range n.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
