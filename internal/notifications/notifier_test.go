package notifications

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tradehub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	err    error
	events []AuditEvent
}

func (s *recordingSink) Name() string { return "recording" }
func (s *recordingSink) Close() error { return nil }
func (s *recordingSink) Publish(_ context.Context, event AuditEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, map[string]string{"type": "ban"}))
	assert.NotPanics(t, func() { n.Audit(context.Background(), AuditEvent{Action: ActionBan}) })
	assert.NoError(t, n.StartAuditSubscriber(context.Background(), func(AuditEvent) {}))
}

func TestNotifier_AuditReachesSinksEvenWhenOneFails(t *testing.T) {
	failing := &recordingSink{err: errors.New("broker down")}
	healthy := &recordingSink{}
	n := NewNotifier(nil, failing, healthy)

	n.Audit(context.Background(), AuditEvent{Action: ActionBan, TargetType: models.ResourceUser, TargetID: 7})

	require.Len(t, failing.events, 1)
	require.Len(t, healthy.events, 1)
	assert.False(t, healthy.events[0].OccurredAt.IsZero())
	assert.Equal(t, "user:7", healthy.events[0].Key())
}

func TestNotifier_AuditSubscriberReceivesEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received atomic.Value
	require.NoError(t, n.StartAuditSubscriber(ctx, func(event AuditEvent) {
		received.Store(event)
	}))

	n.Audit(context.Background(), AuditEvent{Action: ActionSetRole, ActorID: 1, TargetType: models.ResourceUser, TargetID: 2})

	assert.Eventually(t, func() bool {
		event, ok := received.Load().(AuditEvent)
		return ok && event.Action == ActionSetRole && event.TargetID == 2
	}, time.Second, 10*time.Millisecond)
}

func TestKafkaSink_DisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewKafkaSink(nil, "audit"))
	assert.Nil(t, NewKafkaSink([]string{"localhost:9092"}, ""))
}

func TestKafkaMessage(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := message(AuditEvent{Action: ActionLock, TargetType: models.ResourceForumPost, TargetID: 3, OccurredAt: at}, []byte("{}"))
	assert.Equal(t, "forum_post:3", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "lock", string(msg.Headers[0].Value))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:42", UserChannel(42))
}
