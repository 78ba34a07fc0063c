package service

import (
	"context"

	"github.com/beehive/membership/common/logger"
	rediscommon "github.com/beehive/membership/common/redis"
)

// Event names published to the reward event stream. Downstream consumers
// (notification delivery, dashboards) read these; the engine never does.
const (
	EventRewardCreated   = "reward.created"
	EventRewardClaimable = "reward.claimable"
	EventRewardClaimed   = "reward.claimed"
	EventRewardExpired   = "reward.expired"
	EventRewardRolledUp  = "reward.rolled_up"
	EventLevelActivated  = "level.activated"
)

// Notifier publishes domain events after a transaction commits.
// Publishing is best effort: a stream failure is logged and dropped,
// never propagated back into the request.
type Notifier interface {
	Publish(ctx context.Context, event string, fields map[string]interface{})
}

// StreamNotifier publishes to a Redis stream.
type StreamNotifier struct {
	redis  *rediscommon.Client
	stream string
	log    *logger.Logger
}

// NewStreamNotifier creates a notifier on the configured stream.
func NewStreamNotifier(redis *rediscommon.Client, stream string, log *logger.Logger) *StreamNotifier {
	return &StreamNotifier{redis: redis, stream: stream, log: log}
}

func (n *StreamNotifier) Publish(ctx context.Context, event string, fields map[string]interface{}) {
	if n.redis == nil {
		return
	}

	values := map[string]interface{}{"event": event}
	for k, v := range fields {
		values[k] = v
	}

	if _, err := n.redis.AddToStream(ctx, n.stream, values); err != nil {
		n.log.Warn("event publish failed", "event", event, "error", err)
	}
}

// NopNotifier drops all events. Used in tests and when Redis is
// disabled.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, string, map[string]interface{}) {}
