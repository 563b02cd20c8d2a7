package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/shared/goroutine"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

const entitlementChangeChannel = "veyra:entitlement:change"

var _ entitlement.EventPublisher = (*RedisEntitlementBus)(nil)

// EntitlementSubscriber consumes entitlement status change events. The
// reconciliation worker uses it to drop cached snapshots and notify tenants
// on every instance.
type EntitlementSubscriber interface {
	SubscribeStatusChanges(ctx context.Context, handler func(event entitlement.ModuleStatusChanged)) error
}

// RedisEntitlementBus publishes and consumes entitlement status changes via
// Redis Pub/Sub so every instance observes writes made on any of them.
type RedisEntitlementBus struct {
	client *redis.Client
	logger logger.Interface
}

// NewRedisEntitlementBus creates a Redis-backed entitlement event bus.
func NewRedisEntitlementBus(client *redis.Client, logger logger.Interface) *RedisEntitlementBus {
	return &RedisEntitlementBus{
		client: client,
		logger: logger,
	}
}

// PublishModuleStatusChanged broadcasts a status change.
func (b *RedisEntitlementBus) PublishModuleStatusChanged(ctx context.Context, event entitlement.ModuleStatusChanged) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status change event: %w", err)
	}

	if err := b.client.Publish(ctx, entitlementChangeChannel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish status change",
			"org_id", event.OrgID,
			"module", event.ModuleKey,
			"error", err,
		)
		return fmt.Errorf("failed to publish status change: %w", err)
	}

	b.logger.Debugw("status change published",
		"org_id", event.OrgID,
		"module", event.ModuleKey,
		"submodule", event.SubmoduleKey,
		"status", event.NewStatus,
	)
	return nil
}

// SubscribeStatusChanges consumes status change events until the context is
// canceled, reconnecting with exponential backoff on broker failures.
func (b *RedisEntitlementBus) SubscribeStatusChanges(ctx context.Context, handler func(event entitlement.ModuleStatusChanged)) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.subscribe(ctx, func(payload string) {
			var event entitlement.ModuleStatusChanged
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal status change event",
					"payload", payload,
					"error", err,
				)
				return
			}
			handler(event)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("entitlement subscription disconnected, reconnecting",
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisEntitlementBus) subscribe(ctx context.Context, handler func(payload string)) error {
	pubsub := b.client.Subscribe(ctx, entitlementChangeChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", entitlementChangeChannel, err)
	}

	b.logger.Infow("subscribed to entitlement change channel", "channel", entitlementChangeChannel)

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("entitlement subscriber stopped", "reason", ctx.Err())
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("entitlement change channel closed")
				return nil
			}

			goroutine.SafeGo(b.logger, "entitlement-change-handler", func() {
				handler(msg.Payload)
			})
		}
	}
}
