package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

func TestModuleStatusChanged_MarshalRoundtrip(t *testing.T) {
	event := entitlement.NewModuleStatusChanged(3, "crm", "leads", entitlement.StatusDisabled)

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded entitlement.ModuleStatusChanged
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, event.OrgID, decoded.OrgID)
	assert.Equal(t, event.ModuleKey, decoded.ModuleKey)
	assert.Equal(t, event.SubmoduleKey, decoded.SubmoduleKey)
	assert.Equal(t, event.NewStatus, decoded.NewStatus)
	assert.Equal(t, event.OccurredAt, decoded.OccurredAt)
}

func TestRedisEntitlementBus_PublishAndSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := NewRedisEntitlementBus(client, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan entitlement.ModuleStatusChanged, 1)
	go func() {
		_ = bus.SubscribeStatusChanges(ctx, func(event entitlement.ModuleStatusChanged) {
			received <- event
		})
	}()

	// give the subscriber time to attach before publishing
	require.Eventually(t, func() bool {
		err := bus.PublishModuleStatusChanged(context.Background(),
			entitlement.NewModuleStatusChanged(7, "finance", "", entitlement.StatusEnabled))
		if err != nil {
			return false
		}
		select {
		case event := <-received:
			assert.Equal(t, uint(7), event.OrgID)
			assert.Equal(t, "finance", event.ModuleKey)
			assert.Equal(t, entitlement.StatusEnabled, event.NewStatus)
			return true
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)
}
