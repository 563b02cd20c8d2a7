package cache

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyra-hq/veyra/internal/application/access/dto"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

func setupCache(t *testing.T) (*RedisSnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisSnapshotCache(client, 15*time.Minute, logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler)))
	return c, mr
}

func sampleSnapshot(userID, orgID uint) *dto.SnapshotResponse {
	return &dto.SnapshotResponse{
		UserID: userID,
		OrgID:  orgID,
		Role:   "management",
		Entitlements: map[string]dto.EntitlementState{
			"crm": {Status: "enabled"},
		},
		Permissions: []string{"crm.read"},
		FetchedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestRedisSnapshotCache_SetGetRoundtrip(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleSnapshot(5, 3)))

	got, err := c.Get(ctx, 5, 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint(5), got.UserID)
	assert.Equal(t, "enabled", got.Entitlements["crm"].Status)
	assert.Equal(t, []string{"crm.read"}, got.Permissions)
}

func TestRedisSnapshotCache_MissReturnsNil(t *testing.T) {
	c, _ := setupCache(t)

	got, err := c.Get(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSnapshotCache_EntriesExpire(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleSnapshot(5, 3)))
	mr.FastForward(16 * time.Minute)

	got, err := c.Get(ctx, 5, 3)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSnapshotCache_DeleteByOrgScopesToTenant(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleSnapshot(5, 3)))
	require.NoError(t, c.Set(ctx, sampleSnapshot(6, 3)))
	require.NoError(t, c.Set(ctx, sampleSnapshot(7, 4)))

	require.NoError(t, c.DeleteByOrg(ctx, 3))

	got, err := c.Get(ctx, 5, 3)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Get(ctx, 6, 3)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Get(ctx, 7, 4)
	require.NoError(t, err)
	assert.NotNil(t, got, "other tenants keep their snapshots")
}

func TestRedisSnapshotCache_CorruptEntryDropped(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("veyra:snapshot:3:5", "not-json"))

	got, err := c.Get(ctx, 5, 3)
	require.NoError(t, err)
	assert.Nil(t, got)
}
