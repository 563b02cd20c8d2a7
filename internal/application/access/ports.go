package access

import (
	"context"

	"github.com/veyra-hq/veyra/internal/application/access/dto"
)

// SnapshotCache caches built session snapshots per (user, org). A cache
// failure is never fatal: the snapshot is rebuilt from the stores instead.
type SnapshotCache interface {
	// Get returns the cached snapshot, or nil on a miss.
	Get(ctx context.Context, userID, orgID uint) (*dto.SnapshotResponse, error)

	// Set stores a snapshot under the cache TTL.
	Set(ctx context.Context, snapshot *dto.SnapshotResponse) error

	// DeleteByOrg drops every cached snapshot for an organization. Called
	// when entitlements or role grants change.
	DeleteByOrg(ctx context.Context, orgID uint) error
}

// Metrics records resolution outcomes for observability.
type Metrics interface {
	RecordDecision(layer, reason string, allowed bool)
}

// NopMetrics is a Metrics that records nothing.
type NopMetrics struct{}

func (NopMetrics) RecordDecision(string, string, bool) {}
