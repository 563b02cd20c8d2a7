package usecases

import (
	"context"
	"fmt"
	"time"

	appaccess "github.com/veyra-hq/veyra/internal/application/access"
	"github.com/veyra-hq/veyra/internal/application/access/dto"
	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// GetSnapshotUseCase builds the session snapshot a client caches behind its
// local mirror: the org's entitlement states plus the caller's effective
// permissions.
type GetSnapshotUseCase struct {
	evaluator   *entitlement.Evaluator
	permissions *rbac.Store
	cache       appaccess.SnapshotCache
	logger      logger.Interface
}

// NewGetSnapshotUseCase creates a new get snapshot use case. cache may be
// nil, in which case every call rebuilds from the stores.
func NewGetSnapshotUseCase(
	evaluator *entitlement.Evaluator,
	permissions *rbac.Store,
	cache appaccess.SnapshotCache,
	logger logger.Interface,
) *GetSnapshotUseCase {
	return &GetSnapshotUseCase{
		evaluator:   evaluator,
		permissions: permissions,
		cache:       cache,
		logger:      logger,
	}
}

// Execute builds the snapshot for the session's own scope. Sessions without
// an organization cannot request one unless they are super-admins.
func (uc *GetSnapshotUseCase) Execute(ctx context.Context, session access.Session) (*dto.SnapshotResponse, error) {
	if session.SuperAdmin {
		// Platform operators carry no org entitlements and bypass RBAC;
		// their snapshot only marks the bypass.
		return &dto.SnapshotResponse{
			UserID:       session.UserID,
			Role:         string(session.Role),
			SuperAdmin:   true,
			Entitlements: map[string]dto.EntitlementState{},
			Permissions:  []string{},
			FetchedAt:    time.Now(),
		}, nil
	}

	if !session.HasOrg() {
		uc.logger.Warnw("snapshot requested without org context", "user_id", session.UserID)
		return nil, errors.NewNoOrgContextError()
	}
	orgID := session.Org()

	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, session.UserID, orgID)
		if err != nil {
			uc.logger.Warnw("snapshot cache read failed", "error", err, "user_id", session.UserID)
		} else if cached != nil {
			return cached, nil
		}
	}

	states, err := uc.evaluator.Snapshot(ctx, orgID)
	if err != nil {
		uc.logger.Errorw("failed to build entitlement snapshot", "error", err, "org_id", orgID)
		return nil, fmt.Errorf("failed to build entitlement snapshot: %w", err)
	}

	permissions, err := uc.permissions.EffectivePermissions(ctx, session.UserID, session.Role)
	if err != nil {
		uc.logger.Errorw("failed to load effective permissions", "error", err, "user_id", session.UserID)
		return nil, fmt.Errorf("failed to load effective permissions: %w", err)
	}

	entitlements := make(map[string]dto.EntitlementState, len(states))
	for key, state := range states {
		entitlements[key] = dto.EntitlementState{
			Status:      string(state.Status),
			TrialExpiry: state.TrialExpiry,
		}
	}

	snapshot := &dto.SnapshotResponse{
		UserID:       session.UserID,
		OrgID:        orgID,
		Role:         string(session.Role),
		Entitlements: entitlements,
		Permissions:  permissions,
		FetchedAt:    time.Now(),
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, snapshot); err != nil {
			uc.logger.Warnw("snapshot cache write failed", "error", err, "user_id", session.UserID)
		}
	}

	return snapshot, nil
}
