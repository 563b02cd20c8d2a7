package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// TrialNotifier informs a tenant that a module trial has ended. Failures are
// logged and never block the sweep.
type TrialNotifier interface {
	NotifyTrialExpired(ctx context.Context, orgID uint, moduleKey string) error
}

// ExpireTrialsUseCase is the reconciliation sweep: it persists the demotion
// of trial rows whose expiry has passed. The read path already treats such
// rows as expired without writing; the sweep makes the stored state match.
// It is idempotent, a row is demoted at most once.
type ExpireTrialsUseCase struct {
	entitlementRepo entitlement.Repository
	publisher       entitlement.EventPublisher
	snapshots       SnapshotInvalidator
	notifier        TrialNotifier
	logger          logger.Interface
	now             func() time.Time
}

// NewExpireTrialsUseCase creates a new expire trials use case. publisher,
// snapshots and notifier may be nil.
func NewExpireTrialsUseCase(
	entitlementRepo entitlement.Repository,
	publisher entitlement.EventPublisher,
	snapshots SnapshotInvalidator,
	notifier TrialNotifier,
	logger logger.Interface,
) *ExpireTrialsUseCase {
	return &ExpireTrialsUseCase{
		entitlementRepo: entitlementRepo,
		publisher:       publisher,
		snapshots:       snapshots,
		notifier:        notifier,
		logger:          logger,
		now:             time.Now,
	}
}

// WithClock overrides the sweep's clock. Test use only.
func (uc *ExpireTrialsUseCase) WithClock(now func() time.Time) *ExpireTrialsUseCase {
	uc.now = now
	return uc
}

// Execute demotes all expired trial rows and returns how many were demoted.
func (uc *ExpireTrialsUseCase) Execute(ctx context.Context) (int, error) {
	expired, err := uc.entitlementRepo.ListExpiredTrials(ctx, uc.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired trials: %w", err)
	}

	demoted := 0
	for _, row := range expired {
		row.Disable()
		if err := uc.entitlementRepo.Update(ctx, row); err != nil {
			uc.logger.Errorw("failed to demote expired trial",
				"id", row.ID(), "org_id", row.OrgID(), "module", row.ModuleKey(), "error", err)
			continue
		}
		demoted++

		uc.logger.Infow("trial expired and demoted",
			"org_id", row.OrgID(), "module", row.ModuleKey(), "submodule", row.SubmoduleKey())

		if uc.publisher != nil {
			event := entitlement.NewModuleStatusChanged(row.OrgID(), row.ModuleKey(), row.SubmoduleKey(), row.Status())
			if err := uc.publisher.PublishModuleStatusChanged(ctx, event); err != nil {
				uc.logger.Warnw("failed to publish trial expiry event", "error", err, "org_id", row.OrgID())
			}
		}
		if uc.snapshots != nil {
			if err := uc.snapshots.DeleteByOrg(ctx, row.OrgID()); err != nil {
				uc.logger.Warnw("failed to invalidate snapshots", "error", err, "org_id", row.OrgID())
			}
		}
		if uc.notifier != nil && row.IsModuleLevel() {
			if err := uc.notifier.NotifyTrialExpired(ctx, row.OrgID(), row.ModuleKey()); err != nil {
				uc.logger.Warnw("failed to send trial expiry notice", "error", err, "org_id", row.OrgID())
			}
		}
	}

	return demoted, nil
}
