package repository

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/domain/organization"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/domain/user"
	"github.com/veyra-hq/veyra/internal/infrastructure/persistence/models"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.OrgEntitlementModel{},
		&models.DelegationModel{},
		&models.OrganizationModel{},
		&models.UserModel{},
	)
	require.NoError(t, err)

	return db
}

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

func TestOrgEntitlementRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrgEntitlementRepository(db, testLogger())
	ctx := context.Background()

	row, err := entitlement.NewModuleEntitlement(1, "crm", entitlement.StatusEnabled, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, row))
	assert.NotZero(t, row.ID())

	found, err := repo.GetModule(ctx, 1, "crm")
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusEnabled, found.Status())
	assert.True(t, found.IsModuleLevel())

	_, err = repo.GetModule(ctx, 1, "inventory")
	assert.ErrorIs(t, err, entitlement.ErrEntitlementNotFound)

	_, err = repo.GetModule(ctx, 2, "crm")
	assert.ErrorIs(t, err, entitlement.ErrEntitlementNotFound, "rows are org scoped")
}

func TestOrgEntitlementRepository_DuplicateRowRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrgEntitlementRepository(db, testLogger())
	ctx := context.Background()

	first, err := entitlement.NewModuleEntitlement(1, "crm", entitlement.StatusEnabled, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := entitlement.NewModuleEntitlement(1, "crm", entitlement.StatusDisabled, nil)
	require.NoError(t, err)
	err = repo.Create(ctx, second)
	assert.True(t, errors.IsConflictError(err))
}

func TestOrgEntitlementRepository_UpdatePersistsStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrgEntitlementRepository(db, testLogger())
	ctx := context.Background()

	expiry := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	row, err := entitlement.NewModuleEntitlement(1, "finance", entitlement.StatusTrial, &expiry)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, row))

	row.Disable()
	require.NoError(t, repo.Update(ctx, row))

	found, err := repo.GetModule(ctx, 1, "finance")
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusDisabled, found.Status())
	assert.Nil(t, found.TrialExpiry(), "disable clears the trial expiry")
}

func TestOrgEntitlementRepository_BatchCreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrgEntitlementRepository(db, testLogger())
	ctx := context.Background()

	var rows []*entitlement.ModuleEntitlement
	module, err := entitlement.NewModuleEntitlement(1, "crm", entitlement.StatusEnabled, nil)
	require.NoError(t, err)
	sub, err := entitlement.NewSubmoduleEntitlement(1, "crm", "leads", entitlement.StatusEnabled, nil)
	require.NoError(t, err)
	rows = append(rows, module, sub)

	require.NoError(t, repo.BatchCreate(ctx, rows))

	listed, err := repo.ListByOrg(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestOrgEntitlementRepository_ListExpiredTrials(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrgEntitlementRepository(db, testLogger())
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	expired, err := entitlement.NewModuleEntitlement(1, "reports", entitlement.StatusTrial, &past)
	require.NoError(t, err)
	running, err := entitlement.NewModuleEntitlement(1, "finance", entitlement.StatusTrial, &future)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, running))

	found, err := repo.ListExpiredTrials(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "reports", found[0].ModuleKey())
}

func TestDelegationRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDelegationRepository(db, testLogger())
	ctx := context.Background()

	d, err := rbac.NewDelegation(5, 9, "crm.write")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, d))
	assert.NotZero(t, d.ID())

	active, err := repo.ActiveForUser(ctx, 9)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "crm.write", active[0].Permission())

	d.Revoke()
	require.NoError(t, repo.Update(ctx, d))

	active, err = repo.ActiveForUser(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, active, "revoked delegations are filtered out")

	// the row survives revocation for reactivation
	found, err := repo.Find(ctx, 9, "crm.write")
	require.NoError(t, err)
	assert.False(t, found.IsActive())
}

func TestDelegationRepository_DuplicatePairRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDelegationRepository(db, testLogger())
	ctx := context.Background()

	first, err := rbac.NewDelegation(5, 9, "crm.write")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := rbac.NewDelegation(6, 9, "crm.write")
	require.NoError(t, err)
	err = repo.Create(ctx, second)
	assert.Error(t, err)
}

func TestOrganizationRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrganizationRepository(db, testLogger())
	ctx := context.Background()

	org, err := organization.NewOrganization("Acme Industrial", "professional")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, org))

	found, err := repo.GetByID(ctx, org.ID())
	require.NoError(t, err)
	assert.Equal(t, "Acme Industrial", found.Name())
	assert.Equal(t, "professional", found.Tier())
	assert.True(t, found.IsActive())
}

func TestUserRepository_CreateAndGetByEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, testLogger())
	ctx := context.Background()

	orgID := uint(1)
	u, err := user.NewUser("Ops@Acme.example", "Ops Lead", "$2a$10$hash", rbac.RoleOrgAdmin, &orgID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	found, err := repo.GetByEmail(ctx, "ops@acme.example")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), found.ID())
	assert.Equal(t, rbac.RoleOrgAdmin, found.Role())
	require.NotNil(t, found.OrgID())
	assert.Equal(t, uint(1), *found.OrgID())
}

func TestUserRepository_DuplicateEmailRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, testLogger())
	ctx := context.Background()

	orgID := uint(1)
	first, err := user.NewUser("dup@acme.example", "First", "$2a$10$hash", rbac.RoleExecutive, &orgID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := user.NewUser("dup@acme.example", "Second", "$2a$10$hash", rbac.RoleExecutive, &orgID)
	require.NoError(t, err)
	err = repo.Create(ctx, second)
	assert.Error(t, err)
}
