package usecases

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyra-hq/veyra/internal/application/auth/dto"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/domain/user"
	"github.com/veyra-hq/veyra/internal/infrastructure/auth"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

type fakeUserRepo struct {
	byID    map[uint]*user.User
	byEmail map[string]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	r := &fakeUserRepo{
		byID:    make(map[uint]*user.User),
		byEmail: make(map[string]*user.User),
	}
	for _, u := range users {
		r.byID[u.ID()] = u
		r.byEmail[u.Email()] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) error { return nil }
func (r *fakeUserRepo) Update(ctx context.Context, u *user.User) error { return nil }

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*user.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, errors.NewNotFoundError("user not found")
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, errors.NewNotFoundError("user not found")
}

func (r *fakeUserRepo) ListByOrg(ctx context.Context, orgID uint) ([]*user.User, error) {
	return nil, nil
}

func testUser(t *testing.T, id uint, email string, role rbac.Role, active bool, hasher user.PasswordHasher, password string) *user.User {
	t.Helper()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	orgID := uint(7)
	var org *uint
	if !role.IsSuperAdmin() {
		org = &orgID
	}
	now := time.Now().UTC()
	u, err := user.ReconstructUser(id, email, "Test User", hash, role, org, active, now, now)
	require.NoError(t, err)
	return u
}

func TestLogin_Succeeds(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(4)
	jwtSvc := auth.NewJWTService("test-secret", 15, 7)
	u := testUser(t, 42, "lena@example.com", rbac.RoleManagement, true, hasher, "correct horse")
	uc := NewLoginUseCase(newFakeUserRepo(u), hasher, jwtSvc, testLogger())

	resp, err := uc.Execute(context.Background(), dto.LoginRequest{
		Email:    "lena@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, uint(42), resp.User.ID)
	assert.Equal(t, rbac.RoleManagement.String(), resp.User.Role)
	require.NotNil(t, resp.User.OrgID)
	assert.Equal(t, uint(7), *resp.User.OrgID)

	claims, err := jwtSvc.VerifyAccess(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestLogin_FailuresShareOneError(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(4)
	jwtSvc := auth.NewJWTService("test-secret", 15, 7)
	active := testUser(t, 1, "active@example.com", rbac.RoleExecutive, true, hasher, "pw-active")
	inactive := testUser(t, 2, "inactive@example.com", rbac.RoleExecutive, false, hasher, "pw-inactive")
	uc := NewLoginUseCase(newFakeUserRepo(active, inactive), hasher, jwtSvc, testLogger())

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "anything"},
		{"wrong password", "active@example.com", "wrong"},
		{"inactive account", "inactive@example.com", "pw-inactive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), dto.LoginRequest{
				Email:    tc.email,
				Password: tc.password,
			})
			require.Error(t, err)
			assert.True(t, errors.IsForbiddenError(err))
			assert.Equal(t, "invalid email or password", errors.GetAppError(err).Message)
		})
	}
}

func TestRefresh_RotatesWithCurrentUserState(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(4)
	jwtSvc := auth.NewJWTService("test-secret", 15, 7)
	u := testUser(t, 42, "lena@example.com", rbac.RoleExecutive, true, hasher, "pw")
	repo := newFakeUserRepo(u)
	uc := NewRefreshUseCase(repo, jwtSvc, testLogger())

	pair, err := jwtSvc.Generate(u.ID(), rbac.RoleExecutive, u.OrgID())
	require.NoError(t, err)

	// The user was promoted since the pair was issued. The rotated access
	// token must carry the current role, not the one baked into the claims.
	require.NoError(t, u.ChangeRole(rbac.RoleManagement))

	resp, err := uc.Execute(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	claims, err := jwtSvc.VerifyAccess(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleManagement, claims.Role)
}

func TestRefresh_RejectsAccessTokenAndInactiveUser(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(4)
	jwtSvc := auth.NewJWTService("test-secret", 15, 7)
	u := testUser(t, 42, "lena@example.com", rbac.RoleExecutive, true, hasher, "pw")
	uc := NewRefreshUseCase(newFakeUserRepo(u), jwtSvc, testLogger())

	pair, err := jwtSvc.Generate(u.ID(), u.Role(), u.OrgID())
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), pair.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.IsForbiddenError(err))

	u.Deactivate()
	_, err = uc.Execute(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.IsForbiddenError(err))
}

func TestRefresh_RejectsTokenForDeletedUser(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(4)
	jwtSvc := auth.NewJWTService("test-secret", 15, 7)
	u := testUser(t, 42, "lena@example.com", rbac.RoleExecutive, true, hasher, "pw")
	uc := NewRefreshUseCase(newFakeUserRepo(), jwtSvc, testLogger())

	pair, err := jwtSvc.Generate(u.ID(), u.Role(), u.OrgID())
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.IsForbiddenError(err))
}
