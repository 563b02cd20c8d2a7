package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyra-hq/veyra/internal/domain/rbac"
)

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 7)

	orgID := uint(3)
	pair, err := svc.Generate(42, rbac.RoleManagement, &orgID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(15*60), pair.ExpiresIn)

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, rbac.RoleManagement, claims.Role)
	require.NotNil(t, claims.OrgID)
	assert.Equal(t, uint(3), *claims.OrgID)

	session := claims.Session()
	assert.Equal(t, uint(42), session.UserID)
	assert.False(t, session.SuperAdmin)
	assert.True(t, session.HasOrg())
	assert.Equal(t, uint(3), session.Org())
}

func TestJWTService_RejectsRefreshTokenAtAccessCheck(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 7)

	orgID := uint(3)
	pair, err := svc.Generate(42, rbac.RoleExecutive, &orgID)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.RefreshToken)
	assert.Error(t, err)
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 7)
	other := NewJWTService("other-secret", 15, 7)

	orgID := uint(3)
	pair, err := other.Generate(42, rbac.RoleExecutive, &orgID)
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTService_SuperAdminSessionHasNoOrg(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 7)

	pair, err := svc.Generate(1, rbac.RoleSuperAdmin, nil)
	require.NoError(t, err)

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	session := claims.Session()
	assert.True(t, session.SuperAdmin)
	assert.False(t, session.HasOrg())
}

func TestJWTService_VerifyRefresh(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 7)

	orgID := uint(3)
	pair, err := svc.Generate(42, rbac.RoleManagement, &orgID)
	require.NoError(t, err)

	claims, err := svc.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, rbac.RoleManagement, claims.Role)

	_, err = svc.VerifyRefresh(pair.AccessToken)
	assert.Error(t, err, "access tokens cannot be used to refresh")
}

func TestBcryptPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewBcryptPasswordHasher(4)

	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hash)

	assert.NoError(t, hasher.Verify("s3cret", hash))
	assert.Error(t, hasher.Verify("wrong", hash))
}
