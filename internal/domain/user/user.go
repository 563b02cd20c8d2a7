package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/veyra-hq/veyra/internal/domain/rbac"
)

// PasswordHasher hashes and verifies user passwords. The production
// implementation is bcrypt.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// User is an authenticated member of an organization. Super-admins are
// platform operators and carry no organization binding.
type User struct {
	id           uint
	email        string
	name         string
	passwordHash string
	role         rbac.Role
	orgID        *uint
	active       bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a user aggregate. Non-super-admin users must belong to an
// organization.
func NewUser(email, name, passwordHash string, role rbac.Role, orgID *uint) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email: %s", email)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash is required")
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}
	if role.IsSuperAdmin() {
		if orgID != nil {
			return nil, fmt.Errorf("super-admin cannot be bound to an organization")
		}
	} else if orgID == nil || *orgID == 0 {
		return nil, fmt.Errorf("user must belong to an organization")
	}

	now := time.Now()
	return &User{
		email:        email,
		name:         strings.TrimSpace(name),
		passwordHash: passwordHash,
		role:         role,
		orgID:        orgID,
		active:       true,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructUser recreates a user from persistence.
func ReconstructUser(id uint, email, name, passwordHash string, role rbac.Role, orgID *uint, active bool, createdAt, updatedAt time.Time) (*User, error) {
	if id == 0 {
		return nil, fmt.Errorf("user ID cannot be zero")
	}
	return &User{
		id:           id,
		email:        email,
		name:         name,
		passwordHash: passwordHash,
		role:         role,
		orgID:        orgID,
		active:       active,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (u *User) ID() uint             { return u.id }
func (u *User) Email() string        { return u.email }
func (u *User) Name() string         { return u.name }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Role() rbac.Role      { return u.role }
func (u *User) OrgID() *uint         { return u.orgID }
func (u *User) IsActive() bool       { return u.active }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// IsSuperAdmin reports whether the user is a platform operator.
func (u *User) IsSuperAdmin() bool {
	return u.role.IsSuperAdmin()
}

// SetID sets the ID after persistence. Fails if already set.
func (u *User) SetID(id uint) error {
	if u.id != 0 {
		return fmt.Errorf("user ID already set")
	}
	if id == 0 {
		return fmt.Errorf("user ID cannot be zero")
	}
	u.id = id
	return nil
}

// VerifyPassword checks a candidate password against the stored hash.
func (u *User) VerifyPassword(password string, hasher PasswordHasher) error {
	return hasher.Verify(password, u.passwordHash)
}

// ChangeRole moves the user to a new role. Promotion into super-admin is a
// platform operation and rejected here.
func (u *User) ChangeRole(role rbac.Role) error {
	if !role.IsValid() {
		return fmt.Errorf("invalid role: %s", role)
	}
	if role.IsSuperAdmin() {
		return fmt.Errorf("cannot promote to super-admin")
	}
	u.role = role
	u.updatedAt = time.Now()
	return nil
}

// Deactivate disables the account.
func (u *User) Deactivate() {
	if !u.active {
		return
	}
	u.active = false
	u.updatedAt = time.Now()
}
