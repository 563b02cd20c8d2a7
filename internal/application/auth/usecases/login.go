package usecases

import (
	"context"
	"fmt"

	"github.com/veyra-hq/veyra/internal/application/auth/dto"
	"github.com/veyra-hq/veyra/internal/domain/user"
	"github.com/veyra-hq/veyra/internal/infrastructure/auth"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// LoginUseCase authenticates a user with email and password and issues a
// token pair. Lookup and verification failures collapse into one generic
// error so callers cannot probe for registered emails.
type LoginUseCase struct {
	userRepo   user.Repository
	hasher     user.PasswordHasher
	jwtService *auth.JWTService
	logger     logger.Interface
}

// NewLoginUseCase creates a new login use case.
func NewLoginUseCase(
	userRepo user.Repository,
	hasher user.PasswordHasher,
	jwtService *auth.JWTService,
	logger logger.Interface,
) *LoginUseCase {
	return &LoginUseCase{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Execute authenticates the credentials and returns a token pair.
func (uc *LoginUseCase) Execute(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error) {
	u, err := uc.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			uc.logger.Errorw("failed to load user for login", "error", err)
		}
		return nil, errors.NewForbiddenError("invalid email or password")
	}

	if !u.IsActive() {
		uc.logger.Warnw("login attempt on inactive account", "user_id", u.ID())
		return nil, errors.NewForbiddenError("invalid email or password")
	}

	if err := u.VerifyPassword(req.Password, uc.hasher); err != nil {
		uc.logger.Warnw("failed login attempt", "user_id", u.ID())
		return nil, errors.NewForbiddenError("invalid email or password")
	}

	pair, err := uc.jwtService.Generate(u.ID(), u.Role(), u.OrgID())
	if err != nil {
		uc.logger.Errorw("failed to issue tokens", "error", err, "user_id", u.ID())
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	uc.logger.Infow("user logged in", "user_id", u.ID(), "role", u.Role())
	return toTokenResponse(pair, u), nil
}

func toTokenResponse(pair *auth.TokenPair, u *user.User) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User: dto.SessionUser{
			ID:    u.ID(),
			Email: u.Email(),
			Name:  u.Name(),
			Role:  u.Role().String(),
			OrgID: u.OrgID(),
		},
	}
}
