package usecases

import (
	"context"

	"github.com/veyra-hq/veyra/internal/application/auth/dto"
	"github.com/veyra-hq/veyra/internal/domain/user"
	"github.com/veyra-hq/veyra/internal/infrastructure/auth"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// RefreshUseCase rotates a refresh token into a new pair. The user is
// re-read so a deactivated account or a role change takes effect at the next
// rotation instead of living until the refresh token expires.
type RefreshUseCase struct {
	userRepo   user.Repository
	jwtService *auth.JWTService
	logger     logger.Interface
}

// NewRefreshUseCase creates a new refresh use case.
func NewRefreshUseCase(
	userRepo user.Repository,
	jwtService *auth.JWTService,
	logger logger.Interface,
) *RefreshUseCase {
	return &RefreshUseCase{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Execute validates the refresh token and issues a fresh pair.
func (uc *RefreshUseCase) Execute(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := uc.jwtService.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, errors.NewForbiddenError("invalid or expired refresh token")
	}

	u, err := uc.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			uc.logger.Errorw("failed to load user for refresh", "error", err, "user_id", claims.UserID)
		}
		return nil, errors.NewForbiddenError("invalid or expired refresh token")
	}
	if !u.IsActive() {
		uc.logger.Warnw("refresh attempt on inactive account", "user_id", u.ID())
		return nil, errors.NewForbiddenError("account is not active")
	}

	pair, err := uc.jwtService.Generate(u.ID(), u.Role(), u.OrgID())
	if err != nil {
		uc.logger.Errorw("failed to rotate tokens", "error", err, "user_id", u.ID())
		return nil, errors.NewInternalError("failed to rotate tokens")
	}

	return toTokenResponse(pair, u), nil
}
