package usecases

import (
	"context"

	appaccess "github.com/veyra-hq/veyra/internal/application/access"
	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// ResolveAccessUseCase runs the resolution pipeline for a single request and
// records the outcome. Every protected operation goes through it, either via
// the route middleware or directly from a handler.
type ResolveAccessUseCase struct {
	resolver *access.Resolver
	metrics  appaccess.Metrics
	logger   logger.Interface
}

// NewResolveAccessUseCase creates a new resolve access use case.
func NewResolveAccessUseCase(
	resolver *access.Resolver,
	metrics appaccess.Metrics,
	logger logger.Interface,
) *ResolveAccessUseCase {
	if metrics == nil {
		metrics = appaccess.NopMetrics{}
	}
	return &ResolveAccessUseCase{
		resolver: resolver,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute resolves the request. It never returns an error: store failures
// surface as internal-reason denials from the resolver.
func (uc *ResolveAccessUseCase) Execute(ctx context.Context, req access.Request) access.Decision {
	decision := uc.resolver.Resolve(ctx, req)
	uc.metrics.RecordDecision(string(decision.Layer), string(decision.Reason), decision.Allowed)
	return decision
}
