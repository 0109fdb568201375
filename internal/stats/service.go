// File: internal/stats/service.go
package stats

import (
	"context"

	"wlm_backend/internal/crush"
	"wlm_backend/internal/user"

	"go.uber.org/zap"
)

// Overview aggregates the headline counters for the admin dashboard.
// MatchedPairs is MatchedCrushes/2: every match flips exactly two rows.
type Overview struct {
	TotalUsers     int64 `json:"total_users"`
	TotalCrushes   int64 `json:"total_crushes"`
	MatchedCrushes int64 `json:"matched_crushes"`
	MatchedPairs   int64 `json:"matched_pairs"`
}

// Service computes aggregate statistics.
type Service interface {
	Overview(ctx context.Context) (*Overview, error)
}

// ServiceImplementation implements Service over the repositories.
type ServiceImplementation struct {
	userRepo  user.Repository
	crushRepo crush.Repository
	logger    *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new stats service.
func NewService(userRepo user.Repository, crushRepo crush.Repository, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		userRepo:  userRepo,
		crushRepo: crushRepo,
		logger:    logger.Named("StatsService"),
	}
}

// Overview gathers the counters in one pass.
func (s *ServiceImplementation) Overview(ctx context.Context) (*Overview, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	crushes, err := s.crushRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	matched, err := s.crushRepo.CountMatched(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{
		TotalUsers:     users,
		TotalCrushes:   crushes,
		MatchedCrushes: matched,
		MatchedPairs:   matched / 2,
	}, nil
}
