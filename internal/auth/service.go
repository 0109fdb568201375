// File: internal/auth/service.go
package auth

import (
	"context"

	"wlm_backend/internal/provider"
	"wlm_backend/internal/user"

	"go.uber.org/zap"
)

// Service orchestrates the OAuth callback: exchange the code, fetch the
// profile, upsert the local user.
type Service interface {
	LoginURL() string
	HandleCallback(ctx context.Context, code string) (*user.User, error)
}

// ServiceImplementation wires the provider gateway to the user service.
type ServiceImplementation struct {
	gateway     provider.Gateway
	userService user.Service
	logger      *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new auth service.
func NewService(gateway provider.Gateway, userService user.Service, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		gateway:     gateway,
		userService: userService,
		logger:      logger.Named("AuthService"),
	}
}

// LoginURL returns the provider authorization URL for the redirect.
func (s *ServiceImplementation) LoginURL() string {
	return s.gateway.AuthorizationURL()
}

// HandleCallback runs the full callback flow. Gateway failures come back
// as upstream errors and are terminal; there are no retries.
func (s *ServiceImplementation) HandleCallback(ctx context.Context, code string) (*user.User, error) {
	accessToken, externalID, err := s.gateway.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.gateway.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if profile.ExternalID == "" {
		profile.ExternalID = externalID
	}

	usr, created, err := s.userService.UpsertFromProfile(ctx, profile, accessToken)
	if err != nil {
		return nil, err
	}

	s.logger.Info("OAuth callback processed",
		zap.String("userID", usr.ID.String()),
		zap.Bool("created", created),
	)
	return usr, nil
}
