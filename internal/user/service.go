// File: internal/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wlm_backend/internal/common"
	"wlm_backend/internal/config"
	platformES "wlm_backend/internal/platform/elasticsearch"
	"wlm_backend/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSearchLimit = 20

// Service exposes user operations to the handlers, the auth flow and the matcher.
type Service interface {
	UpsertFromProfile(ctx context.Context, profile *provider.Profile, accessToken string) (*User, bool, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Search(ctx context.Context, query string, limit int) ([]User, error)
	Ping(ctx context.Context, externalID string) error
	SweepOffline(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ServiceImplementation implements Service against the GORM repository,
// with best-effort profile indexing into Elasticsearch when configured.
type ServiceImplementation struct {
	repo     Repository
	esClient *platformES.ESClientWrapper
	cfg      *config.Config
	logger   *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(
	repo Repository,
	esClient *platformES.ESClientWrapper,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:     repo,
		esClient: esClient,
		cfg:      cfg,
		logger:   logger.Named("UserService"),
	}
}

// UpsertFromProfile creates the user on the first callback for this external
// id and updates the access token and profile fields in place on every
// later one. Returns the user and whether it was created.
func (s *ServiceImplementation) UpsertFromProfile(ctx context.Context, profile *provider.Profile, accessToken string) (*User, bool, error) {
	existing, err := s.repo.FindByExternalID(ctx, profile.ExternalID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Failed to look up user by external ID",
			zap.Error(err), zap.String("externalID", profile.ExternalID))
		return nil, false, fmt.Errorf("failed to look up user by external id: %w", err)
	}

	if existing != nil {
		existing.Handle = NormalizeHandle(profile.Handle)
		existing.DisplayName = profile.DisplayName
		existing.AvatarURL = profile.AvatarURL
		existing.AccessToken = accessToken
		if err := s.repo.Update(ctx, existing); err != nil {
			s.logger.Error("Failed to update user from profile", zap.Error(err), zap.String("userID", existing.ID.String()))
			return nil, false, err
		}
		s.indexProfile(ctx, existing)
		s.logger.Info("User updated from provider profile", zap.String("userID", existing.ID.String()))
		return existing, false, nil
	}

	newUser := &User{
		ExternalID:  profile.ExternalID,
		Handle:      NormalizeHandle(profile.Handle),
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
		AccessToken: accessToken,
	}
	if err := s.repo.Create(ctx, newUser); err != nil {
		s.logger.Error("Failed to create user from profile", zap.Error(err), zap.String("externalID", profile.ExternalID))
		return nil, false, err
	}
	s.indexProfile(ctx, newUser)
	s.logger.Info("User created from provider profile", zap.String("userID", newUser.ID.String()))
	return newUser, true, nil
}

// GetByExternalID retrieves a user by their provider identity id.
func (s *ServiceImplementation) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return s.repo.FindByExternalID(ctx, externalID)
}

// GetByID retrieves a user by internal id.
func (s *ServiceImplementation) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// Search finds users by handle prefix. Elasticsearch serves the query when
// configured; otherwise the relational store does.
func (s *ServiceImplementation) Search(ctx context.Context, query string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if s.esClient != nil {
		ids, err := platformES.SearchHandles(ctx, s.esClient, NormalizeHandle(query), limit)
		if err == nil {
			uuids := make([]uuid.UUID, 0, len(ids))
			for _, id := range ids {
				parsed, parseErr := uuid.Parse(id)
				if parseErr != nil {
					s.logger.Warn("Skipping non-UUID document id from handle search", zap.String("docID", id))
					continue
				}
				uuids = append(uuids, parsed)
			}
			return s.repo.FindByIDs(ctx, uuids)
		}
		s.logger.Warn("Handle search via Elasticsearch failed, falling back to database", zap.Error(err))
	}

	return s.repo.SearchByHandle(ctx, query, limit)
}

// Ping records a presence heartbeat for the user with this external id.
func (s *ServiceImplementation) Ping(ctx context.Context, externalID string) error {
	usr, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	return s.repo.MarkSeen(ctx, usr.ID, time.Now().UTC())
}

// SweepOffline marks users offline whose last ping is older than the window.
func (s *ServiceImplementation) SweepOffline(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.repo.MarkOfflineBefore(ctx, cutoff)
}

// indexProfile pushes the public profile into the handle search index.
// Indexing is best effort: a search lagging behind an upsert is acceptable,
// a failed callback because of the index is not.
func (s *ServiceImplementation) indexProfile(ctx context.Context, u *User) {
	if s.esClient == nil {
		return
	}
	doc := platformES.UserDoc{
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Platform:    "instagram",
	}
	if err := platformES.IndexUser(ctx, s.esClient, u.ID.String(), doc); err != nil {
		s.logger.Warn("Failed to index user profile for handle search",
			zap.Error(err), zap.String("userID", u.ID.String()))
	}
}
