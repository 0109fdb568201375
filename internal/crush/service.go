// File: internal/crush/service.go
package crush

import (
	"context"
	"errors"
	"strings"

	"wlm_backend/internal/common"
	"wlm_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service exposes crush declaration, reciprocity detection and listings.
type Service interface {
	Declare(ctx context.Context, declarerID uuid.UUID, targetHandle, platform string) (*Crush, bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Crush, error)
	ListAdmirers(ctx context.Context, userID uuid.UUID) ([]Crush, error)
}

// ServiceImplementation implements the crush service.
type ServiceImplementation struct {
	repo     Repository
	userRepo user.Repository
	logger   *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new crush service.
func NewService(repo Repository, userRepo user.Repository, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:     repo,
		userRepo: userRepo,
		logger:   logger.Named("CrushService"),
	}
}

// Declare records a crush for declarerID on targetHandle/platform and
// resolves reciprocity:
//
//  1. The declarer must exist; otherwise nothing is written.
//  2. A row is inserted with matched=false.
//  3. Rows naming the declarer's own handle are scanned oldest first. A
//     candidate is reciprocal when it was declared on the same platform
//     and its declarer's handle equals the new crush's target. The first
//     reciprocal hit marks both rows matched and ends the scan, so a
//     handle matches at most one counterpart per declaration.
//
// The insert and the reciprocal mark run in one database transaction: a
// failure while marking rolls the insert back rather than leaving a
// half-written match.
func (s *ServiceImplementation) Declare(ctx context.Context, declarerID uuid.UUID, targetHandle, platform string) (*Crush, bool, error) {
	declarer, err := s.userRepo.FindByID(ctx, declarerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, false, common.ErrNotFound.WithDetails("User not found.")
		}
		s.logger.Error("Failed to resolve declarer", zap.Error(err), zap.String("declarerID", declarerID.String()))
		return nil, false, err
	}

	target := user.NormalizeHandle(targetHandle)
	platform = strings.TrimSpace(platform)
	if target == "" || platform == "" {
		return nil, false, common.ErrUnprocessableEntity.WithDetails("Both target_handle and platform are required.")
	}
	if declarer.Handle != "" && target == declarer.Handle {
		return nil, false, common.ErrUnprocessableEntity.WithDetails("You cannot declare a crush on your own handle.")
	}

	newCrush := &Crush{
		DeclarerID:   declarerID,
		TargetHandle: target,
		Platform:     platform,
	}

	isMatch := false
	err = s.repo.InTransaction(ctx, func(txRepo Repository) error {
		if err := txRepo.Create(ctx, newCrush); err != nil {
			return err
		}

		// Without a handle of their own the declarer cannot be named
		// by anyone, so reciprocity cannot be established.
		declarerHandle, err := s.userRepo.FindHandle(ctx, declarerID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			return err
		}
		if declarerHandle == "" {
			return nil
		}

		candidates, err := txRepo.FindByTargetHandle(ctx, declarerHandle)
		if err != nil {
			return err
		}

		for i := range candidates {
			candidate := &candidates[i]
			if candidate.ID == newCrush.ID || candidate.DeclarerID == declarerID {
				continue
			}
			// A crush on platform X naming a handle does not reciprocate
			// a declaration on platform Y for the same handle.
			if candidate.Platform != platform {
				continue
			}

			candidateHandle, err := s.userRepo.FindHandle(ctx, candidate.DeclarerID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					continue
				}
				return err
			}
			if candidateHandle != target {
				continue
			}

			if err := txRepo.MarkMatched(ctx, candidate.ID, newCrush.ID); err != nil {
				return err
			}
			newCrush.Matched = true
			isMatch = true
			s.logger.Info("Reciprocal crush matched",
				zap.String("crushID", newCrush.ID.String()),
				zap.String("reciprocalCrushID", candidate.ID.String()),
				zap.String("platform", platform),
			)
			return nil
		}
		return nil
	})
	if err != nil {
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, false, apiErr
		}
		s.logger.Error("Declare crush transaction failed", zap.Error(err), zap.String("declarerID", declarerID.String()))
		return nil, false, common.ErrInternalServer.WithDetails("Could not record the crush.")
	}

	return newCrush, isMatch, nil
}

// ListByUser returns all crushes declared by the user, oldest first.
func (s *ServiceImplementation) ListByUser(ctx context.Context, userID uuid.UUID) ([]Crush, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.FindByDeclarer(ctx, userID)
}

// ListAdmirers returns crushes naming the user's handle, oldest first.
func (s *ServiceImplementation) ListAdmirers(ctx context.Context, userID uuid.UUID) ([]Crush, error) {
	handle, err := s.userRepo.FindHandle(ctx, userID)
	if err != nil {
		return nil, err
	}
	if handle == "" {
		return nil, nil
	}
	return s.repo.FindByTargetHandle(ctx, handle)
}
