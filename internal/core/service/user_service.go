package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

// UserService implements ports.UserService.
type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger, now: utcNow}
}

// UpsertFromIdentity records a sign-in. New users start active with the
// user role; existing users only get email and name refreshed.
func (s *UserService) UpsertFromIdentity(ctx context.Context, in ports.IdentityInput) (string, error) {
	ref := strings.TrimSpace(in.IdentityRef)
	if ref == "" {
		return "", fmt.Errorf("%w: identity reference is required", domain.ErrValidation)
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	now := s.now()
	user, err := s.repo.UpsertByIdentity(ctx, &domain.User{
		IdentityRef: ref,
		Email:       email,
		Name:        strings.TrimSpace(in.Name),
		Status:      domain.UserActive,
		Role:        domain.RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, now)
	if err != nil {
		s.logger.Error().Ctx(ctx).Err(err).Str("identity_ref", ref).Msg("failed to upsert user")
		return "", fmt.Errorf("upsert user: %w", err)
	}

	s.logger.Debug().Ctx(ctx).Str("user_id", user.ID).Str("identity_ref", ref).Msg("user synced from identity")
	return user.ID, nil
}

func (s *UserService) GetByIdentity(ctx context.Context, identityRef string) (*domain.User, error) {
	user, err := s.repo.FindByIdentity(ctx, identityRef)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by identity: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, caller domain.Caller, id string) (*domain.User, error) {
	if !caller.CanActFor(id) {
		return nil, domain.ErrForbidden
	}
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) IsActive(ctx context.Context, identityRef string) (bool, error) {
	user, err := s.GetByIdentity(ctx, identityRef)
	if err != nil {
		return false, err
	}
	return user != nil && user.Status == domain.UserActive, nil
}

func (s *UserService) SetStatus(ctx context.Context, caller domain.Caller, id string, status domain.UserStatus) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown user status %q", domain.ErrValidation, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status, s.now()); err != nil {
		return fmt.Errorf("set user status: %w", err)
	}

	s.logger.Info().Ctx(ctx).Str("user_id", id).Str("status", string(status)).Str("admin", caller.IdentityRef).Msg("user status changed")
	return nil
}
