package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
)

// UserService implements the public read surface and the owner-only update.
type UserService struct {
	repo    ports.UserRepository
	invites ports.InviteService
	logger  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, invites ports.InviteService, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, invites: invites, logger: logger}
}

// List returns all users, newest first with phone as the tie-breaker.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns one user plus the applicant phones recruited with their code.
func (s *UserService) Get(ctx context.Context, id string) (*ports.UserDetail, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applicants, err := s.invites.Applicants(ctx, user)
	if err != nil {
		return nil, err
	}

	return &ports.UserDetail{User: user, Applicants: applicants}, nil
}

// Update applies an authenticated profile change. Only the owner may mutate
// their record; a granted-code value in the input is routed through invite
// redemption before the plain profile fields are written.
func (s *UserService) Update(ctx context.Context, input ports.UpdateUserInput) (*ports.UserDetail, error) {
	target, err := s.repo.FindByID(ctx, input.TargetID)
	if err != nil {
		return nil, err
	}

	if !domain.CanMutate(input.ActorID, target.ID) {
		return nil, domain.ErrForbidden
	}

	if input.GrantedCode != nil {
		if err := s.invites.Redeem(ctx, target, *input.GrantedCode); err != nil {
			return nil, err
		}
	}

	if !input.Patch.IsEmpty() {
		if target, err = s.repo.UpdateProfile(ctx, target.ID, input.Patch); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}

	applicants, err := s.invites.Applicants(ctx, target)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", target.ID).Msg("profile updated")
	return &ports.UserDetail{User: target, Applicants: applicants}, nil
}
