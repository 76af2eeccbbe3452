package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
	"github.com/referralhq/referral-api/internal/pkg/sequence"
)

// inviteMaxAttempts caps the generate-and-insert loop. The 6-character
// alphanumeric space holds 62^6 values, so hitting the cap means either the
// space is nearly exhausted or the generator is broken; looping forever
// helps with neither.
const inviteMaxAttempts = 10

// InviteService generates invite codes lazily and manages their redemption.
type InviteService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewInviteService(repo ports.UserRepository, logger zerolog.Logger) *InviteService {
	return &InviteService{repo: repo, logger: logger}
}

// EnsureInviteCode gives the user an invite code if they have none yet.
// Collisions with other users' codes are retried with a fresh candidate; a
// concurrent call winning the race counts as success.
func (s *InviteService) EnsureInviteCode(ctx context.Context, user *domain.User) error {
	if user.InviteCode != "" {
		return nil
	}

	for attempt := 0; attempt < inviteMaxAttempts; attempt++ {
		candidate := sequence.Generate(domain.InviteCodeLen, false)

		err := s.repo.SetInviteCode(ctx, user.ID, candidate)
		switch {
		case err == nil:
			user.InviteCode = candidate
			s.logger.Info().Str("user_id", user.ID).Msg("invite code issued")
			return nil
		case errors.Is(err, domain.ErrInviteCodeTaken):
			continue
		case errors.Is(err, domain.ErrInviteAlreadySet):
			// Lost the race against a concurrent login of the same user.
			fresh, ferr := s.repo.FindByID(ctx, user.ID)
			if ferr != nil {
				return fmt.Errorf("ensure invite code: reload user: %w", ferr)
			}
			user.InviteCode = fresh.InviteCode
			return nil
		default:
			return fmt.Errorf("ensure invite code: %w", err)
		}
	}

	s.logger.Error().Str("user_id", user.ID).Int("attempts", inviteMaxAttempts).Msg("invite code generation exhausted retries")
	return domain.ErrInviteSpaceExhausted
}

// Redeem binds code to target as its granted code, exactly once. The final
// write is an atomic set-iff-empty, so two concurrent redemptions cannot
// both pass the emptiness check.
func (s *InviteService) Redeem(ctx context.Context, target *domain.User, code string) error {
	if target.GrantedCode != "" {
		return domain.ErrAlreadyRedeemed
	}
	if target.InviteCode != "" && code == target.InviteCode {
		return domain.ErrSelfReferral
	}

	if _, err := s.repo.FindByInviteCode(ctx, code); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnknownInviteCode
		}
		return fmt.Errorf("redeem invite: %w", err)
	}

	if err := s.repo.GrantCode(ctx, target.ID, code); err != nil {
		if errors.Is(err, domain.ErrAlreadyRedeemed) {
			return domain.ErrAlreadyRedeemed
		}
		return fmt.Errorf("redeem invite: %w", err)
	}

	target.GrantedCode = code
	s.logger.Info().Str("user_id", target.ID).Msg("invite code redeemed")
	return nil
}

// Applicants returns the phones of users who redeemed this user's invite
// code, ascending. A user without an invite code has no applicants.
func (s *InviteService) Applicants(ctx context.Context, user *domain.User) ([]int64, error) {
	if user.InviteCode == "" {
		return nil, nil
	}
	phones, err := s.repo.ListApplicantPhones(ctx, user.InviteCode)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return phones, nil
}
