package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
	"github.com/referralhq/referral-api/internal/pkg/sequence"
)

const DefaultVerificationWindow = 180 * time.Second

// VerificationService issues and validates the 4-digit phone-ownership codes.
type VerificationService struct {
	repo   ports.UserRepository
	window time.Duration
	logger zerolog.Logger

	// now is the wall clock, swappable in tests.
	now func() time.Time
}

func NewVerificationService(repo ports.UserRepository, window time.Duration, logger zerolog.Logger) *VerificationService {
	if window <= 0 {
		window = DefaultVerificationWindow
	}
	return &VerificationService{repo: repo, window: window, logger: logger, now: time.Now}
}

// Issue generates a fresh code, persists it together with its cutoff instant
// and returns it for delivery. Issuing replaces any previous code, so at most
// one live code exists per user.
func (s *VerificationService) Issue(ctx context.Context, user *domain.User) (string, error) {
	code := sequence.Generate(domain.VerificationCodeLen, true)
	cutoff := s.now().UTC().Add(s.window).Unix()

	if err := s.repo.SetVerification(ctx, user.ID, code, cutoff); err != nil {
		return "", fmt.Errorf("issue verification: %w", err)
	}

	user.VerificationCode = code
	user.VerifCutoff = cutoff

	s.logger.Debug().Int64("phone", user.Phone).Int64("cutoff", cutoff).Msg("verification code issued")
	return code, nil
}

// Validate returns the user iff code exactly matches the stored code and the
// cutoff has not passed. The expiry check is a strict greater-than: a request
// at the exact cutoff second still succeeds. Every failure mode collapses to
// ErrInvalidCredentials so callers cannot distinguish an unknown phone from a
// wrong or expired code.
func (s *VerificationService) Validate(ctx context.Context, phone int64, code string) (*domain.User, error) {
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("validate verification: %w", err)
	}

	if user.VerificationCode == "" || code != user.VerificationCode {
		return nil, domain.ErrInvalidCredentials
	}
	if s.now().UTC().Unix() > user.VerifCutoff {
		s.logger.Debug().Int64("phone", phone).Msg("verification code expired")
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}
