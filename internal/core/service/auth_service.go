package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
	"github.com/referralhq/referral-api/internal/pkg/sequence"
)

// placeholderPasswordLen matches the auto-generated credential length used
// when no password is supplied: the phone-code exchange is the real
// credential, the password merely satisfies the account model.
const placeholderPasswordLen = 60

// AuthService implements registration and phone-code authentication.
type AuthService struct {
	users        ports.UserRepository
	tokens       ports.TokenRepository
	verification ports.VerificationService
	invites      ports.InviteService
	notifier     ports.Notifier
	jwtSecret    string
	logger       zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenRepository,
	verification ports.VerificationService,
	invites ports.InviteService,
	notifier ports.Notifier,
	jwtSecret string,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		tokens:       tokens,
		verification: verification,
		invites:      invites,
		notifier:     notifier,
		jwtSecret:    jwtSecret,
		logger:       logger,
	}
}

// Register creates an unverified user for phone, attaches a verification
// code and hands it to the notifier. Registration is idempotent per phone:
// when the insert loses a duplicate race the existing user is loaded and a
// fresh code is issued for them instead of surfacing a conflict. The second
// return value reports whether a new account was actually created.
func (s *AuthService) Register(ctx context.Context, phone int64) (*domain.User, bool, error) {
	if !domain.ValidPhone(phone) {
		return nil, false, domain.ErrPhoneOutOfRange
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(sequence.Generate(placeholderPasswordLen, false)), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("register: hash password: %w", err)
	}

	user := &domain.User{
		Phone:        phone,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	isNew := true
	stored, err := s.users.Create(ctx, user)
	if errors.Is(err, domain.ErrPhoneExists) {
		isNew = false
		stored, err = s.users.FindByPhone(ctx, phone)
		if err != nil {
			return nil, false, fmt.Errorf("register: load existing user: %w", err)
		}
		s.logger.Info().Int64("phone", phone).Msg("repeat registration, reusing existing user")
	} else if err != nil {
		return nil, false, fmt.Errorf("register: %w", err)
	}

	code, err := s.verification.Issue(ctx, stored)
	if err != nil {
		return nil, false, fmt.Errorf("register: %w", err)
	}

	// Fire-and-forget: delivery failure must not fail registration.
	s.notifier.Send(stored.Phone, code)

	return stored, isNew, nil
}

// Authenticate exchanges a valid phone + code pair for the user's durable
// token. The token is minted once and returned unchanged on every later
// login. Invite-code generation runs after token issuance; if it fails the
// token is still returned and the failure only logged.
func (s *AuthService) Authenticate(ctx context.Context, phone int64, code string) (string, error) {
	user, err := s.verification.Validate(ctx, phone, code)
	if err != nil {
		return "", err
	}

	candidate, err := s.mintToken(user)
	if err != nil {
		return "", fmt.Errorf("authenticate: mint token: %w", err)
	}

	token, err := s.tokens.GetOrCreate(ctx, user.ID, candidate)
	if err != nil {
		return "", fmt.Errorf("authenticate: store token: %w", err)
	}

	if err := s.invites.EnsureInviteCode(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("invite code generation failed after login")
	}

	return token, nil
}

// mintToken signs a candidate token for the user. No exp claim: the token is
// durable and lives until explicitly revoked from the token store.
func (s *AuthService) mintToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID,
		"jti": uuid.NewString(),
		"iat": time.Now().UTC().Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
