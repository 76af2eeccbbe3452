package ports

import (
	"context"

	"github.com/referralhq/referral-api/internal/core/domain"
)

// AuthService covers the registration and verification endpoints.
type AuthService interface {
	// Register creates a user for the given phone, attaches a verification
	// code and hands it to the notifier. Registering an already known phone
	// is idempotent and returns the existing user with created == false.
	Register(ctx context.Context, phone int64) (user *domain.User, created bool, err error)

	// Authenticate exchanges a valid phone + code pair for the user's
	// durable token, creating the token and the user's invite code as side
	// effects of the first successful login.
	Authenticate(ctx context.Context, phone int64, code string) (string, error)
}

// VerificationService owns the short-lived phone-ownership challenge.
type VerificationService interface {
	// Issue generates a fresh code, persists it with its cutoff and returns
	// it for delivery. The code is never stored anywhere but on the user.
	Issue(ctx context.Context, user *domain.User) (string, error)

	// Validate returns the user iff code matches exactly and the cutoff has
	// not passed. A request at the exact cutoff instant is still valid.
	Validate(ctx context.Context, phone int64, code string) (*domain.User, error)
}

// InviteService manages invite-code issuance and redemption.
type InviteService interface {
	// EnsureInviteCode lazily generates the user's invite code, retrying on
	// collision. Idempotent.
	EnsureInviteCode(ctx context.Context, user *domain.User) error

	// Redeem binds another user's invite code to target exactly once.
	Redeem(ctx context.Context, target *domain.User, code string) error

	// Applicants lists the phones of users recruited with user's code,
	// ascending.
	Applicants(ctx context.Context, user *domain.User) ([]int64, error)
}
