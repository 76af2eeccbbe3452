package ports

import (
	"context"

	"github.com/referralhq/referral-api/internal/core/domain"
)

// ProfilePatch carries the whitelisted mutable profile fields. A nil pointer
// means "leave the field unchanged". Phone and invite code are deliberately
// absent: they are immutable through the profile surface.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// IsEmpty reports whether the patch would change nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil
}

// UserRepository defines persistence operations for users.
//
// The conditional writes (SetInviteCode, GrantCode) are the storage half of
// the concurrency story: both must be atomic compare-and-set operations so
// that racing requests cannot both succeed.
type UserRepository interface {
	// Create inserts a new user. A phone collision returns
	// domain.ErrPhoneExists; the caller decides how to recover.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone int64) (*domain.User, error)
	FindByInviteCode(ctx context.Context, code string) (*domain.User, error)

	// List returns all users, newest-first, ties broken by phone ascending.
	List(ctx context.Context) ([]*domain.User, error)

	// ListApplicantPhones returns the phones of users whose granted code
	// equals inviteCode, ascending. Only the phone is projected out.
	ListApplicantPhones(ctx context.Context, inviteCode string) ([]int64, error)

	// SetVerification stores a fresh verification code and its cutoff.
	SetVerification(ctx context.Context, id, code string, cutoff int64) error

	// SetInviteCode sets the invite code iff none is set yet. Returns
	// domain.ErrInviteCodeTaken when another user owns the code and
	// domain.ErrInviteAlreadySet when this user already has one.
	SetInviteCode(ctx context.Context, id, code string) error

	// GrantCode sets granted_code iff it is currently empty; otherwise
	// domain.ErrAlreadyRedeemed.
	GrantCode(ctx context.Context, id, code string) error

	// UpdateProfile applies the patch and returns the updated user.
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*domain.User, error)
}
