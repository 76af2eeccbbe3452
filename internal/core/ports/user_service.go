package ports

import (
	"context"

	"github.com/referralhq/referral-api/internal/core/domain"
)

// UserDetail is the full profile view: the user plus the phones of everyone
// who redeemed their invite code. Applicants expose nothing but the phone.
type UserDetail struct {
	User       *domain.User
	Applicants []int64
}

// UpdateUserInput carries an authenticated profile update. ActorID is the
// resolved caller identity injected by the auth middleware; GrantedCode is
// the invite code the user wants to redeem, if any.
type UpdateUserInput struct {
	ActorID     string
	TargetID    string
	Patch       ProfilePatch
	GrantedCode *string
}

// UserService covers the public user read surface and the owner-only update.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*UserDetail, error)
	Update(ctx context.Context, input UpdateUserInput) (*UserDetail, error)
}
