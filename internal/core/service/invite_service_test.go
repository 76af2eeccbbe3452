package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
)

// collidingRepo wraps stubUserRepo and reports a code collision for the
// first n SetInviteCode calls.
type collidingRepo struct {
	*stubUserRepo
	collisions int
	calls      int
}

func (r *collidingRepo) SetInviteCode(ctx context.Context, id, code string) error {
	r.calls++
	if r.calls <= r.collisions {
		return domain.ErrInviteCodeTaken
	}
	return r.stubUserRepo.SetInviteCode(ctx, id, code)
}

func TestInviteService_EnsureInviteCode(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewInviteService(repo, zerolog.Nop())
	user := seedUser(t, repo, 79998887764)

	if err := svc.EnsureInviteCode(context.Background(), user); err != nil {
		t.Fatalf("EnsureInviteCode returned error: %v", err)
	}
	if len(user.InviteCode) != domain.InviteCodeLen {
		t.Fatalf("invite code %q has wrong length", user.InviteCode)
	}

	first := user.InviteCode
	if err := svc.EnsureInviteCode(context.Background(), user); err != nil {
		t.Fatalf("second EnsureInviteCode returned error: %v", err)
	}
	if user.InviteCode != first {
		t.Fatalf("invite code changed from %q to %q on repeat call", first, user.InviteCode)
	}
}

func TestInviteService_EnsureInviteCode_RetriesOnCollision(t *testing.T) {
	repo := &collidingRepo{stubUserRepo: newStubUserRepo(), collisions: 3}
	svc := NewInviteService(repo, zerolog.Nop())
	user := seedUser(t, repo.stubUserRepo, 79998887764)

	if err := svc.EnsureInviteCode(context.Background(), user); err != nil {
		t.Fatalf("EnsureInviteCode returned error: %v", err)
	}
	if user.InviteCode == "" {
		t.Fatalf("expected code after retries")
	}
	if repo.calls != 4 {
		t.Fatalf("expected 4 attempts (3 collisions + 1 success), got %d", repo.calls)
	}
}

func TestInviteService_EnsureInviteCode_ExhaustedRetries(t *testing.T) {
	repo := &collidingRepo{stubUserRepo: newStubUserRepo(), collisions: 1000}
	svc := NewInviteService(repo, zerolog.Nop())
	user := seedUser(t, repo.stubUserRepo, 79998887764)

	if err := svc.EnsureInviteCode(context.Background(), user); err != domain.ErrInviteSpaceExhausted {
		t.Fatalf("expected ErrInviteSpaceExhausted, got %v", err)
	}
	if repo.calls != inviteMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", inviteMaxAttempts, repo.calls)
	}
}

func TestInviteService_EnsureInviteCode_ConcurrentWinner(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewInviteService(repo, zerolog.Nop())
	user := seedUser(t, repo, 79998887764)

	// Another request already set the code; the stale in-memory copy does
	// not know yet.
	if err := repo.SetInviteCode(context.Background(), user.ID, "Abc123"); err != nil {
		t.Fatalf("pre-set invite code: %v", err)
	}

	if err := svc.EnsureInviteCode(context.Background(), user); err != nil {
		t.Fatalf("EnsureInviteCode returned error: %v", err)
	}
	if user.InviteCode != "Abc123" {
		t.Fatalf("expected winner's code Abc123, got %q", user.InviteCode)
	}
}

func TestInviteService_Redeem(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewInviteService(repo, zerolog.Nop())

	owner := seedUser(t, repo, 79991112233)
	if err := svc.EnsureInviteCode(context.Background(), owner); err != nil {
		t.Fatalf("owner invite code: %v", err)
	}
	target := seedUser(t, repo, 79998887764)

	if err := svc.Redeem(context.Background(), target, owner.InviteCode); err != nil {
		t.Fatalf("Redeem returned error: %v", err)
	}
	if target.GrantedCode != owner.InviteCode {
		t.Fatalf("granted code %q, want %q", target.GrantedCode, owner.InviteCode)
	}

	stored, _ := repo.FindByID(context.Background(), target.ID)
	if stored.GrantedCode != owner.InviteCode {
		t.Fatalf("granted code not persisted")
	}
}

func TestInviteService_Redeem_AlreadyRedeemed(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewInviteService(repo, zerolog.Nop())

	owner := seedUser(t, repo, 79991112233)
	other := seedUser(t, repo, 79994445566)
	for _, u := range []*domain.User{owner, other} {
		if err := svc.EnsureInviteCode(context.Background(), u); err != nil {
			t.Fatalf("invite code: %v", err)
		}
	}
	target := seedUser(t, repo, 79998887764)

	if err := svc.Redeem(context.Background(), target, owner.InviteCode); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if err := svc.Redeem(context.Background(), target, other.InviteCode); err != domain.ErrAlreadyRedeemed {
		t.Fatalf("expected ErrAlreadyRedeemed, got %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), target.ID)
	if stored.GrantedCode != owner.InviteCode {
		t.Fatalf("granted code changed by rejected redemption: %q", stored.GrantedCode)
	}
}

func TestInviteService_Redeem_StorageRace(t *testing.T) {
	// Both requests read an empty granted_code; the storage-level
	// conditional write lets exactly one through.
	repo := newStubUserRepo()
	svc := NewInviteService(repo, zerolog.Nop())

	owner := seedUser(t, repo, 79991112233)
	if err := svc.EnsureInviteCode(context.Background(), owner); err != nil {
		t.Fatalf("invite code: %v", err)
	}
	target := seedUser(t, repo, 79998887764)
	staleCopy := *target

	if err := svc.Redeem(context.Background(), target, owner.InviteCode); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if err := svc.Redeem(context.Background(), &staleCopy, owner.InviteCode); err != domain.ErrAlreadyRedeemed {
		t.Fatalf("expected ErrAlreadyRedeemed from stale copy, got %v", err)
	}
}

func TestInviteService_Redeem_SelfReferral(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewInviteService(repo, zerolog.Nop())

	user := seedUser(t, repo, 79998887764)
	if err := svc.EnsureInviteCode(context.Background(), user); err != nil {
		t.Fatalf("invite code: %v", err)
	}

	if err := svc.Redeem(context.Background(), user, user.InviteCode); err != domain.ErrSelfReferral {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
}

func TestInviteService_Redeem_UnknownCode(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewInviteService(repo, zerolog.Nop())
	target := seedUser(t, repo, 79998887764)

	if err := svc.Redeem(context.Background(), target, "nosuch"); err != domain.ErrUnknownInviteCode {
		t.Fatalf("expected ErrUnknownInviteCode, got %v", err)
	}
}

func TestInviteService_Applicants(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewInviteService(repo, zerolog.Nop())

	owner := seedUser(t, repo, 79991112233)
	if err := svc.EnsureInviteCode(context.Background(), owner); err != nil {
		t.Fatalf("invite code: %v", err)
	}

	// Seed out of order so the assertion below actually checks sorting.
	for _, phone := range []int64{79998887764, 79992223344, 79995556677} {
		u := seedUser(t, repo, phone)
		if err := svc.Redeem(context.Background(), u, owner.InviteCode); err != nil {
			t.Fatalf("redeem for %d: %v", phone, err)
		}
	}

	phones, err := svc.Applicants(context.Background(), owner)
	if err != nil {
		t.Fatalf("Applicants returned error: %v", err)
	}
	want := []int64{79992223344, 79995556677, 79998887764}
	if len(phones) != len(want) {
		t.Fatalf("got %d applicants, want %d", len(phones), len(want))
	}
	for i := range want {
		if phones[i] != want[i] {
			t.Fatalf("applicants %v not ascending, want %v", phones, want)
		}
	}
}

func TestInviteService_Applicants_NoInviteCode(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewInviteService(repo, zerolog.Nop())
	user := seedUser(t, repo, 79998887764)

	phones, err := svc.Applicants(context.Background(), user)
	if err != nil {
		t.Fatalf("Applicants returned error: %v", err)
	}
	if len(phones) != 0 {
		t.Fatalf("expected no applicants, got %v", phones)
	}
}

var _ ports.InviteService = (*InviteService)(nil)
var _ ports.VerificationService = (*VerificationService)(nil)
var _ ports.AuthService = (*AuthService)(nil)
var _ ports.UserService = (*UserService)(nil)
