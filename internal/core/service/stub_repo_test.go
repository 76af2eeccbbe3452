package service

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
)

// stubUserRepo is an in-memory ports.UserRepository with the same conflict
// semantics as the Mongo implementation.
type stubUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func clone(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == user.Phone {
			return nil, domain.ErrPhoneExists
		}
	}
	r.nextID++
	c := clone(user)
	c.ID = "user_" + strconv.Itoa(r.nextID)
	r.users[c.ID] = c
	return clone(c), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return clone(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByPhone(_ context.Context, phone int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == phone {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByInviteCode(_ context.Context, code string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.InviteCode != "" && u.InviteCode == code {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Phone < out[j].Phone
	})
	return out, nil
}

func (r *stubUserRepo) ListApplicantPhones(_ context.Context, inviteCode string) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var phones []int64
	for _, u := range r.users {
		if u.GrantedCode == inviteCode {
			phones = append(phones, u.Phone)
		}
	}
	sort.Slice(phones, func(i, j int) bool { return phones[i] < phones[j] })
	return phones, nil
}

func (r *stubUserRepo) SetVerification(_ context.Context, id, code string, cutoff int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.VerificationCode = code
	u.VerifCutoff = cutoff
	return nil
}

func (r *stubUserRepo) SetInviteCode(_ context.Context, id, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.InviteCode != "" {
		return domain.ErrInviteAlreadySet
	}
	for _, other := range r.users {
		if other.InviteCode == code {
			return domain.ErrInviteCodeTaken
		}
	}
	u.InviteCode = code
	return nil
}

func (r *stubUserRepo) GrantCode(_ context.Context, id, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.GrantedCode != "" {
		return domain.ErrAlreadyRedeemed
	}
	u.GrantedCode = code
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, patch ports.ProfilePatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	return clone(u), nil
}

// stubTokenRepo keeps one token per user, first writer wins.
type stubTokenRepo struct {
	mu     sync.Mutex
	byUser map[string]string
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{byUser: make(map[string]string)}
}

func (r *stubTokenRepo) GetOrCreate(_ context.Context, userID, candidate string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key, ok := r.byUser[userID]; ok {
		return key, nil
	}
	r.byUser[userID] = candidate
	return candidate, nil
}

func (r *stubTokenRepo) UserIDByKey(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, k := range r.byUser {
		if k == key {
			return userID, nil
		}
	}
	return "", domain.ErrInvalidCredentials
}

// stubNotifier records sent codes.
type stubNotifier struct {
	mu    sync.Mutex
	sends []string
}

func (n *stubNotifier) Send(phone int64, code string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, code)
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sends)
}

func (n *stubNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sends) == 0 {
		return ""
	}
	return n.sends[len(n.sends)-1]
}
