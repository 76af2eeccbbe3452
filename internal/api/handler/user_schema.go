package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

// updateUserRequest carries the owner-editable profile fields. Phone and
// invite_code are absent on purpose: clients may send them but they are
// silently dropped at bind time, never reaching the service layer.
type updateUserRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	GrantedCode *string `json:"granted_code" validate:"omitempty,len=6"`
}

// Response-only types owned by the transport layer.
// These are intentionally separate from ports/domain types so the JSON
// contract is not coupled to internal service changes.

type userResponse struct {
	ID          string    `json:"id"`
	Phone       int64     `json:"phone"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	InviteCode  string    `json:"invite_code,omitempty"`
	GrantedCode string    `json:"granted_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type applicantResponse struct {
	Phone int64 `json:"phone"`
}

// userDetailResponse is the single-user view: the profile plus the phones of
// everyone recruited with this user's invite code.
type userDetailResponse struct {
	userResponse
	CodeApplicants []applicantResponse `json:"code_applicants"`
}
