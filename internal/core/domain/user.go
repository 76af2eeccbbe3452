package domain

import (
	"errors"
	"time"
)

// Phone numbers are Russian mobile numbers in full international form
// without the leading plus sign.
const (
	PhoneMin int64 = 71000000000
	PhoneMax int64 = 79999999999
)

const (
	VerificationCodeLen = 4
	InviteCodeLen       = 6
)

var ErrPhoneOutOfRange = errors.New("phone out of range")
var ErrPhoneExists = errors.New("phone already registered")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid phone or verification code")
var ErrForbidden = errors.New("access forbidden")

var ErrInviteCodeTaken = errors.New("invite code already taken")
var ErrInviteAlreadySet = errors.New("invite code already set")
var ErrInviteSpaceExhausted = errors.New("invite code space exhausted")
var ErrAlreadyRedeemed = errors.New("invite code already redeemed")
var ErrSelfReferral = errors.New("cannot redeem own invite code")
var ErrUnknownInviteCode = errors.New("invite code does not exist")

// User is the central entity. Phone is the natural login key; the password
// hash is a structural placeholder because authentication happens with a
// phone + verification code pair.
type User struct {
	ID           string `json:"id"`
	Phone        int64  `json:"phone"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Email        string `json:"email,omitempty"`

	// VerificationCode and VerifCutoff hold the live phone-ownership
	// challenge. The code is not cleared after a successful login; it simply
	// ages out at the cutoff instant.
	VerificationCode string `json:"-"`
	VerifCutoff      int64  `json:"-"`

	// InviteCode is generated lazily on first successful authentication and
	// never changes afterwards. GrantedCode is the invite code this user
	// redeemed from someone else; write-once.
	InviteCode  string `json:"invite_code,omitempty"`
	GrantedCode string `json:"granted_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ValidPhone reports whether p falls inside the accepted mobile range.
func ValidPhone(p int64) bool {
	return p >= PhoneMin && p <= PhoneMax
}

// CanMutate reports whether actorID may modify the record of targetID.
// Reads are unrestricted; writes are owner-only.
func CanMutate(actorID, targetID string) bool {
	return actorID != "" && actorID == targetID
}
