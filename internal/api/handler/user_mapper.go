package handler

import (
	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
)

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Phone:       u.Phone,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		InviteCode:  u.InviteCode,
		GrantedCode: u.GrantedCode,
		CreatedAt:   u.CreatedAt,
	}
}

func toUserDetailResponse(d *ports.UserDetail) userDetailResponse {
	// Applicants render as objects, not bare numbers, so the list can grow
	// fields later without breaking the contract.
	applicants := make([]applicantResponse, 0, len(d.Applicants))
	for _, phone := range d.Applicants {
		applicants = append(applicants, applicantResponse{Phone: phone})
	}

	return userDetailResponse{
		userResponse:   toUserResponse(d.User),
		CodeApplicants: applicants,
	}
}
