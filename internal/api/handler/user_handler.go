package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/referralhq/referral-api/internal/api/metrics"
	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
)

// UserHandler handles the user read surface and the owner-only update.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /users/. No auth: the list is public, sensitive fields
// never leave the domain struct (json:"-").
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}

	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /users/:id/.
func (h *UserHandler) Get(c echo.Context) error {
	detail, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		}
		return err
	}

	return c.JSON(http.StatusOK, toUserDetailResponse(detail))
}

// Update handles PATCH /users/:id/. Owner-only; a granted_code in the body
// triggers a one-time invite redemption alongside the profile patch.
func (h *UserHandler) Update(c echo.Context) error {
	actorID, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	detail, err := h.service.Update(c.Request().Context(), ports.UpdateUserInput{
		ActorID:  actorID,
		TargetID: c.Param("id"),
		Patch: ports.ProfilePatch{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
		},
		GrantedCode: req.GrantedCode,
	})
	if err != nil {
		if req.GrantedCode != nil {
			countRedemption(err)
		}
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		case errors.Is(err, domain.ErrForbidden):
			return c.JSON(http.StatusForbidden, errorResponse{Error: "access forbidden"})
		case errors.Is(err, domain.ErrAlreadyRedeemed),
			errors.Is(err, domain.ErrSelfReferral),
			errors.Is(err, domain.ErrUnknownInviteCode):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}

	if req.GrantedCode != nil {
		metrics.RedemptionsTotal.WithLabelValues("success").Inc()
	}

	return c.JSON(http.StatusOK, toUserDetailResponse(detail))
}

// countRedemption classifies a failed redemption for the metrics counter.
// Non-redemption failures (not found, forbidden) are not redemption attempts.
func countRedemption(err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyRedeemed):
		metrics.RedemptionsTotal.WithLabelValues("already_redeemed").Inc()
	case errors.Is(err, domain.ErrSelfReferral):
		metrics.RedemptionsTotal.WithLabelValues("self_referral").Inc()
	case errors.Is(err, domain.ErrUnknownInviteCode):
		metrics.RedemptionsTotal.WithLabelValues("unknown_code").Inc()
	}
}
