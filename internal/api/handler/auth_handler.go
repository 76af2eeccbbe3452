package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/referralhq/referral-api/internal/api/metrics"
	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
)

// AuthHandler handles the registration and verification endpoints.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registrationRequest struct {
	Phone int64 `json:"phone" validate:"required,gte=71000000000,lte=79999999999"`
}

type registrationResponse struct {
	ID    string `json:"id"`
	Phone int64  `json:"phone"`
}

type verificationRequest struct {
	Phone            int64  `json:"phone" validate:"required,gte=71000000000,lte=79999999999"`
	VerificationCode string `json:"verification_code" validate:"required,len=4,numeric"`
}

type verificationResponse struct {
	Token string `json:"token"`
}

// Register handles POST /auth/registration/. Always 201 on success: repeat
// registrations are idempotent and simply trigger a fresh code delivery.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registrationRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	user, created, err := h.authService.Register(c.Request().Context(), req.Phone)
	if err != nil {
		if errors.Is(err, domain.ErrPhoneOutOfRange) {
			metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}

	if created {
		metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	} else {
		metrics.RegistrationsTotal.WithLabelValues("repeated").Inc()
	}

	return c.JSON(http.StatusCreated, registrationResponse{ID: user.ID, Phone: user.Phone})
}

// Verify handles POST /auth/verification/. A malformed payload is a 400
// without touching the verification counters; only real attempts count.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	token, err := h.authService.Authenticate(c.Request().Context(), req.Phone, req.VerificationCode)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.VerificationsTotal.WithLabelValues("failure").Inc()
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid phone or verification code"})
		}
		return err
	}

	metrics.VerificationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, verificationResponse{Token: token})
}
