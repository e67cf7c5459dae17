package handler

import (
	"strings"
	"time"

	"tombola/internal/raffle/models"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/secretcode"
)

// CreateRaffleRequest is the HTTP request body for POST /raffles.
type CreateRaffleRequest struct {
	Name                       string     `json:"name"`
	Prize                      string     `json:"prize"`
	Description                string     `json:"description"`
	AllowedDomain              string     `json:"allowed_domain"`
	StartsAt                   *time.Time `json:"starts_at"`
	EndsAt                     *time.Time `json:"ends_at"`
	RequireConfirmation        bool       `json:"require_confirmation"`
	ConfirmationTimeoutMinutes int        `json:"confirmation_timeout_minutes"`
	AutoDrawOnEnd              bool       `json:"auto_draw_on_end"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRaffleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}
	if r.StartsAt != nil && r.EndsAt != nil && !r.EndsAt.After(*r.StartsAt) {
		return dErrors.New(dErrors.CodeValidation, "ends_at must be after starts_at")
	}
	if r.ConfirmationTimeoutMinutes < 0 {
		return dErrors.New(dErrors.CodeValidation, "confirmation_timeout_minutes must not be negative")
	}
	return nil
}

// RegisterRequest is the HTTP request body for POST /raffles/{id}/participants.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	SecretCode string `json:"secret_code"`
}

// Validate validates the request. The secret code is checked only for shape
// here; whether one is required at all depends on the raffle and is decided
// by the service.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.SecretCode != "" {
		if err := secretcode.Validate(r.SecretCode); err != nil {
			return err
		}
	}
	return nil
}

// ConfirmRequest is the HTTP request body for POST /raffles/{id}/confirm.
// The body is optional: operators of raffles without code confirmation send
// none.
type ConfirmRequest struct {
	Code string `json:"code"`
}

// Validate validates the request.
func (r *ConfirmRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Code = strings.TrimSpace(r.Code)
	return nil
}

// ReopenRequest is the HTTP request body for POST /raffles/{id}/reopen.
type ReopenRequest struct {
	ClearWindow bool `json:"clear_window"`
}

// Validate validates the request.
func (r *ReopenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// PatchStatusRequest is the HTTP request body for PATCH /raffles/{id}/status.
type PatchStatusRequest struct {
	Status string `json:"status"`

	parsedStatus models.Status
}

// Validate validates and parses the request.
func (r *PatchStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	status, err := models.ParsePatchableStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

// ParsedStatus returns the validated status.
func (r *PatchStatusRequest) ParsedStatus() models.Status {
	return r.parsedStatus
}
