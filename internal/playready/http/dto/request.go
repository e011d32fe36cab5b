// Package dto provides data transfer objects for the playready HTTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/playready-proxy/internal/validation"
)

// GetChallengeRequest is the body of POST /{device}/get_challenge.
type GetChallengeRequest struct {
	PSSH      string `json:"pssh"`
	SessionID string `json:"session_id"`
}

// Validate checks that both fields are present.
func (r *GetChallengeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PSSH, validation.Required, customValidation.NotBlank),
		validation.Field(&r.SessionID, validation.Required, customValidation.NotBlank),
	)
}

// GetKeysRequest is the body of POST /{device}/get_keys.
type GetKeysRequest struct {
	LicenseB64 string `json:"license_b64"`
	SessionID  string `json:"session_id"`
}

// Validate checks that both fields are present.
func (r *GetKeysRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.LicenseB64, validation.Required, customValidation.NotBlank),
		validation.Field(&r.SessionID, validation.Required, customValidation.NotBlank),
	)
}
