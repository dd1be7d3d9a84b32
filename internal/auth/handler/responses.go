package handler

import (
	"biogate/internal/auth/models"
	biomodels "biogate/internal/biometric/models"
	"biogate/internal/biometric/capability"
)

// CredentialsResponse is the HTTP response for POST /api/validate-credentials.
type CredentialsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the HTTP response for GET /api/health.
type HealthResponse struct {
	Status                     string `json:"status"`
	Message                    string `json:"message"`
	FingerprintReaderAvailable bool   `json:"fingerprintReaderAvailable"`
	Platform                   string `json:"platform"`
}

// BiometricResponse is the HTTP response for POST /api/biometric/{modality}.
// HardwareAvailable and Platform are only set for fingerprint.
type BiometricResponse struct {
	Success           bool   `json:"success"`
	Reason            string `json:"reason,omitempty"`
	HardwareAvailable *bool  `json:"hardwareAvailable,omitempty"`
	Platform          string `json:"platform,omitempty"`
}

// FactorResponse is one entry of a multi-factor response.
type FactorResponse struct {
	Modality string `json:"modality"`
	BiometricResponse
}

// AuthenticateResponse is the HTTP response for POST /api/authenticate.
type AuthenticateResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Factors []FactorResponse `json:"factors"`
}

func fromDecision(d models.AuthenticationDecision) *CredentialsResponse {
	return &CredentialsResponse{Success: d.Success, Message: d.Message}
}

func fromCapability(c capability.Capability) *HealthResponse {
	return &HealthResponse{
		Status:                     "OK",
		Message:                    "Biometric server is running",
		FingerprintReaderAvailable: c.FingerprintHardwareAvailable,
		Platform:                   string(c.Platform),
	}
}

func fromVerification(r biomodels.VerificationResult) *BiometricResponse {
	return &BiometricResponse{
		Success:           r.Success,
		Reason:            string(r.Reason),
		HardwareAvailable: r.HardwareAvailable,
		Platform:          r.Platform,
	}
}

func fromMultiFactor(r models.MultiFactorResult) *AuthenticateResponse {
	resp := &AuthenticateResponse{
		Success: r.Success,
		Message: r.Credentials.Message,
		Factors: make([]FactorResponse, 0, len(r.Factors)),
	}
	for _, f := range r.Factors {
		resp.Factors = append(resp.Factors, FactorResponse{
			Modality:          string(f.Modality),
			BiometricResponse: *fromVerification(f),
		})
	}
	return resp
}
