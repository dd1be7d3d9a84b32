// Package models holds the request and result types of the authentication
// orchestrator.
package models

import (
	biomodels "biogate/internal/biometric/models"
)

// AuthenticationDecision is the outcome of a credential check.
type AuthenticationDecision struct {
	Success bool
	Message string
}

// Granted reports a successful credential check.
func Granted() AuthenticationDecision {
	return AuthenticationDecision{Success: true}
}

// Denied reports a failed credential check. The message never reveals which
// half of the pair was wrong.
func Denied() AuthenticationDecision {
	return AuthenticationDecision{Success: false, Message: string(biomodels.ReasonInvalidCredentials)}
}

// MultiFactorRequest runs the credential step followed by every listed
// modality. An empty Modalities list means all registered modalities.
type MultiFactorRequest struct {
	Email      string
	Password   string
	Modalities []biomodels.Modality
	Samples    map[biomodels.Modality]biomodels.Sample
}

// SampleFor returns the sample for m, bound to the request's subject.
func (r MultiFactorRequest) SampleFor(m biomodels.Modality) biomodels.Sample {
	s := r.Samples[m]
	s.SubjectID = r.Email
	return s
}

// MultiFactorResult carries the credential decision and one result per
// verified modality, in request order. Factors is empty when the credential
// step failed.
type MultiFactorResult struct {
	Success     bool
	Credentials AuthenticationDecision
	Factors     []biomodels.VerificationResult
}

// FailedFactors lists the modalities that did not pass.
func (r MultiFactorResult) FailedFactors() []biomodels.Modality {
	var out []biomodels.Modality
	for _, f := range r.Factors {
		if !f.Success {
			out = append(out, f.Modality)
		}
	}
	return out
}
