// Package models holds the value types shared by the capability detector,
// the verifiers and the authentication orchestrator.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	dErrors "biogate/pkg/domain-errors"
)

// Modality is a biometric verification channel.
type Modality string

const (
	ModalityFingerprint Modality = "fingerprint"
	ModalityHeartbeat   Modality = "heartbeat"
	ModalityDNA         Modality = "dna"
)

// AllModalities lists the modalities in the order the login flow walks them.
var AllModalities = []Modality{ModalityFingerprint, ModalityHeartbeat, ModalityDNA}

// ParseModality accepts a case-insensitive modality name.
func ParseModality(s string) (Modality, error) {
	m := Modality(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unsupported modality %q", s))
	}
	return m, nil
}

func (m Modality) IsValid() bool {
	switch m {
	case ModalityFingerprint, ModalityHeartbeat, ModalityDNA:
		return true
	}
	return false
}

func (m Modality) String() string { return string(m) }

// ErrMalformedSample marks a sample a verifier refuses to process.
var ErrMalformedSample = errors.New("malformed sample")

// Sample is an opaque biometric payload. Data is never interpreted beyond
// structural checks; Reference optionally carries the enrollment token the
// caller claims the sample belongs to.
type Sample struct {
	SubjectID string
	Reference string
	Data      json.RawMessage
}

// Validate performs the structural checks a verifier needs before spending
// time on a sample. An absent payload is allowed.
func (s Sample) Validate(maxBytes int) error {
	if maxBytes > 0 && len(s.Data) > maxBytes {
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrMalformedSample, len(s.Data), maxBytes)
	}
	if len(s.Data) > 0 && !json.Valid(s.Data) {
		return fmt.Errorf("%w: payload is not valid JSON", ErrMalformedSample)
	}
	return nil
}

// Reason is a stable, client-visible explanation for a negative result.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonUserNotFound        Reason = "User not found"
	ReasonInvalidCredentials  Reason = "Invalid email or password"
	ReasonVerificationFailed  Reason = "Verification failed"
	ReasonReferenceMismatch   Reason = "Biometric reference mismatch"
	ReasonUnsupportedModality Reason = "Unsupported modality"
)

// VerificationResult is the outcome of one biometric check. HardwareAvailable
// and Platform are only populated for the fingerprint modality.
type VerificationResult struct {
	Modality          Modality
	Success           bool
	Reason            Reason
	HardwareAvailable *bool
	Platform          string
}

// Failed builds a negative result with a reason.
func Failed(m Modality, reason Reason) VerificationResult {
	return VerificationResult{Modality: m, Success: false, Reason: reason}
}
