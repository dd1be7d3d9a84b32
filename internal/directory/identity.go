// Package directory is the in-memory credential store: one Identity per
// email, built at startup and read-only afterwards.
package directory

import (
	"strings"

	"biogate/internal/biometric/models"
	dErrors "biogate/pkg/domain-errors"
)

// Identity is an enrolled principal. Biometric references are opaque
// enrollment tokens.
type Identity struct {
	Email                string `yaml:"email"`
	Secret               string `yaml:"password"`
	FingerprintReference string `yaml:"fingerprint_reference"`
	HeartbeatReference   string `yaml:"heartbeat_reference"`
	DNAReference         string `yaml:"dna_reference"`
}

// Reference returns the enrollment token for m, or "" when none is enrolled.
func (i Identity) Reference(m models.Modality) string {
	switch m {
	case models.ModalityFingerprint:
		return i.FingerprintReference
	case models.ModalityHeartbeat:
		return i.HeartbeatReference
	case models.ModalityDNA:
		return i.DNAReference
	}
	return ""
}

// Enrolled reports whether a reference exists for m.
func (i Identity) Enrolled(m models.Modality) bool {
	return i.Reference(m) != ""
}

func (i Identity) validate() error {
	if strings.TrimSpace(i.Email) == "" {
		return dErrors.New(dErrors.CodeValidation, "identity email is required")
	}
	if i.Email != strings.TrimSpace(i.Email) {
		return dErrors.New(dErrors.CodeValidation, "identity email must not carry surrounding whitespace")
	}
	if i.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "identity secret is required for "+i.Email)
	}
	return nil
}
