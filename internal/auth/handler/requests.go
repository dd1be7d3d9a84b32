package handler

import (
	"encoding/json"
	"strings"

	"biogate/internal/auth/models"
	biomodels "biogate/internal/biometric/models"
	dErrors "biogate/pkg/domain-errors"
	strutil "biogate/pkg/platform/strings"
)

// CredentialsRequest is the body of POST /api/validate-credentials.
// Decoding is lenient: a missing body behaves like empty credentials.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BiometricRequest is the body of POST /api/biometric/{modality}.
// SampleData is passed through to the verifier uninterpreted.
type BiometricRequest struct {
	UserID     string          `json:"userId"`
	SampleData json.RawMessage `json:"sampleData,omitempty"`
	Reference  string          `json:"reference,omitempty"`
}

// Sample converts the request into a verifier sample.
func (r BiometricRequest) Sample() biomodels.Sample {
	return biomodels.Sample{
		SubjectID: r.UserID,
		Reference: r.Reference,
		Data:      r.SampleData,
	}
}

// FactorSample carries one modality's payload in a multi-factor request.
type FactorSample struct {
	SampleData json.RawMessage `json:"sampleData,omitempty"`
	Reference  string          `json:"reference,omitempty"`
}

// AuthenticateRequest is the body of POST /api/authenticate.
type AuthenticateRequest struct {
	Email      string                  `json:"email"`
	Password   string                  `json:"password"`
	Modalities []string                `json:"modalities,omitempty"`
	Samples    map[string]FactorSample `json:"samples,omitempty"`

	parsedModalities []biomodels.Modality
	parsedSamples    map[biomodels.Modality]biomodels.Sample
}

// Validate implements httputil.Validatable.
func (r *AuthenticateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(r.Modalities) > len(biomodels.AllModalities) {
		return dErrors.New(dErrors.CodeValidation, "too many modalities")
	}

	modalities, err := strutil.ParseList(r.Modalities, parseFactor)
	if err != nil {
		return err
	}
	r.parsedModalities = modalities

	r.parsedSamples = make(map[biomodels.Modality]biomodels.Sample, len(r.Samples))
	for name, s := range r.Samples {
		m, err := parseFactor(name)
		if err != nil {
			return err
		}
		r.parsedSamples[m] = biomodels.Sample{Reference: s.Reference, Data: s.SampleData}
	}
	return nil
}

// ToModel builds the service request. Call after Validate.
func (r *AuthenticateRequest) ToModel() models.MultiFactorRequest {
	return models.MultiFactorRequest{
		Email:      r.Email,
		Password:   r.Password,
		Modalities: r.parsedModalities,
		Samples:    r.parsedSamples,
	}
}

// parseFactor reports unknown modalities in a request body as validation
// errors rather than routing misses.
func parseFactor(s string) (biomodels.Modality, error) {
	m, err := biomodels.ParseModality(s)
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported modality: "+s)
	}
	return m, nil
}
