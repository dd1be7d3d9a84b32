package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategorySecurity covers authentication decisions and anything feeding
	// security monitoring.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine, sampleable activity.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventCredentialsChecked   AuditEvent = "credentials_checked"
	EventBiometricVerified    AuditEvent = "biometric_verified"
	EventMultiFactorCompleted AuditEvent = "multi_factor_completed"
)

// Decision values recorded on events.
const (
	DecisionGranted = "granted"
	DecisionDenied  = "denied"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID     `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// Subject is the claimed identity (email) the decision was about.
	Subject  string `json:"subject"`
	Modality string `json:"modality,omitempty"`
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
	// Path is the verification strategy (native, fallback, simulated) when known.
	Path string `json:"path,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Device    string `json:"device,omitempty"`
}

// Sink receives events. Sinks are append-only.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a Sink that can also be queried.
type Store interface {
	Sink
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
