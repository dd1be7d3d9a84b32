package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"biogate/internal/auth/models"
	biomodels "biogate/internal/biometric/models"
	"biogate/internal/biometric/capability"
	"biogate/pkg/platform/httputil"
	"biogate/pkg/requestcontext"
)

// Service defines the authentication operations the handler exposes.
type Service interface {
	AuthenticateCredentials(ctx context.Context, email, secret string) models.AuthenticationDecision
	AuthenticateBiometric(ctx context.Context, m biomodels.Modality, subjectID string, sample biomodels.Sample) biomodels.VerificationResult
	AuthenticateMultiFactor(ctx context.Context, req models.MultiFactorRequest) models.MultiFactorResult
	Capability() capability.Capability
}

// Handler wires the authentication endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an authentication handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the authentication endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/health", h.HandleHealth)
	r.Post("/api/validate-credentials", h.HandleValidateCredentials)
	r.Post("/api/biometric/{modality}", h.HandleBiometric)
	r.Post("/api/authenticate", h.HandleAuthenticate)
}

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, fromCapability(h.service.Capability()))
}

// HandleValidateCredentials handles POST /api/validate-credentials.
func (h *Handler) HandleValidateCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CredentialsRequest
	if !httputil.DecodeLenient(r, &req) {
		h.logger.DebugContext(ctx, "credentials body unreadable, treating as empty",
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	decision := h.service.AuthenticateCredentials(ctx, req.Email, req.Password)
	httputil.WriteJSON(w, http.StatusOK, fromDecision(decision))
}

// HandleBiometric handles POST /api/biometric/{modality}.
func (h *Handler) HandleBiometric(w http.ResponseWriter, r *http.Request) {
	requestID := requestcontext.RequestID(r.Context())
	start := time.Now()

	m, err := biomodels.ParseModality(chi.URLParam(r, "modality"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req BiometricRequest
	if !httputil.DecodeLenient(r, &req) {
		h.logger.DebugContext(r.Context(), "biometric body unreadable, treating as empty",
			"request_id", requestID,
			"modality", m,
		)
	}

	// A caller hanging up does not abort a verification already under way.
	ctx := context.WithoutCancel(r.Context())
	result := h.service.AuthenticateBiometric(ctx, m, req.UserID, req.Sample())

	h.logger.InfoContext(ctx, "biometric request served",
		"request_id", requestID,
		"modality", m,
		"success", result.Success,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromVerification(result))
}

// HandleAuthenticate handles POST /api/authenticate.
func (h *Handler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	requestID := requestcontext.RequestID(r.Context())

	req, ok := httputil.DecodeAndPrepare[AuthenticateRequest](w, r, h.logger, r.Context(), requestID)
	if !ok {
		return
	}

	ctx := context.WithoutCancel(r.Context())
	result := h.service.AuthenticateMultiFactor(ctx, req.ToModel())
	httputil.WriteJSON(w, http.StatusOK, fromMultiFactor(result))
}
