// Package handler is the thin HTTP layer over the registry service. It
// decodes and validates requests, resolves the authenticated caller, and
// translates domain errors; registry rules live in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credchain/internal/audit"
	"credchain/internal/platform/metrics"
	"credchain/internal/platform/middleware"
	"credchain/internal/registry/eduid"
	"credchain/internal/registry/models"
	"credchain/internal/transport/http/shared"
	respond "credchain/internal/transport/http/shared/json"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/validation"
)

// Service defines the registry operations the HTTP layer depends on.
type Service interface {
	SetIssuerStatus(ctx context.Context, caller, issuer domain.Address, whitelisted bool, institutionName string) error
	IsWhitelisted(ctx context.Context, issuer domain.Address) (bool, error)
	GetIssuer(ctx context.Context, issuer domain.Address) (*models.IssuerRecord, error)
	TransferAdmin(ctx context.Context, caller, newAdmin domain.Address) error
	Admin(ctx context.Context) domain.Address
	IssueCredential(ctx context.Context, caller domain.Address, req *models.IssueCredentialRequest) (*models.Credential, error)
	VerifyCredential(ctx context.Context, id eduid.EduID) (*models.VerifyCredentialResponse, error)
	GetCredentialDetails(ctx context.Context, id eduid.EduID) (*models.Credential, error)
	IsCredentialValid(ctx context.Context, id eduid.EduID) (bool, error)
	GetStudentCredentials(ctx context.Context, student domain.Address) ([]eduid.EduID, error)
	GetAllCredentials(ctx context.Context) ([]eduid.EduID, error)
	GetCredentialCount(ctx context.Context) (int, error)
	RevokeCredential(ctx context.Context, caller domain.Address, id eduid.EduID) error
}

// EventLister exposes the append-only audit log for the events endpoint.
type EventLister interface {
	List(ctx context.Context) ([]audit.Event, error)
	ListByEduID(ctx context.Context, eduID string) ([]audit.Event, error)
}

// Handler handles registry endpoints.
type Handler struct {
	logger   *slog.Logger
	registry Service
	events   EventLister
	metrics  *metrics.Metrics
}

// New creates a new registry Handler.
func New(registry Service, events EventLister, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
		events:   events,
		metrics:  m,
	}
}

// RegisterPublic mounts the unauthenticated read surface. The full listing is
// deliberately public: the registry models a transparent ledger.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/registry/admin", h.handleGetAdmin)
	r.Get("/registry/issuers/{address}", h.handleGetIssuer)
	r.Get("/registry/credential-types", h.handleCredentialTypes)
	r.Get("/registry/credentials", h.handleGetAllCredentials)
	r.Get("/registry/credentials/count", h.handleGetCredentialCount)
	r.Get("/registry/credentials/{eduID}", h.handleGetCredentialDetails)
	r.Get("/registry/credentials/{eduID}/verify", h.handleVerifyCredential)
	r.Get("/registry/credentials/{eduID}/valid", h.handleIsCredentialValid)
	r.Get("/registry/students/{address}/credentials", h.handleGetStudentCredentials)
	r.Get("/registry/events", h.handleGetEvents)
}

// RegisterProtected mounts the mutating surface; the router wraps these with
// the bearer-token middleware so a caller address is always present.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/registry/issuers", h.handleSetIssuerStatus)
	r.Post("/registry/admin/transfer", h.handleTransferAdmin)
	r.Post("/registry/credentials", h.handleIssueCredential)
	r.Post("/registry/credentials/{eduID}/revoke", h.handleRevokeCredential)
}

func (h *Handler) handleSetIssuerStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}

	var req models.SetIssuerStatusRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	issuer, err := domain.ParseAddress(req.Issuer)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.registry.SetIssuerStatus(ctx, caller, issuer, req.Whitelisted, req.InstitutionName); err != nil {
		h.logError(ctx, "failed to set issuer status", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGetIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuer, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	rec, err := h.registry.GetIssuer(ctx, issuer)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		// Unknown issuers read as non-whitelisted, mirroring the default-false
		// whitelist lookup.
		respond.WriteJSON(w, http.StatusOK, &models.IssuerRecord{Address: issuer})
		return
	}
	if err != nil {
		h.logError(ctx, "failed to read issuer", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}

	var req models.TransferAdminRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	newAdmin, err := domain.ParseAddress(req.NewAdmin)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.registry.TransferAdmin(ctx, caller, newAdmin); err != nil {
		h.logError(ctx, "failed to transfer admin", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, &models.AdminResponse{Admin: newAdmin.String()})
}

func (h *Handler) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, &models.AdminResponse{Admin: h.registry.Admin(r.Context()).String()})
}

func (h *Handler) handleIssueCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.ObserveEndpointLatency("issue_credential", time.Since(start).Seconds())
		}
	}()

	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}

	var req models.IssueCredentialRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	cred, err := h.registry.IssueCredential(ctx, caller, &req)
	if err != nil {
		h.logError(ctx, "failed to issue credential", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, &models.IssueCredentialResponse{EduID: cred.EduID})
}

func (h *Handler) handleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := h.registry.VerifyCredential(ctx, eduid.EduID(chi.URLParam(r, "eduID")))
	if err != nil {
		h.logError(ctx, "failed to verify credential", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCredentialDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cred, err := h.registry.GetCredentialDetails(ctx, eduid.EduID(chi.URLParam(r, "eduID")))
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logError(ctx, "failed to read credential", err)
		}
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, cred)
}

func (h *Handler) handleIsCredentialValid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	valid, err := h.registry.IsCredentialValid(ctx, eduid.EduID(chi.URLParam(r, "eduID")))
	if err != nil {
		h.logError(ctx, "failed to check credential validity", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, &models.ValidityResponse{Valid: valid})
}

func (h *Handler) handleRevokeCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}

	if err := h.registry.RevokeCredential(ctx, caller, eduid.EduID(chi.URLParam(r, "eduID"))); err != nil {
		h.logError(ctx, "failed to revoke credential", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (h *Handler) handleGetStudentCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	student, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	ids, err := h.registry.GetStudentCredentials(ctx, student)
	if err != nil {
		h.logError(ctx, "failed to list student credentials", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, &models.CredentialListResponse{EduIDs: ids, Count: len(ids)})
}

func (h *Handler) handleGetAllCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := h.registry.GetAllCredentials(ctx)
	if err != nil {
		h.logError(ctx, "failed to list credentials", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, &models.CredentialListResponse{EduIDs: ids, Count: len(ids)})
}

func (h *Handler) handleGetCredentialCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.registry.GetCredentialCount(ctx)
	if err != nil {
		h.logError(ctx, "failed to count credentials", err)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, &models.CountResponse{Count: count})
}

func (h *Handler) handleCredentialTypes(w http.ResponseWriter, _ *http.Request) {
	respond.WriteJSON(w, http.StatusOK, models.KnownCredentialTypes)
}

func (h *Handler) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		events []audit.Event
		err    error
	)
	if id := r.URL.Query().Get("edu_id"); id != "" {
		events, err = h.events.ListByEduID(ctx, id)
	} else {
		events, err = h.events.List(ctx)
	}
	if err != nil {
		h.logError(ctx, "failed to list audit events", err)
		shared.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	respond.WriteJSON(w, http.StatusOK, events)
}

// decodeRequest decodes, sanitizes and validates a JSON request body.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{ Sanitize() }) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	dst.Sanitize()
	if err := validation.Validate(dst); err != nil {
		shared.WriteError(w, err)
		return false
	}
	return true
}

// caller resolves the authenticated address stashed by the auth middleware.
func (h *Handler) caller(ctx context.Context, w http.ResponseWriter) (domain.Address, bool) {
	caller := middleware.GetCaller(ctx)
	if caller.IsZero() {
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return caller, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
}
