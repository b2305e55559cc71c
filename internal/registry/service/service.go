// Package service implements the registry state machine: issuer whitelist
// management, credential issuance, verification, and revocation. All mutating
// operations are applied one at a time under a single mutex, mirroring a
// shared ledger's sequential transaction ordering; preconditions are
// re-validated inside that critical section, never trusted from a
// client-side pre-check.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"credchain/internal/audit"
	"credchain/internal/platform/metrics"
	"credchain/internal/registry/cache"
	"credchain/internal/registry/eduid"
	"credchain/internal/registry/models"
	"credchain/internal/registry/store"
	"credchain/internal/registry/tracer"
	"credchain/internal/sentinel"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
)

// EduID collisions are astronomically unlikely, but the issuance algorithm
// re-mints rather than assuming them away.
const defaultMintAttempts = 5

type Option func(*Service)

// VerifyCache is the read-through cache consulted on the verification path.
// *cache.VerificationCache implements it; tests substitute in-memory fakes.
type VerifyCache interface {
	Get(ctx context.Context, id eduid.EduID) (*models.VerifyCredentialResponse, bool)
	Set(ctx context.Context, id eduid.EduID, resp *models.VerifyCredentialResponse)
	Invalidate(ctx context.Context, id eduid.EduID)
}

var _ VerifyCache = (*cache.VerificationCache)(nil)

// Service owns registry state transitions and the read surface over them.
type Service struct {
	store   store.Store
	auditor *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  tracer.Tracer
	cache   VerifyCache

	now          func() time.Time
	mintAttempts int

	// mu serializes all mutations so a whitelist check and the insert it
	// guards happen atomically with respect to other writers.
	mu    sync.Mutex
	admin domain.Address

	// revocations counts committed revokes, guarded by mu. The verification
	// path compares it before and after a store read so a cache write racing
	// a revoke cannot leave a pre-revocation snapshot behind.
	revocations uint64
}

// NewService constructs the registry around a store and the initial
// administrator account.
func NewService(st store.Store, auditor *audit.Publisher, admin domain.Address, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:        st,
		auditor:      auditor,
		admin:        admin,
		logger:       logger,
		tracer:       tracer.NewNoop(),
		now:          time.Now,
		mintAttempts: defaultMintAttempts,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithVerificationCache enables the read-through cache on the verification
// path.
func WithVerificationCache(c VerifyCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock overrides the commit-time clock. Tests use this to pin issuance
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Admin returns the current administrator account.
func (s *Service) Admin(_ context.Context) domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin
}

// TransferAdmin atomically replaces the administrator. There is no
// multi-step handoff: the new administrator is effective as soon as the call
// returns.
func (s *Service) TransferAdmin(ctx context.Context, caller, newAdmin domain.Address) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanTransferAdmin)
	var err error
	defer func() { span.End(err) }()

	if newAdmin.IsZero() {
		err = dErrors.New(dErrors.CodeInvalidInput, "new administrator address cannot be empty")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != s.admin {
		s.incrementUnauthorized("transfer_admin")
		err = dErrors.New(dErrors.CodeUnauthorized, "only the administrator can transfer administration")
		return err
	}
	previous := s.admin
	s.admin = newAdmin

	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionAdminTransferred,
		Actor:     previous,
		Issuer:    newAdmin,
		Timestamp: s.now(),
	})
	if s.metrics != nil {
		s.metrics.AdminTransfers.Inc()
	}
	s.logger.InfoContext(ctx, "administrator transferred",
		"previous", previous,
		"new", newAdmin,
	)
	return nil
}

// SetIssuerStatus upserts whitelist state for an issuer. Administrator only.
func (s *Service) SetIssuerStatus(ctx context.Context, caller, issuer domain.Address, whitelisted bool, institutionName string) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanWhitelist,
		tracer.String(tracer.AttrIssuer, issuer.String()),
		tracer.Bool("whitelisted", whitelisted),
	)
	var err error
	defer func() { span.End(err) }()

	if issuer.IsZero() {
		err = dErrors.New(dErrors.CodeInvalidInput, "issuer address cannot be empty")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != s.admin {
		s.incrementUnauthorized("set_issuer_status")
		err = dErrors.New(dErrors.CodeUnauthorized, "only the administrator can change the whitelist")
		return err
	}

	now := s.now()
	rec := &models.IssuerRecord{
		Address:         issuer,
		Whitelisted:     whitelisted,
		InstitutionName: institutionName,
		UpdatedAt:       now,
	}
	if err = s.store.UpsertIssuer(ctx, rec); err != nil {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to update issuer record")
		return err
	}

	s.emitAudit(ctx, audit.Event{
		Action:          audit.ActionIssuerWhitelisted,
		Actor:           caller,
		Issuer:          issuer,
		InstitutionName: institutionName,
		Whitelisted:     &whitelisted,
		Timestamp:       now,
	})
	span.AddEvent(tracer.EventAuditEmitted)
	if s.metrics != nil {
		s.metrics.IncrementWhitelistChanges(whitelisted)
	}
	s.logger.InfoContext(ctx, "issuer whitelist updated",
		"issuer", issuer,
		"whitelisted", whitelisted,
		"institution_name", institutionName,
	)
	return nil
}

// IsWhitelisted reports whitelist status; unknown issuers are false, never an
// error.
func (s *Service) IsWhitelisted(ctx context.Context, issuer domain.Address) (bool, error) {
	rec, err := s.store.FindIssuer(ctx, issuer)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer record")
	}
	return rec.Whitelisted, nil
}

// GetIssuer returns the stored issuer record, including its institution name.
func (s *Service) GetIssuer(ctx context.Context, issuer domain.Address) (*models.IssuerRecord, error) {
	rec, err := s.store.FindIssuer(ctx, issuer)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "issuer not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read issuer record")
	}
	return rec, nil
}

// IssueCredential mints a new credential record for a whitelisted caller and
// returns it with its freshly generated EduID. The issuance timestamp is
// stamped here at commit time; it is never caller-supplied, which rules out
// backdating.
func (s *Service) IssueCredential(ctx context.Context, caller domain.Address, req *models.IssueCredentialRequest) (*models.Credential, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssue,
		tracer.String(tracer.AttrIssuer, caller.String()),
	)
	var err error
	defer func() { span.End(err) }()

	student, err := domain.ParseAddress(req.StudentWallet)
	if err != nil {
		return nil, err
	}
	hash, err := domain.ParseDocumentHash(req.DocumentHash)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Whitelist status is re-checked here, inside the serialized section: a
	// caller that was whitelisted when the request was built may not be by
	// the time it commits.
	rec, ferr := s.store.FindIssuer(ctx, caller)
	if errors.Is(ferr, sentinel.ErrNotFound) || (ferr == nil && !rec.Whitelisted) {
		s.incrementUnauthorized("issue_credential")
		err = dErrors.New(dErrors.CodeUnauthorized, "caller is not a whitelisted issuer")
		return nil, err
	}
	if ferr != nil {
		err = dErrors.Wrap(ferr, dErrors.CodeInternal, "failed to read issuer record")
		return nil, err
	}

	now := s.now()
	var cred *models.Credential
	for attempt := 0; attempt < s.mintAttempts; attempt++ {
		var id eduid.EduID
		id, err = eduid.New(caller, now)
		if err != nil {
			return nil, err
		}
		candidate := &models.Credential{
			EduID:           id,
			Issuer:          caller,
			Student:         student,
			StudentName:     req.StudentName,
			InstitutionName: req.InstitutionName,
			CredentialType:  req.CredentialType,
			CourseOrProgram: req.CourseOrProgram,
			IssuedAt:        now,
			DocumentHash:    hash,
		}
		ierr := s.store.InsertCredential(ctx, candidate)
		if ierr == nil {
			cred = candidate
			break
		}
		if errors.Is(ierr, sentinel.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "EduID collision, re-minting",
				"edu_id", id,
				"attempt", attempt+1,
			)
			continue
		}
		err = dErrors.Wrap(ierr, dErrors.CodeInternal, "failed to store credential")
		return nil, err
	}
	if cred == nil {
		err = dErrors.New(dErrors.CodeAlreadyExists, "could not mint a unique EduID")
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		Action:      audit.ActionCredentialIssued,
		Actor:       caller,
		EduID:       cred.EduID,
		Issuer:      caller,
		Student:     student,
		StudentName: cred.StudentName,
		Timestamp:   now,
	})
	span.AddEvent(tracer.EventAuditEmitted)
	span.SetAttributes(tracer.String(tracer.AttrEduID, cred.EduID.String()))
	if s.metrics != nil {
		s.metrics.IncrementCredentialsIssued(cred.CredentialType)
	}
	s.logger.InfoContext(ctx, "credential issued",
		"edu_id", cred.EduID,
		"issuer", caller,
		"student", student,
	)
	return cred, nil
}

// VerifyCredential is the non-failing verification read: unknown identifiers
// yield exists=false, not an error, so callers can distinguish "not found"
// from an actual failure without inspecting error types.
func (s *Service) VerifyCredential(ctx context.Context, id eduid.EduID) (*models.VerifyCredentialResponse, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify,
		tracer.String(tracer.AttrEduID, id.String()),
	)
	var err error
	defer func() { span.End(err) }()

	var epoch uint64
	if s.cache != nil {
		if resp, ok := s.cache.Get(ctx, id); ok {
			span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
			return resp, nil
		}
		epoch = s.revocationEpoch()
	}

	cred, ferr := s.store.FindCredential(ctx, id)
	if errors.Is(ferr, sentinel.ErrNotFound) {
		if s.metrics != nil {
			s.metrics.IncrementVerifications(false)
		}
		span.SetAttributes(tracer.Bool(tracer.AttrExists, false))
		return &models.VerifyCredentialResponse{Exists: false}, nil
	}
	if ferr != nil {
		err = dErrors.Wrap(ferr, dErrors.CodeInternal, "failed to read credential")
		return nil, err
	}

	resp := &models.VerifyCredentialResponse{Exists: true, Credential: cred}
	// Only positive results are cached: a freshly issued credential must be
	// visible immediately, and revocation invalidates its entry.
	if s.cache != nil {
		s.cache.Set(ctx, id, resp)
		// A revoke that committed between the store read and the Set above
		// already ran its Invalidate, so the entry just written is a
		// pre-revocation snapshot. Drop it.
		if s.revocationEpoch() != epoch {
			s.cache.Invalidate(ctx, id)
		}
	}
	if s.metrics != nil {
		s.metrics.IncrementVerifications(true)
	}
	span.SetAttributes(tracer.Bool(tracer.AttrExists, true))
	return resp, nil
}

// GetCredentialDetails returns the full record, failing with NotFound when
// absent. This asymmetry with VerifyCredential is deliberate and callers
// depend on it.
func (s *Service) GetCredentialDetails(ctx context.Context, id eduid.EduID) (*models.Credential, error) {
	cred, err := s.store.FindCredential(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
	}
	return cred, nil
}

// IsCredentialValid reports whether the credential exists and is unrevoked.
func (s *Service) IsCredentialValid(ctx context.Context, id eduid.EduID) (bool, error) {
	resp, err := s.VerifyCredential(ctx, id)
	if err != nil {
		return false, err
	}
	return resp.Exists && !resp.Credential.Revoked, nil
}

// GetStudentCredentials lists the student's EduIDs in issuance order.
func (s *Service) GetStudentCredentials(ctx context.Context, student domain.Address) ([]eduid.EduID, error) {
	ids, err := s.store.ListStudentCredentials(ctx, student)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list student credentials")
	}
	return ids, nil
}

// GetAllCredentials lists every EduID in issuance order. The read is public:
// the registry models a transparent shared ledger, and the original system
// restricted this listing in its presentation layer only.
func (s *Service) GetAllCredentials(ctx context.Context) ([]eduid.EduID, error) {
	ids, err := s.store.ListAllCredentials(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return ids, nil
}

// GetCredentialCount returns the total number of issued credentials.
func (s *Service) GetCredentialCount(ctx context.Context) (int, error) {
	count, err := s.store.CountCredentials(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count credentials")
	}
	return count, nil
}

// RevokeCredential marks a credential permanently invalid. Only the original
// issuer may revoke; re-revoking an already-revoked record fails with
// Conflict rather than succeeding silently, so the caller learns the record
// was already dead.
func (s *Service) RevokeCredential(ctx context.Context, caller domain.Address, id eduid.EduID) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRevoke,
		tracer.String(tracer.AttrEduID, id.String()),
	)
	var err error
	defer func() { span.End(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	cred, rerr := s.store.Revoke(ctx, id, caller)
	switch {
	case errors.Is(rerr, sentinel.ErrNotFound):
		err = dErrors.New(dErrors.CodeNotFound, "credential not found")
		return err
	case errors.Is(rerr, sentinel.ErrForbidden):
		s.incrementUnauthorized("revoke_credential")
		err = dErrors.New(dErrors.CodeUnauthorized, "only the issuing institution can revoke a credential")
		return err
	case errors.Is(rerr, sentinel.ErrInvalidState):
		err = dErrors.New(dErrors.CodeConflict, "credential already revoked")
		return err
	case rerr != nil:
		err = dErrors.Wrap(rerr, dErrors.CodeInternal, "failed to revoke credential")
		return err
	}

	s.revocations++
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionCredentialRevoked,
		Actor:     caller,
		EduID:     id,
		Issuer:    cred.Issuer,
		Student:   cred.Student,
		Timestamp: s.now(),
	})
	span.AddEvent(tracer.EventAuditEmitted)
	if s.metrics != nil {
		s.metrics.IncrementCredentialsRevoked()
	}
	s.logger.InfoContext(ctx, "credential revoked",
		"edu_id", id,
		"revoked_by", caller,
	)
	return nil
}

func (s *Service) revocationEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revocations
}

// emitAudit publishes an event after a state change has committed. Audit
// failures are logged, not propagated: the mutation already happened.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"action", event.Action,
		)
	}
}

func (s *Service) incrementUnauthorized(operation string) {
	if s.metrics != nil {
		s.metrics.IncrementUnauthorized(operation)
	}
}
