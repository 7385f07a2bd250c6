// Package service implements the finalize-registration path shared by the chat
// flow and the admin direct-registration endpoint: verify the cédula against
// the official registry, match the supplied names, persist the record.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"aquita/internal/platform/metrics"
	"aquita/internal/records/models"
	"aquita/internal/verify"
	dErrors "aquita/pkg/domain-errors"
	"aquita/pkg/platform/audit"
	"aquita/pkg/platform/audit/publisher"
	"aquita/pkg/platform/sentinel"
	"aquita/pkg/requestcontext"
)

// UserStore is the persistence port this service needs.
type UserStore interface {
	Create(ctx context.Context, record models.IdentityRecord) error
}

// Request carries the accumulated registration data. NationalID must already
// be in canonical form (use models.ParseCedula upstream).
type Request struct {
	FirstName  string
	LastName   string
	NationalID string
	Phone      string
}

// NameMismatchError reports that the supplied names do not match the official
// registry records. Callers use it to build a reply that shows both versions.
type NameMismatchError struct {
	SuppliedFirst string
	SuppliedLast  string
	OfficialFirst string
	OfficialLast  string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("supplied name %q %q does not match official record %q %q",
		e.SuppliedFirst, e.SuppliedLast, e.OfficialFirst, e.OfficialLast)
}

// Service orchestrates verification and persistence.
type Service struct {
	users    UserStore
	verifier verify.Verifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *publisher.Publisher
}

// Option configures optional collaborators.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(p *publisher.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func New(users UserStore, verifier verify.Verifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{users: users, verifier: verifier, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register runs the full finalize-registration path. On success the persisted
// record is returned. Failures come back as coded domain errors; verification
// failures keep their *verify.Error reachable via errors.As so callers can
// branch on the category.
func (s *Service) Register(ctx context.Context, req Request) (models.IdentityRecord, error) {
	nationality, number, found := strings.Cut(req.NationalID, "-")
	if !found {
		return models.IdentityRecord{}, dErrors.New(dErrors.CodeBadRequest, "national ID is not canonical")
	}

	official, err := s.verifier.Verify(ctx, nationality, number)
	if err != nil {
		category := verify.CategoryOf(err)
		s.countVerificationFailure(category)
		s.logger.WarnContext(ctx, "cédula verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"category", string(category),
		)
		return models.IdentityRecord{}, wrapVerifyError(err, category)
	}

	if !namesMatch(req.FirstName, official.FirstName) || !namesMatch(req.LastName, official.LastName) {
		s.countRegistrationFailure("name_mismatch")
		s.emit(ctx, audit.EventRegistrationRejected, req.NationalID, "name mismatch")
		return models.IdentityRecord{}, dErrors.Wrap(&NameMismatchError{
			SuppliedFirst: req.FirstName,
			SuppliedLast:  req.LastName,
			OfficialFirst: official.FirstName,
			OfficialLast:  official.LastName,
		}, dErrors.CodeBadRequest, "names do not match official records")
	}

	record := models.IdentityRecord{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		NationalID: req.NationalID,
		Phone:      req.Phone,
		Status:     models.UserStatusVerified,
		CreatedAt:  requestcontext.Now(ctx),
	}

	if err := s.users.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.countRegistrationFailure("duplicate")
			s.emit(ctx, audit.EventRegistrationConflict, req.NationalID, "")
			return models.IdentityRecord{}, dErrors.Wrap(err, dErrors.CodeConflict, "cédula already registered")
		}
		s.countRegistrationFailure("storage")
		s.logger.ErrorContext(ctx, "persist identity record failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		return models.IdentityRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not save registration")
	}

	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
	s.emit(ctx, audit.EventUserRegistered, req.NationalID, "")
	s.logger.InfoContext(ctx, "user registered",
		"request_id", requestcontext.RequestID(ctx),
		"cedula", req.NationalID,
	)
	return record, nil
}

// wrapVerifyError translates a verification category into a coded domain
// error while keeping the underlying *verify.Error reachable.
func wrapVerifyError(err error, category verify.Category) error {
	switch category {
	case verify.CategoryNotFound:
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "cédula not found in official records")
	case verify.CategoryRateLimited:
		return dErrors.Wrap(err, dErrors.CodeRateLimited, "verification quota exceeded, retry later")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "verification service unavailable")
	}
}

// namesMatch tolerates partial names in either direction: the registry may
// return a longer legal name ("Juan Carlos" vs "Juan"), and users sometimes
// type their full name where the registry stores only the first.
func namesMatch(supplied, official string) bool {
	a := strings.ToLower(strings.TrimSpace(supplied))
	b := strings.ToLower(strings.TrimSpace(official))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func (s *Service) countVerificationFailure(category verify.Category) {
	if s.metrics != nil {
		s.metrics.VerificationFailures.WithLabelValues(string(category)).Inc()
	}
}

func (s *Service) countRegistrationFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RegistrationFailures.WithLabelValues(reason).Inc()
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, subject, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, audit.Event{Action: action, Subject: subject, Detail: detail}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err.Error())
	}
}
