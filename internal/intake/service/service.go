// Package service implements the conversation state machine: it walks one
// sender through the registration or stream-submission flow, one inbound
// message at a time, and emits every reply through the Dispatcher port.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"aquita/internal/intake/models"
	"aquita/internal/platform/metrics"
	recmodels "aquita/internal/records/models"
	regsvc "aquita/internal/registration/service"
	"aquita/internal/verify"
	dErrors "aquita/pkg/domain-errors"
	"aquita/pkg/platform/audit"
	"aquita/pkg/platform/audit/publisher"
	"aquita/pkg/platform/keylock"
	"aquita/pkg/platform/sentinel"
	"aquita/pkg/requestcontext"
)

var tracer = otel.Tracer("aquita/intake")

// ConversationStore is the keyed state mapping for open conversations.
type ConversationStore interface {
	Get(ctx context.Context, sender string) (models.State, error)
	Save(ctx context.Context, sender string, state models.State) error
	Delete(ctx context.Context, sender string) error
}

// Registrar runs the finalize-registration path (verification + persistence).
type Registrar interface {
	Register(ctx context.Context, req regsvc.Request) (recmodels.IdentityRecord, error)
}

// UserFinder looks up registered users for stream ownership checks.
type UserFinder interface {
	FindByNationalID(ctx context.Context, nationalID string) (recmodels.IdentityRecord, error)
}

// StreamStore persists finalized stream submissions.
type StreamStore interface {
	Create(ctx context.Context, submission recmodels.StreamSubmission) error
}

// Dispatcher delivers outbound text to the end user.
type Dispatcher interface {
	Send(ctx context.Context, recipient, text string) error
}

// Service is the conversation state machine.
type Service struct {
	convs      ConversationStore
	registrar  Registrar
	users      UserFinder
	streams    StreamStore
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      *publisher.Publisher

	// locks serializes handling per sender: two rapid messages from the same
	// conversation must not both read the same step.
	locks *keylock.KeyLock

	// requireStreamOwner gates the stream flow's ownership linkage step.
	requireStreamOwner bool
}

// Option configures optional collaborators.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(p *publisher.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithOptionalStreamOwner disables the ownership linkage step: the city step
// finalizes the submission directly.
func WithOptionalStreamOwner() Option {
	return func(s *Service) { s.requireStreamOwner = false }
}

func New(
	convs ConversationStore,
	registrar Registrar,
	users UserFinder,
	streams StreamStore,
	dispatcher Dispatcher,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		convs:              convs,
		registrar:          registrar,
		users:              users,
		streams:            streams,
		dispatcher:         dispatcher,
		logger:             logger,
		locks:              keylock.New(),
		requireStreamOwner: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage advances the sender's conversation with one inbound message.
// Validation failures never propagate: they become a re-prompt on the same
// step. Terminal outcomes (success or hard failure) clear the state so the
// conversation can never get stuck retrying a finished flow.
func (s *Service) HandleMessage(ctx context.Context, sender, text string) error {
	ctx, span := tracer.Start(ctx, "intake.handle")
	defer span.End()

	unlock := s.locks.Lock(sender)
	defer unlock()

	if s.metrics != nil {
		s.metrics.MessagesReceived.Inc()
	}

	text = strings.TrimSpace(text)

	state, err := s.convs.Get(ctx, sender)
	if errors.Is(err, sentinel.ErrNotFound) {
		state = models.NewState()
	} else if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("step", string(state.Step)))

	// Greeting (or an empty message) resets the conversation from any step.
	if text == "" || strings.Contains(strings.ToLower(text), "hola") {
		if err := s.convs.Save(ctx, sender, models.NewState()); err != nil {
			return err
		}
		s.send(ctx, sender, replyMenu)
		return nil
	}

	switch state.Step {
	case models.StepMenu:
		return s.handleMenu(ctx, sender, state, text)

	case models.StepFirstName:
		if len([]rune(text)) < 2 {
			s.send(ctx, sender, replyFirstNameTooShort)
			return nil
		}
		state.FirstName = text
		state.Step = models.StepLastName
		return s.advance(ctx, sender, state, replyAskLastName)

	case models.StepLastName:
		if len([]rune(text)) < 2 {
			s.send(ctx, sender, replyLastNameTooShort)
			return nil
		}
		state.LastName = text
		state.Step = models.StepNationalID
		return s.advance(ctx, sender, state, replyAskCedula)

	case models.StepNationalID:
		canonical, _, _, ok := recmodels.ParseCedula(text)
		if !ok {
			s.send(ctx, sender, replyBadCedulaFormat)
			return nil
		}
		state.NationalID = canonical
		state.Step = models.StepPhone
		return s.advance(ctx, sender, state, replyAskPhone)

	case models.StepPhone:
		if !recmodels.ValidPhone(text) {
			s.send(ctx, sender, replyBadPhoneFormat)
			return nil
		}
		state.Phone = strings.TrimSpace(text)
		return s.finalizeRegistration(ctx, sender, state)

	case models.StepStreamLink:
		if !strings.HasPrefix(text, "http") {
			s.send(ctx, sender, replyBadStreamLink)
			return nil
		}
		state.StreamLink = text
		state.Step = models.StepStreamCity
		return s.advance(ctx, sender, state, replyAskStreamCity)

	case models.StepStreamCity:
		if len([]rune(text)) < 3 {
			s.send(ctx, sender, replyCityTooShort)
			return nil
		}
		state.StreamCity = text
		if s.requireStreamOwner {
			state.Step = models.StepStreamOwnerID
			return s.advance(ctx, sender, state, replyAskStreamOwnerID)
		}
		return s.finalizeStream(ctx, sender, state, "")

	case models.StepStreamOwnerID:
		return s.handleStreamOwnerID(ctx, sender, state, text)

	default:
		// Unknown step in stored state (e.g. after a bad deploy): reset.
		s.logger.WarnContext(ctx, "unknown conversation step, resetting",
			"request_id", requestcontext.RequestID(ctx),
			"step", string(state.Step),
		)
		if err := s.convs.Save(ctx, sender, models.NewState()); err != nil {
			return err
		}
		s.send(ctx, sender, replyMenu)
		return nil
	}
}

func (s *Service) handleMenu(ctx context.Context, sender string, state models.State, text string) error {
	switch text {
	case "1":
		state.Step = models.StepFirstName
		return s.advance(ctx, sender, state, replyAskFirstName)
	case "2":
		// Terminal branch with no state change: the contact info is the answer.
		if err := s.convs.Save(ctx, sender, state); err != nil {
			return err
		}
		s.send(ctx, sender, replyAffiliation)
		return nil
	case "3":
		state.Step = models.StepStreamLink
		return s.advance(ctx, sender, state, replyAskStreamLink)
	default:
		if err := s.convs.Save(ctx, sender, state); err != nil {
			return err
		}
		s.send(ctx, sender, replyDidNotUnderstand)
		return nil
	}
}

func (s *Service) handleStreamOwnerID(ctx context.Context, sender string, state models.State, text string) error {
	canonical, _, _, ok := recmodels.ParseCedula(text)
	if !ok {
		s.send(ctx, sender, replyBadCedulaFormat)
		return nil
	}

	_, err := s.users.FindByNationalID(ctx, canonical)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Terminal: the submitter must register first.
		s.clear(ctx, sender)
		s.send(ctx, sender, replyf(replyStreamOwnerUnknown, canonical))
		return nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "stream owner lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		s.clear(ctx, sender)
		s.send(ctx, sender, replyStreamSaveFailed)
		return nil
	}

	return s.finalizeStream(ctx, sender, state, canonical)
}

// finalizeRegistration runs the shared registration path and maps its outcome
// onto a reply. State is cleared whatever happens: success, mismatch,
// verification failure, and persistence failure are all terminal.
func (s *Service) finalizeRegistration(ctx context.Context, sender string, state models.State) error {
	defer s.clear(ctx, sender)

	record, err := s.registrar.Register(ctx, regsvc.Request{
		FirstName:  state.FirstName,
		LastName:   state.LastName,
		NationalID: state.NationalID,
		Phone:      state.Phone,
	})
	if err != nil {
		s.send(ctx, sender, s.registrationFailureReply(state, err))
		return nil
	}

	s.send(ctx, sender, replyf(replyRegistered, record.FirstName, record.LastName, record.NationalID))
	return nil
}

func (s *Service) registrationFailureReply(state models.State, err error) string {
	if category := verify.CategoryOf(err); category != "" {
		switch category {
		case verify.CategoryRateLimited:
			return replyRateLimited
		case verify.CategoryNotFound:
			return replyf(replyCedulaNotFound, state.NationalID)
		default:
			return replyVerificationError
		}
	}

	var mismatch *regsvc.NameMismatchError
	if errors.As(err, &mismatch) {
		return replyf(replyNamesMismatch,
			mismatch.SuppliedFirst, mismatch.SuppliedLast,
			mismatch.OfficialFirst, mismatch.OfficialLast)
	}

	if dErrors.HasCode(err, dErrors.CodeConflict) {
		return replyf(replyAlreadyRegistered, state.NationalID)
	}

	return replySaveFailed
}

// finalizeStream persists the submission and clears state unconditionally.
func (s *Service) finalizeStream(ctx context.Context, sender string, state models.State, ownerID string) error {
	defer s.clear(ctx, sender)

	submission := recmodels.StreamSubmission{
		ID:              uuid.NewString(),
		Link:            state.StreamLink,
		City:            state.StreamCity,
		OwnerNationalID: ownerID,
		Status:          recmodels.StreamStatusPending,
		CreatedAt:       requestcontext.Now(ctx),
	}

	if err := s.streams.Create(ctx, submission); err != nil {
		s.logger.ErrorContext(ctx, "persist stream submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		s.send(ctx, sender, replyStreamSaveFailed)
		return nil
	}

	if s.metrics != nil {
		s.metrics.StreamsSubmitted.Inc()
	}
	s.emit(ctx, audit.EventStreamSubmitted, ownerID, submission.Link)
	s.send(ctx, sender, replyf(replyStreamReceived, submission.Link, submission.City))
	return nil
}

// advance saves the mutated state and prompts for the next step.
func (s *Service) advance(ctx context.Context, sender string, state models.State, prompt string) error {
	if err := s.convs.Save(ctx, sender, state); err != nil {
		return err
	}
	s.send(ctx, sender, prompt)
	return nil
}

func (s *Service) clear(ctx context.Context, sender string) {
	if err := s.convs.Delete(ctx, sender); err != nil {
		s.logger.WarnContext(ctx, "clear conversation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}

// send dispatches a reply. Delivery failures are logged, never propagated:
// the state transition already happened and must not be rolled back.
func (s *Service) send(ctx context.Context, recipient, text string) {
	if err := s.dispatcher.Send(ctx, recipient, text); err != nil {
		s.logger.WarnContext(ctx, "reply delivery failed",
			"request_id", requestcontext.RequestID(ctx),
			"recipient", recipient,
			"error", err.Error(),
		)
		return
	}
	if s.metrics != nil {
		s.metrics.RepliesSent.Inc()
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
