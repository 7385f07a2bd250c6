package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquita/internal/intake/models"
	"aquita/internal/intake/store/conversation"
	recmodels "aquita/internal/records/models"
	"aquita/internal/records/store/stream"
	"aquita/internal/records/store/user"
	regsvc "aquita/internal/registration/service"
	"aquita/internal/verify"
	"aquita/pkg/platform/sentinel"
)

const sender = "584121234567@c.us"

type recordingDispatcher struct {
	mu      sync.Mutex
	replies []string
}

func (d *recordingDispatcher) Send(_ context.Context, _, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replies = append(d.replies, text)
	return nil
}

func (d *recordingDispatcher) last(t *testing.T) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.replies, "expected at least one reply")
	return d.replies[len(d.replies)-1]
}

type stubVerifier struct {
	result verify.Result
	err    error
}

func (v *stubVerifier) Verify(context.Context, string, string) (verify.Result, error) {
	return v.result, v.err
}

type fixture struct {
	svc        *Service
	convs      *conversation.InMemoryStore
	users      *user.InMemoryStore
	streams    *stream.InMemoryStore
	dispatcher *recordingDispatcher
	verifier   *stubVerifier
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	f := &fixture{
		convs:      conversation.NewInMemoryStore(),
		users:      user.NewInMemoryStore(),
		streams:    stream.NewInMemoryStore(),
		dispatcher: &recordingDispatcher{},
		verifier:   &stubVerifier{result: verify.Result{FirstName: "Juan Carlos", LastName: "Perez"}},
	}
	registrar := regsvc.New(f.users, f.verifier, logger)
	f.svc = New(f.convs, registrar, f.users, f.streams, f.dispatcher, logger, opts...)
	return f
}

func (f *fixture) say(t *testing.T, texts ...string) {
	t.Helper()
	for _, text := range texts {
		require.NoError(t, f.svc.HandleMessage(context.Background(), sender, text))
	}
}

func (f *fixture) stateGone(t *testing.T) {
	t.Helper()
	_, err := f.convs.Get(context.Background(), sender)
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "conversation state should be cleared")
}

func TestFirstMessageYieldsMenu(t *testing.T) {
	for _, text := range []string{"hola", "Hola, buenas", "", "cualquier cosa", "9"} {
		t.Run("text="+text, func(t *testing.T) {
			f := newFixture(t)
			f.say(t, text)

			state, err := f.convs.Get(context.Background(), sender)
			require.NoError(t, err)
			assert.Equal(t, models.StepMenu, state.Step)

			if text == "cualquier cosa" || text == "9" {
				assert.Equal(t, replyDidNotUnderstand, f.dispatcher.last(t))
			} else {
				assert.Equal(t, replyMenu, f.dispatcher.last(t))
			}
		})
	}
}

func TestHolaResetsFromAnyStep(t *testing.T) {
	f := newFixture(t)
	f.say(t, "1", "Juan", "Perez")

	state, err := f.convs.Get(context.Background(), sender)
	require.NoError(t, err)
	require.Equal(t, models.StepNationalID, state.Step)

	f.say(t, "HOLA de nuevo")
	state, err = f.convs.Get(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, models.StepMenu, state.Step)
	assert.Empty(t, state.FirstName, "accumulated data is discarded on reset")
	assert.Equal(t, replyMenu, f.dispatcher.last(t))

	// Reset never touches persisted storage.
	streams, err := f.streams.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, streams)
}

func TestMenuAffiliationIsTerminalBranch(t *testing.T) {
	f := newFixture(t)
	f.say(t, "hola", "2")

	assert.Equal(t, replyAffiliation, f.dispatcher.last(t))
	state, err := f.convs.Get(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, models.StepMenu, state.Step, "option 2 does not advance the flow")
}

func TestRegistrationRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.say(t, "1", "Juan", "Perez", "V-12345678", "04121234567")

	record, err := f.users.FindByNationalID(context.Background(), "V-12345678")
	require.NoError(t, err)
	assert.Equal(t, "Juan", record.FirstName)
	assert.Equal(t, "Perez", record.LastName)
	assert.Equal(t, "V-12345678", record.NationalID)
	assert.Equal(t, "04121234567", record.Phone)
	assert.Equal(t, recmodels.UserStatusVerified, record.Status)

	assert.Equal(t, replyf(replyRegistered, "Juan", "Perez", "V-12345678"), f.dispatcher.last(t))
	f.stateGone(t)
}

func TestRegistrationDuplicateYieldsConflictNotSecondRecord(t *testing.T) {
	f := newFixture(t)
	f.say(t, "1", "Juan", "Perez", "V-12345678", "04121234567")
	f.say(t, "1", "Juan", "Perez", "V-12345678", "04121234567")

	assert.Equal(t, replyf(replyAlreadyRegistered, "V-12345678"), f.dispatcher.last(t))
	f.stateGone(t)
}

func TestRegistrationValidationReprompts(t *testing.T) {
	tests := []struct {
		name      string
		lead      []string
		bad       string
		wantReply string
		wantStep  models.Step
	}{
		{"short first name", []string{"1"}, "J", replyFirstNameTooShort, models.StepFirstName},
		{"short last name", []string{"1", "Juan"}, "P", replyLastNameTooShort, models.StepLastName},
		{"bad cedula letter", []string{"1", "Juan", "Perez"}, "J-12345678", replyBadCedulaFormat, models.StepNationalID},
		{"cedula too short", []string{"1", "Juan", "Perez"}, "V-1234567", replyBadCedulaFormat, models.StepNationalID},
		{"cedula too long", []string{"1", "Juan", "Perez"}, "V-123456789", replyBadCedulaFormat, models.StepNationalID},
		{"phone no leading zero", []string{"1", "Juan", "Perez", "V-12345678"}, "4121234567", replyBadPhoneFormat, models.StepPhone},
		{"phone too long", []string{"1", "Juan", "Perez", "V-12345678"}, "041212345678", replyBadPhoneFormat, models.StepPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.say(t, tt.lead...)
			f.say(t, tt.bad)

			assert.Equal(t, tt.wantReply, f.dispatcher.last(t))
			state, err := f.convs.Get(context.Background(), sender)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStep, state.Step, "invalid input must not advance the step")
		})
	}
}

func TestCedulaNormalizedToCanonicalForm(t *testing.T) {
	f := newFixture(t)
	f.say(t, "1", "Juan", "Perez", "v12345678", "04121234567")

	record, err := f.users.FindByNationalID(context.Background(), "V-12345678")
	require.NoError(t, err)
	assert.Equal(t, "V-12345678", record.NationalID)
}

func TestRegistrationVerifierNotFound(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = verify.NewError(verify.CategoryNotFound, "no match", nil)
	f.say(t, "1", "Juan", "Perez", "V-12345678", "04121234567")

	assert.Equal(t, replyf(replyCedulaNotFound, "V-12345678"), f.dispatcher.last(t))
	f.stateGone(t)
	_, err := f.users.FindByNationalID(context.Background(), "V-12345678")
	assert.Error(t, err, "no record persisted when the cédula is not found")
}

func TestRegistrationVerifierFailureReplies(t *testing.T) {
	tests := []struct {
		category verify.Category
		want     string
	}{
		{verify.CategoryRateLimited, replyRateLimited},
		{verify.CategoryMalformedResponse, replyVerificationError},
		{verify.CategoryTransportFailure, replyVerificationError},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			f := newFixture(t)
			f.verifier.err = verify.NewError(tt.category, "boom", nil)
			f.say(t, "1", "Juan", "Perez", "V-12345678", "04121234567")

			assert.Equal(t, tt.want, f.dispatcher.last(t))
			f.stateGone(t)
		})
	}
}

func TestRegistrationNameMismatchShowsBothNames(t *testing.T) {
	f := newFixture(t)
	f.verifier.result = verify.Result{FirstName: "Pedro", LastName: "Gomez"}
	f.say(t, "1", "Juan", "Perez", "V-12345678", "04121234567")

	assert.Equal(t, replyf(replyNamesMismatch, "Juan", "Perez", "Pedro", "Gomez"), f.dispatcher.last(t))
	f.stateGone(t)
}

func TestStreamFlowSimpleVariant(t *testing.T) {
	f := newFixture(t, WithOptionalStreamOwner())
	f.say(t, "3", "https://twitch.tv/x", "Caracas")

	streams, err := f.streams.List(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, "https://twitch.tv/x", streams[0].Link)
	assert.Equal(t, "Caracas", streams[0].City)
	assert.Empty(t, streams[0].OwnerNationalID)
	assert.Equal(t, recmodels.StreamStatusPending, streams[0].Status)
	assert.NotEmpty(t, streams[0].ID)

	assert.Equal(t, replyf(replyStreamReceived, "https://twitch.tv/x", "Caracas"), f.dispatcher.last(t))
	f.stateGone(t)
}

func TestStreamFlowOwnershipVariant(t *testing.T) {
	f := newFixture(t)
	// Register the owner first.
	f.say(t, "1", "Juan", "Perez", "V-12345678", "04121234567")

	f.say(t, "3", "https://twitch.tv/x", "Caracas")
	assert.Equal(t, replyAskStreamOwnerID, f.dispatcher.last(t))

	f.say(t, "V-12345678")
	streams, err := f.streams.List(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, "V-12345678", streams[0].OwnerNationalID)
	f.stateGone(t)
}

func TestStreamFlowUnknownOwnerResets(t *testing.T) {
	f := newFixture(t)
	f.say(t, "3", "https://twitch.tv/x", "Caracas", "V-99999999")

	assert.Equal(t, replyf(replyStreamOwnerUnknown, "V-99999999"), f.dispatcher.last(t))
	f.stateGone(t)

	streams, err := f.streams.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, streams)
}

func TestStreamLinkValidation(t *testing.T) {
	f := newFixture(t)
	f.say(t, "3", "twitch.tv/x")

	assert.Equal(t, replyBadStreamLink, f.dispatcher.last(t))
	state, err := f.convs.Get(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, models.StepStreamLink, state.Step)

	f.say(t, "https://twitch.tv/x", "CC")
	assert.Equal(t, replyCityTooShort, f.dispatcher.last(t))
}

func TestConcurrentMessagesFromSameSenderSerialize(t *testing.T) {
	f := newFixture(t)
	f.say(t, "1")

	// Two rapid identical answers: exactly one must win the first-name step,
	// the second lands on the last-name step.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.svc.HandleMessage(context.Background(), sender, "Juan")
		}()
	}
	wg.Wait()

	state, err := f.convs.Get(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, models.StepNationalID, state.Step,
		"second message must observe the first one's transition")
	assert.Equal(t, "Juan", state.FirstName)
	assert.Equal(t, "Juan", state.LastName)
}

func TestDispatcherFailureDoesNotBreakFlow(t *testing.T) {
	f := newFixture(t)
	logger := slog.New(slog.DiscardHandler)
	registrar := regsvc.New(f.users, f.verifier, logger)
	svc := New(f.convs, registrar, f.users, f.streams, failingDispatcher{}, logger)

	require.NoError(t, svc.HandleMessage(context.Background(), sender, "1"))
	state, err := f.convs.Get(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, models.StepFirstName, state.Step, "state advances even when delivery fails")
}

type failingDispatcher struct{}

func (failingDispatcher) Send(context.Context, string, string) error {
	return assert.AnError
}
