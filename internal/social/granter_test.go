package social

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/socialgrant/internal/audit"
	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
)

type stubIssuer struct {
	got IssueRequest
	err error
}

func (s *stubIssuer) Issue(_ context.Context, req IssueRequest) (*Credential, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &Credential{AccessToken: "at-" + req.Principal.String(), TokenType: "Bearer", ExpiresIn: 900}, nil
}

type memorySink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (m *memorySink) Record(_ context.Context, ev audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

func newGranter(t *testing.T, v *MockValidator, iss *stubIssuer, sink *memorySink, obs *recordingObserver) *Granter {
	t.Helper()
	return NewGranter(GranterDeps{
		Authenticator: NewDispatcher([]Validator{v}),
		Issuer:        iss,
		Audit:         sink,
		Observer:      obs,
	})
}

func TestGranter_Success(t *testing.T) {
	v := newMock("google")
	v.On("ValidateLogin", mock.Anything, "raw-google-token").Return(NewAuthenticated("google", "u123"), nil)
	iss, sink, obs := &stubIssuer{}, &memorySink{}, &recordingObserver{}

	cred, err := newGranter(t, v, iss, sink, obs).Grant(context.Background(), GrantInput{
		RequestID: "req-1",
		ClientID:  "web",
		Parameters: map[string]string{
			"grant_type": "social", "type": "google", "token": "raw-google-token", "scope": "profile",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "at-google|u123", cred.AccessToken)

	assert.Equal(t, "web", iss.got.ClientID)
	assert.NotContains(t, iss.got.Parameters, "token")
	assert.Equal(t, "profile", iss.got.Parameters["scope"])

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, OutcomeAuthenticated, ev.Outcome)
	assert.Equal(t, "u123", ev.SubjectID)
	assert.Equal(t, "google", ev.ProviderType)
	assert.Equal(t, GrantType, ev.GrantType)
	assert.NotContains(t, ev.Parameters, "token")
	assert.Equal(t, []string{"google:authenticated"}, obs.grants)
}

func TestGranter_MissingTokenNeverCallsValidator(t *testing.T) {
	v := newMock("google")
	sink := &memorySink{}

	_, err := newGranter(t, v, &stubIssuer{}, sink, &recordingObserver{}).Grant(context.Background(), GrantInput{
		Parameters: map[string]string{"type": "google"},
	})
	assert.ErrorIs(t, err, ErrMissingCredential)
	v.AssertNotCalled(t, "ValidateLogin", mock.Anything, mock.Anything)

	require.Len(t, sink.events, 1)
	assert.Equal(t, OutcomeBadRequest, sink.events[0].Outcome)
	assert.Equal(t, string(KindMissingCredential), sink.events[0].ErrorKind)
}

func TestGranter_RejectionIsAuditedWithoutToken(t *testing.T) {
	v := newMock("facebook")
	v.On("ValidateLogin", mock.Anything, "fb-raw-token").Return(nil, Rejected("facebook", "invalid Facebook token"))
	sink, obs := &memorySink{}, &recordingObserver{}

	core, logs := observer.New(zapcore.DebugLevel)
	defer logger.Replace(zap.New(core))()

	_, err := newGranter(t, v, &stubIssuer{}, sink, obs).Grant(context.Background(), GrantInput{
		Parameters: map[string]string{"type": "facebook", "token": "fb-raw-token"},
	})
	assert.ErrorIs(t, err, ErrInvalidGrant)

	require.Len(t, sink.events, 1)
	assert.Equal(t, OutcomeRejected, sink.events[0].Outcome)
	assert.Equal(t, string(KindInvalidGrant), sink.events[0].ErrorKind)
	assert.NotContains(t, sink.events[0].Error, "fb-raw-token")
	assert.Equal(t, []string{"facebook:rejected"}, obs.grants)

	for _, e := range logs.All() {
		assert.NotContains(t, e.Message, "fb-raw-token")
		for _, f := range e.Context {
			assert.NotContains(t, f.String, "fb-raw-token")
		}
	}
	assert.NotZero(t, logs.FilterMessage("social grant failed").Len())
}

func TestGranter_IssuerFailure(t *testing.T) {
	v := newMock("google")
	v.On("ValidateLogin", mock.Anything, "tok").Return(NewAuthenticated("google", "u"), nil)
	iss := &stubIssuer{err: errors.New("signing failed")}
	sink := &memorySink{}

	_, err := newGranter(t, v, iss, sink, &recordingObserver{}).Grant(context.Background(), GrantInput{
		Parameters: map[string]string{"type": "google", "token": "tok"},
	})
	require.Error(t, err)
	require.Len(t, sink.events, 1)
	assert.Equal(t, OutcomeError, sink.events[0].Outcome)
	assert.Equal(t, OutcomeError, sink.events[0].ErrorKind)
}

func TestGranter_AuditFailureDoesNotFailGrant(t *testing.T) {
	v := newMock("google")
	v.On("ValidateLogin", mock.Anything, "tok").Return(NewAuthenticated("google", "u"), nil)
	sink := &memorySink{err: errors.New("db down")}

	cred, err := newGranter(t, v, &stubIssuer{}, sink, &recordingObserver{}).Grant(context.Background(), GrantInput{
		Parameters: map[string]string{"type": "google", "token": "tok"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, cred.AccessToken)
}
