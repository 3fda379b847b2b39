package linkedin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialgrant/internal/social"
)

type linkedinStub struct {
	tokenStatus      int
	tokenContentType string
	tokenBody        string
	meStatus         int
	meBody           string
	meLocation       string

	tokenHits atomic.Int32
	meHits    atomic.Int32
}

func okStub() *linkedinStub {
	return &linkedinStub{
		tokenStatus:      http.StatusOK,
		tokenContentType: "application/json",
		tokenBody:        `{"access_token":"li-access","expires_in":5184000}`,
		meStatus:         http.StatusOK,
		meBody:           `{"id":"abc","localizedFirstName":"Ada","localizedLastName":"Lovelace"}`,
	}
}

func (s *linkedinStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v2/accessToken":
			s.tokenHits.Add(1)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			assert.Equal(t, "the-code", r.PostForm.Get("code"))
			assert.Equal(t, "https://app.example.com/cb", r.PostForm.Get("redirect_uri"))
			assert.Equal(t, "li-client", r.PostForm.Get("client_id"))
			assert.Equal(t, "li-secret", r.PostForm.Get("client_secret"))
			w.Header().Set("Content-Type", s.tokenContentType)
			w.WriteHeader(s.tokenStatus)
			_, _ = w.Write([]byte(s.tokenBody))
		case "/v2/me":
			s.meHits.Add(1)
			assert.Equal(t, "Bearer li-access", r.Header.Get("Authorization"))
			if s.meLocation != "" {
				w.Header().Set("Location", s.meLocation)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(s.meStatus)
			_, _ = w.Write([]byte(s.meBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newValidator(t *testing.T, srv *httptest.Server) *Validator {
	t.Helper()
	v, err := New(Config{
		ClientID:     "li-client",
		ClientSecret: "li-secret",
		RedirectURL:  "https://app.example.com/cb",
		TokenURL:     srv.URL + "/oauth/v2/accessToken",
		APIURL:       srv.URL,
	})
	require.NoError(t, err)
	return v
}

func TestNew_RequiresSettings(t *testing.T) {
	_, err := New(Config{ClientID: "a", ClientSecret: "b"})
	require.Error(t, err)
}

func TestValidateLogin_Success(t *testing.T) {
	stub := okStub()
	v := newValidator(t, stub.server(t))

	p, err := v.ValidateLogin(context.Background(), "the-code")
	require.NoError(t, err)
	assert.True(t, p.Authenticated())
	assert.Equal(t, "abc", p.SubjectID())
	assert.Equal(t, Type, p.Provider())
	assert.Equal(t, int32(1), stub.tokenHits.Load())
	assert.Equal(t, int32(1), stub.meHits.Load())
}

func TestValidateLogin_ExchangeRejected(t *testing.T) {
	stub := okStub()
	stub.tokenStatus = http.StatusBadRequest
	stub.tokenBody = `{"error":"invalid_grant","error_description":"expired code"}`
	v := newValidator(t, stub.server(t))

	_, err := v.ValidateLogin(context.Background(), "the-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, social.ErrInvalidCredential)

	var se *social.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "invalid_grant", se.Details["error"])
	assert.Equal(t, "expired code", se.Details["error_description"])
	assert.Equal(t, int32(0), stub.meHits.Load())
}

func TestValidateLogin_ExchangeNonJSONError(t *testing.T) {
	stub := okStub()
	stub.tokenStatus = http.StatusBadGateway
	stub.tokenContentType = "text/html"
	stub.tokenBody = `<html>bad gateway</html>`
	v := newValidator(t, stub.server(t))

	_, err := v.ValidateLogin(context.Background(), "the-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, social.ErrValidatorUnavailable)

	var se *social.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "502", se.Details["status"])
	assert.Contains(t, se.Details["body"], "bad gateway")
	assert.Equal(t, int32(0), stub.meHits.Load())
}

func TestValidateLogin_ProfileRejected(t *testing.T) {
	stub := okStub()
	stub.meStatus = http.StatusUnauthorized
	stub.meBody = `{"message":"Invalid access token","serviceErrorCode":65600,"status":401}`
	v := newValidator(t, stub.server(t))

	_, err := v.ValidateLogin(context.Background(), "the-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, social.ErrInvalidCredential)

	var se *social.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "401", se.Details["status"])
	assert.Equal(t, "65600", se.Details["service_error_code"])
	assert.Equal(t, "Invalid access token", se.Details["message"])
	assert.NotContains(t, err.Error(), "li-access")
}

func TestValidateLogin_ProfileRedirectIsUnexpected(t *testing.T) {
	stub := okStub()
	stub.meStatus = http.StatusFound
	stub.meLocation = "/elsewhere"
	stub.meBody = `{}`
	v := newValidator(t, stub.server(t))

	_, err := v.ValidateLogin(context.Background(), "the-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, social.ErrValidatorUnavailable)
	assert.Equal(t, int32(1), stub.meHits.Load())
}

func TestValidateLogin_ProfileMalformed(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"2xx not json":   {http.StatusOK, `not json`},
		"2xx without id": {http.StatusOK, `{"localizedFirstName":"Ada"}`},
		"4xx not json":   {http.StatusForbidden, `forbidden`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			stub := okStub()
			stub.meStatus = tc.status
			stub.meBody = tc.body
			v := newValidator(t, stub.server(t))

			_, err := v.ValidateLogin(context.Background(), "the-code")
			require.Error(t, err)
			assert.ErrorIs(t, err, social.ErrValidatorUnavailable)
			var se *social.Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.body, se.Details["body"])
		})
	}
}

func TestValidateLogin_TokenEndpointDown(t *testing.T) {
	stub := okStub()
	srv := stub.server(t)
	v := newValidator(t, srv)
	srv.Close()

	_, err := v.ValidateLogin(context.Background(), "the-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, social.ErrValidatorUnavailable)
	assert.NotContains(t, err.Error(), "the-code")
}

func TestValidateLogin_ExchangeUndecodable2xx(t *testing.T) {
	stub := okStub()
	stub.tokenBody = `<<upstream-garbage-xyz>>`
	v := newValidator(t, stub.server(t))

	_, err := v.ValidateLogin(context.Background(), "the-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, social.ErrValidatorUnavailable)

	var se *social.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "token", se.Details["hop"])
	assert.Equal(t, "200", se.Details["status"])
	assert.Equal(t, "<<upstream-garbage-xyz>>", se.Details["body"])
	assert.Equal(t, int32(0), stub.meHits.Load())
}

func TestValidateLogin_ProfileRejectedWithoutStatusField(t *testing.T) {
	stub := okStub()
	stub.meStatus = http.StatusForbidden
	stub.meBody = `{"message":"Not enough permissions","serviceErrorCode":100}`
	v := newValidator(t, stub.server(t))

	_, err := v.ValidateLogin(context.Background(), "the-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, social.ErrInvalidCredential)

	var se *social.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "403", se.Details["status"])
	assert.Equal(t, "100", se.Details["service_error_code"])
}
