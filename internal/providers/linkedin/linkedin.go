// Package linkedin implementa el validator de authorization codes de LinkedIn.
//
// El raw token es un authorization code OAuth 2.0. Se canjea por un access token (con
// las credenciales del cliente en el body) y con ese access token se lee el perfil del
// miembro en /v2/me. El id del perfil es el subject.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
	"github.com/dropDatabas3/socialgrant/internal/social"
	"github.com/dropDatabas3/socialgrant/internal/util/httpx"
)

// Type es el provider type que atiende este validator.
const Type = "linkedin"

// Valores por defecto.
const (
	DefaultTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
	DefaultAPIURL   = "https://api.linkedin.com"
)

// Config agrupa la configuración del validator. ClientID, ClientSecret y RedirectURL son obligatorios.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURL     string
	APIURL       string

	HTTPClient *http.Client
}

// Validator canjea authorization codes de LinkedIn.
type Validator struct {
	social.TypeMatcher

	oauth   *oauth2.Config
	apiURL  string
	token   *http.Client
	profile *http.Client
}

var _ social.Validator = (*Validator)(nil)

// New construye el validator.
func New(cfg Config) (*Validator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, errors.New("linkedin: client id, client secret and redirect uri are required")
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpx.NewClient(0)
	}

	// Los redirects de la llamada de perfil no se siguen: se reportan como respuesta inesperada.
	profile := *cfg.HTTPClient
	profile.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	token := *cfg.HTTPClient
	token.Transport = tapTransport{base: cfg.HTTPClient.Transport}

	return &Validator{
		TypeMatcher: social.TypeMatcher(Type),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		token:   &token,
		profile: &profile,
	}, nil
}

type memberProfile struct {
	ID                 string `json:"id"`
	LocalizedFirstName string `json:"localizedFirstName"`
	LocalizedLastName  string `json:"localizedLastName"`
}

type apiError struct {
	Message          string `json:"message"`
	ServiceErrorCode int    `json:"serviceErrorCode"`
	Status           int    `json:"status"`
}

// ValidateLogin canjea el code y lee el id del miembro.
func (v *Validator) ValidateLogin(ctx context.Context, rawToken string) (*social.Principal, error) {
	tok, err := v.exchange(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	p, err := v.me(ctx, tok)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Debug("linkedin profile read", logger.Provider(Type), logger.Subject(p.ID))
	return social.NewAuthenticated(Type, p.ID), nil
}

func (v *Validator) exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tap := &bodyTap{}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.token)
	ctx = context.WithValue(ctx, tapKey{}, tap)
	tok, err := v.oauth.Exchange(ctx, code)
	if err == nil {
		return tok, nil
	}

	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		e := social.Unavailable(Type, httpx.StripURL(err), "code exchange failed").WithDetail("hop", "token")
		if tap.captured {
			// 2xx que oauth2 no pudo decodificar
			e = e.WithDetail("status", strconv.Itoa(tap.status)).
				WithDetail("body", httpx.Snippet(tap.body))
		}
		return nil, e
	}
	if re.ErrorCode != "" {
		return nil, social.Rejected(Type, "authorization code rejected").
			WithDetail("error", re.ErrorCode).
			WithDetail("error_description", re.ErrorDescription)
	}
	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}
	return nil, social.Unavailable(Type, fmt.Errorf("token endpoint http %d", status), "unexpected token endpoint response").
		WithDetail("hop", "token").
		WithDetail("status", strconv.Itoa(status)).
		WithDetail("body", httpx.Snippet(re.Body))
}

func (v *Validator) me(ctx context.Context, tok *oauth2.Token) (*memberProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.apiURL+"/v2/me", nil)
	if err != nil {
		return nil, social.Unavailable(Type, err, "build profile request")
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := v.profile.Do(req)
	if err != nil {
		return nil, social.Unavailable(Type, httpx.StripURL(err), "profile request failed").WithDetail("hop", "profile")
	}
	body, err := httpx.ReadBody(resp)
	if err != nil {
		return nil, social.Unavailable(Type, err, "profile read failed").WithDetail("hop", "profile")
	}

	switch code := resp.StatusCode; {
	case httpx.Is2xx(code):
		var p memberProfile
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, undecodable(err, code, body)
		}
		if p.ID == "" {
			return nil, undecodable(errors.New("profile has no id"), code, body)
		}
		return &p, nil

	case code >= 400:
		var ae apiError
		if err := json.Unmarshal(body, &ae); err != nil {
			return nil, undecodable(err, code, body)
		}
		status := ae.Status
		if status == 0 {
			status = code
		}
		return nil, social.Rejected(Type, "profile request rejected").
			WithDetail("status", strconv.Itoa(status)).
			WithDetail("service_error_code", strconv.Itoa(ae.ServiceErrorCode)).
			WithDetail("message", ae.Message)

	default:
		return nil, social.Unavailable(Type, fmt.Errorf("profile http %d", code), "unexpected profile response").
			WithDetail("hop", "profile").
			WithDetail("status", strconv.Itoa(code)).
			WithDetail("body", httpx.Snippet(body))
	}
}

func undecodable(err error, status int, body []byte) *social.Error {
	return social.Unavailable(Type, err, "profile response could not be decoded").
		WithDetail("hop", "profile").
		WithDetail("status", strconv.Itoa(status)).
		WithDetail("body", httpx.Snippet(body))
}

// bodyTap guarda status y una copia acotada del body de la respuesta del token endpoint.
type bodyTap struct {
	captured bool
	status   int
	body     []byte
}

type tapKey struct{}

// tapTransport copia la respuesta en el bodyTap del contexto del request, si lo hay.
type tapTransport struct{ base http.RoundTripper }

func (t tapTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	tap, ok := req.Context().Value(tapKey{}).(*bodyTap)
	if err != nil || !ok {
		return resp, err
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, httpx.MaxBody))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	tap.captured = true
	tap.status = resp.StatusCode
	tap.body = b
	resp.Body = io.NopCloser(bytes.NewReader(b))
	return resp, nil
}
