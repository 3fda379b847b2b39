// Package facebook implementa el validator de access tokens de Facebook.
//
// Los user tokens de Facebook son opacos, así que la validación es una introspección en
// dos hops contra la Graph API:
//
//  1. GET /oauth/access_token?grant_type=client_credentials obtiene un app access token.
//  2. GET /debug_token?input_token=<token>&access_token=<app token> describe el token.
//
// El token se acepta si es válido y de tipo USER. Ambas URLs llevan secrets, por lo que
// nunca se loguean ni se incluyen en errores.
package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
	"github.com/dropDatabas3/socialgrant/internal/social"
	"github.com/dropDatabas3/socialgrant/internal/util/httpx"
)

// Type es el provider type que atiende este validator.
const Type = "facebook"

// DefaultGraphURL es la base de la Graph API.
const DefaultGraphURL = "https://graph.facebook.com"

// Nombres de hop usados en logs y detalles de error.
const (
	HopAppToken   = "app_token"
	HopDebugToken = "debug_token"
)

// Config agrupa la configuración del validator.
type Config struct {
	AppID     string
	AppSecret string
	GraphURL  string

	HTTPClient *http.Client
}

// Validator introspecciona user access tokens de Facebook.
type Validator struct {
	social.TypeMatcher

	appID     string
	appSecret string
	graphURL  string
	client    *http.Client
}

var _ social.Validator = (*Validator)(nil)

// New construye el validator. App id y app secret son obligatorios.
func New(cfg Config) (*Validator, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, errors.New("facebook: app id and app secret are required")
	}
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpx.NewClient(0)
	}
	return &Validator{
		TypeMatcher: social.TypeMatcher(Type),
		appID:       cfg.AppID,
		appSecret:   cfg.AppSecret,
		graphURL:    strings.TrimRight(cfg.GraphURL, "/"),
		client:      cfg.HTTPClient,
	}, nil
}

type appTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type debugTokenResponse struct {
	Data *debugData `json:"data"`
}

type debugData struct {
	AppID   string      `json:"app_id"`
	Type    string      `json:"type"`
	IsValid bool        `json:"is_valid"`
	UserID  string      `json:"user_id"`
	Error   *graphError `json:"error"`
}

type graphError struct {
	Code    int    `json:"code"`
	Subcode int    `json:"error_subcode"`
	Message string `json:"message"`
}

// ValidateLogin ejecuta ambos hops y devuelve un principal cuyo subject es data.user_id.
func (v *Validator) ValidateLogin(ctx context.Context, rawToken string) (*social.Principal, error) {
	appToken, err := v.appAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("input_token", rawToken)
	q.Set("access_token", appToken)
	var dbg debugTokenResponse
	if err := v.get(ctx, HopDebugToken, "/debug_token", q, &dbg); err != nil {
		return nil, err
	}

	d := dbg.Data
	switch {
	case d != nil && d.IsValid && strings.EqualFold(d.Type, "USER") && d.UserID != "":
		logger.From(ctx).Debug("facebook token introspected",
			logger.Provider(Type), logger.Subject(d.UserID))
		return social.NewAuthenticated(Type, d.UserID), nil
	case d != nil && d.Error != nil:
		return nil, social.Rejected(Type, "token rejected by Graph API").
			WithDetail("code", strconv.Itoa(d.Error.Code)).
			WithDetail("subcode", strconv.Itoa(d.Error.Subcode)).
			WithDetail("message", d.Error.Message)
	default:
		return nil, social.Rejected(Type, "invalid Facebook token")
	}
}

func (v *Validator) appAccessToken(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("client_id", v.appID)
	q.Set("client_secret", v.appSecret)
	q.Set("grant_type", "client_credentials")

	var out appTokenResponse
	if err := v.get(ctx, HopAppToken, "/oauth/access_token", q, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", social.Unavailable(Type, nil, "app access token missing in response").
			WithDetail("hop", HopAppToken)
	}
	return out.AccessToken, nil
}

// get ejecuta un hop. Todo fallo aquí es de infraestructura: ValidatorUnavailable.
func (v *Validator) get(ctx context.Context, hop, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.graphURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return social.Unavailable(Type, httpx.StripURL(err), "build %s request", hop).WithDetail("hop", hop)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return social.Unavailable(Type, httpx.StripURL(err), "%s request failed", hop).WithDetail("hop", hop)
	}
	body, err := httpx.ReadBody(resp)
	if err != nil {
		return social.Unavailable(Type, err, "%s read failed", hop).WithDetail("hop", hop)
	}
	if !httpx.Is2xx(resp.StatusCode) {
		logger.From(ctx).Info("graph api non-2xx",
			logger.Provider(Type), logger.Hop(hop), logger.Status(resp.StatusCode))
		return social.Unavailable(Type, fmt.Errorf("http %d", resp.StatusCode), "%s returned an error status", hop).
			WithDetail("hop", hop).
			WithDetail("status", strconv.Itoa(resp.StatusCode))
	}
	if err := json.Unmarshal(body, out); err != nil {
		e := social.Unavailable(Type, err, "%s response could not be decoded", hop).WithDetail("hop", hop)
		if hop != HopAppToken { // el body de app_token puede llevar el app token
			e = e.WithDetail("body", httpx.Snippet(body))
		}
		return e
	}
	return nil
}
