// Package controllers contiene los handlers HTTP del servicio.
package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dropDatabas3/socialgrant/internal/http/errors"
	"github.com/dropDatabas3/socialgrant/internal/http/middlewares"
	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
	"github.com/dropDatabas3/socialgrant/internal/social"
)

// Granter es lo que el controller necesita del grant social.
type Granter interface {
	Grant(ctx context.Context, in social.GrantInput) (*social.Credential, error)
}

// Parámetros del endpoint de token que no se reenvían al grant.
var reservedParams = map[string]struct{}{
	"grant_type":    {},
	"client_id":     {},
	"client_secret": {},
}

// TokenResponse es la respuesta exitosa de /oauth2/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// TokenController maneja POST /oauth2/token.
type TokenController struct {
	granter Granter
}

func NewTokenController(g Granter) *TokenController {
	return &TokenController{granter: g}
}

// Token maneja POST /oauth2/token (application/x-www-form-urlencoded).
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokenController.Token"))

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		errors.WriteError(w, errors.ErrInvalidRequest.WithDescription("malformed form body").WithCause(err))
		return
	}

	grantType := strings.TrimSpace(r.PostForm.Get("grant_type"))
	switch grantType {
	case "":
		errors.WriteError(w, errors.ErrInvalidRequest.WithDescription("parameter 'grant_type' is required"))
		return
	case social.GrantType:
	default:
		errors.WriteError(w, errors.ErrUnsupportedGrantType)
		return
	}

	clientID := strings.TrimSpace(r.PostForm.Get("client_id"))
	if clientID == "" {
		errors.WriteError(w, errors.ErrInvalidRequest.WithDescription("parameter 'client_id' is required"))
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if _, skip := reservedParams[k]; skip || len(vs) == 0 {
			continue
		}
		params[k] = vs[0]
	}

	cred, err := c.granter.Grant(ctx, social.GrantInput{
		RequestID:  middlewares.GetRequestID(ctx),
		ClientID:   clientID,
		Parameters: params,
	})
	if err != nil {
		appErr := errors.FromError(err)
		if appErr.HTTPStatus >= 500 {
			log.Warn("token request failed", logger.Err(err))
		}
		errors.WriteError(w, appErr)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(TokenResponse{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
		ExpiresIn:   cred.ExpiresIn,
		Scope:       cred.Scope,
	})
}
