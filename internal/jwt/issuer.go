// Package jwt emite los access tokens propios (EdDSA) que envuelven un principal social.
package jwt

import (
	"context"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/socialgrant/internal/social"
)

// Issuer firma tokens con la clave activa del KeySet.
type Issuer struct {
	Iss       string        // "iss"
	Keys      *KeySet       // clave activa
	AccessTTL time.Duration // TTL del access token (ej: 15m)

	now func() time.Time
}

var _ social.CredentialIssuer = (*Issuer)(nil)

func NewIssuer(iss string, ks *KeySet, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{
		Iss:       iss,
		Keys:      ks,
		AccessTTL: ttl,
		now:       time.Now,
	}
}

// Subject arma el sub del access token: "<provider>|<subject>".
func Subject(p *social.Principal) string { return p.Provider() + "|" + p.SubjectID() }

// Issue implementa social.CredentialIssuer.
func (i *Issuer) Issue(_ context.Context, req social.IssueRequest) (*social.Credential, error) {
	if !req.Principal.Authenticated() {
		return nil, errors.New("jwt: principal no autenticado")
	}
	now := i.now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss":      i.Iss,
		"sub":      Subject(req.Principal),
		"aud":      req.ClientID,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      exp.Unix(),
		"jti":      uuid.NewString(),
		"provider": req.Principal.Provider(),
		"gty":      social.GrantType,
	}
	scope := req.Parameters["scope"]
	if scope != "" {
		claims["scope"] = scope
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Keys.Priv)
	if err != nil {
		return nil, err
	}
	return &social.Credential{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(i.AccessTTL.Seconds()),
		Scope:       scope,
	}, nil
}
