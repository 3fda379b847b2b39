// Package google implementa el validator de ID tokens de Google.
//
// El raw token es un ID token OpenID Connect firmado con RS256. Se verifica localmente
// contra el JWKS publicado por Google: firma, audiencia (uno de los client ids
// configurados), issuer, expiración e issued-at. Con el key set en cache no hay llamada a Google.
package google

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/socialgrant/internal/cache"
	"github.com/dropDatabas3/socialgrant/internal/social"
	"github.com/dropDatabas3/socialgrant/internal/util/httpx"
)

// Type es el provider type que atiende este validator.
const Type = "google"

// Valores por defecto.
const (
	DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultLeeway  = 30 * time.Second
	DefaultJWKSTTL = time.Hour
)

// Issuers aceptados en el claim iss.
var Issuers = []string{"https://accounts.google.com", "accounts.google.com"}

// Config agrupa la configuración del validator.
type Config struct {
	// ClientIDs son las audiencias aceptadas. Se requiere al menos una.
	ClientIDs []string
	JWKSURL   string
	Leeway    time.Duration
	JWKSTTL   time.Duration

	HTTPClient *http.Client
	Cache      cache.Cache
	// Now reemplaza el reloj (tests).
	Now func() time.Time
}

// Validator verifica ID tokens de Google.
type Validator struct {
	social.TypeMatcher

	clientIDs []string
	leeway    time.Duration
	now       func() time.Time
	keys      *keySet
}

var _ social.Validator = (*Validator)(nil)

// New construye el validator. Falla si no hay ningún client id configurado.
func New(cfg Config) (*Validator, error) {
	ids := make([]string, 0, len(cfg.ClientIDs))
	for _, id := range cfg.ClientIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("google: at least one client id is required")
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = DefaultJWKSURL
	}
	if cfg.Leeway <= 0 {
		cfg.Leeway = DefaultLeeway
	}
	if cfg.JWKSTTL <= 0 {
		cfg.JWKSTTL = DefaultJWKSTTL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpx.NewClient(0)
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory("google", cfg.JWKSTTL)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Validator{
		TypeMatcher: social.TypeMatcher(Type),
		clientIDs:   ids,
		leeway:      cfg.Leeway,
		now:         cfg.Now,
		keys: &keySet{
			url:        cfg.JWKSURL,
			client:     cfg.HTTPClient,
			cache:      cfg.Cache,
			ttl:        cfg.JWKSTTL,
			minRefresh: 30 * time.Second,
			now:        cfg.Now,
		},
	}, nil
}

// ValidateLogin verifica rawToken y devuelve un principal cuyo subject es el claim sub.
func (v *Validator) ValidateLogin(ctx context.Context, rawToken string) (*social.Principal, error) {
	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithLeeway(v.leeway),
		jwtv5.WithIssuedAt(),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(v.now),
	)

	var claims jwtv5.RegisteredClaims
	_, err := parser.ParseWithClaims(rawToken, &claims, func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.key(ctx, kid)
	})
	if err != nil {
		var fe *fetchError
		if errors.As(err, &fe) {
			return nil, social.Unavailable(Type, fe, "could not load signing keys")
		}
		return nil, social.Rejected(Type, "invalid ID token").WithDetail("reason", reason(err))
	}

	if !slices.Contains(Issuers, claims.Issuer) {
		return nil, social.Rejected(Type, "invalid ID token").WithDetail("reason", "issuer")
	}
	if !v.audienceOK(claims.Audience) {
		return nil, social.Rejected(Type, "invalid ID token").WithDetail("reason", "audience")
	}
	if claims.Subject == "" {
		return nil, social.Rejected(Type, "ID token has no subject")
	}
	return social.NewAuthenticated(Type, claims.Subject), nil
}

func (v *Validator) audienceOK(aud jwtv5.ClaimStrings) bool {
	for _, a := range aud {
		if slices.Contains(v.clientIDs, a) {
			return true
		}
	}
	return false
}

func reason(err error) string {
	switch {
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, errUnknownKID):
		return "unknown_kid"
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwtv5.ErrTokenUsedBeforeIssued), errors.Is(err, jwtv5.ErrTokenNotValidYet):
		return "not_yet_valid"
	case errors.Is(err, jwtv5.ErrTokenRequiredClaimMissing):
		return "missing_claim"
	default:
		return "invalid"
	}
}
