package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/socialgrant/internal/cache"
	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
	"github.com/dropDatabas3/socialgrant/internal/util/httpx"
)

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

func (j *jwks) find(kid string) (jwk, bool) {
	for _, k := range j.Keys {
		if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
			return k, true
		}
	}
	return jwk{}, false
}

// fetchError marca un fallo al obtener el key set (transporte, status o decode).
// Se clasifica como ValidatorUnavailable, a diferencia del resto de fallos de verificación.
type fetchError struct{ err error }

func (e *fetchError) Error() string { return "jwks fetch: " + e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

var errUnknownKID = errors.New("signing key not found")

// keySet resuelve claves RSA por kid desde un endpoint JWKS.
// El documento crudo se guarda en un cache.Cache y los fetch concurrentes se colapsan en uno.
type keySet struct {
	url        string
	client     *http.Client
	cache      cache.Cache
	ttl        time.Duration
	minRefresh time.Duration
	now        func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	lastRefresh time.Time
}

func (ks *keySet) cacheKey() string { return "jwks:" + ks.url }

// key devuelve la clave pública del kid. Un kid desconocido fuerza un refetch (rotación
// de claves), como mucho una vez por minRefresh.
func (ks *keySet) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, errUnknownKID
	}
	doc, err := ks.document(ctx, false)
	if err != nil {
		return nil, err
	}
	k, ok := doc.find(kid)
	if !ok && ks.allowRefresh() {
		logger.From(ctx).Debug("unknown kid, refetching jwks",
			logger.Provider(Type), logger.String("kid", kid))
		if doc, err = ks.document(ctx, true); err != nil {
			return nil, err
		}
		k, ok = doc.find(kid)
	}
	if !ok {
		return nil, errUnknownKID
	}
	return rsaPublicKey(k)
}

func (ks *keySet) allowRefresh() bool {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	now := ks.now()
	if !ks.lastRefresh.IsZero() && now.Sub(ks.lastRefresh) < ks.minRefresh {
		return false
	}
	ks.lastRefresh = now
	return true
}

func (ks *keySet) document(ctx context.Context, force bool) (*jwks, error) {
	log := logger.From(ctx)
	if !force {
		raw, ok, err := ks.cache.Get(ctx, ks.cacheKey())
		if err != nil {
			log.Warn("jwks cache get failed", logger.Provider(Type), logger.Err(err))
		}
		if ok {
			var doc jwks
			if err := json.Unmarshal(raw, &doc); err == nil {
				return &doc, nil
			}
			_ = ks.cache.Delete(ctx, ks.cacheKey())
		}
	}

	// El fetch compartido no hereda la cancelación de quien lo inició; lo acota el
	// timeout del http.Client. Cada caller espera solo mientras su propio ctx siga vivo.
	shared := context.WithoutCancel(ctx)
	ch := ks.group.DoChan(ks.cacheKey(), func() (any, error) {
		raw, doc, err := ks.fetch(shared)
		if err != nil {
			return nil, err
		}
		if err := ks.cache.Set(shared, ks.cacheKey(), raw, ks.ttl); err != nil {
			log.Warn("jwks cache set failed", logger.Provider(Type), logger.Err(err))
		}
		return doc, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*jwks), nil
	case <-ctx.Done():
		return nil, &fetchError{ctx.Err()}
	}
}

func (ks *keySet) fetch(ctx context.Context) ([]byte, *jwks, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return nil, nil, &fetchError{err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := ks.client.Do(req)
	if err != nil {
		return nil, nil, &fetchError{httpx.StripURL(err)}
	}
	body, err := httpx.ReadBody(resp)
	if err != nil {
		return nil, nil, &fetchError{err}
	}
	if !httpx.Is2xx(resp.StatusCode) {
		return nil, nil, &fetchError{fmt.Errorf("jwks http %d", resp.StatusCode)}
	}
	var doc jwks
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, nil, &fetchError{fmt.Errorf("decode jwks: %w", err)}
	}
	if len(doc.Keys) == 0 {
		return nil, nil, &fetchError{errors.New("jwks has no keys")}
	}
	return body, &doc, nil
}

func rsaPublicKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("jwk %s: modulus: %w", k.Kid, err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("jwk %s: exponent: %w", k.Kid, err)
	}
	e := 65537
	if len(eb) > 0 {
		e = 0
		for _, b := range eb {
			e = (e << 8) | int(b)
		}
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
