// Package providers construye los validators sociales a partir de la configuración.
//
// Cada provider tiene una factory que decide si está configurado (todas las settings
// requeridas presentes) y lo construye. El orden del registry sigue social.order.
package providers

import (
	"fmt"
	"net/http"

	"github.com/dropDatabas3/socialgrant/internal/cache"
	"github.com/dropDatabas3/socialgrant/internal/config"
	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
	"github.com/dropDatabas3/socialgrant/internal/providers/facebook"
	"github.com/dropDatabas3/socialgrant/internal/providers/google"
	"github.com/dropDatabas3/socialgrant/internal/providers/linkedin"
	"github.com/dropDatabas3/socialgrant/internal/social"
	"github.com/dropDatabas3/socialgrant/internal/util/httpx"
)

// Deps son las dependencias compartidas por los validators.
type Deps struct {
	HTTPClient *http.Client
	// Cache guarda documentos de providers (JWKS). nil => memoria por validator.
	Cache cache.Cache
}

// factory devuelve (nil, nil) si el provider no está configurado.
type factory func(cfg config.Social, deps Deps) (social.Validator, error)

var factories = map[string]factory{
	google.Type:   newGoogle,
	facebook.Type: newFacebook,
	linkedin.Type: newLinkedIn,
}

// BuildValidators construye los validators configurados en el orden de cfg.ProviderOrder().
func BuildValidators(cfg config.Social, deps Deps) ([]social.Validator, error) {
	if deps.HTTPClient == nil {
		deps.HTTPClient = httpx.NewClient(cfg.HTTPTimeout)
	}
	log := logger.L().With(logger.Component("providers"))

	out := make([]social.Validator, 0, len(factories))
	for _, name := range cfg.ProviderOrder() {
		f, ok := factories[name]
		if !ok {
			return nil, fmt.Errorf("providers: provider no registrado: %s", name)
		}
		v, err := f(cfg, deps)
		if err != nil {
			return nil, fmt.Errorf("providers: %s: %w", name, err)
		}
		if v == nil {
			log.Debug("provider no configurado, se omite", logger.Provider(name))
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Enabled lista los tipos registrados, en orden.
func Enabled(validators []social.Validator) []string {
	names := make([]string, 0, len(validators))
	for _, v := range validators {
		names = append(names, v.Type())
	}
	return names
}

func newGoogle(cfg config.Social, deps Deps) (social.Validator, error) {
	g := cfg.Google
	if len(nonEmpty(g.ClientIDs)) == 0 {
		return nil, nil
	}
	return google.New(google.Config{
		ClientIDs:  g.ClientIDs,
		JWKSURL:    g.JWKSURL,
		Leeway:     g.Leeway,
		JWKSTTL:    g.JWKSTTL,
		HTTPClient: deps.HTTPClient,
		Cache:      deps.Cache,
	})
}

func newFacebook(cfg config.Social, deps Deps) (social.Validator, error) {
	f := cfg.Facebook
	if f.AppID == "" || f.AppSecret == "" {
		return nil, nil
	}
	return facebook.New(facebook.Config{
		AppID:      f.AppID,
		AppSecret:  f.AppSecret,
		GraphURL:   f.GraphURL,
		HTTPClient: deps.HTTPClient,
	})
}

func newLinkedIn(cfg config.Social, deps Deps) (social.Validator, error) {
	l := cfg.LinkedIn
	if l.ClientID == "" || l.ClientSecret == "" || l.RedirectURI == "" {
		return nil, nil
	}
	return linkedin.New(linkedin.Config{
		ClientID:     l.ClientID,
		ClientSecret: l.ClientSecret,
		RedirectURL:  l.RedirectURI,
		TokenURL:     l.TokenURL,
		APIURL:       l.APIURL,
		HTTPClient:   deps.HTTPClient,
	})
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
