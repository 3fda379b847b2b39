// Package config carga la configuración del servicio: config.yaml + variables de entorno.
//
// Orden de precedencia: defaults < YAML < ENV. Los secretos pueden escribirse como
// "enc:<nonce|ciphertext>" (ver internal/security/secretbox) y se descifran al cargar.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/socialgrant/internal/security/secretbox"
	"github.com/dropDatabas3/socialgrant/internal/util"
)

// Nombres de providers conocidos (orden por defecto del registry).
var KnownProviders = []string{"google", "facebook", "linkedin"}

type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"` // debug | info | warn | error
	} `yaml:"log"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		// TrustedProxies: IPs o CIDRs cuyo X-Forwarded-For se honra. Vacío: ninguno.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL time.Duration `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer    string        `yaml:"issuer"`
		AccessTTL time.Duration `yaml:"access_ttl"`
		// SigningSeed: seed Ed25519 en base64 (32 bytes). Admite "enc:".
		SigningSeed string `yaml:"signing_seed"`
		// KeyFile: si no hay seed, se lee/genera la clave en este archivo.
		// Sin ninguno de los dos se deriva de SECRETBOX_MASTER_KEY; sin master key, clave efímera.
		KeyFile string `yaml:"key_file"`
	} `yaml:"jwt"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// Token: límite por IP del endpoint /oauth2/token.
		Token struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"token"`
	} `yaml:"rate"`

	Audit struct {
		Log      bool `yaml:"log"`
		Postgres struct {
			DSN      string `yaml:"dsn"`
			MaxConns int32  `yaml:"max_conns"`
			Migrate  bool   `yaml:"migrate"`
		} `yaml:"postgres"`
	} `yaml:"audit"`

	Social Social `yaml:"social"`
}

// Social agrupa la configuración de los validators.
type Social struct {
	// Order define el orden del registry. Vacío => KnownProviders.
	Order       []string      `yaml:"order"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	Google struct {
		ClientIDs []string      `yaml:"client_ids"`
		JWKSURL   string        `yaml:"jwks_url"`
		Leeway    time.Duration `yaml:"leeway"`
		JWKSTTL   time.Duration `yaml:"jwks_ttl"`
	} `yaml:"google"`

	Facebook struct {
		AppID     string `yaml:"app_id"`
		AppSecret string `yaml:"app_secret"`
		GraphURL  string `yaml:"graph_url"`
	} `yaml:"facebook"`

	LinkedIn struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURI  string `yaml:"redirect_uri"`
		TokenURL     string `yaml:"token_url"`
		APIURL       string `yaml:"api_url"`
	} `yaml:"linkedin"`
}

// Load lee path (si existe), aplica ENV, defaults, descifra secretos y valida.
// path vacío o inexistente => solo defaults + ENV.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	if err := c.decryptSecrets(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "socialgrant"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == 0 {
		c.Cache.Memory.DefaultTTL = 5 * time.Minute
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "socialgrant"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 15 * time.Minute
	}
	if c.Rate.Token.Limit == 0 {
		c.Rate.Token.Limit = 30
	}
	if c.Rate.Token.Window == 0 {
		c.Rate.Token.Window = time.Minute
	}
	if c.Audit.Postgres.MaxConns == 0 {
		c.Audit.Postgres.MaxConns = 4
	}
	if c.Social.HTTPTimeout == 0 {
		c.Social.HTTPTimeout = 10 * time.Second
	}
	if c.Social.Google.Leeway == 0 {
		c.Social.Google.Leeway = 30 * time.Second
	}
	if c.Social.Google.JWKSTTL == 0 {
		c.Social.Google.JWKSTTL = time.Hour
	}
}

// secrets devuelve punteros a todos los campos que pueden venir cifrados.
func (c *Config) secrets() map[string]*string {
	return map[string]*string{
		"cache.redis.password":          &c.Cache.Redis.Password,
		"jwt.signing_seed":              &c.JWT.SigningSeed,
		"audit.postgres.dsn":            &c.Audit.Postgres.DSN,
		"social.facebook.app_secret":    &c.Social.Facebook.AppSecret,
		"social.linkedin.client_secret": &c.Social.LinkedIn.ClientSecret,
	}
}

func (c *Config) decryptSecrets() error {
	var box *secretbox.Box
	for name, p := range c.secrets() {
		if !secretbox.IsSealed(*p) {
			continue
		}
		if box == nil {
			b, err := secretbox.FromEnv()
			if err != nil {
				return fmt.Errorf("config: %s está cifrado: %w", name, err)
			}
			box = b
		}
		pt, err := box.Open(*p)
		if err != nil {
			return fmt.Errorf("config: decrypt %s: %w", name, err)
		}
		*p = pt
	}
	return nil
}

// Validate chequea consistencia. Load ya lo llama.
func (c *Config) Validate() error {
	var errs []error
	switch c.App.Env {
	case "dev", "staging", "prod":
	default:
		errs = append(errs, fmt.Errorf("app.env inválido: %q", c.App.Env))
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind inválido: %q", c.Cache.Kind))
	}
	if c.JWT.AccessTTL < 0 {
		errs = append(errs, errors.New("jwt.access_ttl debe ser > 0"))
	}
	if c.Rate.Enabled && (c.Rate.Token.Limit <= 0 || c.Rate.Token.Window <= 0) {
		errs = append(errs, errors.New("rate.token: limit y window deben ser > 0"))
	}
	seen := map[string]bool{}
	for _, name := range c.Social.Order {
		if !slices.Contains(KnownProviders, name) {
			errs = append(errs, fmt.Errorf("social.order: provider desconocido %q", name))
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("social.order: %q repetido", name))
		}
		seen[name] = true
	}
	if c.App.Env == "prod" {
		if c.JWT.Issuer == "" {
			errs = append(errs, errors.New("jwt.issuer es obligatorio en prod"))
		}
		if c.JWT.SigningSeed == "" && c.JWT.KeyFile == "" && os.Getenv(secretbox.EnvMasterKey) == "" {
			errs = append(errs, errors.New("jwt.signing_seed, jwt.key_file o "+secretbox.EnvMasterKey+" es obligatorio en prod"))
		}
	}
	return errors.Join(errs...)
}

// ProviderOrder devuelve el orden efectivo del registry.
func (s Social) ProviderOrder() []string {
	if len(s.Order) == 0 {
		return slices.Clone(KnownProviders)
	}
	return slices.Clone(s.Order)
}

// Redacted devuelve una copia apta para imprimir (secretos enmascarados).
func (c *Config) Redacted() Config {
	cp := *c
	for _, p := range cp.secrets() {
		*p = util.MaskSecret(*p)
	}
	return cp
}

// YAML serializa la config (usar sobre Redacted).
func (c Config) YAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
