package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}
	if v, ok := getEnvCSV("SERVER_TRUSTED_PROXIES"); ok {
		c.Server.TrustedProxies = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvDur("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvDur("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_SIGNING_SEED"); ok {
		c.JWT.SigningSeed = v
	}
	if v, ok := getEnvStr("JWT_KEY_FILE"); ok {
		c.JWT.KeyFile = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_TOKEN_LIMIT"); ok {
		c.Rate.Token.Limit = v
	}
	if v, ok := getEnvDur("RATE_TOKEN_WINDOW"); ok {
		c.Rate.Token.Window = v
	}

	// AUDIT
	if v, ok := getEnvBool("AUDIT_LOG"); ok {
		c.Audit.Log = v
	}
	if v, ok := getEnvStr("AUDIT_POSTGRES_DSN"); ok {
		c.Audit.Postgres.DSN = v
	}
	if v, ok := getEnvBool("AUDIT_POSTGRES_MIGRATE"); ok {
		c.Audit.Postgres.Migrate = v
	}

	// ───── Social ─────
	if v, ok := getEnvCSV("SOCIAL_ORDER"); ok {
		c.Social.Order = v
	}
	if v, ok := getEnvDur("SOCIAL_HTTP_TIMEOUT"); ok {
		c.Social.HTTPTimeout = v
	}
	// GOOGLE
	if v, ok := getEnvCSV("SOCIAL_GOOGLE_CLIENT_IDS"); ok {
		c.Social.Google.ClientIDs = v
	}
	if v, ok := getEnvStr("SOCIAL_GOOGLE_JWKS_URL"); ok {
		c.Social.Google.JWKSURL = v
	}
	if v, ok := getEnvDur("SOCIAL_GOOGLE_LEEWAY"); ok {
		c.Social.Google.Leeway = v
	}
	if v, ok := getEnvDur("SOCIAL_GOOGLE_JWKS_TTL"); ok {
		c.Social.Google.JWKSTTL = v
	}
	// FACEBOOK
	if v, ok := getEnvStr("SOCIAL_FACEBOOK_APP_ID"); ok {
		c.Social.Facebook.AppID = v
	}
	if v, ok := getEnvStr("SOCIAL_FACEBOOK_APP_SECRET"); ok {
		c.Social.Facebook.AppSecret = v
	}
	if v, ok := getEnvStr("SOCIAL_FACEBOOK_GRAPH_URL"); ok {
		c.Social.Facebook.GraphURL = v
	}
	// LINKEDIN
	if v, ok := getEnvStr("SOCIAL_LINKEDIN_CLIENT_ID"); ok {
		c.Social.LinkedIn.ClientID = v
	}
	if v, ok := getEnvStr("SOCIAL_LINKEDIN_CLIENT_SECRET"); ok {
		c.Social.LinkedIn.ClientSecret = v
	}
	if v, ok := getEnvStr("SOCIAL_LINKEDIN_REDIRECT_URI"); ok {
		c.Social.LinkedIn.RedirectURI = v
	}
	if v, ok := getEnvStr("SOCIAL_LINKEDIN_TOKEN_URL"); ok {
		c.Social.LinkedIn.TokenURL = v
	}
	if v, ok := getEnvStr("SOCIAL_LINKEDIN_API_URL"); ok {
		c.Social.LinkedIn.APIURL = v
	}
}
