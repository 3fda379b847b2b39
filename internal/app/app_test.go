package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialgrant/internal/config"
	"github.com/dropDatabas3/socialgrant/internal/rate"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Social.Google.ClientIDs = []string{"web.apps.googleusercontent.com"}
	cfg.Social.Facebook.AppID = "123"
	cfg.Social.Facebook.AppSecret = "shh"
	return cfg
}

func TestNew_WiresEnabledProviders(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{"google", "facebook"}, a.Providers)
	assert.Equal(t, []string{"google", "facebook"}, a.Dispatcher.Types())

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), a.Keys.KID)
}

func TestNew_UnknownProviderInOrder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Social.Order = []string{"google", "myspace"}
	_, err := New(context.Background(), cfg, Options{Registry: prometheus.NewRegistry()})
	require.Error(t, err)
}

func TestNew_InvalidTrustedProxy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.TrustedProxies = []string{"10.0.0.0/33"}
	_, err := New(context.Background(), cfg, Options{Registry: prometheus.NewRegistry()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trusted_proxies")
}

func TestTokenLimiter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate.Enabled = false
	assert.Nil(t, tokenLimiter(cfg, nil))

	cfg.Rate.Enabled = true
	core, err := BuildCore(cfg)
	require.NoError(t, err)
	defer core.Cache.Close()
	assert.IsType(t, &rate.MemoryLimiter{}, tokenLimiter(cfg, core.Cache))
}
