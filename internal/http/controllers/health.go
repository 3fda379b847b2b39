package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
)

// HealthResponse es el cuerpo de GET /healthz.
type HealthResponse struct {
	Status    string   `json:"status"` // ok | degraded
	Providers []string `json:"providers"`
	KeyID     string   `json:"kid,omitempty"`
}

// HealthController maneja GET /healthz.
// Sin providers habilitados el servicio no puede autenticar a nadie: "degraded" (503).
type HealthController struct {
	providers []string
	keyID     string
}

func NewHealthController(providers []string, keyID string) *HealthController {
	ps := append([]string(nil), providers...)
	if ps == nil {
		ps = []string{}
	}
	return &HealthController{providers: ps, keyID: keyID}
}

func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Providers: c.providers, KeyID: c.keyID}
	status := http.StatusOK
	if len(c.providers) == 0 {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	logger.From(r.Context()).Debug("health check completed",
		logger.Layer("controller"),
		logger.String("status", resp.Status),
	)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
