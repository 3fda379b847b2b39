package controllers

import "net/http"

// JWKSSource publica la parte pública de las claves de firma.
type JWKSSource interface {
	JWKSJSON() []byte
}

// JWKSController maneja GET /.well-known/jwks.json.
type JWKSController struct {
	keys JWKSSource
}

func NewJWKSController(keys JWKSSource) *JWKSController {
	return &JWKSController{keys: keys}
}

func (c *JWKSController) JWKS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.keys.JWKSJSON())
}
