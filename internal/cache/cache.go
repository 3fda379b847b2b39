// Package cache provee un cache de bytes con TTL y dos backends:
//   - memory: in-process (go-cache), default
//   - redis: compartido entre réplicas
//
// Se usa para documentos que conviene no refetchear en cada request (p.ej. el JWKS
// de Google). Es una optimización: un miss nunca es un error de correctitud.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache define las operaciones mínimas.
type Cache interface {
	// Get devuelve (valor, true) o (nil, false) si no existe o expiró.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set guarda el valor; ttl 0 usa el TTL por defecto del backend.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config configuración para crear un cache.
type Config struct {
	Driver     string // "memory" | "redis"
	Addr       string // host:port (redis)
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
}

// New crea el cache según Driver.
func New(cfg Config) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemory(cfg.Prefix, cfg.DefaultTTL), nil
	case "redis":
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("cache: driver desconocido %q", cfg.Driver)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
