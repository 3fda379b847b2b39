package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field es zap.Field; los helpers de abajo construyen los campos comunes.
type Field = zap.Field

// ─── HTTP ───

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }

// ─── Grant social ───

// ClientID es el client OAuth que pide el grant.
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

// Provider es el tipo de provider pedido ("google", "facebook", ...).
func Provider(v string) zap.Field { return zap.String("provider", v) }

// Subject es el id del usuario dentro del provider. No es secreto, pero es PII:
// solo en debug o en audit.
func Subject(v string) zap.Field { return zap.String("subject", v) }

// Outcome: authenticated | rejected | unavailable | bad_request | error.
func Outcome(v string) zap.Field { return zap.String("outcome", v) }

// Attempt es el número de validator aplicable intentado (1-based).
func Attempt(v int) zap.Field { return zap.Int("attempt", v) }

// Hop identifica el paso de un protocolo multi-request ("app_token", "debug_token", ...).
func Hop(v string) zap.Field { return zap.String("hop", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

// ─── Genéricos ───

func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
