// Package audit registra cada intento de grant social.
//
// Los eventos se construyen con parámetros ya saneados: el token crudo nunca llega acá.
// Backends:
//   - LogSink: zap (default)
//   - PostgresSink: tabla social_grant_audit (ver migrations/postgres)
package audit

import (
	"context"
	"errors"
	"time"
)

// Event es un intento de grant.
type Event struct {
	At           time.Time
	RequestID    string
	ClientID     string
	GrantType    string
	ProviderType string
	SubjectID    string
	Outcome      string
	ErrorKind    string
	Error        string
	Parameters   map[string]string
}

// Sink persiste eventos de audit.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// Multi envía el evento a todos los sinks; devuelve los errores combinados.
type Multi []Sink

func (m Multi) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop descarta los eventos.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }
