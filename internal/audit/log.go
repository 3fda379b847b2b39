package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
)

// LogSink escribe los eventos como líneas estructuradas.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink crea el sink; si l es nil usa el logger del contexto en cada Record.
func NewLogSink(l *zap.Logger) *LogSink {
	return &LogSink{log: l}
}

func (s *LogSink) Record(ctx context.Context, ev Event) error {
	l := s.log
	if l == nil {
		l = logger.From(ctx)
	}
	fields := []zap.Field{
		logger.Component("audit"),
		logger.RequestID(ev.RequestID),
		logger.ClientID(ev.ClientID),
		logger.String("grant_type", ev.GrantType),
		logger.Provider(ev.ProviderType),
		logger.Outcome(ev.Outcome),
		zap.Time("at", ev.At),
		zap.Any("params", ev.Parameters),
	}
	if ev.SubjectID != "" {
		fields = append(fields, logger.Subject(ev.SubjectID))
	}
	if ev.ErrorKind != "" {
		fields = append(fields, logger.String("error_kind", ev.ErrorKind), logger.String("error", ev.Error))
	}
	l.Info("social grant", fields...)
	return nil
}
