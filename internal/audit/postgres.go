package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/dropDatabas3/socialgrant/migrations/postgres"
)

// Pool es lo mínimo que el sink necesita de la base.
// *pgxpool.Pool lo satisface, y también pgxmock en tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ Pool = (*pgxpool.Pool)(nil)

const insertEventSQL = `INSERT INTO social_grant_audit
	(at, request_id, client_id, grant_type, provider_type, subject_id, outcome, error_kind, error, params)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresSink guarda eventos en social_grant_audit.
type PostgresSink struct {
	pool    Pool
	timeout time.Duration
}

// NewPostgresSink envuelve un pool existente.
func NewPostgresSink(pool Pool) *PostgresSink {
	return &PostgresSink{pool: pool, timeout: 3 * time.Second}
}

// OpenPostgres crea el pool con dsn y verifica la conexión.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("audit: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	return pool, nil
}

// Migrate aplica las migraciones embebidas en orden léxico. Son idempotentes.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations.AuditFS, migrations.AuditDir+"/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := fs.ReadFile(migrations.AuditFS, f)
		if err != nil {
			return fmt.Errorf("audit: read %s: %w", f, err)
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("audit: apply %s: %w", f, err)
		}
	}
	return nil
}

func (s *PostgresSink) Record(ctx context.Context, ev Event) error {
	params := ev.Parameters
	if params == nil {
		params = map[string]string{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("audit: encode params: %w", err)
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.pool.Exec(ctx, insertEventSQL,
		at, ev.RequestID, ev.ClientID, ev.GrantType, ev.ProviderType,
		ev.SubjectID, ev.Outcome, ev.ErrorKind, ev.Error, raw,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}
