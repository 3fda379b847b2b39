package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSink_Record(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec("INSERT INTO social_grant_audit").
		WithArgs(at, "req-1", "web", "social", "google", "u123", "authenticated", "", "",
			[]byte(`{"scope":"profile","type":"google"}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewPostgresSink(mock).Record(context.Background(), Event{
		At:           at,
		RequestID:    "req-1",
		ClientID:     "web",
		GrantType:    "social",
		ProviderType: "google",
		SubjectID:    "u123",
		Outcome:      "authenticated",
		Parameters:   map[string]string{"type": "google", "scope": "profile"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_RecordNilParams(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO social_grant_audit").
		WithArgs(pgxmock.AnyArg(), "", "", "social", "", "", "bad_request", "missing_provider_type",
			"missing_provider_type: parameter 'type' is required", []byte(`{}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewPostgresSink(mock).Record(context.Background(), Event{
		GrantType: "social",
		Outcome:   "bad_request",
		ErrorKind: "missing_provider_type",
		Error:     "missing_provider_type: parameter 'type' is required",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_RecordError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO social_grant_audit").WillReturnError(errors.New("connection reset"))

	err = NewPostgresSink(mock).Record(context.Background(), Event{GrantType: "social", Outcome: "rejected"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresSink_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS social_grant_audit").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, NewPostgresSink(mock).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
