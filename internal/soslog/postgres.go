package soslog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const insertEntrySQL = `INSERT INTO sos_push_logs
	(id, sos_id, sender_uid, contact_uids, token_users, success_count, failure_count, responses)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresStore writes entries to the sos_push_logs table. created_at is
// filled in by the database.
type PostgresStore struct {
	db execer
}

// NewPostgresStore creates a new Postgres-backed audit store.
func NewPostgresStore(db execer) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts entry and returns its generated ID.
func (s *PostgresStore) Append(ctx context.Context, entry *Entry) (string, error) {
	id := uuid.New().String()

	args, err := insertArgs(id, entry)
	if err != nil {
		return "", err
	}

	if _, err := s.db.ExecContext(ctx, insertEntrySQL, args...); err != nil {
		return "", fmt.Errorf("failed to insert %s row: %w", CollectionName, err)
	}
	return id, nil
}

func insertArgs(id string, entry *Entry) ([]any, error) {
	responses := entry.Responses
	if responses == nil {
		responses = []ResponseEntry{}
	}
	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal responses: %w", err)
	}

	var sosID sql.NullString
	if entry.SosID != nil {
		sosID = sql.NullString{String: *entry.SosID, Valid: true}
	}

	return []any{
		id,
		sosID,
		entry.SenderUID,
		pq.Array(entry.ContactUIDs),
		pq.Array(entry.TokenUsers),
		entry.SuccessCount,
		entry.FailureCount,
		string(responsesJSON),
	}, nil
}
