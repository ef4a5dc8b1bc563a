package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	apperrors "teambridge/internal/errors"
	"teambridge/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS dispatched_actions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	player_name TEXT NOT NULL,
	streamer TEXT NOT NULL,
	action TEXT NOT NULL,
	outcome TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dispatched_actions_created_at
	ON dispatched_actions(created_at);
`

// Database records every dispatched action for the admin history surface.
// Player names may be encrypted at rest, see encryption.go.
type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	enc, err := newEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: enc}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// RecordDispatch appends one dispatch outcome to the history table.
func (d *Database) RecordDispatch(ctx context.Context, record models.HistoryRecord) error {
	encryptedName, err := d.encryptor.Encrypt(record.PlayerName)
	if err != nil {
		return fmt.Errorf("failed to encrypt player name: %w", err)
	}

	query := `
		INSERT INTO dispatched_actions (player_name, streamer, action, outcome, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = d.db.ExecContext(ctx, query,
		encryptedName,
		record.Streamer,
		string(record.Action),
		record.Outcome,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeHistory, "failed to record dispatch")
	}

	return nil
}

// ListRecent returns the latest dispatch records, newest first.
func (d *Database) ListRecent(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, player_name, streamer, action, outcome, created_at
		FROM dispatched_actions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeHistory, "failed to query dispatch history")
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []models.HistoryRecord
	for rows.Next() {
		var (
			record models.HistoryRecord
			action string
		)
		if err := rows.Scan(&record.ID, &record.PlayerName, &record.Streamer, &action, &record.Outcome, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch record: %w", err)
		}

		name, err := d.encryptor.Decrypt(record.PlayerName)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt player name: %w", err)
		}
		record.PlayerName = name
		record.Action = models.ActionType(action)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dispatch history: %w", err)
	}

	return records, nil
}
