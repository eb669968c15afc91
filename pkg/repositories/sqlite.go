package repositories

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and applies the embedded
// migrations. Use ":memory:" for a throwaway database.
func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	statements, err := readMigrations("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for i, migration := range statements {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %v", i+1, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SavePlayerSnapshot(ctx context.Context, playerID string, snapshot string, timestamp int64) error {
	q := `
	INSERT OR REPLACE INTO player_snapshots (player_id, snapshot, timestamp)
	VALUES (?, ?, ?);
	`
	if _, err := r.db.ExecContext(ctx, q, playerID, snapshot, timestamp); err != nil {
		return fmt.Errorf("failed to insert player snapshot: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadPlayerSnapshot(ctx context.Context, playerID string) (*PlayerSnapshot, error) {
	q := `
	SELECT snapshot, timestamp FROM player_snapshots WHERE player_id = ?;
	`
	s := &PlayerSnapshot{PlayerID: playerID}
	if err := r.db.QueryRowContext(ctx, q, playerID).Scan(&s.Snapshot, &s.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan player snapshot: %v", err)
	}
	return s, nil
}
