package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/cbodonnell/tether/pkg/log"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository connects to connStr and applies the embedded migrations.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	var username string
	var database string
	if err := conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to query database: %v", err)
	}
	log.Info("Connected to %s as %s", database, username)

	statements, err := readMigrations("postgres")
	if err != nil {
		conn.Close(ctx)
		return nil, err
	}
	for i, migration := range statements {
		if _, err := conn.Exec(ctx, migration); err != nil {
			conn.Close(ctx)
			return nil, fmt.Errorf("failed to execute migration %d: %v", i+1, err)
		}
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SavePlayerSnapshot(ctx context.Context, playerID string, snapshot string, timestamp int64) error {
	q := `
	INSERT INTO player_snapshots (player_id, snapshot, created_at, updated_at) VALUES ($1, $2, $3, $3)
	ON CONFLICT (player_id) DO UPDATE SET snapshot = $2, updated_at = $3;
	`
	if _, err := r.conn.Exec(ctx, q, playerID, snapshot, timestamp); err != nil {
		return fmt.Errorf("failed to insert player snapshot: %v", err)
	}
	return nil
}

func (r *PostgresRepository) LoadPlayerSnapshot(ctx context.Context, playerID string) (*PlayerSnapshot, error) {
	q := `
	SELECT snapshot::text, updated_at FROM player_snapshots WHERE player_id = $1;
	`
	s := &PlayerSnapshot{PlayerID: playerID}
	if err := r.conn.QueryRow(ctx, q, playerID).Scan(&s.Snapshot, &s.Timestamp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan player snapshot: %v", err)
	}
	return s, nil
}
