package repositories

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations
var migrations embed.FS

// Repository persists player snapshots, the JSON documents produced by
// player save and consumed by player load.
type Repository interface {
	Close(ctx context.Context) error
	SavePlayerSnapshot(ctx context.Context, playerID string, snapshot string, timestamp int64) error
	// LoadPlayerSnapshot returns ErrNotFound when nothing was saved for playerID.
	LoadPlayerSnapshot(ctx context.Context, playerID string) (*PlayerSnapshot, error)
}

type PlayerSnapshot struct {
	PlayerID  string `json:"playerId"`
	Snapshot  string `json:"snapshot"`
	Timestamp int64  `json:"timestamp"`
}

// readMigrations returns the embedded migrations for a driver in file name order.
func readMigrations(driver string) ([]string, error) {
	dir := "migrations/" + driver
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	statements := make([]string, 0, len(names))
	for _, name := range names {
		b, err := fs.ReadFile(migrations, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", name, err)
		}
		statements = append(statements, string(b))
	}
	return statements, nil
}
