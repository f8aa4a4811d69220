package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

// FS carries the SQL migrations compiled into the binary.
//
//go:embed migrations/*.sql
var FS embed.FS

// Migrator applies goose migrations from one source against one database.
// It never closes the database it was given.
type Migrator struct {
	provider *goose.Provider
}

// NewMigrator builds a Postgres migrator. An empty dir selects the embedded
// migrations.
func NewMigrator(db *sql.DB, dir string) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	fsys, err := source(dir)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(database.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: provider}, nil
}

func source(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(FS, embeddedDir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("migrations dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations dir %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) ([]*goose.MigrationResult, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("goose up: %w", err)
	}
	return results, nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) (*goose.MigrationResult, error) {
	result, err := m.provider.Down(ctx)
	if err != nil {
		return result, fmt.Errorf("goose down: %w", err)
	}
	return result, nil
}

func (m *Migrator) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	return m.provider.Status(ctx)
}

func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

// MigrateTo moves the schema up or down to target, a YYYYMMDDHHMMSS version.
func (m *Migrator) MigrateTo(ctx context.Context, target string) ([]*goose.MigrationResult, error) {
	version, err := ParseVersion(target)
	if err != nil {
		return nil, err
	}
	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current == version:
		return nil, nil
	case current < version:
		results, err := m.provider.UpTo(ctx, version)
		if err != nil {
			return results, fmt.Errorf("goose up-to %d: %w", version, err)
		}
		return results, nil
	default:
		results, err := m.provider.DownTo(ctx, version)
		if err != nil {
			return results, fmt.Errorf("goose down-to %d: %w", version, err)
		}
		return results, nil
	}
}

// ParseVersion accepts the numeric prefix of a migration filename.
func ParseVersion(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("version is required")
	}
	if _, err := time.Parse(versionLayout, raw); err != nil || len(raw) != len(versionLayout) {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", raw)
	}
	return strconv.ParseInt(raw, 10, 64)
}
