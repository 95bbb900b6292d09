package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrationFiles embed.FS

// Direction selects the goose command run by Migrate.
type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Status Direction = "status"
)

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB, dialect string) error {
	return Migrate(ctx, database, dialect, Up)
}

// Migrate runs one goose command against the migrations for dialect.
func Migrate(ctx context.Context, database *sql.DB, dialect string, dir Direction) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	folder := path.Join("migrations", migrationFolder(dialect))
	switch dir {
	case Up, "":
		return goose.UpContext(ctx, database, folder)
	case Down:
		return goose.DownContext(ctx, database, folder)
	case Status:
		return goose.StatusContext(ctx, database, folder)
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
}

func migrationFolder(dialect string) string {
	if dialect == DialectSQLite {
		return "sqlite"
	}
	return "postgres"
}
