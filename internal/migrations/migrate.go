package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/pressly/goose/v3"
)

const sqliteDialect = "sqlite3"

//go:embed *.sql
var migrationFS embed.FS

// Up runs all pending SQL migrations embedded in the binary.
func Up(db *sql.DB) error {
	if err := configure(); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// Version reports the current schema version.
func Version(db *sql.DB) (int64, error) {
	if err := configure(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("read goose version: %w", err)
	}
	return v, nil
}

func configure() error {
	goose.SetBaseFS(migrationFS)
	goose.SetLogger(slogLogger{})
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// slogLogger routes goose output through the default slog logger.
type slogLogger struct{}

func (slogLogger) Printf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "migrations")
}

func (slogLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...), "component", "migrations")
	os.Exit(1)
}
