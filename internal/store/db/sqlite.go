package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Andres337939/libros-front/internal/log"
)

// SchemaVersion is recorded in migration_history once the schema is applied.
const SchemaVersion = "0.1.0"

const latestClientSchemaFileName = "LATEST_CLIENT_SCHEMA.sql"

type DB struct {
	*sql.DB
	path string
}

func NewDB(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("Database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create database folder for %s", path)
	}

	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}
	// sqlite allows a single writer
	d.SetMaxOpenConns(1)

	return &DB{DB: d, path: path}, nil
}

func (d *DB) Close() error {
	return d.DB.Close()
}

//go:embed migration
var migrationFS embed.FS

// Migrate applies the latest schema unless the database already records it.
// A database written by a newer client is refused.
func (d *DB) Migrate(ctx context.Context) error {
	current, err := d.CurrentVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}
	if current != "" {
		switch c := compareVersions(current, SchemaVersion); {
		case c == 0:
			log.Debug("Database schema up to date", zap.String("version", SchemaVersion))
			return nil
		case c > 0:
			return errors.Errorf("database schema %s is newer than supported version %s", current, SchemaVersion)
		}
	}

	if err := d.applyLatestSchema(ctx); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}
	if err := d.RecordVersion(ctx, SchemaVersion); err != nil {
		return err
	}
	log.Debug("Database schema applied",
		zap.String("path", d.path),
		zap.String("from", current),
		zap.String("version", SchemaVersion))
	return nil
}

func (d *DB) applyLatestSchema(ctx context.Context) error {
	// Read latest schema file
	latestSchemaPath := fmt.Sprintf("migration/%s", latestClientSchemaFileName)
	buf, err := migrationFS.ReadFile(latestSchemaPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file: %q", latestSchemaPath)
	}

	stmt := string(buf)
	if err := d.execute(ctx, stmt); err != nil {
		return errors.Wrapf(err, "failed to apply latest schema: %s", stmt)
	}
	return nil
}

// execute runs a single SQL statement within a transaction.
func (d *DB) execute(ctx context.Context, stmt string) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to execute statement")
	}

	return tx.Commit()
}
