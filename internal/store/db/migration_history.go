package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/Andres337939/libros-front/internal/log"
)

// compareVersions orders two schema versions written without the "v" prefix.
func compareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}

// CurrentVersion returns the newest schema version recorded in
// migration_history, or "" for a fresh database. Rows that are not valid
// semantic versions are skipped.
func (d *DB) CurrentVersion(ctx context.Context) (string, error) {
	exists, err := d.TableExists(ctx, "migration_history")
	if err != nil || !exists {
		return "", err
	}

	rows, err := d.QueryContext(ctx, "SELECT version FROM migration_history")
	if err != nil {
		return "", errors.Wrap(err, "failed to list migration history")
	}
	defer rows.Close()

	current := ""
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return "", errors.Wrap(err, "failed to scan migration history")
		}
		if !semver.IsValid("v" + version) {
			log.Warn("Ignoring invalid schema version", zap.String("version", version))
			continue
		}
		if current == "" || compareVersions(version, current) > 0 {
			current = version
		}
	}
	return current, rows.Err()
}

// RecordVersion marks version as applied.
func (d *DB) RecordVersion(ctx context.Context, version string) error {
	if !semver.IsValid("v" + version) {
		return errors.Errorf("invalid schema version %q", version)
	}
	stmt := `
		INSERT INTO migration_history (version) VALUES (?)
		ON CONFLICT(version) DO UPDATE SET version = EXCLUDED.version
	`
	if _, err := d.ExecContext(ctx, stmt, version); err != nil {
		return errors.Wrapf(err, "failed to record schema version %s", version)
	}
	return nil
}

func (d *DB) TableExists(ctx context.Context, tableName string) (bool, error) {
	var name string
	err := d.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", tableName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to look up table %s", tableName)
	}
	return true, nil
}
