package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// GetItem returns the value stored under key. The boolean is false when the
// key is absent.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	if v, ok := s.ItemCache.Load(key); ok {
		return v.(string), true, nil
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM client_storage WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to get item %q", key)
	}

	s.ItemCache.Store(key, value)
	return value, true, nil
}

// SetItems writes all items in one transaction. Either every key is
// updated or none is.
func (s *Store) SetItems(ctx context.Context, items map[string]string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt := `
		INSERT INTO client_storage (
			key, value, updated_ts
		)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE
		SET
			value = EXCLUDED.value,
			updated_ts = EXCLUDED.updated_ts
	`
	now := time.Now().Unix()
	for key, value := range items {
		if _, err := tx.ExecContext(ctx, stmt, key, value, now); err != nil {
			return errors.Wrapf(err, "failed to set item %q", key)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit items")
	}

	for key, value := range items {
		s.ItemCache.Store(key, value)
	}
	return nil
}

// RemoveItems deletes keys in one transaction. Missing keys are ignored.
func (s *Store) RemoveItems(ctx context.Context, keys ...string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM client_storage WHERE key = ?", key); err != nil {
			return errors.Wrapf(err, "failed to remove item %q", key)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit removal")
	}

	for _, key := range keys {
		s.ItemCache.Delete(key)
	}
	return nil
}
