package store // import "github.com/Andres337939/libros-front/internal/store"

import (
	"database/sql"
	"sync"
)

type Store struct {
	db        *sql.DB    // db is the client database
	dbLock    sync.Mutex // dbLock serialises writes to db
	ItemCache sync.Map   // map[string]string
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

func (s *Store) Close() error {
	s.ItemCache.Range(func(key, _ any) bool {
		s.ItemCache.Delete(key)
		return true
	})
	return s.db.Close()
}
