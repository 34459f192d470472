package catalog

import (
	"github.com/Andres337939/libros-front/internal/model"
)

const maxNotices = 20

// notify queues a dismissible notice. Callers hold mu.
func (s *Synchronizer) notify(kind model.ErrorKind, op, bookID string, err error) {
	s.nextNotice++
	s.notices = append(s.notices, model.Notice{
		ID:        s.nextNotice,
		Kind:      kind,
		Operation: op,
		BookID:    bookID,
		Message:   err.Error(),
		CreatedAt: s.now(),
	})
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

func (s *Synchronizer) Notices() []model.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notice(nil), s.notices...)
}

// Dismiss removes the notice with id. It reports whether it existed.
func (s *Synchronizer) Dismiss(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notices {
		if n.ID == id {
			s.notices = append(s.notices[:i], s.notices[i+1:]...)
			return true
		}
	}
	return false
}
