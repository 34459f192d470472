package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/Andres337939/libros-front/internal/log"
	"github.com/Andres337939/libros-front/internal/model"
)

// LoadPage replaces the loaded page with page number page of the listing
// described by q. Limit and Sort default to the synchronizer settings. On
// failure the previous page stays loaded.
func (s *Synchronizer) LoadPage(ctx context.Context, page int, q model.BookQuery) error {
	if page < 1 {
		page = 1
	}
	if q.Limit < 1 {
		q.Limit = s.pageSize
	}
	if q.Sort == "" {
		q.Sort = s.sort
	}
	q.Page = page

	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	res, err := s.gateway.ListBooks(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loadSeq {
		// a newer load was started while this one was in flight
		log.Debug("Discarded superseded page load", zap.Int("page", page), zap.Error(err))
		return nil
	}
	if err != nil {
		s.notify(model.KindOf(err), "load", "", err)
		log.Warn("Failed to load page", zap.Int("page", page), zap.Error(err))
		return err
	}

	s.query = q
	s.books = make([]*model.Book, 0, len(res.Books))
	for _, b := range res.Books {
		if b == nil {
			continue
		}
		s.books = append(s.books, b.Clone())
	}
	s.page = res.Page
	if s.page < 1 {
		s.page = page
	}
	s.total = res.Total
	s.pages = res.Pages
	if s.pages < 1 {
		s.pages = 1
	}
	s.pageSize = q.Limit
	s.loaded = true
	s.generation++
	log.Debug("Loaded page",
		zap.Int("page", s.page),
		zap.Int("pages", s.pages),
		zap.Int("books", len(s.books)),
		zap.Int("total", s.total),
	)
	return nil
}

// NextPage loads the following page. It is a no-op on the last page.
func (s *Synchronizer) NextPage(ctx context.Context) error {
	s.mu.Lock()
	page, pages, q := s.page, s.pages, s.query
	s.mu.Unlock()
	if page >= pages {
		return nil
	}
	return s.LoadPage(ctx, page+1, q)
}

// PrevPage loads the previous page. It is a no-op on the first page.
func (s *Synchronizer) PrevPage(ctx context.Context) error {
	s.mu.Lock()
	page, q := s.page, s.query
	s.mu.Unlock()
	if page <= 1 {
		return nil
	}
	return s.LoadPage(ctx, page-1, q)
}

// Refresh reloads the current page with the current query.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	page, q := s.page, s.query
	s.mu.Unlock()
	return s.LoadPage(ctx, page, q)
}

// LoadBook fetches a single book. When the book is on the loaded page and
// not pending, the local copy is replaced by the fetched one.
func (s *Synchronizer) LoadBook(ctx context.Context, id string) (*model.Book, error) {
	b, err := s.gateway.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.pending[id]; !busy {
		if i, _ := s.find(id); i >= 0 {
			s.books[i] = b.Clone()
		}
	}
	return b, nil
}

// Query returns the server-side query of the loaded page.
func (s *Synchronizer) Query() model.BookQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Synchronizer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}
