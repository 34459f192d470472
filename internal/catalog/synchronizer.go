// Package catalog keeps the loaded page of books in sync with the server.
//
// Every mutation is applied to the local page first and then confirmed by
// the server. A confirmed change is reconciled with the server record, a
// failed one is rolled back to the snapshot taken before it. A book with a
// mutation in flight is pending and rejects further mutations until the
// first one resolves. Mutations on different books run independently.
package catalog // import "github.com/Andres337939/libros-front/internal/catalog"

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Andres337939/libros-front/internal/model"
)

const (
	DefaultPageSize = 10
	DefaultSort     = "createdAt"
)

// Gateway is the part of the API client the synchronizer needs.
type Gateway interface {
	ListBooks(ctx context.Context, q model.BookQuery) (*model.BookPage, error)
	GetBook(ctx context.Context, id string) (*model.Book, error)
	CreateBook(ctx context.Context, payload *model.BookPayload, token string) (*model.Book, error)
	UpdateBook(ctx context.Context, id string, payload *model.BookPayload, token string) (*model.Book, error)
	DeleteBook(ctx context.Context, id string, token string) error
	ReserveBook(ctx context.Context, id, token, userID string) (*model.Book, error)
	ReturnBook(ctx context.Context, id, token string) (*model.Book, error)
}

type Option func(*Synchronizer)

func WithPageSize(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithSort(field string) Option {
	return func(s *Synchronizer) {
		if field != "" {
			s.sort = field
		}
	}
}

// WithAuthFailureHook is called after a mutation failed with an auth error
// and was rolled back.
func WithAuthFailureHook(fn func(error)) Option {
	return func(s *Synchronizer) {
		s.onAuthFailure = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

type Synchronizer struct {
	gateway       Gateway
	pageSize      int
	sort          string
	onAuthFailure func(error)
	now           func() time.Time

	mu     sync.Mutex
	loaded bool
	// generation changes whenever the page is replaced by a load.
	generation uint64
	loadSeq    uint64
	query      model.BookQuery
	books      []*model.Book
	page       int
	total      int
	pages      int
	filter     model.Filter
	// pending maps a book id to the operation in flight for it.
	pending    map[string]string
	notices    []model.Notice
	nextNotice int
}

func NewSynchronizer(gateway Gateway, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		gateway:  gateway,
		pageSize: DefaultPageSize,
		sort:     DefaultSort,
		now:      time.Now,
		page:     1,
		pages:    1,
		pending:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View is a read-only snapshot for rendering.
type View struct {
	// Books passing the active filter, in page order.
	Books   []*model.Book  `json:"books" yaml:"books"`
	Page    model.PageView `json:"page" yaml:"page"`
	Pending []string       `json:"pending,omitempty" yaml:"pending,omitempty"`
	Notices []model.Notice `json:"notices,omitempty" yaml:"notices,omitempty"`
	Stats   model.Stats    `json:"stats" yaml:"stats"`
}

func (s *Synchronizer) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Books:   make([]*model.Book, 0, len(s.books)),
		Notices: append([]model.Notice(nil), s.notices...),
	}
	ids := make([]string, 0, len(s.books))
	var ratingSum float64
	for _, b := range s.books {
		if b.IsAvailable() {
			v.Stats.Available++
		}
		ratingSum += b.Rating
		if s.filter.Match(b) {
			v.Books = append(v.Books, b.Clone())
			ids = append(ids, b.ID)
		}
	}
	for id := range s.pending {
		v.Pending = append(v.Pending, id)
	}
	sort.Strings(v.Pending)

	v.Page = model.PageView{
		BookIDs:      ids,
		PageNumber:   s.page,
		PageSize:     s.pageSize,
		TotalCount:   s.total,
		TotalPages:   s.pages,
		ActiveFilter: s.filter,
	}
	v.Stats.Total = s.total
	v.Stats.Displayed = len(v.Books)
	if len(s.books) > 0 {
		v.Stats.AverageRating = ratingSum / float64(len(s.books))
	}
	return v
}

// Book returns a copy of the loaded book with id.
func (s *Synchronizer) Book(id string) (*model.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, b := s.find(id); b != nil {
		return b.Clone(), true
	}
	return nil, false
}

func (s *Synchronizer) IsPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// ApplyFilter narrows the displayed books of the loaded page. It never
// reaches the server.
func (s *Synchronizer) ApplyFilter(f model.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

func (s *Synchronizer) Filter() model.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// find returns the index and record for id. Callers hold mu.
func (s *Synchronizer) find(id string) (int, *model.Book) {
	for i, b := range s.books {
		if b.ID == id {
			return i, b
		}
	}
	return -1, nil
}
