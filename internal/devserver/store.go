package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/util"
)

const wireRoleUser = "user"

type userRecord struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// bookRecord is a book in the shape the API serves it.
type bookRecord struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Description string     `json:"description,omitempty"`
	Genre       string     `json:"genre,omitempty"`
	Year        int        `json:"year,omitempty"`
	Pages       int        `json:"pages,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	Image       string     `json:"image,omitempty"`
	Status      string     `json:"status"`
	UserID      *string    `json:"id_usuario"`
	ReservedAt  *time.Time `json:"reservedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (b *bookRecord) clone() *bookRecord {
	c := *b
	if b.UserID != nil {
		v := *b.UserID
		c.UserID = &v
	}
	if b.ReservedAt != nil {
		v := *b.ReservedAt
		c.ReservedAt = &v
	}
	if b.Rating != nil {
		v := *b.Rating
		c.Rating = &v
	}
	return &c
}

type listQuery struct {
	Page   int
	Limit  int
	Author string
	Status string
	Sort   string
}

type listResult struct {
	Data  []*bookRecord `json:"data"`
	Page  int           `json:"page"`
	Total int           `json:"total"`
	Pages int           `json:"pages"`
}

// memStore keeps users and books in memory.
type memStore struct {
	mu        sync.RWMutex
	users     map[string]*userRecord // by username
	books     map[string]*bookRecord
	UserCache sync.Map // map[string]*userRecord by id
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*userRecord),
		books: make(map[string]*bookRecord),
	}
}

// newObjectID returns a 24 character hex id.
func newObjectID() string {
	return strings.ReplaceAll(util.GenUUID(), "-", "")[:24]
}

func (s *memStore) CreateUser(u *userRecord) (*userRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Username)
	if _, exists := s.users[key]; exists {
		return nil, false
	}
	if u.ID == "" {
		u.ID = newObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[key] = u
	s.UserCache.Store(u.ID, u)
	return u, true
}

func (s *memStore) GetUserByName(username string) *userRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[strings.ToLower(username)]
}

func (s *memStore) GetUserByID(id string) *userRecord {
	if v, ok := s.UserCache.Load(id); ok {
		return v.(*userRecord)
	}
	return nil
}

func (s *memStore) AddBook(b *bookRecord) *bookRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if b.ID == "" {
		b.ID = newObjectID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = b.CreatedAt
	if b.Status == "" {
		b.Status = model.WireStatusAvailable
	}
	s.books[b.ID] = b
	return b.clone()
}

func (s *memStore) GetBook(id string) *bookRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.books[id]; ok {
		return b.clone()
	}
	return nil
}

// UpdateBook applies fn to the stored book under the write lock. fn returns
// an error to abort without changes.
func (s *memStore) UpdateBook(id string, fn func(b *bookRecord) error) (*bookRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.books[id]
	if !ok {
		return nil, nil
	}
	next := cur.clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	s.books[id] = next
	return next.clone(), nil
}

func (s *memStore) DeleteBook(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return false
	}
	delete(s.books, id)
	return true
}

func (s *memStore) ListBooks(q listQuery) *listResult {
	s.mu.RLock()
	matched := make([]*bookRecord, 0, len(s.books))
	for _, b := range s.books {
		if q.Author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(q.Author)) {
			continue
		}
		if q.Status != "" && b.Status != q.Status {
			continue
		}
		matched = append(matched, b.clone())
	}
	s.mu.RUnlock()

	sortBooks(matched, q.Sort)

	total := len(matched)
	pages := (total + q.Limit - 1) / q.Limit
	if pages < 1 {
		pages = 1
	}
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return &listResult{Data: matched[start:end], Page: q.Page, Total: total, Pages: pages}
}

// sortBooks orders by field, descending when it starts with "-". The id
// breaks ties so pages are stable.
func sortBooks(books []*bookRecord, field string) {
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")
	less := func(a, b *bookRecord) int {
		switch field {
		case "title":
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case "author":
			return strings.Compare(strings.ToLower(a.Author), strings.ToLower(b.Author))
		case "year":
			return a.Year - b.Year
		case "updatedAt":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(books, func(i, j int) bool {
		c := less(books[i], books[j])
		if c == 0 {
			return books[i].ID < books[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}
