package catalog

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Andres337939/libros-front/internal/model"
)

var serverTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeGateway serves a fixed page and answers mutations like a well-behaved
// server unless a hook overrides them.
type fakeGateway struct {
	mu    sync.Mutex
	page  *model.BookPage
	calls []string

	listErr error
	list    func(q model.BookQuery) (*model.BookPage, error)
	reserve func(id, userID string) (*model.Book, error)
	ret     func(id string) (*model.Book, error)
	create  func(p *model.BookPayload) (*model.Book, error)
	update  func(id string, p *model.BookPayload) (*model.Book, error)
	del     func(id string) error
	get     func(id string) (*model.Book, error)
}

func (f *fakeGateway) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGateway) ListBooks(_ context.Context, q model.BookQuery) (*model.BookPage, error) {
	f.record("list")
	if f.list != nil {
		return f.list(q)
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := &model.BookPage{Page: q.Page, Total: f.page.Total, Pages: f.page.Pages}
	for _, b := range f.page.Books {
		out.Books = append(out.Books, b.Clone())
	}
	return out, nil
}

func (f *fakeGateway) GetBook(_ context.Context, id string) (*model.Book, error) {
	f.record("get " + id)
	if f.get != nil {
		return f.get(id)
	}
	for _, b := range f.page.Books {
		if b.ID == id {
			return b.Clone(), nil
		}
	}
	return nil, &model.Error{Kind: model.KindServer, Status: http.StatusNotFound, Message: "Libro no encontrado"}
}

func (f *fakeGateway) CreateBook(_ context.Context, p *model.BookPayload, _ string) (*model.Book, error) {
	f.record("create")
	if f.create != nil {
		return f.create(p)
	}
	b := &model.Book{ID: "srv-new", Status: model.StatusAvailable, Rating: model.DefaultRating}
	p.Merge(b)
	return b, nil
}

func (f *fakeGateway) UpdateBook(_ context.Context, id string, p *model.BookPayload, _ string) (*model.Book, error) {
	f.record("update " + id)
	if f.update != nil {
		return f.update(id, p)
	}
	b := &model.Book{ID: id, Status: model.StatusAvailable}
	p.Merge(b)
	return b, nil
}

func (f *fakeGateway) DeleteBook(_ context.Context, id string, _ string) error {
	f.record("delete " + id)
	if f.del != nil {
		return f.del(id)
	}
	return nil
}

func (f *fakeGateway) ReserveBook(_ context.Context, id, _ string, userID string) (*model.Book, error) {
	f.record("reserve " + id)
	if f.reserve != nil {
		return f.reserve(id, userID)
	}
	t := serverTime
	return &model.Book{ID: id, Title: "T" + id, Status: model.StatusReserved, ReservingUserID: model.StringPtr(userID), ReservedAt: &t, UpdatedAt: &t}, nil
}

func (f *fakeGateway) ReturnBook(_ context.Context, id, _ string) (*model.Book, error) {
	f.record("return " + id)
	if f.ret != nil {
		return f.ret(id)
	}
	t := serverTime
	return &model.Book{ID: id, Title: "T" + id, Status: model.StatusAvailable, UpdatedAt: &t}, nil
}

func serverError() error {
	return &model.Error{Kind: model.KindServer, Status: http.StatusInternalServerError, Message: "Error 500: Internal Server Error"}
}
