package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/util"
)

// hold blocks a gateway call until release is closed.
type hold struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newHold() *hold {
	return &hold{entered: make(chan struct{}), release: make(chan struct{})}
}

func (h *hold) wait() {
	h.once.Do(func() { close(h.entered) })
	<-h.release
}

func TestDeleteRollbackAfterEarlierDeleteKeepsOrder(t *testing.T) {
	h := newHold()
	gw := &fakeGateway{del: func(id string) error {
		if id == "C" {
			h.wait()
			return serverError()
		}
		return nil
	}}
	s := newLoaded(t, gw)

	done := make(chan error, 1)
	go func() { done <- s.Delete(context.Background(), admin, "C") }()
	<-h.entered

	require.NoError(t, s.Delete(context.Background(), admin, "A"))
	assert.Equal(t, []string{"B", "D", "E"}, s.Snapshot().Page.BookIDs)

	close(h.release)
	require.Error(t, <-done)

	v := s.Snapshot()
	assert.Equal(t, []string{"B", "C", "D", "E"}, v.Page.BookIDs)
	assert.Equal(t, 11, v.Stats.Total)
	assert.Empty(t, v.Pending)
}

func TestDeleteRollbackOfLastBookAfterNeighbourDeleted(t *testing.T) {
	h := newHold()
	gw := &fakeGateway{del: func(id string) error {
		if id == "D" {
			h.wait()
			return serverError()
		}
		return nil
	}}
	s := newLoaded(t, gw)

	done := make(chan error, 1)
	go func() { done <- s.Delete(context.Background(), admin, "D") }()
	<-h.entered

	require.NoError(t, s.Delete(context.Background(), admin, "E"))
	require.NoError(t, s.Delete(context.Background(), admin, "A"))

	close(h.release)
	require.Error(t, <-done)
	assert.Equal(t, []string{"B", "C", "D"}, s.Snapshot().Page.BookIDs)
}

func TestReserveFailureAfterRefreshKeepsServerPage(t *testing.T) {
	h := newHold()
	gw := &fakeGateway{}
	gw.reserve = func(string, string) (*model.Book, error) {
		h.wait()
		return nil, serverError()
	}
	s := newLoaded(t, gw)

	done := make(chan error, 1)
	go func() {
		_, err := s.Reserve(context.Background(), member, "A")
		done <- err
	}()
	<-h.entered

	// another client borrowed A meanwhile
	fresh := newPage()
	fresh.Books[0].Status = model.StatusBorrowed
	fresh.Total = 20
	gw.page = fresh
	require.NoError(t, s.Refresh(context.Background()))

	close(h.release)
	require.Error(t, <-done)

	a, ok := s.Book("A")
	require.True(t, ok)
	assert.Equal(t, model.StatusBorrowed, a.Status)
	assert.Nil(t, a.ReservingUserID)
	v := s.Snapshot()
	assert.Equal(t, 20, v.Stats.Total)
	assert.Empty(t, v.Pending)
	assert.Len(t, v.Notices, 1)
	assertInvariant(t, s)
}

func TestDeleteFailureAfterRefreshDoesNotDuplicate(t *testing.T) {
	h := newHold()
	gw := &fakeGateway{del: func(string) error {
		h.wait()
		return serverError()
	}}
	s := newLoaded(t, gw)

	done := make(chan error, 1)
	go func() { done <- s.Delete(context.Background(), admin, "C") }()
	<-h.entered

	require.NoError(t, s.Refresh(context.Background()))
	close(h.release)
	require.Error(t, <-done)

	v := s.Snapshot()
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, v.Page.BookIDs)
	assert.Equal(t, 12, v.Stats.Total)
}

func TestDeleteSuccessAfterRefreshRemovesBook(t *testing.T) {
	h := newHold()
	gw := &fakeGateway{del: func(string) error {
		h.wait()
		return nil
	}}
	s := newLoaded(t, gw)

	done := make(chan error, 1)
	go func() { done <- s.Delete(context.Background(), admin, "C") }()
	<-h.entered

	// the refresh was served before the server committed the delete
	require.NoError(t, s.Refresh(context.Background()))
	assert.Contains(t, s.Snapshot().Page.BookIDs, "C")

	close(h.release)
	require.NoError(t, <-done)

	v := s.Snapshot()
	assert.Equal(t, []string{"A", "B", "D", "E"}, v.Page.BookIDs)
	assert.Equal(t, 11, v.Stats.Total)
}

func TestCreateAfterRefreshKeepsSingleRecord(t *testing.T) {
	h := newHold()
	gw := &fakeGateway{}
	created := &model.Book{ID: "srv-1", Title: "Dune", Author: "Herbert", Pages: 412, Status: model.StatusAvailable, Rating: model.DefaultRating}
	gw.create = func(*model.BookPayload) (*model.Book, error) {
		h.wait()
		return created.Clone(), nil
	}
	s := newLoaded(t, gw)

	done := make(chan error, 1)
	go func() {
		_, err := s.Create(context.Background(), admin, &model.BookPayload{Title: "Dune", Author: "Herbert", Pages: 412})
		done <- err
	}()
	<-h.entered

	// the server stored the book before answering the page request
	fresh := newPage()
	fresh.Books = append(fresh.Books, created.Clone())
	fresh.Total = 13
	gw.page = fresh
	require.NoError(t, s.Refresh(context.Background()))

	close(h.release)
	require.NoError(t, <-done)

	v := s.Snapshot()
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "srv-1"}, v.Page.BookIDs)
	for _, b := range v.Books {
		assert.False(t, util.IsTempID(b.ID))
	}
	assert.Equal(t, 13, v.Stats.Total)
	assert.Empty(t, v.Pending)
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	for name, outcome := range map[string]error{
		"success": nil,
		"failure": &model.Error{Kind: model.KindNetwork, Message: "network error: connection reset"},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHold()
			gw := &fakeGateway{}
			s := newLoaded(t, gw)
			gw.list = func(q model.BookQuery) (*model.BookPage, error) {
				p := newPage()
				p.Page = q.Page
				if q.Page == 1 {
					h.wait()
					p.Books = p.Books[:1]
					return p, outcome
				}
				p.Books = p.Books[3:]
				return p, nil
			}

			done := make(chan error, 1)
			go func() { done <- s.LoadPage(context.Background(), 1, model.BookQuery{}) }()
			<-h.entered

			require.NoError(t, s.LoadPage(context.Background(), 2, model.BookQuery{}))
			close(h.release)
			require.NoError(t, <-done)

			v := s.Snapshot()
			assert.Equal(t, 2, v.Page.PageNumber)
			assert.Equal(t, []string{"D", "E"}, v.Page.BookIDs)
			assert.Empty(t, v.Notices)
		})
	}
}
