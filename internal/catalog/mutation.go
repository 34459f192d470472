package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Andres337939/libros-front/internal/log"
	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/policy"
	"github.com/Andres337939/libros-front/internal/util"
	"github.com/Andres337939/libros-front/internal/validator"
)

const (
	OpReserve = "reserve"
	OpReturn  = "return"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
)

// mutation records what is needed to confirm or undo one optimistic change.
type mutation struct {
	op       string
	id       string
	snapshot *model.Book
	index    int
	// next is the id that followed a deleted book, "" when it was last.
	next       string
	generation uint64
}

// Reserve marks an available book as reserved by the session user.
func (s *Synchronizer) Reserve(ctx context.Context, session model.Session, id string) (*model.Book, error) {
	s.mu.Lock()
	i, b, err := s.acquire(session, id, policy.ActionReserve)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	m := s.track(OpReserve, b, i)
	now := s.now()
	b.Status = model.StatusReserved
	b.ReservingUserID = model.StringPtr(session.UserID)
	b.ReservedAt = &now
	s.mu.Unlock()

	res, err := s.gateway.ReserveBook(ctx, id, session.AuthToken, session.UserID)
	if err != nil {
		return nil, s.rollback(m, err)
	}
	return s.reconcile(m, res), nil
}

// Return releases a reservation held by the session user, or any
// reservation when the session is an administrator.
func (s *Synchronizer) Return(ctx context.Context, session model.Session, id string) (*model.Book, error) {
	s.mu.Lock()
	i, b, err := s.acquire(session, id, policy.ActionReturn)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	m := s.track(OpReturn, b, i)
	b.Status = model.StatusAvailable
	b.ReservingUserID = nil
	b.ReservedAt = nil
	s.mu.Unlock()

	res, err := s.gateway.ReturnBook(ctx, id, session.AuthToken)
	if err != nil {
		return nil, s.rollback(m, err)
	}
	return s.reconcile(m, res), nil
}

// Update merges payload into the book.
func (s *Synchronizer) Update(ctx context.Context, session model.Session, id string, payload *model.BookPayload) (*model.Book, error) {
	s.mu.Lock()
	i, b, err := s.acquire(session, id, policy.ActionEdit)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := validator.ValidateBookPayload(payload); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	m := s.track(OpUpdate, b, i)
	payload.Merge(b)
	s.mu.Unlock()

	res, err := s.gateway.UpdateBook(ctx, id, payload, session.AuthToken)
	if err != nil {
		return nil, s.rollback(m, err)
	}
	return s.reconcile(m, res), nil
}

// Delete removes the book from the page at once and re-inserts it at its
// original position when the server refuses.
func (s *Synchronizer) Delete(ctx context.Context, session model.Session, id string) error {
	s.mu.Lock()
	i, b, err := s.acquire(session, id, policy.ActionDelete)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	m := s.track(OpDelete, b, i)
	if i+1 < len(s.books) {
		m.next = s.books[i+1].ID
	}
	s.books = append(s.books[:i], s.books[i+1:]...)
	s.total--
	s.mu.Unlock()

	if err := s.gateway.DeleteBook(ctx, id, session.AuthToken); err != nil {
		return s.rollback(m, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	if s.generation != m.generation {
		if j, _ := s.find(id); j >= 0 {
			s.books = append(s.books[:j], s.books[j+1:]...)
			s.total--
		}
	}
	log.Debug("Book deleted", zap.String("book_id", id))
	return nil
}

// Create appends a provisional record with a temporary id and swaps it for
// the server record once confirmed.
func (s *Synchronizer) Create(ctx context.Context, session model.Session, payload *model.BookPayload) (*model.Book, error) {
	if !policy.CanCreate(session) {
		if !session.Authenticated {
			return nil, model.NewPolicyError(model.ErrNoSession, "%s requires a signed in user", OpCreate)
		}
		return nil, model.NewPolicyError(nil, "%s requires an administrator", OpCreate)
	}
	if err := validator.ValidateBookPayload(payload); err != nil {
		return nil, err
	}

	provisional := &model.Book{
		ID:          util.GenTempID(),
		Status:      model.StatusAvailable,
		Rating:      model.DefaultRating,
		Provisional: true,
	}
	payload.Merge(provisional)
	now := s.now()
	provisional.CreatedAt = &now

	s.mu.Lock()
	s.books = append(s.books, provisional)
	s.total++
	m := s.track(OpCreate, provisional, len(s.books)-1)
	s.mu.Unlock()

	res, err := s.gateway.CreateBook(ctx, payload, session.AuthToken)
	if err != nil {
		return nil, s.rollback(m, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, m.id)
	created := res.Clone()
	created.Provisional = false
	// a page loaded meanwhile no longer holds the provisional record
	if i, _ := s.find(m.id); i >= 0 {
		s.books[i] = created
	}
	log.Debug("Book created", zap.String("book_id", created.ID), zap.String("temp_id", m.id))
	return created.Clone(), nil
}

// acquire checks that id is loaded, not pending and that session may run
// action on it. Callers hold mu.
func (s *Synchronizer) acquire(session model.Session, id string, action policy.Action) (int, *model.Book, error) {
	i, b := s.find(id)
	if b == nil {
		if _, busy := s.pending[id]; busy {
			return -1, nil, model.NewPolicyError(model.ErrPending, "book %s has an operation in progress", id)
		}
		return -1, nil, model.NewPolicyError(model.ErrNotLoaded, "book %s is not on the current page", id)
	}
	if _, busy := s.pending[id]; busy {
		return -1, nil, model.NewPolicyError(model.ErrPending, "book %s has an operation in progress", id)
	}
	if err := policy.Permits(session, b, action); err != nil {
		return -1, nil, err
	}
	return i, b, nil
}

// track marks the book pending and snapshots it. Callers hold mu.
func (s *Synchronizer) track(op string, b *model.Book, index int) *mutation {
	s.pending[b.ID] = op
	return &mutation{
		op:         op,
		id:         b.ID,
		snapshot:   b.Clone(),
		index:      index,
		generation: s.generation,
	}
}

// reconcile replaces the local record with the server one. A reserved
// server record without a holder or timestamp keeps the local ones.
func (s *Synchronizer) reconcile(m *mutation, server *model.Book) *model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, m.id)

	merged := server.Clone()
	if merged.ID == "" {
		merged.ID = m.id
	}
	i, local := s.find(m.id)
	if local != nil && merged.Status == model.StatusReserved && local.Status == model.StatusReserved {
		if merged.ReservingUserID == nil || *merged.ReservingUserID == "" {
			merged.ReservingUserID = model.StringPtr(derefString(local.ReservingUserID))
		}
		if merged.ReservedAt == nil && local.ReservedAt != nil {
			t := *local.ReservedAt
			merged.ReservedAt = &t
		}
	}
	if err := merged.CheckInvariant(); err != nil {
		log.Warn("Server record breaks reservation invariant", zap.String("book_id", m.id), zap.Error(err))
	}
	if i >= 0 {
		s.books[i] = merged
	}
	log.Debug("Mutation confirmed", zap.String("book_id", m.id), zap.String("operation", m.op))
	return merged.Clone()
}

// rollback undoes m, queues a notice and calls the auth hook for auth
// failures. It returns the error to surface.
func (s *Synchronizer) rollback(m *mutation, err error) error {
	var e *model.Error
	if !errors.As(err, &e) || !e.Recoverable() {
		// gateways only fail remotely
		err = &model.Error{Kind: model.KindNetwork, Message: err.Error(), Err: err}
	}
	kind := model.KindOf(err)

	s.mu.Lock()
	delete(s.pending, m.id)
	// A page loaded meanwhile came from the server and is left as is.
	if s.generation == m.generation {
		switch m.op {
		case OpCreate:
			if i, _ := s.find(m.id); i >= 0 {
				s.books = append(s.books[:i], s.books[i+1:]...)
			}
			s.total--
		case OpDelete:
			if i, _ := s.find(m.id); i < 0 {
				at := s.restoreIndex(m)
				s.books = append(s.books, nil)
				copy(s.books[at+1:], s.books[at:])
				s.books[at] = m.snapshot
			}
			s.total++
		default:
			if i, _ := s.find(m.id); i >= 0 {
				s.books[i] = m.snapshot
			}
		}
	}
	log.Warn("Rolled back optimistic change",
		zap.String("book_id", m.id),
		zap.String("operation", m.op),
		zap.Error(err),
	)
	s.notify(kind, m.op, m.id, err)
	hook := s.onAuthFailure
	s.mu.Unlock()

	if kind == model.KindAuth && hook != nil {
		hook(err)
	}
	return err
}

// restoreIndex finds where a deleted book goes back: before the book that
// followed it, or at its old index when that one is gone too. Callers hold mu.
func (s *Synchronizer) restoreIndex(m *mutation) int {
	if m.next != "" {
		if j, _ := s.find(m.next); j >= 0 {
			return j
		}
	}
	if m.index > len(s.books) {
		return len(s.books)
	}
	return m.index
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
