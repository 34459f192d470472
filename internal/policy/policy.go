// Package policy decides which actions a session may take on a book. The
// same decision gates the views and the synchronizer preconditions.
package policy // import "github.com/Andres337939/libros-front/internal/policy"

import (
	"strings"

	"github.com/Andres337939/libros-front/internal/model"
)

type Action string

const (
	ActionReserve Action = "reserve"
	ActionReturn  Action = "return"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
)

var allActions = []Action{ActionReserve, ActionReturn, ActionEdit, ActionDelete}

// ActionSet is a small bit set of actions.
type ActionSet uint8

func (s ActionSet) Has(a Action) bool {
	return s&bit(a) != 0
}

func (s ActionSet) add(a Action) ActionSet {
	return s | bit(a)
}

// List returns the actions in a stable order.
func (s ActionSet) List() []Action {
	var out []Action
	for _, a := range allActions {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s ActionSet) String() string {
	parts := make([]string, 0, len(allActions))
	for _, a := range s.List() {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, ",")
}

func bit(a Action) ActionSet {
	for i, known := range allActions {
		if known == a {
			return 1 << i
		}
	}
	return 0
}

// PermittedActions returns what session may do with book. It has no side
// effects.
func PermittedActions(session model.Session, book *model.Book) ActionSet {
	var set ActionSet
	if session.IsAdmin() {
		set = set.add(ActionEdit).add(ActionDelete)
	}
	if book == nil || !session.Authenticated {
		return set
	}
	if book.Status == model.StatusAvailable {
		set = set.add(ActionReserve)
	}
	if book.Status == model.StatusReserved && (session.IsAdmin() || book.IsReservedBy(session.UserID)) {
		set = set.add(ActionReturn)
	}
	return set
}

// Permits returns a policy error when action is not permitted.
func Permits(session model.Session, book *model.Book, action Action) error {
	if PermittedActions(session, book).Has(action) {
		return nil
	}
	id := ""
	if book != nil {
		id = book.ID
	}
	if !session.Authenticated {
		return model.NewPolicyError(model.ErrNoSession, "%s requires a signed in user", action)
	}
	return model.NewPolicyError(nil, "%s is not permitted on book %s", action, id)
}

// CanCreate follows the same rule as edit and delete.
func CanCreate(session model.Session) bool {
	return session.IsAdmin()
}
