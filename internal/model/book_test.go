package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusWireMapping(t *testing.T) {
	tests := []struct {
		wire string
		want BookStatus
	}{
		{"disponible", StatusAvailable},
		{"Reservado", StatusReserved},
		{" prestado ", StatusBorrowed},
		{"desconocido", StatusUnknown},
		{"", StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFromWire(tt.wire), tt.wire)
	}
	assert.Equal(t, "reservado", StatusReserved.Wire())
	assert.Equal(t, "", StatusUnknown.Wire())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("available")
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, s)

	s, err = ParseStatus("prestado")
	require.NoError(t, err)
	assert.Equal(t, StatusBorrowed, s)

	_, err = ParseStatus("lost")
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	b := &Book{ID: "1", Status: StatusReserved, ReservingUserID: StringPtr("u1")}
	c := b.Clone()
	*c.ReservingUserID = "u2"
	c.Title = "changed"

	assert.Equal(t, "u1", *b.ReservingUserID)
	assert.Empty(t, b.Title)
}

func TestCheckInvariant(t *testing.T) {
	assert.NoError(t, (&Book{Status: StatusAvailable}).CheckInvariant())
	assert.NoError(t, (&Book{Status: StatusReserved, ReservingUserID: StringPtr("u")}).CheckInvariant())
	assert.Error(t, (&Book{Status: StatusReserved}).CheckInvariant())
	assert.Error(t, (&Book{Status: StatusAvailable, ReservingUserID: StringPtr("u")}).CheckInvariant())
	// borrowed books are not constrained
	assert.NoError(t, (&Book{Status: StatusBorrowed}).CheckInvariant())
}

func TestMergeClearsReservationWhenStatusChanges(t *testing.T) {
	b := &Book{ID: "1", Title: "Old", Status: StatusReserved, ReservingUserID: StringPtr("u1"), Genre: "Ciencia"}
	p := &BookPayload{Title: "  New  ", Author: "A", Pages: 10, Status: StatusAvailable}
	p.Merge(b)

	assert.Equal(t, "New", b.Title)
	assert.Equal(t, "Ciencia", b.Genre)
	assert.Equal(t, StatusAvailable, b.Status)
	assert.Nil(t, b.ReservingUserID)
	assert.NoError(t, b.CheckInvariant())
}

func TestPayloadFromReservedBookKeepsReservation(t *testing.T) {
	b := &Book{ID: "1", Title: "T", Author: "A", Pages: 3, Status: StatusReserved, ReservingUserID: StringPtr("u1")}
	p := PayloadFromBook(b)
	assert.Empty(t, p.Status)

	p.Title = "T2"
	p.Merge(b)
	assert.Equal(t, StatusReserved, b.Status)
	assert.NoError(t, b.CheckInvariant())
}

func TestFilterMatch(t *testing.T) {
	b := &Book{Title: "Cien años de soledad", Author: "Gabriel García Márquez", Genre: "Ficción", Description: "Macondo"}

	assert.True(t, Filter{}.Match(b))
	assert.True(t, Filter{Category: "Todos"}.Match(b))
	assert.True(t, Filter{Category: "ficción"}.Match(b))
	assert.False(t, Filter{Category: "Ciencia"}.Match(b))
	assert.True(t, Filter{Search: "macondo"}.Match(b))
	assert.True(t, Filter{Search: "GARCÍA"}.Match(b))
	assert.False(t, Filter{Category: "Ficción", Search: "dune"}.Match(b))
	assert.True(t, Filter{Category: " Todos ", Search: " "}.IsZero())
}

func TestErrorMessage(t *testing.T) {
	err := NewValidationError(map[string]string{"title": "is required", "author": "is required"})
	assert.Equal(t, "invalid form (author: is required; title: is required)", err.Error())
	assert.True(t, IsKind(err, KindValidation))

	pe := NewPolicyError(ErrPending, "book %s is busy", "7")
	assert.ErrorIs(t, pe, ErrPending)
	assert.Equal(t, KindPolicy, KindOf(pe))
	assert.False(t, pe.Recoverable())
}
