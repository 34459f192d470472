package model // import "github.com/Andres337939/libros-front/internal/model"

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// BookStatus is the circulation state of a book.
type BookStatus string

const (
	StatusAvailable BookStatus = "available"
	StatusReserved  BookStatus = "reserved"
	StatusBorrowed  BookStatus = "borrowed"
	StatusUnknown   BookStatus = "unknown"
)

// Wire values used by the library API.
const (
	WireStatusAvailable = "disponible"
	WireStatusReserved  = "reservado"
	WireStatusBorrowed  = "prestado"
)

func (s BookStatus) String() string {
	return string(s)
}

// Wire returns the value the API expects for s.
func (s BookStatus) Wire() string {
	switch s {
	case StatusAvailable:
		return WireStatusAvailable
	case StatusReserved:
		return WireStatusReserved
	case StatusBorrowed:
		return WireStatusBorrowed
	}
	return ""
}

// StatusFromWire maps an API status string. Unrecognized values become StatusUnknown.
func StatusFromWire(s string) BookStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case WireStatusAvailable:
		return StatusAvailable
	case WireStatusReserved:
		return StatusReserved
	case WireStatusBorrowed:
		return StatusBorrowed
	}
	return StatusUnknown
}

// ParseStatus accepts both the client and the wire spelling.
func ParseStatus(s string) (BookStatus, error) {
	switch BookStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusAvailable:
		return StatusAvailable, nil
	case StatusReserved:
		return StatusReserved, nil
	case StatusBorrowed:
		return StatusBorrowed, nil
	}
	if status := StatusFromWire(s); status != StatusUnknown {
		return status, nil
	}
	return StatusUnknown, errors.Errorf("unknown book status %q", s)
}

// DefaultRating is shown for books the API does not rate.
const DefaultRating = 4.0

type Book struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Author      string     `json:"author" yaml:"author"`
	Description string     `json:"description" yaml:"description"`
	Genre       string     `json:"genre" yaml:"genre"`
	Year        int        `json:"year" yaml:"year"`
	Pages       int        `json:"pages" yaml:"pages"`
	Rating      float64    `json:"rating" yaml:"rating"`
	ImageURL    string     `json:"image_url" yaml:"image_url"`
	Status      BookStatus `json:"status" yaml:"status"`
	// ReservingUserID is set iff Status is StatusReserved.
	ReservingUserID *string    `json:"reserving_user_id" yaml:"reserving_user_id"`
	ReservedAt      *time.Time `json:"reserved_at,omitempty" yaml:"reserved_at,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	// Provisional marks a record inserted before the server confirmed it.
	// Its ID is temporary.
	Provisional bool `json:"provisional,omitempty" yaml:"provisional,omitempty"`
}

// IsAvailable is derived from Status and never stored on its own.
func (b *Book) IsAvailable() bool {
	return b.Status == StatusAvailable
}

// IsReservedBy reports whether userID holds the reservation of b.
func (b *Book) IsReservedBy(userID string) bool {
	return b.Status == StatusReserved && b.ReservingUserID != nil && *b.ReservingUserID == userID
}

// Clone returns a deep copy of b.
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	c := *b
	c.ReservingUserID = cloneString(b.ReservingUserID)
	c.ReservedAt = cloneTime(b.ReservedAt)
	c.CreatedAt = cloneTime(b.CreatedAt)
	c.UpdatedAt = cloneTime(b.UpdatedAt)
	return &c
}

// CheckInvariant verifies that reserved books carry a reserving user and
// available books do not.
func (b *Book) CheckInvariant() error {
	switch b.Status {
	case StatusReserved:
		if b.ReservingUserID == nil {
			return errors.Errorf("book %s is reserved without a reserving user", b.ID)
		}
	case StatusAvailable:
		if b.ReservingUserID != nil {
			return errors.Errorf("book %s is available but reserved by %s", b.ID, *b.ReservingUserID)
		}
	}
	return nil
}

// BookPayload is the create/edit form of a book.
type BookPayload struct {
	Title       string     `json:"title" validate:"required"`
	Author      string     `json:"author" validate:"required"`
	Year        int        `json:"year" validate:"gte=0"`
	Pages       int        `json:"pages" validate:"gte=1"`
	Genre       string     `json:"genre"`
	ImageURL    string     `json:"image" validate:"omitempty,url"`
	Description string     `json:"description"`
	Rating      float64    `json:"rating" validate:"gte=0,lte=5"`
	Status      BookStatus `json:"status" validate:"omitempty,oneof=available borrowed"`
}

// Merge applies the payload to b. An empty status keeps the current one.
func (p *BookPayload) Merge(b *Book) {
	b.Title = strings.TrimSpace(p.Title)
	b.Author = strings.TrimSpace(p.Author)
	b.Year = p.Year
	b.Pages = p.Pages
	if p.Genre != "" {
		b.Genre = p.Genre
	}
	if p.ImageURL != "" {
		b.ImageURL = p.ImageURL
	}
	b.Description = p.Description
	if p.Rating > 0 {
		b.Rating = p.Rating
	}
	if p.Status != "" && p.Status != b.Status {
		b.Status = p.Status
		if b.Status != StatusReserved {
			b.ReservingUserID = nil
			b.ReservedAt = nil
		}
	}
}

// PayloadFromBook prefills an edit form.
func PayloadFromBook(b *Book) *BookPayload {
	p := &BookPayload{
		Title:       b.Title,
		Author:      b.Author,
		Year:        b.Year,
		Pages:       b.Pages,
		Genre:       b.Genre,
		ImageURL:    b.ImageURL,
		Description: b.Description,
		Rating:      b.Rating,
	}
	// Reservations are not editable through the form.
	if b.Status == StatusAvailable || b.Status == StatusBorrowed {
		p.Status = b.Status
	}
	return p
}

// BookQuery holds the server-side listing parameters.
type BookQuery struct {
	Page   int
	Limit  int
	Author string
	Status BookStatus
	Sort   string
}

// BookPage is one page of the server listing.
type BookPage struct {
	Books []*Book `json:"data"`
	Page  int     `json:"page"`
	Total int     `json:"total"`
	Pages int     `json:"pages"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
