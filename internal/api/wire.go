package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/Andres337939/libros-front/internal/model"
)

const (
	defaultTitle  = "Sin título"
	defaultAuthor = "Autor desconocido"
	defaultGenre  = "General"
)

const placeholderImage = "https://via.placeholder.com/300x400/4a6572/ffffff?text=%s"

var defaultImages = map[string]string{
	"Ficción":         "https://images.unsplash.com/photo-1544716278-ca5e3f4abd8c?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Ciencia":         "https://images.unsplash.com/photo-1532012197267-da84d127e765?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Historia":        "https://images.unsplash.com/photo-1541963463532-d68292c34b19?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Biografías":      "https://images.unsplash.com/photo-1516979187457-637abb4f9353?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Romance":         "https://images.unsplash.com/photo-1512820790803-83ca734da794?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Misterio":        "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Distopía":        "https://images.unsplash.com/photo-1512820790803-83ca734da794?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"General":         "https://images.unsplash.com/photo-1544947950-fa07a98d237f?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Aventura":        "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Terror":          "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Fantasía":        "https://images.unsplash.com/photo-1544716278-ca5e3f4abd8c?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
	"Ciencia Ficción": "https://images.unsplash.com/photo-1532012197267-da84d127e765?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80",
}

// wireBook is a book as the API sends it.
type wireBook struct {
	MongoID     string          `json:"_id"`
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Description string          `json:"description"`
	Genre       string          `json:"genre"`
	Year        jsoniter.Number `json:"year"`
	Pages       jsoniter.Number `json:"pages"`
	Rating      *float64        `json:"rating"`
	Image       string          `json:"image"`
	Status      string          `json:"status"`
	UserID      *string         `json:"id_usuario"`
	ReservedAt  *time.Time      `json:"reservedAt"`
	CreatedAt   *time.Time      `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt"`
}

type wirePage struct {
	Data  []*wireBook `json:"data"`
	Page  int         `json:"page"`
	Total int         `json:"total"`
	Pages int         `json:"pages"`
}

type wireUser struct {
	MongoID  string `json:"_id"`
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type wireAuth struct {
	Token string    `json:"token"`
	User  *wireUser `json:"user"`
}

// wireBookPayload is the body of create and edit calls.
type wireBookPayload struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Year        int     `json:"year"`
	Pages       int     `json:"pages"`
	Rating      float64 `json:"rating,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Image       string  `json:"image,omitempty"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// statusChange is the body of reserve and return calls. UserID is sent as
// null on return.
type statusChange struct {
	Status string  `json:"status"`
	UserID *string `json:"id_usuario"`
}

func payloadToWire(p *model.BookPayload) *wireBookPayload {
	w := &wireBookPayload{
		Title:       strings.TrimSpace(p.Title),
		Author:      strings.TrimSpace(p.Author),
		Year:        p.Year,
		Pages:       p.Pages,
		Rating:      p.Rating,
		Genre:       p.Genre,
		Image:       p.ImageURL,
		Description: p.Description,
	}
	if p.Status != "" {
		w.Status = p.Status.Wire()
	}
	return w
}

func (u *wireUser) toModel() *model.User {
	if u == nil {
		return nil
	}
	id := u.MongoID
	if id == "" {
		id = u.ID
	}
	return &model.User{ID: id, Username: u.Username, Role: model.RoleFromWire(u.Role)}
}

// toModel normalises a wire book. Missing fields get the defaults the
// catalog displays.
func (w *wireBook) toModel() *model.Book {
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	b := &model.Book{
		ID:          id,
		Title:       w.Title,
		Author:      w.Author,
		Description: w.Description,
		Genre:       w.Genre,
		ImageURL:    w.Image,
		Status:      model.StatusFromWire(w.Status),
		Rating:      model.DefaultRating,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
	year, yearErr := strconv.Atoi(w.Year.String())
	if yearErr == nil && year > 0 {
		b.Year = year
	} else {
		b.Year = time.Now().Year()
	}
	if pages, err := strconv.Atoi(w.Pages.String()); err == nil {
		b.Pages = pages
	}
	if w.Rating != nil {
		b.Rating = *w.Rating
	}
	if b.Title == "" {
		b.Title = defaultTitle
	}
	if b.Author == "" {
		b.Author = defaultAuthor
	}
	if b.Description == "" {
		yearText := "desconocido"
		if yearErr == nil && year > 0 {
			yearText = strconv.Itoa(year)
		}
		b.Description = fmt.Sprintf("Libro %q escrito por %s en el año %s.", b.Title, b.Author, yearText)
	}
	if b.Genre == "" {
		b.Genre = defaultGenre
	}
	if b.ImageURL == "" {
		b.ImageURL = DefaultImage(b.Genre, b.Title)
	}

	if b.Status == model.StatusReserved {
		// A reservation without a holder stays reserved by nobody the
		// client can match, so only admins may return it.
		holder := ""
		if w.UserID != nil {
			holder = *w.UserID
		}
		b.ReservingUserID = model.StringPtr(holder)
		switch {
		case w.ReservedAt != nil:
			b.ReservedAt = w.ReservedAt
		case w.UpdatedAt != nil:
			t := *w.UpdatedAt
			b.ReservedAt = &t
		}
	}
	return b
}

// DefaultImage returns the cover shown for a book without an image.
func DefaultImage(genre, title string) string {
	if img, ok := defaultImages[genre]; ok {
		return img
	}
	runes := []rune(title)
	if len(runes) > 20 {
		runes = runes[:20]
	}
	return fmt.Sprintf(placeholderImage, url.QueryEscape(string(runes)))
}
