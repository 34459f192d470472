package devserver

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/Andres337939/libros-front/internal/http/request"
	"github.com/Andres337939/libros-front/internal/http/response"
	"github.com/Andres337939/libros-front/internal/model"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	defaultSort  = "createdAt"
)

var (
	errUserNotFound   = errors.New("user not found")
	errBookNotFound   = errors.New("Libro no encontrado")
	errForbiddenPatch = errors.New("Solo puedes reservar libros disponibles o devolver tus reservas")
	errNotAvailable   = errors.New("El libro no está disponible")
)

// bookPatch is a partial book. UserID stays raw to tell null from absent.
type bookPatch struct {
	Title       *string             `json:"title"`
	Author      *string             `json:"author"`
	Description *string             `json:"description"`
	Genre       *string             `json:"genre"`
	Year        *int                `json:"year"`
	Pages       *int                `json:"pages"`
	Rating      *float64            `json:"rating"`
	Image       *string             `json:"image"`
	Status      *string             `json:"status"`
	UserID      jsoniter.RawMessage `json:"id_usuario"`
}

func (p *bookPatch) onlyStatus() bool {
	return p.Title == nil && p.Author == nil && p.Description == nil && p.Genre == nil &&
		p.Year == nil && p.Pages == nil && p.Rating == nil && p.Image == nil
}

// userID returns the id_usuario value and whether the field was present.
func (p *bookPatch) userID() (*string, bool, error) {
	if len(p.UserID) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(p.UserID), []byte("null")) {
		return nil, true, nil
	}
	var id string
	if err := json.Unmarshal(p.UserID, &id); err != nil {
		return nil, true, errors.New("id_usuario debe ser texto")
	}
	return &id, true, nil
}

func validStatus(s string) bool {
	return s == model.WireStatusAvailable || s == model.WireStatusReserved || s == model.WireStatusBorrowed
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	sortField := q.Get("sort")
	if sortField == "" {
		sortField = defaultSort
	}
	status := q.Get("status")
	if status != "" && !validStatus(status) {
		response.BadRequest(w, r, errors.Errorf("Estado inválido: %s", status))
		return
	}

	response.OK(w, r, s.store.ListBooks(listQuery{
		Page:   page,
		Limit:  limit,
		Author: strings.TrimSpace(q.Get("author")),
		Status: status,
		Sort:   sortField,
	}))
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	b := s.store.GetBook(mux.Vars(r)["id"])
	if b == nil {
		response.NotFound(w, r, errBookNotFound.Error())
		return
	}
	response.OK(w, r, b)
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var patch bookPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, r, errors.New("Cuerpo de la petición inválido"))
		return
	}
	if patch.Title == nil || strings.TrimSpace(*patch.Title) == "" || patch.Author == nil || strings.TrimSpace(*patch.Author) == "" {
		response.BadRequest(w, r, errors.New("Título y autor son requeridos"))
		return
	}

	b := &bookRecord{Status: model.WireStatusAvailable}
	if err := applyPatch(b, &patch); err != nil {
		response.BadRequest(w, r, err)
		return
	}
	response.Created(w, r, s.store.AddBook(b))
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch bookPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, r, errors.New("Cuerpo de la petición inválido"))
		return
	}

	isAdmin := request.GetUserRole(r) == model.RoleAdmin
	userID := request.GetUserID(r)
	if !isAdmin && (!patch.onlyStatus() || patch.Status == nil) {
		response.Forbidden(w, r, errForbiddenPatch.Error())
		return
	}

	var conflict bool
	updated, err := s.store.UpdateBook(id, func(b *bookRecord) error {
		if !isAdmin {
			holder, _, err := patch.userID()
			if err != nil {
				return err
			}
			switch *patch.Status {
			case model.WireStatusReserved:
				if holder == nil || *holder != userID {
					return errForbiddenPatch
				}
				if b.Status != model.WireStatusAvailable {
					conflict = true
					return errNotAvailable
				}
			case model.WireStatusAvailable:
				if b.Status != model.WireStatusReserved || b.UserID == nil || *b.UserID != userID {
					return errForbiddenPatch
				}
			default:
				return errForbiddenPatch
			}
		}
		return applyPatch(b, &patch)
	})
	switch {
	case err == errForbiddenPatch:
		response.Forbidden(w, r, err.Error())
		return
	case conflict:
		response.Error(w, r, http.StatusConflict, err.Error())
		return
	case err != nil:
		response.BadRequest(w, r, err)
		return
	case updated == nil:
		response.NotFound(w, r, errBookNotFound.Error())
		return
	}
	response.OK(w, r, updated)
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	if !s.store.DeleteBook(mux.Vars(r)["id"]) {
		response.NotFound(w, r, errBookNotFound.Error())
		return
	}
	response.OK(w, r, response.Message{Message: "Libro eliminado correctamente"})
}

// applyPatch copies the present fields of p into b and keeps the holder
// consistent with the status.
func applyPatch(b *bookRecord, p *bookPatch) error {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Author != nil {
		b.Author = strings.TrimSpace(*p.Author)
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Year != nil {
		b.Year = *p.Year
	}
	if p.Pages != nil {
		if *p.Pages < 0 {
			return errors.New("Páginas debe ser mayor a 0")
		}
		b.Pages = *p.Pages
	}
	if p.Rating != nil {
		if *p.Rating < 0 || *p.Rating > 5 {
			return errors.New("La calificación debe estar entre 0 y 5")
		}
		v := *p.Rating
		b.Rating = &v
	}
	if p.Image != nil {
		b.Image = *p.Image
	}
	if b.Title == "" || b.Author == "" {
		return errors.New("Título y autor son requeridos")
	}

	holder, hasHolder, err := p.userID()
	if err != nil {
		return err
	}
	if p.Status != nil {
		if !validStatus(*p.Status) {
			return errors.Errorf("Estado inválido: %s", *p.Status)
		}
		b.Status = *p.Status
	}
	if b.Status == model.WireStatusReserved {
		if hasHolder && holder != nil {
			b.UserID = holder
		}
		if b.UserID == nil {
			return errors.New("Una reserva requiere id_usuario")
		}
		if p.Status != nil && b.ReservedAt == nil {
			now := time.Now().UTC()
			b.ReservedAt = &now
		}
	} else {
		b.UserID = nil
		b.ReservedAt = nil
	}
	return nil
}
