package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres337939/libros-front/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", WithTimeout(2*time.Second))
}

func TestListBooksQueryAndMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "createdAt", r.URL.Query().Get("sort"))
		assert.Equal(t, "disponible", r.URL.Query().Get("status"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[
			{"_id":"a1","title":"Dune","author":"Frank Herbert","genre":"Ciencia","year":1965,"pages":412,"status":"disponible"},
			{"_id":"a2","status":"reservado","id_usuario":"u1","updatedAt":"2024-05-01T10:00:00Z"},
			{"_id":"a3","title":"X","status":"perdido","genre":"Poesía"}
		],"page":2,"total":23,"pages":3}`)
	})

	page, err := c.ListBooks(context.Background(), model.BookQuery{Page: 2, Status: model.StatusAvailable})
	require.NoError(t, err)
	require.Len(t, page.Books, 3)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 23, page.Total)
	assert.Equal(t, 3, page.Pages)

	dune := page.Books[0]
	assert.Equal(t, "a1", dune.ID)
	assert.Equal(t, model.StatusAvailable, dune.Status)
	assert.True(t, dune.IsAvailable())
	assert.Equal(t, 1965, dune.Year)
	assert.Equal(t, model.DefaultRating, dune.Rating)
	assert.Equal(t, defaultImages["Ciencia"], dune.ImageURL)
	assert.Nil(t, dune.ReservingUserID)

	reserved := page.Books[1]
	assert.Equal(t, "Sin título", reserved.Title)
	assert.Equal(t, "Autor desconocido", reserved.Author)
	assert.Equal(t, "General", reserved.Genre)
	assert.Contains(t, reserved.Description, "en el año desconocido")
	require.NotNil(t, reserved.ReservingUserID)
	assert.Equal(t, "u1", *reserved.ReservingUserID)
	require.NotNil(t, reserved.ReservedAt)
	assert.Equal(t, 2024, reserved.ReservedAt.Year())
	assert.NoError(t, reserved.CheckInvariant())

	unknown := page.Books[2]
	assert.Equal(t, model.StatusUnknown, unknown.Status)
	assert.Contains(t, unknown.ImageURL, "via.placeholder.com")
}

func TestReserveAndReturnBodies(t *testing.T) {
	var bodies []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if bytes.Contains(b, []byte("reservado")) {
			_, _ = io.WriteString(w, `{"_id":"b1","title":"T","author":"A","status":"reservado","id_usuario":"u9","reservedAt":"2024-06-01T00:00:00Z"}`)
			return
		}
		_, _ = io.WriteString(w, `{"_id":"b1","title":"T","author":"A","status":"disponible","id_usuario":null}`)
	})

	b, err := c.ReserveBook(context.Background(), "b1", "tok", "u9")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReserved, b.Status)
	assert.Equal(t, "u9", *b.ReservingUserID)

	b, err = c.ReturnBook(context.Background(), "b1", "tok")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, b.Status)
	assert.Nil(t, b.ReservingUserID)

	require.Len(t, bodies, 2)
	assert.JSONEq(t, `{"status":"reservado","id_usuario":"u9"}`, bodies[0])
	assert.JSONEq(t, `{"status":"disponible","id_usuario":null}`, bodies[1])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    model.ErrorKind
		message string
	}{
		{"server message", http.StatusInternalServerError, `{"message":"database down"}`, model.KindServer, "database down"},
		{"generic", http.StatusBadGateway, `not json`, model.KindServer, "Error 502: Bad Gateway"},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Token inválido"}`, model.KindAuth, "Token inválido"},
		{"forbidden", http.StatusForbidden, ``, model.KindAuth, "Error 403: Forbidden"},
		{"error_message field", http.StatusNotFound, `{"error_message":"resource not found"}`, model.KindServer, "resource not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.GetBook(context.Background(), "x")
			require.Error(t, err)
			var e *model.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}

func TestNetworkErrorIsNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	_, err := c.GetBook(context.Background(), "x")
	assert.True(t, model.IsKind(err, model.KindNetwork))
}

func TestMalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": "nope"`)
	})
	_, err := c.ListBooks(context.Background(), model.BookQuery{})
	assert.True(t, model.IsKind(err, model.KindServer))
}

func TestCompressedBodies(t *testing.T) {
	payload := []byte(`{"_id":"z","title":"Zipped","author":"A","status":"prestado"}`)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "br, gzip", r.Header.Get("Accept-Encoding"))
		var buf bytes.Buffer
		if r.URL.Path == "/api/books/br" {
			bw := brotli.NewWriter(&buf)
			_, _ = bw.Write(payload)
			_ = bw.Close()
			w.Header().Set("Content-Encoding", "br")
		} else {
			gw := gzip.NewWriter(&buf)
			_, _ = gw.Write(payload)
			_ = gw.Close()
			w.Header().Set("Content-Encoding", "gzip")
		}
		_, _ = w.Write(buf.Bytes())
	})

	for _, id := range []string{"br", "gz"} {
		b, err := c.GetBook(context.Background(), id)
		require.NoError(t, err, id)
		assert.Equal(t, "Zipped", b.Title)
		assert.Equal(t, model.StatusBorrowed, b.Status)
	}
}

func TestAuthenticateAndRegister(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			b, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"username":"ana","password":"secret1"}`, string(b))
			_, _ = io.WriteString(w, `{"token":"t","user":{"_id":"u1","username":"ana","role":"ADMIN"}}`)
		case "/api/auth/register":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"El usuario ya existe"}`)
		}
	})

	res, err := c.Authenticate(context.Background(), "ana", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "t", res.Token)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, model.RoleAdmin, res.User.Role)

	err = c.Register(context.Background(), "ana", "secret1")
	require.Error(t, err)
	assert.Equal(t, "El usuario ya existe", err.Error())
}

func TestCreateBookPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"title":"Dune","author":"Herbert","year":1965,"pages":412,"rating":4.5,"genre":"Ciencia","status":"disponible"}`, string(b))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"_id":"n1","title":"Dune","author":"Herbert","rating":4.5,"status":"disponible"}`)
	})
	b, err := c.CreateBook(context.Background(), &model.BookPayload{
		Title: " Dune ", Author: "Herbert", Year: 1965, Pages: 412, Rating: 4.5, Genre: "Ciencia", Status: model.StatusAvailable,
	}, "tok")
	require.NoError(t, err)
	assert.Equal(t, "n1", b.ID)
	assert.Equal(t, 4.5, b.Rating)
}
