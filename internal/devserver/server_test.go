package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres337939/libros-front/internal/api"
	"github.com/Andres337939/libros-front/internal/catalog"
	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/session"
	"github.com/Andres337939/libros-front/internal/store"
	"github.com/Andres337939/libros-front/internal/store/db"
)

type harness struct {
	server *Server
	client *api.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := New(Options{AdminUsername: "admin", AdminPassword: "admin123", JWTSecret: "test-secret", Seed: true})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &harness{server: s, client: api.NewClient(ts.URL + "/api")}
}

func (h *harness) login(t *testing.T, username, password string) *session.Store {
	t.Helper()
	d, err := db.NewDB(filepath.Join(t.TempDir(), "libros.db"))
	require.NoError(t, err)
	require.NoError(t, d.Migrate(context.Background()))
	st := store.NewStore(d.DB)
	t.Cleanup(func() { _ = st.Close() })

	sess := session.New(st, h.client)
	_, err = sess.Login(context.Background(), username, password)
	require.NoError(t, err)
	return sess
}

func TestListSeededBooks(t *testing.T) {
	h := newHarness(t)
	page, err := h.client.ListBooks(context.Background(), model.BookQuery{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, len(seedCatalog), page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Len(t, page.Books, 5)
	assert.Equal(t, "Cien años de soledad", page.Books[0].Title)

	// the seeded book without a genre is normalised by the client
	page, err = h.client.ListBooks(context.Background(), model.BookQuery{Page: 3, Limit: 5})
	require.NoError(t, err)
	last := page.Books[len(page.Books)-1]
	assert.Equal(t, "Pedro Páramo", last.Title)
	assert.Equal(t, "General", last.Genre)
}

func TestListBooksDescendingAndFiltered(t *testing.T) {
	h := newHarness(t)
	page, err := h.client.ListBooks(context.Background(), model.BookQuery{Limit: 100, Sort: "-createdAt"})
	require.NoError(t, err)
	assert.Equal(t, "Pedro Páramo", page.Books[0].Title)

	page, err = h.client.ListBooks(context.Background(), model.BookQuery{Status: model.StatusBorrowed})
	require.NoError(t, err)
	require.Len(t, page.Books, 1)
	assert.Equal(t, "1984", page.Books[0].Title)

	page, err = h.client.ListBooks(context.Background(), model.BookQuery{Author: "sagan"})
	require.NoError(t, err)
	require.Len(t, page.Books, 1)
	assert.Equal(t, "Cosmos", page.Books[0].Title)
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Authenticate(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindAuth))
	assert.Contains(t, err.Error(), "Credenciales incorrectas")
}

func TestRegisterThenLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.client.Register(ctx, "lector_1", "secreto"))

	err := h.client.Register(ctx, "lector_1", "secreto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "El usuario ya existe")

	res, err := h.client.Authenticate(ctx, "lector_1", "secreto")
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, res.User.Role)
	assert.NotEmpty(t, res.Token)
}

func TestAdminLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.login(t, "admin", "admin123").Current()
	require.True(t, admin.IsAdmin())

	sync := catalog.NewSynchronizer(h.client, catalog.WithPageSize(100))
	require.NoError(t, sync.LoadPage(ctx, 1, model.BookQuery{}))

	created, err := sync.Create(ctx, admin, &model.BookPayload{Title: "Ficciones", Author: "Jorge Luis Borges", Year: 1944, Pages: 224, Rating: 4.5, Genre: "Ficción"})
	require.NoError(t, err)
	assert.False(t, created.Provisional)
	assert.Equal(t, 4.5, created.Rating)
	assert.Len(t, created.ID, 24)

	payload := model.PayloadFromBook(created)
	payload.Pages = 230
	payload.Rating = 3
	updated, err := sync.Update(ctx, admin, created.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, 230, updated.Pages)

	remote, err := h.client.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 230, remote.Pages)
	assert.Equal(t, 3.0, remote.Rating)

	require.NoError(t, sync.Delete(ctx, admin, created.ID))
	_, err = h.client.GetBook(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, err.(*model.Error).Status)
}

func TestMemberReserveAndReturn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.server.AddUser("ana", "secreto", false)
	require.NoError(t, err)
	_, err = h.server.AddUser("luis", "secreto", false)
	require.NoError(t, err)
	ana := h.login(t, "ana", "secreto").Current()
	luis := h.login(t, "luis", "secreto").Current()

	sync := catalog.NewSynchronizer(h.client)
	require.NoError(t, sync.LoadPage(ctx, 1, model.BookQuery{}))
	id := sync.Snapshot().Books[0].ID

	b, err := sync.Reserve(ctx, ana, id)
	require.NoError(t, err)
	assert.True(t, b.IsReservedBy(ana.UserID))
	assert.NotNil(t, b.ReservedAt)

	// another member cannot return it through the API
	_, err = h.client.ReturnBook(ctx, id, luis.AuthToken)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindAuth))

	// nor reserve it
	_, err = h.client.ReserveBook(ctx, id, luis.AuthToken, luis.UserID)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, err.(*model.Error).Status)

	b, err = sync.Return(ctx, ana, id)
	require.NoError(t, err)
	assert.True(t, b.IsAvailable())
	assert.Nil(t, b.ReservingUserID)
	require.NoError(t, b.CheckInvariant())
}

func TestMemberCannotCreateOrDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.server.AddUser("ana", "secreto", false)
	require.NoError(t, err)
	ana := h.login(t, "ana", "secreto").Current()

	_, err = h.client.CreateBook(ctx, &model.BookPayload{Title: "x", Author: "y", Pages: 1}, ana.AuthToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, err.(*model.Error).Status)

	page, err := h.client.ListBooks(ctx, model.BookQuery{})
	require.NoError(t, err)
	err = h.client.DeleteBook(ctx, page.Books[0].ID, ana.AuthToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, err.(*model.Error).Status)
}

func TestMissingTokenIsRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.CreateBook(context.Background(), &model.BookPayload{Title: "x", Author: "y", Pages: 1}, "")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindAuth))
	assert.Contains(t, err.Error(), "Token inválido o expirado")
}

func TestInjectedFaultRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.server.AddUser("ana", "secreto", false)
	require.NoError(t, err)
	ana := h.login(t, "ana", "secreto").Current()

	sync := catalog.NewSynchronizer(h.client)
	require.NoError(t, sync.LoadPage(ctx, 1, model.BookQuery{}))
	before := sync.Snapshot().Books[0]

	h.server.InjectFault(http.MethodPut, http.StatusInternalServerError, "Error interno")
	_, err = sync.Reserve(ctx, ana, before.ID)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindServer))

	after, ok := sync.Book(before.ID)
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.False(t, sync.IsPending(before.ID))

	notices := sync.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Error interno", notices[0].Message)

	// the fault is consumed
	_, err = sync.Reserve(ctx, ana, before.ID)
	require.NoError(t, err)
}

func TestExpiredSessionTriggersReauth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.login(t, "admin", "admin123")
	admin := sess.Current()
	admin.AuthToken = "not-a-token"

	sync := catalog.NewSynchronizer(h.client, catalog.WithAuthFailureHook(func(error) { sess.RequireReauth() }))
	require.NoError(t, sync.LoadPage(ctx, 1, model.BookQuery{}))
	_, err := sync.Create(ctx, admin, &model.BookPayload{Title: "Ficciones", Author: "Borges", Pages: 10})
	require.Error(t, err)
	assert.True(t, sess.Current().ReauthRequired)
	// the provisional record is gone
	assert.Equal(t, 10, sync.Snapshot().Stats.Displayed)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/books/abc", nil)
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMatchACL(t *testing.T) {
	assert.True(t, isUnauthorizeAllowed("GET /api/books/123"))
	assert.False(t, isUnauthorizeAllowed("PUT /api/books/123"))
	assert.True(t, isOnlyForAdminAllowedPath("DELETE /api/books/123"))
	assert.False(t, isOnlyForAdminAllowedPath("PUT /api/books/123"))
}
