// Package devserver is an in-memory implementation of the library REST API
// used for local development and end to end tests of the client.
package devserver // import "github.com/Andres337939/libros-front/internal/devserver"

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Andres337939/libros-front/internal/log"
	"github.com/Andres337939/libros-front/internal/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const wireRoleAdmin = "admin"

type Options struct {
	Host          string
	Port          int
	AdminUsername string
	AdminPassword string
	// JWTSecret signs access tokens. A random one is generated when empty.
	JWTSecret string
	Seed      bool
}

type Server struct {
	opts   Options
	store  *memStore
	secret []byte
	faults *faultInjector
	router *mux.Router
}

func New(opts Options) (*Server, error) {
	secret := opts.JWTSecret
	if secret == "" {
		var err error
		if secret, err = util.RandomString(32); err != nil {
			return nil, errors.Wrap(err, "failed to generate jwt secret")
		}
	}

	s := &Server{
		opts:   opts,
		store:  newMemStore(),
		secret: []byte(secret),
		faults: &faultInjector{},
	}

	if opts.AdminUsername != "" {
		if _, err := s.AddUser(opts.AdminUsername, opts.AdminPassword, true); err != nil {
			return nil, errors.Wrap(err, "failed to create admin account")
		}
	}
	if opts.Seed {
		seedBooks(s.store)
	}
	s.router = s.setupHandler()
	return s, nil
}

// AddUser creates an account and returns its id.
func (s *Server) AddUser(username, password string, admin bool) (string, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate password hash")
	}
	role := wireRoleUser
	if admin {
		role = wireRoleAdmin
	}
	u, ok := s.store.CreateUser(&userRecord{Username: username, PasswordHash: string(passwordHash), Role: role})
	if !ok {
		return "", errors.Errorf("user %s already exists", username)
	}
	return u.ID, nil
}

// InjectFault makes the next request with method fail with status and
// message.
func (s *Server) InjectFault(method string, status int, message string) {
	s.faults.add(method, status, message)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupHandler() *mux.Router {
	router := mux.NewRouter()

	sr := router.PathPrefix("/api").Subrouter()
	sr.Use(handleCORS)
	sr.Use(loggingRequest)
	sr.Use(s.faults.middleware)
	sr.Use(NewAuthInterceptor(s.store, s.secret).AuthenticationInterceptor)

	sr.HandleFunc("/auth/login", s.signIn).Methods(http.MethodPost)
	sr.HandleFunc("/auth/register", s.signUp).Methods(http.MethodPost)
	sr.HandleFunc("/books", s.listBooks).Methods(http.MethodGet)
	sr.HandleFunc("/books", s.createBook).Methods(http.MethodPost)
	sr.HandleFunc("/books/{id}", s.getBook).Methods(http.MethodGet)
	sr.HandleFunc("/books/{id}", s.updateBook).Methods(http.MethodPut)
	sr.HandleFunc("/books/{id}", s.deleteBook).Methods(http.MethodDelete)
	sr.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Name("healthcheck")

	return router
}

// Start listens on the configured address until ctx is done.
func (s *Server) Start(ctx context.Context) (*http.Server, error) {
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			errc <- err
		}
		close(errc)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP server shutdown", zap.Error(err))
		}
	}()

	select {
	case err := <-errc:
		if err != nil {
			return nil, errors.Wrapf(err, "failed to listen on %s", server.Addr)
		}
	case <-time.After(100 * time.Millisecond):
	}
	return server, nil
}
