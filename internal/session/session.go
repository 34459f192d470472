// Package session owns the identity of the running client and its durable
// copy in client storage.
package session // import "github.com/Andres337939/libros-front/internal/session"

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Andres337939/libros-front/internal/log"
	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/validator"
)

// Keys under which the session is persisted.
const (
	TokenKey = "biblioteca_token"
	UserKey  = "biblioteca_user"
)

const defaultLoginFailure = "invalid credentials"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Storage is durable client-local key/value storage.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItems(ctx context.Context, items map[string]string) error
	RemoveItems(ctx context.Context, keys ...string) error
}

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*model.AuthResult, error)
	Register(ctx context.Context, username, password string) error
}

type Store struct {
	mu      sync.RWMutex
	current model.Session
	storage Storage
	auth    Authenticator
	now     func() time.Time
}

func New(storage Storage, auth Authenticator) *Store {
	return &Store{
		current: model.GuestSession(),
		storage: storage,
		auth:    auth,
		now:     time.Now,
	}
}

// Current returns a copy of the live session.
func (s *Store) Current() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Restore loads the persisted session. Missing keys give a guest session.
// A partial or malformed record is cleared and also gives a guest session,
// together with the reason.
func (s *Store) Restore(ctx context.Context) error {
	token, hasToken, err := s.storage.GetItem(ctx, TokenKey)
	if err != nil {
		return s.discard(ctx, errors.Wrap(err, "failed to read stored token"))
	}
	rawUser, hasUser, err := s.storage.GetItem(ctx, UserKey)
	if err != nil {
		return s.discard(ctx, errors.Wrap(err, "failed to read stored user"))
	}

	if !hasToken && !hasUser {
		s.set(model.GuestSession())
		return nil
	}
	if !hasToken || !hasUser {
		return s.discard(ctx, errors.New("stored session is incomplete"))
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return s.discard(ctx, errors.Wrap(err, "stored user is malformed"))
	}
	if user.ID == "" || user.Username == "" {
		return s.discard(ctx, errors.New("stored user is missing id or username"))
	}
	if err := s.checkToken(token); err != nil {
		return s.discard(ctx, err)
	}
	if user.Role != model.RoleAdmin {
		user.Role = model.RoleMember
	}

	s.set(model.NewSession(&user, token))
	log.Debug("Session restored", zap.String("username", user.Username), zap.String("role", user.Role.String()))
	return nil
}

// checkToken rejects empty tokens and JWTs whose exp has passed. Opaque
// tokens are accepted as they are.
func (s *Store) checkToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("stored token is empty")
	}
	if strings.Count(token, ".") != 2 {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return errors.Wrap(err, "stored token is malformed")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return errors.Wrap(err, "stored token has an invalid exp claim")
	}
	if exp != nil && !s.now().Before(exp.Time) {
		return errors.Errorf("stored token expired at %s", exp.Time.Format(time.RFC3339))
	}
	return nil
}

func (s *Store) discard(ctx context.Context, cause error) error {
	s.set(model.GuestSession())
	if err := s.storage.RemoveItems(ctx, TokenKey, UserKey); err != nil {
		log.Warn("Failed to clear stored session", zap.Error(err))
	}
	log.Warn("Discarded stored session", zap.Error(cause))
	return cause
}

// Login authenticates and, on success, persists and swaps the session. On
// failure the current session is left untouched.
func (s *Store) Login(ctx context.Context, username, password string) (*model.User, error) {
	if err := validator.ValidateSigninRequest(&model.UserSigninRequest{Username: username, Password: password}); err != nil {
		return nil, err
	}

	res, err := s.auth.Authenticate(ctx, strings.TrimSpace(username), password)
	if err != nil {
		var e *model.Error
		if errors.As(err, &e) {
			if e.Message == "" {
				e.Message = defaultLoginFailure
			}
			return nil, e
		}
		return nil, &model.Error{Kind: model.KindServer, Message: defaultLoginFailure, Err: err}
	}
	if res.User == nil || res.User.ID == "" || res.Token == "" {
		return nil, &model.Error{Kind: model.KindServer, Message: "login response is missing token or user"}
	}

	rawUser, err := json.Marshal(res.User)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode user")
	}
	if err := s.storage.SetItems(ctx, map[string]string{
		TokenKey: res.Token,
		UserKey:  string(rawUser),
	}); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}

	s.set(model.NewSession(res.User, res.Token))
	log.Info("Signed in", zap.String("username", res.User.Username), zap.String("role", res.User.Role.String()))
	u := *res.User
	return &u, nil
}

// Logout clears the session from memory and storage. It is idempotent.
func (s *Store) Logout(ctx context.Context) error {
	s.set(model.GuestSession())
	if err := s.storage.RemoveItems(ctx, TokenKey, UserKey); err != nil {
		return errors.Wrap(err, "failed to clear stored session")
	}
	return nil
}

// RequireReauth flags the session after the server rejected its token. The
// user stays signed in until they log in again or out.
func (s *Store) RequireReauth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Authenticated {
		s.current.ReauthRequired = true
	}
}

// Register validates the form and creates the account. It does not sign in.
func (s *Store) Register(ctx context.Context, req *model.RegisterRequest) error {
	if err := validator.ValidateRegisterRequest(req); err != nil {
		return err
	}
	return s.auth.Register(ctx, strings.TrimSpace(req.Username), req.Password)
}

func (s *Store) set(sess model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}
