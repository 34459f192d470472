package devserver

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Andres337939/libros-front/internal/http/request"
	"github.com/Andres337939/libros-front/internal/http/response"
	"github.com/Andres337939/libros-front/internal/log"
	"github.com/Andres337939/libros-front/internal/model"
)

type AuthInterceptor struct {
	store  *memStore
	secret []byte
}

func NewAuthInterceptor(store *memStore, secret []byte) *AuthInterceptor {
	return &AuthInterceptor{store: store, secret: secret}
}

func (m *AuthInterceptor) AuthenticationInterceptor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methodName := r.Method + " " + r.URL.Path
		if isUnauthorizeAllowed(methodName) {
			next.ServeHTTP(w, r)
			return
		}
		clientIP := request.FindClientIP(r)
		accessToken := getAccessToken(r)

		user, err := m.authenticate(accessToken)
		if err != nil {
			log.Debug("Failed to authenticate user",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", r.UserAgent()),
				zap.Error(err),
			)
			response.Unauthorized(w, r, "Token inválido o expirado")
			return
		}
		role := model.RoleFromWire(user.Role)
		if isOnlyForAdminAllowedPath(methodName) && role != model.RoleAdmin {
			response.Forbidden(w, r, "Solo los administradores pueden realizar esta acción")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, request.UserIDContextKey, user.ID)
		ctx = context.WithValue(ctx, request.UserNameContextKey, user.Username)
		ctx = context.WithValue(ctx, request.UserRolesContextKey, role)
		ctx = context.WithValue(ctx, request.IsAuthenticatedContextKey, true)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthInterceptor) authenticate(accessToken string) (*userRecord, error) {
	claims, err := parseAccessToken(accessToken, m.secret)
	if err != nil {
		return nil, err
	}
	user := m.store.GetUserByID(claims.Subject)
	if user == nil {
		return nil, errUserNotFound
	}
	return user, nil
}
