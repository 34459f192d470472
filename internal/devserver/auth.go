package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Andres337939/libros-front/internal/http/response"
	"github.com/Andres337939/libros-front/internal/log"
	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/validator"
)

const (
	// KeyID is the identifier of the signing key carried in the token header.
	KeyID = "v1"
	// Issuer of the access tokens.
	Issuer = "libros-devserver"
	// AccessTokenDuration is the lifetime of an access token.
	AccessTokenDuration = 24 * time.Hour
)

type ClaimsMessage struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a token for the user.
func GenerateAccessToken(u *userRecord, expirationTime time.Time, secret []byte) (string, error) {
	registeredClaims := jwt.RegisteredClaims{
		Issuer:   Issuer,
		Subject:  u.ID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	if !expirationTime.IsZero() {
		registeredClaims.ExpiresAt = jwt.NewNumericDate(expirationTime)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &ClaimsMessage{
		Name:             u.Username,
		Role:             u.Role,
		RegisteredClaims: registeredClaims,
	})
	token.Header["kid"] = KeyID

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func parseAccessToken(accessToken string, secret []byte) (*ClaimsMessage, error) {
	if accessToken == "" {
		return nil, errors.New("no access token provided")
	}
	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, errors.New("unexpected signing method")
		}
		if kid, ok := t.Header["kid"].(string); !ok || kid != KeyID {
			return nil, errors.New("unexpected key id")
		}
		return secret, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, errors.Wrap(err, "invalid or expired access token")
	}
	return claims, nil
}

func getAccessToken(r *http.Request) string {
	authorizationHeaders := r.Header.Get("Authorization")
	if authorizationHeaders != "" {
		splitToken := strings.Split(authorizationHeaders, "Bearer ")
		if len(splitToken) == 2 {
			return strings.TrimSpace(splitToken[1])
		}
	}
	return ""
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toUserResponse(u *userRecord) *userResponse {
	return &userResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var signin credentials
	if err := json.NewDecoder(r.Body).Decode(&signin); err != nil {
		log.Debug("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, errors.New("Cuerpo de la petición inválido"))
		return
	}
	if strings.TrimSpace(signin.Username) == "" || signin.Password == "" {
		response.BadRequest(w, r, errors.New("Usuario y contraseña son requeridos"))
		return
	}

	user := s.store.GetUserByName(strings.TrimSpace(signin.Username))
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(signin.Password)) != nil {
		response.Unauthorized(w, r, "Credenciales incorrectas")
		return
	}

	token, err := GenerateAccessToken(user, time.Now().Add(AccessTokenDuration), s.secret)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, map[string]any{
		"token": token,
		"user":  toUserResponse(user),
	})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var signup credentials
	if err := json.NewDecoder(r.Body).Decode(&signup); err != nil {
		log.Debug("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, errors.New("Cuerpo de la petición inválido"))
		return
	}

	if err := validator.ValidateRegisterRequest(&model.RegisterRequest{
		Username:        signup.Username,
		Password:        signup.Password,
		ConfirmPassword: signup.Password,
	}); err != nil {
		response.BadRequest(w, r, err)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(signup.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to generate password hash", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	user, ok := s.store.CreateUser(&userRecord{
		Username:     strings.TrimSpace(signup.Username),
		PasswordHash: string(passwordHash),
		Role:         wireRoleUser,
	})
	if !ok {
		response.BadRequest(w, r, errors.New("El usuario ya existe"))
		return
	}

	response.Created(w, r, map[string]any{
		"message": "Usuario registrado correctamente",
		"user":    toUserResponse(user),
	})
}
