package model // import "github.com/Andres337939/libros-front/internal/model"

import "strings"

// Role is the type of a role.
type Role string

const (
	// RoleGuest is an unauthenticated visitor.
	RoleGuest Role = "guest"
	// RoleMember is a regular authenticated user.
	RoleMember Role = "member"
	// RoleAdmin can create, edit and delete books.
	RoleAdmin Role = "admin"
)

func (e Role) String() string {
	switch e {
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "member"
	}
	return "guest"
}

// RoleFromWire normalises the role sent by the API.
func RoleFromWire(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), "admin") {
		return RoleAdmin
	}
	return RoleMember
}

type User struct {
	ID       string `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Role     Role   `json:"role" yaml:"role"`
}

// AuthResult is the body of a successful login.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type UserSigninRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,username"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password,omitempty" validate:"required,eqfield=Password"`
}

// Session is the identity of the running client. Exactly one is live at a time.
type Session struct {
	UserID        string `json:"user_id" yaml:"user_id"`
	Username      string `json:"username" yaml:"username"`
	Role          Role   `json:"role" yaml:"role"`
	AuthToken     string `json:"-" yaml:"-"`
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	// ReauthRequired is set after the server rejected the token. The session
	// is kept so open work is not lost.
	ReauthRequired bool `json:"reauth_required,omitempty" yaml:"reauth_required,omitempty"`
}

func GuestSession() Session {
	return Session{Role: RoleGuest}
}

// NewSession builds an authenticated session for user.
func NewSession(user *User, token string) Session {
	return Session{
		UserID:        user.ID,
		Username:      user.Username,
		Role:          user.Role,
		AuthToken:     token,
		Authenticated: true,
	}
}

func (s Session) IsAdmin() bool {
	return s.Authenticated && s.Role == RoleAdmin
}

func (s Session) User() *User {
	if !s.Authenticated {
		return nil
	}
	return &User{ID: s.UserID, Username: s.Username, Role: s.Role}
}
