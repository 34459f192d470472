package api

import (
	"context"
	"net/http"

	"github.com/Andres337939/libros-front/internal/model"
)

// Authenticate exchanges credentials for a token and the user record.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*model.AuthResult, error) {
	var auth wireAuth
	in := &model.UserSigninRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, "", in, &auth); err != nil {
		return nil, err
	}
	if auth.Token == "" || auth.User == nil {
		return nil, &model.Error{Kind: model.KindServer, Status: http.StatusOK, Message: "login response is missing token or user"}
	}
	return &model.AuthResult{Token: auth.Token, User: auth.User.toModel()}, nil
}

// Register creates an account. Only username and password are sent.
func (c *Client) Register(ctx context.Context, username, password string) error {
	in := &model.UserSigninRequest{Username: username, Password: password}
	return c.do(ctx, http.MethodPost, "/auth/register", nil, "", in, nil)
}
