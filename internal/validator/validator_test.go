package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres337939/libros-front/internal/model"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var e *model.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, model.KindValidation, e.Kind)
	return e.Fields
}

func TestValidateBookPayload(t *testing.T) {
	ok := &model.BookPayload{Title: "Dune", Author: "Frank Herbert", Pages: 412, Year: 1965}
	assert.NoError(t, ValidateBookPayload(ok))

	fields := fieldsOf(t, ValidateBookPayload(&model.BookPayload{Title: "   ", Author: "", Pages: 0}))
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "is required", fields["author"])
	assert.Equal(t, "must be greater than 0", fields["pages"])

	fields = fieldsOf(t, ValidateBookPayload(&model.BookPayload{Title: "T", Author: "A", Pages: 1, ImageURL: "not a url", Rating: 7}))
	assert.Contains(t, fields, "image")
	assert.Contains(t, fields, "rating")

	fields = fieldsOf(t, ValidateBookPayload(&model.BookPayload{Title: "T", Author: "A", Pages: 1, Status: model.StatusReserved}))
	assert.Contains(t, fields, "status")

	assert.Error(t, ValidateBookPayload(nil))
}

func TestValidateRegisterRequest(t *testing.T) {
	tests := []struct {
		name  string
		req   model.RegisterRequest
		field string
	}{
		{"valid", model.RegisterRequest{Username: "ana_1", Password: "secret1", ConfirmPassword: "secret1"}, ""},
		{"empty username", model.RegisterRequest{Username: "  ", Password: "secret1", ConfirmPassword: "secret1"}, "username"},
		{"short username", model.RegisterRequest{Username: "ab", Password: "secret1", ConfirmPassword: "secret1"}, "username"},
		{"bad characters", model.RegisterRequest{Username: "ana-1", Password: "secret1", ConfirmPassword: "secret1"}, "username"},
		{"short password", model.RegisterRequest{Username: "ana", Password: "123", ConfirmPassword: "123"}, "password"},
		{"mismatch", model.RegisterRequest{Username: "ana", Password: "secret1", ConfirmPassword: "secret2"}, "confirm_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegisterRequest(&tt.req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldsOf(t, err), tt.field)
		})
	}
}

func TestValidateSigninRequest(t *testing.T) {
	assert.NoError(t, ValidateSigninRequest(&model.UserSigninRequest{Username: "admin", Password: "x"}))
	fields := fieldsOf(t, ValidateSigninRequest(&model.UserSigninRequest{Username: " "}))
	assert.Len(t, fields, 2)
}
