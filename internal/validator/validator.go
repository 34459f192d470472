package validator // import "github.com/Andres337939/libros-front/internal/validator"

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/util"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their json name so messages match the form.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return util.UsernameMatcher.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateBookPayload checks the create/edit book form. Title and author
// are trimmed before they are checked.
func ValidateBookPayload(p *model.BookPayload) error {
	if p == nil {
		return errors.New("book payload is nil")
	}
	trimmed := *p
	trimmed.Title = strings.TrimSpace(p.Title)
	trimmed.Author = strings.TrimSpace(p.Author)
	return check(&trimmed)
}

func ValidateRegisterRequest(r *model.RegisterRequest) error {
	if r == nil {
		return errors.New("register request is nil")
	}
	trimmed := *r
	trimmed.Username = strings.TrimSpace(r.Username)
	return check(&trimmed)
}

func ValidateSigninRequest(r *model.UserSigninRequest) error {
	if r == nil {
		return errors.New("signin request is nil")
	}
	trimmed := *r
	trimmed.Username = strings.TrimSpace(r.Username)
	return check(&trimmed)
}

func check(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "failed to validate")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return model.NewValidationError(fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		if fe.Param() == "1" {
			return "must be greater than 0"
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "eqfield":
		return "passwords do not match"
	case "username":
		return "only letters, numbers and underscores"
	}
	return fmt.Sprintf("failed on %s", fe.Tag())
}
