package handler

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/content-studio/internal/apperror"
)

// requestValidator wraps go-playground/validator with the rules request DTOs
// need and turns its errors into apperror validation errors.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report the JSON name ("imageUrl"), not the Go name ("ImageURL").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("image_ref", validateImageRef)

	return &requestValidator{validate: v}
}

// Struct validates dto and returns the first failure as an AppError.
func (rv *requestValidator) Struct(dto any) error {
	err := rv.validate.Struct(dto)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("", "invalid request")
	}

	fe := verrs[0]
	return apperror.ValidationFailed(fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "image_ref":
		return fmt.Sprintf("%s must be an http(s) URL or an image data URL", fe.Field())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// validateImageRef accepts absolute http(s) URLs and data:image/ URLs, the
// two forms an image record's URL can take.
func validateImageRef(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.HasPrefix(s, "data:image/") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
