package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/neurondb/NeuronFlow/internal/engine"
)

/* Validator turns raw requests into typed models using struct tag schemas */
type Validator struct {
	validate *validator.Validate
}

/* New creates a validator with the engine's custom rules registered */
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("action_type", func(fl validator.FieldLevel) bool {
		return engine.ActionType(fl.Field().String()).IsValid()
	})

	/* accept every form uuid.Parse accepts, not only lowercase */
	_ = v.RegisterValidation("uuid", func(fl validator.FieldLevel) bool {
		_, err := uuid.Parse(fl.Field().String())
		return err == nil
	})

	return &Validator{validate: v}
}

/* Struct validates s against its tags and collects every violation */
func (v *Validator) Struct(s interface{}) *ValidationError {
	out := &ValidationError{}
	err := v.validate.Struct(s)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("body", err.Error())
		return out
	}
	for _, fe := range verrs {
		field := fe.Namespace()
		/* drop the top-level struct name */
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		out.Add(field, message(fe.Tag(), fe.Param(), fe.Kind()))
	}
	return out
}

/* Var validates a single value under the given field name */
func (v *Validator) Var(field string, value interface{}, tag string) *ValidationError {
	out := &ValidationError{}
	err := v.validate.Var(value, tag)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add(field, err.Error())
		return out
	}
	for _, fe := range verrs {
		out.Add(field, message(fe.Tag(), fe.Param(), fe.Kind()))
	}
	return out
}

func message(tag, param string, kind reflect.Kind) string {
	switch tag {
	case "required":
		return "is required"
	case "max":
		if kind == reflect.String {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		return fmt.Sprintf("must be at most %s", param)
	case "min":
		if kind == reflect.String {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		return fmt.Sprintf("must be at least %s", param)
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "action_type":
		return "must be one of: " + strings.Join(engine.ActionTypeNames(), ", ")
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "datetime":
		return "must be an RFC3339 timestamp"
	case "numeric", "number":
		return "must be a number"
	default:
		return fmt.Sprintf("failed on the '%s' rule", tag)
	}
}

/*
 * decodeJSON decodes the request body into dst, rejecting unknown keys.
 * Oversized bodies surface the *http.MaxBytesError unchanged.
 */
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return NewValidationError("body", "request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return err
		case errors.Is(err, io.EOF):
			return NewValidationError("body", "request body is required")
		default:
			return decodeError(err, "")
		}
	}
	if dec.More() {
		return NewValidationError("body", "must contain a single JSON object")
	}
	return nil
}

/* decodeError maps a strict decoding failure to a validation error, nesting field names under prefix */
func decodeError(err error, prefix string) *ValidationError {
	field := func(name string) string {
		switch {
		case prefix == "":
			return name
		case name == "":
			return prefix
		default:
			return prefix + "." + name
		}
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		name := field(typeErr.Field)
		if name == "" {
			name = "body"
		}
		return NewValidationError(name, fmt.Sprintf("must be of type %s", typeErr.Type))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return NewValidationError(field(name), "is not allowed")
	default:
		name := field("")
		if name == "" {
			name = "body"
		}
		return NewValidationError(name, "invalid JSON: "+err.Error())
	}
}
