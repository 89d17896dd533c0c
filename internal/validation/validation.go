// Package validation checks inbound request payloads before they reach persistence.
//
// Every exported function is total over arbitrary bytes: malformed JSON, non-object bodies,
// wrong field types and out-of-bound values all produce an error wrapping [shared.ErrValidation].
// An optional field may be omitted but not sent as null. Unknown fields are ignored.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/desertthunder/checklists/internal/shared"
	"github.com/go-playground/validator/v10"
)

// Field bounds, in characters.
const (
	MinPasswordLength = 8
	MaxTitleLength    = 200
	MaxContentLength  = 500
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(jsonName)
}

// Signup is a validated signup payload.
type Signup struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     *string `json:"name" validate:"omitnil,min=1"`
}

// CreateChecklist is a validated create-checklist payload.
type CreateChecklist struct {
	Title string `json:"title" validate:"required,max=200"`
}

// UpdateChecklist is a validated rename payload. A nil Title changes nothing.
type UpdateChecklist struct {
	Title *string `json:"title" validate:"omitnil,min=1,max=200"`
}

// CreateItem is a validated create-item payload.
type CreateItem struct {
	ChecklistID string `json:"checklistId" validate:"required"`
	Content     string `json:"content" validate:"required,max=500"`
}

// UpdateItem is a validated item update. Both fields are optional.
type UpdateItem struct {
	Content   *string `json:"content" validate:"omitnil,min=1,max=500"`
	Completed *bool   `json:"completed"`
}

// Login is a validated login payload. Only presence is checked so that
// bad credentials and malformed ones are indistinguishable beyond 400 vs 401.
type Login struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Error describes why a payload was rejected. It always wraps [shared.ErrValidation].
type Error struct {
	Fields []FieldError
	cause  error
}

// FieldError names a rejected field and the rule it failed.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		if e.cause != nil {
			return fmt.Sprintf("%v: %v", shared.ErrValidation, e.cause)
		}
		return shared.ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return fmt.Sprintf("%v: %s", shared.ErrValidation, strings.Join(parts, ", "))
}

func (e *Error) Unwrap() error {
	return shared.ErrValidation
}

// ValidateSignup checks {email, password, name?}.
func ValidateSignup(payload []byte) (*Signup, error) {
	return parse[Signup](payload)
}

// ValidateLogin checks {email, password}.
func ValidateLogin(payload []byte) (*Login, error) {
	return parse[Login](payload)
}

// ValidateCreateChecklist checks {title} with title in [1,200].
func ValidateCreateChecklist(payload []byte) (*CreateChecklist, error) {
	return parse[CreateChecklist](payload)
}

// ValidateUpdateChecklist checks {title?}.
func ValidateUpdateChecklist(payload []byte) (*UpdateChecklist, error) {
	return parse[UpdateChecklist](payload)
}

// ValidateCreateItem checks {checklistId, content} with content in [1,500].
func ValidateCreateItem(payload []byte) (*CreateItem, error) {
	return parse[CreateItem](payload)
}

// ValidateUpdateItem checks {content?, completed?}. A payload with neither field is valid.
func ValidateUpdateItem(payload []byte) (*UpdateItem, error) {
	return parse[UpdateItem](payload)
}

// parse decodes payload into T and runs its struct tags.
func parse[T any](payload []byte) (*T, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &Error{cause: errors.New("payload must be a JSON object")}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, decodeError(err)
	}
	if fields := nullFields[T](raw); len(fields) > 0 {
		return nil, &Error{Fields: fields}
	}

	var out T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, decodeError(err)
	}

	if err := validate.Struct(&out); err != nil {
		return nil, structError(err)
	}

	return &out, nil
}

// nullFields reports the fields of T that are present in raw with a null value, in declaration order.
func nullFields[T any](raw map[string]json.RawMessage) []FieldError {
	var fields []FieldError
	typ := reflect.TypeFor[T]()
	for i := range typ.NumField() {
		name := jsonName(typ.Field(i))
		if name == "" {
			continue
		}
		for k, v := range raw {
			if strings.EqualFold(k, name) && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				fields = append(fields, FieldError{Field: name, Rule: "type"})
				break
			}
		}
	}
	return fields
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &Error{Fields: []FieldError{{Field: typeErr.Field, Rule: "type"}}, cause: err}
	}
	return &Error{cause: err}
}

func structError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{cause: err}
	}

	out := &Error{cause: err}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
