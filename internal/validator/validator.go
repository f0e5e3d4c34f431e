package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground struct validation plus the service's
// custom rules.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	// score values pushed externally are absolute points, never negative
	_ = validate.RegisterValidation("score_points", func(fl validator.FieldLevel) bool {
		return fl.Field().Float() >= 0
	})

	return &Validator{validate: validate}
}

// Validate validates struct tags and converts failures into
// ValidationErrors.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ToValidationErrors converts go-playground errors into the service's
// validation error type.
func ToValidationErrors(err error) ValidationErrors {
	var out ValidationErrors

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out = append(out, ValidationError{
			Field:   "",
			Message: err.Error(),
			Rule:    "struct",
		})
		return out
	}

	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed on rule %q", fe.Tag()),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}
