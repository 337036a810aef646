package research

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultMinQueryLength = 1
	DefaultMaxQueryLength = 1000
)

// ValidationErrorKind classifies a rejected query
type ValidationErrorKind int

const (
	EmptyQuery ValidationErrorKind = iota
	TooShort
	TooLong
)

func (k ValidationErrorKind) String() string {
	switch k {
	case EmptyQuery:
		return "empty_query"
	case TooShort:
		return "too_short"
	case TooLong:
		return "too_long"
	default:
		return "unknown"
	}
}

// ValidationError is returned by Validator.Validate
type ValidationError struct {
	Kind    ValidationErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Query is a validated research question
type Query struct {
	text string
}

func (q Query) String() string {
	return q.text
}

// Validator checks raw input against the length bounds of a Query.
// Lengths are counted in characters.
type Validator struct {
	min      int
	max      int
	validate *validator.Validate
}

// NewValidator returns a Validator, min < 1 is raised to 1 and max <= 0
// disables the upper bound
func NewValidator(minLen int, maxLen int) *Validator {
	return &Validator{
		min:      max(minLen, 1),
		max:      maxLen,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate trims raw and checks it, returning a *ValidationError on failure
func (v *Validator) Validate(raw string) (Query, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Query{}, &ValidationError{Kind: EmptyQuery, Message: "query cannot be empty"}
	}
	rule := fmt.Sprintf("min=%d", v.min)
	if v.max > 0 {
		rule = fmt.Sprintf("%s,max=%d", rule, v.max)
	}
	if err := v.validate.Var(text, rule); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return Query{}, err
		}
		switch fieldErrs[0].Tag() {
		case "max":
			return Query{}, &ValidationError{Kind: TooLong, Message: fmt.Sprintf("query is too long (maximum %d characters)", v.max)}
		default:
			return Query{}, &ValidationError{Kind: TooShort, Message: fmt.Sprintf("query is too short (minimum %d characters)", v.min)}
		}
	}
	return Query{text: text}, nil
}
