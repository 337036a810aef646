package research

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorValidate(t *testing.T) {
	v := NewValidator(3, 10)
	for _, tc := range []struct {
		name string
		raw  string
		want string
		kind ValidationErrorKind
		err  bool
	}{
		{name: "empty", raw: "", kind: EmptyQuery, err: true},
		{name: "whitespace", raw: " \t\n ", kind: EmptyQuery, err: true},
		{name: "too short", raw: " ab ", kind: TooShort, err: true},
		{name: "too long", raw: "abcdefghijk", kind: TooLong, err: true},
		{name: "trimmed", raw: "  golang  ", want: "golang"},
		{name: "bounds inclusive", raw: "abcdefghij", want: "abcdefghij"},
		{name: "characters not bytes", raw: "héllo wörl", want: "héllo wörl"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			q, err := v.Validate(tc.raw)
			if !tc.err {
				require.NoError(t, err)
				require.Equal(t, tc.want, q.String())
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			require.Equal(t, tc.kind, vErr.Kind)
			require.Empty(t, q.String())
		})
	}
}

func TestValidatorDefaults(t *testing.T) {
	v := NewValidator(0, 0)
	q, err := v.Validate("x")
	require.NoError(t, err)
	require.Equal(t, "x", q.String())

	_, err = v.Validate(strings.Repeat("x", 100000))
	require.NoError(t, err)
}

func TestValidationErrorMessages(t *testing.T) {
	v := NewValidator(DefaultMinQueryLength, 5)
	_, err := v.Validate("")
	require.EqualError(t, err, "query cannot be empty")
	_, err = v.Validate("toolong")
	require.EqualError(t, err, "query is too long (maximum 5 characters)")
	require.Equal(t, "too_long", err.(*ValidationError).Kind.String())
}
