package fields

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf8"
)

var (
	ErrEmpty     = errors.New("empty")
	ErrNotInt    = errors.New("not an integer")
	ErrNotScalar = errors.New("multiple values given")
	ErrTooLong   = errors.New("too long")
	ErrNotOneOf  = errors.New("not one of allowed values")
)

// Constraint either transforms the value or rejects it. Values produced by Match are
// either string or []string, however constraints earlier in the chain may change the type.
type Constraint interface {
	Apply(value any) (any, error)
}

// ConstraintFunc adapts a function to the Constraint interface.
type ConstraintFunc func(value any) (any, error)

func (c ConstraintFunc) Apply(value any) (any, error) {
	return c(value)
}

// Func applies the function to every string value, either a single one or each of the list.
func Func(fn func(string) (any, error)) Constraint {
	return ConstraintFunc(func(value any) (any, error) {
		switch v := value.(type) {
		case string:
			return fn(v)
		case []string:
			result := make([]any, 0, len(v))
			for _, elem := range v {
				out, err := fn(elem)
				if err != nil {
					return nil, err
				}

				result = append(result, out)
			}

			return result, nil
		default:
			return nil, fmt.Errorf("unexpected type %T", value)
		}
	})
}

// Int converts the value into an int. Lists of values are rejected.
var Int Constraint = ConstraintFunc(func(value any) (any, error) {
	str, ok := value.(string)
	if !ok {
		return nil, ErrNotScalar
	}

	num, err := strconv.Atoi(str)
	if err != nil {
		return nil, ErrNotInt
	}

	return num, nil
})

// NonEmpty rejects empty strings and empty lists.
var NonEmpty Constraint = ConstraintFunc(func(value any) (any, error) {
	switch v := value.(type) {
	case string:
		if len(v) == 0 {
			return nil, ErrEmpty
		}
	case []string:
		if len(v) == 0 {
			return nil, ErrEmpty
		}
	}

	return value, nil
})

// List turns a single value into a list of one value, so the field is always a []string.
var List Constraint = ConstraintFunc(func(value any) (any, error) {
	if str, ok := value.(string); ok {
		return []string{str}, nil
	}

	return value, nil
})

// OneOf rejects string values not listed among allowed ones.
func OneOf(allowed ...string) Constraint {
	return ConstraintFunc(func(value any) (any, error) {
		str, ok := value.(string)
		if !ok {
			return nil, ErrNotScalar
		}

		if !slices.Contains(allowed, str) {
			return nil, ErrNotOneOf
		}

		return str, nil
	})
}

// MaxLen rejects strings longer than n characters.
func MaxLen(n int) Constraint {
	return Func(func(str string) (any, error) {
		if utf8.RuneCountInString(str) > n {
			return nil, ErrTooLong
		}

		return str, nil
	})
}
