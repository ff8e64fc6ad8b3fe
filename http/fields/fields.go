// Package fields extracts and validates flat sets of key-value pairs, e.g. query
// parameters, cookies or url-encoded forms, against a declarative spec.
package fields

import (
	"errors"
	"iter"
	"maps"
	"slices"

	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/internal/strutil"
)

// ErrRequired is the reason recorded for missing fields without a default value.
var ErrRequired = errors.New("required")

// Field is a single entry of the Spec. Use Key, Constrained or Optional to construct one.
type Field struct {
	Key         string
	Constraints []Constraint
	Default     any
	optional    bool
}

// Key declares a required field without constraints.
func Key(key string) Field {
	return Field{Key: key}
}

// Constrained declares a required field whose value is passed through the constraints.
func Constrained(key string, constraints ...Constraint) Field {
	return Field{Key: key, Constraints: constraints}
}

// Optional declares a field which is substituted by the default value when missing. The
// default value is installed as-is, without being passed through the constraints.
func Optional(key string, def any, constraints ...Constraint) Field {
	return Field{Key: key, Constraints: constraints, Default: def, optional: true}
}

// Required tells whether the field has no default value.
func (f Field) Required() bool {
	return !f.optional
}

type Spec []Field

// Errors maps keys of failed fields to the reasons.
type Errors map[string]error

func (e Errors) Error() string {
	reasons := func(yield func(string) bool) {
		for _, key := range slices.Sorted(maps.Keys(e)) {
			if !yield(key + ": " + e[key].Error()) {
				return
			}
		}
	}

	return status.ErrValidationFailed.Error() + ": " + strutil.Join(reasons, ", ")
}

func (e Errors) Unwrap() error {
	return status.ErrValidationFailed
}

// Match builds a record out of the pairs, keeping only those declared in the spec, and
// validates it. A key met once results in a string value. Repeated keys result in a []string,
// ordered from the most recently met value to the first one. Every field is validated, so
// the returned Errors holds every failure, not only the first one.
func Match(spec Spec, pairs iter.Seq2[string, string]) (map[string]any, error) {
	values := build(spec, pairs)
	errs := make(Errors)

	for _, field := range spec {
		value, found := values[field.Key]
		switch {
		case !found && field.optional:
			values[field.Key] = field.Default
		case !found:
			errs[field.Key] = ErrRequired
		default:
			value, err := apply(field.Constraints, value)
			if err != nil {
				errs[field.Key] = err
				delete(values, field.Key)
				continue
			}

			values[field.Key] = value
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return values, nil
}

func build(spec Spec, pairs iter.Seq2[string, string]) map[string]any {
	values := make(map[string]any, len(spec))

	for key, value := range pairs {
		if !declared(spec, key) {
			continue
		}

		switch prev := values[key].(type) {
		case nil:
			values[key] = value
		case string:
			values[key] = []string{value, prev}
		case []string:
			values[key] = append([]string{value}, prev...)
		}
	}

	return values
}

func declared(spec Spec, key string) bool {
	return slices.ContainsFunc(spec, func(f Field) bool {
		return f.Key == key
	})
}

func apply(constraints []Constraint, value any) (any, error) {
	for _, constraint := range constraints {
		var err error
		if value, err = constraint.Apply(value); err != nil {
			return nil, err
		}
	}

	return value, nil
}
