package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"ram/internal/domain/ram"
)

// Record exposes field values to in-memory matching. Value returns a
// string, a []string for multi-valued fields, or a time.Time; an empty
// string or zero time means the value is absent. ok is false when the
// record kind has no such field.
type Record interface {
	Value(field Field) (value any, ok bool)
}

// Match evaluates c against r. It applies the same semantics as the SQL
// compilation of c in the persistence layer.
func Match(c Criterion, r Record) (bool, error) {
	switch c.Op {
	case opNone:
		return true, nil
	case OpAnd:
		for _, child := range c.Children {
			ok, err := Match(child, r)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpOr:
		for _, child := range c.Children {
			ok, err := Match(child, r)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		if len(c.Children) != 1 {
			return false, fmt.Errorf("%w: not requires exactly one criterion", ram.ErrInvalidFilter)
		}
		ok, err := Match(c.Children[0], r)
		return !ok && err == nil, err
	}

	raw, ok := r.Value(c.Field)
	if !ok {
		return false, fmt.Errorf("%w: unsupported field %q", ram.ErrInvalidFilter, c.Field)
	}

	switch v := raw.(type) {
	case string:
		return matchStrings(c, presentStrings(v))
	case []string:
		return matchStrings(c, presentStrings(v...))
	case time.Time:
		return matchTime(c, v)
	default:
		return false, fmt.Errorf("%w: field %q has unsupported value type %T", ram.ErrInvalidFilter, c.Field, raw)
	}
}

func presentStrings(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func matchStrings(c Criterion, values []string) (bool, error) {
	switch c.Op {
	case OpExists:
		return len(values) > 0, nil
	case OpMissing:
		return len(values) == 0, nil
	case OpEq, OpIn:
		for _, v := range values {
			if slices.Contains(c.Values, v) {
				return true, nil
			}
		}
		return false, nil
	case OpNotIn:
		for _, v := range values {
			if slices.Contains(c.Values, v) {
				return false, nil
			}
		}
		return true, nil
	case OpContains:
		if len(c.Values) != 1 {
			return false, fmt.Errorf("%w: contains on %s needs one value", ram.ErrInvalidFilter, c.Field)
		}
		needle := FoldCase(c.Values[0])
		for _, v := range values {
			if strings.Contains(FoldCase(v), needle) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s is not defined for text field %s", ram.ErrInvalidFilter, c.Op, c.Field)
	}
}

func matchTime(c Criterion, v time.Time) (bool, error) {
	switch c.Op {
	case OpExists:
		return !v.IsZero(), nil
	case OpMissing:
		return v.IsZero(), nil
	case OpBetween:
		if v.IsZero() {
			return false, nil
		}
		if c.From != nil && v.Before(*c.From) {
			return false, nil
		}
		if c.To != nil && v.After(*c.To) {
			return false, nil
		}
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s is not defined for time field %s", ram.ErrInvalidFilter, c.Op, c.Field)
	}
}
