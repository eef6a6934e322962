// Package query models filters, sort keys and page requests independently of
// the store. A Criterion tree is compiled to SQL by the persistence layer and
// evaluated in memory by Match; both readings must agree.
package query

import (
	"fmt"
	"strings"
	"time"

	"ram/internal/domain/ram"
)

// Field names an attribute a criterion can test. Which fields a record
// supports depends on its kind.
type Field string

const (
	FieldID                 Field = "id"
	FieldParentID           Field = "parent_id"
	FieldTestRunID          Field = "test_run_id"
	FieldExecutionRequestID Field = "execution_request_id"
	FieldProjectID          Field = "project_id"
	FieldName               Field = "name"
	FieldMessage            Field = "message"
	FieldType               Field = "type"
	FieldTestingStatus      Field = "testing_status"
	FieldExecutionStatus    Field = "execution_status"
	FieldStartDate          Field = "start_date"
	FieldCreatedAt          Field = "created_at"
	FieldFileType           Field = "file_type"
	FieldTestCaseID         Field = "test_case_id"
	FieldRootCauseID        Field = "root_cause_id"
	FieldFailPatternID      Field = "fail_pattern_id"
	FieldPriority           Field = "priority"

	// Multi-valued fields: a criterion matches when any element matches.
	FieldLabel       Field = "label"
	FieldTicket      Field = "ticket"
	FieldLogRecordID Field = "log_record_id"
)

type Op int

const (
	opNone Op = iota
	OpEq
	OpIn
	OpNotIn
	OpContains
	OpExists
	OpMissing
	OpBetween
	OpAnd
	OpOr
	OpNot
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpIn:
		return "in"
	case OpNotIn:
		return "not_in"
	case OpContains:
		return "contains"
	case OpExists:
		return "exists"
	case OpMissing:
		return "missing"
	case OpBetween:
		return "between"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	default:
		return "none"
	}
}

// Criterion is a node in a filter tree. The zero value matches everything.
type Criterion struct {
	Op       Op
	Field    Field
	Values   []string
	From     *time.Time
	To       *time.Time
	Children []Criterion
}

// All returns the criterion that matches every record.
func All() Criterion { return Criterion{} }

func Eq(field Field, value string) Criterion {
	return Criterion{Op: OpEq, Field: field, Values: []string{value}}
}

func In(field Field, values ...string) Criterion {
	return Criterion{Op: OpIn, Field: field, Values: values}
}

func NotIn(field Field, values ...string) Criterion {
	return Criterion{Op: OpNotIn, Field: field, Values: values}
}

// Contains matches values holding substr literally, ignoring case.
func Contains(field Field, substr string) Criterion {
	return Criterion{Op: OpContains, Field: field, Values: []string{substr}}
}

// Exists matches a present, non-empty value.
func Exists(field Field) Criterion {
	return Criterion{Op: OpExists, Field: field}
}

// Missing matches an absent or empty value.
func Missing(field Field) Criterion {
	return Criterion{Op: OpMissing, Field: field}
}

// Between matches times within [from, to]; either bound may be nil.
func Between(field Field, from, to *time.Time) Criterion {
	return Criterion{Op: OpBetween, Field: field, From: from, To: to}
}

func And(children ...Criterion) Criterion {
	return Criterion{Op: OpAnd, Children: children}
}

func Or(children ...Criterion) Criterion {
	return Criterion{Op: OpOr, Children: children}
}

func Not(child Criterion) Criterion {
	return Criterion{Op: OpNot, Children: []Criterion{child}}
}

// Strings converts typed enum values for use with In and NotIn.
func Strings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// IsZero reports whether c is the match-all criterion.
func (c Criterion) IsZero() bool { return c.Op == opNone }

// Validate checks the whole tree. Every failure wraps ram.ErrInvalidFilter.
func (c Criterion) Validate() error {
	switch c.Op {
	case opNone:
		return nil
	case OpAnd, OpOr:
		if len(c.Children) == 0 {
			return fmt.Errorf("%w: %s requires at least one criterion", ram.ErrInvalidFilter, c.Op)
		}
		for _, child := range c.Children {
			if child.IsZero() {
				return fmt.Errorf("%w: empty criterion inside %s", ram.ErrInvalidFilter, c.Op)
			}
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	case OpNot:
		if len(c.Children) != 1 || c.Children[0].IsZero() {
			return fmt.Errorf("%w: not requires exactly one criterion", ram.ErrInvalidFilter)
		}
		return c.Children[0].Validate()
	}

	if strings.TrimSpace(string(c.Field)) == "" {
		return fmt.Errorf("%w: %s without field", ram.ErrInvalidFilter, c.Op)
	}

	switch c.Op {
	case OpEq:
		if len(c.Values) != 1 {
			return fmt.Errorf("%w: eq on %s needs one value", ram.ErrInvalidFilter, c.Field)
		}
	case OpIn, OpNotIn:
		if len(c.Values) == 0 {
			return fmt.Errorf("%w: %s on %s with empty set", ram.ErrInvalidFilter, c.Op, c.Field)
		}
	case OpContains:
		if len(c.Values) != 1 || c.Values[0] == "" {
			return fmt.Errorf("%w: contains on %s needs a non-empty substring", ram.ErrInvalidFilter, c.Field)
		}
	case OpBetween:
		if c.From == nil && c.To == nil {
			return fmt.Errorf("%w: between on %s without bounds", ram.ErrInvalidFilter, c.Field)
		}
		if c.From != nil && c.To != nil && c.From.After(*c.To) {
			return fmt.Errorf("%w: between on %s with inverted bounds", ram.ErrInvalidFilter, c.Field)
		}
	case OpExists, OpMissing:
	default:
		return fmt.Errorf("%w: unknown operator %d", ram.ErrInvalidFilter, int(c.Op))
	}
	return nil
}

// AndRequired combines the non-zero criteria with AND. Unlike And it
// refuses an empty list, so a search cannot silently widen to the whole
// collection.
func AndRequired(what string, criteria ...Criterion) (Criterion, error) {
	kept := make([]Criterion, 0, len(criteria))
	for _, c := range criteria {
		if !c.IsZero() {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return Criterion{}, fmt.Errorf("%w: %s requires at least one criterion", ram.ErrInvalidFilter, what)
	case 1:
		return kept[0], kept[0].Validate()
	}
	combined := And(kept...)
	return combined, combined.Validate()
}

// AndOptional combines the non-zero criteria; no criteria yields All.
func AndOptional(criteria ...Criterion) Criterion {
	kept := make([]Criterion, 0, len(criteria))
	for _, c := range criteria {
		if !c.IsZero() {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return All()
	case 1:
		return kept[0]
	}
	return And(kept...)
}

func (c Criterion) String() string {
	switch c.Op {
	case opNone:
		return "all"
	case OpAnd, OpOr:
		parts := make([]string, len(c.Children))
		for i, child := range c.Children {
			parts[i] = child.String()
		}
		return "(" + strings.Join(parts, " "+c.Op.String()+" ") + ")"
	case OpNot:
		if len(c.Children) == 1 {
			return "not " + c.Children[0].String()
		}
		return "not ?"
	case OpExists, OpMissing:
		return fmt.Sprintf("%s %s", c.Field, c.Op)
	case OpBetween:
		return fmt.Sprintf("%s between %s..%s", c.Field, fmtBound(c.From), fmtBound(c.To))
	default:
		return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Values)
	}
}

func fmtBound(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.UTC().Format(time.RFC3339)
}
