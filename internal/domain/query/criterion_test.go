package query

import (
	"errors"
	"testing"
	"time"

	"ram/internal/domain/ram"
)

func TestValidateRejectsMalformedCriteria(t *testing.T) {
	later := time.Now()
	earlier := later.Add(-time.Hour)

	cases := map[string]Criterion{
		"empty and":       And(),
		"empty or":        Or(),
		"zero child":      And(Eq(FieldName, "x"), All()),
		"empty in":        In(FieldID),
		"empty contains":  Contains(FieldName, ""),
		"no bounds":       Between(FieldStartDate, nil, nil),
		"inverted bounds": Between(FieldStartDate, &later, &earlier),
		"no field":        Eq("", "x"),
		"bare not":        {Op: OpNot},
	}
	for name, c := range cases {
		if err := c.Validate(); !errors.Is(err, ram.ErrInvalidFilter) {
			t.Fatalf("%s: Validate() error = %v, want ErrInvalidFilter", name, err)
		}
	}

	if err := All().Validate(); err != nil {
		t.Fatalf("All().Validate() error = %v", err)
	}
}

func TestAndRequired(t *testing.T) {
	if _, err := AndRequired("search", All(), All()); !errors.Is(err, ram.ErrInvalidFilter) {
		t.Fatalf("AndRequired(zero) error = %v, want ErrInvalidFilter", err)
	}

	single, err := AndRequired("search", All(), Eq(FieldName, "x"))
	if err != nil {
		t.Fatalf("AndRequired(single) error = %v", err)
	}
	if single.Op != OpEq {
		t.Fatalf("AndRequired(single) op = %s, want eq", single.Op)
	}

	combined, err := AndRequired("search", Eq(FieldName, "x"), Exists(FieldParentID))
	if err != nil {
		t.Fatalf("AndRequired(two) error = %v", err)
	}
	if combined.Op != OpAnd || len(combined.Children) != 2 {
		t.Fatalf("AndRequired(two) = %s", combined)
	}
}

func TestAndOptional(t *testing.T) {
	if !AndOptional(All()).IsZero() {
		t.Fatalf("AndOptional(zero) should be zero")
	}
	if got := AndOptional(In(FieldType, "UI")); got.Op != OpIn {
		t.Fatalf("AndOptional(single) = %s", got)
	}
}
