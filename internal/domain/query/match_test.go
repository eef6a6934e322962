package query

import (
	"errors"
	"testing"
	"time"

	"ram/internal/domain/ram"
)

type testRecord map[Field]any

func (r testRecord) Value(field Field) (any, bool) {
	v, ok := r[field]
	return v, ok
}

func TestMatchContainsIsLiteral(t *testing.T) {
	criterion := Contains(FieldName, "a.b*c")

	literal := testRecord{FieldName: "step A.B*C done"}
	ok, err := Match(criterion, literal)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !ok {
		t.Fatalf("Match(literal) = false, want true")
	}

	// "a.b*c" as a regex would match "axbbbc".
	regexOnly := testRecord{FieldName: "axbbbc"}
	ok, err = Match(criterion, regexOnly)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if ok {
		t.Fatalf("Match(regex-only) = true, want false")
	}
}

func TestMatchSetsAndPresence(t *testing.T) {
	rec := testRecord{
		FieldTestingStatus: "FAILED",
		FieldParentID:      "",
		FieldLabel:         []string{"smoke", "nightly"},
	}

	cases := []struct {
		name string
		c    Criterion
		want bool
	}{
		{"in hit", In(FieldTestingStatus, "PASSED", "FAILED"), true},
		{"in miss", In(FieldTestingStatus, "PASSED"), false},
		{"not in", NotIn(FieldTestingStatus, "PASSED"), true},
		{"missing parent", Missing(FieldParentID), true},
		{"exists parent", Exists(FieldParentID), false},
		{"multi in", In(FieldLabel, "nightly"), true},
		{"multi not in", NotIn(FieldLabel, "smoke"), false},
		{"and", And(Eq(FieldTestingStatus, "FAILED"), Missing(FieldParentID)), true},
		{"or", Or(Eq(FieldTestingStatus, "PASSED"), Exists(FieldLabel)), true},
		{"not", Not(Eq(FieldTestingStatus, "FAILED")), false},
		{"zero", All(), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Match(tc.c, rec)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("Match(%s) = %v, want %v", tc.c, got, tc.want)
			}
		})
	}
}

func TestMatchBetween(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	from := start.Add(-time.Hour)
	to := start.Add(time.Hour)
	rec := testRecord{FieldStartDate: start}

	ok, err := Match(Between(FieldStartDate, &from, &to), rec)
	if err != nil || !ok {
		t.Fatalf("Match(between) = %v, %v", ok, err)
	}
	ok, err = Match(Between(FieldStartDate, &to, nil), rec)
	if err != nil || ok {
		t.Fatalf("Match(after) = %v, %v", ok, err)
	}
	ok, err = Match(Between(FieldStartDate, nil, &to), testRecord{FieldStartDate: time.Time{}})
	if err != nil || ok {
		t.Fatalf("Match(absent) = %v, %v", ok, err)
	}
}

func TestMatchUnknownField(t *testing.T) {
	_, err := Match(Eq(FieldPriority, "MAJOR"), testRecord{})
	if !errors.Is(err, ram.ErrInvalidFilter) {
		t.Fatalf("Match() error = %v, want ErrInvalidFilter", err)
	}
}

func TestMatchContainsFoldsNonASCII(t *testing.T) {
	ok, err := Match(Contains(FieldName, "über"), testRecord{FieldName: "ÜBER Login"})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !ok {
		t.Fatalf("Match(ÜBER Login, über) = false, want true")
	}
}

func TestContainsPattern(t *testing.T) {
	if got := ContainsPattern("50%_A\\b"); got != `%50\%\_a\\b%` {
		t.Fatalf("ContainsPattern() = %q", got)
	}
	if got := ContainsPattern("ÜBER"); got != "%über%" {
		t.Fatalf("ContainsPattern(ÜBER) = %q", got)
	}
}
