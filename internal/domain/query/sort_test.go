package query

import (
	"errors"
	"testing"

	"ram/internal/domain/ram"
)

func TestParseSort(t *testing.T) {
	cases := map[string]Sort{
		"priority":     {Key: SortPriority},
		"-start_date":  {Key: SortStartDate, Desc: true},
		"Name:desc":    {Key: SortName, Desc: true},
		"duration:asc": {Key: SortDuration},
		" root_cause ": {Key: SortRootCause},
	}
	for raw, want := range cases {
		got, err := ParseSort(raw)
		if err != nil {
			t.Fatalf("ParseSort(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseSort(%q) = %+v, want %+v", raw, got, want)
		}
	}

	for _, bad := range []string{"", "-", "name:sideways"} {
		if _, err := ParseSort(bad); !errors.Is(err, ram.ErrInvalidSortKey) {
			t.Fatalf("ParseSort(%q) error = %v, want ErrInvalidSortKey", bad, err)
		}
	}
}

func TestStrategyTableResolve(t *testing.T) {
	table := StrategyTable{
		SortName:     Direct("name"),
		SortPriority: Ranked("priority", Strings(ram.PriorityOrder)),
	}
	got, err := table.Resolve(Sort{Key: SortPriority})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Kind != StrategyRanked || got.Ranking[0] != "BLOCKER" {
		t.Fatalf("Resolve() = %+v", got)
	}
	if _, err := table.Resolve(Sort{Key: SortTicket}); !errors.Is(err, ram.ErrInvalidSortKey) {
		t.Fatalf("Resolve(ticket) error = %v, want ErrInvalidSortKey", err)
	}
}
