package query

import (
	"fmt"
	"strings"

	"ram/internal/domain/ram"
)

type SortKey string

const (
	SortName          SortKey = "name"
	SortStartDate     SortKey = "start_date"
	SortFinishDate    SortKey = "finish_date"
	SortDuration      SortKey = "duration"
	SortTestingStatus SortKey = "testing_status"
	SortTestCase      SortKey = "test_case"
	SortRootCause     SortKey = "root_cause"
	SortMessage       SortKey = "message"
	SortPriority      SortKey = "priority"
	SortTicket        SortKey = "ticket"
	SortFailPattern   SortKey = "fail_pattern"
)

type Sort struct {
	Key  SortKey
	Desc bool
}

// ParseSort reads "key", "-key" or "key:desc"/"key:asc".
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	var s Sort
	if strings.HasPrefix(raw, "-") {
		s.Desc = true
		raw = raw[1:]
	}
	if key, dir, ok := strings.Cut(raw, ":"); ok {
		switch strings.ToLower(dir) {
		case "desc":
			s.Desc = true
		case "asc":
		default:
			return Sort{}, fmt.Errorf("%w: direction %q", ram.ErrInvalidSortKey, dir)
		}
		raw = key
	}
	if raw == "" {
		return Sort{}, fmt.Errorf("%w: empty sort key", ram.ErrInvalidSortKey)
	}
	s.Key = SortKey(strings.ToLower(raw))
	return s, nil
}

func ParseSorts(raws []string) ([]Sort, error) {
	out := make([]Sort, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		s, err := ParseSort(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

type StrategyKind int

const (
	// StrategyDirect orders by a stored column.
	StrategyDirect StrategyKind = iota + 1
	// StrategyRanked orders by the position of a column value in an ordered table.
	StrategyRanked
	// StrategyJoined orders by a column of a related row looked up through a key.
	StrategyJoined
	// StrategyDerived orders by a computed expression.
	StrategyDerived
)

// Strategy says how a sort key becomes an ordering expression. Only the
// fields of its Kind are set.
type Strategy struct {
	Kind StrategyKind

	Column  string   // direct, ranked
	Ranking []string // ranked

	Table     string // joined
	LocalKey  string // joined
	Projected string // joined

	Expr string // derived
}

func Direct(column string) Strategy {
	return Strategy{Kind: StrategyDirect, Column: column}
}

func Ranked(column string, ranking []string) Strategy {
	return Strategy{Kind: StrategyRanked, Column: column, Ranking: ranking}
}

func Joined(table, localKey, projected string) Strategy {
	return Strategy{Kind: StrategyJoined, Table: table, LocalKey: localKey, Projected: projected}
}

func Derived(expr string) Strategy {
	return Strategy{Kind: StrategyDerived, Expr: expr}
}

// StrategyTable maps the sort keys a collection supports to strategies.
type StrategyTable map[SortKey]Strategy

func (t StrategyTable) Resolve(s Sort) (Strategy, error) {
	strategy, ok := t[s.Key]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", ram.ErrInvalidSortKey, s.Key)
	}
	return strategy, nil
}

func (t StrategyTable) Keys() []SortKey {
	keys := make([]SortKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	return keys
}
