package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm/clause"

	"ram/internal/domain/query"
	"ram/internal/domain/ram"
	"ram/internal/errs"
)

var testRunSorts = query.StrategyTable{
	query.SortName:          query.Direct("name"),
	query.SortStartDate:     query.Direct("start_date"),
	query.SortFinishDate:    query.Direct("finish_date"),
	query.SortDuration:      query.Direct("duration"),
	query.SortTestCase:      query.Direct("test_case_name"),
	query.SortTestingStatus: query.Ranked("testing_status", query.Strings(ram.TestingStatusOrder)),
	query.SortRootCause:     query.Joined("root_causes", "root_cause_id", "name"),
}

var issueSorts = query.StrategyTable{
	query.SortMessage:     query.Direct("message"),
	query.SortPriority:    query.Ranked("priority", query.Strings(ram.PriorityOrder)),
	query.SortFailPattern: query.Joined("fail_patterns", "fail_pattern_id", "name"),
	query.SortTicket:      query.Derived(ticketSegmentSQL(firstTicketSQL("issue_tickets", "issue_id", "issues"))),
}

var failPatternSorts = query.StrategyTable{
	query.SortName:      query.Direct("name"),
	query.SortMessage:   query.Direct("message"),
	query.SortPriority:  query.Ranked("priority", query.Strings(ram.PriorityOrder)),
	query.SortRootCause: query.Joined("root_causes", "root_cause_id", "name"),
	query.SortTicket:    query.Derived(ticketSegmentSQL(firstTicketSQL("fail_pattern_tickets", "fail_pattern_id", "fail_patterns"))),
}

// orderBy turns sorts into one ORDER BY clause on table. The row id is
// always the last key so that pages never overlap or skip rows.
func orderBy(table string, strategies query.StrategyTable, sorts []query.Sort) (clause.OrderBy, error) {
	parts := make([]string, 0, len(sorts)+1)
	var vars []any

	for _, s := range sorts {
		strategy, err := strategies.Resolve(s)
		if err != nil {
			return clause.OrderBy{}, errs.Staged(errs.StageFilterBuild, err)
		}
		expr, exprVars, err := sortExpression(table, strategy)
		if err != nil {
			return clause.OrderBy{}, errs.Staged(errs.StageFilterBuild, err)
		}
		dir := " ASC"
		if s.Desc {
			dir = " DESC"
		}
		parts = append(parts, expr+dir)
		vars = append(vars, exprVars...)
	}
	parts = append(parts, table+".id ASC")

	return clause.OrderBy{Expression: clause.Expr{
		SQL:                strings.Join(parts, ", "),
		Vars:               vars,
		WithoutParentheses: true,
	}}, nil
}

func sortExpression(table string, s query.Strategy) (string, []any, error) {
	switch s.Kind {
	case query.StrategyDirect:
		return table + "." + s.Column, nil, nil
	case query.StrategyRanked:
		var b strings.Builder
		vars := make([]any, 0, len(s.Ranking))
		b.WriteString("CASE " + table + "." + s.Column)
		for i, v := range s.Ranking {
			fmt.Fprintf(&b, " WHEN ? THEN %d", i)
			vars = append(vars, v)
		}
		fmt.Fprintf(&b, " ELSE %d END", len(s.Ranking))
		return b.String(), vars, nil
	case query.StrategyJoined:
		return fmt.Sprintf("(SELECT j.%s FROM %s j WHERE j.id = %s.%s)", s.Projected, s.Table, table, s.LocalKey), nil, nil
	case query.StrategyDerived:
		return s.Expr, nil, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown sort strategy %d", ram.ErrInvalidSortKey, s.Kind)
	}
}

// firstTicketSQL selects the lexically smallest ticket URL of an owner row.
func firstTicketSQL(ticketTable, ownerKey, ownerTable string) string {
	return fmt.Sprintf("(SELECT MIN(t.ticket_url) FROM %s t WHERE t.%s = %s.id)", ticketTable, ownerKey, ownerTable)
}

// ticketSegmentSQL computes ram.TicketSegment over the SQL expression ref.
func ticketSegmentSQL(ref string) string {
	rest := "substr(" + ref + ", instr(" + ref + ", '://') + 3)"
	schemePath := "(CASE WHEN instr(" + rest + ", '/') = 0 THEN '' ELSE substr(" + rest + ", instr(" + rest + ", '/') + 1) END)"
	path := "(CASE WHEN instr(" + ref + ", '://') > 0 THEN " + schemePath + " ELSE ltrim(" + ref + ", '/') END)"
	return "(CASE WHEN instr(" + path + ", '/') > 0 THEN substr(" + path + ", 1, instr(" + path + ", '/') - 1) ELSE " + path + " END)"
}
