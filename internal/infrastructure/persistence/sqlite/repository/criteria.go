package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ram/internal/domain/query"
	"ram/internal/domain/ram"
	"ram/internal/errs"
)

type columnKind int

const (
	textColumn columnKind = iota
	timeColumn
)

type column struct {
	name string
	kind columnKind
}

// joinColumn stores a multi-valued field as rows of a side table keyed by
// the owner id.
type joinColumn struct {
	table string
	key   string
	value string
}

// fieldMap tells the criteria compiler where each field of one entity lives.
type fieldMap struct {
	table   string
	columns map[query.Field]column
	joins   map[query.Field]joinColumn
}

func text(name string) column   { return column{name: name, kind: textColumn} }
func moment(name string) column { return column{name: name, kind: timeColumn} }

var logRecordFields = fieldMap{
	table: "log_records",
	columns: map[query.Field]column{
		query.FieldID:              text("id"),
		query.FieldParentID:        text("parent_record_id"),
		query.FieldTestRunID:       text("test_run_id"),
		query.FieldName:            text("name"),
		query.FieldMessage:         text("message"),
		query.FieldType:            text("type"),
		query.FieldTestingStatus:   text("testing_status"),
		query.FieldExecutionStatus: text("execution_status"),
		query.FieldFileType:        text("file_type"),
		query.FieldStartDate:       moment("start_date"),
		query.FieldCreatedAt:       moment("created_date_stamp"),
	},
	joins: map[query.Field]joinColumn{
		query.FieldLabel: {table: "log_record_labels", key: "log_record_id", value: "label"},
	},
}

var testRunFields = fieldMap{
	table: "test_runs",
	columns: map[query.Field]column{
		query.FieldID:                 text("id"),
		query.FieldParentID:           text("parent_test_run_id"),
		query.FieldExecutionRequestID: text("execution_request_id"),
		query.FieldName:               text("name"),
		query.FieldTestCaseID:         text("test_case_id"),
		query.FieldTestingStatus:      text("testing_status"),
		query.FieldExecutionStatus:    text("execution_status"),
		query.FieldRootCauseID:        text("root_cause_id"),
		query.FieldStartDate:          moment("start_date"),
	},
	joins: map[query.Field]joinColumn{
		query.FieldLabel: {table: "test_run_labels", key: "test_run_id", value: "label_id"},
	},
}

var issueFields = fieldMap{
	table: "issues",
	columns: map[query.Field]column{
		query.FieldID:                 text("id"),
		query.FieldExecutionRequestID: text("execution_request_id"),
		query.FieldMessage:            text("message"),
		query.FieldFailPatternID:      text("fail_pattern_id"),
		query.FieldPriority:           text("priority"),
	},
	joins: map[query.Field]joinColumn{
		query.FieldTicket:      {table: "issue_tickets", key: "issue_id", value: "ticket_url"},
		query.FieldLogRecordID: {table: "issue_log_records", key: "issue_id", value: "log_record_id"},
	},
}

var failPatternFields = fieldMap{
	table: "fail_patterns",
	columns: map[query.Field]column{
		query.FieldID:          text("id"),
		query.FieldProjectID:   text("project_id"),
		query.FieldName:        text("name"),
		query.FieldMessage:     text("message"),
		query.FieldPriority:    text("priority"),
		query.FieldRootCauseID: text("root_cause_id"),
	},
	joins: map[query.Field]joinColumn{
		query.FieldTicket: {table: "fail_pattern_tickets", key: "fail_pattern_id", value: "ticket_url"},
	},
}

// where narrows db to the rows matching c. The compiled SQL keeps the
// semantics of query.Match: an empty value is absent.
func (m fieldMap) where(db *gorm.DB, c query.Criterion) (*gorm.DB, error) {
	if c.IsZero() {
		return db, nil
	}
	expr, err := m.compile(c)
	if err != nil {
		return nil, errs.Staged(errs.StageFilterBuild, err)
	}
	return db.Where(expr), nil
}

func (m fieldMap) compile(c query.Criterion) (clause.Expr, error) {
	if err := c.Validate(); err != nil {
		return clause.Expr{}, err
	}
	var b sqlBuilder
	if err := m.build(&b, c); err != nil {
		return clause.Expr{}, err
	}
	return clause.Expr{SQL: b.sql.String(), Vars: b.vars}, nil
}

type sqlBuilder struct {
	sql  strings.Builder
	vars []any
}

func (b *sqlBuilder) write(sql string, vars ...any) {
	b.sql.WriteString(sql)
	b.vars = append(b.vars, vars...)
}

func (m fieldMap) build(b *sqlBuilder, c query.Criterion) error {
	switch c.Op {
	case query.OpAnd, query.OpOr:
		sep := " AND "
		if c.Op == query.OpOr {
			sep = " OR "
		}
		b.write("(")
		for i, child := range c.Children {
			if i > 0 {
				b.write(sep)
			}
			if err := m.build(b, child); err != nil {
				return err
			}
		}
		b.write(")")
		return nil
	case query.OpNot:
		b.write("NOT (")
		if err := m.build(b, c.Children[0]); err != nil {
			return err
		}
		b.write(")")
		return nil
	}

	if col, ok := m.columns[c.Field]; ok {
		qualified := m.table + "." + col.name
		if col.kind == timeColumn {
			return buildTime(b, c, qualified)
		}
		return buildText(b, c, qualified)
	}
	if join, ok := m.joins[c.Field]; ok {
		return m.buildJoin(b, c, join)
	}
	return fmt.Errorf("%w: field %q is not defined for %s", ram.ErrInvalidFilter, c.Field, m.table)
}

const likeClause = " LIKE ? ESCAPE '" + query.LikeEscapeChar + "'"

func buildText(b *sqlBuilder, c query.Criterion, col string) error {
	switch c.Op {
	case query.OpEq:
		b.write(col+" = ?", c.Values[0])
	case query.OpIn:
		b.write(col+" IN ?", c.Values)
	case query.OpNotIn:
		b.write("("+col+" IS NULL OR "+col+" NOT IN ?)", c.Values)
	case query.OpContains:
		b.write(foldFunc+"("+col+")"+likeClause, query.ContainsPattern(c.Values[0]))
	case query.OpExists:
		b.write("(" + col + " IS NOT NULL AND " + col + " <> '')")
	case query.OpMissing:
		b.write("(" + col + " IS NULL OR " + col + " = '')")
	default:
		return fmt.Errorf("%w: %s is not defined for text field %s", ram.ErrInvalidFilter, c.Op, c.Field)
	}
	return nil
}

func buildTime(b *sqlBuilder, c query.Criterion, col string) error {
	switch c.Op {
	case query.OpExists:
		b.write(col + " IS NOT NULL")
	case query.OpMissing:
		b.write(col + " IS NULL")
	case query.OpBetween:
		parts := make([]string, 0, 2)
		var vars []any
		if c.From != nil {
			parts = append(parts, col+" >= ?")
			vars = append(vars, utc(*c.From))
		}
		if c.To != nil {
			parts = append(parts, col+" <= ?")
			vars = append(vars, utc(*c.To))
		}
		b.write("("+strings.Join(parts, " AND ")+")", vars...)
	default:
		return fmt.Errorf("%w: %s is not defined for time field %s", ram.ErrInvalidFilter, c.Op, c.Field)
	}
	return nil
}

func (m fieldMap) buildJoin(b *sqlBuilder, c query.Criterion, j joinColumn) error {
	exists := "EXISTS (SELECT 1 FROM " + j.table + " WHERE " + j.table + "." + j.key + " = " + m.table + ".id"
	value := j.table + "." + j.value
	switch c.Op {
	case query.OpExists:
		b.write(exists + ")")
	case query.OpMissing:
		b.write("NOT " + exists + ")")
	case query.OpEq, query.OpIn:
		b.write(exists+" AND "+value+" IN ?)", c.Values)
	case query.OpNotIn:
		b.write("NOT "+exists+" AND "+value+" IN ?)", c.Values)
	case query.OpContains:
		b.write(exists+" AND "+foldFunc+"("+value+")"+likeClause+")", query.ContainsPattern(c.Values[0]))
	default:
		return fmt.Errorf("%w: %s is not defined for list field %s", ram.ErrInvalidFilter, c.Op, c.Field)
	}
	return nil
}

func utc(t time.Time) time.Time { return t.UTC() }
