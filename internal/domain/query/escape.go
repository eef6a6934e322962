package query

import "strings"

// LikeEscapeChar is the escape character paired with EscapeLike in SQL
// LIKE ... ESCAPE clauses.
const LikeEscapeChar = `\`

// EscapeLike escapes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FoldCase is the case fold behind every Contains comparison. The SQL
// store applies the same function to columns, so both sides agree on
// non-ASCII text.
func FoldCase(s string) string {
	return strings.ToLower(s)
}

// ContainsPattern returns the LIKE pattern for a case-insensitive literal
// substring match against a FoldCase'd column.
func ContainsPattern(substr string) string {
	return "%" + EscapeLike(FoldCase(substr)) + "%"
}
