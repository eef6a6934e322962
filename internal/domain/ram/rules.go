package ram

import "strings"

// IsTopLevelRecord classifies a log record as an orchestrator-level step:
// the record itself is not a COMPOUND container and every ancestor is one.
// A root record has no ancestors and qualifies on its own type alone.
func IsTopLevelRecord(recordType RecordType, ancestorTypes []RecordType) bool {
	if recordType == RecordTypeCompound {
		return false
	}
	for _, t := range ancestorTypes {
		if t != RecordTypeCompound {
			return false
		}
	}
	return true
}

// StatusRates holds execution request rates in percent.
type StatusRates struct {
	Passed  float64
	Failed  float64
	Warning float64
}

// ComputeRates derives pass/fail/warning rates from per-status test run counts.
func ComputeRates(counts map[TestingStatus]int64) StatusRates {
	var total int64
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return StatusRates{}
	}
	pct := func(n int64) float64 {
		return float64(n) * 100 / float64(total)
	}
	return StatusRates{
		Passed:  pct(counts[TestingStatusPassed]),
		Failed:  pct(counts[TestingStatusFailed]),
		Warning: pct(counts[TestingStatusWarning]),
	}
}

// TicketSegment returns the first URL path segment of an external ticket
// reference: "https://jira.example.com/PROJ-12/details" yields "PROJ-12".
// A reference without "://" is read as a bare path. The SQL sort expression
// for ticket ordering computes the same value.
func TicketSegment(ref string) string {
	path := ref
	if idx := strings.Index(ref, "://"); idx >= 0 {
		rest := ref[idx+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return ""
		}
		path = rest[slash+1:]
	} else {
		path = strings.TrimLeft(path, "/")
	}
	if idx := strings.Index(path, "/"); idx >= 0 {
		path = path[:idx]
	}
	return path
}
