package billing

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS AGGREGATION - Sum logged hours per (student, week, category)
// =============================================================================

// HoursKey identifies one logical hours aggregate. Week is the 0-based
// internal index.
type HoursKey struct {
	Matric   Matric
	Week     int
	Category string
}

// HoursAggregate is the summed hours for one key.
type HoursAggregate struct {
	Key   HoursKey
	Hours decimal.Decimal
}

// formattingChars are the soft/zero-width characters that leak into category
// labels from the upstream spreadsheet export. They are invisible but break
// exact-match lookups, so normalization strips them.
var formattingChars = strings.NewReplacer(
	"­", "", // soft hyphen
	"​", "", // zero-width space
	"‌", "", // zero-width non-joiner
	"‍", "", // zero-width joiner
	"\uFEFF", "", // byte order mark
)

// NormalizeCategory reduces a CCA label to its short category code:
// "Category B: Cultural Groups" -> "B". Bare codes pass through unchanged.
// Surrounding whitespace and zero-width/soft formatting characters are
// stripped in either case.
func NormalizeCategory(label string) (string, error) {
	cleaned := strings.TrimSpace(formattingChars.Replace(label))
	if cleaned == "" {
		return "", &MalformedLabelError{Kind: "category", Input: label}
	}

	fields := strings.Fields(cleaned)
	if len(fields) >= 2 && fields[0] == "Category" {
		code := strings.TrimSuffix(fields[1], ":")
		if code == "" {
			return "", &MalformedLabelError{Kind: "category", Input: label}
		}
		return code, nil
	}
	return cleaned, nil
}

// ParseWeekLabel extracts the 0-based week index from a descriptive label
// like "Week 1: 10/12/23-17/12/23" (the 1-based label number minus one).
func ParseWeekLabel(label string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(label))
	if len(fields) < 2 || fields[0] != "Week" {
		return 0, &MalformedLabelError{Kind: "week", Input: label}
	}
	n, err := strconv.Atoi(strings.TrimSuffix(fields[1], ":"))
	if err != nil || n < 1 {
		return 0, &MalformedLabelError{Kind: "week", Input: label}
	}
	return n - 1, nil
}

// AggregateHours normalizes and groups raw hours rows, summing hours across
// rows that share the same (student, week, category) key. Matriculation
// numbers are trimmed of surrounding whitespace before grouping.
//
// The result is returned in sorted key order so downstream processing is
// deterministic.
func AggregateHours(records []RawHoursRecord) ([]HoursAggregate, error) {
	totals := make(map[HoursKey]decimal.Decimal)
	for _, r := range records {
		week, err := ParseWeekLabel(r.Week)
		if err != nil {
			return nil, err
		}
		category, err := NormalizeCategory(r.CCAType)
		if err != nil {
			return nil, err
		}

		key := HoursKey{
			Matric:   Matric(strings.TrimSpace(string(r.Matric))),
			Week:     week,
			Category: category,
		}
		totals[key] = totals[key].Add(decimal.NewFromFloat(r.Hours))
	}

	aggregates := make([]HoursAggregate, 0, len(totals))
	for key, hours := range totals {
		aggregates = append(aggregates, HoursAggregate{Key: key, Hours: hours})
	}
	sort.Slice(aggregates, func(i, j int) bool {
		a, b := aggregates[i].Key, aggregates[j].Key
		if a.Matric != b.Matric {
			return a.Matric < b.Matric
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		return a.Category < b.Category
	})
	return aggregates, nil
}
