package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CHARGE SHEET - Pro-rated pre-subsidy charges per student per week
// =============================================================================

// ChargeSheet holds the pre-subsidy charge for every known student and week.
// It is the mutable accumulator of the pipeline: stay accumulation fills it,
// the engine later applies subsidies to produce final amounts.
type ChargeSheet struct {
	weeks   int
	charges map[Matric][]Amount
}

// daysPerWeek is the fixed pro-rating divisor. The reference system always
// divides by 7 to express the weekly charge unit, even for week ranges that
// span fewer or more than 7 dates. Keep this constant; do not infer week
// length from the calendar.
var daysPerWeek = decimal.NewFromInt(7)

// AccumulateStays converts stay intervals into pro-rated weekly charges.
//
// For each stay row and each week, every calendar date of the week with
// check_in <= date <= check_out counts one day. Rows are accumulated
// independently: a student present in two overlapping stay rows on the same
// day is counted twice. This additive behavior reproduces the reference
// system and is intentional; deduplicate per-student dates instead if the
// corrected semantics are ever wanted.
//
// charge = day_count / 7 * weeklyCharge, defaulting to 0 for weeks with no
// matching dates.
func AccumulateStays(cal *Calendar, weeklyCharge Amount, stays []StayRecord) *ChargeSheet {
	sheet := &ChargeSheet{
		weeks:   cal.Len(),
		charges: make(map[Matric][]Amount),
	}

	dayCounts := make(map[Matric][]int)
	for _, stay := range stays {
		counts, ok := dayCounts[stay.Matric]
		if !ok {
			counts = make([]int, cal.Len())
			dayCounts[stay.Matric] = counts
		}
		for i, week := range cal.Weeks {
			for _, date := range week.Days {
				if !date.Before(stay.CheckIn) && !date.After(stay.CheckOut) {
					counts[i]++
				}
			}
		}
	}

	for matric, counts := range dayCounts {
		charges := make([]Amount, cal.Len())
		for i, days := range counts {
			charges[i] = weeklyCharge.Mul(decimal.NewFromInt(int64(days)).Div(daysPerWeek))
		}
		sheet.charges[matric] = charges
	}
	return sheet
}

// Has reports whether the student appears in the stay dataset at all.
func (s *ChargeSheet) Has(matric Matric) bool {
	_, ok := s.charges[matric]
	return ok
}

// Charge returns the pre-subsidy charge for (student, week). Zero for
// unknown students or out-of-range weeks.
func (s *ChargeSheet) Charge(matric Matric, week int) Amount {
	charges, ok := s.charges[matric]
	if !ok || week < 0 || week >= len(charges) {
		return Amount{Value: decimal.Zero}
	}
	return charges[week]
}

// Weeks returns the number of billing weeks the sheet covers.
func (s *ChargeSheet) Weeks() int { return s.weeks }

// Students returns all known matriculation numbers in sorted order, so that
// report rows and engine passes are deterministic.
func (s *ChargeSheet) Students() []Matric {
	matrics := make([]Matric, 0, len(s.charges))
	for m := range s.charges {
		matrics = append(matrics, m)
	}
	sort.Slice(matrics, func(i, j int) bool { return matrics[i] < matrics[j] })
	return matrics
}
