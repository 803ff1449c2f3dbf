/*
engine.go - The billing engine: combine charges and subsidies

PURPOSE:
  Drives the single linear pass that turns stay-derived pre-subsidy charges
  and hours-derived subsidy rates into final billable amounts. There is no
  retry or rollback machinery; every input is already in memory and every
  step is pure computation.

PIPELINE:
  raw stay records  -> AccumulateStays   -> ChargeSheet (pre-subsidy)
  raw hours records -> AggregateHours    -> HoursAggregates
  both              -> ComputeSubsidies  -> SubsidySheet + warnings
  all               -> reports (report.go)

ERROR ASYMMETRY (preserved from the reference system):
  - Unknown student in an hours aggregate: warning, record skipped.
  - Unknown category: fatal, the run stops immediately. The pre-subsidy
    report may already exist at that point (staged output); the post-subsidy
    report is never produced.

SEE ALSO:
  - stay.go:    ChargeSheet accumulation
  - hours.go:   Hours normalization and grouping
  - report.go:  Report emission
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// maxSubsidyRate caps the applied subsidy regardless of what the schedule
// returns. A tier table may promise more, but no student is ever discounted
// beyond 75% of the weekly charge.
var maxSubsidyRate = decimal.NewFromFloat(0.75)

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline bundles the validated run configuration: calendar, schedule and
// weekly charge. Build one per run with NewPipeline.
type Pipeline struct {
	Calendar     *Calendar
	Schedule     *Schedule
	WeeklyCharge Amount
}

// NewPipeline validates the configuration and constructs the calendar and
// subsidy schedule. Date and schedule defects surface here, before any
// record is processed.
func NewPipeline(cfg Config) (*Pipeline, error) {
	cal, err := BuildCalendar(cfg.Weeks)
	if err != nil {
		return nil, err
	}
	schedule, err := NewSchedule(cfg.Categories)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Calendar:     cal,
		Schedule:     schedule,
		WeeklyCharge: cfg.WeeklyCharge,
	}, nil
}

// =============================================================================
// SUBSIDY SHEET - Applied subsidy rate per student per week
// =============================================================================

// SubsidySheet holds the subsidy rate applied to each (student, week).
// Students with no hours records simply have no entry and keep their full
// charge.
type SubsidySheet struct {
	rates map[Matric][]decimal.Decimal
}

// Rate returns the applied rate for (student, week), zero when no subsidy
// entry exists.
func (s *SubsidySheet) Rate(matric Matric, week int) decimal.Decimal {
	rates, ok := s.rates[matric]
	if !ok || week < 0 || week >= len(rates) {
		return decimal.Zero
	}
	return rates[week]
}

// ComputeSubsidies walks the hours aggregates in their (sorted) order and
// resolves each to a clamped subsidy rate for the student's week.
//
// Per aggregate:
//  1. Students absent from the stay dataset are skipped with a warning.
//  2. An unregistered category aborts the run immediately. This asymmetry
//     with step 1 is deliberate: unknown student is recoverable per-record,
//     unknown category is fatal for the whole run.
//  3. The schedule rate is clamped to at most 0.75.
//  4. The rate is stored per (student, week). When several categories are
//     logged for the same student and week, the later aggregate OVERWRITES
//     the earlier one.
//
// TODO: confirm with hall admin whether rule 4 should sum or max-combine
// rates across categories instead of last-write-wins. The overwrite
// reproduces the current reference behavior and must not change without
// stakeholder sign-off.
func (p *Pipeline) ComputeSubsidies(sheet *ChargeSheet, aggregates []HoursAggregate) (*SubsidySheet, []Warning, error) {
	subs := &SubsidySheet{rates: make(map[Matric][]decimal.Decimal)}
	var warnings []Warning

	for _, agg := range aggregates {
		key := agg.Key
		if !sheet.Has(key.Matric) {
			err := &UnmatchedStudentError{Matric: key.Matric, Week: key.Week}
			warnings = append(warnings, Warning{
				Matric:  key.Matric,
				Week:    key.Week,
				Message: err.Error(),
			})
			continue
		}

		if !p.Schedule.Has(key.Category) {
			return nil, warnings, &UnknownCategoryError{
				Matric:   key.Matric,
				Week:     key.Week,
				Category: key.Category,
			}
		}

		if !p.Calendar.ValidIndex(key.Week) {
			return nil, warnings, &MalformedLabelError{
				Kind:  "week",
				Input: fmt.Sprintf("Week %d (matric %s)", key.Week+1, key.Matric),
			}
		}

		rate, err := p.Schedule.Lookup(key.Category, agg.Hours)
		if err != nil {
			return nil, warnings, err
		}
		if rate.GreaterThan(maxSubsidyRate) {
			rate = maxSubsidyRate
		}

		rates, ok := subs.rates[key.Matric]
		if !ok {
			rates = make([]decimal.Decimal, sheet.Weeks())
			subs.rates[key.Matric] = rates
		}
		rates[key.Week] = rate // last write wins
	}

	return subs, warnings, nil
}

// =============================================================================
// RUN - Convenience for the whole pass
// =============================================================================

// RunResult carries both reports and the accumulated warnings of one run.
type RunResult struct {
	PreSubsidy  *Report
	PostSubsidy *Report
	Warnings    []Warning
}

// Run executes the full pipeline over already-loaded records. On a fatal
// error the result still carries the pre-subsidy report computed so far
// (staged output) along with any warnings; the post-subsidy report is nil.
func (p *Pipeline) Run(stays []StayRecord, hours []RawHoursRecord) (*RunResult, error) {
	sheet := AccumulateStays(p.Calendar, p.WeeklyCharge, stays)
	result := &RunResult{PreSubsidy: p.PreSubsidyReport(sheet)}

	aggregates, err := AggregateHours(hours)
	if err != nil {
		return result, err
	}

	subs, warnings, err := p.ComputeSubsidies(sheet, aggregates)
	result.Warnings = warnings
	if err != nil {
		return result, err
	}

	result.PostSubsidy = p.PostSubsidyReport(sheet, subs)
	return result, nil
}
