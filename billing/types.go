/*
Package billing computes weekly hostel charges with CCA subsidy deductions.

PURPOSE:
  This package contains the full billing pipeline: the week calendar, the
  per-category subsidy schedule, stay accumulation (pro-rated weekly charges),
  hours aggregation, and the engine that combines them into final billable
  amounts.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A monetary quantity backed by decimal.Decimal
  - Matric: Type-safe student identifier (matriculation number)
  - StayRecord: One check-in/check-out interval for a student
  - RawHoursRecord: One logged-hours row as read from the hours dataset
  - Config: The externally supplied run configuration

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Purity: The pipeline is a single pass over already-loaded data;
     inputs are never mutated
  3. Type Safety: Strong typing for matriculation numbers and amounts

SEE ALSO:
  - calendar.go: Billing week definitions
  - schedule.go: Tiered subsidy lookup
  - engine.go:   Charge/subsidy combination
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Monetary quantity
// =============================================================================

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value)}
}

func NewAmountFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d}, nil
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s)} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }

// StringFixed renders the amount with exactly two decimal places, the unit
// used by both reports.
func (a Amount) StringFixed() string { return a.Value.StringFixed(2) }

// ApplySubsidy returns the amount after deducting the given subsidy rate:
// amount * (1 - rate).
func (a Amount) ApplySubsidy(rate decimal.Decimal) Amount {
	return a.Mul(decimal.NewFromInt(1).Sub(rate))
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// Matric is a student matriculation number, the primary key across both
// input datasets.
type Matric string

// =============================================================================
// INPUT RECORDS
// =============================================================================

// StayRecord is one check-in/check-out interval for a student. A student may
// have several rows; each row is accumulated independently (see stay.go).
type StayRecord struct {
	Matric   Matric
	CheckIn  time.Time
	CheckOut time.Time
}

// RawHoursRecord is one logged-hours row exactly as read from the hours
// dataset. Week and CCAType carry the descriptive labels
// ("Week 1: 10/12/23-17/12/23", "Category B: Cultural Groups"); the hours
// aggregator normalizes them before grouping.
type RawHoursRecord struct {
	Matric  Matric
	Week    string
	CCAType string
	Hours   float64
}

// =============================================================================
// CONFIGURATION - Externally supplied, scoped to a single run
// =============================================================================

// WeekRange is one billing week as a pair of day-first date strings.
// The original strings are preserved for report labels.
type WeekRange struct {
	Start string
	End   string
}

// Config carries everything that varies between billing periods: the weekly
// charge, the ordered week ranges, and the per-category subsidy tiers.
// There is no hidden global state; a Config is built once and passed into
// the pipeline.
type Config struct {
	WeeklyCharge Amount
	Weeks        []WeekRange
	Categories   []Category
}

// =============================================================================
// DERIVED RECORDS
// =============================================================================

// ChargeRow is one (student, week) entry of a report.
type ChargeRow struct {
	Matric    Matric
	WeekIndex int
	Amount    Amount
}

// Warning records a recoverable data defect encountered during a run.
type Warning struct {
	Matric  Matric
	Week    int
	Message string
}
