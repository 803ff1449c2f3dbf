package billing_test

import (
	"testing"
	"time"

	"github.com/ShearesWeb/chutney/billing"
)

// =============================================================================
// TEST HELPERS (shared across the package tests)
// =============================================================================

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// sevenDayCalendar returns two true 7-date weeks (the reference calendar's
// 8-date first week is exercised separately).
func sevenDayCalendar(t *testing.T) *billing.Calendar {
	t.Helper()
	cal, err := billing.BuildCalendar([]billing.WeekRange{
		{Start: "04/12/2023", End: "10/12/2023"},
		{Start: "11/12/2023", End: "17/12/2023"},
	})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	return cal
}

func charge125() billing.Amount { return billing.NewAmount(125.00) }

// =============================================================================
// STAY ACCUMULATION
// =============================================================================

func TestAccumulateStays_FullWeek(t *testing.T) {
	// GIVEN: A student staying the entire 7-date week
	// WHEN: Accumulating with WEEKLY_CHARGE=125.00
	// THEN: The pro-rated charge is exactly 125.00

	cal := sevenDayCalendar(t)
	sheet := billing.AccumulateStays(cal, charge125(), []billing.StayRecord{
		{Matric: "A001", CheckIn: date(2023, time.December, 4), CheckOut: date(2023, time.December, 10)},
	})

	if got := sheet.Charge("A001", 0).StringFixed(); got != "125.00" {
		t.Errorf("full week charge = %s, want 125.00", got)
	}
}

func TestAccumulateStays_PartialWeek(t *testing.T) {
	// Check-in on day 3 of 7, staying through the end: 5 days counted,
	// charge = 5/7*125.00 = 89.29 (2dp).
	cal := sevenDayCalendar(t)
	sheet := billing.AccumulateStays(cal, charge125(), []billing.StayRecord{
		{Matric: "A001", CheckIn: date(2023, time.December, 6), CheckOut: date(2023, time.December, 10)},
	})

	if got := sheet.Charge("A001", 0).StringFixed(); got != "89.29" {
		t.Errorf("5-day charge = %s, want 89.29", got)
	}
}

func TestAccumulateStays_ThreeDays(t *testing.T) {
	// 3/7*125.00 = 53.57 (2dp).
	cal := sevenDayCalendar(t)
	sheet := billing.AccumulateStays(cal, charge125(), []billing.StayRecord{
		{Matric: "A001", CheckIn: date(2023, time.December, 4), CheckOut: date(2023, time.December, 6)},
	})

	if got := sheet.Charge("A001", 0).StringFixed(); got != "53.57" {
		t.Errorf("3-day charge = %s, want 53.57", got)
	}
}

func TestAccumulateStays_NoOverlapIsZero(t *testing.T) {
	// A student with zero overlapping stay dates in a week owes exactly 0
	// for that week.
	cal := sevenDayCalendar(t)
	sheet := billing.AccumulateStays(cal, charge125(), []billing.StayRecord{
		{Matric: "A001", CheckIn: date(2023, time.December, 4), CheckOut: date(2023, time.December, 10)},
	})

	if !sheet.Charge("A001", 1).IsZero() {
		t.Errorf("expected 0 for non-overlapping week, got %s", sheet.Charge("A001", 1).StringFixed())
	}
}

func TestAccumulateStays_SpansMultipleWeeks(t *testing.T) {
	cal := sevenDayCalendar(t)
	sheet := billing.AccumulateStays(cal, charge125(), []billing.StayRecord{
		{Matric: "A001", CheckIn: date(2023, time.December, 8), CheckOut: date(2023, time.December, 13)},
	})

	// 3 days in week 1 (8th-10th), 3 days in week 2 (11th-13th).
	if got := sheet.Charge("A001", 0).StringFixed(); got != "53.57" {
		t.Errorf("week 1 charge = %s, want 53.57", got)
	}
	if got := sheet.Charge("A001", 1).StringFixed(); got != "53.57" {
		t.Errorf("week 2 charge = %s, want 53.57", got)
	}
}

func TestAccumulateStays_OverlappingRowsDoubleCount(t *testing.T) {
	// Two overlapping stay rows for one student are accumulated
	// independently, double-counting shared days. This reproduces the
	// reference behavior on purpose; see the package notes in stay.go.
	cal := sevenDayCalendar(t)
	sheet := billing.AccumulateStays(cal, charge125(), []billing.StayRecord{
		{Matric: "A001", CheckIn: date(2023, time.December, 4), CheckOut: date(2023, time.December, 10)},
		{Matric: "A001", CheckIn: date(2023, time.December, 4), CheckOut: date(2023, time.December, 10)},
	})

	if got := sheet.Charge("A001", 0).StringFixed(); got != "250.00" {
		t.Errorf("double-counted charge = %s, want 250.00", got)
	}
}

func TestAccumulateStays_EightDateReferenceWeek(t *testing.T) {
	// The reference calendar's first week spans 8 dates; the divisor stays
	// 7, so a full stay charges 8/7*125.00 = 142.86. Accepted policy.
	cal, err := billing.BuildCalendar(billing.ReferenceConfig().Weeks)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	sheet := billing.AccumulateStays(cal, charge125(), []billing.StayRecord{
		{Matric: "A001", CheckIn: date(2023, time.December, 10), CheckOut: date(2023, time.December, 17)},
	})

	if got := sheet.Charge("A001", 0).StringFixed(); got != "142.86" {
		t.Errorf("8-date week charge = %s, want 142.86", got)
	}
}

func TestChargeSheet_StudentsSorted(t *testing.T) {
	cal := sevenDayCalendar(t)
	sheet := billing.AccumulateStays(cal, charge125(), []billing.StayRecord{
		{Matric: "B002", CheckIn: date(2023, time.December, 4), CheckOut: date(2023, time.December, 5)},
		{Matric: "A001", CheckIn: date(2023, time.December, 4), CheckOut: date(2023, time.December, 5)},
	})

	students := sheet.Students()
	if len(students) != 2 || students[0] != "A001" || students[1] != "B002" {
		t.Errorf("students not sorted: %v", students)
	}
}
