package billing

import (
	"encoding/csv"
	"io"
)

// =============================================================================
// REPORT EMITTER - The two tabular outputs
// =============================================================================

// Report column headers. The wording matches the spreadsheets the hall office
// already consumes, so keep them verbatim.
const (
	ColMatriculation = "Matriculation"
	ColWeek          = "Week"
	ColBeforeSubsidy = "Billable Amount (Before Subsidy)"
	ColAfterSubsidy  = "Billable Amount (After Subsidies)"
)

// ReportRow is one emitted (student, week) line. WeekLabel reproduces the
// original configured date strings.
type ReportRow struct {
	Matric    Matric
	WeekLabel string
	Amount    Amount
}

// Report is one of the two tabular outputs.
type Report struct {
	Columns [3]string
	Rows    []ReportRow
}

// PreSubsidyReport emits one row per (student, week) with the pro-rated
// charge, including zero-charge weeks. Students are ordered by matriculation
// number, weeks in calendar order.
func (p *Pipeline) PreSubsidyReport(sheet *ChargeSheet) *Report {
	report := &Report{Columns: [3]string{ColMatriculation, ColWeek, ColBeforeSubsidy}}
	for _, matric := range sheet.Students() {
		for _, week := range p.Calendar.Weeks {
			report.Rows = append(report.Rows, ReportRow{
				Matric:    matric,
				WeekLabel: week.Label(),
				Amount:    sheet.Charge(matric, week.Index),
			})
		}
	}
	return report
}

// PostSubsidyReport emits the same shape with the subsidy deducted:
// final = charge * (1 - rate). Rows whose final amount is exactly 0 are
// omitted here (students who did not stay that week); the corresponding
// pre-subsidy rows remain in the pre-subsidy report.
func (p *Pipeline) PostSubsidyReport(sheet *ChargeSheet, subs *SubsidySheet) *Report {
	report := &Report{Columns: [3]string{ColMatriculation, ColWeek, ColAfterSubsidy}}
	for _, matric := range sheet.Students() {
		for _, week := range p.Calendar.Weeks {
			final := sheet.Charge(matric, week.Index).ApplySubsidy(subs.Rate(matric, week.Index))
			if final.IsZero() {
				continue
			}
			report.Rows = append(report.Rows, ReportRow{
				Matric:    matric,
				WeekLabel: week.Label(),
				Amount:    final,
			})
		}
	}
	return report
}

// WriteCSV renders the report, amounts fixed to two decimal places.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Columns[:]); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write([]string{string(row.Matric), row.WeekLabel, row.Amount.StringFixed()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
