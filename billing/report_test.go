package billing_test

import (
	"strings"
	"testing"
	"time"

	"github.com/ShearesWeb/chutney/billing"
)

func TestReport_WriteCSV(t *testing.T) {
	// GIVEN: A completed run with one student
	// WHEN: Writing the pre-subsidy report
	// THEN: CSV has the exact headers and two-decimal amounts

	p, err := billing.NewPipeline(testConfig())
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	result, err := p.Run([]billing.StayRecord{{
		Matric:   "A0012345",
		CheckIn:  date(2023, time.December, 4),
		CheckOut: date(2023, time.December, 6),
	}}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var buf strings.Builder
	if err := result.PreSubsidy.WriteCSV(&buf); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Matriculation,Week,Billable Amount (Before Subsidy)" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[1] != "A0012345,Week 1: 04/12/2023 - 10/12/2023,53.57" {
		t.Errorf("unexpected row: %q", lines[1])
	}
	if lines[2] != "A0012345,Week 2: 11/12/2023 - 17/12/2023,0.00" {
		t.Errorf("unexpected row: %q", lines[2])
	}
}

func TestReport_PostSubsidyHeader(t *testing.T) {
	p, err := billing.NewPipeline(testConfig())
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	result, err := p.Run([]billing.StayRecord{fullStay("A001")}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var buf strings.Builder
	if err := result.PostSubsidy.WriteCSV(&buf); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Matriculation,Week,Billable Amount (After Subsidies)\n") {
		t.Errorf("unexpected header: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}
