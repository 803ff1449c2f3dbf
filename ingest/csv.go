/*
Package ingest reads the two tabular input datasets into structured records.

PURPOSE:
  Thin plumbing between flat files and the billing core. Columns are located
  by header name so upstream spreadsheet exports may reorder or add columns
  freely. Date strings are parsed here (day-first), so a malformed date
  aborts before any billing computation starts.

DATASETS:
  Stay dataset:  Matriculation, Check In Date, Check Out Date
  Hours dataset: Matriculation, Week, CCA Type, Hours

The hours dataset keeps its Week and CCA Type labels raw; normalization is
the hours aggregator's job (billing/hours.go).
*/
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ShearesWeb/chutney/billing"
)

// Stay dataset headers.
const (
	colMatriculation = "Matriculation"
	colCheckIn       = "Check In Date"
	colCheckOut      = "Check Out Date"
	colWeek          = "Week"
	colCCAType       = "CCA Type"
	colHours         = "Hours"
)

// ReadStayRecords parses the stay dataset.
func ReadStayRecords(r io.Reader) ([]billing.StayRecord, error) {
	rows, index, err := readTable(r, colMatriculation, colCheckIn, colCheckOut)
	if err != nil {
		return nil, err
	}

	records := make([]billing.StayRecord, 0, len(rows))
	for i, row := range rows {
		checkIn, err := billing.ParseDayFirst(strings.TrimSpace(row[index[colCheckIn]]))
		if err != nil {
			return nil, fmt.Errorf("stay row %d: %w", i+2, err)
		}
		checkOut, err := billing.ParseDayFirst(strings.TrimSpace(row[index[colCheckOut]]))
		if err != nil {
			return nil, fmt.Errorf("stay row %d: %w", i+2, err)
		}
		records = append(records, billing.StayRecord{
			Matric:   billing.Matric(strings.TrimSpace(row[index[colMatriculation]])),
			CheckIn:  checkIn,
			CheckOut: checkOut,
		})
	}
	return records, nil
}

// ReadHoursRecords parses the hours dataset. Week and CCA Type stay raw.
func ReadHoursRecords(r io.Reader) ([]billing.RawHoursRecord, error) {
	rows, index, err := readTable(r, colMatriculation, colWeek, colCCAType, colHours)
	if err != nil {
		return nil, err
	}

	records := make([]billing.RawHoursRecord, 0, len(rows))
	for i, row := range rows {
		hours, err := strconv.ParseFloat(strings.TrimSpace(row[index[colHours]]), 64)
		if err != nil {
			return nil, fmt.Errorf("hours row %d: invalid hours %q", i+2, row[index[colHours]])
		}
		records = append(records, billing.RawHoursRecord{
			Matric:  billing.Matric(row[index[colMatriculation]]),
			Week:    row[index[colWeek]],
			CCAType: row[index[colCCAType]],
			Hours:   hours,
		})
	}
	return records, nil
}

// readTable reads all rows and maps the required headers to column indexes.
func readTable(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing required headers: %s", strings.Join(missing, ", "))
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("unable to read row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, index, nil
}
