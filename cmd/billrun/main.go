/*
main.go - Batch billing run

PURPOSE:
  One-shot command-line billing run. Reads the stay and CCA hours CSV
  exports, computes the weekly charges and subsidies, and writes the
  two report CSVs. Optionally archives the run in the SQLite store
  used by the server.

COMMAND-LINE FLAGS:
  -stays   Path to the stay records CSV (required)
  -hours   Path to the CCA hours CSV (required)
  -config  Path to a billing config JSON file. When omitted, the
           built-in reference configuration is used.
  -pre     Output path for the pre-subsidy report (default: weekly_charges.csv)
  -post    Output path for the post-subsidy report (default: result.csv)
  -db      SQLite database path for archiving the run. Empty disables
           archiving.

STAGED OUTPUT:
  The pre-subsidy report is written as soon as it is available, before
  the subsidy stage is inspected. A fatal data defect in the hours file
  (unknown category, malformed label) therefore still leaves the
  pre-subsidy report on disk, and the command exits non-zero without
  writing the post-subsidy report.

EXIT CODES:
  0  both reports written
  1  input, config, or output failure; or fatal billing error

EXAMPLES:
  ./billrun -stays=stays.csv -hours=hours.csv
  ./billrun -stays=stays.csv -hours=hours.csv -config=semester2.json -db=chutney.db

SEE ALSO:
  - billing/engine.go: Pipeline orchestration
  - ingest/csv.go: CSV parsing
  - store/sqlite/sqlite.go: Run archive
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ShearesWeb/chutney/billing"
	"github.com/ShearesWeb/chutney/factory"
	"github.com/ShearesWeb/chutney/ingest"
	"github.com/ShearesWeb/chutney/store/sqlite"
)

func main() {
	staysPath := flag.String("stays", "", "stay records CSV (required)")
	hoursPath := flag.String("hours", "", "CCA hours CSV (required)")
	configPath := flag.String("config", "", "billing config JSON file (built-in reference config when empty)")
	prePath := flag.String("pre", "weekly_charges.csv", "pre-subsidy report output path")
	postPath := flag.String("post", "result.csv", "post-subsidy report output path")
	dbPath := flag.String("db", "", "SQLite database path for archiving (empty disables)")
	flag.Parse()

	if *staysPath == "" || *hoursPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	pipeline, err := billing.NewPipeline(cfg)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	stays, err := readStays(*staysPath)
	if err != nil {
		log.Fatalf("Failed to read stay records: %v", err)
	}
	hours, err := readHours(*hoursPath)
	if err != nil {
		log.Fatalf("Failed to read hours records: %v", err)
	}

	result, runErr := pipeline.Run(stays, hours)

	// Write the pre-subsidy report before looking at runErr: the stay
	// charges are valid even when the subsidy stage aborted.
	if result != nil && result.PreSubsidy != nil {
		if err := writeReport(*prePath, result.PreSubsidy); err != nil {
			log.Fatalf("Failed to write %s: %v", *prePath, err)
		}
		log.Printf("Wrote %s (%d rows)", *prePath, len(result.PreSubsidy.Rows))
	}

	if result != nil {
		for _, w := range result.Warnings {
			log.Printf("Warning: %s (matric %s, week %d)", w.Message, w.Matric, w.Week+1)
		}
	}

	if *dbPath != "" {
		if err := archive(*dbPath, cfg, result, runErr); err != nil {
			log.Fatalf("Failed to archive run: %v", err)
		}
	}

	if runErr != nil {
		log.Fatalf("Billing run aborted: %v", runErr)
	}

	if err := writeReport(*postPath, result.PostSubsidy); err != nil {
		log.Fatalf("Failed to write %s: %v", *postPath, err)
	}
	log.Printf("Wrote %s (%d rows)", *postPath, len(result.PostSubsidy.Rows))
}

func loadConfig(path string) (billing.Config, error) {
	if path == "" {
		return billing.ReferenceConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return billing.Config{}, err
	}
	return factory.ParseConfig(data)
}

func readStays(path string) ([]billing.StayRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.ReadStayRecords(f)
}

func readHours(path string) ([]billing.RawHoursRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.ReadHoursRecords(f)
}

func writeReport(path string, report *billing.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func archive(dbPath string, cfg billing.Config, result *billing.RunResult, runErr error) error {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := sqlite.Run{
		Status:       sqlite.StatusCompleted,
		WeeklyCharge: cfg.WeeklyCharge.StringFixed(),
	}
	if runErr != nil {
		run.Status = sqlite.StatusFailed
		run.Error = runErr.Error()
	}
	id, err := store.SaveRun(context.Background(), run, result)
	if err != nil {
		return err
	}
	fmt.Printf("Archived run %s (%s)\n", id, run.Status)
	return nil
}
