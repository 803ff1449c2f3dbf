package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ShearesWeb/chutney/api"
	"github.com/ShearesWeb/chutney/billing"
	"github.com/ShearesWeb/chutney/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store, billing.ReferenceConfig())
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

const validRunBody = `{
	"stays": [
		{"matriculation": "A0012345", "check_in": "10/12/2023", "check_out": "17/12/2023"},
		{"matriculation": "A0054321", "check_in": "18/12/2023", "check_out": "20/12/2023"}
	],
	"hours": [
		{"matriculation": "A0012345", "week": "Week 1: 10/12/23-17/12/23", "cca_type": "Category A: Sports", "hours": 20},
		{"matriculation": "GHOST", "week": "Week 1: 10/12/23-17/12/23", "cca_type": "Category A: Sports", "hours": 5}
	]
}`

func submitRun(t *testing.T, server *httptest.Server, body string) (*http.Response, api.RunDTO) {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/runs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post run: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var dto api.RunDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, dto
}

// =============================================================================
// RUN SUBMISSION
// =============================================================================

func TestSubmitRun(t *testing.T) {
	server := newTestServer(t)

	resp, dto := submitRun(t, server, validRunBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if dto.ID == "" {
		t.Error("expected a run id")
	}
	if dto.Status != sqlite.StatusCompleted {
		t.Errorf("status = %q", dto.Status)
	}
	// 2 students x 5 reference weeks.
	if dto.PreRows != 10 {
		t.Errorf("pre rows = %d, want 10", dto.PreRows)
	}
	// Zero-amount weeks are dropped from the post report.
	if dto.PostRows >= dto.PreRows {
		t.Errorf("post rows should shrink: pre=%d post=%d", dto.PreRows, dto.PostRows)
	}
	if len(dto.Warnings) != 1 || dto.Warnings[0].Matriculation != "GHOST" {
		t.Errorf("expected one GHOST warning, got %+v", dto.Warnings)
	}
}

func TestSubmitRun_UnknownCategoryArchivedAsFailed(t *testing.T) {
	server := newTestServer(t)

	body := `{
		"stays": [{"matriculation": "A0012345", "check_in": "10/12/2023", "check_out": "17/12/2023"}],
		"hours": [{"matriculation": "A0012345", "week": "Week 1: x", "cca_type": "Category Z: Unknown", "hours": 5}]
	}`
	resp, dto := submitRun(t, server, body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if dto.Status != sqlite.StatusFailed {
		t.Errorf("status = %q, want failed", dto.Status)
	}
	if dto.Error == "" || !strings.Contains(dto.Error, "unknown category") {
		t.Errorf("error not surfaced: %q", dto.Error)
	}
	if dto.PreRows == 0 {
		t.Error("pre-subsidy rows should survive a fatal run")
	}
	if dto.PostRows != 0 {
		t.Errorf("post rows = %d, want 0", dto.PostRows)
	}
}

func TestSubmitRun_BadDate(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/runs", "application/json", strings.NewReader(
		`{"stays": [{"matriculation": "A1", "check_in": "2023-12-10", "check_out": "17/12/2023"}]}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

// =============================================================================
// REPORT DOWNLOAD
// =============================================================================

func TestGetReport_CSV(t *testing.T) {
	server := newTestServer(t)
	_, dto := submitRun(t, server, validRunBody)

	resp, err := http.Get(server.URL + "/api/runs/" + dto.ID + "/reports/post")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	disposition := resp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "post-subsidy-") {
		t.Errorf("content disposition = %q", disposition)
	}
}

func TestGetReport_ContentMatchesPipeline(t *testing.T) {
	server := newTestServer(t)
	_, dto := submitRun(t, server, validRunBody)

	resp, err := http.Get(server.URL + "/api/runs/" + dto.ID + "/reports/pre")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if lines[0] != "Matriculation,Week,Billable Amount (Before Subsidy)" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	// The first reference week spans 8 dates: full stay is 8/7*125.
	if lines[1] != "A0012345,Week 1: 10/12/2023 - 17/12/2023,142.86" {
		t.Errorf("unexpected first row: %q", lines[1])
	}
}

func TestGetReport_UnknownStage(t *testing.T) {
	server := newTestServer(t)
	_, dto := submitRun(t, server, validRunBody)

	resp, err := http.Get(server.URL + "/api/runs/" + dto.ID + "/reports/final")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

// =============================================================================
// RUN LISTING AND CONFIG
// =============================================================================

func TestListRuns(t *testing.T) {
	server := newTestServer(t)
	submitRun(t, server, validRunBody)
	submitRun(t, server, validRunBody)

	resp, err := http.Get(server.URL + "/api/runs")
	if err != nil {
		t.Fatalf("get runs: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Runs []api.RunDTO `json:"runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(payload.Runs))
	}
}

func TestGetRun_NotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/runs/nope")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/config/default")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	defer resp.Body.Close()

	var cfg struct {
		WeeklyCharge float64 `json:"weekly_charge"`
		Weeks        []any   `json:"weeks"`
		Categories   []any   `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.WeeklyCharge != 125.00 {
		t.Errorf("weekly_charge = %v, want 125", cfg.WeeklyCharge)
	}
	if len(cfg.Weeks) != 5 || len(cfg.Categories) != 5 {
		t.Errorf("expected 5 weeks and 5 categories, got %d/%d", len(cfg.Weeks), len(cfg.Categories))
	}
}
