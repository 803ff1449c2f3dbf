/*
handlers.go - HTTP API handlers for the billing system

PURPOSE:
  Exposes the billing pipeline via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the billing package.

ENDPOINTS:
  Runs:
    POST   /api/runs                      Compute and archive a billing run
    GET    /api/runs                      List archived runs
    GET    /api/runs/{id}                 Get one run
    GET    /api/runs/{id}/reports/pre     Download pre-subsidy report (CSV)
    GET    /api/runs/{id}/reports/post    Download post-subsidy report (CSV)

  Config:
    GET    /api/config/default            The server's default billing config

REQUEST FLOW:
  1. Parse HTTP request
  2. Build the pipeline (request config or server default)
  3. Run the pipeline over the submitted records
  4. Archive the result, failed or not
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid body, bad config, bad dates/labels
  - 404: Run not found
  - 422: Fatal data defect (unknown category) - the run is archived as
         failed with its pre-subsidy rows, and the response names it
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ShearesWeb/chutney/billing"
	"github.com/ShearesWeb/chutney/factory"
	"github.com/ShearesWeb/chutney/store/sqlite"
)

const timeFormat = time.RFC3339

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         *sqlite.Store
	DefaultConfig billing.Config
}

// NewHandler creates a new handler with the given store and default config.
func NewHandler(store *sqlite.Store, defaultConfig billing.Config) *Handler {
	return &Handler{Store: store, DefaultConfig: defaultConfig}
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// SubmitRun computes a billing run over the submitted records and archives it.
// POST /api/runs
func (h *Handler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	var req SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg := h.DefaultConfig
	if req.Config != nil {
		var err error
		cfg, err = factory.FromJSON(*req.Config)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid config", err)
			return
		}
	}

	pipeline, err := billing.NewPipeline(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config", err)
		return
	}

	stays, err := toStayRecords(req.Stays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid stay record", err)
		return
	}
	hours := make([]billing.RawHoursRecord, 0, len(req.Hours))
	for _, dto := range req.Hours {
		hours = append(hours, billing.RawHoursRecord{
			Matric:  billing.Matric(dto.Matriculation),
			Week:    dto.Week,
			CCAType: dto.CCAType,
			Hours:   dto.Hours,
		})
	}

	result, runErr := pipeline.Run(stays, hours)

	run := sqlite.Run{
		Status:       sqlite.StatusCompleted,
		WeeklyCharge: cfg.WeeklyCharge.StringFixed(),
	}
	if runErr != nil {
		run.Status = sqlite.StatusFailed
		run.Error = runErr.Error()
	}

	id, err := h.Store.SaveRun(r.Context(), run, result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to archive run", err)
		return
	}
	run.ID = id
	run.CreatedAt = time.Now().UTC()
	run.Warnings = result.Warnings

	preRows := 0
	if result.PreSubsidy != nil {
		preRows = len(result.PreSubsidy.Rows)
	}
	postRows := 0
	if result.PostSubsidy != nil {
		postRows = len(result.PostSubsidy.Rows)
	}

	status := http.StatusCreated
	if runErr != nil {
		// The run is archived with its pre-subsidy rows, but the data
		// defect must be surfaced to the caller.
		status = statusForRunError(runErr)
	}
	writeJSON(w, status, toRunDTO(run, preRows, postRows))
}

func toStayRecords(dtos []StayRecordDTO) ([]billing.StayRecord, error) {
	records := make([]billing.StayRecord, 0, len(dtos))
	for _, dto := range dtos {
		checkIn, err := billing.ParseDayFirst(dto.CheckIn)
		if err != nil {
			return nil, fmt.Errorf("matric %s: %w", dto.Matriculation, err)
		}
		checkOut, err := billing.ParseDayFirst(dto.CheckOut)
		if err != nil {
			return nil, fmt.Errorf("matric %s: %w", dto.Matriculation, err)
		}
		records = append(records, billing.StayRecord{
			Matric:   billing.Matric(dto.Matriculation),
			CheckIn:  checkIn,
			CheckOut: checkOut,
		})
	}
	return records, nil
}

// ListRuns returns all archived runs, newest first.
// GET /api/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		pre, post, err := h.Store.RowCounts(r.Context(), run.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to count report rows", err)
			return
		}
		dtos = append(dtos, toRunDTO(run, pre, post))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// GetRun returns a single archived run.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}

	pre, post, err := h.Store.RowCounts(r.Context(), run.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count report rows", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run, pre, post))
}

// GetReport streams one report stage of a run as CSV.
// GET /api/runs/{id}/reports/{stage}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stage := chi.URLParam(r, "stage")
	if stage != sqlite.StagePre && stage != sqlite.StagePost {
		writeError(w, http.StatusBadRequest, "Unknown report stage (use pre or post)", nil)
		return
	}

	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}

	report, err := h.Store.ReportRows(r.Context(), id, stage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load report", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s-subsidy-%s.csv", stage, id))
	if err := report.WriteCSV(w); err != nil {
		// Headers are already out; nothing sensible left to do.
		return
	}
}

// =============================================================================
// CONFIG HANDLERS
// =============================================================================

// GetDefaultConfig returns the server's default billing configuration.
// GET /api/config/default
func (h *Handler) GetDefaultConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToJSON(h.DefaultConfig))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusForRunError maps pipeline errors to HTTP statuses for callers that
// want finer-grained handling.
func statusForRunError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, billing.ErrUnknownCategory),
		errors.Is(err, billing.ErrMalformedLabel),
		errors.Is(err, billing.ErrInvalidDateFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
