/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/config.go: ConfigJSON type
*/
package api

import (
	"github.com/ShearesWeb/chutney/billing"
	"github.com/ShearesWeb/chutney/factory"
	"github.com/ShearesWeb/chutney/store/sqlite"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// StayRecordDTO is one check-in/check-out row. Dates are day-first strings,
// same as the CSV datasets.
type StayRecordDTO struct {
	Matriculation string `json:"matriculation"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
}

// HoursRecordDTO is one logged-hours row with its raw labels.
type HoursRecordDTO struct {
	Matriculation string  `json:"matriculation"`
	Week          string  `json:"week"`
	CCAType       string  `json:"cca_type"`
	Hours         float64 `json:"hours"`
}

// SubmitRunRequest is the request to compute (and archive) a billing run.
// Config is optional; the server's default configuration applies when omitted.
type SubmitRunRequest struct {
	Config *factory.ConfigJSON `json:"config,omitempty"`
	Stays  []StayRecordDTO     `json:"stays"`
	Hours  []HoursRecordDTO    `json:"hours"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// WarningDTO is one accumulated warning. Week is 1-based, matching report
// labels.
type WarningDTO struct {
	Matriculation string `json:"matriculation"`
	Week          int    `json:"week"`
	Message       string `json:"message"`
}

// RunDTO represents a billing run in API responses.
type RunDTO struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	WeeklyCharge string       `json:"weekly_charge"`
	Error        string       `json:"error,omitempty"`
	CreatedAt    string       `json:"created_at,omitempty"`
	Warnings     []WarningDTO `json:"warnings"`
	PreRows      int          `json:"pre_subsidy_rows"`
	PostRows     int          `json:"post_subsidy_rows"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toWarningDTOs(warnings []billing.Warning) []WarningDTO {
	dtos := make([]WarningDTO, 0, len(warnings))
	for _, w := range warnings {
		dtos = append(dtos, WarningDTO{
			Matriculation: string(w.Matric),
			Week:          w.Week + 1,
			Message:       w.Message,
		})
	}
	return dtos
}

func toRunDTO(run sqlite.Run, preRows, postRows int) RunDTO {
	return RunDTO{
		ID:           run.ID,
		Status:       run.Status,
		WeeklyCharge: run.WeeklyCharge,
		Error:        run.Error,
		CreatedAt:    run.CreatedAt.Format(timeFormat),
		Warnings:     toWarningDTOs(run.Warnings),
		PreRows:      preRows,
		PostRows:     postRows,
	}
}
