/*
Package factory provides JSON to Go billing configuration conversion.

PURPOSE:
  Converts JSON billing-period definitions into billing.Config values. This
  enables configuration without code changes - the hall office can define a
  new billing period (weeks, tier tables, weekly charge) in JSON, and the
  factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify the billing period
  - Version control for period definitions
  - The same file drives the CLI and the server

JSON SCHEMA:
  {
    "weekly_charge": 125.00,
    "weeks": [
      {"start": "10/12/2023", "end": "17/12/2023"}
    ],
    "categories": [
      {
        "code": "A",
        "tiers": [
          {"hours": 0, "rate": 0},
          {"hours": 12, "rate": 0.2}
        ]
      }
    ]
  }

  Dates are day-first strings and are preserved verbatim for report labels.
  Tier tables must be ascending by hours and start at (0, 0); the billing
  package enforces this when the schedule is built.

USAGE:
  cfg, err := factory.ParseConfig(jsonBytes)
  pipeline, err := billing.NewPipeline(cfg)

SEE ALSO:
  - billing/presets.go: ReferenceConfig, the built-in default
  - billing/schedule.go: Tier validation rules
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/ShearesWeb/chutney/billing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of a billing period.
type ConfigJSON struct {
	WeeklyCharge float64        `json:"weekly_charge"`
	Weeks        []WeekJSON     `json:"weeks"`
	Categories   []CategoryJSON `json:"categories"`
}

// WeekJSON is one billing week as day-first date strings.
type WeekJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CategoryJSON is one category tier table.
type CategoryJSON struct {
	Code  string     `json:"code"`
	Tiers []TierJSON `json:"tiers"`
}

// TierJSON is one (hours threshold, subsidy rate) step.
type TierJSON struct {
	Hours float64 `json:"hours"`
	Rate  float64 `json:"rate"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseConfig parses a JSON document into a billing.Config.
func ParseConfig(data []byte) (billing.Config, error) {
	var cj ConfigJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return billing.Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return FromJSON(cj)
}

// FromJSON converts ConfigJSON to billing.Config.
func FromJSON(cj ConfigJSON) (billing.Config, error) {
	if cj.WeeklyCharge <= 0 {
		return billing.Config{}, fmt.Errorf("weekly_charge must be positive, got %v", cj.WeeklyCharge)
	}
	if len(cj.Weeks) == 0 {
		return billing.Config{}, fmt.Errorf("at least one week range is required")
	}
	if len(cj.Categories) == 0 {
		return billing.Config{}, fmt.Errorf("at least one category is required")
	}

	cfg := billing.Config{
		WeeklyCharge: billing.NewAmount(cj.WeeklyCharge),
		Weeks:        make([]billing.WeekRange, 0, len(cj.Weeks)),
		Categories:   make([]billing.Category, 0, len(cj.Categories)),
	}
	for _, w := range cj.Weeks {
		cfg.Weeks = append(cfg.Weeks, billing.WeekRange{Start: w.Start, End: w.End})
	}
	for _, c := range cj.Categories {
		category := billing.Category{Code: c.Code}
		for _, tier := range c.Tiers {
			category.Tiers = append(category.Tiers, billing.NewTier(tier.Hours, tier.Rate))
		}
		cfg.Categories = append(cfg.Categories, category)
	}
	return cfg, nil
}

// ToJSON converts a billing.Config to its JSON representation.
func ToJSON(cfg billing.Config) ConfigJSON {
	charge, _ := cfg.WeeklyCharge.Value.Float64()
	cj := ConfigJSON{WeeklyCharge: charge}
	for _, w := range cfg.Weeks {
		cj.Weeks = append(cj.Weeks, WeekJSON{Start: w.Start, End: w.End})
	}
	for _, c := range cfg.Categories {
		category := CategoryJSON{Code: c.Code}
		for _, tier := range c.Tiers {
			hours, _ := tier.Threshold.Float64()
			rate, _ := tier.Rate.Float64()
			category.Tiers = append(category.Tiers, TierJSON{Hours: hours, Rate: rate})
		}
		cj.Categories = append(cj.Categories, category)
	}
	return cj
}

// ReferenceConfigJSON returns the built-in reference period as pretty JSON,
// a starting point for new period definitions.
func ReferenceConfigJSON() string {
	b, _ := json.MarshalIndent(ToJSON(billing.ReferenceConfig()), "", "  ")
	return string(b)
}
