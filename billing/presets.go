/*
presets.go - Pre-built billing configurations

PURPOSE:
  Ready-to-use Config constructors for common setups. ReferenceConfig is the
  December 2023 billing period the system was first run against; it doubles
  as the default configuration for the server and as a realistic fixture for
  tests.

CUSTOMIZATION:
  These are starting points. Per-period configs normally arrive as JSON via
  the factory package; see factory/config.go.
*/
package billing

// ReferenceWeeklyCharge is the weekly hostel charge of the reference period.
const ReferenceWeeklyCharge = 125.00

// ReferenceConfig returns the December 2023 / January 2024 billing period:
// five weeks, categories A through D2.
func ReferenceConfig() Config {
	return Config{
		WeeklyCharge: NewAmount(ReferenceWeeklyCharge),
		Weeks: []WeekRange{
			{Start: "10/12/2023", End: "17/12/2023"},
			{Start: "18/12/2023", End: "24/12/2023"},
			{Start: "25/12/2023", End: "31/12/2023"},
			{Start: "01/01/2024", End: "07/01/2024"},
			{Start: "08/01/2024", End: "14/01/2024"},
		},
		Categories: []Category{
			{Code: "A", Tiers: []Tier{NewTier(0, 0), NewTier(12, 0.20), NewTier(18, 0.30), NewTier(24, 0.40)}},
			{Code: "B", Tiers: []Tier{NewTier(0, 0), NewTier(8, 0.15), NewTier(13, 0.25), NewTier(18, 0.35)}},
			{Code: "C", Tiers: []Tier{NewTier(0, 0), NewTier(10, 0.15), NewTier(20, 0.30), NewTier(30, 0.45)}},
			{Code: "D1", Tiers: []Tier{NewTier(0, 0), NewTier(30, 0.40), NewTier(40, 0.60), NewTier(45, 0.70)}},
			{Code: "D2", Tiers: []Tier{NewTier(0, 0), NewTier(12, 0.20), NewTier(21, 0.35), NewTier(30, 0.50)}},
		},
	}
}
