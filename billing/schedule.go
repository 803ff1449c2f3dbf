/*
schedule.go - Per-category tiered subsidy lookup

PURPOSE:
  Maps (category code, logged hours) to a subsidy rate. Each category owns a
  small sorted tier table: crossing a higher hours threshold yields a higher
  discount. Categories are plain data, not behaviorally distinct types, so
  lookup is a descending scan over the table rather than any kind of dispatch.

TIER SEMANTICS:
  Tiers are ascending by threshold and every category carries the baseline
  tier (0, 0.0) by construction. Lookup scans from the highest threshold
  downward and the first tier whose threshold is <= hours wins. Hours below
  every non-zero threshold therefore land on the baseline rate of 0.

EXAMPLE:
  Category A with tiers (0,0) (12,.20) (18,.30) (24,.40):
    hours=20 -> 0.30 (the 18 tier applies, 24 not reached)
    hours=25 -> 0.40
*/
package billing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIERS AND CATEGORIES
// =============================================================================

// Tier is one (hours threshold, subsidy rate) step of a category table.
type Tier struct {
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

// Category owns an ordered tier table, identified by a short code ("A", "D1").
type Category struct {
	Code  string
	Tiers []Tier
}

// NewTier builds a tier from plain numbers. Convenience for presets and tests.
func NewTier(threshold, rate float64) Tier {
	return Tier{
		Threshold: decimal.NewFromFloat(threshold),
		Rate:      decimal.NewFromFloat(rate),
	}
}

// =============================================================================
// SCHEDULE - Registered categories
// =============================================================================

// Schedule is the immutable set of registered categories, defined at startup.
type Schedule struct {
	categories map[string]Category
}

// NewSchedule validates and registers the category tables. Each table must be
// ascending by threshold and start with the baseline tier (0, 0.0).
func NewSchedule(categories []Category) (*Schedule, error) {
	byCode := make(map[string]Category, len(categories))
	for _, c := range categories {
		if len(c.Tiers) == 0 {
			return nil, fmt.Errorf("%w: category %q has no tiers", ErrInvalidSchedule, c.Code)
		}
		if !c.Tiers[0].Threshold.IsZero() || !c.Tiers[0].Rate.IsZero() {
			return nil, fmt.Errorf("%w: category %q must start with baseline tier (0, 0)", ErrInvalidSchedule, c.Code)
		}
		if !sort.SliceIsSorted(c.Tiers, func(i, j int) bool {
			return c.Tiers[i].Threshold.LessThan(c.Tiers[j].Threshold)
		}) {
			return nil, fmt.Errorf("%w: category %q tiers not ascending by threshold", ErrInvalidSchedule, c.Code)
		}
		if _, dup := byCode[c.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidSchedule, c.Code)
		}
		byCode[c.Code] = c
	}
	return &Schedule{categories: byCode}, nil
}

// Has reports whether the category code is registered.
func (s *Schedule) Has(code string) bool {
	_, ok := s.categories[code]
	return ok
}

// Lookup returns the subsidy rate for the given category and hours: the
// highest applicable tier wins. Returns ErrUnknownCategory (wrapped) for an
// unregistered code.
func (s *Schedule) Lookup(code string, hours decimal.Decimal) (decimal.Decimal, error) {
	category, ok := s.categories[code]
	if !ok {
		return decimal.Zero, &UnknownCategoryError{Category: code}
	}

	for i := len(category.Tiers) - 1; i >= 0; i-- {
		if hours.GreaterThanOrEqual(category.Tiers[i].Threshold) {
			return category.Tiers[i].Rate, nil
		}
	}
	// Unreachable given the baseline tier, but keep the zero fall-through.
	return decimal.Zero, nil
}
