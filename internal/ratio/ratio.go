// Package ratio computes the weighted carbon-to-nitrogen ratio of a mix and
// classifies it. All functions are pure.
package ratio

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/compostcoach/internal/domain"
)

// Classification thresholds. Both bounds are inclusive for IDEAL.
const (
	TooGreenBelow = 20.0
	TooBrownAbove = 40.0
)

// Presentation band for the meter colour.
const (
	SweetSpotLow  = 25.0
	SweetSpotHigh = 35.0
)

// Meter scale. Ratios outside it pin to the ends.
const (
	MeterMin = 10.0
	MeterMax = 60.0
)

// Resolver looks up an ingredient by id.
type Resolver interface {
	Get(id string) (domain.Ingredient, error)
}

// Compute returns the parts-weighted mean C:N of entries. An entry the
// resolver cannot find is a programming error and fails the call with
// ErrInvariantViolation.
func Compute(entries []domain.MixEntry, resolver Resolver) (domain.RatioResult, error) {
	var (
		totalParts  int
		weightedSum float64
	)
	for _, e := range entries {
		ing, err := resolver.Get(e.IngredientID)
		if err != nil {
			return domain.RatioResult{}, fmt.Errorf("resolving %q: %w: %w", e.IngredientID, domain.ErrInvariantViolation, err)
		}
		totalParts += e.Parts
		weightedSum += float64(e.Parts) * ing.CarbonNitrogenRatio
	}

	if totalParts == 0 {
		return domain.RatioResult{Status: domain.StatusEmpty}, nil
	}

	r := weightedSum / float64(totalParts)
	return domain.RatioResult{
		TotalParts: totalParts,
		Ratio:      r,
		Status:     Classify(r),
	}, nil
}

// Classify maps a non-empty ratio to a status.
func Classify(r float64) domain.Status {
	switch {
	case r < TooGreenBelow:
		return domain.StatusTooGreen
	case r > TooBrownAbove:
		return domain.StatusTooBrown
	default:
		return domain.StatusIdeal
	}
}

// AccentFor picks the meter colour band. A zero ratio means an empty mix.
func AccentFor(r float64) domain.Accent {
	switch {
	case r == 0:
		return domain.AccentNone
	case r >= SweetSpotLow && r <= SweetSpotHigh:
		return domain.AccentSweetSpot
	case r < SweetSpotLow:
		return domain.AccentGreen
	default:
		return domain.AccentBrown
	}
}

// MeterPosition maps r onto [0, 100] percent of the meter width.
func MeterPosition(r float64) float64 {
	clamped := min(max(r, MeterMin), MeterMax)
	return (clamped - MeterMin) / (MeterMax - MeterMin) * 100
}

// Describe renders entries as "2 parts Vegetable Scraps, 1 parts Dry Leaves".
// Unknown ids fall back to the raw id.
func Describe(entries []domain.MixEntry, resolver Resolver) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.IngredientID
		if ing, err := resolver.Get(e.IngredientID); err == nil {
			name = ing.Name
		}
		parts = append(parts, fmt.Sprintf("%d parts %s", e.Parts, name))
	}
	return strings.Join(parts, ", ")
}

// StatusHint is the one-line caption shown under the ratio.
func StatusHint(s domain.Status) string {
	switch s {
	case domain.StatusIdeal:
		return "Perfect balance!"
	case domain.StatusTooGreen:
		return "Too much nitrogen (add browns)"
	case domain.StatusTooBrown:
		return "Too much carbon (add greens)"
	default:
		return "Add ingredients to calculate ratio"
	}
}
