// Package domain defines the core types and interfaces for the compost coach.
// All other packages depend on domain; domain depends on nothing.
package domain

// Kind tags an ingredient as nitrogen-rich or carbon-rich.
type Kind int

const (
	// KindGreen is nitrogen-rich material (low C:N).
	KindGreen Kind = iota
	// KindBrown is carbon-rich material (high C:N).
	KindBrown
)

// String returns a human-readable kind.
func (k Kind) String() string {
	switch k {
	case KindGreen:
		return "green"
	case KindBrown:
		return "brown"
	default:
		return "unknown"
	}
}

// Ingredient is one organic material in the fixed catalog.
type Ingredient struct {
	ID                  string
	Name                string
	Kind                Kind
	CarbonNitrogenRatio float64 // approximate C:N, always > 0
	Glyph               string  // decorative only
}

// MixEntry is one ingredient in the user's pile, measured in unitless parts.
type MixEntry struct {
	IngredientID string
	Parts        int // >= 1
}

// Status classifies a computed C:N ratio.
type Status int

const (
	StatusEmpty Status = iota
	StatusTooGreen
	StatusIdeal
	StatusTooBrown
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "EMPTY"
	case StatusTooGreen:
		return "TOO_GREEN"
	case StatusIdeal:
		return "IDEAL"
	case StatusTooBrown:
		return "TOO_BROWN"
	default:
		return "UNKNOWN"
	}
}

// Accent is the presentation band used to colour the ratio meter. It is
// deliberately separate from Status: the sweet spot (25-35) is narrower
// than the IDEAL classification (20-40).
type Accent int

const (
	AccentNone Accent = iota
	AccentGreen
	AccentSweetSpot
	AccentBrown
)

// String returns the accent name.
func (a Accent) String() string {
	switch a {
	case AccentNone:
		return "NONE"
	case AccentGreen:
		return "GREEN"
	case AccentSweetSpot:
		return "SWEET_SPOT"
	case AccentBrown:
		return "BROWN"
	default:
		return "UNKNOWN"
	}
}

// RatioResult is derived from a mix on every read. Never store it
// alongside the mix.
type RatioResult struct {
	TotalParts int
	Ratio      float64
	Status     Status
}
