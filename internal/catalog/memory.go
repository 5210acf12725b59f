// Package catalog provides the fixed table of compostable ingredients.
package catalog

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// Compile-time interface check.
var _ domain.IngredientCatalog = (*MemoryCatalog)(nil)

// MemoryCatalog holds the ingredient table in memory. It is built once and
// never mutated, so reads need no locking.
type MemoryCatalog struct {
	ordered []domain.Ingredient
	byID    map[string]int
	log     *logger.Logger
}

// NewMemoryCatalog creates a catalog preloaded with the built-in ingredients.
func NewMemoryCatalog(log *logger.Logger) *MemoryCatalog {
	c := &MemoryCatalog{
		byID: make(map[string]int),
		log:  log,
	}
	c.seed()
	return c
}

// List returns every ingredient in declaration order.
func (c *MemoryCatalog) List() []domain.Ingredient {
	out := make([]domain.Ingredient, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// ListByKind returns the ingredients of one kind in declaration order.
func (c *MemoryCatalog) ListByKind(kind domain.Kind) []domain.Ingredient {
	var out []domain.Ingredient
	for _, ing := range c.ordered {
		if ing.Kind == kind {
			out = append(out, ing)
		}
	}
	return out
}

// Get returns an ingredient by ID.
func (c *MemoryCatalog) Get(id string) (domain.Ingredient, error) {
	idx, ok := c.byID[id]
	if !ok {
		c.log.Debug("ingredient not found: %s", id)
		return domain.Ingredient{}, fmt.Errorf("ingredient %q: %w", id, domain.ErrNotFound)
	}
	return c.ordered[idx], nil
}

// Lookup resolves loose user input to an ingredient. It tries, in order:
// a case-insensitive ID, an exact name, a unique name prefix, and a unique
// name substring. Ambiguous input is treated as not found.
func (c *MemoryCatalog) Lookup(query string) (domain.Ingredient, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.Ingredient{}, fmt.Errorf("empty ingredient name: %w", domain.ErrNotFound)
	}

	if idx, ok := c.byID[q]; ok {
		return c.ordered[idx], nil
	}

	for _, ing := range c.ordered {
		if strings.ToLower(ing.Name) == q {
			return ing, nil
		}
	}

	if ing, ok := c.unique(func(name string) bool { return strings.HasPrefix(name, q) }); ok {
		return ing, nil
	}
	if ing, ok := c.unique(func(name string) bool { return strings.Contains(name, q) }); ok {
		return ing, nil
	}

	c.log.Debug("lookup failed for %q", query)
	return domain.Ingredient{}, fmt.Errorf("ingredient %q: %w", query, domain.ErrNotFound)
}

// unique returns the single ingredient whose lowercased name satisfies
// match. Zero or several matches report false.
func (c *MemoryCatalog) unique(match func(name string) bool) (domain.Ingredient, bool) {
	var (
		found domain.Ingredient
		n     int
	)
	for _, ing := range c.ordered {
		if match(strings.ToLower(ing.Name)) {
			found = ing
			n++
		}
	}
	return found, n == 1
}

// seed populates the catalog with the built-in ingredients.
func (c *MemoryCatalog) seed() {
	ingredients := []domain.Ingredient{
		{ID: "g1", Name: "Vegetable Scraps", Kind: domain.KindGreen, CarbonNitrogenRatio: 15, Glyph: "🥦"},
		{ID: "g2", Name: "Coffee Grounds", Kind: domain.KindGreen, CarbonNitrogenRatio: 20, Glyph: "☕"},
		{ID: "g3", Name: "Grass Clippings", Kind: domain.KindGreen, CarbonNitrogenRatio: 19, Glyph: "🌱"},
		{ID: "g4", Name: "Manure (Cow/Horse)", Kind: domain.KindGreen, CarbonNitrogenRatio: 18, Glyph: "🐄"},
		{ID: "g5", Name: "Weeds (Fresh)", Kind: domain.KindGreen, CarbonNitrogenRatio: 20, Glyph: "🌿"},
		{ID: "b1", Name: "Dry Leaves", Kind: domain.KindBrown, CarbonNitrogenRatio: 60, Glyph: "🍂"},
		{ID: "b2", Name: "Cardboard/Paper", Kind: domain.KindBrown, CarbonNitrogenRatio: 175, Glyph: "📦"},
		{ID: "b3", Name: "Straw", Kind: domain.KindBrown, CarbonNitrogenRatio: 75, Glyph: "🌾"},
		{ID: "b4", Name: "Sawdust", Kind: domain.KindBrown, CarbonNitrogenRatio: 325, Glyph: "🪚"},
		{ID: "b5", Name: "Pine Needles", Kind: domain.KindBrown, CarbonNitrogenRatio: 80, Glyph: "🌲"},
		{ID: "b6", Name: "Wood Chips", Kind: domain.KindBrown, CarbonNitrogenRatio: 400, Glyph: "🪵"},
	}
	for i, ing := range ingredients {
		c.byID[ing.ID] = i
	}
	c.ordered = ingredients
	c.log.Debug("seeded %d ingredients", len(ingredients))
}
