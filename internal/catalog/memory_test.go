package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

func newTestCatalog(t *testing.T) *MemoryCatalog {
	t.Helper()
	return NewMemoryCatalog(logger.New(logger.LevelOff, nil))
}

func TestListByKind(t *testing.T) {
	c := newTestCatalog(t)

	greens := c.ListByKind(domain.KindGreen)
	browns := c.ListByKind(domain.KindBrown)
	require.Len(t, greens, 5)
	require.Len(t, browns, 6)

	wantGreens := []string{"g1", "g2", "g3", "g4", "g5"}
	for i, ing := range greens {
		assert.Equal(t, wantGreens[i], ing.ID)
		assert.Equal(t, domain.KindGreen, ing.Kind)
	}
	wantBrowns := []string{"b1", "b2", "b3", "b4", "b5", "b6"}
	for i, ing := range browns {
		assert.Equal(t, wantBrowns[i], ing.ID)
		assert.Equal(t, domain.KindBrown, ing.Kind)
	}
}

func TestAllRatiosPositive(t *testing.T) {
	c := newTestCatalog(t)
	all := c.List()
	require.Len(t, all, 11)
	for _, ing := range all {
		assert.Greater(t, ing.CarbonNitrogenRatio, 0.0, ing.ID)
	}
}

func TestListReturnsCopy(t *testing.T) {
	c := newTestCatalog(t)
	all := c.List()
	all[0].Name = "mutated"

	got, err := c.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, "Vegetable Scraps", got.Name)
}

func TestGet(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		id      string
		wantCN  float64
		wantErr bool
	}{
		{"g1", 15, false},
		{"g3", 19, false},
		{"b4", 325, false},
		{"b6", 400, false},
		{"x9", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			ing, err := c.Get(tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCN, ing.CarbonNitrogenRatio)
		})
	}
}

func TestLookup(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		name    string
		query   string
		wantID  string
		wantErr bool
	}{
		{"id", "b1", "b1", false},
		{"id uppercase", "G2", "g2", false},
		{"exact name", "straw", "b3", false},
		{"prefix", "saw", "b4", false},
		{"substring", "clippings", "g3", false},
		{"padded", "  coffee  ", "g2", false},
		{"ambiguous substring", "e", "", true},
		{"unknown", "banana peel", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing, err := c.Lookup(tt.query)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ing.ID)
		})
	}
}
