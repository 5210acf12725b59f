package display

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"

	"github.com/hammamikhairi/compostcoach/internal/domain"
)

type fakeSource struct {
	res     domain.RatioResult
	err     error
	pending bool
}

func (f *fakeSource) Result() (domain.RatioResult, error) { return f.res, f.err }
func (f *fakeSource) AdvicePending() bool                 { return f.pending }

func TestMeterCells(t *testing.T) {
	tests := []struct {
		name string
		pos  float64
		want string
	}{
		{"left edge", 0, "[●━━━━━━━━━━]"},
		{"middle", 50, "[━━━━━●━━━━━]"},
		{"right edge", 100, "[━━━━━━━━━━●]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, meterCells(11, tt.pos))
		})
	}
}

func TestRenderMeterClampsRatio(t *testing.T) {
	// Ratios outside the meter range pin to the ends.
	assert.Contains(t, RenderMeter(11, 5), "[●")
	assert.Contains(t, RenderMeter(11, 500), "●]")
	assert.Contains(t, RenderMeter(11, 35), "[━━━━━●━━━━━]")
}

func newTestModel(src StatusSource) model {
	var w atomic.Int64
	w.Store(120)
	m := model{source: src, spinner: spinner.New(), width: &w}
	m.refreshStatus()
	return m
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
		want []string
	}{
		{
			name: "empty",
			src:  &fakeSource{},
			want: []string{"Add ingredients to calculate ratio"},
		},
		{
			name: "ideal",
			src:  &fakeSource{res: domain.RatioResult{TotalParts: 3, Ratio: 30, Status: domain.StatusIdeal}},
			want: []string{"C:N 30.0", "IDEAL", "Perfect balance!"},
		},
		{
			name: "too green with advice pending",
			src:  &fakeSource{res: domain.RatioResult{TotalParts: 5, Ratio: 19, Status: domain.StatusTooGreen}, pending: true},
			want: []string{"TOO_GREEN", "asking the coach"},
		},
		{
			name: "error",
			src:  &fakeSource{err: errors.New("boom")},
			want: []string{"ratio unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := newTestModel(tt.src).renderBar()
			for _, w := range tt.want {
				assert.Contains(t, bar, w)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	m := newTestModel(&fakeSource{})
	assert.Equal(t, "CompostCoach", m.titleStr())

	m = newTestModel(&fakeSource{res: domain.RatioResult{TotalParts: 1, Ratio: 170, Status: domain.StatusTooBrown}})
	assert.Equal(t, "CompostCoach | C:N 170.0 TOO_BROWN", m.titleStr())
}

func TestRenderBanner(t *testing.T) {
	out := RenderBanner()
	assert.Equal(t, strings.Count(strings.TrimRight(bannerRaw, "\n"), "\n")+1, strings.Count(out, "\n"))
	assert.Contains(t, out, "black gold")
}

func TestRenderBannerCentres(t *testing.T) {
	out := renderBanner([]string{"ab", "abcd", "tag"}, 10)
	assert.Equal(t, "   ab\n   abcd\n   tag\n", out)

	out = renderBanner([]string{"abcd"}, 2)
	assert.Equal(t, "abcd\n", out)
}

func TestBannerLineStyle(t *testing.T) {
	assert.Equal(t, bannerLayers[0].GetForeground(), bannerLineStyle(0, 4).GetForeground())
	assert.Equal(t, bannerLayers[len(bannerLayers)-1].GetForeground(), bannerLineStyle(3, 4).GetForeground())
	assert.Equal(t, accentStyles[domain.AccentSweetSpot].GetForeground(), bannerLineStyle(4, 4).GetForeground())
}
