package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/hammamikhairi/compostcoach/internal/domain"
)

//go:embed banner.txt
var bannerRaw string

// bannerLayers shade the banner top to bottom like a built pile: fresh
// greens on top, browns underneath, finished compost at the base.
var bannerLayers = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#86efac")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#a3b18a")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#d6a77a")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#8b5e3c")),
}

// RenderBanner returns the banner art horizontally centred for the
// current terminal width. The last line is the tagline and is drawn in
// the sweet-spot accent.
func RenderBanner() string {
	lines := strings.Split(strings.TrimRight(bannerRaw, "\n"), "\n")
	if len(lines) == 0 {
		return ""
	}
	return renderBanner(lines, termWidth())
}

func renderBanner(lines []string, width int) string {
	maxW := 0
	for _, l := range lines {
		maxW = max(maxW, lipgloss.Width(l))
	}
	pad := ""
	if width > maxW {
		pad = strings.Repeat(" ", (width-maxW)/2)
	}

	art := len(lines) - 1
	var b strings.Builder
	for i, l := range lines {
		b.WriteString(pad)
		b.WriteString(bannerLineStyle(i, art).Render(l))
		b.WriteByte('\n')
	}
	return b.String()
}

// bannerLineStyle picks the layer for row i of an art block of n rows.
// Row n (the tagline) gets the sweet-spot colour.
func bannerLineStyle(i, n int) lipgloss.Style {
	if i >= n || n == 0 {
		return accentStyles[domain.AccentSweetSpot]
	}
	return bannerLayers[i*len(bannerLayers)/n]
}

// termWidth returns the terminal column count, or 80.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
