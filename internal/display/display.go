// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a persistent ratio status bar and an input
// prompt at the bottom of the terminal. All application output is
// printed above the rendered area via Program.Println / Printf,
// ensuring concurrent writes never garble the display.
package display

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/ratio"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// Meter accents.
	accentStyles = map[domain.Accent]lipgloss.Style{
		domain.AccentNone:      lipgloss.NewStyle().Foreground(lipgloss.Color("#52525b")),
		domain.AccentGreen:     lipgloss.NewStyle().Foreground(lipgloss.Color("#86efac")),
		domain.AccentSweetSpot: lipgloss.NewStyle().Foreground(lipgloss.Color("#fde68a")),
		domain.AccentBrown:     lipgloss.NewStyle().Foreground(lipgloss.Color("#d6a77a")),
	}

	// ── Output styles (soft palette) ──

	// BannerStyle is the muted earth tone of the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a3b18a"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

const promptText = "compost> "

// StatusSource feeds the status bar. *engine.Engine satisfies it.
type StatusSource interface {
	Result() (domain.RatioResult, error)
	AdvicePending() bool
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking).  Other goroutines may
// safely call [UI.Println], [UI.Printf], and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	source  StatusSource
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool
	width   atomic.Int64

	mdMu    sync.Mutex
	md      *glamour.TermRenderer
	mdWidth int
}

// NewUI creates the display. source may be nil, which hides the status bar.
func NewUI(source StatusSource) *UI {
	u := &UI{
		source:  source,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
	u.width.Store(80)
	return u
}

// Println prints a line above the prompt. Thread-safe.
// If the program hasn't started yet, falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line. Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// Refresh redraws the status bar now instead of on the next tick.
func (u *UI) Refresh() {
	if u.program != nil && !u.done.Load() {
		go u.program.Send(refreshMsg{})
	}
}

// ── Styled print helpers ─────────────────────────────────────────

// PrintChat prints a conversational assistant line.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintHeading prints a section header such as "Greens".
func (u *UI) PrintHeading(text string) {
	u.Println(headingStyle.Render("  " + text))
}

// PrintLine prints primary body text.
func (u *UI) PrintLine(text string) {
	u.Println(primaryStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an urgent/error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintVoice prints a voice-recognised input line.
func (u *UI) PrintVoice(text string) {
	u.Println(secondaryStyle.Render("[voice] ") + primaryStyle.Render(text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("compost") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// PrintMarkdown renders AI output as terminal markdown. If rendering
// fails the raw text is printed instead.
func (u *UI) PrintMarkdown(text string) {
	out, err := u.renderMarkdown(text)
	if err != nil {
		u.PrintChat(text)
		return
	}
	u.Println(strings.TrimRight(out, "\n"))
}

func (u *UI) renderMarkdown(text string) (string, error) {
	u.mdMu.Lock()
	defer u.mdMu.Unlock()

	wrap := int(u.width.Load()) - 4
	if wrap < 40 {
		wrap = 40
	}
	if u.md == nil || u.mdWidth != wrap {
		r, err := newMarkdownRenderer(wrap)
		if err != nil {
			return "", err
		}
		u.md, u.mdWidth = r, wrap
	}
	return u.md.Render(text)
}

// RenderMarkdown renders text once at the given wrap width.
func RenderMarkdown(text string, wrap int) (string, error) {
	r, err := newMarkdownRenderer(wrap)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}

func newMarkdownRenderer(wrap int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wrap),
	)
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Ready is closed once the Bubble Tea event loop is running.
func (u *UI) Ready() <-chan struct{} { return u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop.  Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt: styled prompts break textinput's width math.
	ti.Prompt = promptText
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60 // updated on first WindowSizeMsg

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = pendingStyle

	m := model{
		source:  u.source,
		input:   ti,
		spinner: sp,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		width:   &u.width,
		echoFn: func(v string) {
			u.PrintUserInput(v)
		},
	}
	m.refreshStatus()

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	source  StatusSource
	input   textinput.Model
	spinner spinner.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string) // prints user input into scrollback
	width   *atomic.Int64
	status  statusInfo
}

type statusInfo struct {
	result  domain.RatioResult
	pending bool
	err     error
}

// Messages.
type (
	tickMsg    time.Time
	refreshMsg struct{}
)

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Echo outside Update so Println can't deadlock on msgs.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width.Store(int64(msg.Width))
		if msg.Width > len(promptText) {
			m.input.Width = msg.Width - len(promptText)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshMsg:
		m.refreshStatus()
		return m, nil

	case tickMsg:
		m.refreshStatus()
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(m.titleStr()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) refreshStatus() {
	if m.source == nil {
		return
	}
	res, err := m.source.Result()
	m.status = statusInfo{
		result:  res,
		pending: m.source.AdvicePending(),
		err:     err,
	}
}

func (m model) titleStr() string {
	if m.status.result.Status == domain.StatusEmpty {
		return "CompostCoach"
	}
	return fmt.Sprintf("CompostCoach | C:N %.1f %s", m.status.result.Ratio, m.status.result.Status)
}

func (m model) View() string {
	var b strings.Builder

	if m.source != nil {
		b.WriteString(m.renderBar())
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBar() string {
	w := int(m.width.Load())
	if w <= 0 {
		w = 80
	}

	var parts []string
	res := m.status.result
	switch {
	case m.status.err != nil:
		parts = append(parts, urgentOutputStyle.Render("ratio unavailable"))
	case res.Status == domain.StatusEmpty:
		parts = append(parts, pendingStyle.Render(ratio.StatusHint(res.Status)))
	default:
		accent := ratio.AccentFor(res.Ratio)
		style := accentStyles[accent]
		parts = append(parts,
			labelStyle.Render("C:N ")+style.Render(fmt.Sprintf("%.1f", res.Ratio)),
			RenderMeter(meterWidth(w), res.Ratio),
			style.Render(res.Status.String()),
			labelStyle.Render(ratio.StatusHint(res.Status)),
		)
	}
	if m.status.pending {
		parts = append(parts, m.spinner.View()+pendingStyle.Render("asking the coach..."))
	}

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "
	return barBg.Width(w).Render(content)
}

// ── Meter ────────────────────────────────────────────────────────

func meterWidth(termWidth int) int {
	switch {
	case termWidth >= 120:
		return 30
	case termWidth >= 80:
		return 20
	default:
		return 10
	}
}

// RenderMeter draws the coloured ratio meter.
func RenderMeter(width int, r float64) string {
	style := accentStyles[ratio.AccentFor(r)]
	return style.Render(meterCells(width, ratio.MeterPosition(r)))
}

// meterCells draws a track of width cells with a marker at pos percent.
func meterCells(width int, pos float64) string {
	if width < 2 {
		width = 2
	}
	at := int(math.Round(pos / 100 * float64(width-1)))
	at = max(0, min(width-1, at))

	var b strings.Builder
	b.WriteByte('[')
	for i := range width {
		if i == at {
			b.WriteString("●")
		} else {
			b.WriteString("━")
		}
	}
	b.WriteByte(']')
	return b.String()
}
