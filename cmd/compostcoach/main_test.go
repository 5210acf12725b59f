package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/compostcoach/internal/catalog"
	"github.com/hammamikhairi/compostcoach/internal/conversation"
	"github.com/hammamikhairi/compostcoach/internal/display"
	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/engine"
	"github.com/hammamikhairi/compostcoach/internal/logger"
	"github.com/hammamikhairi/compostcoach/internal/storage"
	"github.com/hammamikhairi/compostcoach/internal/tracker"
)

func TestParseMixArg(t *testing.T) {
	tests := []struct {
		in      string
		want    mixArg
		wantErr bool
	}{
		{in: "g1", want: mixArg{Query: "g1", Parts: 1}},
		{in: "g1=2", want: mixArg{Query: "g1", Parts: 2}},
		{in: "dry leaves=3", want: mixArg{Query: "dry leaves", Parts: 3}},
		{in: " straw ", want: mixArg{Query: "straw", Parts: 1}},
		{in: "a=b=4", want: mixArg{Query: "a=b", Parts: 4}},
		{in: "=2", wantErr: true},
		{in: "", wantErr: true},
		{in: "g1=0", wantErr: true},
		{in: "g1=-1", wantErr: true},
		{in: "g1=x", wantErr: true},
		{in: "g1=1000000", want: mixArg{Query: "g1", Parts: 1000000}},
		{in: "g1=1000001", wantErr: true},
		{in: "g1=9223372036854775807", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMixArg(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errBadMixArg))
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseMixArg(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func newTestEngine() *engine.Engine {
	log := logger.New(logger.LevelOff, nil)
	return engine.New(catalog.NewMemoryCatalog(log), nil, log)
}

func TestFillMix(t *testing.T) {
	eng := newTestEngine()
	require.NoError(t, fillMix(eng, []string{"g1=2", "dry leaves", "g1"}))

	res, err := eng.Result()
	require.NoError(t, err)
	// 3 parts at 15 plus 1 part at 60.
	assert.Equal(t, 4, res.TotalParts)
	assert.InDelta(t, 26.25, res.Ratio, 1e-9)
	assert.Equal(t, domain.StatusIdeal, res.Status)
}

func TestFillMixErrors(t *testing.T) {
	err := fillMix(newTestEngine(), []string{"unobtainium"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = fillMix(newTestEngine(), []string{"g1=none"})
	assert.ErrorIs(t, err, errBadMixArg)
}

// runCmd executes the root command with logging silenced and no config
// file on disk.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath, "--log-file", "stderr", "--quiet"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCatalogCommand(t *testing.T) {
	out, err := runCmd(t, "catalog")
	require.NoError(t, err)
	for _, want := range []string{"Vegetable Scraps", "Wood Chips", "green", "brown", "400:1"} {
		assert.Contains(t, out, want)
	}
}

func TestRatioCommand(t *testing.T) {
	out, err := runCmd(t, "ratio", "g1=2", "b1")
	require.NoError(t, err)
	assert.Contains(t, out, "2 parts Vegetable Scraps, 1 parts Dry Leaves")
	assert.Contains(t, out, "30.0:1")
	assert.Contains(t, out, "IDEAL")
}

func TestRatioCommandBadArg(t *testing.T) {
	_, err := runCmd(t, "ratio", "g1=0")
	assert.ErrorIs(t, err, errBadMixArg)

	_, err = runCmd(t, "ratio")
	assert.Error(t, err)
}

func TestAdviseCommandWithoutAI(t *testing.T) {
	_, err := runCmd(t, "--no-ai", "advise", "g1")
	assert.ErrorIs(t, err, errAIDisabled)
}

func TestLoadMedia(t *testing.T) {
	dir := t.TempDir()

	png := filepath.Join(dir, "pile.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n0000"), 0o644))
	m, err := loadMedia(png)
	require.NoError(t, err)
	assert.Equal(t, "image/png", m.MIMEType)

	// No extension: sniffed from content.
	sniffed := filepath.Join(dir, "photo")
	require.NoError(t, os.WriteFile(sniffed, []byte("\xff\xd8\xff\xe0jpegdata"), 0o644))
	m, err = loadMedia(sniffed)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", m.MIMEType)
	assert.False(t, m.IsVideo())

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err = loadMedia(txt)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = loadMedia(filepath.Join(dir, "nope.jpg"))
	assert.Error(t, err)
}

func TestIntentArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, intentArgs(&domain.Intent{Args: []string{"a", "b"}, Payload: "x y z"}))
	assert.Equal(t, []string{"hot", "Back", "pile"}, intentArgs(&domain.Intent{Payload: "hot Back pile"}))
	assert.Empty(t, intentArgs(&domain.Intent{}))
}

func TestDescribeLog(t *testing.T) {
	temp := 55.5
	l := domain.BinLog{
		Date:        time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		Temperature: &temp,
		Moisture:    domain.MoistureWet,
		Smell:       domain.SmellSour,
		Notes:       "turned",
	}
	assert.Equal(t, "2026-05-01 09:30, 55.5°C, wet, sour, turned", describeLog(l))

	l.Temperature, l.Notes = nil, ""
	assert.Equal(t, "2026-05-01 09:30, N/A, wet, sour", describeLog(l))
}

// ── REPL dispatch ────────────────────────────────────────────────

type recordingNotifier struct {
	mu     sync.Mutex
	urgent []string
}

func (n *recordingNotifier) Notify(ctx context.Context, message string) error { return nil }

func (n *recordingNotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urgent = append(n.urgent, message)
	return nil
}

func newTestApp() (*cliApp, *recordingNotifier) {
	log := logger.New(logger.LevelOff, nil)
	eng := engine.New(catalog.NewMemoryCatalog(log), nil, log)
	notifier := &recordingNotifier{}
	return &cliApp{
		engine:   eng,
		tracker:  tracker.New(storage.NewMemoryBinStore(log), nil, log),
		parser:   conversation.NewKeywordParser(log),
		notifier: notifier,
		log:      log,
		ui:       display.NewUI(eng),
		voiceCh:  make(chan string, 1),
	}, notifier
}

func (a *cliApp) exec(t *testing.T, input string) {
	t.Helper()
	intent, err := a.parser.Parse(context.Background(), input)
	require.NoError(t, err)
	a.handleIntent(context.Background(), intent)
}

func TestHandleIntentMixEdits(t *testing.T) {
	app, notifier := newTestApp()

	app.exec(t, "1")
	app.exec(t, "more vegetable 2")
	assert.Equal(t, 3, app.partsOf("g1"))

	// All greens: the warning goes through the notifier.
	require.NotEmpty(t, notifier.urgent)

	app.exec(t, "add dry leaves")
	app.exec(t, "less veg 5")
	assert.Equal(t, 1, app.partsOf("g1"), "parts never drop below one")

	app.exec(t, "remove b1")
	assert.Equal(t, 0, app.partsOf("b1"))

	app.exec(t, "clear")
	lines, err := app.engine.Entries()
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestHandleIntentUnknownIngredient(t *testing.T) {
	app, _ := newTestApp()
	app.exec(t, "add unobtainium")
	app.exec(t, "99")
	lines, err := app.engine.Entries()
	require.NoError(t, err)
	assert.Empty(t, lines)
}

// cannedAdvisor always returns the same advice.
type cannedAdvisor string

func (c cannedAdvisor) MixAdvice(ctx context.Context, desc string, ratio float64) (string, error) {
	return string(c), nil
}

func TestPresentAdviceSkipsChangedMix(t *testing.T) {
	app, _ := newTestApp()
	log := logger.New(logger.LevelOff, nil)
	app.engine = engine.New(catalog.NewMemoryCatalog(log), cannedAdvisor("Add two parts straw."), log)
	require.NoError(t, app.engine.Add("g1"))

	text, err := app.engine.RequestAdvice(context.Background())
	require.NoError(t, err)
	assert.True(t, app.presentAdvice(text))

	// The mix moves on after the answer arrived but before it is shown.
	require.NoError(t, app.engine.Add("b3"))
	assert.False(t, app.presentAdvice(text))
}

func TestHandleIntentBins(t *testing.T) {
	app, _ := newTestApp()
	ctx := context.Background()

	app.exec(t, "bin new hot Backyard pile")
	bins, err := app.tracker.Bins(ctx)
	require.NoError(t, err)
	require.Len(t, bins, 1)
	assert.Equal(t, "Backyard pile", bins[0].Name)
	assert.Equal(t, domain.BinHot, bins[0].Type)

	app.exec(t, "bin log 1 wet sour 55C smells off")
	bin, err := app.tracker.Bin(ctx, bins[0].ID)
	require.NoError(t, err)
	require.Len(t, bin.Logs, 1)
	require.NotNil(t, bin.Logs[0].Temperature)
	assert.InDelta(t, 55.0, *bin.Logs[0].Temperature, 1e-9)
	assert.Equal(t, "smells off", bin.Logs[0].Notes)

	// Invalid readings are rejected without a new log.
	app.exec(t, "bin log 1 soggy sour")
	bin, err = app.tracker.Bin(ctx, bins[0].ID)
	require.NoError(t, err)
	assert.Len(t, bin.Logs, 1)

	app.exec(t, "bin rm 7")
	app.exec(t, "bin rm 1")
	bins, err = app.tracker.Bins(ctx)
	require.NoError(t, err)
	assert.Empty(t, bins)
}

func TestRepeatLastFallsBackToPrintedLine(t *testing.T) {
	app, _ := newTestApp()
	app.exec(t, "clear")
	app.mu.Lock()
	last := app.lastSaid
	app.mu.Unlock()
	require.NotEmpty(t, last)

	app.exec(t, "repeat")
	app.mu.Lock()
	defer app.mu.Unlock()
	assert.Equal(t, last, app.lastSaid)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app, _ := newTestApp()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.run(ctx)
		close(done)
	}()

	app.voiceCh <- "add straw"
	require.Eventually(t, func() bool { return app.partsOf("b3") == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.True(t, strings.Contains(app.engine.Describe(), "Straw"))
}

func TestWakeCoalescesDetections(t *testing.T) {
	app, _ := newTestApp()
	app.wake() // no detector: dropped

	app.wakeCh = make(chan struct{}, 1)
	app.wake()
	app.wake()
	assert.Len(t, app.wakeCh, 1)
}
