package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/compostcoach/internal/advisor"
	"github.com/hammamikhairi/compostcoach/internal/display"
	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/engine"
	"github.com/hammamikhairi/compostcoach/internal/logger"
	"github.com/hammamikhairi/compostcoach/internal/ratio"
	"github.com/hammamikhairi/compostcoach/internal/speech"
	"github.com/hammamikhairi/compostcoach/internal/tracker"
)

// maxMediaBytes caps files sent for diagnosis.
const maxMediaBytes = 20 << 20

type cliApp struct {
	engine   *engine.Engine
	tracker  *tracker.Tracker
	svc      *advisor.Service // nil when AI is disabled
	parser   domain.IntentParser
	notifier domain.Notifier
	mouth    *speech.Mouth // nil when TTS is disabled
	ear      *speech.Ear   // nil when voice input is disabled
	log      *logger.Logger
	ui       *display.UI
	voiceCh  chan string
	wakeCh   chan struct{} // nil without a wake word detector

	wg       sync.WaitGroup // advice and listen goroutines
	mu       sync.Mutex
	lastSaid string
}

// say prints a conversational line and speaks it.
func (a *cliApp) say(text string, priority speech.Priority) {
	a.ui.PrintChat(text)
	a.speak(text, priority)
}

// sayUrgent prints a line in red and speaks it at high priority.
func (a *cliApp) sayUrgent(text string) {
	a.ui.PrintUrgent(text)
	a.speak(text, speech.PriorityHigh)
}

// sayMarkdown renders AI output and speaks its plain text.
func (a *cliApp) sayMarkdown(text string, priority speech.Priority) {
	a.ui.PrintMarkdown(text)
	a.speak(speech.CleanForSpeech(text), priority)
}

func (a *cliApp) speak(text string, priority speech.Priority) {
	a.mu.Lock()
	a.lastSaid = text
	a.mu.Unlock()
	if a.mouth != nil {
		a.mouth.Say(text, priority)
	}
}

// filler prints and speaks a short "thinking" line.
func (a *cliApp) filler(text string) {
	a.ui.PrintHint(text)
	if a.mouth != nil {
		a.mouth.Say(text, speech.PriorityCritical)
	}
}

func (a *cliApp) run(ctx context.Context) {
	defer a.wg.Wait()

	a.say(speech.LineWelcome(), speech.PriorityNormal)
	a.ui.Println("")
	a.showCatalog("")

	uiCh := a.ui.InputChan()
	for {
		var input string
		select {
		case <-ctx.Done():
			return
		case input = <-uiCh:
		case input = <-a.voiceCh:
			a.ui.PrintVoice(input)
		case <-a.wakeCh:
			a.listen(ctx)
			continue
		}

		intent, err := a.parser.Parse(ctx, input)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}
		if intent.Type == domain.IntentUnknown && intent.Payload == "" {
			continue
		}

		a.log.Debug("intent: %s (payload=%q, args=%v)", intent.Type, intent.Payload, intent.Args)
		if quit := a.handleIntent(ctx, intent); quit {
			return
		}
	}
}

// handleIntent dispatches one intent. It reports whether to quit.
func (a *cliApp) handleIntent(ctx context.Context, intent *domain.Intent) bool {
	// New commands cut off whatever is still being said.
	if a.mouth != nil && intent.Type != domain.IntentRepeatLast {
		a.mouth.Interrupt()
	}

	switch intent.Type {
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentCatalog:
		a.showCatalog(intent.Payload)
	case domain.IntentAdd:
		a.addIngredient(ctx, intent.Payload)
	case domain.IntentIncrement:
		a.adjust(ctx, intent.Payload, intent.Amount)
	case domain.IntentDecrement:
		a.adjust(ctx, intent.Payload, -intent.Amount)
	case domain.IntentRemove:
		a.remove(ctx, intent.Payload)
	case domain.IntentClear:
		a.engine.Clear()
		a.ui.Refresh()
		a.say(speech.LineCleared(), speech.PriorityNormal)
	case domain.IntentShowMix:
		a.showMix()
	case domain.IntentAdvice:
		a.requestAdvice(ctx)
	case domain.IntentListBins:
		a.listBins(ctx)
	case domain.IntentNewBin:
		a.newBin(ctx, intentArgs(intent))
	case domain.IntentLogBin:
		a.logBin(ctx, intentArgs(intent))
	case domain.IntentAnalyzeBin:
		a.analyzeBin(ctx, intent.Payload)
	case domain.IntentDeleteBin:
		a.deleteBin(ctx, intent.Payload)
	case domain.IntentAsk:
		a.search(ctx, intent.Payload)
	case domain.IntentNews:
		a.news(ctx)
	case domain.IntentWeather:
		a.weather(ctx, intent.Payload)
	case domain.IntentDiagnose:
		a.diagnose(ctx, intentArgs(intent))
	case domain.IntentSolve:
		a.solve(ctx, intent.Payload)
	case domain.IntentListen:
		a.listen(ctx)
	case domain.IntentRepeatLast:
		a.repeatLast()
	case domain.IntentQuit:
		a.say(speech.LineBye(), speech.PriorityNormal)
		// Let TTS start the goodbye line.
		time.Sleep(300 * time.Millisecond)
		return true
	case domain.IntentUnknown:
		a.classifyAndDispatch(ctx, intent)
	}
	return false
}

// intentArgs falls back to splitting the payload for intents that came
// from the AI classifier, which only fills Payload.
func intentArgs(intent *domain.Intent) []string {
	if len(intent.Args) > 0 {
		return intent.Args
	}
	return strings.Fields(intent.Payload)
}

// classifyAndDispatch asks the AI what unrecognised input meant, then
// re-dispatches. Without AI it just says it didn't understand.
func (a *cliApp) classifyAndDispatch(ctx context.Context, original *domain.Intent) {
	if a.svc == nil {
		a.say(speech.LineUnknown(original.Payload), speech.PriorityLow)
		return
	}

	a.filler(speech.LineThinkingClassify())
	classified, err := a.svc.Classify(ctx, original.Payload)
	if err != nil {
		a.log.Error("AI classify failed: %v", err)
		a.say(speech.LineUnknown(original.Payload), speech.PriorityLow)
		return
	}
	if classified.Type == domain.IntentUnknown || classified.Type == domain.IntentQuit {
		a.say(speech.LineUnknown(original.Payload), speech.PriorityLow)
		return
	}

	a.log.Info("classified %q -> %s", original.Payload, classified.Type)
	a.handleIntent(ctx, classified)
}

// ── Catalog & mix ────────────────────────────────────────────────

func (a *cliApp) showCatalog(kind string) {
	cat := a.engine.Catalog()
	all := cat.List()

	show := func(title string, k domain.Kind) {
		a.ui.PrintHeading(title)
		for i, ing := range all {
			if ing.Kind != k {
				continue
			}
			a.ui.PrintLine(fmt.Sprintf("[%2d] %s %-18s %s  C:N %.0f", i+1, ing.Glyph, ing.Name, ing.ID, ing.CarbonNitrogenRatio))
		}
		a.ui.Println("")
	}

	switch kind {
	case "green":
		show("Greens (nitrogen)", domain.KindGreen)
	case "brown":
		show("Browns (carbon)", domain.KindBrown)
	default:
		show("Greens (nitrogen)", domain.KindGreen)
		show("Browns (carbon)", domain.KindBrown)
	}
	a.ui.PrintHint("Add by number or name, e.g. '3' or 'add dry leaves'.")
}

// resolve maps a catalog number or name to an ingredient.
func (a *cliApp) resolve(ref string) (domain.Ingredient, bool) {
	cat := a.engine.Catalog()
	if n, err := strconv.Atoi(ref); err == nil {
		all := cat.List()
		if n >= 1 && n <= len(all) {
			return all[n-1], true
		}
	}
	ing, err := cat.Lookup(ref)
	if err != nil {
		a.log.Debug("lookup %q: %v", ref, err)
		a.say(speech.LineUnknownIngredient(ref), speech.PriorityLow)
		return domain.Ingredient{}, false
	}
	return ing, true
}

func (a *cliApp) partsOf(id string) int {
	lines, err := a.engine.Entries()
	if err != nil {
		a.log.Error("reading mix: %v", err)
		return 0
	}
	for _, l := range lines {
		if l.Ingredient.ID == id {
			return l.Parts
		}
	}
	return 0
}

func (a *cliApp) addIngredient(ctx context.Context, ref string) {
	ing, ok := a.resolve(ref)
	if !ok {
		return
	}
	if err := a.engine.Add(ing.ID); err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	a.afterMutation(ctx, speech.LineAdded(ing.Name, a.partsOf(ing.ID)))
}

func (a *cliApp) adjust(ctx context.Context, ref string, delta int) {
	ing, ok := a.resolve(ref)
	if !ok {
		return
	}
	if err := a.engine.AdjustParts(ing.ID, delta); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.say(speech.LineNotInMix(ing.Name), speech.PriorityLow)
			return
		}
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	a.afterMutation(ctx, speech.LineAdded(ing.Name, a.partsOf(ing.ID)))
}

func (a *cliApp) remove(ctx context.Context, ref string) {
	ing, ok := a.resolve(ref)
	if !ok {
		return
	}
	if a.partsOf(ing.ID) == 0 {
		a.say(speech.LineNotInMix(ing.Name), speech.PriorityLow)
		return
	}
	a.engine.Remove(ing.ID)
	a.afterMutation(ctx, speech.LineRemoved(ing.Name))
}

// afterMutation confirms an edit and shows the new ratio. An unbalanced
// pile is raised through the notifier so it is also spoken.
func (a *cliApp) afterMutation(ctx context.Context, line string) {
	a.ui.Refresh()
	a.say(line, speech.PriorityNormal)
	res, err := a.engine.Result()
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	a.printMeter(res)
	switch res.Status {
	case domain.StatusTooGreen, domain.StatusTooBrown:
		if err := a.notifier.NotifyUrgent(ctx, ratio.StatusHint(res.Status)); err != nil {
			a.log.Warn("notify: %v", err)
		}
	default:
		a.ui.PrintHint(ratio.StatusHint(res.Status))
	}
}

// printMeter shows the ratio and meter. Nothing is printed for an empty mix.
func (a *cliApp) printMeter(res domain.RatioResult) {
	if res.Status == domain.StatusEmpty {
		return
	}
	a.ui.PrintLine(fmt.Sprintf("C:N %.1f  %s  %s", res.Ratio, display.RenderMeter(20, res.Ratio), res.Status))
}

func (a *cliApp) printRatioLine(res domain.RatioResult) {
	if res.Status == domain.StatusEmpty {
		a.ui.PrintHint(ratio.StatusHint(res.Status))
		return
	}
	a.printMeter(res)
	a.ui.PrintHint(ratio.StatusHint(res.Status))
}

func (a *cliApp) showMix() {
	lines, err := a.engine.Entries()
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	res, err := a.engine.Result()
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	if len(lines) == 0 {
		a.say(speech.LineMixEmpty(), speech.PriorityLow)
		return
	}

	a.ui.PrintHeading(fmt.Sprintf("Mix (%d parts)", res.TotalParts))
	for _, l := range lines {
		a.ui.PrintLine(fmt.Sprintf("%s %-18s x%d  (%s, C:N %.0f)",
			l.Ingredient.Glyph, l.Ingredient.Name, l.Parts, l.Ingredient.Kind, l.Ingredient.CarbonNitrogenRatio))
	}
	a.printRatioLine(res)

	if advice, ok := a.engine.Advice(); ok {
		a.ui.PrintHeading("Coach")
		a.ui.PrintMarkdown(advice)
	}
	a.speak(speech.LineRatio(res, ratio.StatusHint(res.Status)), speech.RatioPriority(res.Status))
}

// requestAdvice runs the advisory call in the background so the mix stays
// editable. Stale answers are dropped by the engine.
func (a *cliApp) requestAdvice(ctx context.Context) {
	if a.svc == nil {
		a.say(speech.LineAIDisabled(), speech.PriorityLow)
		return
	}
	if res, err := a.engine.Result(); err == nil && res.Status == domain.StatusEmpty {
		a.say(speech.LineMixEmpty(), speech.PriorityLow)
		return
	}

	a.filler(speech.LineThinkingAdvice())
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.ui.Refresh()

		text, err := a.engine.RequestAdvice(ctx)
		switch {
		case err == nil:
			a.presentAdvice(text)
		case errors.Is(err, domain.ErrStaleAdvice):
			a.ui.PrintHint(speech.LineStaleAdvice())
		case errors.Is(err, domain.ErrEmptyMix):
			a.say(speech.LineMixEmpty(), speech.PriorityLow)
		case ctx.Err() != nil:
		default:
			a.log.Error("advice failed: %v", err)
			a.sayUrgent(speech.LineAIError())
		}
	}()
	// Let the status bar pick up the pending request.
	a.ui.Refresh()
}

// presentAdvice prints text only if it still belongs to the current mix.
// It reports whether anything was shown.
func (a *cliApp) presentAdvice(text string) bool {
	if current, ok := a.engine.Advice(); !ok || current != text {
		a.ui.PrintHint(speech.LineStaleAdvice())
		return false
	}
	a.ui.PrintHeading("Coach")
	a.sayMarkdown(text, speech.PriorityNormal)
	return true
}

// ── Bins ─────────────────────────────────────────────────────────

// binByRef resolves a 1-based bin number from the bins list.
func (a *cliApp) binByRef(ctx context.Context, ref string) (*domain.CompostBin, bool) {
	bins, err := a.tracker.Bins(ctx)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return nil, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(ref, "#"))
	if err != nil || n < 1 || n > len(bins) {
		a.say(speech.LineInvalidBin(ref), speech.PriorityLow)
		return nil, false
	}
	return bins[n-1], true
}

func (a *cliApp) listBins(ctx context.Context) {
	bins, err := a.tracker.Bins(ctx)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	if len(bins) == 0 {
		a.say(speech.LineNoBins(), speech.PriorityLow)
		return
	}

	a.ui.PrintHeading("Bins")
	for i, b := range bins {
		a.ui.PrintLine(fmt.Sprintf("[%d] %s (%s), started %s, %d logs",
			i+1, b.Name, b.Type, b.StartDate.Format("2006-01-02"), len(b.Logs)))
		if recent := b.RecentLogs(1); len(recent) == 1 {
			a.ui.PrintHint("    last: " + describeLog(recent[0]))
		}
	}
}

func (a *cliApp) newBin(ctx context.Context, args []string) {
	if len(args) < 2 {
		a.ui.PrintHint("Usage: bin new <hot|cold|vermicompost> <name>")
		return
	}
	bin, err := a.tracker.CreateBin(ctx, tracker.BinInput{
		Type: args[0],
		Name: strings.Join(args[1:], " "),
	})
	if err != nil {
		a.ui.PrintUrgent(err.Error())
		return
	}
	a.say(speech.LineBinCreated(bin.Name, bin.Type), speech.PriorityNormal)
}

// logBin reads "<n> <moisture> <smell> [temp] [notes...]".
func (a *cliApp) logBin(ctx context.Context, args []string) {
	if len(args) < 3 {
		a.ui.PrintHint("Usage: bin log <n> <dry|ideal|wet> <earthy|sour|ammonia|none> [temp °C] [notes]")
		return
	}
	bin, ok := a.binByRef(ctx, args[0])
	if !ok {
		return
	}

	in := tracker.LogInput{Moisture: args[1], Smell: args[2]}
	rest := args[3:]
	if len(rest) > 0 {
		if t, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSuffix(rest[0], "C"), "°"), 64); err == nil {
			in.Temperature = &t
			rest = rest[1:]
		}
	}
	in.Notes = strings.Join(rest, " ")

	if _, err := a.tracker.AddLog(ctx, bin.ID, in); err != nil {
		a.ui.PrintUrgent(err.Error())
		return
	}
	a.say(speech.LineBinLogged(bin.Name), speech.PriorityNormal)
}

func (a *cliApp) analyzeBin(ctx context.Context, ref string) {
	bin, ok := a.binByRef(ctx, ref)
	if !ok {
		return
	}
	if a.svc == nil {
		a.say(speech.LineAIDisabled(), speech.PriorityLow)
		return
	}

	a.filler(speech.LineThinkingQuestion())
	text, err := a.tracker.Analyze(ctx, bin.ID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			a.ui.PrintHint(err.Error())
			return
		}
		a.log.Error("bin health failed: %v", err)
		a.sayUrgent(speech.LineAIError())
		return
	}
	a.ui.PrintHeading("Bin health: " + bin.Name)
	a.sayMarkdown(text, speech.PriorityNormal)
}

func (a *cliApp) deleteBin(ctx context.Context, ref string) {
	bin, ok := a.binByRef(ctx, ref)
	if !ok {
		return
	}
	if err := a.tracker.DeleteBin(ctx, bin.ID); err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	a.say(speech.LineBinDeleted(bin.Name), speech.PriorityNormal)
}

func describeLog(l domain.BinLog) string {
	temp := "N/A"
	if l.Temperature != nil {
		temp = fmt.Sprintf("%.1f°C", *l.Temperature)
	}
	s := fmt.Sprintf("%s, %s, %s, %s", l.Date.Format("2006-01-02 15:04"), temp, l.Moisture, l.Smell)
	if l.Notes != "" {
		s += ", " + l.Notes
	}
	return s
}

// ── Content ──────────────────────────────────────────────────────

func (a *cliApp) search(ctx context.Context, query string) {
	if a.svc == nil {
		a.say(speech.LineAIDisabled(), speech.PriorityLow)
		return
	}
	a.filler(speech.LineThinkingQuestion())
	ans, err := a.svc.Search(ctx, query, "")
	if err != nil {
		a.log.Error("search failed: %v", err)
		a.sayUrgent(speech.LineAIError())
		return
	}
	a.printAnswer(ans)
}

func (a *cliApp) news(ctx context.Context) {
	if a.svc == nil {
		a.say(speech.LineAIDisabled(), speech.PriorityLow)
		return
	}
	a.filler(speech.LineThinkingQuestion())
	ans, err := a.svc.News(ctx)
	if err != nil {
		a.log.Error("news failed: %v", err)
		a.sayUrgent(speech.LineAIError())
		return
	}
	a.ui.PrintHeading("Compost news")
	a.printAnswer(ans)
}

func (a *cliApp) printAnswer(ans *domain.Answer) {
	a.sayMarkdown(ans.Text, speech.PriorityNormal)
	for i, s := range ans.Sources {
		a.ui.PrintHint(fmt.Sprintf("[%d] %s  %s", i+1, s.Title, s.URI))
	}
}

func (a *cliApp) weather(ctx context.Context, location string) {
	if a.svc == nil {
		a.say(speech.LineAIDisabled(), speech.PriorityLow)
		return
	}
	a.filler(speech.LineThinkingQuestion())
	text, err := a.svc.Weather(ctx, location)
	if err != nil {
		a.log.Error("weather failed: %v", err)
		a.sayUrgent(speech.LineAIError())
		return
	}
	a.ui.PrintHeading("Weather for " + location)
	a.sayMarkdown(text, speech.PriorityNormal)
}

func (a *cliApp) solve(ctx context.Context, problem string) {
	if a.svc == nil {
		a.say(speech.LineAIDisabled(), speech.PriorityLow)
		return
	}
	a.filler(speech.LineThinkingQuestion())
	text, err := a.svc.Solve(ctx, problem)
	if err != nil {
		a.log.Error("solve failed: %v", err)
		a.sayUrgent(speech.LineAIError())
		return
	}
	a.sayMarkdown(text, speech.PriorityNormal)
}

func (a *cliApp) diagnose(ctx context.Context, args []string) {
	if len(args) == 0 || args[0] == "" {
		a.ui.PrintHint("Usage: diagnose <image or video path> [question]")
		return
	}
	if a.svc == nil {
		a.say(speech.LineAIDisabled(), speech.PriorityLow)
		return
	}

	media, err := loadMedia(args[0])
	if err != nil {
		a.ui.PrintUrgent(err.Error())
		return
	}
	prompt := strings.TrimSpace(strings.Join(args[1:], " "))

	a.filler(speech.LineThinkingQuestion())
	text, err := a.svc.Diagnose(ctx, media, prompt)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupported) {
			a.ui.PrintUrgent(err.Error())
			return
		}
		a.log.Error("diagnose failed: %v", err)
		a.sayUrgent(speech.LineAIError())
		return
	}
	a.sayMarkdown(text, speech.PriorityNormal)
}

// loadMedia reads an image or video and works out its MIME type from the
// extension, falling back to content sniffing.
func loadMedia(path string) (domain.Media, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Media{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > maxMediaBytes {
		return domain.Media{}, fmt.Errorf("%s is too large (%d MB max): %w", path, maxMediaBytes>>20, domain.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Media{}, fmt.Errorf("reading %s: %w", path, err)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")
	if !strings.HasPrefix(mimeType, "image/") && !strings.HasPrefix(mimeType, "video/") {
		return domain.Media{}, fmt.Errorf("%s is %s, not an image or video: %w", path, mimeType, domain.ErrInvalidInput)
	}
	return domain.Media{Data: data, MIMEType: mimeType}, nil
}

// ── Voice & misc ─────────────────────────────────────────────────

// listen records one utterance in the background and feeds it back into
// the input loop.
// wake asks the run loop to start listening. Detections that arrive while
// one is already pending are dropped.
func (a *cliApp) wake() {
	select {
	case a.wakeCh <- struct{}{}:
	default:
	}
}

func (a *cliApp) listen(ctx context.Context) {
	if a.ear == nil {
		a.ui.PrintHint("Voice input is off. Start with --voice.")
		return
	}
	if a.ear.Listening() {
		return
	}

	a.ui.PrintHint("Listening...")
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		text, err := a.ear.Listen(ctx)
		switch {
		case errors.Is(err, speech.ErrNoSpeech):
			a.say(speech.LineNoSpeech(), speech.PriorityLow)
			return
		case err != nil:
			if ctx.Err() == nil {
				a.log.Error("listen failed: %v", err)
				a.ui.PrintUrgent(fmt.Sprintf("Voice error: %v", err))
			}
			return
		}
		select {
		case a.voiceCh <- text:
		case <-ctx.Done():
		}
	}()
}

func (a *cliApp) repeatLast() {
	text := ""
	if a.mouth != nil {
		text = a.mouth.LastSpoken()
	}
	if text == "" {
		a.mu.Lock()
		text = a.lastSaid
		a.mu.Unlock()
	}
	if text == "" {
		a.say(speech.LineNothingToRepeat(), speech.PriorityLow)
		return
	}
	a.say(text, speech.PriorityHigh)
}

func (a *cliApp) showHelp() {
	a.ui.PrintHeading("Mix")
	a.ui.PrintLine("  catalog / greens / browns   Show ingredients")
	a.ui.PrintLine("  3 / add <ingredient>        Add an ingredient (number or name)")
	a.ui.PrintLine("  more <ingredient> [n]       Add parts")
	a.ui.PrintLine("  less <ingredient> [n]       Remove parts (never below 1)")
	a.ui.PrintLine("  remove <ingredient>         Take an ingredient out")
	a.ui.PrintLine("  mix / ratio                 Show the mix and its C:N ratio")
	a.ui.PrintLine("  clear                       Empty the mix")
	a.ui.PrintLine("  advice                      Ask the coach about this mix")
	a.ui.Println("")
	a.ui.PrintHeading("Bins")
	a.ui.PrintLine("  bins                        List tracked bins")
	a.ui.PrintLine("  bin new <type> <name>       Track a hot, cold or vermicompost bin")
	a.ui.PrintLine("  bin log <n> <moist> <smell> [temp] [notes]")
	a.ui.PrintLine("  bin analyze <n>             Read trends from recent logs")
	a.ui.PrintLine("  bin delete <n>              Stop tracking a bin")
	a.ui.Println("")
	a.ui.PrintHeading("Ask (needs GEMINI_API_KEY or OPENAI_API_KEY)")
	a.ui.PrintLine("  why is my pile cold?        Grounded answer with sources")
	a.ui.PrintLine("  news                        Recent composting news")
	a.ui.PrintLine("  weather <place>             Outdoor composting outlook")
	a.ui.PrintLine("  diagnose <file> [question]  Inspect a photo or video of a pile")
	a.ui.PrintLine("  solve <problem>             Think hard about a tricky problem")
	a.ui.Println("")
	a.ui.PrintLine("  listen                      Speak a command (with --voice)")
	a.ui.PrintLine("  repeat                      Say the last reply again")
	a.ui.PrintLine("  help / quit")
}
