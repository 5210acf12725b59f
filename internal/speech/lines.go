// Lines centralises every string the coach says out loud. Keep them short
// and direct; the TTS engine handles inflection.

package speech

import (
	"fmt"
	"math/rand/v2"

	"github.com/hammamikhairi/compostcoach/internal/domain"
)

// ── Greeting / Global ────────────────────────────────────────────

func LineWelcome() string {
	return "Hi. Let's build a compost pile. Add some greens and browns."
}

func LineBye() string {
	return "Happy composting."
}

func LineNothingToRepeat() string {
	return "I haven't said anything yet."
}

func LineUnknown(input string) string {
	return fmt.Sprintf("Didn't catch that: %s.", input)
}

// ── Mix ──────────────────────────────────────────────────────────

func LineAdded(name string, parts int) string {
	if parts == 1 {
		return fmt.Sprintf("Added %s.", name)
	}
	return fmt.Sprintf("%s, now %d parts.", name, parts)
}

func LineRemoved(name string) string {
	return fmt.Sprintf("Removed %s.", name)
}

func LineCleared() string {
	return "Mix cleared."
}

func LineMixEmpty() string {
	return "The mix is empty. Add an ingredient first."
}

func LineNotInMix(name string) string {
	return fmt.Sprintf("%s isn't in the mix.", name)
}

func LineUnknownIngredient(query string) string {
	return fmt.Sprintf("I don't know %q. Say catalog to see the list.", query)
}

// LineRatio reads out a computed ratio with its hint.
func LineRatio(r domain.RatioResult, hint string) string {
	if r.Status == domain.StatusEmpty {
		return hint + "."
	}
	return fmt.Sprintf("Carbon to nitrogen is about %.0f to 1. %s", r.Ratio, hint)
}

// ── Advice / AI ──────────────────────────────────────────────────

func LineAIDisabled() string {
	return "The AI coach is not available. Set GEMINI_API_KEY or OPENAI_API_KEY to enable it."
}

func LineAIError() string {
	return "Something went wrong asking the coach. Try again."
}

func LineStaleAdvice() string {
	return "The mix changed while I was thinking. Ask again for fresh advice."
}

// ── Bins ─────────────────────────────────────────────────────────

func LineNoBins() string {
	return "No bins yet. Try: bin new hot backyard."
}

func LineBinCreated(name string, binType domain.BinType) string {
	return fmt.Sprintf("Started tracking %s, a %s bin.", name, binType)
}

func LineBinLogged(name string) string {
	return fmt.Sprintf("Logged an observation for %s.", name)
}

func LineBinDeleted(name string) string {
	return fmt.Sprintf("Stopped tracking %s.", name)
}

func LineInvalidBin(ref string) string {
	return fmt.Sprintf("No bin %s. Say bins to see the list.", ref)
}

// ── Thinking fillers ─────────────────────────────────────────────
// Spoken while waiting on the AI. Randomized to avoid repetition.

var thinkingQuestion = []string{
	"Let me dig into that.",
	"Good question. Give me a second.",
	"Hmm, one moment.",
	"Let me look into that.",
	"Turning that over.",
	"One second, checking.",
}

var thinkingAdvice = []string{
	"Let me look at your pile.",
	"Checking the balance.",
	"Give me a moment with that mix.",
	"Okay, sizing up the mix.",
}

var thinkingClassify = []string{
	"Hmm, one second.",
	"Let me figure out what you mean.",
	"Hold on.",
}

// LineThinkingQuestion returns a filler for questions and searches.
func LineThinkingQuestion() string {
	return thinkingQuestion[rand.IntN(len(thinkingQuestion))]
}

// LineThinkingAdvice returns a filler for mix advice.
func LineThinkingAdvice() string {
	return thinkingAdvice[rand.IntN(len(thinkingAdvice))]
}

// LineThinkingClassify returns a filler for AI intent classification.
func LineThinkingClassify() string {
	return thinkingClassify[rand.IntN(len(thinkingClassify))]
}

// ThinkingFillers returns every filler so they can be prefetched.
func ThinkingFillers() []string {
	out := make([]string, 0, len(thinkingQuestion)+len(thinkingAdvice)+len(thinkingClassify))
	out = append(out, thinkingQuestion...)
	out = append(out, thinkingAdvice...)
	out = append(out, thinkingClassify...)
	return out
}

// ── Listening ────────────────────────────────────────────────────

var listeningFillers = []string{
	"I'm listening.",
	"Go ahead.",
	"Yes?",
	"What's in the pile?",
}

// LineListening returns a prompt spoken before push-to-talk recording.
func LineListening() string {
	return listeningFillers[rand.IntN(len(listeningFillers))]
}

// ListeningFillers returns all listening prompts for prefetching.
func ListeningFillers() []string {
	out := make([]string, len(listeningFillers))
	copy(out, listeningFillers)
	return out
}

func LineNoSpeech() string {
	return "I didn't hear anything."
}
