// Package conversation provides intent parsing and user notification implementations.
package conversation

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches user input to intents using keywords and simple
// patterns. Input it cannot place comes back as IntentUnknown with the
// raw text as payload, for an AI classifier to try.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
	// build fills the intent from the submatches. nil means no payload.
	build func(m []string) *domain.Intent
}

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(quit|exit|bye|q)$`), domain.IntentQuit, nil},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp, nil},
		{regexp.MustCompile(`(?i)^(repeat|again|repeat last|say that again|what did you say|come again)$`), domain.IntentRepeatLast, nil},
		{regexp.MustCompile(`(?i)^(catalog|ingredients|list|menu)$`), domain.IntentCatalog, nil},
		{regexp.MustCompile(`(?i)^greens?$`), domain.IntentCatalog, constPayload("green")},
		{regexp.MustCompile(`(?i)^browns?$`), domain.IntentCatalog, constPayload("brown")},
		{regexp.MustCompile(`(?i)^(clear|reset|empty|start over)$`), domain.IntentClear, nil},
		{regexp.MustCompile(`(?i)^(mix|ratio|status|show|pile)$`), domain.IntentShowMix, nil},
		{regexp.MustCompile(`(?i)^(advice|advise|coach|tips?)$`), domain.IntentAdvice, nil},
		{regexp.MustCompile(`(?i)^news$`), domain.IntentNews, nil},
		{regexp.MustCompile(`(?i)^bins?$`), domain.IntentListBins, nil},
		{regexp.MustCompile(`(?i)^(say|listen|talk|mic|voice)$`), domain.IntentListen, nil},

		// Bin tracker.
		{regexp.MustCompile(`(?i)^bin\s+new\s+(\S+)\s+(.+)$`), domain.IntentNewBin, func(m []string) *domain.Intent {
			return &domain.Intent{Args: []string{m[1], strings.TrimSpace(m[2])}}
		}},
		{regexp.MustCompile(`(?i)^bin\s+log\s+(.+)$`), domain.IntentLogBin, func(m []string) *domain.Intent {
			return &domain.Intent{Args: strings.Fields(m[1])}
		}},
		{regexp.MustCompile(`(?i)^bin\s+(?:analy[sz]e|health)\s+(\S+)$`), domain.IntentAnalyzeBin, groupPayload(1)},
		{regexp.MustCompile(`(?i)^bin\s+(?:delete|remove|rm)\s+(\S+)$`), domain.IntentDeleteBin, groupPayload(1)},

		// Mix edits.
		{regexp.MustCompile(`(?i)^(?:add\s+|\+\s*)(.+)$`), domain.IntentAdd, groupPayload(1)},
		{regexp.MustCompile(`(?i)^(?:more|inc)\s+(.+?)(?:\s+(\d+))?$`), domain.IntentIncrement, amountPayload},
		{regexp.MustCompile(`(?i)^(?:(?:less|dec)\s+|-\s*)(.+?)(?:\s+(\d+))?$`), domain.IntentDecrement, amountPayload},
		{regexp.MustCompile(`(?i)^(?:remove|rm|drop)\s+(.+)$`), domain.IntentRemove, groupPayload(1)},

		// Content features.
		{regexp.MustCompile(`(?i)^weather\s+(?:in\s+|for\s+)?(.+)$`), domain.IntentWeather, groupPayload(1)},
		{regexp.MustCompile(`(?i)^(?:ask|search|lookup)\s+(.+)$`), domain.IntentAsk, groupPayload(1)},
		{regexp.MustCompile(`(?i)^(?:diagnose|inspect|look at)\s+(\S+)(?:\s+(.+))?$`), domain.IntentDiagnose, func(m []string) *domain.Intent {
			return &domain.Intent{Args: []string{m[1], strings.TrimSpace(m[2])}}
		}},
		{regexp.MustCompile(`(?i)^(?:solve|think|troubleshoot)\s+(.+)$`), domain.IntentSolve, groupPayload(1)},
	}
	return p
}

// Parse converts user input into an intent.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	// A bare number adds the n-th catalog ingredient.
	if len(trimmed) <= 2 && isDigits(trimmed) {
		return &domain.Intent{Type: domain.IntentAdd, Payload: trimmed, Amount: 1}, nil
	}

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		p.log.Debug("matched intent: %s", rule.intent)

		intent := &domain.Intent{}
		if rule.build != nil {
			intent = rule.build(m)
		}
		intent.Type = rule.intent
		if intent.Amount == 0 {
			intent.Amount = 1
		}
		return intent, nil
	}

	// Detect questions: ends with "?", or starts with a question word.
	if isQuestion(trimmed) {
		return &domain.Intent{Type: domain.IntentAsk, Payload: trimmed, Amount: 1}, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed, Amount: 1}, nil
}

func constPayload(s string) func([]string) *domain.Intent {
	return func([]string) *domain.Intent { return &domain.Intent{Payload: s} }
}

func groupPayload(i int) func([]string) *domain.Intent {
	return func(m []string) *domain.Intent {
		return &domain.Intent{Payload: strings.TrimSpace(m[i])}
	}
}

// amountPayload reads "<ingredient> [n]".
func amountPayload(m []string) *domain.Intent {
	intent := &domain.Intent{Payload: strings.TrimSpace(m[1]), Amount: 1}
	if m[2] != "" {
		if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
			intent.Amount = n
		}
	}
	return intent
}

// questionPrefixes are common English question starters.
var questionPrefixes = []string{
	"how", "what", "why", "when", "where", "who", "which",
	"can", "could", "should", "would", "will", "do", "does", "is", "are",
	"am i", "tell me", "explain",
}

// isQuestion returns true if the input looks like a question.
func isQuestion(s string) bool {
	if strings.HasSuffix(s, "?") {
		return true
	}
	lower := strings.ToLower(s)
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lower, prefix+" ") || lower == prefix {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
