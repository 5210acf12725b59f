package speech

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*SpeakingNotifier)(nil)

// SpeakingNotifier prints through an inner notifier and queues the same
// message on the Mouth.
type SpeakingNotifier struct {
	text  domain.Notifier
	mouth *Mouth
	log   *logger.Logger
}

// NewSpeakingNotifier creates a notifier that both prints and speaks.
func NewSpeakingNotifier(text domain.Notifier, mouth *Mouth, log *logger.Logger) *SpeakingNotifier {
	return &SpeakingNotifier{text: text, mouth: mouth, log: log}
}

// Notify prints the message and speaks it at normal priority.
func (n *SpeakingNotifier) Notify(ctx context.Context, message string) error {
	if err := n.text.Notify(ctx, message); err != nil {
		return err
	}
	n.mouth.Say(CleanForSpeech(message), PriorityNormal)
	return nil
}

// NotifyUrgent prints the message and speaks it at high priority.
func (n *SpeakingNotifier) NotifyUrgent(ctx context.Context, message string) error {
	if err := n.text.NotifyUrgent(ctx, message); err != nil {
		return err
	}
	n.mouth.Say(CleanForSpeech(message), PriorityHigh)
	return nil
}

var (
	ansiCodes     = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	bracketPrefix = regexp.MustCompile(`^\[[A-Za-z]+\]\s*`)
	mdLink        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdMarks       = regexp.MustCompile("[*_`#>]+")
	spaces        = regexp.MustCompile(`\s+`)
)

// CleanForSpeech strips terminal colours, tag prefixes and markdown so
// only the words are spoken.
func CleanForSpeech(msg string) string {
	s := ansiCodes.ReplaceAllString(msg, "")
	s = bracketPrefix.ReplaceAllString(s, "")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdMarks.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
