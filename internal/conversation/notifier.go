package conversation

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

// Notifications are tagged like the pile they describe: a sprout for
// routine news, a scale for a mix that has tipped out of balance.
const (
	notifyGlyph = "🌱"
	urgentGlyph = "⚖"
)

var (
	notifyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#86efac"))
	urgentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d97706"))
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...interface{})

// CLINotifier prints coach notifications to the terminal.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewCLINotifier creates a terminal notifier.
// If printFn is nil, fmt.Printf is used.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints a normal notification.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.printFn("%s", notifyStyle.Render(notifyGlyph+" "+message))
	return nil
}

// NotifyUrgent prints a balance warning in amber.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s", urgentStyle.Render(urgentGlyph+" "+message))
	return nil
}
