package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/compostcoach/internal/catalog"
	"github.com/hammamikhairi/compostcoach/internal/display"
	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/engine"
	"github.com/hammamikhairi/compostcoach/internal/mix"
	"github.com/hammamikhairi/compostcoach/internal/ratio"
)

func newCatalogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the ingredients and their C:N ratios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.close()

			printCatalog(cmd.OutOrStdout(), catalog.NewMemoryCatalog(rt.log).List())
			return nil
		},
	}
}

func newRatioCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ratio <ingredient[=parts]>...",
		Short: "Compute the C:N ratio of a mix",
		Example: `  compostcoach ratio g1=2 b1
  compostcoach ratio "coffee=3" "dry leaves=2"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.close()

			eng := engine.New(catalog.NewMemoryCatalog(rt.log), nil, rt.log)
			if err := fillMix(eng, args); err != nil {
				return err
			}
			return printRatio(cmd.OutOrStdout(), eng)
		},
	}
}

func newAdviseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "advise <ingredient[=parts]>...",
		Short: "Compute a mix's ratio and ask the AI coach how to improve it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.close()

			svc, err := buildService(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			eng := engine.New(catalog.NewMemoryCatalog(rt.log), svc, rt.log,
				engine.WithAdviceTimeout(rt.cfg.AdviceTimeoutDuration()))
			if err := fillMix(eng, args); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printRatio(out, eng); err != nil {
				return err
			}
			advice, err := eng.RequestAdvice(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderMarkdown(advice))
			return nil
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Ask a grounded compost question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.close()

			svc, err := buildService(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			ans, err := svc.Search(cmd.Context(), strings.Join(args, " "), topic)
			if err != nil {
				return err
			}
			printAnswer(cmd.OutOrStdout(), ans)
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "narrow the search to a topic")
	return cmd
}

// ── Mix arguments ────────────────────────────────────────────────

// mixArg is one "<ingredient>[=<parts>]" argument.
type mixArg struct {
	Query string
	Parts int
}

var errBadMixArg = errors.New("bad mix argument")

// parseMixArg splits on the last "=". Parts default to 1 and are capped at
// mix.MaxParts.
func parseMixArg(s string) (mixArg, error) {
	s = strings.TrimSpace(s)
	query, partsStr, hasParts := s, "", false
	if i := strings.LastIndex(s, "="); i >= 0 {
		query, partsStr, hasParts = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
	}
	if query == "" {
		return mixArg{}, fmt.Errorf("%w %q: missing ingredient", errBadMixArg, s)
	}
	if !hasParts {
		return mixArg{Query: query, Parts: 1}, nil
	}
	n, err := strconv.Atoi(partsStr)
	if err != nil || n < 1 || n > mix.MaxParts {
		return mixArg{}, fmt.Errorf("%w %q: parts must be a whole number from 1 to %d", errBadMixArg, s, mix.MaxParts)
	}
	return mixArg{Query: query, Parts: n}, nil
}

// fillMix adds each argument to the engine's mix. Repeated ingredients
// accumulate.
func fillMix(eng *engine.Engine, args []string) error {
	for _, a := range args {
		ma, err := parseMixArg(a)
		if err != nil {
			return err
		}
		ing, err := eng.Catalog().Lookup(ma.Query)
		if err != nil {
			return err
		}
		if err := eng.Add(ing.ID); err != nil {
			return err
		}
		if ma.Parts > 1 {
			if err := eng.AdjustParts(ing.ID, ma.Parts-1); err != nil {
				return err
			}
		}
	}
	return nil
}

// ── Output ───────────────────────────────────────────────────────

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a"))
)

func printCatalog(w io.Writer, ings []domain.Ingredient) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "Ingredient", "Kind", "C:N").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, ing := range ings {
		t.Row(ing.ID, ing.Glyph+" "+ing.Name, ing.Kind.String(), fmt.Sprintf("%.0f:1", ing.CarbonNitrogenRatio))
	}
	fmt.Fprintln(w, t.Render())
}

func printRatio(w io.Writer, eng *engine.Engine) error {
	res, err := eng.Result()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Mix:    %s\n", eng.Describe())
	fmt.Fprintf(w, "Ratio:  %.1f:1  %s\n", res.Ratio, display.RenderMeter(20, res.Ratio))
	fmt.Fprintf(w, "Status: %s  %s\n", res.Status, hintStyle.Render(ratio.StatusHint(res.Status)))
	return nil
}

func printAnswer(w io.Writer, ans *domain.Answer) {
	fmt.Fprintln(w, renderMarkdown(ans.Text))
	if len(ans.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, hintStyle.Render("Sources:"))
	for i, s := range ans.Sources {
		fmt.Fprintln(w, hintStyle.Render(fmt.Sprintf("  [%d] %s  %s", i+1, s.Title, s.URI)))
	}
}

func renderMarkdown(text string) string {
	out, err := display.RenderMarkdown(text, 80)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
