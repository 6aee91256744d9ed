package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-index/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui <name>",
	Short: "Search an index interactively",
	Long: `Launch an interactive terminal search over one index.

Controls:
  Enter    - Run the query
  Tab      - Switch between search and similar mode
  ↑/k, ↓/j - Move through results
  n        - New query
  Esc      - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

// isTerminal reports whether stdout is attached to a terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !isTerminal() {
		return errors.New("tui requires an interactive terminal")
	}

	ctx := commandContext(cmd)
	idx, err := openIndex(ctx, args[0])
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Index:     idx,
		Limit:     firstPositive(domain.DefaultSearchLimit, configInt("search.limit")),
		Threshold: firstPositive(domain.DefaultSimilarityThreshold, configFloat("search.threshold")),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
