package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

// maxListedFailures bounds the per-record failures printed after a write.
const maxListedFailures = 10

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printWriteReport(cmd *cobra.Command, name string, report *domain.WriteReport) {
	if report == nil {
		return
	}
	cmd.Printf("%s %s: %d received, %d written, %d dropped, %d failed (embedding size %d)\n",
		report.Operation, name, report.Received, report.Written, report.Dropped(),
		len(report.Failures), report.EmbeddingSize)
}

// explainWriteError prints the per-record detail of a partial write.
// It returns err so callers can pass it straight through.
func explainWriteError(cmd *cobra.Command, err error) error {
	var pwe *domain.PartialWriteError
	if !errors.As(err, &pwe) {
		return err
	}
	for i, f := range pwe.Failures {
		if i == maxListedFailures {
			cmd.PrintErrf("  ... %d more\n", len(pwe.Failures)-maxListedFailures)
			break
		}
		cmd.PrintErrf("  id %d (%s): %v\n", f.ID, f.Collection, f.Err)
	}
	if len(pwe.Diverged) > 0 {
		cmd.PrintErrf("ids written to only some collections: %s\n", joinIDs(pwe.Diverged))
		cmd.PrintErrln("run the same command again to complete them, or `check --repair` to remove them")
	}
	return err
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: id %q must be a positive integer", domain.ErrInvalidInput, arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// configInt returns the configured value for key, or 0 when unset.
func configInt(key string) int {
	if configStore == nil {
		return 0
	}
	return configStore.GetInt(key)
}

func configFloat(key string) float64 {
	if configStore == nil {
		return 0
	}
	return configStore.GetFloat(key)
}

// firstPositive returns the first value above zero, or fallback.
func firstPositive[T int | float64](fallback T, values ...T) T {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return fallback
}

// loadRecords reads every raw record of a corpus file.
func loadRecords(ctx context.Context, path string) ([]domain.RawRecord, error) {
	if openSource == nil {
		return nil, errors.New("record source not configured")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: --file is required", domain.ErrInvalidInput)
	}
	source, _, err := openSource(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	records, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source.Location(), err)
	}
	return records, nil
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
