package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add records to an index with its current model",
	Long: `Add vectorises the records of --file with the model the index was trained
with and upserts them. The model is not retrained, so words it has never seen
do not contribute to the new vectors. Run rebuild to retrain.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var updateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Rewrite changed records of an index",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name> <id>...",
	Short: "Delete records by id",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDelete,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <name>",
	Short: "Retrain the model on the stored records and rewrite every vector",
	Args:  cobra.ExactArgs(1),
	RunE:  runRebuild,
}

var syncCmd = &cobra.Command{
	Use:   "sync <name>",
	Short: "Bring an index in line with a record file",
	Long: `Sync compares the records of --file with the records stored in the index.
Changed and new records are rewritten, records missing from the file are
deleted and unchanged records are left alone.

With --watch the file is watched and every change is synced until the
command is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	addCmd.Flags().String("file", "", "record file (.json, .jsonl, .yaml)")
	updateCmd.Flags().String("file", "", "record file (.json, .jsonl, .yaml)")
	syncCmd.Flags().String("file", "", "record file (.json, .jsonl, .yaml)")
	syncCmd.Flags().Bool("watch", false, "keep watching the file and sync on every change")

	rootCmd.AddCommand(addCmd, updateCmd, deleteCmd, rebuildCmd, syncCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	return runWrite(cmd, args[0], driving.IndexService.Add)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return runWrite(cmd, args[0], driving.IndexService.Update)
}

type writeFunc func(driving.IndexService, context.Context, []domain.RawRecord) (*domain.WriteReport, error)

func runWrite(cmd *cobra.Command, name string, write writeFunc) error {
	ctx := commandContext(cmd)
	path, _ := cmd.Flags().GetString("file")

	records, err := loadRecords(ctx, path)
	if err != nil {
		return err
	}
	idx, err := openIndex(ctx, name)
	if err != nil {
		return err
	}

	report, err := write(idx, ctx, records)
	printWriteReport(cmd, name, report)
	if err != nil {
		return explainWriteError(cmd, err)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	idx, err := openIndex(ctx, args[0])
	if err != nil {
		return err
	}

	deleted, err := idx.Delete(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	cmd.Printf("Deleted %d of %d ids from %s\n", len(deleted), len(ids), args[0])
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	idx, err := openIndex(ctx, args[0])
	if err != nil {
		return err
	}

	report, err := idx.Rebuild(ctx)
	printWriteReport(cmd, args[0], report)
	if err != nil {
		return explainWriteError(cmd, err)
	}
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	if openSource == nil {
		return errors.New("record source not configured")
	}
	ctx := commandContext(cmd)
	name := args[0]
	path, _ := cmd.Flags().GetString("file")
	watch, _ := cmd.Flags().GetBool("watch")
	if path == "" {
		return fmt.Errorf("%w: --file is required", domain.ErrInvalidInput)
	}

	source, watcher, err := openSource(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if watch && watcher == nil {
		return fmt.Errorf("%w: %s cannot be watched", domain.ErrNotImplemented, source.Location())
	}

	idx, err := openIndex(ctx, name)
	if err != nil {
		return err
	}

	syncOnce := func(ctx context.Context) error {
		records, err := source.Load(ctx)
		if err != nil {
			return fmt.Errorf("read %s: %w", source.Location(), err)
		}
		report, err := idx.Sync(ctx, records)
		if report != nil {
			printSyncReport(cmd, name, report)
		}
		if err != nil {
			return explainWriteError(cmd, err)
		}
		return nil
	}

	if err := syncOnce(ctx); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", source.Location())
	return watcher.Watch(ctx, func(ctx context.Context) error {
		logger.Info("change detected in %s", source.Location())
		if err := syncOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A bad edit of the file must not stop the watch.
			cmd.PrintErrf("sync failed: %v\n", err)
		}
		return nil
	})
}

func printSyncReport(cmd *cobra.Command, name string, report *domain.SyncReport) {
	failed := 0
	if report.Write != nil {
		failed = len(report.Write.Failures)
	}
	cmd.Printf("sync %s: %d unchanged, %d updated, %d deleted, %d failed\n",
		name, report.Unchanged, report.Updated, report.Deleted, failed)
}
