package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search <name> <query>",
	Short: "Find the records closest in meaning to a query",
	Long: `Search vectorises the query with the model of the index and returns the
nearest records by cosine similarity. FAQ indexes match the query against
both questions and answers and return each record once with its best score.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

var similarCmd = &cobra.Command{
	Use:   "similar <name> <query>",
	Short: "Find records whose similarity to a query meets a threshold",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSimilar,
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <name>",
	Short: "Group near-identical records",
	Long: `Duplicates compares every vector of the index with its nearest neighbours
and reports groups of records that score at least --threshold. FAQ indexes
are compared by answer.

By default each record yields its own group and identical groups are merged.
With --connected groups that share a record are merged into one.`,
	Args: cobra.ExactArgs(1),
	RunE: runDuplicates,
}

func init() {
	searchCmd.Flags().IntP("limit", "n", 0, "maximum number of results (default search.limit or 5)")
	searchCmd.Flags().Bool("json", false, "output as JSON")

	similarCmd.Flags().IntP("limit", "n", 0, "maximum number of results (default search.limit or 5)")
	similarCmd.Flags().Float64("threshold", 0, "minimum similarity (default search.threshold or 0.95)")
	similarCmd.Flags().Bool("json", false, "output as JSON")

	duplicatesCmd.Flags().Float64("threshold", 0, "minimum similarity (default duplicates.threshold or 0.95)")
	duplicatesCmd.Flags().Int("neighbours", 0, "neighbours inspected per record (default duplicates.neighbours or 5)")
	duplicatesCmd.Flags().Bool("connected", false, "merge groups that share a record")
	duplicatesCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(searchCmd, similarCmd, duplicatesCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	limit, _ := cmd.Flags().GetInt("limit")
	limit = firstPositive(domain.DefaultSearchLimit, limit, configInt("search.limit"))

	idx, err := openIndex(ctx, args[0])
	if err != nil {
		return err
	}

	hits, err := idx.Search(ctx, strings.Join(args[1:], " "), limit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return printHits(cmd, hits)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	limit, _ := cmd.Flags().GetInt("limit")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	limit = firstPositive(domain.DefaultSearchLimit, limit, configInt("search.limit"))
	threshold = firstPositive(domain.DefaultSimilarityThreshold, threshold, configFloat("search.threshold"))

	idx, err := openIndex(ctx, args[0])
	if err != nil {
		return err
	}

	hits, err := idx.SearchSimilar(ctx, strings.Join(args[1:], " "), limit, threshold)
	if err != nil {
		return fmt.Errorf("similar search: %w", err)
	}
	return printHits(cmd, hits)
}

func printHits(cmd *cobra.Command, hits []domain.SearchHit) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if hits == nil {
			hits = []domain.SearchHit{}
		}
		return printJSON(cmd, hits)
	}

	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%d):\n", len(hits))
	for i, h := range hits {
		cmd.Printf("%2d. #%d  %.4f  [%s]\n", i+1, h.ID, h.Score, h.Collection)
		cmd.Printf("    %s\n", preview(h.Content, 120))
	}
	return nil
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	flags := cmd.Flags()
	threshold, _ := flags.GetFloat64("threshold")
	neighbours, _ := flags.GetInt("neighbours")
	connected, _ := flags.GetBool("connected")

	opts := domain.DuplicateOptions{
		Threshold:  firstPositive(domain.DefaultSimilarityThreshold, threshold, configFloat("duplicates.threshold")),
		Neighbours: firstPositive(domain.DefaultDuplicateNeighbours, neighbours, configInt("duplicates.neighbours")),
		Connected:  connected,
	}

	idx, err := openIndex(ctx, args[0])
	if err != nil {
		return err
	}

	clusters, err := idx.FindDuplicates(ctx, opts)
	if err != nil {
		return fmt.Errorf("find duplicates: %w", err)
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		if clusters == nil {
			clusters = []domain.DuplicateCluster{}
		}
		return printJSON(cmd, clusters)
	}

	if len(clusters) == 0 {
		cmd.Println("No duplicates found.")
		return nil
	}
	cmd.Printf("Found %d duplicate groups at threshold %.2f:\n", len(clusters), opts.Threshold)
	for _, c := range clusters {
		cmd.Printf("  %s\n", joinIDs(c.IDs))
	}
	return nil
}
