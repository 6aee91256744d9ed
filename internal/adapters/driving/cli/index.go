package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an index from a record file",
	Long: `Create trains a new model on the records of --file, creates the collections
of the index and writes every vector.

Document indexes store one vector per record in a single collection. FAQ
indexes store the question and the answer of each record in two collections
that share the record id.

Examples:
  sercha-index create articles --file articles.json
  sercha-index create support --mode faq --file faq.yaml --question-field q --answer-field a`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexes",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <name> <id>...",
	Short: "Show stored records by id",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runShow,
}

var dropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Remove an index and its collections",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrop,
}

var checkCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Check that every collection of an index holds the same ids",
	Long: `Check scrolls every collection of the index and reports ids that are present
in some collections but not all of them. Such ids are left behind when a write
to an FAQ index fails half-way. With --repair they are deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	createCmd.Flags().String("file", "", "record file (.json, .jsonl, .yaml)")
	createCmd.Flags().String("mode", string(domain.SingleCollectionMode), "index mode: document or faq")
	createCmd.Flags().String("id-field", "id", "record field holding the id")
	createCmd.Flags().String("content-field", "content", "record field holding the text (document mode)")
	createCmd.Flags().String("question-field", "question", "record field holding the question (faq mode)")
	createCmd.Flags().String("answer-field", "answer", "record field holding the answer (faq mode)")
	createCmd.Flags().String("collection", "", "documents collection name (default <name>)")
	createCmd.Flags().String("questions-collection", "", "questions collection name (default <name>_questions)")
	createCmd.Flags().String("answers-collection", "", "answers collection name (default <name>_answers)")
	createCmd.Flags().String("model", domain.DefaultModelKind, "vectorizer kind")
	createCmd.Flags().Bool("force", false, "replace an existing index")

	listCmd.Flags().Bool("json", false, "output as JSON")
	showCmd.Flags().Bool("json", false, "output as JSON")
	checkCmd.Flags().Bool("repair", false, "delete ids missing from some collections")

	rootCmd.AddCommand(createCmd, listCmd, showCmd, dropCmd, checkCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	catalog, err := requireCatalog()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	path, _ := flags.GetString("file")
	rawMode, _ := flags.GetString("mode")

	mode, err := domain.ParseIndexMode(rawMode)
	if err != nil {
		return err
	}

	spec := domain.IndexSpec{Name: args[0], Mode: mode}
	spec.Fields.ID, _ = flags.GetString("id-field")
	spec.Fields.Content, _ = flags.GetString("content-field")
	spec.Fields.Question, _ = flags.GetString("question-field")
	spec.Fields.Answer, _ = flags.GetString("answer-field")
	spec.Collections.Documents, _ = flags.GetString("collection")
	spec.Collections.Questions, _ = flags.GetString("questions-collection")
	spec.Collections.Answers, _ = flags.GetString("answers-collection")
	spec.ModelKind, _ = flags.GetString("model")
	spec.Overwrite, _ = flags.GetBool("force")

	// Only the fields of the chosen mode are kept in the manifest.
	if mode == domain.DualCollectionMode {
		spec.Fields.Content = ""
		spec.Collections.Documents = ""
	} else {
		spec.Fields.Question, spec.Fields.Answer = "", ""
		spec.Collections.Questions, spec.Collections.Answers = "", ""
	}

	ctx := commandContext(cmd)
	records, err := loadRecords(ctx, path)
	if err != nil {
		return err
	}

	idx, report, err := catalog.Create(ctx, spec, records)
	printWriteReport(cmd, spec.Name, report)
	if err != nil {
		return explainWriteError(cmd, err)
	}

	manifest := idx.Manifest()
	cmd.Printf("Created %s index %s (%s)\n", manifest.Mode, manifest.Name, strings.Join(manifest.CollectionNames(), ", "))
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	catalog, err := requireCatalog()
	if err != nil {
		return err
	}

	manifests, err := catalog.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if manifests == nil {
			manifests = []domain.IndexManifest{}
		}
		return printJSON(cmd, manifests)
	}

	if len(manifests) == 0 {
		cmd.Println("No indexes.")
		return nil
	}

	cmd.Printf("%-24s %-9s %8s %6s  %s\n", "NAME", "MODE", "RECORDS", "DIM", "TRAINED")
	for i := range manifests {
		m := &manifests[i]
		trained := "-"
		if !m.TrainedAt.IsZero() {
			trained = m.TrainedAt.Format("2006-01-02 15:04")
		}
		cmd.Printf("%-24s %-9s %8d %6d  %s\n", m.Name, m.Mode, m.RecordCount, m.EmbeddingSize, trained)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	idx, err := openIndex(ctx, args[0])
	if err != nil {
		return err
	}

	records, err := idx.Retrieve(ctx, ids)
	if err != nil {
		return fmt.Errorf("retrieve records: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if records == nil {
			records = []domain.Record{}
		}
		return printJSON(cmd, records)
	}

	if len(records) == 0 {
		cmd.Println("No records found.")
		return nil
	}
	for _, rec := range records {
		switch r := rec.(type) {
		case domain.FAQRecord:
			cmd.Printf("#%d\n  Q: %s\n  A: %s\n", r.ID, r.Question, r.Answer)
		case domain.DocumentRecord:
			cmd.Printf("#%d\n  %s\n", r.ID, r.Content)
		}
	}
	return nil
}

func runDrop(cmd *cobra.Command, args []string) error {
	catalog, err := requireCatalog()
	if err != nil {
		return err
	}
	if err := catalog.Drop(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	cmd.Printf("Dropped index %s\n", args[0])
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	idx, err := openIndex(ctx, args[0])
	if err != nil {
		return err
	}

	var report *domain.ConsistencyReport
	repair, _ := cmd.Flags().GetBool("repair")
	if repair {
		report, err = idx.Repair(ctx)
	} else {
		report, err = idx.CheckConsistency(ctx)
	}
	if err != nil {
		return err
	}

	for _, name := range idx.Manifest().CollectionNames() {
		cmd.Printf("%-32s %d points\n", name, report.Counts[name])
	}
	if report.Consistent() {
		cmd.Println("Index is consistent.")
		return nil
	}

	collections := make([]string, 0, len(report.Orphans))
	for name := range report.Orphans {
		collections = append(collections, name)
	}
	slices.Sort(collections)
	for _, name := range collections {
		if ids := report.Orphans[name]; len(ids) > 0 {
			cmd.Printf("only in %s: %s\n", name, joinIDs(ids))
		}
	}
	if repair {
		cmd.Println("Orphaned ids removed.")
	} else {
		cmd.Println("Run with --repair to remove them.")
	}
	return nil
}
