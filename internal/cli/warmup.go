package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/hinter"
	"github.com/happyhackingspace/hinter/internal/storage"
)

func (c *CLI) newWarmupCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "warmup <records.csv> [more.csv...]",
		Short: "Learn TF-IDF document frequencies from unlabeled records",
		Args:  cobra.MinimumNArgs(1),
		Example: `  # Warm up the model used when alice annotates cases.csv
  hinter warmup cases.csv --annotator alice

  # Warm up from an unlabeled corpus into an explicit target
  hinter warmup corpus.csv --target cases_annotated_alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				target = targetName(args[0], c.cfg.Annotator)
			}
			e, closeStore, err := c.openEngine(cmd.Context(), target)
			if err != nil {
				return err
			}
			defer closeStore()

			start := time.Now()
			total := 0
			for _, path := range args {
				recs, err := readRecords(path)
				if err != nil {
					return err
				}
				n := e.Warmup(recs)
				slog.Info("Warmed up", "path", path, "records", n)
				total += n
			}
			if err := e.Save(cmd.Context()); err != nil {
				return err
			}
			sum := e.Summarize(0)
			slog.Debug("Warm-up completed", "duration", time.Since(start))
			fmt.Printf("Learned %d records into %s (documents: %d, vocabulary: %d)\n",
				total, target, sum.DocCount, sum.VocabSize)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Model target (default: derived from the first file and annotator)")
	return cmd
}

// readRecords reads every record of a CSV file.
func readRecords(path string) ([]hinter.Record, error) {
	t, err := storage.ReadTable(path)
	if err != nil {
		return nil, err
	}
	recs := make([]hinter.Record, t.Len())
	for i := range recs {
		recs[i] = recordAt(t, i)
	}
	return recs, nil
}
