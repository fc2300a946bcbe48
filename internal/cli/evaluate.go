package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/hinter"
	"github.com/happyhackingspace/hinter/classifier"
	"github.com/happyhackingspace/hinter/internal/storage"
	"github.com/happyhackingspace/hinter/internal/textutil"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var warmup, unlabeled string
	var testFraction float64

	cmd := &cobra.Command{
		Use:   "evaluate [labeled.csv]",
		Short: "Compare the keyword baseline with the adaptive model on labeled records",
		Args:  cobra.MaximumNArgs(1),
		Example: `  hinter evaluate cases_annotated_alice.csv
  hinter evaluate cases_annotated_alice.csv --warmup corpus.csv --test-fraction 0.2

  # Compare hint distributions on unlabeled records
  hinter evaluate --unlabeled cases.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && unlabeled == "" {
				return fmt.Errorf("a labeled file or --unlabeled is required")
			}
			if unlabeled != "" {
				if err := c.compare(unlabeled); err != nil {
					return err
				}
			}
			if len(args) == 0 {
				return nil
			}

			t, err := storage.ReadTable(args[0])
			if err != nil {
				return err
			}
			var labeled []hinter.LabeledRecord
			for i := range t.Len() {
				label, ok := t.Label(i)
				if !ok || label == storage.LabelSkipped {
					continue
				}
				labeled = append(labeled, hinter.LabeledRecord{Record: recordAt(t, i), Label: modelLabel(label)})
			}

			cfg := hinter.DefaultEvalConfig()
			cfg.TestFraction = testFraction
			cfg.Enhanced = c.options()
			cfg.Baseline.Seeds = cfg.Enhanced.Seeds
			if warmup != "" {
				if cfg.Warmup, err = readRecords(warmup); err != nil {
					return err
				}
			}

			slog.Info("Evaluating", "records", len(labeled), "test-fraction", testFraction)
			start := time.Now()
			result, err := hinter.Evaluate(labeled, &cfg)
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			fmt.Printf("Train: %d  Test: %d\n", result.Train, result.Test)
			fmt.Printf("%10s  %6s  %6s  %6s  %6s\n", "model", "acc", "auc", "prec", "recall")
			printMetrics("baseline", result.Baseline)
			printMetrics("enhanced", result.Enhanced)
			return nil
		},
	}

	cmd.Flags().StringVar(&warmup, "warmup", "", "Unlabeled records to learn TF-IDF statistics from first")
	cmd.Flags().StringVar(&unlabeled, "unlabeled", "", "Unlabeled records to compare hint distributions on")
	cmd.Flags().Float64Var(&testFraction, "test-fraction", 0.3, "Share of records held out for testing")
	return cmd
}

func printMetrics(name string, m hinter.Metrics) {
	fmt.Printf("%10s  %5.1f%%  %6.3f  %5.1f%%  %5.1f%%\n",
		name, m.Accuracy*100, m.AUC, m.Precision*100, m.Recall*100)
}

// compare prints how the warmed-up enhanced model's hints differ from the
// baseline's on unlabeled records.
func (c *CLI) compare(path string) error {
	recs, err := readRecords(path)
	if err != nil {
		return err
	}
	cfg := hinter.DefaultCompareConfig()
	cfg.Enhanced = c.options()
	cfg.Baseline.Seeds = cfg.Enhanced.Seeds

	slog.Info("Comparing hints", "path", path, "records", len(recs))
	res, err := hinter.Compare(recs, &cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Records: %d\n", res.Records)
	fmt.Printf("%10s  %6s  %6s  %6s  %6s  %6s\n", "model", "min", "q1", "median", "q3", "max")
	printDistribution("baseline", res.Baseline)
	printDistribution("enhanced", res.Enhanced)
	fmt.Printf("Spearman: %.3f\n", res.Spearman)

	fmt.Println("\nRaised most:")
	printShifts(res.Raised)
	fmt.Println("\nLowered most:")
	printShifts(res.Lowered)
	fmt.Println()
	return nil
}

func printDistribution(name string, d hinter.Distribution) {
	fmt.Printf("%10s  %6.3f  %6.3f  %6.3f  %6.3f  %6.3f\n", name, d.Min, d.Q1, d.Median, d.Q3, d.Max)
}

func printShifts(shifts []hinter.Shift) {
	for _, s := range shifts {
		fmt.Printf("  %+.3f  #%d  base=%.3f  enh=%.3f  %s\n",
			s.Delta(), s.Index+1, s.Baseline, s.Enhanced, textutil.Truncate(s.Title, 60))
		fmt.Printf("    base: %s\n", formatReasons(s.BaselineTop))
		fmt.Printf("    enh:  %s\n", formatReasons(s.EnhancedTop))
	}
}

func formatReasons(reasons []classifier.Contribution) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, fmt.Sprintf("%s %+.2f", r.Name, r.Value))
	}
	return strings.Join(parts, ", ")
}
