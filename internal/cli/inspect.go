package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newInspectCommand() *cobra.Command {
	var records, target string
	var top int

	cmd := &cobra.Command{
		Use:     "inspect",
		Short:   "Show the state of an annotation model",
		Example: `  hinter inspect --records cases.csv --annotator alice --top 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				if records == "" {
					return fmt.Errorf("--records or --target is required")
				}
				target = targetName(records, c.cfg.Annotator)
			}
			e, closeStore, err := c.openEngine(cmd.Context(), target)
			if err != nil {
				return err
			}
			defer closeStore()

			st := e.Status()
			s := e.Summarize(top)
			fmt.Printf("Target:     %s (%s)\n", target, st.State)
			if st.Err != nil {
				fmt.Printf("Load error: %v\n", st.Err)
			}
			fmt.Printf("Seeds:      %s\n", c.seedSum)
			fmt.Printf("Bias:       %.4f\n", s.Bias)
			fmt.Printf("Updates:    %d\n", s.Updates)
			fmt.Printf("Features:   %d\n", s.Features)
			fmt.Printf("Documents:  %d  Vocabulary: %d\n", s.DocCount, s.VocabSize)
			if len(s.Learned) > 0 {
				fmt.Printf("Learned:    %s\n", strings.Join(s.Learned, ", "))
			}
			fmt.Printf("\nStrongest weights:\n")
			for _, w := range s.Strongest {
				fmt.Printf("  %-24s %+.4f\n", w.Name, w.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&records, "records", "", "Records file whose annotation model to inspect")
	cmd.Flags().StringVar(&target, "target", "", "Model target (overrides --records)")
	cmd.Flags().IntVar(&top, "top", 15, "Number of strongest weights to list")
	return cmd
}
