package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/hinter"
	"github.com/happyhackingspace/hinter/internal/htmlutil"
)

func (c *CLI) newHintCommand() *cobra.Command {
	var records, target, title string

	cmd := &cobra.Command{
		Use:   "hint [file]",
		Short: "Score an incident report from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # Score a report with the model trained while annotating cases.csv
  hinter hint report.txt --records cases.csv --annotator alice

  # Pipe a report (HTML is stripped)
  curl -s https://example.org/accident.html | hinter hint --target cases_annotated_alice

  # Score with the seed keywords only
  echo "塔吊倒塌造成两人受伤" | hinter hint`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			var err error
			if len(args) == 0 {
				if isStdinTerminal() {
					return cmd.Help()
				}
				text, err = readAll(os.Stdin)
			} else {
				var f *os.File
				f, err = os.Open(args[0])
				if err == nil {
					text, err = readAll(f)
					_ = f.Close()
				}
			}
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("empty input")
			}

			if target == "" && records != "" {
				target = targetName(records, c.cfg.Annotator)
			}
			var e *hinter.Engine
			if target == "" {
				e = hinter.New(c.options())
			} else {
				var closeStore func()
				e, closeStore, err = c.openEngine(cmd.Context(), target)
				if err != nil {
					return err
				}
				defer closeStore()
			}

			h := e.Hint(hinter.Record{Title: title, FullText: htmlutil.Text(text)})
			slog.Debug("Hint computed", "target", target, "keywords", len(h.Keywords))
			output, _ := json.MarshalIndent(h, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	cmd.Flags().StringVar(&records, "records", "", "Records file whose annotation model to use")
	cmd.Flags().StringVar(&target, "target", "", "Model target (overrides --records)")
	cmd.Flags().StringVar(&title, "title", "", "Report title")
	return cmd
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func readAll(r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(body), nil
}
