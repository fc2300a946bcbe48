package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/happyhackingspace/hinter"
	"github.com/happyhackingspace/hinter/internal/storage"
	"github.com/happyhackingspace/hinter/internal/textutil"
)

const previewLength = 600

func (c *CLI) newAnnotateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate <records.csv>",
		Short: "Label incident reports interactively with model hints",
		Args:  cobra.ExactArgs(1),
		Example: `  # Label records as alice; progress goes to cases_annotated_alice.csv
  hinter annotate cases.csv --annotator alice

  # Keep model state in SQLite
  hinter annotate cases.csv --annotator alice --store sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			input := args[0]
			output := labelsPath(input, c.cfg.Annotator)
			table, err := readLabels(input, output)
			if err != nil {
				return err
			}

			target := targetName(input, c.cfg.Annotator)
			e, closeStore, err := c.openEngine(ctx, target)
			if err != nil {
				return err
			}
			defer closeStore()

			s := &session{
				id:        uuid.NewString(),
				engine:    e,
				table:     table,
				output:    output,
				saveEvery: c.cfg.SaveEvery,
				in:        os.Stdin,
				out:       os.Stdout,
			}
			s.log = slog.With("session", s.id, "annotator", c.cfg.Annotator)
			s.log.Info("Annotation started", "records", table.Len(), "output", output,
				"model", e.Status().State, "seeds", c.seedSum.String())
			return s.run(ctx)
		},
	}
	return cmd
}

// readLabels resumes from the annotation output when it exists.
func readLabels(input, output string) (*storage.Table, error) {
	if _, err := os.Stat(output); err == nil {
		slog.Info("Resuming annotation", "path", output)
		return storage.ReadTable(output)
	}
	return storage.ReadTable(input)
}

// decision is an undoable annotation step.
type decision struct {
	index int
	delta *hinter.Delta // nil for skips
}

// session is one interactive annotation run.
type session struct {
	id        string
	engine    *hinter.Engine
	table     *storage.Table
	output    string
	saveEvery int
	in        io.Reader
	out       io.Writer
	log       *slog.Logger

	last    *decision
	pending int
}

// run shows unlabeled records until the input ends, the user quits or ctx is
// cancelled, then flushes labels and model state.
func (s *session) run(ctx context.Context) error {
	if s.log == nil {
		s.log = slog.Default()
	}
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-readCtx.Done():
				return
			}
		}
	}()

	i := s.next(0)
loop:
	for i < s.table.Len() {
		s.show(i)
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			s.log.Info("Interrupted, saving progress")
			break loop
		case line, ok = <-lines:
			if !ok {
				break loop
			}
		}

		switch strings.ToLower(line) {
		case "1", "0":
			isConstruction := storage.LabelConstruction
			if line == "0" {
				isConstruction = storage.LabelOther
			}
			d, err := s.engine.Label(recordAt(s.table, i), modelLabel(isConstruction))
			if err != nil {
				return err
			}
			s.table.SetLabel(i, isConstruction)
			s.last = &decision{index: i, delta: d}
			if len(d.Promoted) > 0 {
				fmt.Fprintf(s.out, "New features: %s\n", strings.Join(d.Promoted, ", "))
			}
		case "s":
			s.table.SetLabel(i, storage.LabelSkipped)
			s.last = &decision{index: i}
		case "u":
			if s.last == nil {
				fmt.Fprintln(s.out, "Nothing to undo.")
				continue
			}
			s.engine.Undo(s.last.delta)
			s.table.ClearLabel(s.last.index)
			i = s.last.index
			s.last = nil
			fmt.Fprintln(s.out, "Undone.")
			continue
		case "q":
			break loop
		default:
			fmt.Fprintln(s.out, "Enter 1 (construction), 0 (not construction), s (skip), u (undo) or q (quit).")
			continue
		}

		s.pending++
		if s.pending >= s.saveEvery {
			s.flush(ctx)
		}
		i = s.next(i + 1)
	}

	s.flush(context.WithoutCancel(ctx))
	c, o, sk, u := s.table.Counts()
	fmt.Fprintf(s.out, "Construction: %d  Other: %d  Skipped: %d  Remaining: %d\n", c, o, sk, u)
	return nil
}

// next returns the first unlabeled record at or after i.
func (s *session) next(i int) int {
	for ; i < s.table.Len(); i++ {
		if _, ok := s.table.Label(i); !ok {
			return i
		}
	}
	return i
}

func (s *session) show(i int) {
	rec := recordAt(s.table, i)
	h := s.engine.Hint(rec)

	fmt.Fprintf(s.out, "\n[%d/%d] %s\n", i+1, s.table.Len(), rec.Title)
	if rec.Category != "" || rec.Date != "" {
		fmt.Fprintf(s.out, "%s %s\n", rec.Category, rec.Date)
	}
	fmt.Fprintln(s.out, textutil.Truncate(textutil.NormalizeWhitespaces(rec.FullText), previewLength))
	fmt.Fprintln(s.out, formatHint(h))
	fmt.Fprint(s.out, "[1] construction  [0] not construction  [s] skip  [u] undo  [q] quit > ")
}

// formatHint renders the probability with up to three reasons.
func formatHint(h hinter.Hint) string {
	line := fmt.Sprintf("Hint: not construction ~%d%%", int(h.Probability*100+0.5))
	var reasons []string
	for _, r := range h.Reasons {
		if r.Value != 0 && len(reasons) < 3 {
			reasons = append(reasons, r.Name)
		}
	}
	if len(reasons) > 0 {
		line += ", based on: " + strings.Join(reasons, ", ")
	}
	return line
}

// flush writes labels and model state. Failures are logged; the session
// continues with its in-memory state.
func (s *session) flush(ctx context.Context) {
	if err := s.table.Write(s.output); err != nil {
		s.log.Warn("Cannot save labels", "path", s.output, "error", err)
	}
	if err := s.engine.Save(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("Cannot save model", "target", s.engine.Target(), "error", err)
	}
	s.pending = 0
	s.log.Debug("Progress saved", "path", s.output)
}
