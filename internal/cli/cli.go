package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/happyhackingspace/hinter"
	"github.com/happyhackingspace/hinter/features"
	"github.com/happyhackingspace/hinter/internal/banner"
	"github.com/happyhackingspace/hinter/internal/config"
	"github.com/happyhackingspace/hinter/internal/segment"
	"github.com/happyhackingspace/hinter/internal/storage"
	"github.com/happyhackingspace/hinter/internal/textutil"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	initialized bool
	cfgFile     string
	rootCmd     *cobra.Command

	v       *viper.Viper
	cfg     *config.Config
	seedSum features.Summary
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version, v: viper.New()}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:     "hinter",
		Short:   "Adaptive hints for labeling construction incident reports",
		Version: c.version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.initApp()
			return c.loadConfig()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		SilenceUsage: true,
	}

	pf := c.rootCmd.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	pf.BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging and banner")
	pf.StringVar(&c.cfgFile, "config", "", "Config file (default: .hinter.yaml in . or $HOME)")
	pf.String("annotator", "", "Annotator name, namespaces labels and model state")
	pf.String("data-dir", "", "Directory holding model state")
	pf.String("store", "", "Model store: json or sqlite")
	pf.String("seeds", "", "Seed keyword file (YAML or JSON)")
	for key, flag := range map[string]string{
		"annotator": "annotator",
		"data_dir":  "data-dir",
		"store":     "store",
		"seeds":     "seeds",
	} {
		_ = c.v.BindPFlag(key, pf.Lookup(flag))
	}

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newAnnotateCommand())
	c.rootCmd.AddCommand(c.newHintCommand())
	c.rootCmd.AddCommand(c.newWarmupCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newInspectCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

// initApp initializes logging and prints the banner.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	if !c.silent {
		fmt.Fprint(os.Stderr, banner.Banner(c.version))
	}
}

func (c *CLI) loadConfig() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	if used := c.v.ConfigFileUsed(); used != "" {
		slog.Debug("Using config file", "path", used)
	}
	c.cfg = cfg
	return nil
}

// options builds engine options from the configuration: seeds, tokenizer
// resources and learning rates.
func (c *CLI) options() hinter.Options {
	opts := hinter.DefaultOptions()
	opts.MaxFeatures = c.cfg.MaxFeatures
	opts.Classifier.BaseRate = c.cfg.BaseRate
	opts.Learner.MaxAdd = c.cfg.MaxAdd

	seeds, sum, err := features.LoadSeeds(c.cfg.Seeds)
	if err != nil {
		slog.Warn("Seed keywords unusable, using built-in seeds", "path", c.cfg.Seeds, "error", err)
	}
	slog.Debug("Seed keywords loaded", "summary", sum.String())
	c.seedSum = sum
	opts.Seeds = seeds

	stops := textutil.DefaultStopWords()
	if err := stops.LoadFile(c.cfg.StopWordsFile()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Cannot load stopwords", "path", c.cfg.StopWordsFile(), "error", err)
		}
	}
	opts.StopWords = stops

	seg, err := segment.New(segment.Options{UserDict: c.cfg.UserDictFile(), HMM: true})
	if err != nil {
		slog.Warn("Word segmenter unavailable, splitting on whitespace", "error", err)
	} else {
		opts.Segmenter = seg
	}
	return opts
}

// openEngine opens the store and the engine of target. The returned close
// function closes the store.
func (c *CLI) openEngine(ctx context.Context, target string) (*hinter.Engine, func(), error) {
	store, err := c.cfg.OpenStore()
	if err != nil {
		return nil, nil, err
	}
	e, err := hinter.Open(ctx, store, target, c.options())
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	slog.Debug("Engine opened", "target", target, "status", e.Status().State)
	return e, func() { _ = store.Close() }, nil
}

// labelsPath returns the annotation output of a records file:
// <dir>/<stem>_annotated_<annotator>.csv.
func labelsPath(records, annotator string) string {
	dir := filepath.Dir(records)
	return filepath.Join(dir, targetName(records, annotator)+".csv")
}

// targetName returns the model target of a records file.
func targetName(records, annotator string) string {
	base := filepath.Base(records)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.HasSuffix(stem, "_annotated_"+annotator) {
		return stem
	}
	return stem + "_annotated_" + annotator
}

// recordAt reads record i of a table.
func recordAt(t *storage.Table, i int) hinter.Record {
	return hinter.Record{
		Title:       t.Value(i, "title"),
		Category:    t.Value(i, "category"),
		PublishDate: t.Value(i, "publish_date"),
		Date:        t.Value(i, "date"),
		FullText:    t.Text(i, "full_text"),
		URL:         t.Value(i, "url"),
		Source:      t.Value(i, "source"),
	}
}

// modelLabel converts an is_construction value to the engine label.
func modelLabel(isConstruction int) int {
	return 1 - isConstruction
}
