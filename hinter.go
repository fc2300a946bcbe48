// Package hinter is an adaptive hinting engine for labeling incident reports
// as construction industry or not.
//
// Each record gets a hint: the probability that it is NOT a construction
// industry incident, estimated by an online logistic regression over keyword
// and TF-IDF features. Every human label updates the model and may promote
// newly discriminative tokens into keyword features. The last label can be
// undone exactly.
//
//	e, _ := hinter.Open(ctx, storage.NewFileStore("data"), "cases_annotated_alice", hinter.DefaultOptions())
//	h := e.Hint(rec)
//	fmt.Printf("%.0f%%\n", h.Probability*100)
//	d, _ := e.Label(rec, 0) // construction
//	e.Undo(d)
//	_ = e.Save(ctx)
package hinter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/happyhackingspace/hinter/classifier"
	"github.com/happyhackingspace/hinter/features"
	"github.com/happyhackingspace/hinter/internal/matcher"
	"github.com/happyhackingspace/hinter/internal/storage"
	"github.com/happyhackingspace/hinter/internal/textutil"
	"github.com/happyhackingspace/hinter/internal/vectorizer"
)

// MaxBodyLength bounds the number of body characters used for features.
const MaxBodyLength = 4000

// Labels passed to Engine.Label.
const (
	LabelConstruction = 0
	LabelOther        = 1
)

// Record is an incident report. FullText is required; the other fields are
// optional.
type Record struct {
	Title       string
	Category    string
	PublishDate string
	Date        string
	FullText    string
	URL         string
	Source      string
}

// Normalize joins the optional fields and the truncated body with newlines and
// case-folds the result.
func (r Record) Normalize() string {
	var parts []string
	for _, s := range []string{r.Title, r.Category, r.PublishDate, r.Date} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, textutil.Truncate(r.FullText, MaxBodyLength))
	return textutil.Fold(strings.Join(parts, "\n"))
}

// Options configures an Engine.
type Options struct {
	Seeds       *features.Seeds // nil selects the built-in seeds
	Classifier  classifier.Config
	Learner     classifier.LearnerConfig
	MaxFeatures int  // TF-IDF vocabulary capacity
	Terms       bool // use TF-IDF features
	Promote     bool // promote discriminative tokens
	Segmenter   textutil.Segmenter
	StopWords   *textutil.StopWords
}

// DefaultOptions returns the enhanced model configuration.
func DefaultOptions() Options {
	return Options{
		Classifier:  classifier.DefaultConfig(),
		Learner:     classifier.DefaultLearnerConfig(),
		MaxFeatures: vectorizer.DefaultMaxFeatures,
		Terms:       true,
		Promote:     true,
	}
}

// BaselineOptions returns the fixed-rate keyword-only configuration.
func BaselineOptions() Options {
	return Options{
		Classifier:  classifier.BaselineConfig(),
		Learner:     classifier.DefaultLearnerConfig(),
		MaxFeatures: vectorizer.DefaultMaxFeatures,
	}
}

// Load outcomes reported by Status.
const (
	StatusNew      = "new"      // no persisted state, started from seeds
	StatusLoaded   = "loaded"   // persisted state restored
	StatusFallback = "fallback" // persisted state unusable, started from seeds
)

// Status describes how an Engine obtained its state.
type Status struct {
	State string
	Err   error // load error behind StatusFallback
}

// Hint is the advisory output for one record.
type Hint struct {
	Probability float64                   `json:"probability"` // probability of LabelOther
	Reasons     []classifier.Contribution `json:"reasons"`     // strongest contributions
	Keywords    []string                  `json:"keywords"`    // matched keyword features
}

// Delta is everything one Label changed. Pass it to Undo to revert.
type Delta struct {
	Label      int
	Classifier classifier.Delta
	Stats      features.StatDelta
	Terms      vectorizer.LearnDelta
	Promoted   []string
}

// Engine combines the feature registry, keyword matcher, TF-IDF vectorizer,
// classifier and feature learner of one annotation session. It is not safe
// for concurrent use.
type Engine struct {
	opts    Options
	reg     *features.Registry
	matcher *matcher.Matcher
	tfidf   *vectorizer.Tfidf
	clf     *classifier.Classifier
	learner *classifier.Learner
	tok     *textutil.Tokenizer

	store  storage.Store
	target string
	status Status
}

// New creates an engine initialized from seeds, without persistence.
func New(opts Options) *Engine {
	seeds := opts.Seeds
	if seeds == nil {
		seeds = features.Builtin()
	}
	reg := features.NewRegistry(seeds)
	return &Engine{
		opts:    opts,
		reg:     reg,
		matcher: matcher.New(reg),
		tfidf:   vectorizer.NewTfidf(opts.MaxFeatures),
		clf:     classifier.New(reg, opts.Classifier),
		learner: classifier.NewLearner(reg, opts.Learner),
		tok:     textutil.NewTokenizer(opts.Segmenter, opts.StopWords),
		status:  Status{State: StatusNew},
	}
}

// Open creates an engine for target, restoring persisted state from store.
// A missing record starts from seeds. An unreadable record also starts from
// seeds; the reason is reported by Status and the session continues.
func Open(ctx context.Context, store storage.Store, target string, opts Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("hinter: nil store")
	}
	e := New(opts)
	e.store = store
	e.target = target

	st, err := store.Load(ctx, target)
	switch {
	case err == nil:
		e.restore(st)
		e.status = Status{State: StatusLoaded}
	case errors.Is(err, storage.ErrNotFound):
		e.status = Status{State: StatusNew}
	case ctx.Err() != nil:
		return nil, fmt.Errorf("hinter: %w", ctx.Err())
	default:
		slog.Warn("Model state unusable, starting fresh", "target", target, "error", err)
		e.status = Status{State: StatusFallback, Err: err}
	}
	return e, nil
}

func (e *Engine) restore(st *storage.State) {
	e.reg.Restore(st.Weights)
	e.reg.SetStats(st.TokenStats)
	e.clf.Bias = st.Bias
	e.clf.UpdateCount = st.NUpdates
	if st.Tfidf != nil {
		e.tfidf = st.Tfidf
	}
}

// Status reports how the engine state was obtained.
func (e *Engine) Status() Status { return e.status }

// Target returns the persistence target.
func (e *Engine) Target() string { return e.target }

// Registry returns the shared feature registry.
func (e *Engine) Registry() *features.Registry { return e.reg }

// Tokens returns the learning tokens of a record.
func (e *Engine) Tokens(rec Record) []string {
	return e.tok.Tokens(rec.Normalize())
}

// Features extracts the feature vector of a record together with the matched
// keywords and the learning tokens.
func (e *Engine) Features(rec Record) (v vectorizer.Vector, keywords, tokens []string) {
	text := rec.Normalize()
	keywords = e.matcher.Match(text)
	v = vectorizer.Binary(keywords)
	if e.opts.Terms || e.opts.Promote {
		tokens = e.tok.Tokens(text)
	}
	if e.opts.Terms {
		v = vectorizer.Merge(v, e.tfidf.Transform(tokens))
	}
	return v, keywords, tokens
}

// Hint predicts the probability that rec is not a construction incident.
func (e *Engine) Hint(rec Record) Hint {
	v, keywords, _ := e.Features(rec)
	p := e.clf.Predict(v)
	return Hint{Probability: p.Probability, Reasons: p.Top, Keywords: keywords}
}

// Label updates the model with a human label (LabelConstruction or
// LabelOther) and returns the delta needed to undo it.
func (e *Engine) Label(rec Record, label int) (*Delta, error) {
	v, _, tokens := e.Features(rec)
	cd, err := e.clf.Update(v, label)
	if err != nil {
		return nil, fmt.Errorf("hinter: %w", err)
	}
	d := &Delta{Label: label, Classifier: cd}
	if e.opts.Promote {
		d.Stats = e.reg.Observe(tokens, label)
	}
	if e.opts.Terms {
		d.Terms = e.tfidf.Learn(tokens)
	}
	if e.opts.Promote {
		d.Promoted = e.learner.MaybePromote()
		if len(d.Promoted) > 0 {
			slog.Info("Learned new features", "features", d.Promoted)
		}
	}
	return d, nil
}

// Undo reverts the most recent Label. A nil delta is a no-op. The update
// counter is not reverted, so the learning rate keeps decaying.
func (e *Engine) Undo(d *Delta) {
	if d == nil {
		return
	}
	e.learner.Demote(d.Promoted)
	e.tfidf.Unlearn(d.Terms)
	e.reg.Revert(d.Stats)
	e.clf.Rollback(d.Classifier)
}

// Warmup learns document frequencies from unlabeled records and returns the
// number of records learned.
func (e *Engine) Warmup(recs []Record) int {
	n := 0
	for _, rec := range recs {
		if strings.TrimSpace(rec.FullText) == "" {
			continue
		}
		e.tfidf.Learn(e.Tokens(rec))
		n++
	}
	return n
}

// State returns a snapshot of the persistable state.
func (e *Engine) State() *storage.State {
	return &storage.State{
		Bias:       e.clf.Bias,
		Weights:    e.reg.Weights(),
		TokenStats: e.reg.Stats(),
		NUpdates:   e.clf.UpdateCount,
		Tfidf:      e.tfidf.Clone(),
	}
}

// Save persists the state. A failed save leaves the in-memory session intact;
// the next successful save includes every update since.
func (e *Engine) Save(ctx context.Context) error {
	if e.store == nil {
		return errors.New("hinter: engine has no store")
	}
	if err := e.store.Save(ctx, e.target, e.State()); err != nil {
		return fmt.Errorf("hinter: save %s: %w", e.target, err)
	}
	return nil
}

// Summary is a description of the model for display.
type Summary struct {
	Bias      float64
	Updates   int
	Features  int
	VocabSize int
	DocCount  int
	Learned   []string
	Strongest []classifier.Contribution
}

// Summarize describes the model, listing the n strongest weights.
func (e *Engine) Summarize(n int) Summary {
	weights := e.reg.Weights()
	strongest := make([]classifier.Contribution, 0, len(weights))
	for name, w := range weights {
		strongest = append(strongest, classifier.Contribution{Name: name, Value: w})
	}
	sort.Slice(strongest, func(i, j int) bool {
		a, b := math.Abs(strongest[i].Value), math.Abs(strongest[j].Value)
		if a != b {
			return a > b
		}
		return strongest[i].Name < strongest[j].Name
	})
	if n >= 0 && len(strongest) > n {
		strongest = strongest[:n]
	}
	return Summary{
		Bias:      e.clf.Bias,
		Updates:   e.clf.UpdateCount,
		Features:  len(weights),
		VocabSize: e.tfidf.VocabSize(),
		DocCount:  e.tfidf.DocCount,
		Learned:   e.reg.Group(features.GroupLearned),
		Strongest: strongest,
	}
}
