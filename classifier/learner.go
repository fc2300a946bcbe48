package classifier

import (
	"log/slog"
	"math"
	"sort"

	"github.com/happyhackingspace/hinter/features"
)

// LearnerConfig holds feature promotion thresholds.
type LearnerConfig struct {
	MinCount  int     // minimum pos+neg observations
	Threshold float64 // minimum |log odds|
	Alpha     float64 // Laplace smoothing
	MaxAdd    int     // promotions per call
	MaxWeight float64 // initial weights are clipped to ±MaxWeight
}

// DefaultLearnerConfig returns the default promotion thresholds.
func DefaultLearnerConfig() LearnerConfig {
	return LearnerConfig{
		MinCount:  6,
		Threshold: 1.0,
		Alpha:     1.0,
		MaxAdd:    3,
		MaxWeight: 3.0,
	}
}

// Learner promotes tokens whose label statistics are discriminative into
// keyword features of the learned group.
type Learner struct {
	reg    *features.Registry
	config LearnerConfig
}

// NewLearner creates a learner over reg.
func NewLearner(reg *features.Registry, config LearnerConfig) *Learner {
	return &Learner{reg: reg, config: config}
}

// Candidate is a token eligible for promotion.
type Candidate struct {
	Token   string
	Total   int
	LogOdds float64
}

// LogOdds returns ln((pos+alpha)/(neg+alpha)).
func LogOdds(pos, neg int, alpha float64) float64 {
	return math.Log((float64(pos) + alpha) / (float64(neg) + alpha))
}

// Candidates returns every eligible token, best first: by total count, then
// by |log odds|, then by token.
func (l *Learner) Candidates() []Candidate {
	var out []Candidate
	for tok, st := range l.reg.Stats() {
		if st.Total() < l.config.MinCount || l.reg.Has(tok) {
			continue
		}
		lo := LogOdds(st.Pos, st.Neg, l.config.Alpha)
		if math.Abs(lo) < l.config.Threshold {
			continue
		}
		out = append(out, Candidate{Token: tok, Total: st.Total(), LogOdds: lo})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if math.Abs(a.LogOdds) != math.Abs(b.LogOdds) {
			return math.Abs(a.LogOdds) > math.Abs(b.LogOdds)
		}
		return a.Token < b.Token
	})
	return out
}

// MaybePromote promotes at most MaxAdd candidates and returns their tokens.
func (l *Learner) MaybePromote() []string {
	cands := l.Candidates()
	if l.config.MaxAdd >= 0 && len(cands) > l.config.MaxAdd {
		cands = cands[:l.config.MaxAdd]
	}
	var added []string
	for _, c := range cands {
		w := max(-l.config.MaxWeight, min(l.config.MaxWeight, c.LogOdds))
		l.reg.Add(features.GroupLearned, c.Token, w)
		added = append(added, c.Token)
		slog.Debug("Feature promoted", "token", c.Token, "total", c.Total, "weight", w)
	}
	return added
}

// Demote removes tokens promoted by MaybePromote.
func (l *Learner) Demote(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	l.reg.Remove(tokens...)
	slog.Debug("Features demoted", "tokens", tokens)
}
