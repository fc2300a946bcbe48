package hinter

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/happyhackingspace/hinter/classifier"
)

// CompareConfig holds configuration for Compare.
type CompareConfig struct {
	MaxRecords int // records beyond the first MaxRecords usable ones are ignored
	Top        int // shifts listed in each direction
	Baseline   Options
	Enhanced   Options
}

// DefaultCompareConfig returns the default comparison configuration.
func DefaultCompareConfig() CompareConfig {
	return CompareConfig{
		MaxRecords: 300,
		Top:        5,
		Baseline:   BaselineOptions(),
		Enhanced:   DefaultOptions(),
	}
}

// Distribution is the five-number summary of hint probabilities.
type Distribution struct {
	Min, Q1, Median, Q3, Max float64
}

// Shift is one record scored by both models.
type Shift struct {
	Index       int // position in the input
	Title       string
	Baseline    float64
	Enhanced    float64
	BaselineTop []classifier.Contribution
	EnhancedTop []classifier.Contribution
}

// Delta is the change of the hint from the baseline to the enhanced model.
func (s Shift) Delta() float64 { return s.Enhanced - s.Baseline }

// Comparison describes how the enhanced model's hints differ from the
// baseline's on unlabeled records.
type Comparison struct {
	Records  int
	Baseline Distribution
	Enhanced Distribution
	Spearman float64 // rank correlation of the two models' probabilities
	Raised   []Shift // largest increases first
	Lowered  []Shift // largest decreases first
}

// Compare hints unlabeled records with a fresh baseline model and a fresh
// enhanced model whose TF-IDF statistics are warmed up on the same records.
func Compare(records []Record, config *CompareConfig) (*Comparison, error) {
	cfg := DefaultCompareConfig()
	if config != nil {
		cfg = *config
	}

	var sample []int
	for i, r := range records {
		if cfg.MaxRecords > 0 && len(sample) >= cfg.MaxRecords {
			break
		}
		if strings.TrimSpace(r.FullText) != "" {
			sample = append(sample, i)
		}
	}
	if len(sample) == 0 {
		return nil, errors.New("hinter: no records to compare")
	}

	base := New(cfg.Baseline)
	enh := New(cfg.Enhanced)
	if cfg.Enhanced.Terms {
		recs := make([]Record, len(sample))
		for k, i := range sample {
			recs[k] = records[i]
		}
		enh.Warmup(recs)
	}

	shifts := make([]Shift, len(sample))
	baseProbs := make([]float64, len(sample))
	enhProbs := make([]float64, len(sample))
	for k, i := range sample {
		hb, he := base.Hint(records[i]), enh.Hint(records[i])
		shifts[k] = Shift{
			Index:       i,
			Title:       records[i].Title,
			Baseline:    hb.Probability,
			Enhanced:    he.Probability,
			BaselineTop: hb.Reasons,
			EnhancedTop: he.Reasons,
		}
		baseProbs[k] = hb.Probability
		enhProbs[k] = he.Probability
	}

	c := &Comparison{
		Records:  len(sample),
		Baseline: FiveNumbers(baseProbs),
		Enhanced: FiveNumbers(enhProbs),
		Spearman: Spearman(baseProbs, enhProbs),
	}

	top := min(max(cfg.Top, 0), len(shifts))
	sort.SliceStable(shifts, func(a, b int) bool { return shifts[a].Delta() > shifts[b].Delta() })
	c.Raised = append([]Shift(nil), shifts[:top]...)
	sort.SliceStable(shifts, func(a, b int) bool { return shifts[a].Delta() < shifts[b].Delta() })
	c.Lowered = append([]Shift(nil), shifts[:top]...)
	return c, nil
}

// FiveNumbers returns the five-number summary of xs, with quartiles linearly
// interpolated between order statistics.
func FiveNumbers(xs []float64) Distribution {
	if len(xs) == 0 {
		return Distribution{}
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return Distribution{
		Min:    s[0],
		Q1:     quantile(s, 0.25),
		Median: quantile(s, 0.5),
		Q3:     quantile(s, 0.75),
		Max:    s[len(s)-1],
	}
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, len(sorted)-1)
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Spearman returns the rank correlation of xs and ys. It is 0 when either
// side is constant.
func Spearman(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	rx, ry := averageRanks(xs), averageRanks(ys)
	n := float64(len(rx))
	var mx, my float64
	for i := range rx {
		mx += rx[i]
		my += ry[i]
	}
	mx /= n
	my /= n
	var cov, vx, vy float64
	for i := range rx {
		dx, dy := rx[i]-mx, ry[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
