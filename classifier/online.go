// Package classifier implements the online hint model: a regularized logistic
// regression updated after every label, and the learner that promotes
// discriminative tokens into features.
package classifier

import (
	"errors"
	"math"
	"sort"

	"github.com/happyhackingspace/hinter/features"
	"github.com/happyhackingspace/hinter/internal/vectorizer"
)

// ErrInvalidLabel is returned by Update for a label other than 0 or 1.
var ErrInvalidLabel = errors.New("label must be 0 or 1")

// Config holds online training configuration.
type Config struct {
	BaseRate float64 // learning rate, divided by sqrt(update count) when Adaptive
	L2       float64 // L2 shrinkage toward zero
	Adaptive bool
	TopK     int // contributions reported by Predict
}

// DefaultConfig returns the configuration of the enhanced model.
func DefaultConfig() Config {
	return Config{
		BaseRate: 0.2,
		L2:       0.01,
		Adaptive: true,
		TopK:     5,
	}
}

// BaselineConfig returns the fixed-rate, unregularized keyword model.
func BaselineConfig() Config {
	return Config{
		BaseRate: 0.2,
		TopK:     5,
	}
}

// Contribution is weight × value of one feature.
type Contribution struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Prediction is the non-construction probability with its strongest contributions.
type Prediction struct {
	Probability float64        `json:"probability"`
	Top         []Contribution `json:"top"`
}

// Delta is the exact change applied by one Update.
type Delta struct {
	Bias    float64
	Weights map[string]float64
	Created []string // weights that did not exist before the update
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return d.Bias == 0 && len(d.Weights) == 0 && len(d.Created) == 0
}

// Classifier is a binary logistic regression over named sparse features.
// Label 1 means non-construction. Weights live in the shared Registry.
type Classifier struct {
	Bias        float64
	UpdateCount int

	reg    *features.Registry
	config Config
}

// New creates a classifier over reg.
func New(reg *features.Registry, config Config) *Classifier {
	if config.TopK <= 0 {
		config.TopK = 5
	}
	return &Classifier{reg: reg, config: config}
}

// Config returns the training configuration.
func (c *Classifier) Config() Config { return c.config }

// Registry returns the feature registry holding the weights.
func (c *Classifier) Registry() *features.Registry { return c.reg }

// Score returns bias + Σ weight × value.
func (c *Classifier) Score(v vectorizer.Vector) float64 {
	z := c.Bias
	for _, name := range v.Names() {
		if x := v[name]; x != 0 {
			z += c.reg.Weight(name) * x
		}
	}
	return z
}

// Predict returns the probability of label 1 and the top contributions ranked
// by absolute value. It has no side effects.
func (c *Classifier) Predict(v vectorizer.Vector) Prediction {
	z := c.Bias
	contribs := make([]Contribution, 0, len(v))
	for _, name := range v.Names() {
		x := v[name]
		if x == 0 {
			continue
		}
		cv := c.reg.Weight(name) * x
		contribs = append(contribs, Contribution{Name: name, Value: cv})
		z += cv
	}
	sort.SliceStable(contribs, func(i, j int) bool {
		return math.Abs(contribs[i].Value) > math.Abs(contribs[j].Value)
	})
	if len(contribs) > c.config.TopK {
		contribs = contribs[:c.config.TopK]
	}
	return Prediction{Probability: Sigmoid(z), Top: contribs}
}

// LearningRate returns the rate of the next update.
func (c *Classifier) LearningRate() float64 {
	if !c.config.Adaptive {
		return c.config.BaseRate
	}
	return c.config.BaseRate / math.Sqrt(float64(c.UpdateCount+1))
}

// Update takes one gradient step towards label and returns the applied delta.
func (c *Classifier) Update(v vectorizer.Vector, label int) (Delta, error) {
	if label != 0 && label != 1 {
		return Delta{}, ErrInvalidLabel
	}
	lr := c.LearningRate()
	c.UpdateCount++

	p := c.Predict(v).Probability
	errv := float64(label) - p

	d := Delta{Bias: lr * errv, Weights: make(map[string]float64, len(v))}
	c.Bias += d.Bias

	for _, name := range v.Names() {
		x := v[name]
		if x == 0 {
			continue
		}
		old := c.reg.Weight(name)
		dw := lr * (errv*x - c.config.L2*old)
		if c.reg.SetWeight(name, old+dw) {
			d.Created = append(d.Created, name)
		}
		d.Weights[name] = dw
	}
	return d, nil
}

// Rollback reverses d. UpdateCount is left unchanged, so the learning rate
// schedule keeps advancing.
func (c *Classifier) Rollback(d Delta) {
	if d.Empty() {
		return
	}
	c.Bias -= d.Bias
	created := make(map[string]bool, len(d.Created))
	for _, name := range d.Created {
		created[name] = true
	}
	for name, dw := range d.Weights {
		if created[name] {
			continue
		}
		c.reg.SetWeight(name, c.reg.Weight(name)-dw)
	}
	c.reg.Remove(d.Created...)
}

// Sigmoid is the logistic function, saturating outside [-50, 50].
func Sigmoid(z float64) float64 {
	switch {
	case z < -50:
		return 0
	case z > 50:
		return 1
	}
	return 1 / (1 + math.Exp(-z))
}
