// Package features holds the shared feature registry: keyword and term weights,
// group membership and per-token label statistics.
//
// A single Registry is shared by the keyword matcher, the classifier and the
// feature learner of one annotation session. Every change to the keyword
// dictionary bumps Version so that the matcher can rebuild lazily.
package features

import (
	"sort"

	"github.com/happyhackingspace/hinter/internal/vectorizer"
)

// Reserved groups.
const (
	GroupLearned      = "_learned"
	GroupCustom       = "_custom"
	GroupTerms        = "_tfidf"
	GroupConstruction = "construction"
)

// TokenStat counts label observations of a token. Pos counts the
// non-construction label (1), Neg the construction label (0).
type TokenStat struct {
	Pos int `json:"pos"`
	Neg int `json:"neg"`
}

// Total returns Pos + Neg.
func (s TokenStat) Total() int { return s.Pos + s.Neg }

// StatDelta records token statistic increments of one label event.
type StatDelta map[string]TokenStat

// Registry is the mutable feature store. It is not safe for concurrent use;
// one annotation session owns it.
type Registry struct {
	weights map[string]float64
	groups  map[string]map[string]bool
	stats   map[string]*TokenStat
	version uint64
}

// NewRegistry creates a registry populated from seeds.
func NewRegistry(seeds *Seeds) *Registry {
	r := &Registry{
		weights: make(map[string]float64),
		groups:  make(map[string]map[string]bool),
		stats:   make(map[string]*TokenStat),
	}
	if seeds != nil {
		for group, keys := range seeds.Groups {
			for _, k := range keys {
				r.addToGroup(group, k)
			}
		}
		for k, w := range seeds.Weights {
			if !r.grouped(k) {
				r.addToGroup(GroupCustom, k)
			}
			r.weights[k] = w
		}
	}
	r.version++
	return r
}

// Version changes whenever the keyword dictionary changes.
func (r *Registry) Version() uint64 { return r.version }

// Weight returns the weight of name, 0 when absent.
func (r *Registry) Weight(name string) float64 { return r.weights[name] }

// Has reports whether name is an active feature.
func (r *Registry) Has(name string) bool {
	_, ok := r.weights[name]
	return ok
}

// Len returns the number of weighted features.
func (r *Registry) Len() int { return len(r.weights) }

// SetWeight sets the weight of name. A name not yet in any group joins the
// term group (TF-IDF names) or the custom group, so that no weight is orphaned.
// It reports whether the feature was created.
func (r *Registry) SetWeight(name string, w float64) bool {
	_, existed := r.weights[name]
	r.weights[name] = w
	if !r.grouped(name) {
		if vectorizer.IsTermFeature(name) {
			r.addToGroup(GroupTerms, name)
		} else {
			r.addToGroup(GroupCustom, name)
			r.version++
		}
	}
	return !existed
}

// Add promotes name into group with the initial weight w.
func (r *Registry) Add(group, name string, w float64) {
	r.weights[name] = w
	r.addToGroup(group, name)
	if group != GroupTerms {
		r.version++
	}
}

// Remove deletes name from the weights and from every group.
func (r *Registry) Remove(names ...string) {
	changed := false
	for _, name := range names {
		if _, ok := r.weights[name]; !ok && !r.grouped(name) {
			continue
		}
		delete(r.weights, name)
		for g, members := range r.groups {
			if members[name] {
				delete(members, name)
				if g != GroupTerms {
					changed = true
				}
			}
		}
	}
	if changed {
		r.version++
	}
}

// Keywords returns every keyword feature: members of all groups except the
// term group, sorted.
func (r *Registry) Keywords() []string {
	set := make(map[string]bool)
	for g, members := range r.groups {
		if g == GroupTerms {
			continue
		}
		for k := range members {
			set[k] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Group returns the sorted members of group.
func (r *Registry) Group(group string) []string {
	out := make([]string, 0, len(r.groups[group]))
	for k := range r.groups[group] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Groups returns the sorted group names.
func (r *Registry) Groups() []string {
	out := make([]string, 0, len(r.groups))
	for g := range r.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Weights returns a copy of all weights.
func (r *Registry) Weights() map[string]float64 {
	out := make(map[string]float64, len(r.weights))
	for k, w := range r.weights {
		out[k] = w
	}
	return out
}

// Restore overlays persisted weights on the current ones. Names that belong to
// no group are attached to the term group or the learned group.
func (r *Registry) Restore(weights map[string]float64) {
	for name, w := range weights {
		r.weights[name] = w
		if r.grouped(name) {
			continue
		}
		if vectorizer.IsTermFeature(name) {
			r.addToGroup(GroupTerms, name)
		} else {
			r.addToGroup(GroupLearned, name)
		}
	}
	r.version++
}

// Observe counts every token occurrence under label and returns the exact increments.
func (r *Registry) Observe(tokens []string, label int) StatDelta {
	d := make(StatDelta)
	for _, tok := range tokens {
		st := r.stats[tok]
		if st == nil {
			st = &TokenStat{}
			r.stats[tok] = st
		}
		inc := d[tok]
		if label == 1 {
			st.Pos++
			inc.Pos++
		} else {
			st.Neg++
			inc.Neg++
		}
		d[tok] = inc
	}
	return d
}

// Revert subtracts a StatDelta, clamping counts at zero. Tokens whose counts
// both reach zero are dropped.
func (r *Registry) Revert(d StatDelta) {
	for tok, inc := range d {
		st := r.stats[tok]
		if st == nil {
			continue
		}
		st.Pos = max(0, st.Pos-inc.Pos)
		st.Neg = max(0, st.Neg-inc.Neg)
		if st.Total() == 0 {
			delete(r.stats, tok)
		}
	}
}

// Stat returns the statistics of tok.
func (r *Registry) Stat(tok string) TokenStat {
	if st := r.stats[tok]; st != nil {
		return *st
	}
	return TokenStat{}
}

// Stats returns a copy of all token statistics.
func (r *Registry) Stats() map[string]TokenStat {
	out := make(map[string]TokenStat, len(r.stats))
	for k, st := range r.stats {
		out[k] = *st
	}
	return out
}

// SetStats replaces the token statistics. Negative counts are clamped to zero.
func (r *Registry) SetStats(stats map[string]TokenStat) {
	r.stats = make(map[string]*TokenStat, len(stats))
	for k, st := range stats {
		st.Pos = max(0, st.Pos)
		st.Neg = max(0, st.Neg)
		r.stats[k] = &st
	}
}

func (r *Registry) addToGroup(group, name string) {
	members := r.groups[group]
	if members == nil {
		members = make(map[string]bool)
		r.groups[group] = members
	}
	members[name] = true
}

func (r *Registry) grouped(name string) bool {
	for _, members := range r.groups {
		if members[name] {
			return true
		}
	}
	return false
}
