package vectorizer

import (
	"math"
	"sort"
	"strings"
)

// TermPrefix namespaces TF-IDF features so they never collide with keyword features.
const TermPrefix = "tfidf_"

// DefaultMaxFeatures is the default vocabulary capacity.
const DefaultMaxFeatures = 300

// TermFeature returns the feature name for a vocabulary term.
func TermFeature(term string) string {
	return TermPrefix + term
}

// IsTermFeature reports whether name is a TF-IDF feature name.
func IsTermFeature(name string) bool {
	return strings.HasPrefix(name, TermPrefix)
}

// Tfidf is an incremental TF-IDF vectorizer. Document frequencies accumulate one
// document at a time; the vocabulary admits terms in first-seen order until it
// reaches MaxFeatures, after which new terms still count towards DocFreq but
// never get a slot.
type Tfidf struct {
	DocCount    int            `json:"doc_count"`
	DocFreq     map[string]int `json:"term_doc_freq"`
	Vocabulary  map[string]int `json:"vocabulary"`
	MaxFeatures int            `json:"max_features"`
}

// LearnDelta records what a single Learn changed so that it can be reverted.
type LearnDelta struct {
	Counted  bool     // DocCount was incremented
	Terms    []string // distinct terms whose DocFreq was incremented
	Admitted []string // terms given a vocabulary slot, in slot order
}

// NewTfidf creates an empty vectorizer. maxFeatures <= 0 selects DefaultMaxFeatures.
func NewTfidf(maxFeatures int) *Tfidf {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Tfidf{
		DocFreq:     make(map[string]int),
		Vocabulary:  make(map[string]int),
		MaxFeatures: maxFeatures,
	}
}

// Repair fills nil maps and a missing capacity after deserialization.
func (tv *Tfidf) Repair() {
	if tv.DocFreq == nil {
		tv.DocFreq = make(map[string]int)
	}
	if tv.Vocabulary == nil {
		tv.Vocabulary = make(map[string]int)
	}
	if tv.MaxFeatures <= 0 {
		tv.MaxFeatures = DefaultMaxFeatures
	}
	if tv.DocCount < 0 {
		tv.DocCount = 0
	}
}

// Learn adds one document: DocCount is incremented and every distinct token's
// document frequency is incremented. Unseen tokens are admitted to the
// vocabulary while capacity remains.
func (tv *Tfidf) Learn(tokens []string) LearnDelta {
	tv.DocCount++
	d := LearnDelta{Counted: true}
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		tv.DocFreq[tok]++
		d.Terms = append(d.Terms, tok)
		if _, ok := tv.Vocabulary[tok]; !ok && len(tv.Vocabulary) < tv.MaxFeatures {
			tv.Vocabulary[tok] = len(tv.Vocabulary)
			d.Admitted = append(d.Admitted, tok)
		}
	}
	return d
}

// Unlearn reverts a Learn. Only the most recent Learn can be reverted exactly,
// since vocabulary slots are assigned sequentially.
func (tv *Tfidf) Unlearn(d LearnDelta) {
	if !d.Counted {
		return
	}
	if tv.DocCount > 0 {
		tv.DocCount--
	}
	for _, tok := range d.Terms {
		tv.DocFreq[tok]--
		if tv.DocFreq[tok] <= 0 {
			delete(tv.DocFreq, tok)
		}
	}
	for _, tok := range d.Admitted {
		delete(tv.Vocabulary, tok)
	}
}

// IDF returns ln((DocCount+1)/(DocFreq[term]+1)).
func (tv *Tfidf) IDF(term string) float64 {
	return math.Log(float64(tv.DocCount+1) / float64(tv.DocFreq[term]+1))
}

// Transform converts tokens to an L2-normalized TF-IDF vector restricted to the
// vocabulary. Term frequency is occurrences over total token count. The result
// is empty when no document has been learned, tokens is empty, or every
// weight is zero.
func (tv *Tfidf) Transform(tokens []string) Vector {
	if tv.DocCount == 0 || len(tokens) == 0 {
		return Vector{}
	}

	counts := make(map[string]int)
	for _, tok := range tokens {
		if _, ok := tv.Vocabulary[tok]; ok {
			counts[tok]++
		}
	}

	total := float64(len(tokens))
	v := make(Vector, len(counts))
	for tok, count := range counts {
		w := float64(count) / total * tv.IDF(tok)
		if w != 0 {
			v[TermFeature(tok)] = w
		}
	}
	v.Normalize()
	return v
}

// VocabSize returns the vocabulary size.
func (tv *Tfidf) VocabSize() int {
	return len(tv.Vocabulary)
}

// Terms returns vocabulary terms in slot order.
func (tv *Tfidf) Terms() []string {
	terms := make([]string, 0, len(tv.Vocabulary))
	for t := range tv.Vocabulary {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		return tv.Vocabulary[terms[i]] < tv.Vocabulary[terms[j]]
	})
	return terms
}

// Clone returns a deep copy.
func (tv *Tfidf) Clone() *Tfidf {
	c := &Tfidf{
		DocCount:    tv.DocCount,
		DocFreq:     make(map[string]int, len(tv.DocFreq)),
		Vocabulary:  make(map[string]int, len(tv.Vocabulary)),
		MaxFeatures: tv.MaxFeatures,
	}
	for k, v := range tv.DocFreq {
		c.DocFreq[k] = v
	}
	for k, v := range tv.Vocabulary {
		c.Vocabulary[k] = v
	}
	return c
}
