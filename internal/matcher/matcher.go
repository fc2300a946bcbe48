// Package matcher finds keyword features in normalized text.
package matcher

import (
	"log/slog"
	"sort"

	"github.com/cloudflare/ahocorasick"

	"github.com/happyhackingspace/hinter/features"
	"github.com/happyhackingspace/hinter/internal/textutil"
)

// Matcher is a multi-pattern matcher over the keyword dictionary of a
// Registry. The automaton is compiled lazily and recompiled only when the
// registry version changes.
type Matcher struct {
	reg *features.Registry

	built   bool
	version uint64
	ac      *ahocorasick.Matcher
	keys    []string            // folded dictionary, indexed by automaton hit
	names   map[string][]string // folded key -> canonical feature names
}

// New returns a Matcher reading keywords from reg.
func New(reg *features.Registry) *Matcher {
	return &Matcher{reg: reg}
}

// Rebuild compiles the automaton from the current keyword dictionary.
func (m *Matcher) Rebuild() {
	m.names = make(map[string][]string)
	m.keys = m.keys[:0]
	for _, name := range m.reg.Keywords() {
		key := textutil.Fold(name)
		if key == "" {
			continue
		}
		if _, ok := m.names[key]; !ok {
			m.keys = append(m.keys, key)
		}
		m.names[key] = append(m.names[key], name)
	}
	m.ac = nil
	if len(m.keys) > 0 {
		m.ac = ahocorasick.NewStringMatcher(m.keys)
	}
	m.version = m.reg.Version()
	m.built = true
	slog.Debug("Keyword matcher rebuilt", "keywords", len(m.keys), "version", m.version)
}

// Stale reports whether the next Match will rebuild the automaton.
func (m *Matcher) Stale() bool {
	return !m.built || m.version != m.reg.Version()
}

// Match returns the sorted canonical names of the keywords occurring in text.
// Each keyword is reported once regardless of how often it occurs.
func (m *Matcher) Match(text string) []string {
	if m.Stale() {
		m.Rebuild()
	}
	if m.ac == nil || text == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, i := range m.ac.Match([]byte(textutil.Fold(text))) {
		if i < 0 || i >= len(m.keys) {
			continue
		}
		for _, name := range m.names[m.keys[i]] {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}
