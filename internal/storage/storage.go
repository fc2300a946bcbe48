// Package storage persists hint model state and reads and writes the CSV
// tables of incident records being annotated.
package storage

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/happyhackingspace/hinter/features"
	"github.com/happyhackingspace/hinter/internal/vectorizer"
)

// ErrNotFound is returned by Store.Load when no state exists for a target.
var ErrNotFound = errors.New("model state not found")

// State is the persisted hint model.
type State struct {
	Bias       float64                       `json:"bias"`
	Weights    map[string]float64            `json:"weights"`
	TokenStats map[string]features.TokenStat `json:"token_stats"`
	NUpdates   int                           `json:"n_updates"`
	Tfidf      *vectorizer.Tfidf             `json:"tfidf,omitempty"`
}

// Repair fills absent fields of a decoded state with their defaults. A state
// without TF-IDF data keeps a nil Tfidf so the caller can choose its capacity.
func (s *State) Repair() {
	if s.Weights == nil {
		s.Weights = make(map[string]float64)
	}
	if s.TokenStats == nil {
		s.TokenStats = make(map[string]features.TokenStat)
	}
	if s.NUpdates < 0 {
		s.NUpdates = 0
	}
	if s.Tfidf != nil {
		s.Tfidf.Repair()
	}
}

// Store loads and saves model state keyed by output target.
type Store interface {
	Load(ctx context.Context, target string) (*State, error)
	Save(ctx context.Context, target string, state *State) error
	Close() error
}

// Domain extracts the registrable domain name of a URL, without its public
// suffix ("https://news.example.com.cn/a" -> "example"). Records are grouped
// by source domain when splitting evaluation data.
func Domain(rawURL string) string {
	host := rawURL
	if idx := strings.Index(host, "://"); idx >= 0 {
		host = host[idx+3:]
	}
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	host = strings.ToLower(host)

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	if idx := strings.Index(domain, "."); idx >= 0 {
		return domain[:idx]
	}
	return domain
}
