// Package segment provides the dictionary-based Chinese word segmenter used to
// tokenize incident reports for feature learning.
package segment

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-ego/gse"
)

// Segmenter wraps a gse dictionary segmenter. It satisfies textutil.Segmenter.
type Segmenter struct {
	seg gse.Segmenter
	hmm bool
}

// Options controls segmenter construction.
type Options struct {
	// UserDict is an optional dictionary file loaded after the embedded one.
	UserDict string
	// HMM enables new-word discovery for out-of-dictionary words.
	HMM bool
}

// New loads the embedded Chinese dictionary and the optional user dictionary.
// A missing user dictionary is skipped.
func New(opts Options) (*Segmenter, error) {
	s := &Segmenter{hmm: opts.HMM}
	s.seg.SkipLog = true
	if err := s.seg.LoadDictEmbed(); err != nil {
		return nil, fmt.Errorf("segment: load embedded dictionary: %w", err)
	}
	if opts.UserDict == "" {
		return s, nil
	}
	data, err := os.ReadFile(opts.UserDict)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("User dictionary not found", "path", opts.UserDict)
			return s, nil
		}
		return nil, fmt.Errorf("segment: %w", err)
	}
	// LoadDict would reset the embedded dictionary; add the entries to it instead.
	if err := s.seg.LoadDictStr(string(data)); err != nil {
		slog.Warn("Cannot load user dictionary", "path", opts.UserDict, "error", err)
		return s, nil
	}
	slog.Debug("User dictionary loaded", "path", opts.UserDict)
	return s, nil
}

// Cut splits text into words in precise mode.
func (s *Segmenter) Cut(text string) []string {
	return s.seg.Cut(text, s.hmm)
}
