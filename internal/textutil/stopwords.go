package textutil

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// StopWords is a set of tokens excluded from learning.
type StopWords struct {
	words map[string]bool
}

var defaultStopWords = []string{
	"事故", "发生", "经过", "情况", "有关", "人员", "责任", "公司", "单位", "作业",
	"安全", "管理", "报告", "造成", "受伤", "死亡", "调查", "建议", "目前", "当场",
	"现场", "处理", "部门", "年", "月", "日", "时", "分", "某", "该",
	"本", "等", "以及", "并", "对", "中",
}

// DefaultStopWords returns the built-in stopword set for incident reports.
func DefaultStopWords() *StopWords {
	s := &StopWords{words: make(map[string]bool, len(defaultStopWords))}
	for _, w := range defaultStopWords {
		s.words[w] = true
	}
	return s
}

// Add adds words to the set. Blank entries are ignored.
func (s *StopWords) Add(words ...string) {
	for _, w := range words {
		w = Fold(strings.TrimSpace(w))
		if w != "" {
			s.words[w] = true
		}
	}
}

// Contains reports whether w is a stopword.
func (s *StopWords) Contains(w string) bool {
	return s.words[w]
}

// Len returns the number of stopwords.
func (s *StopWords) Len() int {
	return len(s.words)
}

// LoadFile extends the set with one word per line from path.
func (s *StopWords) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s.Add(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stopwords %s: %w", path, err)
	}
	return nil
}
