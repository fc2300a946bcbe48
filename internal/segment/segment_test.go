package segment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCut(t *testing.T) {
	if testing.Short() {
		t.Skip("loading the embedded dictionary is slow")
	}
	s, err := New(Options{HMM: true})
	if err != nil {
		t.Fatal(err)
	}
	words := s.Cut("施工现场塔吊倒塌")
	if len(words) < 2 {
		t.Fatalf("expected text to be split, got %v", words)
	}
	if strings.Join(words, "") != "施工现场塔吊倒塌" {
		t.Errorf("segments %v do not reassemble the input", words)
	}
}

func TestNewMissingUserDict(t *testing.T) {
	if testing.Short() {
		t.Skip("loading the embedded dictionary is slow")
	}
	if _, err := New(Options{UserDict: "/nonexistent/user_dict.txt"}); err != nil {
		t.Errorf("missing user dictionary should be skipped, got %v", err)
	}
}

func TestUserDictExtendsEmbedded(t *testing.T) {
	if testing.Short() {
		t.Skip("loading the embedded dictionary is slow")
	}
	path := filepath.Join(t.TempDir(), "user_dict.txt")
	if err := os.WriteFile(path, []byte("防护棚 100 n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := New(Options{UserDict: path})
	if err != nil {
		t.Fatal(err)
	}
	if !s.seg.SkipLog {
		t.Error("dictionary loading must not write to the standard logger")
	}

	got := make(map[string]bool)
	for _, w := range s.Cut("工人在工地搭设防护棚时从脚手架坠落") {
		got[w] = true
	}
	for _, want := range []string{"防护棚", "工人", "工地", "脚手架", "坠落"} {
		if !got[want] {
			t.Errorf("word %q not kept whole, got %v", want, got)
		}
	}
}
