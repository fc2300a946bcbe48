package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/happyhackingspace/hinter/features"
	"github.com/happyhackingspace/hinter/internal/vectorizer"
)

func TestDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.org/page", "example"},
		{"https://foo.example.co.uk/path", "example"},
		{"https://www.mem.gov.cn/gk/sgcc/", "mem"},
		{"HTTP://WWW.Google.com?q=1", "google"},
		{"example.org", "example"},
		{"http://localhost:8080/path", "localhost"},
	}
	for _, tt := range tests {
		got := Domain(tt.url)
		if got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func testState() *State {
	tv := vectorizer.NewTfidf(10)
	tv.Learn([]string{"塔吊", "倒塌"})
	return &State{
		Bias:       -0.25,
		Weights:    map[string]float64{"塔吊": -2.1, "tfidf_倒塌": 0.05},
		TokenStats: map[string]features.TokenStat{"塔吊": {Pos: 0, Neg: 3}},
		NUpdates:   3,
		Tfidf:      tv,
	}
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	if _, err := s.Load(ctx, "cases_annotated_alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load of missing target: err = %v, want ErrNotFound", err)
	}
	want := testState()
	if err := s.Save(ctx, "cases_annotated_alice", want); err != nil {
		t.Fatal(err)
	}
	want.NUpdates = 4
	if err := s.Save(ctx, "cases_annotated_alice", want); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, "cases_annotated_alice")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	testStore(t, s)

	if _, err := os.Stat(filepath.Join(dir, "cases_annotated_alice_hint_model.json")); err != nil {
		t.Errorf("state file: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected no leftover temporary files, got %d entries", len(entries))
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	testStore(t, s)

	targets, err := s.Targets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(targets, []string{"cases_annotated_alice"}) {
		t.Errorf("Targets = %v", targets)
	}
}

func TestFileStoreLegacyRecord(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	doc := `{"bias": 0.1, "weights": {"塔吊": -1.9}}`
	if err := os.WriteFile(s.Path("old"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err := s.Load(context.Background(), "old")
	if err != nil {
		t.Fatal(err)
	}
	if st.NUpdates != 0 || st.Tfidf != nil || st.TokenStats == nil {
		t.Errorf("Load = %+v, want defaults for absent fields", st)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if err := os.WriteFile(s.Path("bad"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := s.Load(context.Background(), "bad")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want decode error", err)
	}
}

const casesCSV = "\xEF\xBB\xBFtitle,full_text,url\n" +
	"塔吊倒塌,<p>某工地<b>塔吊</b>倒塌</p>,https://www.mem.gov.cn/a\n" +
	"货轮碰撞,两艘货轮在航道碰撞,https://news.example.com/b\n"

func TestParseTable(t *testing.T) {
	tb, err := ParseTable(strings.NewReader(casesCSV))
	if err != nil {
		t.Fatal(err)
	}
	if tb.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tb.Len())
	}
	if tb.Header[0] != "title" {
		t.Errorf("Header[0] = %q, want BOM stripped", tb.Header[0])
	}
	if !tb.Has(LabelColumn) {
		t.Error("label column not added")
	}
	if got := tb.Text(0, "full_text"); got != "某工地塔吊倒塌" {
		t.Errorf("Text = %q", got)
	}
	if got := tb.Value(1, "URL"); got != "https://news.example.com/b" {
		t.Errorf("Value = %q", got)
	}
	if _, ok := tb.Label(0); ok {
		t.Error("record 0 should be unlabeled")
	}
}

func TestTableLabels(t *testing.T) {
	tb, err := ParseTable(strings.NewReader(casesCSV))
	if err != nil {
		t.Fatal(err)
	}
	tb.SetLabel(0, LabelConstruction)
	tb.SetLabel(1, LabelSkipped)

	path := filepath.Join(t.TempDir(), "cases_annotated_alice.csv")
	if err := tb.Write(path); err != nil {
		t.Fatal(err)
	}
	back, err := ReadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if l, ok := back.Label(0); !ok || l != LabelConstruction {
		t.Errorf("Label(0) = %d, %v", l, ok)
	}
	c, o, s, u := back.Counts()
	if c != 1 || o != 0 || s != 1 || u != 0 {
		t.Errorf("Counts = %d %d %d %d", c, o, s, u)
	}

	back.ClearLabel(1)
	if _, ok := back.Label(1); ok {
		t.Error("label not cleared")
	}
}

func TestTableLabelParsing(t *testing.T) {
	tests := []struct {
		value string
		label int
		ok    bool
	}{
		{"1", 1, true},
		{"0.0", 0, true},
		{"-1", -1, true},
		{"2", 0, false},
		{"yes", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		tb, err := ParseTable(strings.NewReader("full_text,is_construction\nx," + tt.value + "\n"))
		if err != nil {
			t.Fatal(err)
		}
		label, ok := tb.Label(0)
		if label != tt.label || ok != tt.ok {
			t.Errorf("Label(%q) = %d, %v, want %d, %v", tt.value, label, ok, tt.label, tt.ok)
		}
	}
}
