package matcher

import (
	"reflect"
	"testing"

	"github.com/happyhackingspace/hinter/features"
)

func newRegistry() *features.Registry {
	return features.NewRegistry(&features.Seeds{
		Groups: map[string][]string{
			features.GroupConstruction: {"塔吊", "脚手架"},
			"traffic":                  {"Bus", "车祸"},
		},
		Weights: map[string]float64{"塔吊": -2, "脚手架": -2, "Bus": 1.5, "车祸": 1.5},
	})
}

func TestMatch(t *testing.T) {
	m := New(newRegistry())
	tests := []struct {
		text string
		want []string
	}{
		{"工地塔吊倒塌，塔吊司机受伤", []string{"塔吊"}},
		{"bus 与货车发生车祸", []string{"Bus", "车祸"}},
		{"A BUS crashed", []string{"Bus"}},
		{"货轮碰撞", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := m.Match(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestMatchFollowsRegistry(t *testing.T) {
	reg := newRegistry()
	m := New(reg)
	if got := m.Match("基坑坍塌"); got != nil {
		t.Fatalf("Match = %v, want nil", got)
	}
	if m.Stale() {
		t.Error("matcher should be fresh after a query")
	}

	reg.Add(features.GroupLearned, "基坑", -1.2)
	if !m.Stale() {
		t.Error("matcher should be stale after a promotion")
	}
	if got := m.Match("基坑坍塌"); !reflect.DeepEqual(got, []string{"基坑"}) {
		t.Errorf("Match after promotion = %v, want [基坑]", got)
	}

	reg.Remove("基坑")
	if got := m.Match("基坑坍塌"); got != nil {
		t.Errorf("Match after demotion = %v, want nil", got)
	}
}

func TestMatchEmptyDictionary(t *testing.T) {
	m := New(features.NewRegistry(nil))
	if got := m.Match("塔吊"); got != nil {
		t.Errorf("Match = %v, want nil", got)
	}
}

func TestTermFeaturesNotMatched(t *testing.T) {
	reg := newRegistry()
	reg.SetWeight("tfidf_塔吊", 0.3)
	m := New(reg)
	if got := m.Match("tfidf_塔吊"); !reflect.DeepEqual(got, []string{"塔吊"}) {
		t.Errorf("Match = %v, want [塔吊]", got)
	}
}
