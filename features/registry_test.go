package features

import (
	"reflect"
	"testing"
)

func testSeeds() *Seeds {
	return &Seeds{
		Groups: map[string][]string{
			GroupConstruction: {"塔吊", "钢筋"},
			"ship":            {"货轮"},
		},
		Weights: map[string]float64{"塔吊": -2, "钢筋": -2, "货轮": 1.5, "爆炸": 0.5},
	}
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(testSeeds())
	if r.Len() != 4 {
		t.Errorf("Len = %d, want 4", r.Len())
	}
	if got := r.Group(GroupCustom); !reflect.DeepEqual(got, []string{"爆炸"}) {
		t.Errorf("custom group = %v, want [爆炸]", got)
	}
	want := []string{"塔吊", "爆炸", "货轮", "钢筋"}
	if got := r.Keywords(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
	if r.Version() == 0 {
		t.Error("expected non-zero version")
	}
}

func TestRegistryVersion(t *testing.T) {
	r := NewRegistry(testSeeds())
	v := r.Version()

	r.SetWeight("塔吊", -1.5)
	if r.Version() != v {
		t.Error("weight change of an existing keyword must not bump the version")
	}
	if created := r.SetWeight("tfidf_倒塌", 0.1); !created {
		t.Error("expected tfidf_倒塌 to be created")
	}
	if r.Version() != v {
		t.Error("term features must not bump the version")
	}
	if got := r.Group(GroupTerms); !reflect.DeepEqual(got, []string{"tfidf_倒塌"}) {
		t.Errorf("term group = %v", got)
	}

	r.Add(GroupLearned, "脚手架", -1)
	if r.Version() == v {
		t.Error("Add must bump the version")
	}
	v = r.Version()
	r.Remove("脚手架")
	if r.Version() == v {
		t.Error("Remove must bump the version")
	}
	if r.Has("脚手架") || len(r.Group(GroupLearned)) != 0 {
		t.Error("removed feature still present")
	}
	v = r.Version()
	r.Remove("不存在")
	if r.Version() != v {
		t.Error("removing an absent name must not bump the version")
	}
}

func TestRegistryRestore(t *testing.T) {
	r := NewRegistry(testSeeds())
	r.Restore(map[string]float64{"塔吊": -2.5, "tfidf_x1": 0.2, "围挡": -1.2})

	if r.Weight("塔吊") != -2.5 {
		t.Errorf("Weight(塔吊) = %v, want -2.5", r.Weight("塔吊"))
	}
	if !reflect.DeepEqual(r.Group(GroupLearned), []string{"围挡"}) {
		t.Errorf("learned group = %v", r.Group(GroupLearned))
	}
	if !reflect.DeepEqual(r.Group(GroupTerms), []string{"tfidf_x1"}) {
		t.Errorf("term group = %v", r.Group(GroupTerms))
	}
	if r.Weight("货轮") != 1.5 {
		t.Error("seed weight lost on restore")
	}
}

func TestObserveRevert(t *testing.T) {
	r := NewRegistry(nil)
	r.Observe([]string{"塔吊"}, 0)
	before := r.Stats()

	d := r.Observe([]string{"塔吊", "塔吊", "吊车"}, 1)
	if got := r.Stat("塔吊"); got != (TokenStat{Pos: 2, Neg: 1}) {
		t.Errorf("Stat(塔吊) = %+v", got)
	}
	if d["塔吊"] != (TokenStat{Pos: 2}) {
		t.Errorf("delta = %+v, want per occurrence", d)
	}

	r.Revert(d)
	if got := r.Stats(); !reflect.DeepEqual(got, before) {
		t.Errorf("Stats after Revert = %v, want %v", got, before)
	}
}

func TestRevertClamps(t *testing.T) {
	r := NewRegistry(nil)
	r.SetStats(map[string]TokenStat{"a1": {Pos: 1, Neg: -4}})
	if got := r.Stat("a1"); got != (TokenStat{Pos: 1}) {
		t.Errorf("SetStats = %+v, want negatives clamped", got)
	}
	r.Revert(StatDelta{"a1": {Pos: 3, Neg: 1}, "b1": {Pos: 1}})
	if _, ok := r.Stats()["a1"]; ok {
		t.Error("expected a1 dropped after counts reached zero")
	}
}
