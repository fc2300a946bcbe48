package vectorizer

import (
	"math"
	"reflect"
	"testing"
)

func TestVectorNormalize(t *testing.T) {
	v := Vector{"a": 3, "b": 4}
	v.Normalize()
	if math.Abs(v.L2Norm()-1.0) > 1e-12 {
		t.Errorf("norm = %v, want 1", v.L2Norm())
	}
	if math.Abs(v["a"]-0.6) > 1e-12 || math.Abs(v["b"]-0.8) > 1e-12 {
		t.Errorf("normalized = %v", v)
	}

	zero := Vector{"a": 0}
	zero.Normalize()
	if zero["a"] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestMergeAndBinary(t *testing.T) {
	v := Merge(Binary([]string{"塔吊", "钢筋"}), Vector{"tfidf_x": 0.5})
	want := Vector{"塔吊": 1, "钢筋": 1, "tfidf_x": 0.5}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("Merge = %v, want %v", v, want)
	}
	if got := v.Names(); !reflect.DeepEqual(got, []string{"tfidf_x", "塔吊", "钢筋"}) {
		t.Errorf("Names = %v", got)
	}
}

func TestLearn(t *testing.T) {
	tv := NewTfidf(10)
	tv.Learn([]string{"塔吊", "塔吊", "倒塌"})
	tv.Learn([]string{"塔吊", "钢筋"})

	if tv.DocCount != 2 {
		t.Errorf("DocCount = %d, want 2", tv.DocCount)
	}
	if tv.DocFreq["塔吊"] != 2 {
		t.Errorf("DocFreq[塔吊] = %d, want 2 (once per document)", tv.DocFreq["塔吊"])
	}
	want := []string{"塔吊", "倒塌", "钢筋"}
	if got := tv.Terms(); !reflect.DeepEqual(got, want) {
		t.Errorf("Terms = %v, want %v", got, want)
	}
}

func TestLearnCapacity(t *testing.T) {
	tv := NewTfidf(2)
	tv.Learn([]string{"a1", "b1"})
	tv.Learn([]string{"c1", "a1"})

	if tv.VocabSize() != 2 {
		t.Fatalf("VocabSize = %d, want 2", tv.VocabSize())
	}
	if _, ok := tv.Vocabulary["c1"]; ok {
		t.Error("c1 admitted beyond capacity")
	}
	if tv.DocFreq["c1"] != 1 {
		t.Errorf("DocFreq[c1] = %d, want 1", tv.DocFreq["c1"])
	}
	v := tv.Transform([]string{"c1", "c1"})
	if len(v) != 0 {
		t.Errorf("Transform of out-of-vocabulary term = %v, want empty", v)
	}
}

func TestTransform(t *testing.T) {
	tv := NewTfidf(10)
	tv.Learn([]string{"塔吊", "倒塌"})
	tv.Learn([]string{"塔吊", "钢筋"})
	tv.Learn([]string{"货轮"})

	v := tv.Transform([]string{"倒塌", "钢筋", "钢筋", "未知"})
	if len(v) != 2 {
		t.Fatalf("Transform = %v, want 2 entries", v)
	}
	if math.Abs(v.L2Norm()-1.0) > 1e-9 {
		t.Errorf("norm = %v, want 1", v.L2Norm())
	}
	// equal IDF, so weights follow term frequency: 钢筋 twice as heavy as 倒塌
	if math.Abs(v["tfidf_钢筋"]-2*v["tfidf_倒塌"]) > 1e-9 {
		t.Errorf("weights = %v", v)
	}
}

func TestTransformIDF(t *testing.T) {
	tv := NewTfidf(10)
	tv.Learn([]string{"a1"})
	tv.Learn([]string{"a1", "b1"})
	tv.Learn([]string{"c1"})

	want := math.Log(4.0 / 3.0)
	if got := tv.IDF("a1"); math.Abs(got-want) > 1e-12 {
		t.Errorf("IDF(a1) = %v, want %v", got, want)
	}
	v := tv.Transform([]string{"a1", "b1"})
	if v["tfidf_b1"] <= v["tfidf_a1"] {
		t.Errorf("rare term should outweigh common term: %v", v)
	}
}

func TestTransformEmpty(t *testing.T) {
	tv := NewTfidf(10)
	if v := tv.Transform([]string{"a1"}); len(v) != 0 {
		t.Errorf("Transform before any Learn = %v, want empty", v)
	}
	tv.Learn([]string{"a1"})
	if v := tv.Transform(nil); len(v) != 0 {
		t.Errorf("Transform(nil) = %v, want empty", v)
	}
	// a term present in every document has IDF 0, so the vector is empty
	if v := tv.Transform([]string{"a1"}); len(v) != 0 {
		t.Errorf("Transform of zero-IDF term = %v, want empty", v)
	}
}

func TestUnlearn(t *testing.T) {
	tv := NewTfidf(3)
	tv.Learn([]string{"a1", "b1"})
	before := NewTfidf(3)
	before.Learn([]string{"a1", "b1"})

	d := tv.Learn([]string{"b1", "c1", "d1", "e1"})
	if !reflect.DeepEqual(d.Admitted, []string{"c1"}) {
		t.Fatalf("Admitted = %v, want [c1]", d.Admitted)
	}
	tv.Unlearn(d)

	if !reflect.DeepEqual(tv, before) {
		t.Errorf("after Unlearn = %+v, want %+v", tv, before)
	}
	tv.Unlearn(LearnDelta{})
	if !reflect.DeepEqual(tv, before) {
		t.Error("empty delta must be a no-op")
	}
}

func TestRepair(t *testing.T) {
	tv := &Tfidf{DocCount: -1}
	tv.Repair()
	if tv.DocFreq == nil || tv.Vocabulary == nil {
		t.Error("maps not initialized")
	}
	if tv.MaxFeatures != DefaultMaxFeatures || tv.DocCount != 0 {
		t.Errorf("Repair = %+v", tv)
	}
}

func TestClone(t *testing.T) {
	tv := NewTfidf(5)
	tv.Learn([]string{"a1", "b1"})
	c := tv.Clone()
	tv.Learn([]string{"c1"})
	if c.DocCount != 1 || c.VocabSize() != 2 {
		t.Errorf("clone changed with original: %+v", c)
	}
}
