package hinter

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/happyhackingspace/hinter/internal/storage"
)

// LabeledRecord is a record with its human label (LabelConstruction or LabelOther).
type LabeledRecord struct {
	Record
	Label int
}

// EvalConfig holds configuration for evaluation.
type EvalConfig struct {
	TestFraction float64  // share of records held out, by source domain
	Threshold    float64  // probability at or above which LabelOther is predicted
	Warmup       []Record // unlabeled records learned before training
	Baseline     Options
	Enhanced     Options
}

// DefaultEvalConfig returns the default evaluation configuration.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		TestFraction: 0.3,
		Threshold:    0.5,
		Baseline:     BaselineOptions(),
		Enhanced:     DefaultOptions(),
	}
}

// Metrics scores predictions. The positive class is LabelOther.
type Metrics struct {
	Accuracy  float64
	AUC       float64
	Precision float64
	Recall    float64
	Size      int
}

// EvalResult compares the baseline and the enhanced model on the same split.
type EvalResult struct {
	Train    int
	Test     int
	Baseline Metrics
	Enhanced Metrics
}

// Evaluate trains both models online on the training split (label after
// label) and scores their hints on the held-out split. Records are split by
// source domain so that near-duplicate reports of one site stay on one side.
func Evaluate(records []LabeledRecord, config *EvalConfig) (*EvalResult, error) {
	cfg := DefaultEvalConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.3
	}

	var usable []LabeledRecord
	for _, r := range records {
		if r.FullText != "" && (r.Label == LabelConstruction || r.Label == LabelOther) {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		return nil, errors.New("hinter: no labeled records")
	}

	testSet := splitByDomain(usable, cfg.TestFraction)
	var train, test []LabeledRecord
	for i, r := range usable {
		if testSet[i] {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, fmt.Errorf("hinter: cannot split %d records into train and test", len(usable))
	}

	result := &EvalResult{Train: len(train), Test: len(test)}
	for _, m := range []struct {
		opts Options
		out  *Metrics
	}{
		{cfg.Baseline, &result.Baseline},
		{cfg.Enhanced, &result.Enhanced},
	} {
		e := New(m.opts)
		if m.opts.Terms {
			e.Warmup(cfg.Warmup)
		}
		for _, r := range train {
			if _, err := e.Label(r.Record, r.Label); err != nil {
				return nil, err
			}
		}
		yTrue := make([]int, len(test))
		yScore := make([]float64, len(test))
		for i, r := range test {
			yTrue[i] = r.Label
			yScore[i] = e.Hint(r.Record).Probability
		}
		*m.out = ComputeMetrics(yTrue, yScore, cfg.Threshold)
	}
	return result, nil
}

// splitByDomain marks the records of whole domain groups as test records until
// the test fraction is reached. Group order is a hash of the domain, so the
// split is deterministic. Records without a URL form their own groups.
func splitByDomain(records []LabeledRecord, fraction float64) []bool {
	groups := make(map[string][]int)
	for i, r := range records {
		key := storage.Domain(r.URL)
		if r.URL == "" || key == "" {
			key = fmt.Sprintf("#%d", i)
		}
		groups[key] = append(groups[key], i)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		hi, hj := hashKey(keys[i]), hashKey(keys[j])
		if hi != hj {
			return hi < hj
		}
		return keys[i] < keys[j]
	})

	want := int(float64(len(records))*fraction + 0.5)
	if want < 1 {
		want = 1
	}
	test := make([]bool, len(records))
	n := 0
	for _, k := range keys {
		if n >= want {
			break
		}
		for _, i := range groups[k] {
			test[i] = true
		}
		n += len(groups[k])
	}
	return test
}

func hashKey(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// ComputeMetrics scores probabilities against 0/1 labels.
func ComputeMetrics(yTrue []int, yScore []float64, threshold float64) Metrics {
	var tp, tn, fp, fn int
	for i, y := range yTrue {
		pred := 0
		if yScore[i] >= threshold {
			pred = 1
		}
		switch {
		case y == 1 && pred == 1:
			tp++
		case y == 0 && pred == 0:
			tn++
		case y == 0 && pred == 1:
			fp++
		default:
			fn++
		}
	}
	return Metrics{
		Accuracy:  float64(tp+tn) / float64(max(1, len(yTrue))),
		AUC:       AUC(yTrue, yScore),
		Precision: float64(tp) / float64(max(1, tp+fp)),
		Recall:    float64(tp) / float64(max(1, tp+fn)),
		Size:      len(yTrue),
	}
}

// AUC returns the area under the ROC curve, with tied scores counted as half
// ordered. It is 0.5 when either class is absent.
func AUC(yTrue []int, yScore []float64) float64 {
	var pos, neg int
	for _, y := range yTrue {
		if y == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	ranks := averageRanks(yScore)
	var rankSum float64
	for i, y := range yTrue {
		if y == 1 {
			rankSum += ranks[i]
		}
	}
	auc := (rankSum - float64(pos*(pos+1))/2) / float64(pos*neg)
	return max(0, min(1, auc))
}

// averageRanks returns 1-based ranks of xs; tied values share their average rank.
func averageRanks(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, len(xs))
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && xs[idx[j]] == xs[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // ranks i+1..j
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}
