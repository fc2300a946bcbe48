package features

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default seed weights. Positive weights push towards non-construction.
const (
	DefaultWeight             = 1.5
	DefaultConstructionWeight = -2.0
)

// ErrSeedFormat is returned for a seed document that cannot be applied.
var ErrSeedFormat = errors.New("invalid seed document")

// Seed load modes reported in Summary.
const (
	ModeBuiltin      = "builtin-only"
	ModeLoadError    = "load-error"
	ModeMerge        = "merge"
	ModeReplace      = "replace"
	ModeReplaceEmpty = "replace-empty-fallback"
)

// Seeds is a resolved initial feature set: every group keyword has a weight.
type Seeds struct {
	Groups  map[string][]string
	Weights map[string]float64
}

// Summary describes how seeds were loaded.
type Summary struct {
	Mode          string
	SeedGroups    int // keywords listed under groups in the seed document
	SeedWeights   int // explicit weight overrides in the seed document
	FinalFeatures int
}

func (s Summary) String() string {
	return fmt.Sprintf("mode=%s seed_groups=%d seed_weights=%d features=%d",
		s.Mode, s.SeedGroups, s.SeedWeights, s.FinalFeatures)
}

var builtinGroups = map[string][]string{
	"ship": {
		"船舶", "渔船", "货轮", "客轮", "轮船", "船员", "船长", "船只", "海事",
		"海上", "航道", "航行", "锚地", "港口", "海域", "碰撞", "机舱",
	},
	"traffic": {
		"交通事故", "车辆", "轿车", "公交", "卡车", "高速", "路口", "驾驶员",
		"乘客", "追尾", "侧翻", "车祸", "列车", "铁路", "火车", "地铁",
	},
	"mining": {
		"煤矿", "矿井", "采区", "井下", "巷道", "掘进", "顶板", "矿山",
	},
	"chemical": {
		"化工", "危化", "危险化学品", "泄漏", "有毒", "罐体", "槽罐车", "爆燃", "中毒",
	},
	GroupConstruction: {
		"施工", "工地", "塔吊", "脚手架", "混凝土", "浇筑", "吊装", "模板", "基坑",
		"起重", "施工现场", "班组", "钢筋", "桩基", "桥梁施工", "隧道施工", "防护棚",
	},
}

// Builtin returns the built-in seed set.
func Builtin() *Seeds {
	s := &Seeds{
		Groups:  make(map[string][]string, len(builtinGroups)),
		Weights: make(map[string]float64),
	}
	for g, keys := range builtinGroups {
		s.Groups[g] = append([]string(nil), keys...)
	}
	s.fillDefaultWeights()
	return s
}

func (s *Seeds) fillDefaultWeights() {
	groups := make([]string, 0, len(s.Groups))
	for g := range s.Groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		for _, k := range s.Groups[g] {
			if _, ok := s.Weights[k]; ok {
				continue
			}
			if g == GroupConstruction {
				s.Weights[k] = DefaultConstructionWeight
			} else {
				s.Weights[k] = DefaultWeight
			}
		}
	}
}

// seedDocument is the on-disk seed configuration. Values are loosely typed so
// that a single bad entry is skipped rather than rejecting the document.
type seedDocument struct {
	Mode    string         `yaml:"mode"`
	Groups  map[string]any `yaml:"groups"`
	Weights map[string]any `yaml:"weights"`
}

// LoadSeeds reads a seed document (JSON or YAML) from path and applies it to
// the built-in seeds. A missing file yields the built-ins. An unreadable or
// malformed file also yields the built-ins, together with the error so the
// caller can report it.
func LoadSeeds(path string) (*Seeds, Summary, error) {
	builtin := Builtin()
	if path == "" {
		return builtin, Summary{Mode: ModeBuiltin, FinalFeatures: len(builtin.Weights)}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return builtin, Summary{Mode: ModeBuiltin, FinalFeatures: len(builtin.Weights)}, nil
		}
		return builtin, Summary{Mode: ModeLoadError, FinalFeatures: len(builtin.Weights)}, fmt.Errorf("read seeds: %w", err)
	}
	seeds, summary, err := ParseSeeds(data)
	if err != nil {
		return builtin, Summary{Mode: ModeLoadError, FinalFeatures: len(builtin.Weights)}, fmt.Errorf("parse seeds %s: %w", path, err)
	}
	return seeds, summary, nil
}

// ParseSeeds applies a seed document to the built-in seeds.
func ParseSeeds(data []byte) (*Seeds, Summary, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, Summary{}, fmt.Errorf("%w: %v", ErrSeedFormat, err)
	}

	mode := strings.ToLower(strings.TrimSpace(doc.Mode))
	if mode == "" {
		mode = ModeMerge
	}
	if mode != ModeMerge && mode != ModeReplace {
		slog.Warn("Unknown seed mode, merging with built-in seeds", "mode", doc.Mode)
		mode = ModeMerge
	}

	seeds := Builtin()
	if mode == ModeReplace {
		if len(doc.Groups) == 0 && len(doc.Weights) == 0 {
			mode = ModeReplaceEmpty
		} else {
			seeds = &Seeds{Groups: make(map[string][]string), Weights: make(map[string]float64)}
		}
	}

	seedGroups := 0
	for group, raw := range doc.Groups {
		list, ok := raw.([]any)
		if !ok {
			continue
		}
		set := make(map[string]bool)
		for _, k := range seeds.Groups[group] {
			set[k] = true
		}
		for _, item := range list {
			k := strings.TrimSpace(fmt.Sprint(item))
			if item == nil || k == "" {
				continue
			}
			set[k] = true
		}
		seedGroups += len(list)
		seeds.Groups[group] = sortedKeys(set)
	}
	seeds.fillDefaultWeights()

	seedWeights := 0
	if len(doc.Weights) > 0 {
		custom := make(map[string]bool)
		for _, k := range seeds.Groups[GroupCustom] {
			custom[k] = true
		}
		for k, raw := range doc.Weights {
			k = strings.TrimSpace(k)
			w, ok := toFloat(raw)
			if k == "" || !ok {
				continue
			}
			seeds.Weights[k] = w
			custom[k] = true
		}
		seedWeights = len(doc.Weights)
		seeds.Groups[GroupCustom] = sortedKeys(custom)
	}

	return seeds, Summary{
		Mode:          mode,
		SeedGroups:    seedGroups,
		SeedWeights:   seedWeights,
		FinalFeatures: len(seeds.Weights),
	}, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
