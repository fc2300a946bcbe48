package features

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltin(t *testing.T) {
	s := Builtin()
	if s.Weights["塔吊"] != DefaultConstructionWeight {
		t.Errorf("Weights[塔吊] = %v, want %v", s.Weights["塔吊"], DefaultConstructionWeight)
	}
	if s.Weights["货轮"] != DefaultWeight {
		t.Errorf("Weights[货轮] = %v, want %v", s.Weights["货轮"], DefaultWeight)
	}
	for g, keys := range s.Groups {
		for _, k := range keys {
			if _, ok := s.Weights[k]; !ok {
				t.Errorf("keyword %s of group %s has no weight", k, g)
			}
		}
	}
}

func TestParseSeeds(t *testing.T) {
	builtin := len(Builtin().Weights)
	tests := []struct {
		name     string
		doc      string
		mode     string
		features int
		check    func(t *testing.T, s *Seeds)
	}{
		{
			name:     "merge",
			doc:      "groups:\n  construction: [\" 围挡 \", \"\", 塔吊]\n  power: [电缆]\nweights:\n  火灾: \"0.8\"\n",
			mode:     ModeMerge,
			features: builtin + 3,
			check: func(t *testing.T, s *Seeds) {
				if s.Weights["围挡"] != DefaultConstructionWeight {
					t.Errorf("Weights[围挡] = %v", s.Weights["围挡"])
				}
				if s.Weights["电缆"] != DefaultWeight {
					t.Errorf("Weights[电缆] = %v", s.Weights["电缆"])
				}
				if s.Weights["火灾"] != 0.8 {
					t.Errorf("Weights[火灾] = %v", s.Weights["火灾"])
				}
			},
		},
		{
			name:     "json replace",
			doc:      `{"mode": "replace", "groups": {"construction": ["塔吊"]}, "weights": {"塔吊": -3}}`,
			mode:     ModeReplace,
			features: 1,
			check: func(t *testing.T, s *Seeds) {
				if s.Weights["塔吊"] != -3 {
					t.Errorf("Weights[塔吊] = %v, want -3", s.Weights["塔吊"])
				}
			},
		},
		{
			name:     "replace empty",
			doc:      "mode: replace\n",
			mode:     ModeReplaceEmpty,
			features: builtin,
		},
		{
			name:     "non-list group skipped",
			doc:      "groups:\n  ship: 货轮\nweights:\n  渔船: many\n",
			mode:     ModeMerge,
			features: builtin,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sum, err := ParseSeeds([]byte(tt.doc))
			if err != nil {
				t.Fatal(err)
			}
			if sum.Mode != tt.mode {
				t.Errorf("Mode = %q, want %q", sum.Mode, tt.mode)
			}
			if sum.FinalFeatures != tt.features {
				t.Errorf("FinalFeatures = %d, want %d", sum.FinalFeatures, tt.features)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestParseSeedsUnknownModeMerges(t *testing.T) {
	s, sum, err := ParseSeeds([]byte("mode: append\ngroups:\n  ship: [拖轮]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Mode != ModeMerge {
		t.Errorf("Mode = %q, want %q", sum.Mode, ModeMerge)
	}
	if got, want := s.Weights["拖轮"], DefaultWeight; got != want {
		t.Errorf("weight[拖轮] = %v, want %v", got, want)
	}
	if _, ok := s.Weights["塔吊"]; !ok {
		t.Error("built-in seeds dropped")
	}
}

func TestParseSeedsMalformed(t *testing.T) {
	_, _, err := ParseSeeds([]byte("groups: [unclosed\n"))
	if !errors.Is(err, ErrSeedFormat) {
		t.Errorf("err = %v, want ErrSeedFormat", err)
	}
}

func TestLoadSeeds(t *testing.T) {
	dir := t.TempDir()

	s, sum, err := LoadSeeds(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if sum.Mode != ModeBuiltin || len(s.Weights) != sum.FinalFeatures {
		t.Errorf("summary = %+v", sum)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("groups: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, sum, err = LoadSeeds(bad)
	if err == nil {
		t.Error("expected error for malformed seeds")
	}
	if sum.Mode != ModeLoadError || s.Weights["塔吊"] != DefaultConstructionWeight {
		t.Errorf("malformed seeds must fall back to built-ins, got %+v", sum)
	}
}
