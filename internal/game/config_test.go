package game

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	data := []byte(`
fever_duration_frames: 240
time_limit_frames: 3600
kinds:
  rotten: {points: -100, tier: 2}
fever_table:
  - {kind: golden, weight: 1}
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.FeverDurationFrames != 240 || cfg.TimeLimitFrames != 3600 {
		t.Fatalf("scalars not applied: fever=%d time=%d", cfg.FeverDurationFrames, cfg.TimeLimitFrames)
	}
	if cfg.BaseSpeed != 3 || cfg.SpawnRateFloor != 35 {
		t.Fatalf("defaults lost: base=%f floor=%d", cfg.BaseSpeed, cfg.SpawnRateFloor)
	}
	if got := cfg.Kinds[KindPenalty]; got.Points != -100 || got.Tier != 2 {
		t.Fatalf("rotten = %+v, want {-100 2}", got)
	}
	if got := cfg.Kinds[KindCommonFruit]; got.Points != 100 {
		t.Fatalf("apple lost in merge: %+v", got)
	}
	if len(cfg.Fever) != 1 || cfg.Fever[0].Kind != KindRareFruit {
		t.Fatalf("fever table = %+v, want only golden", cfg.Fever)
	}
	if len(cfg.Normal) != 5 {
		t.Fatalf("normal table replaced unexpectedly: %+v", cfg.Normal)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"unknown kind":  "normal_table:\n  - {kind: melon, weight: 3}\n",
		"zero lives":    "initial_lives: 0\n",
		"negative time": "time_limit_frames: -1\n",
		"bad weight":    "normal_table:\n  - {kind: apple, weight: -3}\n",
		"bad yaml":      "base_speed: [1,\n",
		"negative tier": "kinds:\n  bomb: {points: 0, tier: -5}\n",
		"slowing combo": "speed_combo_factor: -0.5\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "game.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Fatalf("LoadConfig accepted %q", body)
			}
		})
	}
}

func TestValidateRequiresCommonFruit(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.Kinds, KindCommonFruit)
	cfg.Normal = cfg.Normal[1:]
	cfg.Fever = cfg.Fever[1:]
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate accepted a config without %s", KindCommonFruit)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseKindRoundTrip(t *testing.T) {
	for k := KindCommonFruit; k <= KindPenalty; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v %v, want %v", k.String(), got, ok, k)
		}
	}
	if _, ok := ParseKind("melon"); ok {
		t.Fatalf("ParseKind accepted melon")
	}
}
