package game

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KindSpec carries the fixed scoring and speed properties of an item kind.
type KindSpec struct {
	Points int `yaml:"points"`
	Tier   int `yaml:"tier"`
}

// Weight is one row of a spawn probability table.
type Weight struct {
	Kind   Kind `yaml:"kind"`
	Weight int  `yaml:"weight"`
}

// Config centralizes every tunable simulation parameter.
type Config struct {
	BaseSpeed           float64 `yaml:"base_speed"`
	FeverFallRate       float64 `yaml:"fever_fall_rate"`
	FeverDurationFrames int     `yaml:"fever_duration_frames"`
	FeverComboStep      int     `yaml:"fever_combo_step"`
	ComboBonusPerStack  int     `yaml:"combo_bonus_per_stack"`

	SpawnRateBase      int `yaml:"spawn_rate_base"`
	SpawnRateFloor     int `yaml:"spawn_rate_floor"`
	SpawnScoreStep     int `yaml:"spawn_score_step"`
	FeverSpawnInterval int `yaml:"fever_spawn_interval"`

	SpeedScoreDivisor  float64 `yaml:"speed_score_divisor"`
	SpeedComboFactor   float64 `yaml:"speed_combo_factor"`
	MaxSpeedMultiplier float64 `yaml:"max_speed_multiplier"`

	InitialLives    int `yaml:"initial_lives"`
	TimeLimitFrames int `yaml:"time_limit_frames"` // 0 disables the timer

	BasketWidth        float64 `yaml:"basket_width"`
	BasketHeight       float64 `yaml:"basket_height"`
	BasketBottomOffset float64 `yaml:"basket_bottom_offset"`
	ItemSize           float64 `yaml:"item_size"`

	DefaultViewWidth  float64 `yaml:"default_view_width"`
	DefaultViewHeight float64 `yaml:"default_view_height"`

	Kinds  map[Kind]KindSpec `yaml:"kinds"`
	Normal []Weight          `yaml:"normal_table"`
	Fever  []Weight          `yaml:"fever_table"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		BaseSpeed:           3,
		FeverFallRate:       9,
		FeverDurationFrames: 180,
		FeverComboStep:      10,
		ComboBonusPerStack:  10,

		SpawnRateBase:      60,
		SpawnRateFloor:     35,
		SpawnScoreStep:     1000,
		FeverSpawnInterval: 15,

		SpeedScoreDivisor:  20000,
		SpeedComboFactor:   0.01,
		MaxSpeedMultiplier: 2.0,

		InitialLives: 3,

		BasketWidth:        80,
		BasketHeight:       40,
		BasketBottomOffset: 60,
		ItemSize:           30,

		DefaultViewWidth:  640,
		DefaultViewHeight: 480,

		Kinds: map[Kind]KindSpec{
			KindCommonFruit: {Points: 100, Tier: 0},
			KindBonusFruit:  {Points: 200, Tier: 1},
			KindHazard:      {Points: 0, Tier: 2},
			KindRareFruit:   {Points: 500, Tier: 4},
			KindPenalty:     {Points: -50, Tier: 1},
		},
		Normal: []Weight{
			{Kind: KindCommonFruit, Weight: 35},
			{Kind: KindBonusFruit, Weight: 25},
			{Kind: KindHazard, Weight: 20},
			{Kind: KindRareFruit, Weight: 10},
			{Kind: KindPenalty, Weight: 10},
		},
		Fever: []Weight{
			{Kind: KindCommonFruit, Weight: 20},
			{Kind: KindBonusFruit, Weight: 45},
			{Kind: KindRareFruit, Weight: 35},
		},
	}
}

// LoadConfig reads a YAML tuning file on top of DefaultConfig.
// Tables present in the file replace the defaults; kinds are merged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read game config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse game config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid game config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	switch {
	case c.BaseSpeed <= 0 || c.FeverFallRate <= 0:
		return errors.New("fall speeds must be positive")
	case c.FeverDurationFrames <= 0:
		return errors.New("fever_duration_frames must be positive")
	case c.FeverComboStep <= 0:
		return errors.New("fever_combo_step must be positive")
	case c.SpawnRateBase <= 0 || c.SpawnRateFloor <= 0 || c.FeverSpawnInterval <= 0:
		return errors.New("spawn intervals must be positive")
	case c.SpawnScoreStep <= 0 || c.SpeedScoreDivisor <= 0:
		return errors.New("score steps must be positive")
	case c.MaxSpeedMultiplier < 1:
		return errors.New("max_speed_multiplier must be at least 1")
	case c.SpeedComboFactor < 0:
		return errors.New("speed_combo_factor must not be negative")
	case c.InitialLives <= 0:
		return errors.New("initial_lives must be positive")
	case c.TimeLimitFrames < 0:
		return errors.New("time_limit_frames must not be negative")
	case c.BasketWidth <= 0 || c.BasketHeight <= 0 || c.ItemSize <= 0:
		return errors.New("basket and item sizes must be positive")
	case c.DefaultViewWidth <= 0 || c.DefaultViewHeight <= 0:
		return errors.New("default view size must be positive")
	}
	// Empty or zero-weight tables fall back to common fruit.
	if _, ok := c.Kinds[KindCommonFruit]; !ok {
		return fmt.Errorf("kind %s must be defined", KindCommonFruit)
	}
	for kind, spec := range c.Kinds {
		if spec.Tier < 0 {
			return fmt.Errorf("negative tier for %s", kind)
		}
	}
	for _, table := range [][]Weight{c.Normal, c.Fever} {
		for _, w := range table {
			if w.Weight < 0 {
				return fmt.Errorf("negative weight for %s", w.Kind)
			}
			if _, ok := c.Kinds[w.Kind]; !ok {
				return fmt.Errorf("table references undefined kind %s", w.Kind)
			}
		}
	}
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler so config files can name kinds.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown item kind %q", text)
	}
	*k = parsed
	return nil
}
