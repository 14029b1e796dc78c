package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScoringParams are the quick-filter thresholds and composite weights used
// by the scoring run. Defaults match the production screening profile; an
// operator can override any field through a YAML file.
type ScoringParams struct {
	MinTradingValue float64 `yaml:"min_trading_value"`
	MinChange5d     float64 `yaml:"min_change_5d"`
	MinVolRatio     float64 `yaml:"min_vol_ratio"`
	MinClose        float64 `yaml:"min_close"`
	MinBars         int     `yaml:"min_bars"`

	TradingValueWeight float64 `yaml:"trading_value_weight"`
	MomentumWeight     float64 `yaml:"momentum_weight"`
	VolumeWeight       float64 `yaml:"volume_weight"`
}

// DefaultScoringParams returns the standard screening profile.
func DefaultScoringParams() ScoringParams {
	return ScoringParams{
		MinTradingValue: 100_000_000,
		MinChange5d:     -5,
		MinVolRatio:     0.5,
		MinClose:        5000,
		MinBars:         20,

		TradingValueWeight: 0.4,
		MomentumWeight:     0.3,
		VolumeWeight:       0.3,
	}
}

// LoadScoringParams reads overrides from a YAML file on top of the
// defaults. An empty path returns the defaults unchanged.
func LoadScoringParams(path string) (ScoringParams, error) {
	params := DefaultScoringParams()
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read scoring file: %w", err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("failed to parse scoring file: %w", err)
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// Validate rejects weight sets that do not describe a convex combination.
func (p ScoringParams) Validate() error {
	sum := p.TradingValueWeight + p.MomentumWeight + p.VolumeWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", sum)
	}
	if p.MinBars < 2 {
		return fmt.Errorf("min_bars must be at least 2, got %d", p.MinBars)
	}
	return nil
}
