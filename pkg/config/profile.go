package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

// EngineProfile holds the tunable engine defaults read from YAML
type EngineProfile struct {
	DefaultWeights map[string]int `yaml:"default_weights"`
	BucketWeights  struct {
		High   *float64 `yaml:"high"`
		Medium *float64 `yaml:"medium"`
	} `yaml:"bucket_weights"`
	HHI struct {
		DeltaThreshold        float64 `yaml:"delta_threshold"`
		ConcentratedThreshold float64 `yaml:"concentrated_threshold"`
	} `yaml:"hhi"`
	Acquisition struct {
		TopMSAs       int     `yaml:"top_msas"`
		MaxHaircutPct float64 `yaml:"max_haircut_pct"`
	} `yaml:"acquisition"`
	Market struct {
		ShareUnit string `yaml:"share_unit"`
	} `yaml:"market"`

	weights   models.Weights
	shareUnit models.ShareUnit
}

// DefaultEngineProfile returns the built-in profile
func DefaultEngineProfile() *EngineProfile {
	p := &EngineProfile{}
	if err := p.applyDefaults(); err != nil {
		// built-in values always validate
		panic(err)
	}
	return p
}

// LoadEngineProfile reads a YAML profile. An empty path or a missing file
// yields the defaults; unknown parameters or invalid numbers are errors.
func LoadEngineProfile(path string) (*EngineProfile, error) {
	p := &EngineProfile{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read engine profile: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, p); err != nil {
				return nil, fmt.Errorf("parse engine profile: %w", err)
			}
		}
	}
	if err := p.applyDefaults(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *EngineProfile) applyDefaults() error {
	if len(p.DefaultWeights) == 0 {
		p.weights = models.DefaultWeights()
	} else {
		w, err := models.WeightsFromIDs(p.DefaultWeights)
		if err != nil {
			return fmt.Errorf("invalid default_weights: %w", err)
		}
		p.weights = w
	}

	def := models.DefaultBucketWeights()
	if p.BucketWeights.High == nil {
		p.BucketWeights.High = &def.High
	}
	if p.BucketWeights.Medium == nil {
		p.BucketWeights.Medium = &def.Medium
	}
	if *p.BucketWeights.High < 0 || *p.BucketWeights.Medium < 0 {
		return fmt.Errorf("bucket_weights must not be negative")
	}

	if p.HHI.DeltaThreshold == 0 {
		p.HHI.DeltaThreshold = 200
	}
	if p.HHI.ConcentratedThreshold == 0 {
		p.HHI.ConcentratedThreshold = 1800
	}
	if p.HHI.DeltaThreshold < 0 || p.HHI.ConcentratedThreshold < 0 {
		return fmt.Errorf("hhi thresholds must be positive")
	}

	if p.Acquisition.TopMSAs == 0 {
		p.Acquisition.TopMSAs = 50
	}
	if p.Acquisition.MaxHaircutPct == 0 {
		p.Acquisition.MaxHaircutPct = 20
	}
	if p.Acquisition.TopMSAs < 0 {
		return fmt.Errorf("acquisition.top_msas must be positive")
	}
	if p.Acquisition.MaxHaircutPct < 0 || p.Acquisition.MaxHaircutPct > 100 {
		return fmt.Errorf("acquisition.max_haircut_pct must be within 0-100")
	}

	unit, err := models.ParseShareUnit(p.Market.ShareUnit)
	if err != nil {
		return fmt.Errorf("invalid market.share_unit: %w", err)
	}
	p.shareUnit = unit
	p.Market.ShareUnit = string(unit)
	return nil
}

// Weights returns the default flat weights
func (p *EngineProfile) Weights() models.Weights {
	out := make(models.Weights, len(p.weights))
	for k, v := range p.weights {
		out[k] = v
	}
	return out
}

// DefaultBucketWeights returns the bucket percentages
func (p *EngineProfile) DefaultBucketWeights() models.BucketWeights {
	return models.BucketWeights{High: *p.BucketWeights.High, Medium: *p.BucketWeights.Medium}
}

// ShareUnit returns the unit assumed for uploaded share columns and for
// shares sent inline in request bodies
func (p *EngineProfile) ShareUnit() models.ShareUnit {
	return p.shareUnit
}

// WithShareUnit returns a copy of the profile that assumes unit
func (p *EngineProfile) WithShareUnit(unit models.ShareUnit) *EngineProfile {
	cp := *p
	cp.shareUnit = unit
	cp.Market.ShareUnit = string(unit)
	return &cp
}
