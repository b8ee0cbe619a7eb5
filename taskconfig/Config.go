// Package taskconfig loads task configurations: which features are
// active, their normalization ranges and initial weights, the scene's
// object centers, and the hyperparameters of any learned features.
// Configurations are YAML files so a task can be described without
// recompiling.
package taskconfig

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
	G "gorgonia.org/gorgonia"

	"github.com/armlearn/armfeat/feature"
	"github.com/armlearn/armfeat/initwfn"
	"github.com/armlearn/armfeat/robot"
)

// LearnedFeatureConfig configures one learned feature appended to the
// registry after construction. Checkpoint optionally names a trained
// model file to load in place of a blank approximator; Init selects
// the weight initialization scheme for a blank one and defaults to
// Glorot uniform.
type LearnedFeatureConfig struct {
	Layers     int              `yaml:"layers"`
	Units      int              `yaml:"units"`
	Checkpoint string           `yaml:"checkpoint"`
	Init       *initwfn.InitWFn `yaml:"init"`
}

// Config is a complete task configuration.
//
// Features lists the active feature names in evaluation order. Ranges
// holds one normalization divisor per feature, with 0 disabling
// normalization for that feature; an empty list disables it for all.
// Weights holds the initial feature weights and defaults to zeros.
// ObjectCenters maps scene object names to world-frame coordinates.
type Config struct {
	Features        []string               `yaml:"features"`
	Ranges          []float64              `yaml:"ranges"`
	Weights         []float64              `yaml:"weights"`
	ObjectCenters   map[string][]float64   `yaml:"object_centers"`
	LearnedFeatures []LearnedFeatureConfig `yaml:"learned_features"`
}

// Load reads and validates a task configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML task configuration.
func Parse(data []byte) (*Config, error) {
	config := new(Config)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse: could not decode configuration: %v",
			err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for shape errors before any
// registry is built from it.
func (c *Config) Validate() error {
	if len(c.Features) == 0 {
		return fmt.Errorf("validate: no features configured")
	}
	for _, name := range c.Features {
		kind, err := feature.KindOf(name)
		if err != nil {
			return fmt.Errorf("validate: %v", err)
		}
		if kind == feature.Learned {
			return fmt.Errorf("validate: configure learned features under " +
				"learned_features, not in the feature list")
		}
	}

	if len(c.Ranges) != 0 && len(c.Ranges) != len(c.Features) {
		return fmt.Errorf("validate: have %v features but %v ranges",
			len(c.Features), len(c.Ranges))
	}
	if len(c.Weights) != 0 && len(c.Weights) != len(c.Features) {
		return fmt.Errorf("validate: have %v features but %v weights",
			len(c.Features), len(c.Weights))
	}

	for name, coord := range c.ObjectCenters {
		if len(coord) != 3 {
			return fmt.Errorf("validate: object center %q has %v "+
				"coordinates, want 3", name, len(coord))
		}
	}

	for i, lf := range c.LearnedFeatures {
		if lf.Layers < 1 || lf.Units < 1 {
			return fmt.Errorf("validate: learned feature %v needs at least "+
				"1 layer and 1 unit, got (%v, %v)", i, lf.Layers, lf.Units)
		}
		if lf.Init != nil {
			if _, err := lf.Init.Create(); err != nil {
				return fmt.Errorf("validate: learned feature %v: %v", i, err)
			}
		}
	}

	return nil
}

// Centers converts the configured object centers into the form the
// feature package consumes.
func (c *Config) Centers() feature.ObjectCenters {
	centers := make(feature.ObjectCenters, len(c.ObjectCenters))
	for name, coord := range c.ObjectCenters {
		centers[name] = mat.NewVecDense(3, append([]float64{}, coord...))
	}
	return centers
}

// Registry builds a feature registry for this configuration, backed
// by a fresh analytic arm, and appends any configured learned
// features.
func (c *Config) Registry() (*feature.Registry, error) {
	kinds := make([]feature.Kind, len(c.Features))
	for i, name := range c.Features {
		kind, err := feature.KindOf(name)
		if err != nil {
			return nil, fmt.Errorf("registry: %v", err)
		}
		kinds[i] = kind
	}

	weights := c.Weights
	if len(weights) == 0 {
		weights = make([]float64, len(kinds))
	}
	ranges := c.Ranges
	if len(ranges) == 0 {
		ranges = nil
	}

	reg, err := feature.NewRegistry(robot.NewArm(), c.Centers(), kinds,
		ranges, weights)
	if err != nil {
		return nil, fmt.Errorf("registry: %v", err)
	}

	for i, lf := range c.LearnedFeatures {
		var init G.InitWFn
		if lf.Init != nil {
			init, err = lf.Init.Create()
			if err != nil {
				return nil, fmt.Errorf("registry: learned feature %v: %v", i,
					err)
			}
		}
		if _, err := reg.NewLearnedFeature(lf.Layers, lf.Units, init,
			lf.Checkpoint); err != nil {
			return nil, fmt.Errorf("registry: learned feature %v: %v", i, err)
		}
	}

	return reg, nil
}
