// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Sharing model names accepted by sharing.model.
const (
	ModelNone      = "none"
	ModelFair      = "fair"
	ModelDominance = "dominance"
	ModelFatBody   = "fatbody"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
// A run copies it by value; nothing in it is mutated once a colony exists.
type Config struct {
	Colony     ColonyConfig     `yaml:"colony"`
	Energy     EnergyConfig     `yaml:"energy"`
	Threshold  ThresholdConfig  `yaml:"threshold"`
	Foraging   ForagingConfig   `yaml:"foraging"`
	Sharing    SharingConfig    `yaml:"sharing"`
	Statistics StatisticsConfig `yaml:"statistics"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Output     OutputConfig     `yaml:"output"`
}

// ColonyConfig holds run-level parameters.
type ColonyConfig struct {
	Size           int     `yaml:"size"`            // Number of agents
	SimulationTime float64 `yaml:"simulation_time"` // Horizon of the event loop
	Seed           uint64  `yaml:"seed"`            // Base RNG seed (0 = time-based)
	Replicates     int     `yaml:"replicates"`      // Independent runs per invocation
	Workers        int     `yaml:"workers"`         // Replicates run concurrently (0 = 1)
}

// EnergyConfig holds fat body, crop and metabolic parameters.
type EnergyConfig struct {
	InitFatBody               float64 `yaml:"init_fat_body"`
	MaxFatBody                float64 `yaml:"max_fat_body"`
	MaxCropSize               float64 `yaml:"max_crop_size"`
	MetabolicCostNurses       float64 `yaml:"metabolic_cost_nurses"`
	MetabolicCostForagers     float64 `yaml:"metabolic_cost_foragers"`
	MetabolicCostFoodHandling float64 `yaml:"metabolic_cost_food_handling"`
	ProportionFatBodyForager  float64 `yaml:"proportion_fat_body_forager"` // Fraction of a trip's yield a forager keeps before sharing
}

// ThresholdConfig parameterizes the bounded-normal nursing threshold.
type ThresholdConfig struct {
	Mean float64 `yaml:"mean"`
	SD   float64 `yaml:"sd"`
}

// ForagingConfig holds trip and handling durations.
type ForagingConfig struct {
	ResourceAmount   float64 `yaml:"resource_amount"` // Crop load per foraging trip
	ForagingTime     float64 `yaml:"foraging_time"`
	FoodHandlingTime float64 `yaml:"food_handling_time"`
}

// SharingConfig selects and tunes the resource-sharing model.
type SharingConfig struct {
	Model           string  `yaml:"model"`     // none, fair, dominance, fatbody
	Steepness       float64 `yaml:"steepness"` // Softmax steepness
	MaxInteractions int     `yaml:"max_interactions"`
}

// StatisticsConfig controls the DoL windows.
type StatisticsConfig struct {
	Burnin     float64 `yaml:"burnin"`      // Fraction of the horizon excluded from the summary window
	WindowSize float64 `yaml:"window_size"` // Sliding window length (0 = off)
	WindowStep float64 `yaml:"window_step"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Sim time per WindowStats record (0 = off)
	Perf        bool    `yaml:"perf"`         // Time scheduler phases
	PerfWindow  int     `yaml:"perf_window"`  // Events averaged by the perf collector
}

// OutputConfig controls where results go.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	WriteHistory bool   `yaml:"write_history"` // Write the per-agent ants table
	Database     string `yaml:"database"`      // SQLite archive path (empty = off)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the record describes a runnable colony.
func (c *Config) Validate() error {
	switch c.Sharing.Model {
	case ModelNone, ModelFair, ModelDominance, ModelFatBody:
	default:
		return fmt.Errorf("%w: unknown sharing model %q", ErrInvalid, c.Sharing.Model)
	}

	checks := []struct {
		ok  bool
		msg string
	}{
		{c.Colony.Size > 0, "colony.size must be positive"},
		{c.Colony.SimulationTime > 0, "colony.simulation_time must be positive"},
		{c.Colony.Replicates >= 0, "colony.replicates must not be negative"},
		{c.Energy.MaxFatBody > 0, "energy.max_fat_body must be positive"},
		{c.Energy.InitFatBody >= 0 && c.Energy.InitFatBody <= c.Energy.MaxFatBody,
			"energy.init_fat_body must lie in [0, max_fat_body]"},
		{c.Energy.MaxCropSize >= 0, "energy.max_crop_size must not be negative"},
		{c.Energy.MetabolicCostNurses >= 0 && c.Energy.MetabolicCostForagers >= 0 &&
			c.Energy.MetabolicCostFoodHandling >= 0, "metabolic costs must not be negative"},
		{c.Energy.ProportionFatBodyForager >= 0 && c.Energy.ProportionFatBodyForager <= 1,
			"energy.proportion_fat_body_forager must lie in [0, 1]"},
		{c.Threshold.SD >= 0, "threshold.sd must not be negative"},
		// a bounded normal with a deeply negative mean would resample forever
		{c.Threshold.Mean+4*c.Threshold.SD > 0, "threshold distribution has no usable positive mass"},
		{c.Foraging.ResourceAmount >= 0, "foraging.resource_amount must not be negative"},
		// a zero-length trip reschedules a forager at the moment it returns,
		// so a trip that cannot lift it off the threshold would never advance the clock
		{c.Foraging.ForagingTime > 0, "foraging.foraging_time must be positive"},
		{c.Foraging.FoodHandlingTime >= 0, "foraging.food_handling_time must not be negative"},
		{c.Sharing.MaxInteractions >= 0, "sharing.max_interactions must not be negative"},
		{c.Statistics.Burnin >= 0 && c.Statistics.Burnin < 1, "statistics.burnin must lie in [0, 1)"},
		{c.Statistics.WindowSize == 0 || c.Statistics.WindowStep > 0,
			"statistics.window_step must be positive when window_size is set"},
		{c.Telemetry.StatsWindow >= 0, "telemetry.stats_window must not be negative"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", ErrInvalid, chk.msg)
		}
	}
	return nil
}

// MetabolicRates returns the per-task burn rates indexed Nurse, Forage, FoodHandling.
func (c *Config) MetabolicRates() [3]float64 {
	return [3]float64{
		c.Energy.MetabolicCostNurses,
		c.Energy.MetabolicCostForagers,
		c.Energy.MetabolicCostFoodHandling,
	}
}

// YAML returns the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
