package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Colony.Size != 100 {
		t.Errorf("colony.size = %d, want 100", cfg.Colony.Size)
	}
	if cfg.Sharing.Model != ModelFair {
		t.Errorf("sharing.model = %q, want %q", cfg.Sharing.Model, ModelFair)
	}
	if cfg.Energy.MaxFatBody != 12 {
		t.Errorf("energy.max_fat_body = %v, want 12", cfg.Energy.MaxFatBody)
	}
}

func TestLoadOverlaysOnlyPresentKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	body := "sharing:\n  model: dominance\n  steepness: 4\ncolony:\n  size: 20\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Sharing.Model != ModelDominance || cfg.Sharing.Steepness != 4 {
		t.Errorf("sharing = %+v, want dominance/4", cfg.Sharing)
	}
	if cfg.Colony.Size != 20 {
		t.Errorf("colony.size = %d, want 20", cfg.Colony.Size)
	}
	// untouched keys keep their defaults
	if cfg.Sharing.MaxInteractions != 3 {
		t.Errorf("sharing.max_interactions = %d, want default 3", cfg.Sharing.MaxInteractions)
	}
	if cfg.Foraging.ForagingTime != 5 {
		t.Errorf("foraging.foraging_time = %v, want default 5", cfg.Foraging.ForagingTime)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown model", func(c *Config) { c.Sharing.Model = "random" }},
		{"empty colony", func(c *Config) { c.Colony.Size = 0 }},
		{"zero horizon", func(c *Config) { c.Colony.SimulationTime = 0 }},
		{"init above max", func(c *Config) { c.Energy.InitFatBody = c.Energy.MaxFatBody + 1 }},
		{"negative cost", func(c *Config) { c.Energy.MetabolicCostForagers = -1 }},
		{"bad burnin", func(c *Config) { c.Statistics.Burnin = 1 }},
		{"window without step", func(c *Config) { c.Statistics.WindowSize = 100; c.Statistics.WindowStep = 0 }},
		{"zero-length trip", func(c *Config) { c.Foraging.ForagingTime = 0 }},
		{"zero trip and handling", func(c *Config) { c.Foraging.ForagingTime = 0; c.Foraging.FoodHandlingTime = 0 }},
		{"negative handling", func(c *Config) { c.Foraging.FoodHandlingTime = -1 }},
		{"hopeless threshold", func(c *Config) { c.Threshold.Mean = -50; c.Threshold.SD = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Sharing.Model = ModelFatBody
	cfg.Colony.Seed = 77

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, *cfg)
	}
}

func TestMetabolicRates(t *testing.T) {
	cfg := Default()
	cfg.Energy.MetabolicCostNurses = 0.1
	cfg.Energy.MetabolicCostForagers = 0.2
	cfg.Energy.MetabolicCostFoodHandling = 0.3
	got := cfg.MetabolicRates()
	want := [3]float64{0.1, 0.2, 0.3}
	if got != want {
		t.Errorf("MetabolicRates() = %v, want %v", got, want)
	}
}
