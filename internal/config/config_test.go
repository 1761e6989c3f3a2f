package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	config := Default()

	// Simulation defaults
	if config.Simulation.CohortA.PopulationSize != 1400 {
		t.Errorf("expected cohort A size 1400, got %d", config.Simulation.CohortA.PopulationSize)
	}
	if config.Simulation.CohortB.PopulationSize != 600 {
		t.Errorf("expected cohort B size 600, got %d", config.Simulation.CohortB.PopulationSize)
	}
	if config.Simulation.CohortA.Formula != "x^5.67" {
		t.Errorf("expected cohort A formula 'x^5.67', got '%s'", config.Simulation.CohortA.Formula)
	}
	if config.Simulation.CohortA.Label != "men" || config.Simulation.CohortB.Label != "women" {
		t.Errorf("unexpected labels %q/%q", config.Simulation.CohortA.Label, config.Simulation.CohortB.Label)
	}
	if config.Simulation.Seed != nil {
		t.Error("expected nil seed by default")
	}
	if config.Simulation.ReplenishSwipesDaily || config.Simulation.ClearLikesDaily {
		t.Error("expected day boundary flags to be false by default")
	}

	// Logging defaults
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}

	if config.Tracing.Enabled {
		t.Error("expected tracing disabled by default")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
simulation:
  cohort_a:
    label: men
    population_size: 50
    swipe_budget: 20
    formula: x^2
  days: 3
  seed: 42
  clear_likes_daily: true

plots:
  dir: ${SWIPESIM_TEST_PLOTS}/out
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("SWIPESIM_TEST_PLOTS", "/tmp/charts")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Simulation.CohortA.PopulationSize != 50 {
		t.Errorf("expected size 50, got %d", config.Simulation.CohortA.PopulationSize)
	}
	if config.Simulation.CohortA.Formula != "x^2" {
		t.Errorf("expected formula 'x^2', got '%s'", config.Simulation.CohortA.Formula)
	}
	if config.Simulation.Seed == nil || *config.Simulation.Seed != 42 {
		t.Errorf("expected seed 42, got %v", config.Simulation.Seed)
	}
	if config.Simulation.Days != 3 {
		t.Errorf("expected 3 days, got %d", config.Simulation.Days)
	}
	if !config.Simulation.ClearLikesDaily {
		t.Error("expected clear_likes_daily to be true")
	}
	// Unset sections keep their defaults.
	if config.Simulation.CohortB.PopulationSize != 600 {
		t.Errorf("expected default cohort B size 600, got %d", config.Simulation.CohortB.PopulationSize)
	}
	if config.Plots.Dir != "/tmp/charts/out" {
		t.Errorf("expected expanded plots dir, got '%s'", config.Plots.Dir)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("simulation: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoadReadsHomeConfigAndDotEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".swipesim"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".swipesim", "config.yaml"),
		[]byte("simulation:\n  days: 4\n"), 0600); err != nil {
		t.Fatal(err)
	}

	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, ".env"), []byte("SWIPESIM_WORKERS=3\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(work)
	// godotenv does not override variables that are already set.
	t.Setenv("SWIPESIM_WORKERS", "")
	os.Unsetenv("SWIPESIM_WORKERS")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Simulation.Days != 4 {
		t.Errorf("expected days 4 from home config, got %d", config.Simulation.Days)
	}
	if config.Simulation.Workers != 3 {
		t.Errorf("expected workers 3 from .env, got %d", config.Simulation.Workers)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SWIPESIM_FORMULA_A", "sqrt(x)")
	t.Setenv("SWIPESIM_SIZE_B", "12")
	t.Setenv("SWIPESIM_SEED", "7")
	t.Setenv("SWIPESIM_REPLENISH_SWIPES", "1")
	t.Setenv("SWIPESIM_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("SWIPESIM_LOG_LEVEL", "debug")
	t.Setenv("SWIPESIM_TRACING", "true")
	t.Setenv("SWIPESIM_DAYS", "not-a-number")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.CohortA.Formula != "sqrt(x)" {
		t.Errorf("expected formula override, got '%s'", config.Simulation.CohortA.Formula)
	}
	if config.Simulation.CohortB.PopulationSize != 12 {
		t.Errorf("expected size 12, got %d", config.Simulation.CohortB.PopulationSize)
	}
	if config.Simulation.Seed == nil || *config.Simulation.Seed != 7 {
		t.Errorf("expected seed 7, got %v", config.Simulation.Seed)
	}
	if !config.Simulation.ReplenishSwipesDaily {
		t.Error("expected replenish override")
	}
	if strings.Join(config.Server.AllowedOrigins, "|") != "http://a.test|http://b.test" {
		t.Errorf("unexpected origins %v", config.Server.AllowedOrigins)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got '%s'", config.Logging.Level)
	}
	if !config.Tracing.Enabled {
		t.Error("expected tracing enabled")
	}
	// Unparseable numbers leave the default in place.
	if config.Simulation.Days != 1 {
		t.Errorf("expected default days 1, got %d", config.Simulation.Days)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SwipesimConfig)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *SwipesimConfig) {},
		},
		{
			name:    "negative population",
			modify:  func(c *SwipesimConfig) { c.Simulation.CohortA.PopulationSize = -1 },
			wantErr: "cohort_a.population_size",
		},
		{
			name:    "negative swipe budget",
			modify:  func(c *SwipesimConfig) { c.Simulation.CohortB.SwipeBudget = -5 },
			wantErr: "cohort_b.swipe_budget",
		},
		{
			name:    "malformed formula",
			modify:  func(c *SwipesimConfig) { c.Simulation.CohortA.Formula = "x^" },
			wantErr: "cohort_a.formula",
		},
		{
			name: "duplicate labels",
			modify: func(c *SwipesimConfig) {
				c.Simulation.CohortB.Label = c.Simulation.CohortA.Label
			},
			wantErr: "labels must differ",
		},
		{
			name:    "zero bins",
			modify:  func(c *SwipesimConfig) { c.Simulation.Bins = 0 },
			wantErr: "bins",
		},
		{
			name:    "negative workers",
			modify:  func(c *SwipesimConfig) { c.Simulation.Workers = -2 },
			wantErr: "workers",
		},
		{
			name:    "burst missing with rate limit",
			modify:  func(c *SwipesimConfig) { c.Server.Burst = 0 },
			wantErr: "burst",
		},
		{
			name:    "tiny plot",
			modify:  func(c *SwipesimConfig) { c.Plots.Width = 10 },
			wantErr: "plot size",
		},
		{
			name:    "negative keep_runs",
			modify:  func(c *SwipesimConfig) { c.Plots.KeepRuns = -1 },
			wantErr: "keep_runs",
		},
		{
			name:    "bad max_age",
			modify:  func(c *SwipesimConfig) { c.Plots.MaxAge = "3y" },
			wantErr: "max_age",
		},
		{
			name:   "max_age in weeks",
			modify: func(c *SwipesimConfig) { c.Plots.MaxAge = "2w" },
		},
		{
			name:    "invalid log level",
			modify:  func(c *SwipesimConfig) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid log format",
			modify:  func(c *SwipesimConfig) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "invalid exporter",
			modify:  func(c *SwipesimConfig) { c.Tracing.Exporter = "zipkin" },
			wantErr: "invalid tracing exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SWIPESIM_TEST_VAR", "value")

	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"${SWIPESIM_TEST_VAR}", "value"},
		{"prefix-${SWIPESIM_TEST_VAR}-suffix", "prefix-value-suffix"},
		{"${SWIPESIM_UNSET_VAR}", ""},
	}

	for _, tt := range tests {
		if got := expandEnvVars(tt.input); got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"48h", 48 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"", 0, true},
		{"d", 0, true},
		{"3y", 0, true},
		{"xd", 0, true},
		{"-1d", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDuration(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
