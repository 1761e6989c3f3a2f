// Package config provides unified configuration loading for swipesim.
// It supports loading from YAML files, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/swipesim/internal/constants"
	"github.com/nvandessel/swipesim/internal/formula"
)

// SwipesimConfig contains all swipesim configuration settings.
type SwipesimConfig struct {
	// Simulation holds the default run parameters.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Server configures the HTTP front end.
	Server ServerConfig `json:"server" yaml:"server"`

	// Plots configures chart rendering.
	Plots PlotsConfig `json:"plots" yaml:"plots"`

	// Logging contains settings for operational and per-day event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Tracing configures OpenTelemetry spans.
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

// CohortConfig describes one side of the market.
type CohortConfig struct {
	// Label names the cohort in flat report keys, e.g. "men".
	Label string `json:"label" yaml:"label"`

	PopulationSize int `json:"population_size" yaml:"population_size"`

	// SwipeBudget is the number of profiles each agent may view per day.
	SwipeBudget int `json:"swipe_budget" yaml:"swipe_budget"`

	// Formula maps attractiveness x in [0,1] to the probability of being liked.
	Formula string `json:"formula" yaml:"formula"`
}

// SimulationConfig holds default run parameters.
type SimulationConfig struct {
	CohortA CohortConfig `json:"cohort_a" yaml:"cohort_a"`
	CohortB CohortConfig `json:"cohort_b" yaml:"cohort_b"`

	// Days is the number of consecutive days per run.
	Days int `json:"days" yaml:"days"`

	// Seed fixes the random stream. Nil picks a fresh seed per run.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Bins is the number of attractiveness percentile buckets in reports.
	Bins int `json:"bins" yaml:"bins"`

	// Workers > 1 decides each day in parallel.
	Workers int `json:"workers" yaml:"workers"`

	// ReplenishSwipesDaily restores budgets between days of one run.
	ReplenishSwipesDaily bool `json:"replenish_swipes_daily" yaml:"replenish_swipes_daily"`

	// ClearLikesDaily empties like sets between days of one run.
	ClearLikesDaily bool `json:"clear_likes_daily" yaml:"clear_likes_daily"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address. Port 0 lets the OS pick.
	Addr string `json:"addr" yaml:"addr"`

	// AllowedOrigins lists CORS origins for the browser front end.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// RatePerMinute limits simulation requests per client. 0 disables limiting.
	RatePerMinute float64 `json:"rate_per_minute" yaml:"rate_per_minute"`

	// Burst is the number of requests a client may make at once.
	Burst int `json:"burst" yaml:"burst"`
}

// PlotsConfig configures chart rendering.
type PlotsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir" yaml:"dir"`
	Width   int    `json:"width" yaml:"width"`
	Height  int    `json:"height" yaml:"height"`

	// KeepRuns is how many runs' charts the server keeps. 0 keeps all.
	KeepRuns int `json:"keep_runs" yaml:"keep_runs"`

	// MaxAge drops charts older than this, e.g. "7d", "2w", "48h". Empty keeps all.
	MaxAge string `json:"max_age" yaml:"max_age"`
}

// LoggingConfig configures swipesim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the per-day event log (days.jsonl in Dir).
	Level string `json:"level" yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format"`

	// Dir holds the per-day event log.
	Dir string `json:"dir" yaml:"dir"`
}

// TracingConfig configures OpenTelemetry.
type TracingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Exporter is "stdout", "noop", or "" (noop).
	Exporter string `json:"exporter" yaml:"exporter"`
}

// Default returns a SwipesimConfig with sensible defaults.
func Default() *SwipesimConfig {
	return &SwipesimConfig{
		Simulation: SimulationConfig{
			CohortA: CohortConfig{
				Label:          constants.DefaultLabelA,
				PopulationSize: constants.DefaultPopulationSizeA,
				SwipeBudget:    constants.DefaultSwipeBudget,
				Formula:        constants.DefaultFormulaA,
			},
			CohortB: CohortConfig{
				Label:          constants.DefaultLabelB,
				PopulationSize: constants.DefaultPopulationSizeB,
				SwipeBudget:    constants.DefaultSwipeBudget,
				Formula:        constants.DefaultFormulaB,
			},
			Days:    constants.DefaultDays,
			Bins:    constants.DefaultBins,
			Workers: 1,
		},
		Server: ServerConfig{
			Addr:           "localhost:8080",
			AllowedOrigins: []string{"http://localhost:8080", "http://localhost:5173"},
			RatePerMinute:  30,
			Burst:          5,
		},
		Plots: PlotsConfig{
			Enabled: true,
			Dir:     "plots",
			Width:   constants.DefaultPlotWidth,
			Height:  constants.DefaultPlotHeight,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    ".swipesim",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.swipesim/config.yaml -> .env -> environment variables
func Load() (*SwipesimConfig, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".swipesim", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// A missing .env is normal; anything else is worth reporting.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*SwipesimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Plots.Dir = expandEnvVars(config.Plots.Dir)
	config.Logging.Dir = expandEnvVars(config.Logging.Dir)

	return config, nil
}

// Validate checks that the configuration is valid. Formulas are compiled
// so that a bad expression is reported before any run starts.
func (c *SwipesimConfig) Validate() error {
	for _, cohort := range []struct {
		name string
		cfg  CohortConfig
	}{{"cohort_a", c.Simulation.CohortA}, {"cohort_b", c.Simulation.CohortB}} {
		if cohort.cfg.PopulationSize < 0 {
			return fmt.Errorf("%s.population_size must be non-negative, got %d", cohort.name, cohort.cfg.PopulationSize)
		}
		if cohort.cfg.SwipeBudget < 0 {
			return fmt.Errorf("%s.swipe_budget must be non-negative, got %d", cohort.name, cohort.cfg.SwipeBudget)
		}
		if _, err := formula.Compile(cohort.cfg.Formula); err != nil {
			return fmt.Errorf("%s.formula: %w", cohort.name, err)
		}
		if cohort.cfg.Label == "" {
			return fmt.Errorf("%s.label must not be empty", cohort.name)
		}
	}
	if c.Simulation.CohortA.Label == c.Simulation.CohortB.Label {
		return fmt.Errorf("cohort labels must differ, both are %q", c.Simulation.CohortA.Label)
	}

	if c.Simulation.Days < 0 {
		return fmt.Errorf("days must be non-negative, got %d", c.Simulation.Days)
	}
	if c.Simulation.Bins < 1 || c.Simulation.Bins > constants.MaxBins {
		return fmt.Errorf("bins must be between 1 and %d, got %d", constants.MaxBins, c.Simulation.Bins)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Simulation.Workers)
	}

	if c.Server.RatePerMinute < 0 {
		return fmt.Errorf("rate_per_minute must be non-negative, got %v", c.Server.RatePerMinute)
	}
	if c.Server.RatePerMinute > 0 && c.Server.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when rate limiting is enabled, got %d", c.Server.Burst)
	}

	if c.Plots.Width < 200 || c.Plots.Height < 150 {
		return fmt.Errorf("plot size must be at least 200x150, got %dx%d", c.Plots.Width, c.Plots.Height)
	}
	if c.Plots.KeepRuns < 0 {
		return fmt.Errorf("plots.keep_runs must be non-negative, got %d", c.Plots.KeepRuns)
	}
	if c.Plots.MaxAge != "" {
		if _, err := ParseDuration(c.Plots.MaxAge); err != nil {
			return fmt.Errorf("plots.max_age: %w", err)
		}
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	validFormats := map[string]bool{"": true, "text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	validExporters := map[string]bool{"": true, "stdout": true, "noop": true}
	if !validExporters[c.Tracing.Exporter] {
		return fmt.Errorf("invalid tracing exporter: %s (valid: stdout, noop)", c.Tracing.Exporter)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *SwipesimConfig) {
	sim := &config.Simulation

	if v := os.Getenv("SWIPESIM_FORMULA_A"); v != "" {
		sim.CohortA.Formula = v
	}
	if v := os.Getenv("SWIPESIM_FORMULA_B"); v != "" {
		sim.CohortB.Formula = v
	}
	setInt("SWIPESIM_SIZE_A", &sim.CohortA.PopulationSize)
	setInt("SWIPESIM_SIZE_B", &sim.CohortB.PopulationSize)
	setInt("SWIPESIM_SWIPES_A", &sim.CohortA.SwipeBudget)
	setInt("SWIPESIM_SWIPES_B", &sim.CohortB.SwipeBudget)
	setInt("SWIPESIM_DAYS", &sim.Days)
	setInt("SWIPESIM_BINS", &sim.Bins)
	setInt("SWIPESIM_WORKERS", &sim.Workers)

	if v := os.Getenv("SWIPESIM_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			sim.Seed = &n
		}
	}
	if v := os.Getenv("SWIPESIM_REPLENISH_SWIPES"); v != "" {
		sim.ReplenishSwipesDaily = v == "true" || v == "1"
	}
	if v := os.Getenv("SWIPESIM_CLEAR_LIKES"); v != "" {
		sim.ClearLikesDaily = v == "true" || v == "1"
	}

	if v := os.Getenv("SWIPESIM_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv("SWIPESIM_ALLOWED_ORIGINS"); v != "" {
		config.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SWIPESIM_RATE_PER_MINUTE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Server.RatePerMinute = f
		}
	}

	if v := os.Getenv("SWIPESIM_PLOTS_DIR"); v != "" {
		config.Plots.Dir = expandEnvVars(v)
	}
	if v := os.Getenv("SWIPESIM_PLOTS"); v != "" {
		config.Plots.Enabled = v == "true" || v == "1"
	}
	setInt("SWIPESIM_PLOTS_KEEP_RUNS", &config.Plots.KeepRuns)
	if v := os.Getenv("SWIPESIM_PLOTS_MAX_AGE"); v != "" {
		config.Plots.MaxAge = v
	}

	if v := os.Getenv("SWIPESIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SWIPESIM_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}

	if v := os.Getenv("SWIPESIM_TRACING"); v != "" {
		config.Tracing.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SWIPESIM_TRACING_EXPORTER"); v != "" {
		config.Tracing.Exporter = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

// ParseDuration parses duration strings like "30d", "2w", "720h".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// Custom suffixes: d (days), w (weeks)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", string(suffix), s)
	}
}
