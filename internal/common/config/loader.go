package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultCity = "mumbai"
	DefaultDish = "Butter Chicken"

	// MaxResultLimit caps how many search results a source may return.
	MaxResultLimit = 5

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

// Default returns a configuration built purely from defaults, for tools that
// run without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests in test/e2e/
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "dishprice-workers"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	applySourceDefaults(&cfg.Sources.Swiggy, "Swiggy", "https://www.swiggy.com")
	applySourceDefaults(&cfg.Sources.Zomato, "Zomato", "https://www.zomato.com")

	// Compare defaults
	if cfg.Compare.DefaultCity == "" {
		cfg.Compare.DefaultCity = DefaultCity
	}
	if cfg.Compare.DefaultDish == "" {
		cfg.Compare.DefaultDish = DefaultDish
	}
	if cfg.Compare.MaxConcurrentMenus == 0 {
		cfg.Compare.MaxConcurrentMenus = 5
	}
	if cfg.Compare.MatchCutoff == 0 {
		cfg.Compare.MatchCutoff = 0.6
	}
	if cfg.Compare.ChartLabelLength == 0 {
		cfg.Compare.ChartLabelLength = 20
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = cfg.App.Name
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func applySourceDefaults(src *SourceConfig, name, baseURL string) {
	if src.DisplayName == "" {
		src.DisplayName = name
	}
	if src.BaseURL == "" {
		src.BaseURL = baseURL
	}
	src.BaseURL = strings.TrimRight(src.BaseURL, "/")
	if src.UserAgent == "" {
		src.UserAgent = defaultUserAgent
	}
	if src.Timeout == 0 {
		src.Timeout = 5000
	}
	if src.MaxAttempts == 0 {
		src.MaxAttempts = 2
	}
	if src.Backoff == 0 {
		src.Backoff = 1000
	}
	if src.ResultLimit == 0 {
		src.ResultLimit = 5
	}
	if src.RateBurst == 0 {
		src.RateBurst = 1
	}
	if src.Fallback.Timeout == 0 {
		src.Fallback.Timeout = 20000
	}
	if src.Fallback.SettleDelay == 0 {
		src.Fallback.SettleDelay = 1500
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	for name, src := range map[string]SourceConfig{"swiggy": cfg.Sources.Swiggy, "zomato": cfg.Sources.Zomato} {
		if _, err := url.ParseRequestURI(src.BaseURL); err != nil {
			return fmt.Errorf("sources.%s.base_url is invalid: %w", name, err)
		}
		if src.MaxAttempts < 1 {
			return fmt.Errorf("sources.%s.max_attempts must be at least 1", name)
		}
		if src.Backoff < 0 || src.Timeout < 0 {
			return fmt.Errorf("sources.%s timings must not be negative", name)
		}
		if src.ResultLimit < 0 || src.ResultLimit > MaxResultLimit {
			return fmt.Errorf("sources.%s.result_limit must be within [1, %d]", name, MaxResultLimit)
		}
	}

	if cfg.Compare.MatchCutoff < 0 || cfg.Compare.MatchCutoff > 1 {
		return fmt.Errorf("compare.match_cutoff must be within [0, 1]")
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
