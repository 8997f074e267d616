package config

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig               `mapstructure:"app"`
	Camunda CamundaConfig           `mapstructure:"camunda"`
	Workers map[string]WorkerConfig `mapstructure:"workers"`
	Sources SourcesConfig           `mapstructure:"sources"`
	Compare CompareConfig           `mapstructure:"compare"`
	Logging LoggingConfig           `mapstructure:"logging"`
	Tracing TracingConfig           `mapstructure:"tracing"`
	Server  ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Price Sources ---

// SourcesConfig holds one section per delivery platform.
type SourcesConfig struct {
	Swiggy SourceConfig `mapstructure:"swiggy"`
	Zomato SourceConfig `mapstructure:"zomato"`
}

// SourceConfig describes how to reach one platform.
type SourceConfig struct {
	DisplayName string         `mapstructure:"display_name"`
	BaseURL     string         `mapstructure:"base_url"`
	UserAgent   string         `mapstructure:"user_agent"`
	Timeout     int            `mapstructure:"timeout"` // milliseconds, per attempt
	MaxAttempts int            `mapstructure:"max_attempts"`
	Backoff     int            `mapstructure:"backoff"` // milliseconds between attempts
	RateLimit   float64        `mapstructure:"rate_limit"`
	RateBurst   int            `mapstructure:"rate_burst"`
	ResultLimit int            `mapstructure:"result_limit"`
	Fallback    FallbackConfig `mapstructure:"fallback"`
}

// FallbackConfig drives the headless browser search used when the search API
// is exhausted. It is on unless enabled is explicitly false.
type FallbackConfig struct {
	Enabled     *bool  `mapstructure:"enabled"`
	BrowserBin  string `mapstructure:"browser_bin"` // empty lets the launcher download a browser
	ControlURL  string `mapstructure:"control_url"` // connect to a running browser instead of launching one
	Timeout     int    `mapstructure:"timeout"`     // milliseconds
	SettleDelay int    `mapstructure:"settle_delay"`
}

// IsEnabled reports whether the fallback should be attached.
func (f FallbackConfig) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// CompareConfig holds orchestration settings.
type CompareConfig struct {
	DefaultCity        string  `mapstructure:"default_city"`
	DefaultDish        string  `mapstructure:"default_dish"`
	RequestTimeout     int     `mapstructure:"request_timeout"` // milliseconds, 0 disables
	MaxConcurrentMenus int     `mapstructure:"max_concurrent_menus"`
	MatchCutoff        float64 `mapstructure:"match_cutoff"`
	ChartLabelLength   int     `mapstructure:"chart_label_length"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// TracingConfig enables span export to a Jaeger collector.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// ServerConfig holds the health/metrics listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}
