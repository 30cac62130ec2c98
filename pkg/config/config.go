package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Session        SessionConfig        `mapstructure:"session"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Events         EventsConfig         `mapstructure:"events"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
	Limits         LimitsConfig         `mapstructure:"limits"`
	Report         ReportConfig         `mapstructure:"report"`
	Headers        HeadersConfig        `mapstructure:"headers"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	BodyLimit    int           `mapstructure:"body_limit"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// SessionConfig selects where upload sessions live and for how long.
type SessionConfig struct {
	Store string        `mapstructure:"store"`
	TTL   time.Duration `mapstructure:"ttl"`
	// CleanupInterval and MaxSessions apply to the memory store only.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxSessions     int           `mapstructure:"max_sessions"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// EventsConfig selects the broker session events are published to.
type EventsConfig struct {
	Driver  string `mapstructure:"driver"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type OpenTelemetryConfig struct {
	Enabled      bool              `mapstructure:"enabled"`
	Exporter     string            `mapstructure:"exporter"`
	Endpoint     string            `mapstructure:"endpoint"`
	Insecure     bool              `mapstructure:"insecure"`
	SamplerRatio float64           `mapstructure:"sampler_ratio"`
	ServiceName  string            `mapstructure:"service_name"`
	Attributes   map[string]string `mapstructure:"attributes"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level    string          `mapstructure:"level"`
	Format   string          `mapstructure:"format"`
	Output   string          `mapstructure:"output"`
	Sampling LoggingSampling `mapstructure:"sampling"`
}

type LoggingSampling struct {
	Enabled    bool `mapstructure:"enabled"`
	Initial    int  `mapstructure:"initial"`
	Thereafter int  `mapstructure:"thereafter"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      int           `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	MinRequests      int           `mapstructure:"min_requests"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}

// LimitsConfig bounds what a single upload may contain.
type LimitsConfig struct {
	MaxRows        int `mapstructure:"max_rows"`
	MaxUploadBytes int `mapstructure:"max_upload_bytes"`
}

// ReportConfig holds the computation defaults used when a request leaves
// them out.
type ReportConfig struct {
	WeekPolicy    string `mapstructure:"week_policy"`
	GroupBy       string `mapstructure:"group_by"`
	Metric        string `mapstructure:"metric"`
	DayFirst      bool   `mapstructure:"day_first"`
	RegistrySheet string `mapstructure:"registry_sheet"`
	ScanSheet     string `mapstructure:"scan_sheet"`
}

// HeadersConfig adds header spellings, alias -> canonical field, per table.
type HeadersConfig struct {
	Registry map[string]string `mapstructure:"registry"`
	ScanLog  map[string]string `mapstructure:"scan_log"`
}
