package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// keyDelimiter separates nested config keys. Header aliases are map keys and
// often contain dots ("no. wa", "tgl. scan"), so "." cannot be the delimiter.
const keyDelimiter = "::"

func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
}

// key converts a dotted path such as "http.port" to a viper key.
func key(path string) string {
	return strings.ReplaceAll(path, ".", keyDelimiter)
}

func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	return load(v)
}

// LoadFile reads an explicit config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv(key("http.port"), "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv(key("redis.url"), "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv(key("events.url"), "NATS_URL", "APP_EVENTS_URL")
	v.BindEnv(key("app.environment"), "APP_ENVIRONMENT")
	v.BindEnv(key("logging.level"), "LOG_LEVEL", "APP_LOGGING_LEVEL")
	v.BindEnv(key("report.week_policy"), "WEEK_POLICY", "APP_REPORT_WEEK_POLICY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(key("app.name"), "outlet-kpi")
	v.SetDefault(key("app.version"), "v1.0.0")
	v.SetDefault(key("app.environment"), "development")

	v.SetDefault(key("http.port"), 8080)
	v.SetDefault(key("http.body_limit"), 32<<20)
	v.SetDefault(key("http.read_timeout"), 30*time.Second)
	v.SetDefault(key("http.write_timeout"), 60*time.Second)
	v.SetDefault(key("http.idle_timeout"), 120*time.Second)

	v.SetDefault(key("session.store"), "memory")
	v.SetDefault(key("session.ttl"), 2*time.Hour)
	v.SetDefault(key("session.cleanup_interval"), time.Minute)
	v.SetDefault(key("session.max_sessions"), 64)

	v.SetDefault(key("redis.url"), "redis://localhost:6379/0")
	v.SetDefault(key("redis.key_prefix"), "outlet-kpi:session:")
	v.SetDefault(key("redis.max_retries"), 3)
	v.SetDefault(key("redis.pool_size"), 10)
	v.SetDefault(key("redis.dial_timeout"), 5*time.Second)
	v.SetDefault(key("redis.read_timeout"), 3*time.Second)
	v.SetDefault(key("redis.write_timeout"), 3*time.Second)

	v.SetDefault(key("events.driver"), "none")
	v.SetDefault(key("events.subject"), "outlet-kpi.sessions")

	v.SetDefault(key("opentelemetry.enabled"), false)
	v.SetDefault(key("opentelemetry.exporter"), "stdout")
	v.SetDefault(key("opentelemetry.endpoint"), "localhost:4318")
	v.SetDefault(key("opentelemetry.insecure"), true)
	v.SetDefault(key("opentelemetry.sampler_ratio"), 1.0)
	v.SetDefault(key("opentelemetry.service_name"), "outlet-kpi")

	v.SetDefault(key("prometheus.enabled"), true)
	v.SetDefault(key("prometheus.path"), "/metrics")

	v.SetDefault(key("logging.level"), "info")
	v.SetDefault(key("logging.format"), "json")
	v.SetDefault(key("logging.output"), "stdout")

	v.SetDefault(key("circuit_breaker.enabled"), true)
	v.SetDefault(key("circuit_breaker.max_requests"), 3)
	v.SetDefault(key("circuit_breaker.interval"), 30*time.Second)
	v.SetDefault(key("circuit_breaker.timeout"), 10*time.Second)
	v.SetDefault(key("circuit_breaker.failure_threshold"), 0.6)
	v.SetDefault(key("circuit_breaker.min_requests"), 3)

	v.SetDefault(key("cors.enabled"), true)
	v.SetDefault(key("cors.allowed_origins"), []string{"*"})
	v.SetDefault(key("cors.allowed_methods"), []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault(key("cors.allowed_headers"), []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault(key("cors.expose_headers"), []string{"Content-Disposition"})
	v.SetDefault(key("cors.max_age"), 3600)

	v.SetDefault(key("limits.max_rows"), 500000)
	v.SetDefault(key("limits.max_upload_bytes"), 32<<20)

	v.SetDefault(key("report.week_policy"), "monday")
	v.SetDefault(key("report.group_by"), "dso")
	v.SetDefault(key("report.metric"), "percent_active")
	v.SetDefault(key("report.day_first"), false)
	v.SetDefault(key("report.registry_sheet"), "")
	v.SetDefault(key("report.scan_sheet"), "")
}

// Validate rejects option values the report pipeline cannot use.
func (c *Config) Validate() error {
	if _, err := domain.ParseWeekPolicy(c.Report.WeekPolicy); err != nil {
		return err
	}
	dims, err := domain.ParseDimensions(c.Report.GroupBy)
	if err != nil {
		return err
	}
	if len(dims) == 0 {
		return &domain.ConfigurationError{Field: "report.group_by", Reason: "at least one dimension is required"}
	}
	if _, err := domain.ParseMetric(c.Report.Metric); err != nil {
		return err
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return &domain.ConfigurationError{Field: "session.store", Value: c.Session.Store, Reason: `expected "memory" or "redis"`}
	}
	switch c.Events.Driver {
	case "none", "nats", "rabbitmq":
	default:
		return &domain.ConfigurationError{Field: "events.driver", Value: c.Events.Driver, Reason: `expected "none", "nats" or "rabbitmq"`}
	}
	switch c.OpenTelemetry.Exporter {
	case "stdout", "otlp":
	default:
		return &domain.ConfigurationError{Field: "opentelemetry.exporter", Value: c.OpenTelemetry.Exporter, Reason: `expected "stdout" or "otlp"`}
	}
	if c.Limits.MaxRows < 0 {
		return &domain.ConfigurationError{Field: "limits.max_rows", Value: fmt.Sprint(c.Limits.MaxRows), Reason: "must not be negative"}
	}
	return nil
}
