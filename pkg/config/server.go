package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/benchdeck/benchdeck/pkg/validation"
)

// ServerConfig holds everything the panel server needs to run. Values come
// from defaults, then an optional YAML file, then BENCHDECK_* environment
// variables, strongest last.
type ServerConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	DataDir       string        `yaml:"data_dir"`
	ResultsDir    string        `yaml:"results_dir"`
	ConfigsDir    string        `yaml:"configs_dir"`
	LogLevel      string        `yaml:"log_level"`
	LogBufferSize int           `yaml:"log_buffer_size"`
	PollInterval  time.Duration `yaml:"poll_interval"`

	Benchmark BenchmarkConfig `yaml:"benchmark"`
	History   HistoryConfig   `yaml:"history"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Fanout    FanoutConfig    `yaml:"fanout"`
	Auth      AuthConfig      `yaml:"auth"`
	TLS       TLSConfig       `yaml:"tls"`
}

// BenchmarkConfig describes the external benchmark process.
type BenchmarkConfig struct {
	Command       string        `yaml:"command"`
	WorkDir       string        `yaml:"work_dir"`
	Timeout       time.Duration `yaml:"timeout"`        // 0 means no timeout
	MaxConcurrent int           `yaml:"max_concurrent"` // concurrent runs allowed
}

// HistoryConfig selects where finished runs are recorded.
type HistoryConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite or postgres
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// ArchiveConfig enables uploading run artifacts to S3.
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"` // custom endpoint for S3-compatible stores
}

// FanoutConfig enables publishing log entries to external subscribers.
type FanoutConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Transport string `yaml:"transport"` // nng or zmq
	Addr      string `yaml:"addr"`
}

// AuthConfig protects mutating endpoints with a shared password and JWTs.
type AuthConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PasswordHash string        `yaml:"password_hash"` // bcrypt hash
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// TLSConfig serves the panel over HTTPS. Without explicit cert and key
// files a self-signed certificate is kept under <DataDir>/certs.
type TLSConfig struct {
	Enabled      bool     `yaml:"enabled"`
	CertFile     string   `yaml:"cert_file"`
	KeyFile      string   `yaml:"key_file"`
	AutoGenerate bool     `yaml:"auto_generate"`
	Hosts        []string `yaml:"hosts"` // names on a generated certificate
}

// DefaultServerConfig returns the configuration used when nothing else is
// specified.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:          "0.0.0.0",
		Port:          8050,
		DataDir:       "./data/benchdeck",
		ResultsDir:    "results",
		ConfigsDir:    "configs",
		LogLevel:      "info",
		LogBufferSize: 10000,
		PollInterval:  time.Second,
		Benchmark: BenchmarkConfig{
			Command:       "runbench",
			MaxConcurrent: 1,
		},
		History: HistoryConfig{
			Driver: "sqlite",
		},
		Archive: ArchiveConfig{
			Prefix: "runs",
		},
		Fanout: FanoutConfig{
			Transport: "nng",
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
		TLS: TLSConfig{
			AutoGenerate: true,
			Hosts:        []string{"localhost", "127.0.0.1"},
		},
	}
}

// LoadServerConfig builds the effective config. A .env file in the working
// directory is applied to the environment first, then path (if non-empty)
// is read as YAML over the defaults, then environment variables override.
func LoadServerConfig(path string) (*ServerConfig, error) {
	// Missing .env is fine, it is a development convenience.
	_ = godotenv.Load()

	cfg := DefaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read server config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse server config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) applyEnv() {
	envString("BENCHDECK_HOST", &c.Host)
	envInt("BENCHDECK_PORT", &c.Port)
	envString("BENCHDECK_DATA_DIR", &c.DataDir)
	envString("BENCHDECK_RESULTS_DIR", &c.ResultsDir)
	envString("BENCHDECK_CONFIGS_DIR", &c.ConfigsDir)
	envString("BENCHDECK_LOG_LEVEL", &c.LogLevel)
	envInt("BENCHDECK_LOG_BUFFER_SIZE", &c.LogBufferSize)
	envDuration("BENCHDECK_POLL_INTERVAL", &c.PollInterval)

	envString("BENCHDECK_BENCH_COMMAND", &c.Benchmark.Command)
	envString("BENCHDECK_BENCH_WORKDIR", &c.Benchmark.WorkDir)
	envDuration("BENCHDECK_BENCH_TIMEOUT", &c.Benchmark.Timeout)
	envInt("BENCHDECK_BENCH_MAX_CONCURRENT", &c.Benchmark.MaxConcurrent)

	envString("BENCHDECK_HISTORY_DRIVER", &c.History.Driver)
	envString("BENCHDECK_HISTORY_DSN", &c.History.DSN)

	envBool("BENCHDECK_ARCHIVE_ENABLED", &c.Archive.Enabled)
	envString("BENCHDECK_ARCHIVE_BUCKET", &c.Archive.Bucket)
	envString("BENCHDECK_ARCHIVE_REGION", &c.Archive.Region)
	envString("BENCHDECK_ARCHIVE_PREFIX", &c.Archive.Prefix)
	envString("BENCHDECK_ARCHIVE_ENDPOINT", &c.Archive.Endpoint)

	envBool("BENCHDECK_FANOUT_ENABLED", &c.Fanout.Enabled)
	envString("BENCHDECK_FANOUT_TRANSPORT", &c.Fanout.Transport)
	envString("BENCHDECK_FANOUT_ADDR", &c.Fanout.Addr)

	envBool("BENCHDECK_AUTH_ENABLED", &c.Auth.Enabled)
	envString("BENCHDECK_AUTH_PASSWORD_HASH", &c.Auth.PasswordHash)
	envString("BENCHDECK_AUTH_JWT_SECRET", &c.Auth.JWTSecret)
	envDuration("BENCHDECK_AUTH_TOKEN_TTL", &c.Auth.TokenTTL)

	envBool("BENCHDECK_TLS_ENABLED", &c.TLS.Enabled)
	envString("BENCHDECK_TLS_CERT_FILE", &c.TLS.CertFile)
	envString("BENCHDECK_TLS_KEY_FILE", &c.TLS.KeyFile)
}

// Validate checks the configuration for values the server cannot start
// with. All violations are collected into one error.
func (c *ServerConfig) Validate() error {
	return validation.NewConfigValidator("ServerConfig").
		Required("Host", c.Host).
		RangeInt("Port", c.Port, 1, 65535).
		Required("DataDir", c.DataDir).
		Required("ResultsDir", c.ResultsDir).
		Required("ConfigsDir", c.ConfigsDir).
		OneOf("LogLevel", c.LogLevel, []string{"debug", "info", "warn", "error"}).
		Positive("LogBufferSize", c.LogBufferSize).
		MinDuration("PollInterval", c.PollInterval, 100*time.Millisecond).
		Required("Benchmark.Command", c.Benchmark.Command).
		Positive("Benchmark.MaxConcurrent", c.Benchmark.MaxConcurrent).
		MinDuration("Benchmark.Timeout", c.Benchmark.Timeout, 0).
		OneOf("History.Driver", c.History.Driver, []string{"memory", "sqlite", "postgres"}).
		When(c.History.Driver == "postgres", func(cv *validation.ConfigValidator) {
			cv.Required("History.DSN", c.History.DSN)
		}).
		When(c.Archive.Enabled, func(cv *validation.ConfigValidator) {
			cv.Required("Archive.Bucket", c.Archive.Bucket)
			cv.Required("Archive.Region", c.Archive.Region)
		}).
		When(c.Fanout.Enabled, func(cv *validation.ConfigValidator) {
			cv.OneOf("Fanout.Transport", c.Fanout.Transport, []string{"nng", "zmq"})
			cv.Required("Fanout.Addr", c.Fanout.Addr)
		}).
		When(c.Auth.Enabled, func(cv *validation.ConfigValidator) {
			cv.Required("Auth.PasswordHash", c.Auth.PasswordHash)
			cv.Required("Auth.JWTSecret", c.Auth.JWTSecret)
			cv.RequiredDuration("Auth.TokenTTL", c.Auth.TokenTTL)
		}).
		When(c.TLS.Enabled && !c.TLS.AutoGenerate, func(cv *validation.ConfigValidator) {
			cv.Required("TLS.CertFile", c.TLS.CertFile)
			cv.Required("TLS.KeyFile", c.TLS.KeyFile)
		}).
		Validate()
}

// Addr returns the host:port the server listens on.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ResultsPath returns the absolute-or-as-given results directory. Relative
// names live under DataDir.
func (c *ServerConfig) ResultsPath() string {
	return c.resolve(c.ResultsDir)
}

// ConfigsPath returns the saved-configurations directory, resolved the
// same way as ResultsPath.
func (c *ServerConfig) ConfigsPath() string {
	return c.resolve(c.ConfigsDir)
}

func (c *ServerConfig) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.DataDir, dir)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
