package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// Every field can be set from the YAML file or overridden by its env variable.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's default log level when set
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// Source describes where the upstream dnsmasq list is downloaded from
	Source struct {
		// URL of the list; a file:// URL reads a local mirror instead
		URL string `env:"SOURCE_URL" env-default:"https://raw.githubusercontent.com/felixonmars/dnsmasq-china-list/master/accelerated-domains.china.conf" yaml:"url"` //nolint: lll
		// Timeout bounds the whole download
		Timeout time.Duration `env:"SOURCE_TIMEOUT" env-default:"60s" yaml:"timeout"`
		// UserAgent is sent with the download request
		UserAgent string `env:"SOURCE_USER_AGENT" env-default:"geosite/1.0" yaml:"userAgent"`
	} `yaml:"source"`

	// Output contains the artifact layout and validation thresholds
	Output struct {
		// Dir holds both artifacts
		Dir string `env:"OUTPUT_DIR" env-default:"./rule-set" yaml:"dir"`
		// TextName is the JSON rule-set file name
		TextName string `env:"OUTPUT_TEXT_NAME" env-default:"geosite-direct.json" yaml:"textName"`
		// BinaryName is the compiled rule-set file name
		BinaryName string `env:"OUTPUT_BINARY_NAME" env-default:"geosite-direct.srs" yaml:"binaryName"`
		// Mode is "always" (rewrite and recompile every run) or "on-change"
		Mode string `env:"OUTPUT_MODE" env-default:"always" yaml:"mode"`
		// MinTextSize is the size in bytes the JSON artifact must exceed
		MinTextSize int64 `env:"OUTPUT_MIN_TEXT_SIZE" env-default:"1000" yaml:"minTextSize"`
		// MinBinarySize is the size in bytes the compiled artifact must exceed
		MinBinarySize int64 `env:"OUTPUT_MIN_BINARY_SIZE" env-default:"100" yaml:"minBinarySize"`
		// ExtraDomains are added to the built-in reserved suffixes
		ExtraDomains []string `env:"OUTPUT_EXTRA_DOMAINS" env-separator:"," yaml:"extraDomains"`
	} `yaml:"output"`

	// Compiler configures the external rule-set compiler
	Compiler struct {
		// Binary is the sing-box executable, looked up in PATH when not absolute
		Binary string `env:"COMPILER_BINARY" env-default:"sing-box" yaml:"binary"`
		// Timeout bounds a single compiler invocation, zero disables it
		Timeout time.Duration `env:"COMPILER_TIMEOUT" env-default:"5m" yaml:"timeout"`
	} `yaml:"compiler"`

	// Watch configures periodic generation in watch mode
	Watch struct {
		// Interval between successful runs
		Interval time.Duration `env:"WATCH_INTERVAL" env-default:"6h" yaml:"interval"`
		// InitialBackoff is the delay after the first failed run
		InitialBackoff time.Duration `env:"WATCH_INITIAL_BACKOFF" env-default:"30s" yaml:"initialBackoff"`
		// MaxBackoff caps the delay between failed runs
		MaxBackoff time.Duration `env:"WATCH_MAX_BACKOFF" env-default:"30m" yaml:"maxBackoff"`
	} `yaml:"watch"`

	// HTTP contains the watch-mode HTTP server configuration
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
// When the file does not exist, configuration is read from env variables and defaults only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	_, err := os.Stat(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read env: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("could not stat config: %w", err)
	default:
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	switch {
	case c.Source.URL == "":
		return errors.New("source url must not be empty")
	case c.Output.Dir == "":
		return errors.New("output dir must not be empty")
	case c.Output.TextName == "" || c.Output.BinaryName == "":
		return errors.New("output file names must not be empty")
	case c.Output.TextName == c.Output.BinaryName:
		return fmt.Errorf("output text and binary names must differ, both are %q", c.Output.TextName)
	case c.Output.Mode != "always" && c.Output.Mode != "on-change":
		return fmt.Errorf("output mode %q must be \"always\" or \"on-change\"", c.Output.Mode)
	case c.Output.MinTextSize < 0 || c.Output.MinBinarySize < 0:
		return errors.New("minimum artifact sizes must not be negative")
	case c.Watch.Interval <= 0:
		return fmt.Errorf("watch interval must be positive, got %s", c.Watch.Interval)
	case c.Watch.InitialBackoff <= 0 || c.Watch.MaxBackoff < c.Watch.InitialBackoff:
		return fmt.Errorf("watch backoff must satisfy 0 < initial (%s) <= max (%s)",
			c.Watch.InitialBackoff, c.Watch.MaxBackoff)
	}

	return nil
}
