package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Model runtime (Ollama)
	Model             string `mapstructure:"model" yaml:"model"`
	OllamaHost        string `mapstructure:"ollama_host" yaml:"ollama_host"`
	InsightTimeoutSec int    `mapstructure:"insight_timeout_sec" yaml:"insight_timeout_sec"`
	RequireInsights   bool   `mapstructure:"require_insights" yaml:"require_insights"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Analysis
	OutputDir         string   `mapstructure:"output_dir" yaml:"output_dir"`
	Delimiter         string   `mapstructure:"delimiter" yaml:"delimiter"`
	MissingValues     []string `mapstructure:"missing_values" yaml:"missing_values"`
	FailOnEmptyColumn bool     `mapstructure:"fail_on_empty_column" yaml:"fail_on_empty_column"`

	// Web form
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	Share       bool   `mapstructure:"share" yaml:"share"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	RatePerMin  int    `mapstructure:"rate_limit_per_min" yaml:"rate_limit_per_min"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists every settable key in display order.
var Keys = []string{
	"model", "ollama_host", "insight_timeout_sec", "require_insights",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"output_dir", "delimiter", "missing_values", "fail_on_empty_column",
	"listen_addr", "share", "max_upload_mb", "rate_limit_per_min",
	"log_level", "log_format",
}

// Dir returns ~/.eda.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".eda"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.eda/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "deepseek-coder:latest")
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("insight_timeout_sec", 180)
	v.SetDefault("require_insights", false)
	// HTTP/retry defaults: a single attempt, no retry
	v.SetDefault("http_timeout_sec", 180)
	v.SetDefault("retry_max_attempts", 1)
	v.SetDefault("retry_base_delay_ms", 200)
	v.SetDefault("retry_max_delay_ms", 1000)
	v.SetDefault("output_dir", ".")
	v.SetDefault("delimiter", "")
	v.SetDefault("missing_values", []string{})
	v.SetDefault("fail_on_empty_column", false)
	v.SetDefault("listen_addr", ":7860")
	v.SetDefault("share", false)
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("rate_limit_per_min", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (EDA_*) > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EDA")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine: defaults and env still apply
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Get returns the display value of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "model":
		return c.Model, nil
	case "ollama_host":
		return c.OllamaHost, nil
	case "insight_timeout_sec":
		return strconv.Itoa(c.InsightTimeoutSec), nil
	case "require_insights":
		return strconv.FormatBool(c.RequireInsights), nil
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec), nil
	case "retry_max_attempts":
		return strconv.Itoa(c.RetryMaxAttempts), nil
	case "retry_base_delay_ms":
		return strconv.Itoa(c.RetryBaseDelayMs), nil
	case "retry_max_delay_ms":
		return strconv.Itoa(c.RetryMaxDelayMs), nil
	case "output_dir":
		return c.OutputDir, nil
	case "delimiter":
		return c.Delimiter, nil
	case "missing_values":
		return strings.Join(c.MissingValues, ","), nil
	case "fail_on_empty_column":
		return strconv.FormatBool(c.FailOnEmptyColumn), nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "share":
		return strconv.FormatBool(c.Share), nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "rate_limit_per_min":
		return strconv.Itoa(c.RatePerMin), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val for key and stores it.
func (c *Global) Set(key, val string) error {
	switch key {
	case "model":
		if val == "" {
			return fmt.Errorf("model cannot be empty")
		}
		c.Model = val
	case "ollama_host":
		c.OllamaHost = strings.TrimRight(val, "/")
	case "insight_timeout_sec":
		return setPositiveInt(&c.InsightTimeoutSec, key, val)
	case "require_insights":
		return setBool(&c.RequireInsights, key, val)
	case "http_timeout_sec":
		return setPositiveInt(&c.HTTPTimeoutSec, key, val)
	case "retry_max_attempts":
		return setPositiveInt(&c.RetryMaxAttempts, key, val)
	case "retry_base_delay_ms":
		return setPositiveInt(&c.RetryBaseDelayMs, key, val)
	case "retry_max_delay_ms":
		return setPositiveInt(&c.RetryMaxDelayMs, key, val)
	case "output_dir":
		c.OutputDir = val
	case "delimiter":
		if len([]rune(val)) > 1 && val != `\t` && val != "tab" {
			return fmt.Errorf("invalid delimiter: %q (use a single character or \\t)", val)
		}
		c.Delimiter = val
	case "missing_values":
		c.MissingValues = nil
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.MissingValues = append(c.MissingValues, s)
			}
		}
	case "fail_on_empty_column":
		return setBool(&c.FailOnEmptyColumn, key, val)
	case "listen_addr":
		c.ListenAddr = val
	case "share":
		return setBool(&c.Share, key, val)
	case "max_upload_mb":
		return setPositiveInt(&c.MaxUploadMB, key, val)
	case "rate_limit_per_min":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid non-negative int for %s: %v", key, val)
		}
		c.RatePerMin = i
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setPositiveInt(dst *int, key, val string) error {
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return fmt.Errorf("invalid positive int for %s: %v", key, val)
	}
	*dst = i
	return nil
}

func setBool(dst *bool, key, val string) error {
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("invalid bool for %s: %v", key, val)
	}
	*dst = b
	return nil
}

// DelimiterRune converts the configured delimiter to a rune; 0 means auto.
func (c *Global) DelimiterRune() rune {
	switch c.Delimiter {
	case "":
		return 0
	case `\t`, "tab":
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}
