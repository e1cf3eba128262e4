package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Web UI
	Port           int      `mapstructure:"port" yaml:"port"`
	SessionSecret  string   `mapstructure:"session_secret" yaml:"session_secret"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// Sessions idle for longer than this lose their loaded table.
	SessionIdleMinutes int `mapstructure:"session_idle_minutes" yaml:"session_idle_minutes"`

	// Exploration defaults
	PreviewRows   int `mapstructure:"preview_rows" yaml:"preview_rows"`
	HistogramBins int `mapstructure:"histogram_bins" yaml:"histogram_bins"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	SeqURL    string `mapstructure:"seq_url" yaml:"seq_url"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"port", "session_secret", "max_upload_mb", "allowed_origins", "session_idle_minutes",
	"preview_rows", "histogram_bins", "log_level", "log_format", "seq_url",
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".edaloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edaloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
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
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EDALOOM")
	v.AutomaticEnv()

	v.SetDefault("port", 8050)
	v.SetDefault("session_secret", "")
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("session_idle_minutes", 1440)
	v.SetDefault("preview_rows", 5)
	v.SetDefault("histogram_bins", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("seq_url", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns one key from its string form.
func (c *Global) Set(key, val string) error {
	switch key {
	case "port":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 || i > 65535 {
			return fmt.Errorf("invalid port: %v", val)
		}
		c.Port = i
	case "session_secret":
		c.SessionSecret = val
	case "max_upload_mb":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for max_upload_mb: %v", val)
		}
		c.MaxUploadMB = i
	case "allowed_origins":
		c.AllowedOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	case "session_idle_minutes":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for session_idle_minutes: %v", val)
		}
		c.SessionIdleMinutes = i
	case "preview_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for preview_rows: %v", val)
		}
		c.PreviewRows = i
	case "histogram_bins":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for histogram_bins: %v", val)
		}
		c.HistogramBins = i
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
	case "seq_url":
		c.SeqURL = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get returns the string form of one key; secrets are masked.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "port":
		return strconv.Itoa(c.Port), nil
	case "session_secret":
		return mask(c.SessionSecret), nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "allowed_origins":
		return strings.Join(c.AllowedOrigins, ","), nil
	case "session_idle_minutes":
		return strconv.Itoa(c.SessionIdleMinutes), nil
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), nil
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "seq_url":
		return c.SeqURL, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
