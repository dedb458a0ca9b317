package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/insightloom-cli/internal/analysis"
)

// Global configuration structure.
type Global struct {
	// Analysis parameters
	CorrelationThreshold float64 `mapstructure:"correlation_threshold" yaml:"correlation_threshold"`
	OutlierMethod        string  `mapstructure:"outlier_method" yaml:"outlier_method"`
	OutlierThreshold     float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`
	OutlierSampleLimit   int     `mapstructure:"outlier_sample_limit" yaml:"outlier_sample_limit"`
	TopN                 int     `mapstructure:"top_n" yaml:"top_n"`
	DateDetectRatio      float64 `mapstructure:"date_detect_ratio" yaml:"date_detect_ratio"`
	DateDistributionMin  int     `mapstructure:"date_distribution_min" yaml:"date_distribution_min"`
	Workers              int     `mapstructure:"workers" yaml:"workers"`

	// Loading
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`

	// Output
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists every settable key in display order.
var Keys = []string{
	"correlation_threshold", "outlier_method", "outlier_threshold", "outlier_sample_limit",
	"top_n", "date_detect_ratio", "date_distribution_min", "workers", "max_rows",
	"report_format", "output_dir", "log_level", "log_format",
}

const dirName = ".insightloom"

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *Global {
	p := analysis.DefaultParams()
	return &Global{
		CorrelationThreshold: p.CorrelationThreshold,
		OutlierMethod:        p.OutlierMethod,
		OutlierSampleLimit:   p.OutlierSampleLimit,
		TopN:                 p.TopN,
		DateDetectRatio:      p.DateDetectRatio,
		DateDistributionMin:  p.DateDistributionMin,
		Workers:              p.Workers,
		ReportFormat:         "markdown",
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.insightloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
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

// Load loads configuration from file, env, and defaults.
// Precedence: env (including a .env file in the working directory) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("INSIGHTLOOM")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("correlation_threshold", d.CorrelationThreshold)
	v.SetDefault("outlier_method", d.OutlierMethod)
	v.SetDefault("outlier_threshold", d.OutlierThreshold)
	v.SetDefault("outlier_sample_limit", d.OutlierSampleLimit)
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("date_detect_ratio", d.DateDetectRatio)
	v.SetDefault("date_distribution_min", d.DateDistributionMin)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("report_format", d.ReportFormat)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// AnalysisParams converts the analysis keys into engine parameters.
func (c *Global) AnalysisParams() analysis.Params {
	return analysis.Params{
		CorrelationThreshold: c.CorrelationThreshold,
		OutlierMethod:        c.OutlierMethod,
		OutlierThreshold:     c.OutlierThreshold,
		OutlierSampleLimit:   c.OutlierSampleLimit,
		TopN:                 c.TopN,
		DateDetectRatio:      c.DateDetectRatio,
		DateDistributionMin:  c.DateDistributionMin,
		Workers:              c.Workers,
	}
}

// Set parses val and assigns it to key.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	switch key {
	case "correlation_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("invalid float for correlation_threshold: %v (use 0..1)", val)
		}
		c.CorrelationThreshold = f
	case "outlier_method":
		switch strings.ToLower(val) {
		case "iqr":
			c.OutlierMethod = "iqr"
		case "zscore", "z-score", "z":
			c.OutlierMethod = "zscore"
		default:
			return fmt.Errorf("invalid outlier_method: %s (use iqr or zscore)", val)
		}
	case "outlier_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for outlier_threshold: %v", val)
		}
		c.OutlierThreshold = f
	case "outlier_sample_limit", "top_n", "date_distribution_min", "workers", "max_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "outlier_sample_limit":
			c.OutlierSampleLimit = i
		case "top_n":
			c.TopN = i
		case "date_distribution_min":
			c.DateDistributionMin = i
		case "workers":
			c.Workers = i
		case "max_rows":
			c.MaxRows = i
		}
	case "date_detect_ratio":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid float for date_detect_ratio: %v (use 0..1)", val)
		}
		c.DateDetectRatio = f
	case "report_format":
		switch strings.ToLower(val) {
		case "markdown", "md":
			c.ReportFormat = "markdown"
		case "json", "yaml":
			c.ReportFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid report_format: %s (use markdown, json or yaml)", val)
		}
	case "output_dir":
		c.OutputDir = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
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

// Get renders the value of key for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "correlation_threshold":
		return strconv.FormatFloat(c.CorrelationThreshold, 'f', -1, 64), nil
	case "outlier_method":
		return c.OutlierMethod, nil
	case "outlier_threshold":
		return strconv.FormatFloat(c.OutlierThreshold, 'f', -1, 64), nil
	case "outlier_sample_limit":
		return strconv.Itoa(c.OutlierSampleLimit), nil
	case "top_n":
		return strconv.Itoa(c.TopN), nil
	case "date_detect_ratio":
		return strconv.FormatFloat(c.DateDetectRatio, 'f', -1, 64), nil
	case "date_distribution_min":
		return strconv.Itoa(c.DateDistributionMin), nil
	case "workers":
		return strconv.Itoa(c.Workers), nil
	case "max_rows":
		return strconv.Itoa(c.MaxRows), nil
	case "report_format":
		return c.ReportFormat, nil
	case "output_dir":
		return c.OutputDir, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}
