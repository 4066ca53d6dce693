package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	apiError "github.com/maratig/gcpause/api/error"
)

const (
	SourceRuntime = "runtime"
	SourceTrace   = "trace"

	// defaultApiPort is a default port for program's REST API
	defaultApiPort  = 10000
	defaultLogLevel = "info"

	envPrefix        = "GCPAUSE"
	workloadInterval = time.Millisecond
)

// Config keys are also the names of the "run" command flags. Environment variables use the GCPAUSE_ prefix with
// dashes replaced by underscores, e.g. GCPAUSE_SOURCE_PATH
type Config struct {
	Port       int    `mapstructure:"port" yaml:"port"`
	Source     string `mapstructure:"source" yaml:"source"`
	SourcePath string `mapstructure:"source-path" yaml:"source-path,omitempty"`
	LogLevel   string `mapstructure:"log-level" yaml:"log-level"`
	// Workload runs an allocating workload in-process so the runtime source has collections to report
	Workload bool `mapstructure:"workload" yaml:"workload"`
}

func initConfig(cfg Config) Config {
	if cfg.Port <= 0 {
		cfg.Port = defaultApiPort
	}
	if cfg.Source == "" {
		cfg.Source = SourceRuntime
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	return cfg
}

// LoadConfig reads configuration from (in decreasing priority) the changed flags, GCPAUSE_ environment variables,
// the yaml file at path and the defaults. path and flags may be empty
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault("port", defaultApiPort)
	v.SetDefault("source", SourceRuntime)
	v.SetDefault("source-path", "")
	v.SetDefault("log-level", defaultLogLevel)
	v.SetDefault("workload", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file; %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("failed to bind flags; %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("cannot decode config; %w", err)
	}
	cfg = initConfig(cfg)

	return cfg, validateConfig(cfg)
}

func validateConfig(cfg Config) error {
	switch cfg.Source {
	case SourceRuntime:
	case SourceTrace:
		if cfg.SourcePath == "" {
			return fmt.Errorf("%w; the %s source reads it", apiError.ErrEmptySourcePath, SourceTrace)
		}
	default:
		return fmt.Errorf("%w; %q", apiError.ErrUnknownSource, cfg.Source)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level; %w", err)
	}

	return nil
}
