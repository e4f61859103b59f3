// Package config provides typed, viper-backed process configuration for
// the plugin host daemon and CLI: socket path, metadata snapshot path,
// plugin directory, default ExecutionConfig, and tracing settings, with
// layered defaults/config-file/env precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/wasmforge/pluginhost/domain/entities"
)

// Config holds every process-level setting the daemon and CLI share.
type Config struct {
	Core  CoreConfig  `mapstructure:"core"`
	Exec  ExecConfig  `mapstructure:"exec"`
	Trace TraceConfig `mapstructure:"trace"`
}

// CoreConfig holds transport and persistence locations.
type CoreConfig struct {
	SocketPath   string `mapstructure:"socket_path"`
	MetadataPath string `mapstructure:"metadata_path"`
	PluginDir    string `mapstructure:"plugin_dir"`
	LogLevel     string `mapstructure:"log_level"`
}

// ExecConfig holds the exec section of the configuration;
// DefaultExecutionConfig converts it to an ExecutionConfig. The daemon's
// request handling does not read this section: requests that omit fields
// get entities.ExecutionConfig.WithDefaults.
type ExecConfig struct {
	TimeoutMS     int64 `mapstructure:"timeout_ms"`
	MemoryLimitMB int64 `mapstructure:"memory_limit_mb"`
}

// TraceConfig controls the (ADDED) diagnostic tracer.
type TraceConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	MaxTraces int  `mapstructure:"max_traces"`
}

// EnvPrefix is the environment variable prefix. The variables that
// override settings are the names bound in bindEnvVars, e.g.
// PLUGINHOST_SOCKET_PATH for core.socket_path.
const EnvPrefix = "PLUGINHOST"

// Load reads configuration from defaults, an optional config file
// (cfgFile, else pluginhost.yaml found in $HOME/.pluginhost, then in the
// working directory), and environment
// variables, in that order of increasing precedence. A missing config
// file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	bindEnvVars(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".pluginhost"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("pluginhost")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("core.socket_path", defaultSocketPath())
	v.SetDefault("core.metadata_path", "metadata.json")
	v.SetDefault("core.plugin_dir", "./plugins")
	v.SetDefault("core.log_level", "info")

	v.SetDefault("exec.timeout_ms", entities.DefaultTimeoutMS)
	v.SetDefault("exec.memory_limit_mb", entities.DefaultMemoryLimitMB)

	v.SetDefault("trace.enabled", true)
	v.SetDefault("trace.max_traces", 256)
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("core.socket_path", "PLUGINHOST_SOCKET_PATH")
	_ = v.BindEnv("core.metadata_path", "PLUGINHOST_METADATA_PATH")
	_ = v.BindEnv("core.plugin_dir", "PLUGINHOST_PLUGIN_DIR")
	_ = v.BindEnv("core.log_level", "PLUGINHOST_LOG_LEVEL")
	_ = v.BindEnv("exec.timeout_ms", "PLUGINHOST_TIMEOUT_MS")
	_ = v.BindEnv("exec.memory_limit_mb", "PLUGINHOST_MEMORY_LIMIT_MB")
	_ = v.BindEnv("trace.enabled", "PLUGINHOST_TRACE_ENABLED")
	_ = v.BindEnv("trace.max_traces", "PLUGINHOST_TRACE_MAX")
}

func defaultSocketPath() string {
	return filepath.Join(os.TempDir(), "pluginhost.sock")
}

// DefaultExecutionConfig converts the exec section to the domain type.
func (c *Config) DefaultExecutionConfig() entities.ExecutionConfig {
	return entities.ExecutionConfig{
		TimeoutMS:     c.Exec.TimeoutMS,
		MemoryLimitMB: c.Exec.MemoryLimitMB,
	}.WithDefaults()
}
