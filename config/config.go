package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/querypad/querypad/queryer"
)

// AppName keys config, state and keyring entries.
const AppName = "querypad"

// Config holds application configuration.
type Config struct {
	Endpoint EndpointConfig
	Schema   SchemaConfig
	Log      LogConfig
}

// EndpointConfig describes the GraphQL endpoint the console binds to.
type EndpointConfig struct {
	URL               string
	Headers           map[string]string
	TokenEnv          string
	PerformanceHeader string
}

// SchemaConfig controls where the lint/autocomplete schema comes from.
type SchemaConfig struct {
	// File points at a local SDL file; empty means introspect the endpoint.
	File string
}

// LogConfig holds logging settings. The TUI owns the terminal, so logs go
// to a file.
type LogConfig struct {
	File  string
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix
// QUERYPAD_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("endpoint.url", "")
	v.SetDefault("endpoint.headers", map[string]string{})
	v.SetDefault("endpoint.token_env", "QUERYPAD_TOKEN")
	v.SetDefault("endpoint.performance_header", "X-Performance")
	v.SetDefault("schema.file", "")
	v.SetDefault("log.file", defaultLogPath())
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("QUERYPAD_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(configHome(), AppName))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// a missing config file is fine, everything has a default
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgPath != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Endpoint: EndpointConfig{
			URL:               v.GetString("endpoint.url"),
			Headers:           v.GetStringMapString("endpoint.headers"),
			TokenEnv:          v.GetString("endpoint.token_env"),
			PerformanceHeader: v.GetString("endpoint.performance_header"),
		},
		Schema: SchemaConfig{
			File: v.GetString("schema.file"),
		},
		Log: LogConfig{
			File:  v.GetString("log.file"),
			Level: v.GetString("log.level"),
		},
	}

	return cfg, nil
}

// Transport builds the injected transport config from the endpoint section,
// merging the token resolved by the caller into the header set.
func (c Config) Transport(token string) queryer.TransportConfig {
	headers := make(map[string]string, len(c.Endpoint.Headers)+1)
	for k, v := range c.Endpoint.Headers {
		headers[k] = v
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return queryer.TransportConfig{
		URL:               c.Endpoint.URL,
		Headers:           headers,
		PerformanceHeader: c.Endpoint.PerformanceHeader,
	}
}

func configHome() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return base
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

func defaultLogPath() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return AppName + ".log"
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, AppName, AppName+".log")
}
