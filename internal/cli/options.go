package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/servicepulse/internal/core"
	"github.com/JonMunkholm/servicepulse/internal/store"
)

// Options is the resolved CLI configuration.
// Precedence: flags > PULSE_* env > config file > defaults.
type Options struct {
	Output            string   `mapstructure:"output" yaml:"output"`
	LogLevel          string   `mapstructure:"log-level" yaml:"log-level"`
	LogFormat         string   `mapstructure:"log-format" yaml:"log-format"`
	MaxFileSize       int64    `mapstructure:"max-file-size" yaml:"max-file-size"`
	AllowedExtensions []string `mapstructure:"allowed-extensions" yaml:"allowed-extensions"`
	CostMargin        float64  `mapstructure:"cost-margin" yaml:"cost-margin"`
	StoreDriver       string   `mapstructure:"store-driver" yaml:"store-driver"`
	StorePath         string   `mapstructure:"store-path" yaml:"store-path"`
	DatabaseURL       string   `mapstructure:"database-url" yaml:"database-url"`
}

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("output", OutputText)
	v.SetDefault("log-level", "warn")
	v.SetDefault("log-format", "text")
	v.SetDefault("max-file-size", core.DefaultMaxFileSize)
	v.SetDefault("allowed-extensions", []string{".csv"})
	v.SetDefault("cost-margin", core.DefaultCostMargin)
	v.SetDefault("store-driver", "pebble")
	v.SetDefault("store-path", "data/servicepulse")
	v.SetDefault("database-url", "")
}

// loadOptions layers flags, environment and an optional config file.
// An explicit cfgFile must exist; the default ~/.servicepulse/pulse.yaml
// is optional.
func loadOptions(cfgFile string, flags *pflag.FlagSet) (Options, error) {
	v := viper.New()
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.BindPFlags(flags); err != nil {
		return Options{}, fmt.Errorf("bind flags: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Options{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".servicepulse"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("pulse")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Options{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return Options{}, fmt.Errorf("decode config: %w", err)
	}
	return o, o.validate()
}

func (o Options) validate() error {
	switch o.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output %q: use text, json or yaml", o.Output)
	}
	if o.MaxFileSize <= 0 {
		return fmt.Errorf("max-file-size must be positive")
	}
	if o.CostMargin <= 0 {
		return fmt.Errorf("cost-margin must be positive")
	}
	return nil
}

// sessionConfig maps options onto a session.
func (o Options) sessionConfig() core.SessionConfig {
	return core.SessionConfig{
		MaxFileSize:       o.MaxFileSize,
		AllowedExtensions: o.AllowedExtensions,
		CostMargin:        o.CostMargin,
	}
}

// storeConfig maps options onto the persistence layer.
func (o Options) storeConfig() store.Config {
	return store.Config{
		Driver:   o.StoreDriver,
		Path:     o.StorePath,
		URL:      o.DatabaseURL,
		MaxConns: 2,
		MinConns: 0,
	}
}
