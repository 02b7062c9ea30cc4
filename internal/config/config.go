package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/i18nmerge/i18nmerge/internal/discovery"
	"github.com/i18nmerge/i18nmerge/internal/merging"
	"github.com/i18nmerge/i18nmerge/internal/report"
)

const (
	EnvPrefix = "I18NMERGE"

	StrategyKey    = "strategy"
	MaxFileSizeKey = "max_file_size"
	ConcurrencyKey = "concurrency"
	IncludeKey     = "include"
	ExcludeKey     = "exclude"
	BackupKey      = "backup"
	OutputKey      = "output"

	projectConfigName = ".i18nmerge"
)

var (
	vCfg   = viper.New()
	cfgDir string
)

// Keys lists the settings that can be configured.
func Keys() []string {
	return []string{StrategyKey, MaxFileSizeKey, ConcurrencyKey, IncludeKey, ExcludeKey, BackupKey, OutputKey}
}

// Load reads ~/.i18nmerge/config.yaml, then overlays ./.i18nmerge.yaml from the working
// directory. I18NMERGE_* environment variables take precedence over both.
func Load() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	return load(home, wd)
}

func load(home, wd string) error {
	v := viper.New()
	cfgDir = filepath.Join(home, ".i18nmerge")

	v.SetDefault(StrategyKey, string(merging.StrategySmart))
	v.SetDefault(MaxFileSizeKey, merging.DefaultMaxFileSize)
	v.SetDefault(ConcurrencyKey, merging.DefaultConcurrency)
	v.SetDefault(IncludeKey, discovery.DefaultInclude)
	v.SetDefault(ExcludeKey, []string{})
	v.SetDefault(BackupKey, false)
	v.SetDefault(OutputKey, "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(cfgDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read user config: %w", err)
		}
	}

	project := filepath.Join(wd, projectConfigName+".yaml")
	if f, err := os.Open(project); err == nil {
		defer f.Close()
		if err := v.MergeConfig(f); err != nil {
			return fmt.Errorf("failed to read %s: %w", project, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	vCfg = v
	return nil
}

func GetStrategy() (merging.Strategy, error) {
	return merging.ParseStrategy(vCfg.GetString(StrategyKey))
}

func GetMaxFileSize() int64 {
	return vCfg.GetInt64(MaxFileSizeKey)
}

func GetConcurrency() int {
	return vCfg.GetInt(ConcurrencyKey)
}

func GetInclude() []string {
	return vCfg.GetStringSlice(IncludeKey)
}

func GetExclude() []string {
	return vCfg.GetStringSlice(ExcludeKey)
}

func GetBackup() bool {
	return vCfg.GetBool(BackupKey)
}

func GetOutput() string {
	return vCfg.GetString(OutputKey)
}

// Get returns the effective value of key.
func Get(key string) any {
	return vCfg.Get(key)
}

// Set validates and persists key in the user config file.
func Set(key, value string) error {
	var v any
	switch key {
	case StrategyKey:
		if _, err := merging.ParseStrategy(value); err != nil {
			return err
		}
		v = value
	case MaxFileSizeKey, ConcurrencyKey:
		var n int64
		if _, err := fmt.Sscan(value, &n); err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		v = n
	case IncludeKey, ExcludeKey:
		v = splitList(value)
	case BackupKey:
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			v = true
		case "false", "0", "no":
			v = false
		default:
			return fmt.Errorf("%s must be a boolean, got %q", key, value)
		}
	case OutputKey:
		if _, err := report.ParseFormat(value); err != nil {
			return err
		}
		v = value
	default:
		return fmt.Errorf("unknown config key %q, expected one of %s", key, strings.Join(Keys(), ", "))
	}

	vCfg.Set(key, v)
	return save(key, v)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// save writes key into the user config file only, leaving project and environment
// overrides out of it.
func save(key string, value any) error {
	path := filepath.Join(cfgDir, "config.yaml")

	user := viper.New()
	user.SetConfigFile(path)
	if err := user.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return err
		}
	}
	user.Set(key, value)

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return err
	}

	return user.WriteConfigAs(path)
}
