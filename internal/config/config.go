package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Toolsets           []string      `toml:"toolsets"`
	ReadOnly           bool          `toml:"read_only"`
	DisableDestructive bool          `toml:"disable_destructive"`
	LogLevel           string        `toml:"log_level"`
	Safety             SafetyConfig  `toml:"safety"`
	Timeouts           TimeoutConfig `toml:"timeouts"`
	Cache              CacheConfig   `toml:"cache"`
	Cost               CostConfig    `toml:"cost"`
}

type SafetyConfig struct {
	AllowDestructiveTools []string `toml:"allow_destructive_tools"`
}

type TimeoutConfig struct {
	DefaultSeconds int            `toml:"default_seconds"`
	MaxSeconds     int            `toml:"max_seconds"`
	PerTool        map[string]int `toml:"per_tool"`
}

type CacheConfig struct {
	AWSListTTLSeconds int `toml:"aws_list_ttl_seconds"`
}

// CostConfig locates the cost-and-usage report for Athena queries. Any field
// left empty falls back to the matching AWS_CUR_* / AWS_ATHENA_* env var.
type CostConfig struct {
	AthenaDatabase       string `toml:"athena_database"`
	AthenaWorkgroup      string `toml:"athena_workgroup"`
	AthenaOutputLocation string `toml:"athena_output_location"`
	CURTableName         string `toml:"cur_table_name"`
}

type Overrides struct {
	Toolsets           *[]string
	ReadOnly           *bool
	DisableDestructive *bool
	LogLevel           *string
}

func DefaultConfig() Config {
	return Config{
		Toolsets: []string{"logs", "waf", "msk", "cost", "sts"},
		LogLevel: "info",
		Timeouts: TimeoutConfig{
			DefaultSeconds: 60,
			MaxSeconds:     300,
		},
		Cache: CacheConfig{
			AWSListTTLSeconds: 30,
		},
	}
}

func Load(path string, dir string, overrides Overrides) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			return cfg, err
		}
		merge(&cfg, fileCfg)
	}

	if dir != "" {
		files, err := dropInFiles(dir)
		if err != nil {
			return cfg, err
		}
		for _, file := range files {
			fileCfg, err := readFile(file)
			if err != nil {
				return cfg, err
			}
			merge(&cfg, fileCfg)
		}
	}

	applyOverrides(&cfg, overrides)
	applyEnvFallbacks(&cfg)
	return cfg, nil
}

func readFile(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func dropInFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func merge(dst *Config, src Config) {
	if len(src.Toolsets) > 0 {
		dst.Toolsets = append([]string{}, src.Toolsets...)
	}
	if src.ReadOnly {
		dst.ReadOnly = src.ReadOnly
	}
	if src.DisableDestructive {
		dst.DisableDestructive = src.DisableDestructive
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if len(src.Safety.AllowDestructiveTools) > 0 {
		dst.Safety.AllowDestructiveTools = append([]string{}, src.Safety.AllowDestructiveTools...)
	}
	if src.Timeouts.DefaultSeconds != 0 {
		dst.Timeouts.DefaultSeconds = src.Timeouts.DefaultSeconds
	}
	if src.Timeouts.MaxSeconds != 0 {
		dst.Timeouts.MaxSeconds = src.Timeouts.MaxSeconds
	}
	if len(src.Timeouts.PerTool) > 0 {
		dst.Timeouts.PerTool = map[string]int{}
		for tool, seconds := range src.Timeouts.PerTool {
			dst.Timeouts.PerTool[tool] = seconds
		}
	}
	if src.Cache.AWSListTTLSeconds != 0 {
		dst.Cache.AWSListTTLSeconds = src.Cache.AWSListTTLSeconds
	}
	if src.Cost.AthenaDatabase != "" {
		dst.Cost.AthenaDatabase = src.Cost.AthenaDatabase
	}
	if src.Cost.AthenaWorkgroup != "" {
		dst.Cost.AthenaWorkgroup = src.Cost.AthenaWorkgroup
	}
	if src.Cost.AthenaOutputLocation != "" {
		dst.Cost.AthenaOutputLocation = src.Cost.AthenaOutputLocation
	}
	if src.Cost.CURTableName != "" {
		dst.Cost.CURTableName = src.Cost.CURTableName
	}
}

func applyOverrides(cfg *Config, overrides Overrides) {
	if overrides.Toolsets != nil {
		cfg.Toolsets = append([]string{}, (*overrides.Toolsets)...)
	}
	if overrides.ReadOnly != nil {
		cfg.ReadOnly = *overrides.ReadOnly
	}
	if overrides.DisableDestructive != nil {
		cfg.DisableDestructive = *overrides.DisableDestructive
	}
	if overrides.LogLevel != nil {
		cfg.LogLevel = *overrides.LogLevel
	}
}

func applyEnvFallbacks(cfg *Config) {
	if cfg.Cost.AthenaDatabase == "" {
		cfg.Cost.AthenaDatabase = os.Getenv("AWS_CUR_DB_NAME")
	}
	if cfg.Cost.AthenaOutputLocation == "" {
		cfg.Cost.AthenaOutputLocation = os.Getenv("AWS_ATHENA_RESULTS_BUCKET")
	}
	if cfg.Cost.CURTableName == "" {
		cfg.Cost.CURTableName = os.Getenv("AWS_CUR_TABLE_NAME")
	}
}
