package config

import (
	"github.com/spf13/pflag"
)

// LoaderConfig holds configuration for the load command.
type LoaderConfig struct {
	Input     string
	PGDSN     string
	BatchSize int
	StateFile string
	StateName string
	Migrate   bool
	LogLevel  string
}

// LoadLoader merges config file, environment variables, and flags into LoaderConfig.
func LoadLoader(cfgFile string, flags *pflag.FlagSet) (LoaderConfig, error) {
	v := newViper()
	v.SetDefault("in", "./data/run_requests.jsonl")
	v.SetDefault("batch-size", 1000)
	v.SetDefault("state-name", "run_requests")
	v.SetDefault("migrate", true)
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return LoaderConfig{}, err
	}

	cfg := LoaderConfig{
		Input:     v.GetString("in"),
		PGDSN:     v.GetString("pg-dsn"),
		BatchSize: v.GetInt("batch-size"),
		StateFile: v.GetString("state-file"),
		StateName: v.GetString("state-name"),
		Migrate:   v.GetBool("migrate"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}
