package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	In               string
	Out              string
	Errors           string
	LogLevel         string
	FulfillmentModes map[string]string
	DecodeParams     bool
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v := newViper()
	v.SetDefault("in", "./data/logs.jsonl")
	v.SetDefault("out", "./data/run_requests.jsonl")
	v.SetDefault("errors", "./data/decode_errors.jsonl")
	v.SetDefault("decode-params", true)
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		In:               v.GetString("in"),
		Out:              v.GetString("out"),
		Errors:           v.GetString("errors"),
		LogLevel:         v.GetString("log-level"),
		FulfillmentModes: getStringMap(v, "fulfillment-modes"),
		DecodeParams:     v.GetBool("decode-params"),
	}

	return cfg, nil
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
