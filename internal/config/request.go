package config

import (
	"github.com/spf13/pflag"
)

// RequestConfig holds configuration for the request command.
type RequestConfig struct {
	Variant          string
	SpecID           string
	CallbackAddress  string
	CallbackFunction string
	Nonce            string
	Data             string
	DataVersion      uint64
	LogLevel         string
}

// LoadRequest merges config file, environment variables, and flags into RequestConfig.
func LoadRequest(cfgFile string, flags *pflag.FlagSet) (RequestConfig, error) {
	v := newViper()
	v.SetDefault("variant", "oracleRequest")
	v.SetDefault("nonce", "0")
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return RequestConfig{}, err
	}

	cfg := RequestConfig{
		Variant:          v.GetString("variant"),
		SpecID:           v.GetString("spec-id"),
		CallbackAddress:  v.GetString("callback-address"),
		CallbackFunction: v.GetString("callback-function"),
		Nonce:            v.GetString("nonce"),
		Data:             v.GetString("data"),
		DataVersion:      v.GetUint64("data-version"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

// FulfillConfig holds configuration for the fulfill command.
type FulfillConfig struct {
	Request        string
	Response       string
	ResponseTypes  []string
	ResponseValues []string
	Cancel         bool
	LogLevel       string
}

// LoadFulfill merges config file, environment variables, and flags into FulfillConfig.
func LoadFulfill(cfgFile string, flags *pflag.FlagSet) (FulfillConfig, error) {
	v := newViper()
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return FulfillConfig{}, err
	}

	cfg := FulfillConfig{
		Request:        v.GetString("request"),
		Response:       v.GetString("response"),
		ResponseTypes:  getStringSlice(v, "response-types"),
		ResponseValues: getStringSlice(v, "response-values"),
		Cancel:         v.GetBool("cancel"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}
