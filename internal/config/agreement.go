package config

import (
	"time"

	"github.com/spf13/pflag"
)

// AgreementConfig holds the service agreement fields and the key material
// used by the agreement command. Empty fields keep the agreement defaults.
type AgreementConfig struct {
	Payment                string
	Expiration             string
	EndAt                  string
	Oracles                []string
	RequestDigest          string
	Aggregator             string
	AggInitiateJobSelector string
	AggFulfillSelector     string

	KeystoreDir string
	Password    string
	LightScrypt bool
	PrivateKeys []string
	SignTimeout time.Duration
	Coordinator string
	RPCURL      string
	AssertEmpty bool
	Out         string
	LogLevel    string
}

// LoadAgreement merges config file, environment variables, and flags into AgreementConfig.
func LoadAgreement(cfgFile string, flags *pflag.FlagSet) (AgreementConfig, error) {
	v := newViper()
	v.SetDefault("sign-timeout", 10*time.Second)
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return AgreementConfig{}, err
	}

	cfg := AgreementConfig{
		Payment:                v.GetString("payment"),
		Expiration:             v.GetString("expiration"),
		EndAt:                  v.GetString("end-at"),
		Oracles:                getStringSlice(v, "oracles"),
		RequestDigest:          v.GetString("request-digest"),
		Aggregator:             v.GetString("aggregator"),
		AggInitiateJobSelector: v.GetString("agg-initiate-job-selector"),
		AggFulfillSelector:     v.GetString("agg-fulfill-selector"),
		KeystoreDir:            v.GetString("keystore"),
		Password:               v.GetString("password"),
		LightScrypt:            v.GetBool("light-scrypt"),
		PrivateKeys:            getStringSlice(v, "private-keys"),
		SignTimeout:            v.GetDuration("sign-timeout"),
		Coordinator:            v.GetString("coordinator"),
		RPCURL:                 v.GetString("rpc"),
		AssertEmpty:            v.GetBool("assert-empty"),
		Out:                    v.GetString("out"),
		LogLevel:               v.GetString("log-level"),
	}

	return cfg, nil
}
