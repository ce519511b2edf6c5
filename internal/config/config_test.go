package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDecodeEnvAndFlags(t *testing.T) {
	t.Setenv("ORACLEWIRE_ERRORS", "/tmp/env_errors.jsonl")

	flags := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	flags.String("out", "", "")
	flags.String("fulfillment-modes", "", "")
	if err := flags.Parse([]string{"--out", "/tmp/out.jsonl", "--fulfillment-modes", "0xAbC=multi, 0xdef=single"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadDecode("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Out != "/tmp/out.jsonl" {
		t.Fatalf("out: %s", cfg.Out)
	}
	if cfg.Errors != "/tmp/env_errors.jsonl" {
		t.Fatalf("errors: %s", cfg.Errors)
	}
	if cfg.In != "./data/logs.jsonl" || !cfg.DecodeParams {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if len(cfg.FulfillmentModes) != 2 || cfg.FulfillmentModes["0xAbC"] != "multi" || cfg.FulfillmentModes["0xdef"] != "single" {
		t.Fatalf("fulfillment modes: %v", cfg.FulfillmentModes)
	}
}

func TestLoadAgreementFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agreement.yaml")
	content := `
payment: "1000000000000000000"
expiration: "300"
oracles:
  - "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
  - "0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF"
sign-timeout: 3s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadAgreement(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Payment != "1000000000000000000" || cfg.Expiration != "300" {
		t.Fatalf("unexpected numbers: %+v", cfg)
	}
	if len(cfg.Oracles) != 2 || cfg.Oracles[1] != "0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF" {
		t.Fatalf("oracles: %v", cfg.Oracles)
	}
	if cfg.SignTimeout != 3*time.Second {
		t.Fatalf("sign timeout: %s", cfg.SignTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadLoader(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestParseStringMap(t *testing.T) {
	got := parseStringMap("a=1, b = 2,broken,=x,c=")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("unexpected map: %v", got)
	}
}
