package agreement

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"oracleWire/internal/config"
	"oracleWire/internal/model"
)

// FromConfig turns the agreement fields of cfg into options. Empty fields
// are skipped so Defaults apply.
func FromConfig(cfg config.AgreementConfig) ([]Option, error) {
	var opts []Option

	for _, field := range []struct {
		name  string
		value string
		apply func(*big.Int) Option
	}{
		{"payment", cfg.Payment, WithPayment},
		{"expiration", cfg.Expiration, WithExpiration},
		{"endAt", cfg.EndAt, WithEndAt},
	} {
		if strings.TrimSpace(field.value) == "" {
			continue
		}
		value, ok := math.ParseBig256(strings.TrimSpace(field.value))
		if !ok {
			return nil, &model.ValidationError{Field: field.name, Reason: fmt.Sprintf("invalid uint256 %q", field.value)}
		}
		opts = append(opts, field.apply(value))
	}

	if len(cfg.Oracles) > 0 {
		oracles := make([]common.Address, 0, len(cfg.Oracles))
		for _, raw := range cfg.Oracles {
			addr, err := parseAddress("oracles", raw)
			if err != nil {
				return nil, err
			}
			oracles = append(oracles, addr)
		}
		opts = append(opts, WithOracles(oracles...))
	}

	if cfg.RequestDigest != "" {
		raw, err := parseFixed("requestDigest", cfg.RequestDigest, 32)
		if err != nil {
			return nil, err
		}
		var digest [32]byte
		copy(digest[:], raw)
		opts = append(opts, WithRequestDigest(digest))
	}

	if cfg.Aggregator != "" {
		addr, err := parseAddress("aggregator", cfg.Aggregator)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithAggregator(addr))
	}

	for _, field := range []struct {
		name  string
		value string
		apply func([4]byte) Option
	}{
		{"aggInitiateJobSelector", cfg.AggInitiateJobSelector, WithAggInitiateJobSelector},
		{"aggFulfillSelector", cfg.AggFulfillSelector, WithAggFulfillSelector},
	} {
		if field.value == "" {
			continue
		}
		raw, err := parseFixed(field.name, field.value, 4)
		if err != nil {
			return nil, err
		}
		var selector [4]byte
		copy(selector[:], raw)
		opts = append(opts, field.apply(selector))
	}

	return opts, nil
}

func parseAddress(field, raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, &model.ValidationError{Field: field, Reason: fmt.Sprintf("invalid address %q", raw)}
	}
	return common.HexToAddress(raw), nil
}

func parseFixed(field, raw string, size int) ([]byte, error) {
	decoded, err := hexutil.Decode(strings.TrimSpace(raw))
	if err != nil {
		return nil, &model.ValidationError{Field: field, Reason: err.Error()}
	}
	if len(decoded) != size {
		return nil, &model.ValidationError{Field: field, Reason: fmt.Sprintf("expected %d bytes, got %d", size, len(decoded))}
	}
	return decoded, nil
}
