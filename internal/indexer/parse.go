package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"oracleWire/internal/oracle"
)

// ParseAddresses converts oracle contract addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseTopic0 converts topic0 hashes into common.Hash. With no inputs it
// returns the OracleRequest event signature.
func ParseTopic0(inputs []string) ([]common.Hash, error) {
	topics := make([]common.Hash, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		data, err := hexutil.Decode(input)
		if err != nil {
			return nil, fmt.Errorf("invalid topic0: %s", input)
		}
		if len(data) != 32 {
			return nil, fmt.Errorf("invalid topic0 length: %s", input)
		}
		topics = append(topics, common.BytesToHash(data))
	}
	if len(topics) > 0 {
		return topics, nil
	}

	event, err := oracle.OracleRequestEvent()
	if err != nil {
		return nil, fmt.Errorf("oracle request event: %w", err)
	}
	return []common.Hash{event.ID}, nil
}
