package model

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogRecord is the normalized representation of a chain log for storage.
type LogRecord struct {
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint64   `json:"tx_index"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
	Timestamp   uint64   `json:"timestamp"`
	IngestedAt  string   `json:"ingested_at"`
}

// UnmarshalJSON decodes a LogRecord from JSON.
func (lr *LogRecord) UnmarshalJSON(data []byte) error {
	type Alias LogRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*lr = LogRecord(a)
	return nil
}

// ToLog converts the record back into a go-ethereum log.
func (lr LogRecord) ToLog() (*types.Log, error) {
	if !common.IsHexAddress(lr.Address) {
		return nil, fmt.Errorf("invalid address: %s", lr.Address)
	}

	topics := make([]common.Hash, 0, len(lr.Topics))
	for i, topic := range lr.Topics {
		raw, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("topic %d: %w", i, err)
		}
		if len(raw) != common.HashLength {
			return nil, fmt.Errorf("topic %d: invalid length %d", i, len(raw))
		}
		topics = append(topics, common.BytesToHash(raw))
	}

	data := []byte{}
	if lr.Data != "" && lr.Data != "0x" {
		var err error
		data, err = hexutil.Decode(lr.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
	}

	return &types.Log{
		Address:     common.HexToAddress(lr.Address),
		Topics:      topics,
		Data:        data,
		BlockNumber: lr.BlockNumber,
		TxHash:      common.HexToHash(lr.TxHash),
		TxIndex:     uint(lr.TxIndex),
		BlockHash:   common.HexToHash(lr.BlockHash),
		Index:       uint(lr.LogIndex),
		Removed:     lr.Removed,
	}, nil
}
