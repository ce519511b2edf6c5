package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FulfillmentMode selects the fulfillment entry point a request must be answered through.
type FulfillmentMode uint8

const (
	// FulfillmentSingle answers through fulfillOracleRequest with a single bytes32 word.
	FulfillmentSingle FulfillmentMode = iota
	// FulfillmentMulti answers through fulfillOracleRequest2 with ABI-encoded bytes.
	FulfillmentMulti
)

func (m FulfillmentMode) String() string {
	switch m {
	case FulfillmentSingle:
		return "single"
	case FulfillmentMulti:
		return "multi"
	default:
		return "unknown"
	}
}

// ParseFulfillmentMode converts "single" or "multi" into a FulfillmentMode.
func ParseFulfillmentMode(input string) (FulfillmentMode, bool) {
	switch input {
	case "single", "Single", "SINGLE":
		return FulfillmentSingle, true
	case "multi", "Multi", "MULTI":
		return FulfillmentMulti, true
	default:
		return FulfillmentSingle, false
	}
}

// RunRequest is one OracleRequest event observed on chain.
type RunRequest struct {
	SpecID       [32]byte
	Requester    common.Address
	RequestID    [32]byte
	Payment      *big.Int
	CallbackAddr common.Address
	CallbackFunc [4]byte
	Expiration   *big.Int
	DataVersion  uint64
	Data         []byte
	Topic        common.Hash
	Emitter      common.Address
	Mode         FulfillmentMode
}

// RunRequestRecord is the JSON representation of a decoded RunRequest.
type RunRequestRecord struct {
	ChainID      uint64                 `json:"chain_id"`
	BlockNumber  uint64                 `json:"block_number"`
	BlockHash    string                 `json:"block_hash"`
	TxHash       string                 `json:"tx_hash"`
	LogIndex     uint64                 `json:"log_index"`
	Address      string                 `json:"address"`
	Timestamp    uint64                 `json:"timestamp"`
	SpecID       string                 `json:"spec_id"`
	Requester    string                 `json:"requester"`
	RequestID    string                 `json:"request_id"`
	Payment      string                 `json:"payment"`
	CallbackAddr string                 `json:"callback_addr"`
	CallbackFunc string                 `json:"callback_func"`
	Expiration   string                 `json:"expiration"`
	DataVersion  uint64                 `json:"data_version"`
	Data         string                 `json:"data"`
	Params       map[string]interface{} `json:"params,omitempty"`
	Topic        string                 `json:"topic"`
	Mode         string                 `json:"mode"`
}

// DecodeFailure records a decode failure for a log line.
type DecodeFailure struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Error       string `json:"error"`
}
