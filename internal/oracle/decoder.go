package oracle

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"oracleWire/internal/model"
)

// Decoder defines a log decoder.
type Decoder interface {
	CanDecode(topic0 string) bool
	Decode(log model.LogRecord) (*model.RunRequestRecord, error)
}

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	// FulfillmentModes maps an oracle contract address to "single" or "multi",
	// overriding the data-version based default for logs it emits.
	FulfillmentModes map[string]string
	// DecodeParams enables CBOR decoding of the request data.
	DecodeParams bool
	Logger       *zap.Logger
}

// RunRequestDecoder decodes OracleRequest logs into run requests.
type RunRequestDecoder struct {
	event        abi.Event
	topic0       string
	modes        map[common.Address]model.FulfillmentMode
	decodeParams bool
	logger       *zap.Logger
}

var _ Decoder = (*RunRequestDecoder)(nil)

// NewRunRequestDecoder builds a decoder for OracleRequest logs.
func NewRunRequestDecoder(cfg DecoderConfig) (*RunRequestDecoder, error) {
	event, err := OracleRequestEvent()
	if err != nil {
		return nil, err
	}

	modes := make(map[common.Address]model.FulfillmentMode, len(cfg.FulfillmentModes))
	for address, name := range cfg.FulfillmentModes {
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid address in fulfillment modes: %s", address)
		}
		mode, ok := model.ParseFulfillmentMode(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unsupported fulfillment mode for %s: %s", address, name)
		}
		modes[common.HexToAddress(address)] = mode
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RunRequestDecoder{
		event:        event,
		topic0:       strings.ToLower(event.ID.Hex()),
		modes:        modes,
		decodeParams: cfg.DecodeParams,
		logger:       logger,
	}, nil
}

// CanDecode checks if the topic0 is the OracleRequest signature.
func (d *RunRequestDecoder) CanDecode(topic0 string) bool {
	return topic0 != "" && strings.ToLower(topic0) == d.topic0
}

// DecodeLog decodes a chain log and applies the emitter's fulfillment mode.
func (d *RunRequestDecoder) DecodeLog(log *types.Log) (*model.RunRequest, error) {
	req, err := DecodeRunRequest(log)
	if err != nil {
		return nil, err
	}
	if mode, ok := d.modes[req.Emitter]; ok {
		req.Mode = mode
	}
	return req, nil
}

// Decode converts a LogRecord into a RunRequestRecord.
func (d *RunRequestDecoder) Decode(record model.LogRecord) (*model.RunRequestRecord, error) {
	log, err := record.ToLog()
	if err != nil {
		return nil, &model.DecodeError{Reason: "parse log record", Err: err}
	}

	req, err := d.DecodeLog(log)
	if err != nil {
		return nil, err
	}

	out := BuildRunRequestRecord(record, req)
	if d.decodeParams {
		params, err := ParseRequestParams(req.Data)
		if err != nil {
			d.logger.Debug("request params not decodable",
				zap.String("tx_hash", record.TxHash),
				zap.Uint64("log_index", record.LogIndex),
				zap.Error(err),
			)
		} else {
			out.Params = params
		}
	}
	return out, nil
}

// BuildRunRequestRecord flattens a RunRequest together with its log coordinates.
func BuildRunRequestRecord(log model.LogRecord, req *model.RunRequest) *model.RunRequestRecord {
	return &model.RunRequestRecord{
		ChainID:      log.ChainID,
		BlockNumber:  log.BlockNumber,
		BlockHash:    log.BlockHash,
		TxHash:       log.TxHash,
		LogIndex:     log.LogIndex,
		Address:      req.Emitter.Hex(),
		Timestamp:    log.Timestamp,
		SpecID:       hexutil.Encode(req.SpecID[:]),
		Requester:    req.Requester.Hex(),
		RequestID:    hexutil.Encode(req.RequestID[:]),
		Payment:      orZero(req.Payment).String(),
		CallbackAddr: req.CallbackAddr.Hex(),
		CallbackFunc: hexutil.Encode(req.CallbackFunc[:]),
		Expiration:   orZero(req.Expiration).String(),
		DataVersion:  req.DataVersion,
		Data:         hexutil.Encode(req.Data),
		Topic:        req.Topic.Hex(),
		Mode:         req.Mode.String(),
	}
}

// RunRequestFromRecord rebuilds a RunRequest from its JSON record.
func RunRequestFromRecord(record model.RunRequestRecord) (*model.RunRequest, error) {
	specID, err := decodeFixed(record.SpecID, 32)
	if err != nil {
		return nil, &model.DecodeError{Reason: "spec_id", Err: err}
	}
	requestID, err := decodeFixed(record.RequestID, 32)
	if err != nil {
		return nil, &model.DecodeError{Reason: "request_id", Err: err}
	}
	callbackFunc, err := decodeFixed(record.CallbackFunc, 4)
	if err != nil {
		return nil, &model.DecodeError{Reason: "callback_func", Err: err}
	}
	payment, ok := parseDecimal(record.Payment)
	if !ok {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("invalid payment: %s", record.Payment)}
	}
	expiration, ok := parseDecimal(record.Expiration)
	if !ok {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("invalid expiration: %s", record.Expiration)}
	}
	var data []byte
	if record.Data != "" && record.Data != "0x" {
		if data, err = hexutil.Decode(record.Data); err != nil {
			return nil, &model.DecodeError{Reason: "data", Err: err}
		}
	}
	mode, ok := model.ParseFulfillmentMode(record.Mode)
	if !ok {
		mode = ModeForDataVersion(record.DataVersion)
	}

	req := &model.RunRequest{
		Requester:    common.HexToAddress(record.Requester),
		Payment:      payment,
		CallbackAddr: common.HexToAddress(record.CallbackAddr),
		Expiration:   expiration,
		DataVersion:  record.DataVersion,
		Data:         data,
		Topic:        common.HexToHash(record.Topic),
		Emitter:      common.HexToAddress(record.Address),
		Mode:         mode,
	}
	copy(req.SpecID[:], specID)
	copy(req.RequestID[:], requestID)
	copy(req.CallbackFunc[:], callbackFunc)
	return req, nil
}

func decodeFixed(input string, size int) ([]byte, error) {
	raw, err := hexutil.Decode(input)
	if err != nil {
		return nil, err
	}
	if len(raw) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(raw))
	}
	return raw, nil
}
