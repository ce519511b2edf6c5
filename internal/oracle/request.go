package oracle

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"oracleWire/internal/model"
)

// RequestVariant selects the request entry point of a contract generation.
type RequestVariant uint8

const (
	// VariantOracleRequest targets oracleRequest(...) on the original oracle contract.
	VariantOracleRequest RequestVariant = iota
	// VariantRequestOracleData targets requestOracleData(...) on the later generation.
	VariantRequestOracleData
)

// Method returns the ABI method name for the variant.
func (v RequestVariant) Method() string {
	if v == VariantRequestOracleData {
		return "requestOracleData"
	}
	return "oracleRequest"
}

func (v RequestVariant) String() string {
	return v.Method()
}

// ParseRequestVariant accepts the entry point name (case-insensitive).
func ParseRequestVariant(input string) (RequestVariant, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "oraclerequest":
		return VariantOracleRequest, nil
	case "requestoracledata":
		return VariantRequestOracleData, nil
	default:
		return VariantOracleRequest, fmt.Errorf("unsupported request variant: %s", input)
	}
}

// OracleRequestCall is the decoded argument list of a request submission.
type OracleRequestCall struct {
	Variant            RequestVariant
	Sender             common.Address
	Payment            *big.Int
	SpecID             [32]byte
	CallbackAddr       common.Address
	CallbackFunctionID [4]byte
	Nonce              *big.Int
	DataVersion        *big.Int
	Data               []byte
}

// EncodeOracleRequest builds the call data of a request submission.
//
// The sender and payment arguments are encoded as zero: the token's
// transferAndCall path overwrites them with the real values before the
// oracle contract sees the call. A nil dataVersion encodes as 1.
func EncodeOracleRequest(
	variant RequestVariant,
	specID []byte,
	callbackAddr common.Address,
	callbackFunctionID []byte,
	nonce *big.Int,
	data []byte,
	dataVersion *big.Int,
) ([]byte, error) {
	if len(specID) != 32 {
		return nil, &model.ValidationError{Field: "specId", Reason: fmt.Sprintf("expected 32 bytes, got %d", len(specID))}
	}
	if len(callbackFunctionID) != 4 {
		return nil, &model.ValidationError{Field: "callbackFunctionId", Reason: fmt.Sprintf("expected 4 bytes, got %d", len(callbackFunctionID))}
	}
	if err := checkUint256("nonce", nonce); err != nil {
		return nil, err
	}
	if dataVersion == nil {
		dataVersion = big.NewInt(1)
	}
	if err := checkUint256("dataVersion", dataVersion); err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}

	parsed, err := OracleABI()
	if err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}

	var spec [32]byte
	copy(spec[:], specID)
	var fn [4]byte
	copy(fn[:], callbackFunctionID)

	out, err := parsed.Pack(variant.Method(), common.Address{}, new(big.Int), spec, callbackAddr, fn, nonce, dataVersion, data)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", variant.Method(), err)
	}
	return out, nil
}

// DecodeOracleRequestCall parses call data produced by EncodeOracleRequest.
func DecodeOracleRequestCall(calldata []byte) (*OracleRequestCall, error) {
	if len(calldata) < 4 {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("call data too short: %d bytes", len(calldata))}
	}

	parsed, err := OracleABI()
	if err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}

	method, err := parsed.MethodById(calldata[:4])
	if err != nil {
		return nil, &model.DecodeError{Reason: "unknown selector", Err: err}
	}

	var variant RequestVariant
	switch method.Name {
	case VariantOracleRequest.Method():
		variant = VariantOracleRequest
	case VariantRequestOracleData.Method():
		variant = VariantRequestOracleData
	default:
		return nil, &model.DecodeError{Reason: fmt.Sprintf("%s is not a request entry point", method.Name)}
	}

	values, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, &model.DecodeError{Reason: "unpack " + method.Name, Err: err}
	}
	if len(values) != oracleRequestDataArgs {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("unexpected %s values: %d", method.Name, len(values))}
	}

	call := &OracleRequestCall{Variant: variant}
	if call.Sender, err = asAddress(values[0]); err != nil {
		return nil, &model.DecodeError{Reason: "sender", Err: err}
	}
	if call.Payment, err = asBigInt(values[1]); err != nil {
		return nil, &model.DecodeError{Reason: "payment", Err: err}
	}
	if call.SpecID, err = asBytes32(values[2]); err != nil {
		return nil, &model.DecodeError{Reason: "specId", Err: err}
	}
	if call.CallbackAddr, err = asAddress(values[3]); err != nil {
		return nil, &model.DecodeError{Reason: "callbackAddress", Err: err}
	}
	if call.CallbackFunctionID, err = asBytes4(values[4]); err != nil {
		return nil, &model.DecodeError{Reason: "callbackFunctionId", Err: err}
	}
	if call.Nonce, err = asBigInt(values[5]); err != nil {
		return nil, &model.DecodeError{Reason: "nonce", Err: err}
	}
	if call.DataVersion, err = asBigInt(values[6]); err != nil {
		return nil, &model.DecodeError{Reason: "dataVersion", Err: err}
	}
	if call.Data, err = asBytes(values[7]); err != nil {
		return nil, &model.DecodeError{Reason: "data", Err: err}
	}
	return call, nil
}

// DecodeRunRequest parses an OracleRequest log into a RunRequest.
//
// The event signature is checked before any field is decoded, and no
// partially populated request is ever returned.
func DecodeRunRequest(log *types.Log) (*model.RunRequest, error) {
	if log == nil {
		return nil, &model.DecodeError{Reason: "log is nil"}
	}

	event, err := OracleRequestEvent()
	if err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}

	if len(log.Topics) == 0 {
		return nil, &model.DecodeError{Reason: "missing event signature topic"}
	}
	if log.Topics[0] != event.ID {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("unexpected event signature %s", log.Topics[0].Hex())}
	}
	if want := len(indexedArguments(event.Inputs)) + 1; len(log.Topics) != want {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("expected %d topics, got %d", want, len(log.Topics))}
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return nil, &model.DecodeError{Reason: "unpack " + event.Name, Err: err}
	}
	if len(values) != oracleRequestDataArgs {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("unexpected %s values: %d", event.Name, len(values))}
	}

	requester, err := asAddress(values[0])
	if err != nil {
		return nil, &model.DecodeError{Reason: "requester", Err: err}
	}
	requestID, err := asBytes32(values[1])
	if err != nil {
		return nil, &model.DecodeError{Reason: "requestId", Err: err}
	}
	payment, err := asBigInt(values[2])
	if err != nil {
		return nil, &model.DecodeError{Reason: "payment", Err: err}
	}
	callbackAddr, err := asAddress(values[3])
	if err != nil {
		return nil, &model.DecodeError{Reason: "callbackAddr", Err: err}
	}
	callbackFunc, err := asBytes4(values[4])
	if err != nil {
		return nil, &model.DecodeError{Reason: "callbackFunctionId", Err: err}
	}
	expiration, err := asBigInt(values[5])
	if err != nil {
		return nil, &model.DecodeError{Reason: "cancelExpiration", Err: err}
	}
	dataVersion, err := asBigInt(values[6])
	if err != nil {
		return nil, &model.DecodeError{Reason: "dataVersion", Err: err}
	}
	if !dataVersion.IsUint64() {
		return nil, &model.DecodeError{Reason: fmt.Sprintf("dataVersion out of range: %s", dataVersion)}
	}
	data, err := asBytes(values[7])
	if err != nil {
		return nil, &model.DecodeError{Reason: "data", Err: err}
	}

	return &model.RunRequest{
		SpecID:       log.Topics[1],
		Requester:    requester,
		RequestID:    requestID,
		Payment:      payment,
		CallbackAddr: callbackAddr,
		CallbackFunc: callbackFunc,
		Expiration:   expiration,
		DataVersion:  dataVersion.Uint64(),
		Data:         data,
		Topic:        event.ID,
		Emitter:      log.Address,
		Mode:         ModeForDataVersion(dataVersion.Uint64()),
	}, nil
}

// ModeForDataVersion maps the request's data version to a fulfillment mode.
// Operator-generation contracts emit version 2 and answer through fulfillOracleRequest2.
func ModeForDataVersion(version uint64) model.FulfillmentMode {
	if version >= 2 {
		return model.FulfillmentMulti
	}
	return model.FulfillmentSingle
}

func checkUint256(field string, value *big.Int) error {
	if value == nil {
		return &model.ValidationError{Field: field, Reason: "required"}
	}
	if value.Sign() < 0 {
		return &model.ValidationError{Field: field, Reason: "must be unsigned"}
	}
	if value.BitLen() > 256 {
		return &model.ValidationError{Field: field, Reason: "exceeds 256 bits"}
	}
	return nil
}
