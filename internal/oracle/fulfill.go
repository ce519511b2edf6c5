package oracle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"oracleWire/internal/model"
)

// hexWordLen is the length of a 0x-prefixed hex encoded bytes32.
const hexWordLen = 2 + 32*2

// FulfillParams is the argument tuple of a fulfillment call.
type FulfillParams struct {
	Mode               model.FulfillmentMode
	RequestID          [32]byte
	Payment            *big.Int
	CallbackAddress    common.Address
	CallbackFunctionID [4]byte
	Expiration         *big.Int
	Data               []byte
	TxOpts             *bind.TransactOpts
}

// Method returns the fulfillment entry point the params target.
func (p *FulfillParams) Method() string {
	if p.Mode == model.FulfillmentMulti {
		return methodFulfill2
	}
	return methodFulfill
}

// Values returns the seven-element tuple in contract argument order, followed by the tx options.
// For single-word fulfillment the data element is a [32]byte.
func (p *FulfillParams) Values() []interface{} {
	return []interface{}{
		p.RequestID,
		p.Payment,
		p.CallbackAddress,
		p.CallbackFunctionID,
		p.Expiration,
		p.dataArg(),
		p.TxOpts,
	}
}

// Pack builds the fulfillment call data.
func (p *FulfillParams) Pack() ([]byte, error) {
	parsed, err := OracleABI()
	if err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}
	out, err := parsed.Pack(p.Method(), p.RequestID, orZero(p.Payment), p.CallbackAddress, p.CallbackFunctionID, orZero(p.Expiration), p.dataArg())
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", p.Method(), err)
	}
	return out, nil
}

func (p *FulfillParams) dataArg() interface{} {
	if p.Mode == model.FulfillmentMulti {
		return p.Data
	}
	var word [32]byte
	copy(word[:], p.Data)
	return word
}

// CancelParams is the argument tuple of a cancelOracleRequest call.
type CancelParams struct {
	RequestID    [32]byte
	Payment      *big.Int
	CallbackFunc [4]byte
	Expiration   *big.Int
	TxOpts       *bind.TransactOpts
}

// Values returns the four contract arguments followed by the tx options.
func (p *CancelParams) Values() []interface{} {
	return []interface{}{p.RequestID, p.Payment, p.CallbackFunc, p.Expiration, p.TxOpts}
}

// Pack builds the cancellation call data.
func (p *CancelParams) Pack() ([]byte, error) {
	parsed, err := OracleABI()
	if err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}
	out, err := parsed.Pack(methodCancel, p.RequestID, orZero(p.Payment), p.CallbackFunc, orZero(p.Expiration))
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", methodCancel, err)
	}
	return out, nil
}

// ConvertFulfillParams builds single-word fulfillment params.
//
// A response shorter than a hex encoded word is treated as text and right
// padded to 32 bytes; anything else must be a 0x-prefixed 32-byte word.
func ConvertFulfillParams(req *model.RunRequest, response string, opts *bind.TransactOpts) (*FulfillParams, error) {
	if req == nil {
		return nil, &model.ValidationError{Field: "runRequest", Reason: "required"}
	}
	if req.Mode != model.FulfillmentSingle {
		return nil, &model.ValidationError{Field: "mode", Reason: fmt.Sprintf("request expects %s fulfillment", req.Mode)}
	}

	word, err := responseWord(response)
	if err != nil {
		return nil, err
	}

	params := fulfillBase(req, opts)
	params.Mode = model.FulfillmentSingle
	params.Data = word[:]
	return params, nil
}

// ConvertFulfill2Params builds multi-word fulfillment params, ABI encoding
// responseValues according to responseTypes.
func ConvertFulfill2Params(req *model.RunRequest, responseTypes []string, responseValues []interface{}, opts *bind.TransactOpts) (*FulfillParams, error) {
	if req == nil {
		return nil, &model.ValidationError{Field: "runRequest", Reason: "required"}
	}
	if req.Mode != model.FulfillmentMulti {
		return nil, &model.ValidationError{Field: "mode", Reason: fmt.Sprintf("request expects %s fulfillment", req.Mode)}
	}

	data, err := EncodeResponse(responseTypes, responseValues)
	if err != nil {
		return nil, err
	}

	params := fulfillBase(req, opts)
	params.Mode = model.FulfillmentMulti
	params.Data = data
	return params, nil
}

// ConvertCancelParams builds cancellation params for an expired request.
func ConvertCancelParams(req *model.RunRequest, opts *bind.TransactOpts) (*CancelParams, error) {
	if req == nil {
		return nil, &model.ValidationError{Field: "runRequest", Reason: "required"}
	}
	return &CancelParams{
		RequestID:    req.RequestID,
		Payment:      orZero(req.Payment),
		CallbackFunc: req.CallbackFunc,
		Expiration:   orZero(req.Expiration),
		TxOpts:       opts,
	}, nil
}

// EncodeResponse ABI encodes values according to the given solidity types.
func EncodeResponse(responseTypes []string, responseValues []interface{}) ([]byte, error) {
	if len(responseTypes) != len(responseValues) {
		return nil, &model.ValidationError{
			Field:  "responseValues",
			Reason: fmt.Sprintf("%d types for %d values", len(responseTypes), len(responseValues)),
		}
	}

	args := make(abi.Arguments, 0, len(responseTypes))
	for _, name := range responseTypes {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, &model.ValidationError{Field: "responseTypes", Reason: err.Error()}
		}
		args = append(args, abi.Argument{Type: typ})
	}

	data, err := args.Pack(responseValues...)
	if err != nil {
		return nil, &model.ValidationError{Field: "responseValues", Reason: err.Error()}
	}
	return data, nil
}

func fulfillBase(req *model.RunRequest, opts *bind.TransactOpts) *FulfillParams {
	return &FulfillParams{
		RequestID:          req.RequestID,
		Payment:            orZero(req.Payment),
		CallbackAddress:    req.CallbackAddr,
		CallbackFunctionID: req.CallbackFunc,
		Expiration:         orZero(req.Expiration),
		TxOpts:             opts,
	}
}

func responseWord(response string) ([32]byte, error) {
	var word [32]byte
	if len(response) < hexWordLen {
		if len(response) > 31 {
			return word, &model.ValidationError{Field: "response", Reason: "text longer than 31 bytes"}
		}
		copy(word[:], response)
		return word, nil
	}

	raw, err := hexutil.Decode(response)
	if err != nil {
		return word, &model.ValidationError{Field: "response", Reason: err.Error()}
	}
	if len(raw) != 32 {
		return word, &model.ValidationError{Field: "response", Reason: fmt.Sprintf("expected 32 bytes, got %d", len(raw))}
	}
	copy(word[:], raw)
	return word, nil
}
