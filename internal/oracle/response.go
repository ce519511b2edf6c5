package oracle

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"oracleWire/internal/model"
)

// ParseResponseValues converts textual values into the Go types the ABI
// packer expects for responseTypes. Integers are decimal or 0x hex, bytes
// are 0x hex. Only elementary types are supported.
func ParseResponseValues(responseTypes []string, values []string) ([]interface{}, error) {
	if len(responseTypes) != len(values) {
		return nil, &model.ValidationError{
			Field:  "responseValues",
			Reason: fmt.Sprintf("%d types for %d values", len(responseTypes), len(values)),
		}
	}

	out := make([]interface{}, 0, len(values))
	for i, name := range responseTypes {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, &model.ValidationError{Field: "responseTypes", Reason: err.Error()}
		}
		value, err := parseResponseValue(typ, strings.TrimSpace(values[i]))
		if err != nil {
			return nil, &model.ValidationError{Field: "responseValues", Reason: fmt.Sprintf("value %d (%s): %v", i, name, err)}
		}
		out = append(out, value)
	}
	return out, nil
}

func parseResponseValue(typ abi.Type, raw string) (interface{}, error) {
	switch typ.T {
	case abi.UintTy, abi.IntTy:
		n, ok := math.ParseBig256(raw)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		if typ.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s for %s", raw, typ)
		}
		goType := typ.GetType()
		if goType.Kind() == reflect.Ptr {
			if !integerFits(typ, n) {
				return nil, fmt.Errorf("%s out of range for %s", raw, typ)
			}
			return n, nil
		}
		value := reflect.New(goType).Elem()
		if typ.T == abi.UintTy {
			if !n.IsUint64() || value.OverflowUint(n.Uint64()) {
				return nil, fmt.Errorf("%s out of range for %s", raw, typ)
			}
			value.SetUint(n.Uint64())
		} else {
			if !n.IsInt64() || value.OverflowInt(n.Int64()) {
				return nil, fmt.Errorf("%s out of range for %s", raw, typ)
			}
			value.SetInt(n.Int64())
		}
		return value.Interface(), nil
	case abi.BoolTy:
		return strconv.ParseBool(raw)
	case abi.StringTy:
		return raw, nil
	case abi.AddressTy:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid address %q", raw)
		}
		return common.HexToAddress(raw), nil
	case abi.BytesTy:
		return hexutil.Decode(raw)
	case abi.FixedBytesTy:
		decoded, err := hexutil.Decode(raw)
		if err != nil {
			return nil, err
		}
		if len(decoded) > typ.Size {
			return nil, fmt.Errorf("%d bytes do not fit %s", len(decoded), typ)
		}
		value := reflect.New(typ.GetType()).Elem()
		reflect.Copy(value, reflect.ValueOf(decoded))
		return value.Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported type %s", typ)
	}
}

// integerFits reports whether n is representable as typ: [0, 2^size) for
// uintN, [-2^(size-1), 2^(size-1)) for intN.
func integerFits(typ abi.Type, n *big.Int) bool {
	if typ.T == abi.UintTy {
		return n.Sign() >= 0 && n.BitLen() <= typ.Size
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
	return n.Cmp(limit) < 0 && n.Cmp(new(big.Int).Neg(limit)) >= 0
}
