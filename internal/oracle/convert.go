package oracle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil int")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asBytes32(value interface{}) ([32]byte, error) {
	switch v := value.(type) {
	case [32]byte:
		return v, nil
	case common.Hash:
		return v, nil
	default:
		return [32]byte{}, fmt.Errorf("unsupported bytes32 type %T", value)
	}
}

func asBytes4(value interface{}) ([4]byte, error) {
	switch v := value.(type) {
	case [4]byte:
		return v, nil
	default:
		return [4]byte{}, fmt.Errorf("unsupported bytes4 type %T", value)
	}
}

func asBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported bytes type %T", value)
	}
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func orZero(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return value
}

func parseDecimal(input string) (*big.Int, bool) {
	if input == "" {
		return new(big.Int), true
	}
	return new(big.Int).SetString(input, 10)
}
