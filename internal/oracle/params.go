package oracle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fxamacker/cbor/v2"
)

const (
	cborMajorMap     = 5
	cborIndefMapHead = 0xbf
	cborBreak        = 0xff
)

// ParseRequestParams decodes the CBOR request parameters carried in an
// OracleRequest's data field. Requester contracts write the map body without
// its header, so a missing map header is added before decoding.
func ParseRequestParams(data []byte) (map[string]interface{}, error) {
	var decoded interface{}
	if err := cbor.Unmarshal(addMapDelimiters(data), &decoded); err != nil {
		return nil, fmt.Errorf("decode cbor: %w", err)
	}

	normalized := normalizeCBOR(decoded)
	params, ok := normalized.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("request params are %T, not a map", decoded)
	}
	return params, nil
}

func addMapDelimiters(data []byte) []byte {
	if len(data) > 0 && data[0]>>5 == cborMajorMap {
		return data
	}
	out := make([]byte, 0, len(data)+2)
	out = append(out, cborIndefMapHead)
	out = append(out, data...)
	return append(out, cborBreak)
}

// normalizeCBOR turns generic CBOR maps into string-keyed maps so the
// result can be marshaled as JSON.
func normalizeCBOR(value interface{}) interface{} {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeCBOR(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = normalizeCBOR(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeCBOR(item)
		}
		return out
	case []byte:
		return hexutil.Encode(v)
	default:
		return v
	}
}
