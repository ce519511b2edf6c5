package oracle

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"oracleWire/internal/model"
)

func TestParseResponseValues(t *testing.T) {
	types := []string{"uint256", "uint8", "int64", "bool", "string", "address", "bytes", "bytes4"}
	values, err := ParseResponseValues(types, []string{
		"0x10", "7", "-3", "true", "ETH-USD", "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", "0xc0ffee", "0xdeadbeef",
	})
	require.NoError(t, err)

	require.Equal(t, big.NewInt(16), values[0])
	require.Equal(t, uint8(7), values[1])
	require.Equal(t, int64(-3), values[2])
	require.Equal(t, true, values[3])
	require.Equal(t, "ETH-USD", values[4])
	require.Equal(t, common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"), values[5])
	require.Equal(t, []byte{0xc0, 0xff, 0xee}, values[6])
	require.Equal(t, [4]byte{0xde, 0xad, 0xbe, 0xef}, values[7])

	encoded, err := EncodeResponse(types, values)
	require.NoError(t, err)
	require.Equal(t, common.LeftPadBytes([]byte{0x10}, 32), encoded[:32])
}

func TestParseResponseValuesRejects(t *testing.T) {
	cases := []struct {
		typ   string
		value string
	}{
		{"uint8", "256"},
		{"uint256", "-1"},
		{"int8", "200"},
		{"uint128", new(big.Int).Lsh(big.NewInt(1), 200).String()},
		{"int128", new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 200)).String()},
		{"int128", new(big.Int).Lsh(big.NewInt(1), 127).String()},
		{"uint72", "0x1000000000000000000"},
		{"bool", "maybe"},
		{"address", "0x12"},
		{"bytes2", "0x010203"},
		{"uint256[]", "1"},
		{"notatype", "1"},
	}
	for _, tc := range cases {
		_, err := ParseResponseValues([]string{tc.typ}, []string{tc.value})
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr, "%s=%s", tc.typ, tc.value)
	}

	_, err := ParseResponseValues([]string{"uint256"}, nil)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParseResponseValuesWideIntegerBounds(t *testing.T) {
	maxInt128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxUint128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	values, err := ParseResponseValues(
		[]string{"int128", "int128", "uint128"},
		[]string{maxInt128.String(), minInt128.String(), maxUint128.String()},
	)
	require.NoError(t, err)
	require.Zero(t, maxInt128.Cmp(values[0].(*big.Int)))
	require.Zero(t, minInt128.Cmp(values[1].(*big.Int)))
	require.Zero(t, maxUint128.Cmp(values[2].(*big.Int)))

	_, err = EncodeResponse([]string{"int128", "int128", "uint128"}, values)
	require.NoError(t, err)
}
