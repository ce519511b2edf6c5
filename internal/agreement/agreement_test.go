package agreement

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"oracleWire/internal/config"
	"oracleWire/internal/model"
	"oracleWire/internal/signature"
)

var (
	oracle1 = common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")
	oracle2 = common.HexToAddress("0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF")
)

func testKey(t *testing.T, n int64) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.ToECDSA(common.LeftPadBytes(big.NewInt(n).Bytes(), 32))
	require.NoError(t, err)
	return key
}

func fixtureAgreement(t *testing.T, oracles ...common.Address) model.ServiceAgreement {
	t.Helper()
	sa, err := New(
		WithPayment(big.NewInt(0)),
		WithExpiration(big.NewInt(300)),
		WithEndAt(big.NewInt(0)),
		WithOracles(oracles...),
	)
	require.NoError(t, err)
	return sa
}

func TestGenerateSAIDFixture(t *testing.T) {
	sa := fixtureAgreement(t, oracle1)

	said, err := GenerateSAID(sa)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xe6d0bc715a6500e36c4c1ad8c00d3136550ae375e5fabf05924cb574073e6a93"), said)

	again, err := GenerateSAID(fixtureAgreement(t, oracle1))
	require.NoError(t, err)
	require.Equal(t, said, again)
}

func TestEncodeLayout(t *testing.T) {
	encoded, err := Encode(fixtureAgreement(t, oracle1))
	require.NoError(t, err)

	// 8 head words + array length + one address
	require.Len(t, encoded, 10*32)
	require.Equal(t, common.LeftPadBytes(big.NewInt(300).Bytes(), 32), encoded[32:64])
	require.Equal(t, common.LeftPadBytes(big.NewInt(256).Bytes(), 32), encoded[96:128])
	require.Equal(t, common.LeftPadBytes([]byte{1}, 32), encoded[256:288])
	require.Equal(t, common.LeftPadBytes(oracle1.Bytes(), 32), encoded[288:320])
}

func TestGenerateSAIDOracleOrder(t *testing.T) {
	forward, err := GenerateSAID(fixtureAgreement(t, oracle1, oracle2))
	require.NoError(t, err)
	reverse, err := GenerateSAID(fixtureAgreement(t, oracle2, oracle1))
	require.NoError(t, err)

	require.Equal(t, common.HexToHash("0x399971f98810ed22bcc4f1e63a99f7d784ef2e75e70f64fd794dc5eb6d987444"), forward)
	require.Equal(t, common.HexToHash("0xeda892081a2364d3143e976fa9d9c1651b1550a65d16db62235b3550df281b8f"), reverse)
}

func TestGenerateSAIDFieldSensitivity(t *testing.T) {
	base := fixtureAgreement(t, oracle1)
	baseSAID, err := GenerateSAID(base)
	require.NoError(t, err)

	cases := map[string]Option{
		"payment":                WithPayment(big.NewInt(1)),
		"expiration":             WithExpiration(big.NewInt(301)),
		"endAt":                  WithEndAt(big.NewInt(1)),
		"oracles":                WithOracles(oracle2),
		"requestDigest":          WithRequestDigest([32]byte{0x01}),
		"aggregator":             WithAggregator(common.HexToAddress("0x01")),
		"aggInitiateJobSelector": WithAggInitiateJobSelector([4]byte{0, 0, 0, 1}),
		"aggFulfillSelector":     WithAggFulfillSelector([4]byte{0, 0, 0, 1}),
	}
	for name, opt := range cases {
		t.Run(name, func(t *testing.T) {
			changed := base
			opt(&changed)
			said, err := GenerateSAID(changed)
			require.NoError(t, err)
			require.NotEqual(t, baseSAID, said)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	sa, err := New(WithOracles(oracle1))
	require.NoError(t, err)
	require.Equal(t, 0, sa.Payment.Cmp(DefaultPayment))
	require.EqualValues(t, 300, sa.Expiration.Int64())
	require.Zero(t, sa.EndAt.Sign())
	require.Equal(t, []common.Address{oracle1}, sa.Oracles)

	// defaults are fresh copies
	sa.Payment.SetInt64(7)
	require.NotEqual(t, 0, Defaults().Payment.Cmp(big.NewInt(7)))
}

func TestNewValidation(t *testing.T) {
	var verr *model.ValidationError

	_, err := New()
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "oracles", verr.Field)

	_, err = New(WithOracles())
	require.ErrorAs(t, err, &verr)

	_, err = New(WithOracles(oracle1), WithPayment(big.NewInt(-1)))
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "payment", verr.Field)

	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = New(WithOracles(oracle1), WithExpiration(tooBig))
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "expiration", verr.Field)

	_, err = Encode(model.ServiceAgreement{})
	require.ErrorAs(t, err, &verr)
}

func TestAssertServiceAgreementEmpty(t *testing.T) {
	require.NoError(t, AssertServiceAgreementEmpty(model.OnChainServiceAgreement{}))
	require.NoError(t, AssertServiceAgreementEmpty(model.OnChainServiceAgreement{
		Payment:    new(big.Int),
		Expiration: new(big.Int),
		EndAt:      new(big.Int),
		// aggregator and selectors are not checked
		Aggregator: oracle1,
	}))

	err := AssertServiceAgreementEmpty(model.OnChainServiceAgreement{
		Payment:       big.NewInt(1),
		EndAt:         big.NewInt(5),
		RequestDigest: [32]byte{0x02},
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "payment,endAt,requestDigest", verr.Field)
}

func TestGenerateOracleSignatures(t *testing.T) {
	sa := fixtureAgreement(t, oracle2, oracle1)
	keys := signature.NewKeys(signature.NewKeySigner(testKey(t, 1)), signature.NewKeySigner(testKey(t, 2)))

	sigs, err := GenerateOracleSignatures(context.Background(), sa, keys, time.Second)
	require.NoError(t, err)
	require.Equal(t, 2, sigs.Len())

	said, err := GenerateSAID(sa)
	require.NoError(t, err)
	for i, oracle := range sa.Oracles {
		recovered, err := signature.RecoverAddressFromSignature(said.Bytes(), model.Signature{V: sigs.Vs[i], R: sigs.Rs[i], S: sigs.Ss[i]})
		require.NoError(t, err)
		require.Equal(t, oracle, recovered)
	}
}

func TestGenerateOracleSignaturesMissingKey(t *testing.T) {
	sa := fixtureAgreement(t, oracle1, oracle2)
	keys := signature.NewKeys(signature.NewKeySigner(testKey(t, 1)))

	_, err := GenerateOracleSignatures(context.Background(), sa, keys, 0)
	var serr *model.SigningError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, oracle2, serr.Signer)
	require.ErrorIs(t, err, signature.ErrSignerUnavailable)
}

func TestInitiateSAParams(t *testing.T) {
	keys := signature.NewKeys(signature.NewKeySigner(testKey(t, 1)))

	params, err := InitiateSAParams(context.Background(), keys, 0,
		WithPayment(big.NewInt(0)),
		WithOracles(oracle1),
	)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xe6d0bc715a6500e36c4c1ad8c00d3136550ae375e5fabf05924cb574073e6a93"), params.SAID)

	encoded, err := Encode(params.Agreement)
	require.NoError(t, err)
	require.Equal(t, encoded, params.EncodedAgreement)

	decodedSigs, err := signature.Decode(params.EncodedSignatures)
	require.NoError(t, err)
	require.Equal(t, params.Signatures, decodedSigs)

	calldata, err := params.Pack()
	require.NoError(t, err)
	require.Equal(t, crypto.Keccak256([]byte("initiateServiceAgreement(bytes,bytes)"))[:4], calldata[:4])

	parsed, err := CoordinatorABI()
	require.NoError(t, err)
	method, err := parsed.MethodById(calldata[:4])
	require.NoError(t, err)
	args, err := method.Inputs.Unpack(calldata[4:])
	require.NoError(t, err)
	require.Equal(t, params.EncodedAgreement, args[0])
	require.Equal(t, params.EncodedSignatures, args[1])

	_, err = InitiateSAParams(context.Background(), keys, 0)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestFromConfig(t *testing.T) {
	opts, err := FromConfig(config.AgreementConfig{
		Payment:            "0",
		Expiration:         "300",
		Oracles:            []string{oracle1.Hex()},
		RequestDigest:      "0x" + common.Bytes2Hex(make([]byte, 32)),
		AggFulfillSelector: "0x00000000",
	})
	require.NoError(t, err)

	sa, err := New(opts...)
	require.NoError(t, err)
	said, err := GenerateSAID(sa)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xe6d0bc715a6500e36c4c1ad8c00d3136550ae375e5fabf05924cb574073e6a93"), said)

	bad := []config.AgreementConfig{
		{Payment: "lots"},
		{Oracles: []string{"0x1234"}},
		{RequestDigest: "0x01"},
		{Aggregator: "nope"},
		{AggInitiateJobSelector: "0x0102"},
	}
	for _, cfg := range bad {
		_, err := FromConfig(cfg)
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr, "%+v", cfg)
	}
}

type stubCaller struct {
	out  []byte
	msgs []ethereum.CallMsg
}

func (c *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.msgs = append(c.msgs, msg)
	return c.out, nil
}

func TestFetch(t *testing.T) {
	parsed, err := CoordinatorABI()
	require.NoError(t, err)
	out, err := parsed.Methods[methodServiceAgreements].Outputs.Pack(
		big.NewInt(5), big.NewInt(300), big.NewInt(0), [32]byte{0x0a}, oracle2, [4]byte{1, 2, 3, 4}, [4]byte{5, 6, 7, 8},
	)
	require.NoError(t, err)

	coordinator := common.HexToAddress("0x9999999999999999999999999999999999999999")
	said := common.HexToHash("0xe6d0bc715a6500e36c4c1ad8c00d3136550ae375e5fabf05924cb574073e6a93")
	caller := &stubCaller{out: out}

	rec, err := Fetch(context.Background(), caller, coordinator, said)
	require.NoError(t, err)
	require.EqualValues(t, 5, rec.Payment.Int64())
	require.Equal(t, [32]byte{0x0a}, rec.RequestDigest)
	require.Equal(t, oracle2, rec.Aggregator)
	require.Equal(t, [4]byte{5, 6, 7, 8}, rec.AggFulfillSelector)

	require.Len(t, caller.msgs, 1)
	require.Equal(t, coordinator, *caller.msgs[0].To)
	require.Equal(t, said.Bytes(), caller.msgs[0].Data[4:])

	require.Error(t, AssertServiceAgreementEmpty(rec))

	_, err = Fetch(context.Background(), &stubCaller{}, coordinator, said)
	var derr *model.DecodeError
	require.ErrorAs(t, err, &derr)
}
