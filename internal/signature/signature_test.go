package signature

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"oracleWire/internal/model"
)

func testKey(t *testing.T, n int64) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.ToECDSA(common.LeftPadBytes(big.NewInt(n).Bytes(), 32))
	require.NoError(t, err)
	return key
}

func TestPersonalMessageHash(t *testing.T) {
	want := crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n5hello"))
	require.Equal(t, want, PersonalMessageHash([]byte("hello")))

	// the prefix carries the byte length, not the rune count
	text := "héllo"
	want = crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n6" + text))
	require.Equal(t, want, PersonalMessageHash([]byte(text)))
}

func TestPersonalSignRecovers(t *testing.T) {
	messages := [][]byte{
		{},
		[]byte("service agreement"),
		common.HexToHash("0xe6d0bc715a6500e36c4c1ad8c00d3136550ae375e5fabf05924cb574073e6a93").Bytes(),
	}

	for n := int64(1); n <= 3; n++ {
		signer := NewKeySigner(testKey(t, n))
		for _, message := range messages {
			sig, err := PersonalSign(context.Background(), message, signer)
			require.NoError(t, err)
			require.Contains(t, []uint8{27, 28}, sig.V)

			recovered, err := RecoverAddressFromSignature(message, sig)
			require.NoError(t, err)
			require.Equal(t, signer.Address(), recovered)
		}
	}
}

func TestKeySignerAddress(t *testing.T) {
	require.Equal(t, common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"), NewKeySigner(testKey(t, 1)).Address())

	signer, err := KeySignerFromHex("0x0000000000000000000000000000000000000000000000000000000000000002")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF"), signer.Address())

	_, err = KeySignerFromHex("not hex")
	require.Error(t, err)
}

func TestRecoverAddressFromSignatureRejects(t *testing.T) {
	message := []byte("payload")
	sig, err := PersonalSign(context.Background(), message, NewKeySigner(testKey(t, 1)))
	require.NoError(t, err)

	var rerr *model.RecoveryError
	for _, v := range []uint8{0, 1, 26, 29} {
		bad := sig
		bad.V = v
		_, err := RecoverAddressFromSignature(message, bad)
		require.ErrorAs(t, err, &rerr, "v=%d", v)
	}

	zeroR := sig
	zeroR.R = [32]byte{}
	_, err = RecoverAddressFromSignature(message, zeroR)
	require.ErrorAs(t, err, &rerr)

	tampered, err := RecoverAddressFromSignature([]byte("other payload"), sig)
	require.NoError(t, err)
	require.NotEqual(t, NewKeySigner(testKey(t, 1)).Address(), tampered)
}

func TestCombinePreservesOrder(t *testing.T) {
	sigs := []model.Signature{
		{V: 28, R: [32]byte{0x01}, S: [32]byte{0x11}},
		{V: 27, R: [32]byte{0x02}, S: [32]byte{0x12}},
		{V: 28, R: [32]byte{0x03}, S: [32]byte{0x13}},
		{V: 28, R: [32]byte{0x03}, S: [32]byte{0x13}},
	}

	combined := Combine(sigs)
	require.Equal(t, len(sigs), combined.Len())
	for i, sig := range sigs {
		require.Equal(t, sig.V, combined.Vs[i])
		require.Equal(t, sig.R, combined.Rs[i])
		require.Equal(t, sig.S, combined.Ss[i])
	}

	empty := Combine(nil)
	require.Equal(t, 0, empty.Len())
}

func TestEncodeOracleSignatures(t *testing.T) {
	combined := Combine([]model.Signature{
		{V: 27, R: [32]byte{0xaa}, S: [32]byte{0xbb}},
		{V: 28, R: [32]byte{0xcc}, S: [32]byte{0xdd}},
	})

	encoded, err := Encode(combined)
	require.NoError(t, err)

	// 3 offsets + 3 arrays of (length word + 2 elements)
	require.Len(t, encoded, 3*32+3*3*32)
	require.Equal(t, common.LeftPadBytes([]byte{0x60}, 32), encoded[:32])
	require.Equal(t, common.LeftPadBytes([]byte{2}, 32), encoded[0x60:0x80])
	require.Equal(t, common.LeftPadBytes([]byte{27}, 32), encoded[0x80:0xa0])
	require.Equal(t, common.LeftPadBytes([]byte{28}, 32), encoded[0xa0:0xc0])

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, combined, decoded)
}

func TestEncodeOracleSignaturesLengthMismatch(t *testing.T) {
	_, err := Encode(model.OracleSignatures{Vs: []uint8{27}, Rs: [][32]byte{{}, {}}, Ss: [][32]byte{{}}})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

type delayedSigner struct {
	inner *KeySigner
	delay time.Duration
}

func (s *delayedSigner) Address() common.Address { return s.inner.Address() }

func (s *delayedSigner) SignHash(ctx context.Context, hash []byte) ([]byte, error) {
	time.Sleep(s.delay)
	return s.inner.SignHash(ctx, hash)
}

func TestSignAllFansInByIndex(t *testing.T) {
	message := []byte("agreement digest")
	signers := []Signer{
		&delayedSigner{inner: NewKeySigner(testKey(t, 1)), delay: 60 * time.Millisecond},
		&delayedSigner{inner: NewKeySigner(testKey(t, 2)), delay: 30 * time.Millisecond},
		&delayedSigner{inner: NewKeySigner(testKey(t, 3)), delay: 0},
	}

	sigs, err := SignAll(context.Background(), message, signers, time.Second)
	require.NoError(t, err)
	require.Len(t, sigs, 3)

	for i, sig := range sigs {
		recovered, err := RecoverAddressFromSignature(message, sig)
		require.NoError(t, err)
		require.Equal(t, signers[i].Address(), recovered, "index %d", i)
	}
}

type failingSigner struct {
	address common.Address
	err     error
}

func (s failingSigner) Address() common.Address { return s.address }

func (s failingSigner) SignHash(context.Context, []byte) ([]byte, error) { return nil, s.err }

type blockingSigner struct {
	address common.Address
}

func (s blockingSigner) Address() common.Address { return s.address }

func (s blockingSigner) SignHash(context.Context, []byte) ([]byte, error) {
	select {}
}

func TestSignAllFailure(t *testing.T) {
	bad := common.HexToAddress("0x3333333333333333333333333333333333333333")
	hsmDown := errors.New("hsm unreachable")
	signers := []Signer{NewKeySigner(testKey(t, 1)), failingSigner{address: bad, err: hsmDown}}

	sigs, err := SignAll(context.Background(), []byte("m"), signers, 0)
	require.Nil(t, sigs)

	var serr *model.SigningError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, bad, serr.Signer)
	require.ErrorIs(t, err, hsmDown)
}

func TestSignAllTimeout(t *testing.T) {
	stuck := common.HexToAddress("0x4444444444444444444444444444444444444444")
	signers := []Signer{NewKeySigner(testKey(t, 1)), blockingSigner{address: stuck}}

	_, err := SignAll(context.Background(), []byte("m"), signers, 20*time.Millisecond)
	var serr *model.SigningError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, stuck, serr.Signer)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKeysSignerUnavailable(t *testing.T) {
	keys := NewKeys(NewKeySigner(testKey(t, 1)))

	_, err := keys.Signer(NewKeySigner(testKey(t, 1)).Address())
	require.NoError(t, err)

	_, err = keys.Signer(common.HexToAddress("0x5555555555555555555555555555555555555555"))
	var serr *model.SigningError
	require.ErrorAs(t, err, &serr)
	require.ErrorIs(t, err, ErrSignerUnavailable)
}

func TestKeystoreSource(t *testing.T) {
	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.ImportECDSA(testKey(t, 7), "secret")
	require.NoError(t, err)

	source, err := OpenKeystore(dir, "secret", true)
	require.NoError(t, err)
	require.Contains(t, source.Addresses(), account.Address)

	signer, err := source.Signer(account.Address)
	require.NoError(t, err)

	message := []byte("keystore backed")
	sig, err := PersonalSign(context.Background(), message, signer)
	require.NoError(t, err)
	recovered, err := RecoverAddressFromSignature(message, sig)
	require.NoError(t, err)
	require.Equal(t, account.Address, recovered)

	_, err = source.Signer(common.HexToAddress("0x5555555555555555555555555555555555555555"))
	require.ErrorIs(t, err, ErrSignerUnavailable)

	_, err = OpenKeystore(dir, "wrong", true)
	require.Error(t, err)
}
