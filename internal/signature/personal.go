package signature

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"oracleWire/internal/model"
)

// PersonalMessageHash hashes message behind the "\x19Ethereum Signed Message:\n<len>" prefix.
// The length is the raw byte length of message.
func PersonalMessageHash(message []byte) []byte {
	return accounts.TextHash(message)
}

// PersonalSign produces a recoverable signature over the personal-message hash of message.
// The signer runs on its own goroutine so a cancelled or expired ctx returns
// even when the key operation ignores it.
func PersonalSign(ctx context.Context, message []byte, signer Signer) (model.Signature, error) {
	if signer == nil {
		return model.Signature{}, &model.SigningError{Err: ErrSignerUnavailable}
	}
	address := signer.Address()
	hash := PersonalMessageHash(message)

	type result struct {
		raw []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		raw, err := signer.SignHash(ctx, hash)
		done <- result{raw: raw, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return model.Signature{}, &model.SigningError{Signer: address, Err: ctx.Err()}
	case res = <-done:
	}
	if res.err != nil {
		return model.Signature{}, &model.SigningError{Signer: address, Err: res.err}
	}
	if len(res.raw) != crypto.SignatureLength {
		return model.Signature{}, &model.SigningError{Signer: address, Err: fmt.Errorf("signature length %d", len(res.raw))}
	}

	var sig model.Signature
	copy(sig.R[:], res.raw[:32])
	copy(sig.S[:], res.raw[32:64])
	sig.V = res.raw[64]
	if sig.V < 27 {
		sig.V += 27
	}
	if sig.V != 27 && sig.V != 28 {
		return model.Signature{}, &model.SigningError{Signer: address, Err: fmt.Errorf("recovery id %d", res.raw[64])}
	}
	return sig, nil
}

// RecoverAddressFromSignature recovers the address that personal-signed message.
func RecoverAddressFromSignature(message []byte, sig model.Signature) (common.Address, error) {
	if sig.V != 27 && sig.V != 28 {
		return common.Address{}, &model.RecoveryError{Reason: fmt.Sprintf("recovery parameter %d not in {27, 28}", sig.V)}
	}
	r := new(big.Int).SetBytes(sig.R[:])
	s := new(big.Int).SetBytes(sig.S[:])
	if !crypto.ValidateSignatureValues(sig.V-27, r, s, false) {
		return common.Address{}, &model.RecoveryError{Reason: "signature values out of range"}
	}

	raw := make([]byte, crypto.SignatureLength)
	copy(raw[:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[64] = sig.V - 27

	pub, err := crypto.SigToPub(PersonalMessageHash(message), raw)
	if err != nil {
		return common.Address{}, &model.RecoveryError{Reason: "invalid curve point", Err: err}
	}
	return crypto.PubkeyToAddress(*pub), nil
}
