package signature

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"oracleWire/internal/model"
)

// ErrSignerUnavailable is returned when no key is held for an oracle address.
var ErrSignerUnavailable = errors.New("signer unavailable")

// Signer is the signing capability of one oracle identity.
type Signer interface {
	Address() common.Address
	// SignHash returns a 65-byte [R || S || V] signature over a 32-byte hash.
	SignHash(ctx context.Context, hash []byte) ([]byte, error)
}

// KeySource resolves the signer for an oracle address.
type KeySource interface {
	Signer(address common.Address) (Signer, error)
}

// KeySigner signs with an in-memory private key.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Signer = (*KeySigner)(nil)

func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// KeySignerFromHex parses a hex private key, with or without 0x prefix.
func KeySignerFromHex(sk string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(sk), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewKeySigner(key), nil
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

func (s *KeySigner) SignHash(ctx context.Context, hash []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return crypto.Sign(hash, s.key)
}

// KeystoreSigner signs with an unlocked account of an encrypted keystore.
type KeystoreSigner struct {
	ks      *keystore.KeyStore
	account accounts.Account
}

var _ Signer = (*KeystoreSigner)(nil)

func (s *KeystoreSigner) Address() common.Address {
	return s.account.Address
}

func (s *KeystoreSigner) SignHash(ctx context.Context, hash []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.ks.SignHash(s.account, hash)
}

// Keys is a static KeySource.
type Keys map[common.Address]Signer

// NewKeys indexes signers by address.
func NewKeys(signers ...Signer) Keys {
	keys := make(Keys, len(signers))
	for _, signer := range signers {
		keys[signer.Address()] = signer
	}
	return keys
}

func (k Keys) Signer(address common.Address) (Signer, error) {
	signer, ok := k[address]
	if !ok {
		return nil, &model.SigningError{Signer: address, Err: ErrSignerUnavailable}
	}
	return signer, nil
}

// Keystore is a KeySource backed by a go-ethereum keystore directory.
type Keystore struct {
	ks *keystore.KeyStore
}

// OpenKeystore opens dir and unlocks every account with passphrase.
func OpenKeystore(dir, passphrase string, lightScrypt bool) (*Keystore, error) {
	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if lightScrypt {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}
	ks := keystore.NewKeyStore(dir, scryptN, scryptP)
	for _, account := range ks.Accounts() {
		if err := ks.Unlock(account, passphrase); err != nil {
			return nil, fmt.Errorf("unlock %s: %w", account.Address.Hex(), err)
		}
	}
	return &Keystore{ks: ks}, nil
}

// NewKeystore wraps an existing keystore; accounts must be unlocked by the caller.
func NewKeystore(ks *keystore.KeyStore) *Keystore {
	return &Keystore{ks: ks}
}

// Addresses lists the accounts held by the keystore.
func (k *Keystore) Addresses() []common.Address {
	accs := k.ks.Accounts()
	out := make([]common.Address, 0, len(accs))
	for _, acc := range accs {
		out = append(out, acc.Address)
	}
	return out
}

func (k *Keystore) Signer(address common.Address) (Signer, error) {
	account, err := k.ks.Find(accounts.Account{Address: address})
	if err != nil {
		return nil, &model.SigningError{Signer: address, Err: fmt.Errorf("%w: %v", ErrSignerUnavailable, err)}
	}
	return &KeystoreSigner{ks: k.ks, account: account}, nil
}
