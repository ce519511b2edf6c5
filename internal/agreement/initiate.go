package agreement

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"oracleWire/internal/model"
	"oracleWire/internal/signature"
)

// GenerateOracleSignatures personal-signs the SAID of sa with every oracle's
// signer and combines the results in oracle order. A positive timeout bounds
// each signer.
func GenerateOracleSignatures(ctx context.Context, sa model.ServiceAgreement, keys signature.KeySource, timeout time.Duration) (model.OracleSignatures, error) {
	said, err := GenerateSAID(sa)
	if err != nil {
		return model.OracleSignatures{}, err
	}
	if keys == nil {
		return model.OracleSignatures{}, &model.SigningError{Err: signature.ErrSignerUnavailable}
	}

	signers := make([]signature.Signer, 0, len(sa.Oracles))
	for _, oracle := range sa.Oracles {
		signer, err := keys.Signer(oracle)
		if err != nil {
			return model.OracleSignatures{}, err
		}
		if signer.Address() != oracle {
			return model.OracleSignatures{}, &model.SigningError{
				Signer: oracle,
				Err:    fmt.Errorf("key source returned signer %s", signer.Address().Hex()),
			}
		}
		signers = append(signers, signer)
	}

	sigs, err := signature.SignAll(ctx, said.Bytes(), signers, timeout)
	if err != nil {
		return model.OracleSignatures{}, err
	}
	return signature.Combine(sigs), nil
}

// InitiateParams holds everything needed to initiate an agreement on-chain.
type InitiateParams struct {
	Agreement         model.ServiceAgreement
	SAID              common.Hash
	EncodedAgreement  []byte
	Signatures        model.OracleSignatures
	EncodedSignatures []byte
}

// InitiateSAParams builds an agreement from opts, signs its SAID with every
// oracle and encodes both halves of the initiation call.
func InitiateSAParams(ctx context.Context, keys signature.KeySource, timeout time.Duration, opts ...Option) (*InitiateParams, error) {
	sa, err := New(opts...)
	if err != nil {
		return nil, err
	}
	encoded, err := Encode(sa)
	if err != nil {
		return nil, err
	}
	sigs, err := GenerateOracleSignatures(ctx, sa, keys, timeout)
	if err != nil {
		return nil, err
	}
	encodedSigs, err := signature.Encode(sigs)
	if err != nil {
		return nil, err
	}

	return &InitiateParams{
		Agreement:         sa,
		SAID:              crypto.Keccak256Hash(encoded),
		EncodedAgreement:  encoded,
		Signatures:        sigs,
		EncodedSignatures: encodedSigs,
	}, nil
}

// Pack builds initiateServiceAgreement(bytes,bytes) call data.
func (p *InitiateParams) Pack() ([]byte, error) {
	parsed, err := CoordinatorABI()
	if err != nil {
		return nil, fmt.Errorf("parse coordinator abi: %w", err)
	}
	out, err := parsed.Pack(methodInitiate, p.EncodedAgreement, p.EncodedSignatures)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", methodInitiate, err)
	}
	return out, nil
}
