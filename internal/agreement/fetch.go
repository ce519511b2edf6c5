package agreement

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"oracleWire/internal/model"
)

// ContractCaller performs read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Fetch reads the coordinator's serviceAgreements record for said at the latest block.
func Fetch(ctx context.Context, caller ContractCaller, coordinator common.Address, said common.Hash) (model.OnChainServiceAgreement, error) {
	parsed, err := CoordinatorABI()
	if err != nil {
		return model.OnChainServiceAgreement{}, fmt.Errorf("parse coordinator abi: %w", err)
	}
	input, err := parsed.Pack(methodServiceAgreements, [32]byte(said))
	if err != nil {
		return model.OnChainServiceAgreement{}, fmt.Errorf("pack %s: %w", methodServiceAgreements, err)
	}

	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &coordinator, Data: input}, nil)
	if err != nil {
		return model.OnChainServiceAgreement{}, fmt.Errorf("call %s: %w", methodServiceAgreements, err)
	}
	return decodeOnChainAgreement(out)
}

func decodeOnChainAgreement(out []byte) (model.OnChainServiceAgreement, error) {
	if len(out) == 0 {
		return model.OnChainServiceAgreement{}, &model.DecodeError{Reason: "empty serviceAgreements result, is the coordinator deployed?"}
	}
	parsed, err := CoordinatorABI()
	if err != nil {
		return model.OnChainServiceAgreement{}, fmt.Errorf("parse coordinator abi: %w", err)
	}
	values, err := parsed.Unpack(methodServiceAgreements, out)
	if err != nil {
		return model.OnChainServiceAgreement{}, &model.DecodeError{Reason: "unpack serviceAgreements", Err: err}
	}
	if len(values) != onChainAgreementFields {
		return model.OnChainServiceAgreement{}, &model.DecodeError{Reason: fmt.Sprintf("unexpected serviceAgreements values: %d", len(values))}
	}

	var (
		rec model.OnChainServiceAgreement
		ok  [onChainAgreementFields]bool
	)
	rec.Payment, ok[0] = values[0].(*big.Int)
	rec.Expiration, ok[1] = values[1].(*big.Int)
	rec.EndAt, ok[2] = values[2].(*big.Int)
	rec.RequestDigest, ok[3] = values[3].([32]byte)
	rec.Aggregator, ok[4] = values[4].(common.Address)
	rec.AggInitiateJobSelector, ok[5] = values[5].([4]byte)
	rec.AggFulfillSelector, ok[6] = values[6].([4]byte)
	for i, good := range ok {
		if !good {
			return model.OnChainServiceAgreement{}, &model.DecodeError{Reason: fmt.Sprintf("unsupported type %T at field %d", values[i], i)}
		}
	}
	return rec, nil
}
