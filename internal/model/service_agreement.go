package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ServiceAgreement binds a requester, an ordered oracle set and an aggregator.
type ServiceAgreement struct {
	Payment                *big.Int
	Expiration             *big.Int
	EndAt                  *big.Int
	Oracles                []common.Address
	RequestDigest          [32]byte
	Aggregator             common.Address
	AggInitiateJobSelector [4]byte
	AggFulfillSelector     [4]byte
}

// OnChainServiceAgreement is the record returned by the coordinator's serviceAgreements getter.
type OnChainServiceAgreement struct {
	Payment                *big.Int
	Expiration             *big.Int
	EndAt                  *big.Int
	RequestDigest          [32]byte
	Aggregator             common.Address
	AggInitiateJobSelector [4]byte
	AggFulfillSelector     [4]byte
}

// Signature is a recoverable secp256k1 signature with V in {27, 28}.
type Signature struct {
	V uint8
	R [32]byte
	S [32]byte
}

// OracleSignatures holds N signatures as parallel arrays indexed like ServiceAgreement.Oracles.
type OracleSignatures struct {
	Vs []uint8
	Rs [][32]byte
	Ss [][32]byte
}

// Len returns the number of signatures.
func (s OracleSignatures) Len() int {
	return len(s.Vs)
}
