package agreement

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const coordinatorABIJSON = `[
  {
    "inputs": [
      {"internalType": "bytes", "name": "_serviceAgreementData", "type": "bytes"},
      {"internalType": "bytes", "name": "_oracleSignaturesData", "type": "bytes"}
    ],
    "name": "initiateServiceAgreement",
    "outputs": [{"internalType": "bytes32", "name": "serviceAgreementID", "type": "bytes32"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes32", "name": "", "type": "bytes32"}],
    "name": "serviceAgreements",
    "outputs": [
      {"internalType": "uint256", "name": "payment", "type": "uint256"},
      {"internalType": "uint256", "name": "expiration", "type": "uint256"},
      {"internalType": "uint256", "name": "endAt", "type": "uint256"},
      {"internalType": "bytes32", "name": "requestDigest", "type": "bytes32"},
      {"internalType": "address", "name": "aggregator", "type": "address"},
      {"internalType": "bytes4", "name": "aggInitiateJobSelector", "type": "bytes4"},
      {"internalType": "bytes4", "name": "aggFulfillSelector", "type": "bytes4"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const (
	methodInitiate          = "initiateServiceAgreement"
	methodServiceAgreements = "serviceAgreements"
	onChainAgreementFields  = 7
)

// agreementTypes is the field layout of an encoded service agreement.
// The order is consensus-critical.
var agreementTypes = []string{
	"uint256", // payment
	"uint256", // expiration
	"uint256", // endAt
	"address[]",
	"bytes32", // requestDigest
	"address", // aggregator
	"bytes4",  // aggInitiateJobSelector
	"bytes4",  // aggFulfillSelector
}

var (
	coordinatorABI     abi.ABI
	coordinatorABIOnce sync.Once
	coordinatorABIErr  error

	agreementArgs     abi.Arguments
	agreementArgsOnce sync.Once
	agreementArgsErr  error
)

// CoordinatorABI returns the parsed coordinator ABI.
func CoordinatorABI() (abi.ABI, error) {
	coordinatorABIOnce.Do(func() {
		coordinatorABI, coordinatorABIErr = abi.JSON(strings.NewReader(coordinatorABIJSON))
	})
	return coordinatorABI, coordinatorABIErr
}

func agreementArguments() (abi.Arguments, error) {
	agreementArgsOnce.Do(func() {
		args := make(abi.Arguments, 0, len(agreementTypes))
		for _, name := range agreementTypes {
			typ, err := abi.NewType(name, "", nil)
			if err != nil {
				agreementArgsErr = err
				return
			}
			args = append(args, abi.Argument{Type: typ})
		}
		agreementArgs = args
	})
	return agreementArgs, agreementArgsErr
}
