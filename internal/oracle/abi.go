package oracle

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const oracleABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes32", "name": "specId", "type": "bytes32"},
      {"indexed": false, "internalType": "address", "name": "requester", "type": "address"},
      {"indexed": false, "internalType": "bytes32", "name": "requestId", "type": "bytes32"},
      {"indexed": false, "internalType": "uint256", "name": "payment", "type": "uint256"},
      {"indexed": false, "internalType": "address", "name": "callbackAddr", "type": "address"},
      {"indexed": false, "internalType": "bytes4", "name": "callbackFunctionId", "type": "bytes4"},
      {"indexed": false, "internalType": "uint256", "name": "cancelExpiration", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "dataVersion", "type": "uint256"},
      {"indexed": false, "internalType": "bytes", "name": "data", "type": "bytes"}
    ],
    "name": "OracleRequest",
    "type": "event"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "_sender", "type": "address"},
      {"internalType": "uint256", "name": "_payment", "type": "uint256"},
      {"internalType": "bytes32", "name": "_specId", "type": "bytes32"},
      {"internalType": "address", "name": "_callbackAddress", "type": "address"},
      {"internalType": "bytes4", "name": "_callbackFunctionId", "type": "bytes4"},
      {"internalType": "uint256", "name": "_nonce", "type": "uint256"},
      {"internalType": "uint256", "name": "_dataVersion", "type": "uint256"},
      {"internalType": "bytes", "name": "_data", "type": "bytes"}
    ],
    "name": "oracleRequest",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "_sender", "type": "address"},
      {"internalType": "uint256", "name": "_payment", "type": "uint256"},
      {"internalType": "bytes32", "name": "_specId", "type": "bytes32"},
      {"internalType": "address", "name": "_callbackAddress", "type": "address"},
      {"internalType": "bytes4", "name": "_callbackFunctionId", "type": "bytes4"},
      {"internalType": "uint256", "name": "_nonce", "type": "uint256"},
      {"internalType": "uint256", "name": "_dataVersion", "type": "uint256"},
      {"internalType": "bytes", "name": "_data", "type": "bytes"}
    ],
    "name": "requestOracleData",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bytes32", "name": "_requestId", "type": "bytes32"},
      {"internalType": "uint256", "name": "_payment", "type": "uint256"},
      {"internalType": "address", "name": "_callbackAddress", "type": "address"},
      {"internalType": "bytes4", "name": "_callbackFunctionId", "type": "bytes4"},
      {"internalType": "uint256", "name": "_expiration", "type": "uint256"},
      {"internalType": "bytes32", "name": "_data", "type": "bytes32"}
    ],
    "name": "fulfillOracleRequest",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bytes32", "name": "_requestId", "type": "bytes32"},
      {"internalType": "uint256", "name": "_payment", "type": "uint256"},
      {"internalType": "address", "name": "_callbackAddress", "type": "address"},
      {"internalType": "bytes4", "name": "_callbackFunctionId", "type": "bytes4"},
      {"internalType": "uint256", "name": "_expiration", "type": "uint256"},
      {"internalType": "bytes", "name": "_data", "type": "bytes"}
    ],
    "name": "fulfillOracleRequest2",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bytes32", "name": "_requestId", "type": "bytes32"},
      {"internalType": "uint256", "name": "_payment", "type": "uint256"},
      {"internalType": "bytes4", "name": "_callbackFunc", "type": "bytes4"},
      {"internalType": "uint256", "name": "_expiration", "type": "uint256"}
    ],
    "name": "cancelOracleRequest",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const (
	eventOracleRequest    = "OracleRequest"
	methodFulfill         = "fulfillOracleRequest"
	methodFulfill2        = "fulfillOracleRequest2"
	methodCancel          = "cancelOracleRequest"
	oracleRequestDataArgs = 8
)

var (
	oracleABI     abi.ABI
	oracleABIOnce sync.Once
	oracleABIErr  error
)

// OracleABI returns the parsed oracle contract ABI.
func OracleABI() (abi.ABI, error) {
	oracleABIOnce.Do(func() {
		oracleABI, oracleABIErr = abi.JSON(strings.NewReader(oracleABIJSON))
	})
	return oracleABI, oracleABIErr
}

// OracleRequestEvent returns the OracleRequest event definition.
func OracleRequestEvent() (abi.Event, error) {
	parsed, err := OracleABI()
	if err != nil {
		return abi.Event{}, err
	}
	return parsed.Events[eventOracleRequest], nil
}
