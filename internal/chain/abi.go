package chain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const stakingABIJSON = `[
  {
    "inputs": [],
    "name": "delegations",
    "outputs": [
      {"internalType": "address[]", "name": "delegators", "type": "address[]"},
      {"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const airdropABIJSON = `[
  {
    "inputs": [],
    "name": "latestStage",
    "outputs": [{"internalType": "uint32", "name": "", "type": "uint32"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes32", "name": "merkleRoot", "type": "bytes32"}],
    "name": "registerMerkleRoot",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint32", "name": "stage", "type": "uint32"},
      {"indexed": false, "internalType": "bytes32", "name": "merkleRoot", "type": "bytes32"}
    ],
    "name": "MerkleRootRegistered",
    "type": "event"
  }
]`

var (
	stakingABI     abi.ABI
	stakingABIOnce sync.Once
	stakingABIErr  error

	airdropABI     abi.ABI
	airdropABIOnce sync.Once
	airdropABIErr  error
)

// StakingABI returns the parsed staking ledger ABI.
func StakingABI() (abi.ABI, error) {
	stakingABIOnce.Do(func() {
		stakingABI, stakingABIErr = abi.JSON(strings.NewReader(stakingABIJSON))
	})
	return stakingABI, stakingABIErr
}

// AirdropABI returns the parsed distribution contract ABI.
func AirdropABI() (abi.ABI, error) {
	airdropABIOnce.Do(func() {
		airdropABI, airdropABIErr = abi.JSON(strings.NewReader(airdropABIJSON))
	})
	return airdropABI, airdropABIErr
}
