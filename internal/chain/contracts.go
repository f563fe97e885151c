package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// StakingLedger reads delegation amounts from the staking contract.
type StakingLedger struct {
	client  *Client
	address common.Address
}

func NewStakingLedger(client *Client, address common.Address) *StakingLedger {
	return &StakingLedger{client: client, address: address}
}

// DelegationsAt returns the staked amount per delegator at a block height.
// Repeated delegators are summed.
func (s *StakingLedger) DelegationsAt(ctx context.Context, height uint64) (map[string]*big.Int, error) {
	parsed, err := StakingABI()
	if err != nil {
		return nil, fmt.Errorf("parse staking abi: %w", err)
	}
	values, err := callMethod(ctx, s.client, s.address, parsed, "delegations", new(big.Int).SetUint64(height))
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("delegations: unexpected output count %d", len(values))
	}
	delegators, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("delegations: unexpected delegators type %T", values[0])
	}
	amounts, ok := values[1].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("delegations: unexpected amounts type %T", values[1])
	}
	if len(delegators) != len(amounts) {
		return nil, fmt.Errorf("delegations: %d delegators but %d amounts", len(delegators), len(amounts))
	}

	out := make(map[string]*big.Int, len(delegators))
	for i, delegator := range delegators {
		key := delegator.Hex()
		if prev, ok := out[key]; ok {
			out[key] = new(big.Int).Add(prev, amounts[i])
			continue
		}
		out[key] = new(big.Int).Set(amounts[i])
	}
	return out, nil
}

// AirdropContract reads distribution contract state.
type AirdropContract struct {
	client  *Client
	address common.Address
}

func NewAirdropContract(client *Client, address common.Address) *AirdropContract {
	return &AirdropContract{client: client, address: address}
}

// LatestStage returns the latest registered stage; 0 means none.
func (a *AirdropContract) LatestStage(ctx context.Context) (uint32, error) {
	parsed, err := AirdropABI()
	if err != nil {
		return 0, fmt.Errorf("parse airdrop abi: %w", err)
	}
	values, err := callMethod(ctx, a.client, a.address, parsed, "latestStage", nil)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("latestStage: empty output")
	}
	stage, ok := values[0].(uint32)
	if !ok {
		return 0, fmt.Errorf("latestStage: unexpected type %T", values[0])
	}
	return stage, nil
}

// LatestHeight returns the current block height.
func (a *AirdropContract) LatestHeight(ctx context.Context) (uint64, error) {
	return a.client.LatestBlockNumber(ctx)
}

// RootSubmitter registers Merkle roots on the distribution contract.
type RootSubmitter struct {
	client   *Client
	contract *bind.BoundContract
	address  common.Address
	key      *ecdsa.PrivateKey
	chainID  *big.Int
	logger   *zap.Logger
}

// NewRootSubmitter builds a submitter signing with hexKey.
func NewRootSubmitter(ctx context.Context, client *Client, address common.Address, hexKey string, logger *zap.Logger) (*RootSubmitter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	parsed, err := AirdropABI()
	if err != nil {
		return nil, fmt.Errorf("parse airdrop abi: %w", err)
	}
	backend := client.ethClient
	return &RootSubmitter{
		client:   client,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		address:  address,
		key:      key,
		chainID:  chainID,
		logger:   logger,
	}, nil
}

// RegisterMerkleRoot sends registerMerkleRoot(root) and waits for it to be
// mined. A reverted receipt is an error. It is never retried here.
func (s *RootSubmitter) RegisterMerkleRoot(ctx context.Context, root common.Hash) error {
	auth, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return fmt.Errorf("transactor: %w", err)
	}
	auth.Context = ctx

	tx, err := s.contract.Transact(auth, "registerMerkleRoot", [32]byte(root))
	if err != nil {
		return fmt.Errorf("send registerMerkleRoot: %w", err)
	}
	s.logger.Info("merkle root submitted",
		zap.String("contract", s.address.Hex()),
		zap.String("root", root.Hex()),
		zap.String("tx_hash", tx.Hash().Hex()),
	)

	receipt, err := bind.WaitMined(ctx, s.client.ethClient, tx)
	if err != nil {
		return fmt.Errorf("wait registerMerkleRoot %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("registerMerkleRoot %s reverted in block %s", tx.Hash().Hex(), receipt.BlockNumber)
	}
	return nil
}

func callMethod(ctx context.Context, client *Client, to common.Address, parsed abi.ABI, method string, block *big.Int) ([]interface{}, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := client.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
