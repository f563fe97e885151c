package airdrop

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type fakeStaking struct {
	mu       sync.Mutex
	stakes   map[string]*big.Int
	failures int
	heights  []uint64
}

func (f *fakeStaking) DelegationsAt(ctx context.Context, height uint64) (map[string]*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heights = append(f.heights, height)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("rpc timeout")
	}
	out := make(map[string]*big.Int, len(f.stakes))
	for k, v := range f.stakes {
		out[k] = new(big.Int).Set(v)
	}
	return out, nil
}

// fakeChain registers roots by bumping its stage, like the contract does.
type fakeChain struct {
	mu     sync.Mutex
	height uint64
	stage  uint32
	roots  []common.Hash
	err    error
}

func (f *fakeChain) LatestHeight(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height, nil
}

func (f *fakeChain) LatestStage(ctx context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage, nil
}

func (f *fakeChain) RegisterMerkleRoot(ctx context.Context, root common.Hash) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.roots = append(f.roots, root)
	f.stage++
	return nil
}

type fakeLocker struct {
	held map[string]bool
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if f.held[key] {
		return nil, false, nil
	}
	f.held[key] = true
	return func(context.Context) error {
		delete(f.held, key)
		return nil
	}, true, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func stakes(pairs map[string]int64) map[string]*big.Int {
	out := make(map[string]*big.Int, len(pairs))
	for k, v := range pairs {
		out[k] = big.NewInt(v)
	}
	return out
}
