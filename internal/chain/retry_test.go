package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryReturnsLastError(t *testing.T) {
	sentinel := errors.New("down")
	calls := 0
	err := WithRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, 5, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestABIsParse(t *testing.T) {
	staking, err := StakingABI()
	if err != nil {
		t.Fatalf("staking abi: %v", err)
	}
	if _, ok := staking.Methods["delegations"]; !ok {
		t.Fatalf("missing delegations method")
	}
	airdrop, err := AirdropABI()
	if err != nil {
		t.Fatalf("airdrop abi: %v", err)
	}
	for _, name := range []string{"latestStage", "registerMerkleRoot"} {
		if _, ok := airdrop.Methods[name]; !ok {
			t.Fatalf("missing %s method", name)
		}
	}
	if _, err := airdrop.Pack("registerMerkleRoot", [32]byte{1}); err != nil {
		t.Fatalf("pack registerMerkleRoot: %v", err)
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(" 0x00000000000000000000000000000000000000aa ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addr != common.HexToAddress("0xaa") {
		t.Fatalf("unexpected address %s", addr.Hex())
	}
	for _, bad := range []string{"", "0x12", "terra1xyz"} {
		if _, err := ParseAddress(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
