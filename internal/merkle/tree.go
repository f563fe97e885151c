// Package merkle builds keccak256 Merkle trees over (address, amount) leaves
// with sorted-pair hashing, so proofs carry no position bits.
package merkle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrEmptyTree = errors.New("merkle tree needs at least one leaf")
	ErrNotMember = errors.New("leaf not in tree")
)

// Entry is one (address, amount) pair committed by the tree.
type Entry struct {
	Address string
	Amount  string
}

// Leaves and interior nodes hash under distinct prefixes so a node can never
// be presented as a leaf.
const (
	leafPrefix byte = 0x00
	nodePrefix byte = 0x01
)

var leafArgs = func() abi.Arguments {
	str, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: str}, {Type: str}}
}()

// Leaf hashes 0x00 followed by abi.encode(string address, string amount).
// Both fields are length-prefixed, so no two distinct pairs share an encoding.
func Leaf(address, amount string) common.Hash {
	// Pack fails only on a Go type mismatch; both arguments are strings.
	packed, _ := leafArgs.Pack(address, amount)
	return crypto.Keccak256Hash([]byte{leafPrefix}, packed)
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash([]byte{nodePrefix}, a[:], b[:])
}

// Tree holds every level, leaves first.
type Tree struct {
	levels [][]common.Hash
	index  map[common.Hash]int
}

// New builds a tree over entries. Leaves are sorted ascending before
// pairing; an odd trailing node is promoted to the next level unchanged.
func New(entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTree
	}
	leaves := make([]common.Hash, len(entries))
	for i, e := range entries {
		leaves[i] = Leaf(e.Address, e.Amount)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i][:], leaves[j][:]) < 0
	})

	index := make(map[common.Hash]int, len(leaves))
	for i, leaf := range leaves {
		if _, dup := index[leaf]; dup {
			return nil, fmt.Errorf("duplicate leaf %s", leaf.Hex())
		}
		index[leaf] = i
	}

	levels := [][]common.Hash{leaves}
	for level := leaves; len(level) > 1; {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels, index: index}, nil
}

func (t *Tree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Proof returns the sibling hashes from leaf to root. Levels where the node
// was promoted contribute nothing.
func (t *Tree) Proof(address, amount string) ([]common.Hash, error) {
	pos, ok := t.index[Leaf(address, amount)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", address, amount, ErrNotMember)
	}
	proof := make([]common.Hash, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		pos /= 2
	}
	return proof, nil
}

// Verify recomputes the root from the leaf and proof.
func Verify(root common.Hash, proof []common.Hash, address, amount string) bool {
	node := Leaf(address, amount)
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

// EncodeProof renders a proof as a JSON array of 0x-prefixed hex strings.
func EncodeProof(proof []common.Hash) (string, error) {
	out := make([]string, len(proof))
	for i, h := range proof {
		out[i] = h.Hex()
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func DecodeProof(encoded string) ([]common.Hash, error) {
	var items []string
	if err := json.Unmarshal([]byte(encoded), &items); err != nil {
		return nil, fmt.Errorf("decode proof: %w", err)
	}
	proof := make([]common.Hash, len(items))
	for i, item := range items {
		raw, err := hexutil.Decode(item)
		if err != nil {
			return nil, fmt.Errorf("proof[%d]: %w", i, err)
		}
		if len(raw) != common.HashLength {
			return nil, fmt.Errorf("proof[%d]: want %d bytes, got %d", i, common.HashLength, len(raw))
		}
		proof[i] = common.BytesToHash(raw)
	}
	return proof, nil
}

// ParseRoot decodes a 0x-prefixed 32-byte root.
func ParseRoot(hex string) (common.Hash, error) {
	raw, err := hexutil.Decode(hex)
	if err != nil {
		return common.Hash{}, fmt.Errorf("decode root: %w", err)
	}
	if len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("root: want %d bytes, got %d", common.HashLength, len(raw))
	}
	return common.BytesToHash(raw), nil
}
