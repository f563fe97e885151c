package merkle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func entries(n int) []Entry {
	out := make([]Entry, n)
	for i := range out {
		out[i] = Entry{Address: fmt.Sprintf("0x%040x", i+1), Amount: fmt.Sprintf("%d", (i+1)*1000)}
	}
	return out
}

func TestProofsVerify(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 33} {
		list := entries(n)
		tree, err := New(list)
		if err != nil {
			t.Fatalf("n=%d: new: %v", n, err)
		}
		if tree.Len() != n {
			t.Fatalf("n=%d: len %d", n, tree.Len())
		}
		root := tree.Root()
		for _, e := range list {
			proof, err := tree.Proof(e.Address, e.Amount)
			if err != nil {
				t.Fatalf("n=%d: proof %s: %v", n, e.Address, err)
			}
			if !Verify(root, proof, e.Address, e.Amount) {
				t.Fatalf("n=%d: proof for %s does not verify", n, e.Address)
			}
		}
	}
}

func TestSingleLeafRootIsLeaf(t *testing.T) {
	tree, err := New([]Entry{{Address: "0xabc", Amount: "5"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if tree.Root() != Leaf("0xabc", "5") {
		t.Fatalf("single-leaf root should equal the leaf")
	}
	proof, _ := tree.Proof("0xabc", "5")
	if len(proof) != 0 {
		t.Fatalf("expected empty proof, got %d", len(proof))
	}
}

func TestTamperedAmountFails(t *testing.T) {
	list := entries(5)
	tree, err := New(list)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	proof, err := tree.Proof(list[2].Address, list[2].Amount)
	if err != nil {
		t.Fatalf("proof: %v", err)
	}
	if Verify(tree.Root(), proof, list[2].Address, "3001") {
		t.Fatalf("tampered amount verified")
	}
	if Verify(tree.Root(), proof, list[1].Address, list[2].Amount) {
		t.Fatalf("wrong address verified")
	}
}

func TestShiftedFieldBoundaryFails(t *testing.T) {
	tree, err := New([]Entry{{"terra1alice", "100"}, {"terra1bob", "200"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	proof, err := tree.Proof("terra1alice", "100")
	if err != nil {
		t.Fatalf("proof: %v", err)
	}
	if Leaf("terra1alice1", "00") == Leaf("terra1alice", "100") {
		t.Fatalf("leaf encoding is ambiguous")
	}
	if Verify(tree.Root(), proof, "terra1alice1", "00") {
		t.Fatalf("shifted address/amount split verified")
	}
}

func TestInteriorNodeIsNotALeaf(t *testing.T) {
	tree, err := New([]Entry{{"terra1alice", "100"}, {"terra1bob", "200"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a, b := Leaf("terra1alice", "100"), Leaf("terra1bob", "200")
	for _, pair := range [][2]common.Hash{{a, b}, {b, a}} {
		if Verify(tree.Root(), nil, string(pair[0][:]), string(pair[1][:])) {
			t.Fatalf("child hashes passed as a leaf verified against the root")
		}
	}
}

func TestNonMember(t *testing.T) {
	tree, err := New(entries(4))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := tree.Proof("0xdead", "1"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestRootIndependentOfInputOrder(t *testing.T) {
	list := entries(6)
	reversed := make([]Entry, len(list))
	for i, e := range list {
		reversed[len(list)-1-i] = e
	}
	a, _ := New(list)
	b, _ := New(reversed)
	if a.Root() != b.Root() {
		t.Fatalf("root depends on input order")
	}
}

func TestEmptyAndDuplicate(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrEmptyTree) {
		t.Fatalf("expected ErrEmptyTree, got %v", err)
	}
	if _, err := New([]Entry{{"0x1", "1"}, {"0x1", "1"}}); err == nil {
		t.Fatalf("expected duplicate leaf error")
	}
}

func TestProofEncoding(t *testing.T) {
	list := entries(3)
	tree, _ := New(list)
	proof, _ := tree.Proof(list[0].Address, list[0].Amount)

	encoded, err := EncodeProof(proof)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeProof(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !Verify(tree.Root(), decoded, list[0].Address, list[0].Amount) {
		t.Fatalf("decoded proof does not verify")
	}

	empty, _ := EncodeProof(nil)
	if empty != "[]" {
		t.Fatalf("empty proof encoding: %s", empty)
	}
	if _, err := DecodeProof(`["0x1234"]`); err == nil {
		t.Fatalf("expected short hash error")
	}

	root, err := ParseRoot(tree.Root().Hex())
	if err != nil || root != tree.Root() {
		t.Fatalf("parse root: %v", err)
	}
	if _, err := ParseRoot("0x" + common.Bytes2Hex([]byte{1})); err == nil {
		t.Fatalf("expected short root error")
	}
}
