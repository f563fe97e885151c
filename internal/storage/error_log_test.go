package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mirrorScope/internal/model"
)

func TestErrorLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "errors.jsonl")
	sink := NewErrorLog(path)

	if err := sink.PutErrors([]model.DecodeError{{TxHash: "0x1", Error: "boom"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := sink.PutErrors([]model.DecodeError{{TxHash: "0x2", Error: "bang"}, {TxHash: "0x3", MsgIndex: 1}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := sink.PutErrors(nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var hashes []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.DecodeError
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		hashes = append(hashes, rec.TxHash)
	}
	if len(hashes) != 3 || hashes[0] != "0x1" || hashes[2] != "0x3" {
		t.Fatalf("unexpected lines: %v", hashes)
	}
}

func TestErrorLogEmptyPathDiscards(t *testing.T) {
	if err := NewErrorLog("").PutErrors([]model.DecodeError{{Error: "x"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
}
