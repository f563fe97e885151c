package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mirrorScope/internal/model"
)

// ErrorLog is an ErrorSink appending one JSON object per rejected record.
// An empty path discards everything.
type ErrorLog struct {
	mu   sync.Mutex
	path string
}

func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path}
}

func (l *ErrorLog) PutErrors(records []model.DecodeError) error {
	if len(records) == 0 || l.path == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("error log dir: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open error log: %w", err)
	}

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			file.Close()
			return fmt.Errorf("encode %s/%d: %w", records[i].TxHash, records[i].MsgIndex, err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flush error log: %w", err)
	}
	return file.Close()
}
