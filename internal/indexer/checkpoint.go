package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mirrorScope/internal/storage/postgres"
)

// CheckpointStore persists the last height whose records were all handled.
type CheckpointStore interface {
	Load(ctx context.Context) (height uint64, ok bool, err error)
	Save(ctx context.Context, height uint64) error
}

// FileCheckpoint keeps the checkpoint in a JSON file, replaced atomically.
type FileCheckpoint struct {
	Path string
}

type checkpointFile struct {
	Height  uint64    `json:"height"`
	SavedAt time.Time `json:"saved_at"`
}

func (c *FileCheckpoint) Load(ctx context.Context) (uint64, bool, error) {
	if c == nil || c.Path == "" {
		return 0, false, nil
	}
	raw, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}
	var rec checkpointFile
	if err := json.Unmarshal(raw, &rec); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint %s: %w", c.Path, err)
	}
	return rec.Height, true, nil
}

func (c *FileCheckpoint) Save(ctx context.Context, height uint64) error {
	if c == nil || c.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("checkpoint dir: %w", err)
	}
	raw, err := json.Marshal(checkpointFile{Height: height, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	tmp := c.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return os.Rename(tmp, c.Path)
}

// DBCheckpoint keeps the checkpoint in the indexer_state row named Name.
type DBCheckpoint struct {
	Store *postgres.Store
	Name  string
}

func (c *DBCheckpoint) Load(ctx context.Context) (uint64, bool, error) {
	if c == nil || c.Store == nil {
		return 0, false, nil
	}
	return c.Store.LoadState(ctx, c.Name)
}

func (c *DBCheckpoint) Save(ctx context.Context, height uint64) error {
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.SaveState(ctx, c.Name, height)
}
