package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"oracleWire/internal/storage/postgres"
)

// StateStore persists the last block whose run requests were loaded.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, block uint64) error
}

// FileStateStore stores state in a local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read state: %w", err)
	}

	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, false, fmt.Errorf("parse state: %w", err)
	}
	return rec.LastProcessedBlock, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, block uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	data, err := json.Marshal(stateRecord{
		LastProcessedBlock: block,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// DBStateStore stores state in the loader_state table.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, block uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, block)
}
