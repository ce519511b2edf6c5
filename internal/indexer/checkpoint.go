package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Checkpoint tracks the last processed block for one set of oracle contracts.
type Checkpoint struct {
	LastProcessedBlock uint64   `json:"last_processed_block"`
	Contracts          []string `json:"contracts,omitempty"`
	UpdatedAt          string   `json:"updated_at"`
}

// CheckpointStore persists checkpoints to disk.
type CheckpointStore struct {
	path      string
	enabled   bool
	contracts []string
}

// NewCheckpointStore returns a store scoped to contracts. A checkpoint
// written for a different contract set is not resumed from.
func NewCheckpointStore(path string, enabled bool, contracts []common.Address) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled, contracts: contractKey(contracts)}
}

// Load returns the stored checkpoint. ok is false when there is none or it
// belongs to another contract set.
func (c *CheckpointStore) Load() (cp Checkpoint, ok bool, err error) {
	if !c.enabled {
		return Checkpoint{}, false, nil
	}

	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return Checkpoint{}, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}

	if len(cp.Contracts) > 0 && strings.Join(cp.Contracts, ",") != strings.Join(c.contracts, ",") {
		return cp, false, nil
	}
	return cp, true, nil
}

func (c *CheckpointStore) Save(lastProcessed uint64) error {
	if !c.enabled {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := json.Marshal(Checkpoint{
		LastProcessedBlock: lastProcessed,
		Contracts:          c.contracts,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

func contractKey(contracts []common.Address) []string {
	out := make([]string, 0, len(contracts))
	for _, contract := range contracts {
		out = append(out, strings.ToLower(contract.Hex()))
	}
	sort.Strings(out)
	return out
}
