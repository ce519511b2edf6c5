package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"oracleWire/internal/model"
	"oracleWire/internal/oracle"
)

// RunRequestWriter persists decoded run requests. *postgres.Store implements it.
type RunRequestWriter interface {
	UpsertRunRequests(ctx context.Context, records []model.RunRequestRecord) error
}

// Config controls loading behavior.
type Config struct {
	BatchSize  int
	StateStore StateStore
}

// Stats summarizes one Load call.
type Stats struct {
	Total   int
	Loaded  int
	Skipped int
	Failed  int
}

// Loader copies a run-request JSONL file into a RunRequestWriter, resuming
// from the last saved block.
type Loader struct {
	cfg    Config
	writer RunRequestWriter
	logger *zap.Logger
}

// NewLoader builds a Loader. A nil logger is replaced by a no-op one.
func NewLoader(cfg Config, writer RunRequestWriter, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	return &Loader{cfg: cfg, writer: writer, logger: logger}
}

// Load reads inputPath and upserts every record at or after the saved block.
// Records of the saved block itself are loaded again; upserts make that safe.
// The highest loaded block is saved only after the whole file is written, so
// a failed run resumes from the previous state.
func (l *Loader) Load(ctx context.Context, inputPath string) (Stats, error) {
	var stats Stats
	if l.writer == nil {
		return stats, fmt.Errorf("writer is nil")
	}

	startBlock, err := l.loadStartBlock(ctx)
	if err != nil {
		return stats, err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return stats, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.RunRequestRecord, 0, l.cfg.BatchSize)
	var maxBlock uint64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.writer.UpsertRunRequests(ctx, batch); err != nil {
			return fmt.Errorf("upsert run requests: %w", err)
		}
		stats.Loaded += len(batch)
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Total++

		var record model.RunRequestRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.Failed++
			l.logger.Warn("decode run request line", zap.Int("line", stats.Total), zap.Error(err))
			continue
		}
		if _, err := oracle.RunRequestFromRecord(record); err != nil {
			stats.Failed++
			l.logger.Warn("invalid run request",
				zap.String("tx_hash", record.TxHash),
				zap.Uint64("log_index", record.LogIndex),
				zap.Error(err),
			)
			continue
		}

		if record.BlockNumber < startBlock {
			stats.Skipped++
			continue
		}
		if record.BlockNumber > maxBlock {
			maxBlock = record.BlockNumber
		}

		batch = append(batch, record)
		if len(batch) >= l.cfg.BatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	if err := flush(); err != nil {
		return stats, err
	}
	// Input is not required to be block ordered, so progress is only
	// recorded once every line has been written.
	if stats.Loaded > 0 {
		if err := l.saveState(ctx, maxBlock); err != nil {
			return stats, err
		}
	}

	l.logger.Info("load complete",
		zap.Int("total", stats.Total),
		zap.Int("loaded", stats.Loaded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Uint64("last_block", maxBlock),
	)
	return stats, nil
}

func (l *Loader) loadStartBlock(ctx context.Context) (uint64, error) {
	if l.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := l.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load state: %w", err)
	}
	if !ok {
		return 0, nil
	}
	l.logger.Info("resume from state", zap.Uint64("last_processed_block", last))
	return last, nil
}

func (l *Loader) saveState(ctx context.Context, block uint64) error {
	if l.cfg.StateStore == nil {
		return nil
	}
	if err := l.cfg.StateStore.Save(ctx, block); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
