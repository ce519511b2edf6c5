package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"oracleWire/internal/model"
	"oracleWire/internal/oracle"
	"oracleWire/internal/storage"
)

// LogSource is the chain access the runner needs. *chain.Client implements it.
type LogSource interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// RunConfig holds runtime settings for the ingestion loop.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	Addresses         []common.Address
	Topic0            []common.Hash
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner streams OracleRequest logs from oracle contracts into storage.
// When a decoder and sink are set, each batch is also decoded into run
// requests; logs that fail to decode are logged and skipped.
type Runner struct {
	cfg        RunConfig
	chain      LogSource
	storage    storage.Storage
	decoder    oracle.Decoder
	sink       storage.RunRequestSink
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source LogSource, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      source,
		storage:    storageSink,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled, cfg.Addresses),
	}
}

// WithRunRequests decodes every stored batch with decoder and writes the run requests to sink.
func (r *Runner) WithRunRequests(decoder oracle.Decoder, sink storage.RunRequestSink) *Runner {
	r.decoder = decoder
	r.sink = sink
	return r
}

// Run executes the ingestion loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Addresses) == 0 {
		return fmt.Errorf("at least one oracle address is required")
	}
	if (r.decoder == nil) != (r.sink == nil) {
		return fmt.Errorf("decoder and run request sink must be set together")
	}
	if len(r.cfg.Topic0) == 0 {
		topics, err := ParseTopic0(nil)
		if err != nil {
			return err
		}
		r.cfg.Topic0 = topics
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		switch {
		case ok && cp.LastProcessedBlock >= from:
			from = cp.LastProcessedBlock + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
		case !ok && len(cp.Contracts) > 0:
			r.logger.Warn("checkpoint belongs to other contracts, ignoring", zap.Strings("contracts", cp.Contracts))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To), zap.Uint64("blocks", blockRange.Blocks()))

		logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		ingestedAt := time.Now().UTC()
		records := make([]model.LogRecord, 0, len(logs))
		for _, log := range logs {
			if log.Removed || r.isDuplicate(log) {
				continue
			}

			ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
			if err != nil {
				return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			records = append(records, buildLogRecord(chainIDValue, log, ts, ingestedAt))
		}

		if err := r.storage.PutLogBatch(records); err != nil {
			return fmt.Errorf("store logs: %w", err)
		}

		decoded, failed, err := r.storeRunRequests(records)
		if err != nil {
			return err
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(blockRange.To); err != nil {
				return err
			}
		}

		r.logger.Info("batch complete",
			zap.Int("logs", len(records)),
			zap.Int("run_requests", decoded),
			zap.Int("decode_failures", failed),
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
		)
	}

	return nil
}

func (r *Runner) storeRunRequests(records []model.LogRecord) (decoded, failed int, err error) {
	if r.decoder == nil {
		return 0, 0, nil
	}

	out := make([]model.RunRequestRecord, 0, len(records))
	for _, record := range records {
		topic0 := ""
		if len(record.Topics) > 0 {
			topic0 = record.Topics[0]
		}
		if !r.decoder.CanDecode(topic0) {
			continue
		}

		req, err := r.decoder.Decode(record)
		if err != nil {
			var decodeErr *model.DecodeError
			if !errors.As(err, &decodeErr) {
				return 0, 0, fmt.Errorf("decode %s:%d: %w", record.TxHash, record.LogIndex, err)
			}
			failed++
			r.logger.Warn("skip undecodable oracle request",
				zap.String("tx_hash", record.TxHash),
				zap.Uint64("log_index", record.LogIndex),
				zap.Error(err),
			)
			continue
		}
		out = append(out, *req)
	}

	if err := r.sink.PutRunRequests(out); err != nil {
		return 0, 0, fmt.Errorf("store run requests: %w", err)
	}
	return len(out), failed, nil
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, fromBlock, toBlock, r.cfg.Addresses, r.cfg.Topic0)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
