package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"oracleWire/internal/chain"
	"oracleWire/internal/config"
	"oracleWire/internal/indexer"
	"oracleWire/internal/oracle"
	"oracleWire/internal/storage"
)

var _ indexer.LogSource = (*chain.Client)(nil)

func main() {
	root := &cobra.Command{
		Use:          "oraclewire",
		Short:        "Oracle request, fulfillment and service agreement tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest OracleRequest logs from oracle contracts",
		RunE:  runIngest,
	}

	runCmd.Flags().String("rpc", "", "RPC URL")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	runCmd.Flags().StringSlice("address", nil, "oracle contract addresses (comma-separated)")
	runCmd.Flags().StringSlice("topic0", nil, "topic0 filters (comma-separated), defaults to OracleRequest")
	runCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	runCmd.Flags().String("out", "./data/logs.jsonl", "raw logs JSONL path")
	runCmd.Flags().String("run-requests", "", "also decode run requests into this JSONL path")
	runCmd.Flags().String("fulfillment-modes", "", "per-contract fulfillment mode overrides (address=single|multi, comma-separated)")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw logs into run requests",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "./data/logs.jsonl", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/run_requests.jsonl", "output run requests JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("fulfillment-modes", "", "per-contract fulfillment mode overrides (address=single|multi, comma-separated)")
	decodeCmd.Flags().Bool("decode-params", true, "decode the CBOR request parameters")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load run requests into Postgres",
		RunE:  runLoad,
	}

	loadCmd.Flags().String("in", "./data/run_requests.jsonl", "input run requests JSONL")
	loadCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	loadCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	loadCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	loadCmd.Flags().String("state-name", "run_requests", "state row name when tracking progress in Postgres")
	loadCmd.Flags().Bool("migrate", true, "create tables before loading")
	loadCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(loadCmd)

	agreementCmd := &cobra.Command{
		Use:   "agreement",
		Short: "Build, sign and encode a service agreement initiation",
		RunE:  runAgreement,
	}

	agreementCmd.Flags().String("payment", "", "payment in juels (default 1 LINK)")
	agreementCmd.Flags().String("expiration", "", "request expiration in seconds (default 300)")
	agreementCmd.Flags().String("end-at", "", "agreement end timestamp")
	agreementCmd.Flags().StringSlice("oracles", nil, "ordered oracle addresses (comma-separated)")
	agreementCmd.Flags().String("request-digest", "", "bytes32 request digest")
	agreementCmd.Flags().String("aggregator", "", "aggregator contract address")
	agreementCmd.Flags().String("agg-initiate-job-selector", "", "aggregator initiateJob selector (bytes4)")
	agreementCmd.Flags().String("agg-fulfill-selector", "", "aggregator fulfill selector (bytes4)")
	agreementCmd.Flags().String("keystore", "", "keystore directory holding the oracle keys")
	agreementCmd.Flags().String("password", "", "keystore passphrase")
	agreementCmd.Flags().Bool("light-scrypt", false, "keystore uses light scrypt parameters")
	agreementCmd.Flags().StringSlice("private-keys", nil, "hex oracle private keys (comma-separated), for development")
	agreementCmd.Flags().Duration("sign-timeout", 10*time.Second, "timeout per oracle signature")
	agreementCmd.Flags().String("coordinator", "", "coordinator address to check the agreement against")
	agreementCmd.Flags().String("rpc", "", "RPC URL, required with --coordinator")
	agreementCmd.Flags().Bool("assert-empty", false, "fail if the coordinator already holds the agreement")
	agreementCmd.Flags().String("out", "", "write the result JSON here instead of stdout")
	agreementCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(agreementCmd)

	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Encode an oracle request submission",
		RunE:  runRequest,
	}

	requestCmd.Flags().String("variant", "oracleRequest", "entry point (oracleRequest or requestOracleData)")
	requestCmd.Flags().String("spec-id", "", "bytes32 spec id or SAID")
	requestCmd.Flags().String("callback-address", "", "callback contract address")
	requestCmd.Flags().String("callback-function", "", "callback function selector (bytes4)")
	requestCmd.Flags().String("nonce", "0", "request nonce")
	requestCmd.Flags().String("data", "", "hex encoded request data (CBOR)")
	requestCmd.Flags().Uint64("data-version", 0, "data version, 0 means 1")
	requestCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(requestCmd)

	fulfillCmd := &cobra.Command{
		Use:   "fulfill",
		Short: "Build fulfillment or cancellation call data for a run request",
		RunE:  runFulfill,
	}

	fulfillCmd.Flags().String("request", "", "run request JSON file (first line of a JSONL file is used)")
	fulfillCmd.Flags().String("response", "", "single-word response (text up to 31 bytes or 0x bytes32)")
	fulfillCmd.Flags().StringSlice("response-types", nil, "multi-word response types (comma-separated)")
	fulfillCmd.Flags().StringSlice("response-values", nil, "multi-word response values (comma-separated)")
	fulfillCmd.Flags().Bool("cancel", false, "build cancelOracleRequest call data instead")
	fulfillCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(fulfillCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	addresses, err := indexer.ParseAddresses(cfg.Addresses)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("address list is required")
	}

	topic0, err := indexer.ParseTopic0(cfg.Topic0)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		Addresses:         addresses,
		Topic0:            topic0,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, storage.NewJsonlStorage(cfg.Out), logger)

	if cfg.RunRequests != "" {
		decoder, err := oracle.NewRunRequestDecoder(oracle.DecoderConfig{
			FulfillmentModes: cfg.FulfillmentModes,
			DecodeParams:     true,
			Logger:           logger,
		})
		if err != nil {
			return err
		}
		runner.WithRunRequests(decoder, storage.NewJsonlStorage(cfg.RunRequests))
	}

	logger.Info("ingest start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("addresses", len(addresses)),
		zap.Int("topic0", len(topic0)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.String("run_requests", cfg.RunRequests),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
