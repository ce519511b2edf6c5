package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oracleWire/internal/config"
	"oracleWire/internal/model"
	"oracleWire/internal/oracle"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	decoder, err := oracle.NewRunRequestDecoder(oracle.DecoderConfig{
		FulfillmentModes: cfg.FulfillmentModes,
		DecodeParams:     cfg.DecodeParams,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := newJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := newJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("mode_overrides", len(cfg.FulfillmentModes)),
		zap.Bool("decode_params", cfg.DecodeParams),
	)

	stats, err := decodeStream(inputFile, decoder, outWriter, errWriter)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)
	return nil
}

type decodeStats struct {
	total, decoded, skipped, failed int
}

// decodeStream decodes every OracleRequest log line of in. Lines of other
// events are skipped; undecodable lines go to errWriter.
func decodeStream(in io.Reader, decoder oracle.Decoder, outWriter, errWriter *jsonlWriter) (decodeStats, error) {
	var stats decodeStats

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.failed++
			writeDecodeFailure(errWriter, model.DecodeFailure{Error: err.Error()})
			continue
		}
		if len(record.Topics) == 0 {
			stats.failed++
			writeDecodeFailure(errWriter, decodeFailureFromRecord(record, fmt.Errorf("missing topic0")))
			continue
		}

		if !decoder.CanDecode(record.Topics[0]) {
			stats.skipped++
			continue
		}

		req, err := decoder.Decode(record)
		if err != nil {
			stats.failed++
			writeDecodeFailure(errWriter, decodeFailureFromRecord(record, err))
			continue
		}

		if err := outWriter.Write(req); err != nil {
			return stats, err
		}
		stats.decoded++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, nil
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string, appendMode bool) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func decodeFailureFromRecord(record model.LogRecord, err error) model.DecodeFailure {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}

	return model.DecodeFailure{
		ChainID:     record.ChainID,
		BlockNumber: record.BlockNumber,
		TxHash:      record.TxHash,
		LogIndex:    record.LogIndex,
		Address:     record.Address,
		Topic0:      topic0,
		Error:       err.Error(),
	}
}

func writeDecodeFailure(writer *jsonlWriter, failure model.DecodeFailure) {
	if writer == nil {
		return
	}
	_ = writer.Write(failure)
}
