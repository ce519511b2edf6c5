package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"oracleWire/internal/model"
)

// JsonlStorage appends records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

var (
	_ Storage        = (*JsonlStorage)(nil)
	_ RunRequestSink = (*JsonlStorage)(nil)
)

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// Path returns the output file.
func (s *JsonlStorage) Path() string {
	return s.path
}

// PutLogBatch appends a batch of log records as JSON lines.
func (s *JsonlStorage) PutLogBatch(logs []model.LogRecord) error {
	return appendLines(s, logs)
}

// PutRunRequests appends decoded run requests as JSON lines.
func (s *JsonlStorage) PutRunRequests(records []model.RunRequestRecord) error {
	return appendLines(s, records)
}

func appendLines[T any](s *JsonlStorage, records []T) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal %T: %w", record, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
