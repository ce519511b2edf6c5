package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
)

func sampleLogRecord() LogRecord {
	return LogRecord{
		ChainID:     1,
		BlockNumber: 18000000,
		BlockHash:   "0x00000000000000000000000000000000000000000000000000000000000abc12",
		TxHash:      "0x0000000000000000000000000000000000000000000000000000000000def456",
		TxIndex:     7,
		LogIndex:    12,
		Address:     "0x1111111111111111111111111111111111111111",
		Topics: []string{
			"0xd8d7ecc4800d25fa53ce0372f13a416d98907a7ef3d8d3bdd79cf4fe75529c65",
			"0x4c7b7ffb66b344fbaa64995af81e355a00000000000000000000000000000001",
		},
		Data:       "0xdeadbeef",
		Removed:    false,
		Timestamp:  1700000000,
		IngestedAt: "2024-01-01T00:00:00Z",
	}
}

func TestLogRecordJSONRoundTrip(t *testing.T) {
	original := sampleLogRecord()

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded LogRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestLogRecordToLog(t *testing.T) {
	record := sampleLogRecord()

	log, err := record.ToLog()
	if err != nil {
		t.Fatalf("to log: %v", err)
	}
	if len(log.Topics) != 2 {
		t.Fatalf("topics mismatch: %d", len(log.Topics))
	}
	if log.Topics[0].Hex() != record.Topics[0] {
		t.Fatalf("topic0 mismatch: %s", log.Topics[0].Hex())
	}
	if !bytes.Equal(log.Data, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("data mismatch: %x", log.Data)
	}
	if log.Index != 12 || log.BlockNumber != 18000000 {
		t.Fatalf("coordinates mismatch: %+v", log)
	}
}

func TestLogRecordToLogInvalid(t *testing.T) {
	record := sampleLogRecord()
	record.Topics = []string{"0x1234"}
	if _, err := record.ToLog(); err == nil {
		t.Fatalf("expected error for short topic")
	}

	record = sampleLogRecord()
	record.Address = "not-an-address"
	if _, err := record.ToLog(); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}
