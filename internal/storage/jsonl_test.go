package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"oracleWire/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run_requests.jsonl")
	store := NewJsonlStorage(path)

	if err := store.PutRunRequests(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch should not create the file")
	}

	first := []model.RunRequestRecord{{RequestID: "0x01", Mode: "single"}}
	second := []model.RunRequestRecord{{RequestID: "0x02", Mode: "multi"}, {RequestID: "0x03", Mode: "single"}}
	if err := store.PutRunRequests(first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := store.PutRunRequests(second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.RunRequestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		ids = append(ids, rec.RequestID)
	}
	if len(ids) != 3 || ids[0] != "0x01" || ids[2] != "0x03" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}
