package storage

import "oracleWire/internal/model"

// Storage defines a sink for raw log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}

// RunRequestSink receives decoded run requests.
type RunRequestSink interface {
	PutRunRequests(records []model.RunRequestRecord) error
}
