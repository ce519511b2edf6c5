package indexer

import "fmt"

// BlockRange is an inclusive block span queried with one eth_getLogs call.
type BlockRange struct {
	From uint64
	To   uint64
}

// Blocks returns the number of blocks in the range.
func (r BlockRange) Blocks() uint64 {
	return r.To - r.From + 1
}

// SplitRange cuts [from, to] into consecutive ranges of at most batchSize
// blocks. The last range ends exactly at to, even when to is the max uint64.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	switch {
	case batchSize == 0:
		return nil, fmt.Errorf("batch size must be greater than zero")
	case to < from:
		return nil, fmt.Errorf("invalid block range %d-%d", from, to)
	}

	ranges := make([]BlockRange, 0, (to-from)/batchSize+1)
	for start := from; ; start += batchSize {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
	}
}
