package indexer

import (
	"math"
	"reflect"
	"testing"
)

func TestSplitRange(t *testing.T) {
	cases := []struct {
		name          string
		from, to, max uint64
		want          []BlockRange
	}{
		{"even", 100, 105, 2, []BlockRange{{100, 101}, {102, 103}, {104, 105}}},
		{"remainder", 10, 14, 4, []BlockRange{{10, 13}, {14, 14}}},
		{"single block", 5, 5, 10, []BlockRange{{5, 5}}},
		{"one block per range", 7, 9, 1, []BlockRange{{7, 7}, {8, 8}, {9, 9}}},
		{"chain tip", math.MaxUint64 - 2, math.MaxUint64, 2, []BlockRange{{math.MaxUint64 - 2, math.MaxUint64 - 1}, {math.MaxUint64, math.MaxUint64}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitRange(tc.from, tc.to, tc.max)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ranges mismatch: %+v != %+v", got, tc.want)
			}
			var total uint64
			for _, r := range got {
				total += r.Blocks()
			}
			if total != tc.to-tc.from+1 {
				t.Fatalf("ranges cover %d blocks, want %d", total, tc.to-tc.from+1)
			}
		})
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	if _, err := SplitRange(10, 9, 1); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if _, err := SplitRange(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}
