package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/listwatch/internal/record"
)

// Rec builds a record from alternating key/value pairs.
//
// Example:
//
//	testutil.Rec("1", "name", "Alice", "nip", "123")
func Rec(id string, kv ...string) record.Record {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("Rec(%q): odd key/value count %d", id, len(kv)))
	}
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return record.Record{ID: id, Fields: fields}
}

// Snap builds a snapshot preserving the given record order.
func Snap(records ...record.Record) record.Snapshot {
	return record.Snapshot{Records: records}
}

// SequentialIDs returns a run-ID generator producing "run-1", "run-2", ...
// for deterministic report assertions.
func SequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("run-%d", n)
	}
}
