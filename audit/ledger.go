package audit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLedgerClosed is returned by Append after Close.
var ErrLedgerClosed = errors.New("audit ledger closed")

const defaultMaxRecords = 100_000

// LedgerConfig bounds the ledger and names where rotated records go.
type LedgerConfig struct {
	// MaxRecords caps how many records the ledger retains in memory.
	// Zero means the default of 100000. When the cap is exceeded the
	// oldest records are rotated out.
	MaxRecords int
	// OverflowSink receives rotated records in id order. Nil discards
	// them, which still counts as rotation, not as a silent drop: the
	// count is visible through Rotated.
	OverflowSink Sink
}

// Ledger is the append-only audit store. All appends go through one mutex
// so that ids are strictly increasing with no gaps and per-actor ordering
// matches call ordering.
type Ledger struct {
	mu      sync.RWMutex
	cfg     LedgerConfig
	records []Record
	nextID  uint64
	rotated uint64
	closed  bool
}

// NewLedger creates an empty ledger. Ids start at 1.
func NewLedger(cfg LedgerConfig) *Ledger {
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = defaultMaxRecords
	}
	return &Ledger{
		cfg:    cfg,
		nextID: 1,
	}
}

// Append assigns the next id and stores the record. The record's ID and, if
// unset, Timestamp and Severity are filled in. Append fails only when the
// ledger is closed; rotation on overflow keeps it from failing on growth.
func (l *Ledger) Append(record Record) (uint64, error) {
	l.mu.Lock()

	if l.closed {
		l.mu.Unlock()
		return 0, ErrLedgerClosed
	}

	record.ID = l.nextID
	l.nextID++
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	if record.Severity == "" {
		record.Severity = SeverityInfo
	}
	l.records = append(l.records, record)

	// Collect evictions under the lock, emit after releasing it: the
	// sink may block or call back into the ledger, and neither may
	// stall concurrent appends and queries.
	var evicted []Record
	if overflow := len(l.records) - l.cfg.MaxRecords; overflow > 0 {
		if l.cfg.OverflowSink != nil {
			evicted = append([]Record(nil), l.records[:overflow]...)
		}
		l.rotated += uint64(overflow)
		l.records = append([]Record(nil), l.records[overflow:]...)
	}
	l.mu.Unlock()

	for _, r := range evicted {
		l.cfg.OverflowSink.Emit(context.Background(), r)
	}

	return record.ID, nil
}

// Filter selects records for Query. Zero fields match everything. From and
// To bound the timestamp inclusively on From and exclusively on To.
type Filter struct {
	Actor   string
	Action  string
	Outcome Outcome
	From    time.Time
	To      time.Time
	Skip    int
	Limit   int
}

// Query returns matching records ordered by ascending id. The returned
// slice is a copy; the ledger's own records are never exposed for mutation.
func (l *Ledger) Query(f Filter) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Record
	skipped := 0
	for _, r := range l.records {
		if !matches(r, f) {
			continue
		}
		if skipped < f.Skip {
			skipped++
			continue
		}
		out = append(out, r)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

func matches(r Record, f Filter) bool {
	if f.Actor != "" && r.Actor != f.Actor {
		return false
	}
	if f.Action != "" && r.Action != f.Action {
		return false
	}
	if f.Outcome != "" && r.Outcome != f.Outcome {
		return false
	}
	if !f.From.IsZero() && r.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.Timestamp.Before(f.To) {
		return false
	}
	return true
}

// Len returns the number of retained records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// LastID returns the most recently assigned id, or 0 when nothing has been
// appended yet.
func (l *Ledger) LastID() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextID - 1
}

// Rotated returns how many records have been rotated out by the retention
// policy.
func (l *Ledger) Rotated() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rotated
}

// Close stops further appends. Queries keep working on the retained
// records.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}
