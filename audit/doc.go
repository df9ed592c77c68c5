// Package audit implements the accounting leg of the AAA core: an
// append-only ledger of security-relevant events plus the sink plumbing for
// mirroring those events to external consumers.
//
// # Guarantees
//
// Record ids are assigned under a single append lock and are strictly
// increasing with no gaps; once appended, a record's content and position
// never change. There is no update or delete operation. Retention is an
// explicit policy: the ledger is bounded, and when it overflows the oldest
// records are rotated into the configured overflow sink rather than
// silently dropped.
//
// # Architecture boundaries
//
// The ledger does not know about tokens, users, or permissions; the engine
// decides what to record. Sinks must not block the appender: mirroring goes
// through the Dispatcher, which forwards events on a dedicated goroutine in
// append order.
package audit
