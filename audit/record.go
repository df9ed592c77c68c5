package audit

import "time"

// Outcome classifies whether the recorded action succeeded.
type Outcome string

const (
	// OutcomeSuccess marks a completed action.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure marks a refused or failed action.
	OutcomeFailure Outcome = "failure"
)

// Severity flags how urgently a record should be looked at. Critical is
// reserved for signals of likely credential theft, such as refresh-token
// reuse.
type Severity string

const (
	// SeverityInfo is the default severity.
	SeverityInfo Severity = "info"
	// SeverityCritical marks records that should page someone.
	SeverityCritical Severity = "critical"
)

// Record is a single immutable ledger entry. ID and Timestamp are assigned
// by the ledger at append time; everything else is supplied by the caller.
// Actor is empty for anonymous events such as failed logins against unknown
// accounts.
type Record struct {
	ID        uint64            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Actor     string            `json:"actor,omitempty"`
	Action    string            `json:"action"`
	Resource  string            `json:"resource"`
	Outcome   Outcome           `json:"outcome"`
	Severity  Severity          `json:"severity"`
	Detail    map[string]string `json:"detail,omitempty"`
}
