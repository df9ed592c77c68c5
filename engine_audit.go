package aaa

import (
	"context"
	"time"

	"github.com/campuscore/aaa/audit"
)

// Audit action names. Stable identifiers; downstream alerting filters on
// them.
const (
	ActionRegister      = "register"
	ActionLogin         = "login"
	ActionTokenRefresh  = "token_refresh"
	ActionReuseDetected = "token_reuse_detected"
	ActionTokenRevoked  = "token_revoked"
	ActionRoleChange    = "role_change"
	ActionUserDisabled  = "user_disabled"
	ActionAuthorize     = "authorize"
)

// record appends to the ledger synchronously and mirrors asynchronously.
// The synchronous append is the durability point: by the time any engine
// operation returns, its record has an id. Append fails only after Close;
// during shutdown the in-flight operation still completes, so the failure
// is logged rather than propagated.
func (e *Engine) record(rec audit.Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.Severity == "" {
		rec.Severity = audit.SeverityInfo
	}
	id, err := e.ledger.Append(rec)
	if err != nil {
		e.logger.Error().Err(err).Str("action", rec.Action).Msg("audit append failed")
		return
	}
	rec.ID = id
	e.dispatcher.Emit(context.Background(), rec)
}

// AuditDropped reports how many mirrored records were dropped because the
// mirror buffer was full. The ledger itself never drops.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.dispatcher.Dropped()
}
