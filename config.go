package aaa

import (
	"time"

	"github.com/campuscore/aaa/password"
	"github.com/campuscore/aaa/token"
)

// Config holds every tunable of the engine. Zero values fall back to the
// defaults below; a Config is read once during Build and never mutated
// afterwards.
type Config struct {
	Token      token.Config
	Password   password.Config
	Audit      AuditConfig
	Revocation RevocationConfig
	Metrics    MetricsConfig
}

// AuditConfig bounds the in-memory ledger and controls the async mirror.
type AuditConfig struct {
	// MaxRecords caps ledger retention; oldest records rotate into the
	// overflow sink when exceeded. Zero means 100000.
	MaxRecords int
	// MirrorEnabled turns on asynchronous mirroring of every record to
	// the sink configured on the builder. The ledger append itself is
	// always synchronous.
	MirrorEnabled bool
	// MirrorBuffer is the mirror channel depth. Zero means 256.
	MirrorBuffer int
	// MirrorDropIfFull drops mirrored records instead of blocking the
	// caller when the buffer is full. Drops are counted, never silent.
	MirrorDropIfFull bool
}

// RevocationConfig tunes the in-memory revocation and family backends.
// Ignored when Redis backends are installed.
type RevocationConfig struct {
	// SweepInterval is how often expired entries are reclaimed. Zero
	// means one minute.
	SweepInterval time.Duration
}

// MetricsConfig enables the internal counters.
type MetricsConfig struct {
	Enabled       bool
	EnableLatency bool
}

const (
	defaultAccessTTL     = 15 * time.Minute
	defaultRefreshTTL    = 7 * 24 * time.Hour
	defaultMirrorBuffer  = 256
	defaultSweepInterval = time.Minute
)

func applyDefaults(cfg Config) Config {
	if cfg.Token.AccessTTL == 0 {
		cfg.Token.AccessTTL = defaultAccessTTL
	}
	if cfg.Token.RefreshTTL == 0 {
		cfg.Token.RefreshTTL = defaultRefreshTTL
	}
	if cfg.Token.SigningMethod == "" {
		cfg.Token.SigningMethod = token.MethodEd25519
	}
	if cfg.Password == (password.Config{}) {
		cfg.Password = password.Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		}
	}
	if cfg.Audit.MirrorBuffer <= 0 {
		cfg.Audit.MirrorBuffer = defaultMirrorBuffer
	}
	if cfg.Revocation.SweepInterval <= 0 {
		cfg.Revocation.SweepInterval = defaultSweepInterval
	}
	return cfg
}
