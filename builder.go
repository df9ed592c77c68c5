package aaa

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campuscore/aaa/audit"
	"github.com/campuscore/aaa/credential"
	"github.com/campuscore/aaa/family"
	"github.com/campuscore/aaa/internal/metrics"
	"github.com/campuscore/aaa/password"
	"github.com/campuscore/aaa/permission"
	"github.com/campuscore/aaa/revocation"
	"github.com/campuscore/aaa/token"
)

// Builder assembles an Engine. Every dependency has a memory-backed
// default; install a Redis client to move the revocation registry and
// family store onto shared storage. A Builder is single-use.
type Builder struct {
	config Config
	redis  *redis.Client

	grants map[permission.Role][]string

	credentials credential.Store
	registry    revocation.Registry
	families    family.Store
	auditSink   audit.Sink
	logger      *zerolog.Logger

	built bool
}

// New returns a Builder with default configuration.
func New() *Builder {
	return &Builder{config: applyDefaults(Config{})}
}

// WithConfig replaces the whole configuration. Zero-valued sections still
// fall back to defaults.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = applyDefaults(cfg)
	return b
}

// WithRedis installs a shared Redis client. When set, the revocation
// registry and the family store default to Redis-backed implementations so
// multiple engine instances agree on revocations and rotations.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithGrants replaces the default role to permission mapping. The map must
// cover every role of the closed set.
func (b *Builder) WithGrants(grants map[permission.Role][]string) *Builder {
	b.grants = grants
	return b
}

// WithCredentialStore installs a custom account store, for callers backing
// accounts with their own database.
func (b *Builder) WithCredentialStore(store credential.Store) *Builder {
	b.credentials = store
	return b
}

// WithRevocationRegistry overrides the revocation backend.
func (b *Builder) WithRevocationRegistry(r revocation.Registry) *Builder {
	b.registry = r
	return b
}

// WithFamilyStore overrides the rotation-family backend.
func (b *Builder) WithFamilyStore(s family.Store) *Builder {
	b.families = s
	return b
}

// WithAuditSink installs the sink that receives rotated ledger records
// and, when mirroring is enabled, a live copy of every record.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger installs a structured logger for engine lifecycle and
// security events. Nil disables logging.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithMetricsEnabled toggles the internal counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validation latency histogram. Implies
// nothing unless metrics are enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatency = enabled
	return b
}

// Build validates the configuration, wires defaults for anything not
// explicitly installed and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := applyDefaults(b.config)

	codec, err := token.NewCodec(cfg.Token)
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}

	grants := b.grants
	if grants == nil {
		grants = permission.DefaultGrants()
	}
	resolver, err := permission.NewResolver(grants)
	if err != nil {
		return nil, err
	}

	var closers []func()

	credentials := b.credentials
	if credentials == nil {
		credentials = credential.NewMemoryStore(hasher)
	}

	registry := b.registry
	if registry == nil {
		if b.redis != nil {
			registry = revocation.NewRedis(b.redis, "")
		} else {
			mem := revocation.NewMemory(cfg.Revocation.SweepInterval)
			closers = append(closers, mem.Close)
			registry = mem
		}
	}

	families := b.families
	if families == nil {
		if b.redis != nil {
			families = family.NewRedis(b.redis, "")
		} else {
			mem := family.NewMemory(cfg.Revocation.SweepInterval)
			closers = append(closers, mem.Close)
			families = mem
		}
	}

	ledger := audit.NewLedger(audit.LedgerConfig{
		MaxRecords:   cfg.Audit.MaxRecords,
		OverflowSink: b.auditSink,
	})
	dispatcher := audit.NewDispatcher(audit.DispatcherConfig{
		Enabled:    cfg.Audit.MirrorEnabled && b.auditSink != nil,
		BufferSize: cfg.Audit.MirrorBuffer,
		DropIfFull: cfg.Audit.MirrorDropIfFull,
	}, b.auditSink)

	logger := b.logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Engine{
		config:      cfg,
		codec:       codec,
		hasher:      hasher,
		resolver:    resolver,
		credentials: credentials,
		registry:    registry,
		families:    families,
		ledger:      ledger,
		dispatcher:  dispatcher,
		metrics: metrics.New(metrics.Config{
			Enabled:       cfg.Metrics.Enabled,
			EnableLatency: cfg.Metrics.EnableLatency,
		}),
		logger:  logger,
		closers: closers,
	}, nil
}
