package bioauth

import (
	"errors"

	"github.com/veldtbank/bioauth/backend"
	"github.com/veldtbank/bioauth/enroll"
	"github.com/veldtbank/bioauth/flags"
	"github.com/veldtbank/bioauth/internal/audit"
	"github.com/veldtbank/bioauth/internal/metrics"
	"github.com/veldtbank/bioauth/secret"
	"github.com/veldtbank/bioauth/sensor"
)

// Builder assembles an [Engine]. Configure during initialization, call Build
// once, and discard; a builder is single-use.
type Builder struct {
	config Config

	backend   backend.IdentityBackend
	sensor    sensor.Sensor
	secrets   secret.Store
	flagStore flags.Store
	auditSink AuditSink

	built bool
}

// New returns a builder carrying the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBackend sets the remote identity service.
func (b *Builder) WithBackend(be backend.IdentityBackend) *Builder {
	b.backend = be
	return b
}

// WithSensor sets the biometric sensor.
func (b *Builder) WithSensor(s sensor.Sensor) *Builder {
	b.sensor = s
	return b
}

// WithSecretStore sets the secure key-value store holding enrollment
// artifacts.
func (b *Builder) WithSecretStore(s secret.Store) *Builder {
	b.secrets = s
	return b
}

// WithFlagStore sets the lifecycle flag store.
func (b *Builder) WithFlagStore(s flags.Store) *Builder {
	b.flagStore = s
	return b
}

// WithAuditSink sets the audit destination and enables the dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the sign-in latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the enrollment manager, audit
// dispatcher, and metrics, and returns the engine. Build performs no I/O;
// the first collaborator call happens in [Engine.Initialize].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.backend == nil {
		return nil, errors.New("identity backend required")
	}
	if b.sensor == nil {
		return nil, errors.New("biometric sensor required")
	}
	if b.secrets == nil {
		return nil, errors.New("secret store required")
	}
	if b.flagStore == nil {
		return nil, errors.New("flag store required")
	}

	engine := &Engine{
		config:  cfg,
		backend: b.backend,
		sensor:  b.sensor,
		flags:   b.flagStore,
		enroll: enroll.NewManager(b.secrets, b.sensor, enroll.Config{
			KeyEntry:            cfg.Biometric.KeyEntry,
			CredentialEntry:     cfg.Biometric.CredentialEntry,
			AllowDeviceFallback: cfg.Biometric.AllowDeviceFallback,
		}),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: metrics.New(metrics.Config{
			Enabled:       cfg.Metrics.Enabled,
			EnableLatency: cfg.Metrics.EnableLatencyHistograms,
		}),
		status:    StatusIdle,
		listeners: make(map[int]func(State)),
	}

	b.built = true

	return engine, nil
}
