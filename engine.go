package bioauth

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/veldtbank/bioauth/backend"
	"github.com/veldtbank/bioauth/enroll"
	"github.com/veldtbank/bioauth/flags"
	"github.com/veldtbank/bioauth/internal/audit"
	"github.com/veldtbank/bioauth/internal/metrics"
	"github.com/veldtbank/bioauth/sensor"
)

// Engine is the authentication state machine. Construct it through
// [Builder.Build], call [Engine.Initialize] once, and tear it down with
// [Engine.Close].
//
// The engine mirrors the backend session into its state; the backend is the
// source of truth and may invalidate the session out-of-band, which the
// engine observes through its change subscription rather than polling.
type Engine struct {
	config  Config
	backend backend.IdentityBackend
	sensor  sensor.Sensor
	flags   flags.Store
	enroll  *enroll.Manager

	audit   *audit.Dispatcher
	metrics *metrics.Metrics

	mu          sync.Mutex
	status      AuthStatus
	user        *Profile
	errMsg      string
	errGen      uint64
	loading     bool
	capability  BiometricCapability
	promptOpen  bool
	pendingCred *CachedCredential
	revealed    bool

	listeners    map[int]func(State)
	nextListener int
	unsubscribe  func()
	initialized  bool
	closed       bool
}

// Initialize subscribes to the backend's session-change notifications
// exactly once per engine lifetime and kicks off the biometric capability
// probe in the background. Until the first notification lands the status
// stays idle. Calling Initialize again is a no-op.
func (e *Engine) Initialize(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineNotReady
	}
	if e.initialized {
		e.mu.Unlock()
		return nil
	}
	e.initialized = true
	e.mu.Unlock()

	// Capability probing must not block status transitions; a probe failure
	// degrades to unsupported and is logged through metrics.
	go e.probeCapability(ctx)

	// The subscription delivers the current session synchronously, so the
	// first transition out of idle can happen before Subscribe returns.
	cancel := e.backend.Subscribe(func(handle *backend.SessionHandle) {
		e.onSessionChange(handle)
	})

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cancel()
		return ErrEngineNotReady
	}
	e.unsubscribe = cancel
	e.mu.Unlock()

	return nil
}

// Close unsubscribes from the backend and shuts down the audit dispatcher.
// State reads keep working after Close; mutating operations fail with
// ErrEngineNotReady.
func (e *Engine) Close() {
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	cancel := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.audit.Close()
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers a state listener and synchronously delivers the
// current state before returning. The returned cancel function unregisters
// the listener. Listeners must not call mutating engine operations.
func (e *Engine) Subscribe(fn func(State)) (cancel func()) {
	e.mu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	current := e.snapshotLocked()
	e.mu.Unlock()

	fn(current)

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Capability returns the cached biometric capability.
func (e *Engine) Capability() BiometricCapability {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capability
}

// RefreshCapability re-probes the sensor and updates the cached capability.
func (e *Engine) RefreshCapability(ctx context.Context) BiometricCapability {
	capability := sensor.InferCapability(ctx, e.sensor, e.config.Biometric.OptimisticInference)

	e.mu.Lock()
	e.capability = capability
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)

	return capability
}

func (e *Engine) probeCapability(ctx context.Context) {
	capability := sensor.InferCapability(ctx, e.sensor, e.config.Biometric.OptimisticInference)
	if !capability.Supported {
		e.metricInc(MetricCapabilityProbeFailed)
	}

	e.mu.Lock()
	e.capability = capability
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
}

// onSessionChange applies a backend session notification. Transitions are
// idempotent: re-applying "authenticated with the same user" or "signed out
// while already unauthenticated" changes nothing and notifies nobody.
func (e *Engine) onSessionChange(handle *backend.SessionHandle) {
	e.metricInc(MetricSessionNotification)

	if handle == nil {
		e.mu.Lock()
		if e.status == StatusUnauthenticated && e.user == nil {
			e.mu.Unlock()
			return
		}
		// A login in flight owns the transition; the terminal notification
		// from its own SignIn call arrives before the operation finishes.
		if e.status == StatusAuthenticating {
			e.mu.Unlock()
			return
		}
		e.status = StatusUnauthenticated
		e.user = nil
		e.revealed = false
		state := e.snapshotLocked()
		e.mu.Unlock()
		e.notify(state)
		return
	}

	e.mu.Lock()
	if e.status == StatusAuthenticated && e.user != nil && e.user.UserID == handle.UserID {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	ctx := context.Background()
	if e.config.Engine.ProfileFetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Engine.ProfileFetchTimeout)
		defer cancel()
	}

	profile, err := e.backend.GetProfile(ctx, handle.UserID)
	if err != nil {
		// A session without a readable profile is an inconsistent account,
		// not a fatal condition. Treat as signed out.
		log.Print("bioauth: profile fetch failed on session notification")
		profile = nil
	}

	e.mu.Lock()
	if profile == nil {
		e.status = StatusUnauthenticated
		e.user = nil
	} else {
		e.status = StatusAuthenticated
		copied := *profile
		e.user = &copied
	}
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
}

func (e *Engine) snapshotLocked() State {
	state := State{
		Status:                  e.status,
		ErrorMessage:            e.errMsg,
		Loading:                 e.loading,
		Biometric:               e.capability,
		EnrollmentPromptPending: e.promptOpen,
		SensitiveDataRevealed:   e.revealed,
	}
	if e.user != nil {
		copied := *e.user
		state.User = &copied
	}
	return state
}

// notify runs outside the engine lock: listeners may read engine state.
func (e *Engine) notify(state State) {
	e.mu.Lock()
	fns := make([]func(State), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// beginOperation gates a mutating operation: rejects use before Initialize
// or after Close, flips loading, and clears any lingering error message.
func (e *Engine) beginOperation() error {
	e.mu.Lock()
	if !e.initialized || e.closed {
		e.mu.Unlock()
		return ErrEngineNotReady
	}
	e.loading = true
	e.errMsg = ""
	e.errGen++
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
	return nil
}

func (e *Engine) endOperation() {
	e.mu.Lock()
	e.loading = false
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
}

// setStatus transitions status under the lock and notifies listeners.
func (e *Engine) setStatus(status AuthStatus) {
	e.mu.Lock()
	e.status = status
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
}

// fail records a classified failure: status transition, user-facing message,
// and the auto-clear timer.
func (e *Engine) fail(status AuthStatus, err error) {
	e.mu.Lock()
	e.status = status
	e.errMsg = userMessage(err)
	e.errGen++
	gen := e.errGen
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)

	if d := e.config.Engine.ErrorAutoClear; d > 0 {
		time.AfterFunc(d, func() {
			e.clearError(gen)
		})
	}
}

// setError records a message without changing status, for failures that
// leave the state machine where it was (validation, enrollment management).
func (e *Engine) setError(err error) {
	e.mu.Lock()
	e.errMsg = userMessage(err)
	e.errGen++
	gen := e.errGen
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)

	if d := e.config.Engine.ErrorAutoClear; d > 0 {
		time.AfterFunc(d, func() {
			e.clearError(gen)
		})
	}
}

// clearError clears the message only if no newer error or operation has
// superseded the generation the timer was armed for.
func (e *Engine) clearError(gen uint64) {
	e.mu.Lock()
	if e.errGen != gen || e.errMsg == "" {
		e.mu.Unlock()
		return
	}
	e.errMsg = ""
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
}
