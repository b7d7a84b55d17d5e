package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"inventory-service/internal/service"
)

// State is the scan session state
type State string

// Session states
const (
	StateInitializing State = "initializing"
	StateReady        State = "ready"
	StateInvalid      State = "invalid"
	StateDetected     State = "detected"
	StateError        State = "error"
	StateManual       State = "manual"
)

var (
	// ErrSessionClosed is returned when an operation hits a torn-down session
	ErrSessionClosed = errors.New("scan session closed")
	// ErrManualUnavailable is returned when manual entry is requested from a
	// state that does not allow it
	ErrManualUnavailable = errors.New("manual entry only available while ready or after a camera error")
	// ErrEmptyPayload is returned for blank manual input
	ErrEmptyPayload = errors.New("payload must not be empty")
)

// Event is one observable session transition
type Event struct {
	State   State
	Payload string
	// Result carries the validation outcome for detected/invalid events
	Result service.ValidationResult
	Reason string
	Err    error
}

// Validator resolves a payload to a product. Satisfied by service.Validator
// and by the HTTP validator in the scanner client.
type Validator interface {
	Validate(ctx context.Context, payload string) service.ValidationResult
}

// Config holds the session timing constants
type Config struct {
	// DebounceWindow suppresses detections this close to the previous one
	DebounceWindow time.Duration
	// InvalidCooldown is how long a failed payload stays rejected before
	// the session resumes scanning
	InvalidCooldown time.Duration
}

const (
	defaultDebounceWindow  = 500 * time.Millisecond
	defaultInvalidCooldown = 2 * time.Second
)

// Session is the scan state machine for one scan attempt. It debounces
// duplicate detections, tracks rejected payloads so the same bad code is not
// re-flagged every frame, allows at most one validation in flight, and
// exposes a manual-entry path that goes through the same validation as the
// camera path. Detected is terminal; Close makes every late callback a no-op.
type Session struct {
	cfg       Config
	validator Validator
	log       *zap.Logger

	mu            sync.Mutex
	state         State
	lastPayload   string
	lastDetection time.Time
	rejected      map[string]struct{}
	validating    bool
	closed        bool
	events        chan Event
	timers        []*time.Timer
	now           func() time.Time
}

// NewSession creates a session in the initializing state
func NewSession(cfg Config, validator Validator, log *zap.Logger) *Session {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = defaultDebounceWindow
	}
	if cfg.InvalidCooldown <= 0 {
		cfg.InvalidCooldown = defaultInvalidCooldown
	}
	return &Session{
		cfg:       cfg,
		validator: validator,
		log:       log,
		state:     StateInitializing,
		rejected:  make(map[string]struct{}),
		events:    make(chan Event, 16),
		now:       time.Now,
	}
}

// Events exposes session transitions. The channel is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastPayload returns the most recently accepted payload
func (s *Session) LastPayload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPayload
}

// Ready marks the camera stream as live; only valid from initializing
func (s *Session) Ready() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateInitializing {
		return
	}
	s.state = StateReady
	s.emitLocked(Event{State: StateReady})
}

// Fail moves the session to the error state. The automatic path is over;
// manual entry remains available.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == StateDetected {
		return
	}
	s.state = StateError
	s.emitLocked(Event{State: StateError, Err: err})
}

// Offer hands a decoded payload to the session. Ignored unless the session
// is ready; debounced against the previous detection; dropped while the
// payload sits in the rejected set or another validation is in flight.
// Validation runs off the caller's goroutine so the sampling loop never
// blocks on the store lookup.
func (s *Session) Offer(ctx context.Context, payload string) {
	s.mu.Lock()
	if s.closed || s.state != StateReady || payload == "" {
		s.mu.Unlock()
		return
	}
	if _, bad := s.rejected[payload]; bad {
		s.mu.Unlock()
		return
	}
	if s.validating {
		s.mu.Unlock()
		return
	}
	now := s.now()
	if !s.lastDetection.IsZero() && now.Sub(s.lastDetection) < s.cfg.DebounceWindow {
		s.mu.Unlock()
		return
	}
	s.validating = true
	s.lastDetection = now
	s.lastPayload = payload
	s.mu.Unlock()

	go s.runValidation(ctx, payload)
}

func (s *Session) runValidation(ctx context.Context, payload string) {
	result := s.validator.Validate(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.validating = false
	// a validation finishing after teardown, or after the session left the
	// ready state, must not fire anything
	if s.closed || s.state != StateReady {
		return
	}

	if result.Valid {
		s.state = StateDetected
		s.emitLocked(Event{State: StateDetected, Payload: payload, Result: result})
		return
	}

	s.state = StateInvalid
	s.rejected[payload] = struct{}{}
	s.emitLocked(Event{State: StateInvalid, Payload: payload, Result: result, Reason: result.Reason})

	t := time.AfterFunc(s.cfg.InvalidCooldown, func() {
		s.clearRejection(payload)
	})
	s.timers = append(s.timers, t)
}

// clearRejection lets the payload be scanned again and resumes scanning
func (s *Session) clearRejection(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	delete(s.rejected, payload)
	if s.state == StateInvalid {
		s.state = StateReady
		s.emitLocked(Event{State: StateReady})
	}
}

// EnterManual switches to manual entry; allowed while scanning or after a
// camera error
func (s *Session) EnterManual() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StateReady && s.state != StateError {
		return ErrManualUnavailable
	}
	s.state = StateManual
	s.emitLocked(Event{State: StateManual})
	return nil
}

// SubmitManual validates a typed payload through the same contract as the
// camera path. On success the session transitions to detected; on a failed
// validation it stays in manual so the user can correct the input.
func (s *Session) SubmitManual(ctx context.Context, payload string) (service.ValidationResult, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return service.ValidationResult{}, ErrEmptyPayload
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return service.ValidationResult{}, ErrSessionClosed
	}
	if s.state != StateManual {
		s.mu.Unlock()
		return service.ValidationResult{}, ErrManualUnavailable
	}
	s.lastPayload = payload
	s.mu.Unlock()

	result := s.validator.Validate(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return service.ValidationResult{}, ErrSessionClosed
	}
	if result.Valid && s.state == StateManual {
		s.state = StateDetected
		s.emitLocked(Event{State: StateDetected, Payload: payload, Result: result})
	}
	return result, nil
}

// Close tears the session down: pending cooldown timers are stopped, the
// event channel is closed, and any validation still in flight becomes a
// no-op when it completes.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	close(s.events)
}

// emitLocked sends an event without blocking; callers hold s.mu
func (s *Session) emitLocked(ev Event) {
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.log.Warn("scan session event dropped",
			zap.String("state", string(ev.State)),
			zap.String("payload", ev.Payload))
	}
}
