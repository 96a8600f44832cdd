// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/bcard-tui/internal/api"
)

// Default controller settings.
const (
	DefaultMaxAttempts   = 3
	DefaultCheckInterval = 2 * time.Second
)

var (
	// ErrLocked is returned by Submit while the account is locked.
	ErrLocked = errors.New("login is locked")
	// ErrSubmitInProgress is returned when a submit is already in flight.
	ErrSubmitInProgress = errors.New("login already in progress")
	// ErrAuthenticated is returned once the form has signed in.
	ErrAuthenticated = errors.New("already authenticated")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("login controller closed")
)

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (string, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, creds api.Credentials) (string, error)

// Login calls f.
func (f AuthenticatorFunc) Login(ctx context.Context, creds api.Credentials) (string, error) {
	return f(ctx, creds)
}

// TokenSink receives the token of a successful login.
type TokenSink interface {
	SetToken(ctx context.Context, token string)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the attempt and lockout state of one login form.
// It is safe for concurrent use.
type Controller struct {
	auth     Authenticator
	sink     TokenSink
	logger   *zap.Logger
	max      int
	interval time.Duration
	now      func() time.Time
	onChange func(State)

	mu           sync.Mutex
	authed       bool
	remaining    int
	blocked      bool
	blockedUntil time.Time
	warning      string
	submitting   bool
	retryArmed   bool
	closed       bool

	// stopCheck cancels the running expiry check, if any.
	stopCheck context.CancelFunc
	checks    sync.WaitGroup
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger.Named("login")
		}
	}
}

// WithMaxAttempts sets the attempt budget a fresh form starts with.
func WithMaxAttempts(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.max = n
		}
	}
}

// WithCheckInterval sets how often a timed lock is checked for expiry.
func WithCheckInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithOnChange registers fn to receive a snapshot after every transition.
// fn is called without the controller lock held, possibly from the expiry
// check goroutine.
func WithOnChange(fn func(State)) ControllerOption {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// NewController creates a controller in the Ready phase with a full
// attempt budget. sink may be nil when the caller stores the token itself.
func NewController(auth Authenticator, sink TokenSink, opts ...ControllerOption) *Controller {
	c := &Controller{
		auth:     auth,
		sink:     sink,
		logger:   zap.NewNop(),
		max:      DefaultMaxAttempts,
		interval: DefaultCheckInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.remaining = c.max
	return c
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// CanSubmit reports whether Submit would send a request.
func (c *Controller) CanSubmit() bool {
	return c.State().CanSubmit() && !c.isClosed()
}

// TimeRemaining returns how long a timed lock has left, or zero.
func (c *Controller) TimeRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.blocked || c.blockedUntil.IsZero() {
		return 0
	}
	if d := c.blockedUntil.Sub(c.now()); d > 0 {
		return d
	}
	return 0
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) stateLocked() State {
	s := State{
		Remaining:       c.remaining,
		Blocked:         c.blocked,
		BlockedUntil:    c.blockedUntil,
		Warning:         c.warning,
		Submitting:      c.submitting,
		RetryArmed:      c.retryArmed,
		CountdownActive: c.stopCheck != nil,
	}
	switch {
	case c.authed:
		s.Phase = PhaseAuthenticated
	case c.blocked:
		s.Phase = PhaseLocked
	case c.warning != "":
		s.Phase = PhaseWarned
	default:
		s.Phase = PhaseReady
	}
	return s
}

func (c *Controller) emit(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit sends one login attempt unless the form is locked or already
// waiting on one. Rejections and locks update the state and are reported
// through the outcome; only transport and server failures return an error,
// and those leave the state as it was.
func (c *Controller) Submit(ctx context.Context, creds api.Credentials) (Outcome, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return OutcomeNone, ErrClosed
	case c.authed:
		c.mu.Unlock()
		return OutcomeNone, ErrAuthenticated
	case c.submitting:
		c.mu.Unlock()
		return OutcomeNone, ErrSubmitInProgress
	case c.blocked && !c.retryArmed:
		c.mu.Unlock()
		return OutcomeNone, ErrLocked
	}
	c.submitting = true
	snap := c.stateLocked()
	c.mu.Unlock()
	c.emit(snap)

	token, err := c.auth.Login(ctx, creds)

	// A form torn down mid-request takes no answer: no token, no lock check.
	c.mu.Lock()
	if c.closed {
		c.submitting = false
		c.retryArmed = false
		c.mu.Unlock()
		if err == nil {
			c.logger.Info("login answer dropped after close")
		}
		return OutcomeNone, ErrClosed
	}
	c.mu.Unlock()

	var invalid *api.InvalidCredentialsError
	var locked *api.AccountLockedError
	switch {
	case err == nil:
		return c.succeed(ctx, token)
	case errors.As(err, &locked):
		c.lock(locked)
		return OutcomeLocked, nil
	case errors.As(err, &invalid):
		c.reject(invalid)
		return OutcomeRejected, nil
	default:
		c.mu.Lock()
		c.submitting = false
		c.retryArmed = false
		snap = c.stateLocked()
		c.mu.Unlock()
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("login failed", zap.Error(err))
		}
		c.emit(snap)
		return OutcomeFailed, err
	}
}

func (c *Controller) succeed(ctx context.Context, token string) (Outcome, error) {
	c.mu.Lock()
	c.cancelCheckLocked()
	c.submitting = false
	c.retryArmed = false
	c.blocked = false
	c.blockedUntil = time.Time{}
	c.remaining = c.max
	c.warning = ""
	c.authed = true
	snap := c.stateLocked()
	c.mu.Unlock()

	c.logger.Info("login succeeded")
	if c.sink != nil {
		c.sink.SetToken(ctx, token)
	}
	c.emit(snap)
	return OutcomeAuthenticated, nil
}

func (c *Controller) reject(e *api.InvalidCredentialsError) {
	c.mu.Lock()
	// A real answer that is not a lock means any lock is over.
	if c.blocked {
		c.cancelCheckLocked()
		c.blocked = false
		c.blockedUntil = time.Time{}
	}
	if e.Known {
		c.remaining = clamp(e.Remaining, 0, c.max)
	} else {
		c.remaining = clamp(c.remaining-1, 0, c.max)
	}
	c.warning = warningFor(c.remaining)
	c.submitting = false
	c.retryArmed = false
	snap := c.stateLocked()
	c.mu.Unlock()

	c.logger.Info("login rejected",
		zap.Int("remaining", snap.Remaining),
		zap.Bool("count_from_server", e.Known),
	)
	c.emit(snap)
}

func (c *Controller) lock(e *api.AccountLockedError) {
	c.mu.Lock()
	c.cancelCheckLocked()
	c.submitting = false
	c.retryArmed = false
	c.blocked = true
	c.blockedUntil = e.Until
	c.warning = ""
	if !e.Indefinite() && !c.closed {
		c.startCheckLocked()
	}
	until := c.blockedUntil
	c.mu.Unlock()

	if until.IsZero() {
		c.logger.Info("account locked", zap.Bool("indefinite", true))
	} else {
		c.logger.Info("account locked", zap.Time("until", until))
	}

	// A lock that has already run out ends straight away.
	if !c.Tick() {
		c.emit(c.State())
	}
}

// =============================================================================
// LOCK EXPIRY
// =============================================================================

// Tick runs one expiry check. When a timed lock has run out it resets the
// form to Ready with a full budget, stops the periodic check and reports
// true. The periodic check calls this; tests may call it directly.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	if !c.blocked || c.blockedUntil.IsZero() || c.now().Before(c.blockedUntil) {
		c.mu.Unlock()
		return false
	}
	c.cancelCheckLocked()
	c.blocked = false
	c.blockedUntil = time.Time{}
	c.remaining = c.max
	c.warning = ""
	snap := c.stateLocked()
	c.mu.Unlock()

	c.logger.Info("lock expired")
	c.emit(snap)
	return true
}

// startCheckLocked launches the periodic expiry check. Any previous check
// must already be cancelled.
func (c *Controller) startCheckLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	c.stopCheck = cancel
	c.checks.Add(1)

	go func() {
		defer c.checks.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.Tick() {
					return
				}
			}
		}
	}()
}

func (c *Controller) cancelCheckLocked() {
	if c.stopCheck != nil {
		c.stopCheck()
		c.stopCheck = nil
	}
}

// =============================================================================
// USER ACTIONS
// =============================================================================

// Reset is the form's clear action. It drops the warning text; attempts and
// lock state follow the server and are left alone. Callers clear their own
// input fields.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.warning = ""
	snap := c.stateLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// Retry permits one submit during an indefinite lock, for a user who has
// been unblocked by an administrator. It reports whether a retry was armed.
func (c *Controller) Retry() bool {
	c.mu.Lock()
	if !c.blocked || !c.blockedUntil.IsZero() || c.retryArmed {
		c.mu.Unlock()
		return false
	}
	c.retryArmed = true
	snap := c.stateLocked()
	c.mu.Unlock()
	c.emit(snap)
	return true
}

// Close cancels any running expiry check and waits for it to exit.
// The controller rejects submits afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancelCheckLocked()
	c.mu.Unlock()
	c.checks.Wait()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
