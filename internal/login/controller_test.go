// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bcard-tui/internal/api"
)

// fakeClock is a settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// scripted replays a fixed list of login results.
type scripted struct {
	mu      sync.Mutex
	results []result
	calls   int
}

type result struct {
	token string
	err   error
}

func (s *scripted) Login(ctx context.Context, creds api.Credentials) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.results) == 0 {
		return "", errors.New("script exhausted")
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.token, r.err
}

func (s *scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type sinkRecorder struct {
	mu     sync.Mutex
	tokens []string
}

func (s *sinkRecorder) SetToken(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
}

func invalid(n int) result {
	return result{err: &api.InvalidCredentialsError{Remaining: n, Known: true}}
}

func invalidNoCount() result {
	return result{err: &api.InvalidCredentialsError{}}
}

func lockedUntil(t time.Time) result {
	return result{err: &api.AccountLockedError{Until: t}}
}

// newTestController uses a long check interval so only explicit Tick calls
// move time-based state.
func newTestController(auth Authenticator, sink TokenSink, clock *fakeClock) *Controller {
	return NewController(auth, sink,
		WithClock(clock.Now),
		WithCheckInterval(time.Hour),
	)
}

var creds = api.Credentials{Email: "a@example.com", Password: "pw"}

func TestController_InitialState(t *testing.T) {
	c := NewController(&scripted{}, nil)
	defer c.Close()

	s := c.State()
	require.Equal(t, PhaseReady, s.Phase)
	require.Equal(t, 3, s.Remaining)
	require.False(t, s.Blocked)
	require.Empty(t, s.Warning)
	require.True(t, c.CanSubmit())
}

func TestController_ExplicitCountsAreUsedVerbatim(t *testing.T) {
	sequences := [][]int{
		{2, 1},
		{2},
		{1},
		{2, 1, 0},
		{0},
	}
	for _, seq := range sequences {
		script := &scripted{}
		for _, n := range seq {
			script.results = append(script.results, invalid(n))
		}
		c := newTestController(script, nil, newFakeClock())

		for _, n := range seq {
			out, err := c.Submit(context.Background(), creds)
			require.NoError(t, err)
			require.Equal(t, OutcomeRejected, out)

			s := c.State()
			require.Equal(t, n, s.Remaining)
			require.Equal(t, n <= 1, s.Warning != "", "seq %v at %d", seq, n)
			if n <= 1 {
				require.Equal(t, PhaseWarned, s.Phase)
			} else {
				require.Equal(t, PhaseReady, s.Phase)
			}
		}
		c.Close()
	}
}

func TestController_WarningText(t *testing.T) {
	script := &scripted{results: []result{invalid(1), invalid(0)}}
	c := newTestController(script, nil, newFakeClock())
	defer c.Close()

	_, _ = c.Submit(context.Background(), creds)
	require.Equal(t, MsgLastAttempt, c.State().Warning)
	_, _ = c.Submit(context.Background(), creds)
	require.Equal(t, MsgNoAttempts, c.State().Warning)
}

func TestController_CountClampedToBudget(t *testing.T) {
	script := &scripted{results: []result{invalid(7)}}
	c := newTestController(script, nil, newFakeClock())
	defer c.Close()

	_, _ = c.Submit(context.Background(), creds)
	require.Equal(t, 3, c.State().Remaining)
}

func TestController_LocalDecrementWithoutCount(t *testing.T) {
	for k := 1; k <= 5; k++ {
		script := &scripted{}
		for i := 0; i < k; i++ {
			script.results = append(script.results, invalidNoCount())
		}
		c := newTestController(script, nil, newFakeClock())
		for i := 0; i < k; i++ {
			_, err := c.Submit(context.Background(), creds)
			require.NoError(t, err)
		}
		want := 3 - k
		if want < 0 {
			want = 0
		}
		s := c.State()
		require.Equal(t, want, s.Remaining, "after %d failures", k)
		require.Equal(t, want <= 1, s.Warning != "")
		c.Close()
	}
}

func TestController_TimedLockBlocksUntilExpiry(t *testing.T) {
	clock := newFakeClock()
	until := clock.Now().Add(90 * time.Second)
	script := &scripted{results: []result{lockedUntil(until), {token: "tok"}}}
	c := newTestController(script, nil, clock)
	defer c.Close()

	out, err := c.Submit(context.Background(), creds)
	require.NoError(t, err)
	require.Equal(t, OutcomeLocked, out)

	s := c.State()
	require.Equal(t, PhaseLocked, s.Phase)
	require.True(t, s.Blocked)
	require.True(t, until.Equal(s.BlockedUntil))
	require.True(t, s.CountdownActive)
	require.Equal(t, MsgLockedTimed, s.LockMessage())
	require.Equal(t, 90*time.Second, c.TimeRemaining())

	for _, step := range []time.Duration{0, 30 * time.Second, 59 * time.Second} {
		clock.Advance(step)
		require.False(t, c.Tick())
		require.False(t, c.CanSubmit())
		_, err := c.Submit(context.Background(), creds)
		require.ErrorIs(t, err, ErrLocked)
	}
	require.Equal(t, 1, script.Calls(), "no requests while locked")

	clock.Advance(time.Second)
	require.True(t, c.Tick())

	s = c.State()
	require.Equal(t, PhaseReady, s.Phase)
	require.Equal(t, 3, s.Remaining)
	require.False(t, s.Blocked)
	require.True(t, s.BlockedUntil.IsZero())
	require.Empty(t, s.Warning)
	require.False(t, s.CountdownActive)
	require.True(t, c.CanSubmit())
	require.Zero(t, c.TimeRemaining())
}

func TestController_ExpiredLockClearsImmediately(t *testing.T) {
	clock := newFakeClock()
	script := &scripted{results: []result{lockedUntil(clock.Now().Add(-time.Second))}}
	c := newTestController(script, nil, clock)
	defer c.Close()

	out, err := c.Submit(context.Background(), creds)
	require.NoError(t, err)
	require.Equal(t, OutcomeLocked, out)
	require.False(t, c.State().Blocked)
	require.True(t, c.CanSubmit())
}

func TestController_IndefiniteLockNeverSelfClears(t *testing.T) {
	clock := newFakeClock()
	script := &scripted{results: []result{
		{err: &api.AccountLockedError{Message: "User is blocked"}},
		{err: &api.AccountLockedError{}},
		invalid(2),
	}}
	c := newTestController(script, nil, clock)
	defer c.Close()

	_, _ = c.Submit(context.Background(), creds)
	s := c.State()
	require.True(t, s.Indefinite())
	require.False(t, s.CountdownActive)
	require.Equal(t, MsgLockedIndefinite, s.LockMessage())

	clock.Advance(365 * 24 * time.Hour)
	require.False(t, c.Tick())
	require.True(t, c.State().Blocked)
	require.False(t, c.CanSubmit())

	// Still blocked on retry: stays locked.
	require.True(t, c.Retry())
	require.False(t, c.Retry(), "retry arms once")
	require.True(t, c.CanSubmit())
	out, err := c.Submit(context.Background(), creds)
	require.NoError(t, err)
	require.Equal(t, OutcomeLocked, out)
	require.True(t, c.State().Blocked)
	require.False(t, c.CanSubmit())

	// Unblocked by an admin: a non-lock answer clears the lock.
	require.True(t, c.Retry())
	out, err = c.Submit(context.Background(), creds)
	require.NoError(t, err)
	require.Equal(t, OutcomeRejected, out)
	s = c.State()
	require.False(t, s.Blocked)
	require.Equal(t, 2, s.Remaining)
}

func TestController_RetryOnlyForIndefiniteLocks(t *testing.T) {
	clock := newFakeClock()
	c := newTestController(&scripted{results: []result{lockedUntil(clock.Now().Add(time.Minute))}}, nil, clock)
	defer c.Close()

	require.False(t, c.Retry(), "not locked")
	_, _ = c.Submit(context.Background(), creds)
	require.False(t, c.Retry(), "timed lock")
}

func TestController_SuccessResetsEverything(t *testing.T) {
	clock := newFakeClock()
	sink := &sinkRecorder{}
	script := &scripted{results: []result{
		invalid(1),
		{err: &api.AccountLockedError{}},
		{token: "jwt-token"},
	}}
	c := newTestController(script, sink, clock)
	defer c.Close()

	_, _ = c.Submit(context.Background(), creds)
	_, _ = c.Submit(context.Background(), creds)
	require.True(t, c.Retry())
	out, err := c.Submit(context.Background(), creds)
	require.NoError(t, err)
	require.Equal(t, OutcomeAuthenticated, out)

	s := c.State()
	require.Equal(t, PhaseAuthenticated, s.Phase)
	require.Equal(t, 3, s.Remaining)
	require.False(t, s.Blocked)
	require.Empty(t, s.Warning)
	require.Equal(t, []string{"jwt-token"}, sink.tokens)

	_, err = c.Submit(context.Background(), creds)
	require.ErrorIs(t, err, ErrAuthenticated)
}

func TestController_NetworkErrorLeavesStateAlone(t *testing.T) {
	netErr := &api.NetworkError{Op: "POST /users/login", Err: errors.New("connection refused")}
	script := &scripted{results: []result{invalid(2), {err: netErr}, {err: &api.APIError{Status: 500}}}}
	c := newTestController(script, nil, newFakeClock())
	defer c.Close()

	_, _ = c.Submit(context.Background(), creds)
	before := c.State()

	out, err := c.Submit(context.Background(), creds)
	require.Equal(t, OutcomeFailed, out)
	require.ErrorIs(t, err, netErr)
	require.Equal(t, before, c.State())

	out, err = c.Submit(context.Background(), creds)
	require.Equal(t, OutcomeFailed, out)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, before, c.State())
}

func TestController_ResetClearsWarningOnly(t *testing.T) {
	clock := newFakeClock()
	script := &scripted{results: []result{invalid(1), lockedUntil(clock.Now().Add(time.Minute))}}
	c := newTestController(script, nil, clock)
	defer c.Close()

	_, _ = c.Submit(context.Background(), creds)
	require.Equal(t, PhaseWarned, c.State().Phase)

	c.Reset()
	s := c.State()
	require.Empty(t, s.Warning)
	require.Equal(t, 1, s.Remaining)
	require.Equal(t, PhaseReady, s.Phase)

	_, _ = c.Submit(context.Background(), creds)
	c.Reset()
	s = c.State()
	require.True(t, s.Blocked)
	require.Equal(t, PhaseLocked, s.Phase)
}

func TestController_SubmitInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	auth := AuthenticatorFunc(func(ctx context.Context, _ api.Credentials) (string, error) {
		close(entered)
		<-release
		return "", &api.InvalidCredentialsError{Remaining: 2, Known: true}
	})
	c := NewController(auth, nil)
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Submit(context.Background(), creds)
	}()
	<-entered

	require.True(t, c.State().Submitting)
	require.False(t, c.CanSubmit())
	_, err := c.Submit(context.Background(), creds)
	require.ErrorIs(t, err, ErrSubmitInProgress)

	close(release)
	<-done
	require.False(t, c.State().Submitting)
}

func TestController_NewLockCancelsPreviousCheck(t *testing.T) {
	clock := newFakeClock()
	var active atomic.Int32
	script := &scripted{results: []result{
		lockedUntil(clock.Now().Add(time.Minute)),
		lockedUntil(clock.Now().Add(2 * time.Minute)),
	}}
	c := newTestController(script, nil, clock)
	c.onChange = func(s State) {
		if s.CountdownActive {
			active.Store(1)
		}
	}

	_, _ = c.Submit(context.Background(), creds)
	c.mu.Lock()
	first := c.stopCheck
	c.mu.Unlock()
	require.NotNil(t, first)

	// Re-lock directly, as a second lock response would.
	c.lock(&api.AccountLockedError{Until: clock.Now().Add(2 * time.Minute)})
	c.mu.Lock()
	second := c.stopCheck
	c.mu.Unlock()
	require.NotNil(t, second)
	require.EqualValues(t, 1, active.Load())

	c.Close()
	require.False(t, c.State().CountdownActive)
	_, err := c.Submit(context.Background(), creds)
	require.ErrorIs(t, err, ErrClosed)
}

// gated holds each login until release delivers its answer.
type gated struct {
	started chan struct{}
	release chan result
}

func newGated() *gated {
	return &gated{started: make(chan struct{}, 1), release: make(chan result, 1)}
}

func (g *gated) Login(ctx context.Context, creds api.Credentials) (string, error) {
	g.started <- struct{}{}
	r := <-g.release
	return r.token, r.err
}

func TestController_CloseDuringSubmitStartsNoCheck(t *testing.T) {
	auth := newGated()
	var late atomic.Int32
	var closed atomic.Bool
	c := NewController(auth, nil,
		WithCheckInterval(10*time.Millisecond),
		WithOnChange(func(State) {
			if closed.Load() {
				late.Add(1)
			}
		}),
	)

	type answer struct {
		outcome Outcome
		err     error
	}
	done := make(chan answer, 1)
	go func() {
		o, err := c.Submit(context.Background(), creds)
		done <- answer{o, err}
	}()
	<-auth.started

	c.Close()
	closed.Store(true)
	auth.release <- lockedUntil(time.Now().Add(time.Hour))

	got := <-done
	require.Equal(t, OutcomeNone, got.outcome)
	require.ErrorIs(t, got.err, ErrClosed)

	s := c.State()
	require.False(t, s.CountdownActive)
	require.False(t, s.Blocked)
	require.False(t, s.Submitting)

	// Wait out a few check intervals; nothing may report in.
	time.Sleep(50 * time.Millisecond)
	c.checks.Wait()
	require.Zero(t, late.Load())
}

func TestController_CloseDuringSubmitDropsToken(t *testing.T) {
	auth := newGated()
	sink := &sinkRecorder{}
	c := NewController(auth, sink)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), creds)
		done <- err
	}()
	<-auth.started

	c.Close()
	auth.release <- result{token: "late-token"}

	require.ErrorIs(t, <-done, ErrClosed)
	require.NotEqual(t, PhaseAuthenticated, c.State().Phase)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Empty(t, sink.tokens)
}

func TestController_LockAfterCloseStartsNoCheck(t *testing.T) {
	c := NewController(newGated(), nil, WithCheckInterval(10*time.Millisecond))
	c.Close()

	c.lock(&api.AccountLockedError{Until: time.Now().Add(time.Hour)})
	require.False(t, c.State().CountdownActive)
}

func TestController_PeriodicCheckExpiresLock(t *testing.T) {
	var changes atomic.Int32
	auth := AuthenticatorFunc(func(context.Context, api.Credentials) (string, error) {
		return "", &api.AccountLockedError{Until: time.Now().Add(150 * time.Millisecond)}
	})
	c := NewController(auth, nil,
		WithCheckInterval(20*time.Millisecond),
		WithOnChange(func(State) { changes.Add(1) }),
	)
	defer c.Close()

	_, _ = c.Submit(context.Background(), creds)
	require.True(t, c.State().Blocked)

	require.Eventually(t, func() bool {
		s := c.State()
		return !s.Blocked && s.Remaining == 3 && !s.CountdownActive
	}, 3*time.Second, 10*time.Millisecond)
	require.GreaterOrEqual(t, changes.Load(), int32(3))
}

func TestFormatCountdown(t *testing.T) {
	tests := map[time.Duration]string{
		-time.Second:                    "0s",
		0:                               "0s",
		1500 * time.Millisecond:         "2s",
		45 * time.Second:                "45s",
		4*time.Minute + 5*time.Second:   "4m 05s",
		time.Hour + 2*time.Minute + 3e9: "1h 02m 03s",
	}
	for d, want := range tests {
		require.Equal(t, want, FormatCountdown(d), d.String())
	}
}

func TestPhaseString(t *testing.T) {
	require.Equal(t, "ready", PhaseReady.String())
	require.Equal(t, "locked", PhaseLocked.String())
	require.Equal(t, "phase(9)", Phase(9).String())
}
