// SPDX-License-Identifier: Apache-2.0

// Package syncer implements the per-collection background replication
// process between the local store and the remote replica.
//
// Each Coordinator owns a single goroutine driving an explicit state
// machine:
//
//	idle → connecting → active ⇄ paused
//	            │          │
//	            └──→ error ─┘   (after consecutive probe failures; left via
//	                             Retry or the next online transition)
//
// offline is absorbing and entered from any state when the network monitor
// reports a loss of connectivity; the next online event moves the machine
// back to connecting. Local-only operation is a normal operating mode, not
// a fault: an unreachable replica parks the coordinator in offline rather
// than error. The coordinator never propagates errors to callers; it
// degrades its own state and relies on retry with backoff.
package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/events"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/resolver"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
)

// State is a coordinator lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StatePaused     State = "paused"
	StateOffline    State = "offline"
	StateError      State = "error"
)

// Config holds the coordinator tuning knobs.
type Config struct {
	// BatchSize bounds one push batch and one pull page.
	BatchSize int
	// BatchTimeout bounds one push or pull network call.
	BatchTimeout time.Duration
	// PullInterval is the paused-state wait before the next scheduled pull.
	PullInterval time.Duration
	// RetryAttempts is the number of consecutive probe retries before the
	// error state.
	RetryAttempts int
	// RetryBase and RetryCap shape the exponential probe backoff.
	RetryBase time.Duration
	RetryCap  time.Duration
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 10 * time.Second
	}
	if c.PullInterval <= 0 {
		c.PullInterval = 30 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = time.Second
	}
	if c.RetryCap <= 0 {
		c.RetryCap = 30 * time.Second
	}
}

// Coordinator performs continuous bidirectional replication for one
// collection. It implements netmon.Listener.
type Coordinator struct {
	collection string
	local      store.LocalStore
	remote     adapter.RemoteStore
	resolver   resolver.ConflictResolver
	bus        *events.Bus
	cfg        Config
	logger     *logger.Logger

	stateMu sync.RWMutex
	state   State

	online       atomic.Bool
	monitored    atomic.Bool
	retryRequest atomic.Bool
	wake         chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator constructs a Coordinator for one collection. The zero parts
// of cfg fall back to the documented defaults.
func NewCoordinator(
	collection string,
	local store.LocalStore,
	remote adapter.RemoteStore,
	res resolver.ConflictResolver,
	bus *events.Bus,
	cfg Config,
	log *logger.Logger,
) *Coordinator {
	cfg.applyDefaults()

	return &Coordinator{
		collection: collection,
		local:      local,
		remote:     remote,
		resolver:   res,
		bus:        bus,
		cfg:        cfg,
		logger:     log.WithCollection(collection),
		state:      StateIdle,
		wake:       make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.stateMu.Lock()
	prev := c.state
	c.state = s
	c.stateMu.Unlock()

	if prev != s {
		c.logger.Debug().Str("from", string(prev)).Str("to", string(s)).Msg("coordinator state transition")
	}
}

// OnOnline implements netmon.Listener: resume replication.
func (c *Coordinator) OnOnline() {
	c.monitored.Store(true)
	c.online.Store(true)
	c.wakeUp()
}

// OnOffline implements netmon.Listener: pause into the absorbing offline
// state. Any in-flight network call is bounded by its per-batch timeout.
func (c *Coordinator) OnOffline() {
	c.monitored.Store(true)
	c.online.Store(false)
	c.wakeUp()
}

// Kick signals that new pending local writes exist so a paused coordinator
// pushes them without waiting for the next scheduled tick.
func (c *Coordinator) Kick() {
	c.wakeUp()
}

// Retry requests a manual re-connect from the error state.
func (c *Coordinator) Retry() {
	c.retryRequest.Store(true)
	c.wakeUp()
}

func (c *Coordinator) wakeUp() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Start launches the replication loop. A previously running loop is stopped
// first. The loop exits when ctx is cancelled or Stop is called; stopping
// aborts any in-flight network call and leaves the local store in the last
// consistent state (push is idempotent per record, so partially pushed
// batches are safe to resume).
func (c *Coordinator) Start(ctx context.Context) {
	c.Stop()

	c.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.run(loopCtx)
	}()
}

// Stop cancels the replication loop and blocks until it has fully exited.
// Safe to call when the coordinator is not running.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.setState(StateIdle)
}

func (c *Coordinator) run(ctx context.Context) {
	c.setState(StateConnecting)

	for ctx.Err() == nil {
		switch c.State() {
		case StateConnecting:
			c.connect(ctx)
		case StateActive:
			c.replicate(ctx)
		case StatePaused:
			c.waitPaused(ctx)
		case StateOffline:
			c.waitOffline(ctx)
		case StateError:
			c.waitError(ctx)
		default:
			c.setState(StateConnecting)
		}
	}
}

// connect probes the replica before starting a session. An unreachable
// replica is not a fault: it degrades straight to offline. Unexpected probe
// failures are retried with exponential backoff and only then park the
// coordinator in error.
func (c *Coordinator) connect(ctx context.Context) {
	backoff := retry.WithMaxRetries(
		uint64(c.cfg.RetryAttempts),
		retry.WithCappedDuration(c.cfg.RetryCap, retry.NewExponential(c.cfg.RetryBase)),
	)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		probeErr := c.remote.Probe(ctx)
		if probeErr == nil {
			return nil
		}
		if errors.Is(probeErr, adapter.ErrUnreachable) {
			// No network is the normal offline mode; do not burn retries.
			return probeErr
		}
		return retry.RetryableError(probeErr)
	})

	switch {
	case err == nil:
		c.setState(StateActive)
		c.bus.Publish(models.EventActive, "", "")
	case errors.Is(err, adapter.ErrUnreachable):
		c.setState(StateOffline)
	case errors.Is(err, adapter.ErrDenied):
		c.logger.Warn().Err(err).Msg("replica denied the session")
		c.bus.Publish(models.EventDenied, "", err.Error())
		c.setState(StateError)
	case ctx.Err() != nil:
		// Shut down mid-probe; run() exits on the next iteration.
	default:
		c.logger.Error().Err(err).Msg("probe failed after retries")
		c.bus.Publish(models.EventError, "", err.Error())
		c.setState(StateError)
	}
}

// replicate runs one push/pull/resolve cycle and decides the next state.
func (c *Coordinator) replicate(ctx context.Context) {
	if !c.online.Load() && c.onlineKnown() {
		c.setState(StateOffline)
		return
	}

	changed, err := c.cycle(ctx)

	switch {
	case err == nil && changed:
		// More work may be queued behind what we just drained; loop again.
	case err == nil:
		c.bus.Publish(models.EventCompleted, "", "")
		c.setState(StatePaused)
	case errors.Is(err, adapter.ErrUnreachable):
		c.setState(StateOffline)
	case errors.Is(err, adapter.ErrDenied):
		c.logger.Warn().Err(err).Msg("replica denied replication")
		c.bus.Publish(models.EventDenied, "", err.Error())
		c.setState(StateError)
	case ctx.Err() != nil:
	default:
		c.logger.Error().Err(err).Msg("replication cycle failed")
		c.bus.Publish(models.EventError, "", err.Error())
		c.setState(StateError)
	}
}

func (c *Coordinator) waitPaused(ctx context.Context) {
	c.bus.Publish(models.EventPaused, "", "")

	t := time.NewTimer(c.cfg.PullInterval)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return
	case <-t.C:
	case <-c.wake:
	}

	if !c.online.Load() && c.onlineKnown() {
		c.setState(StateOffline)
		return
	}

	c.setState(StateActive)
}

func (c *Coordinator) waitOffline(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-c.wake:
	}

	if c.online.Load() {
		c.setState(StateConnecting)
	}
}

func (c *Coordinator) waitError(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-c.wake:
	}

	if c.retryRequest.Swap(false) || c.online.Load() {
		c.setState(StateConnecting)
	}
}

// onlineKnown reports whether a network monitor ever signalled this
// coordinator. Without a monitor (tests, single-shot tools) the probe result
// alone decides reachability.
func (c *Coordinator) onlineKnown() bool {
	return c.monitored.Load()
}
