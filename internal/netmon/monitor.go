// Package netmon tracks connectivity to the remote replica and raises
// online/offline transitions for the sync coordinators. Transitions are
// debounced: flips faster than the configured minimum interval are ignored
// so a flapping link does not thrash the coordinators.
package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

// Status is the monitor's connectivity state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// ProbeFunc checks connectivity; a nil error means the replica is reachable.
type ProbeFunc func(ctx context.Context) error

// Listener receives connectivity transitions. Coordinators implement it to
// pause on offline and resume on online.
type Listener interface {
	OnOnline()
	OnOffline()
}

// Monitor derives a debounced online/offline state from periodic probes.
// It is idle until Start is called.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration
	debounce time.Duration
	logger   *logger.Logger

	mu        sync.Mutex
	status    Status
	flippedAt time.Time
	listeners []Listener
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewMonitor constructs a Monitor. interval and debounce fall back to 5s and
// 1s respectively when non-positive. The initial state is offline; the first
// successful probe flips it online.
func NewMonitor(probe ProbeFunc, interval, debounce time.Duration, log *logger.Logger) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if debounce <= 0 {
		debounce = time.Second
	}

	return &Monitor{
		probe:    probe,
		interval: interval,
		debounce: debounce,
		logger:   log,
		status:   StatusOffline,
	}
}

// Register adds a listener. Listeners registered after a transition only see
// subsequent transitions.
func (m *Monitor) Register(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Status returns the current debounced state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Online is a convenience predicate for injection into the gateway.
func (m *Monitor) Online() bool {
	return m.Status() == StatusOnline
}

// Start launches the probe loop. Any previously running loop is stopped
// first. The loop exits when ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.Stop()

	m.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()

		m.check(loopCtx)

		t := time.NewTicker(m.interval)
		defer t.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-t.C:
				m.check(loopCtx)
			}
		}
	}()
}

// Stop cancels the probe loop and blocks until it has exited. Safe to call
// when the monitor is not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// SetStatus applies an externally observed connectivity signal (e.g. a
// platform network-change notification), subject to the same debounce rule
// as probe results.
func (m *Monitor) SetStatus(status Status) {
	m.transition(status)
}

func (m *Monitor) check(ctx context.Context) {
	if err := m.probe(ctx); err != nil {
		m.transition(StatusOffline)
		return
	}
	m.transition(StatusOnline)
}

func (m *Monitor) transition(next Status) {
	m.mu.Lock()

	if m.status == next {
		m.mu.Unlock()
		return
	}

	now := time.Now()
	if !m.flippedAt.IsZero() && now.Sub(m.flippedAt) < m.debounce {
		// Flapping faster than the debounce window; ignore the flip.
		m.mu.Unlock()
		return
	}

	m.status = next
	m.flippedAt = now
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	m.logger.Info().Str("status", string(next)).Msg("connectivity transition")

	for _, l := range listeners {
		if next == StatusOnline {
			l.OnOnline()
		} else {
			l.OnOffline()
		}
	}
}
