// SPDX-License-Identifier: Apache-2.0

// Package registry wires the per-collection plumbing: one local store, one
// gateway, one coordinator and one event bus per collection name. It is an
// explicit object constructed at startup and handed to its consumers, so
// tests can substitute fakes and nothing hangs off package-level state.
// Collections are fully independent: failing to open one never affects the
// others.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/events"
	"github.com/MKhiriev/go-doc-sync/internal/gateway"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/netmon"
	"github.com/MKhiriev/go-doc-sync/internal/resolver"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/syncer"
)

// ErrClosed is returned when a collection is requested after Close.
var ErrClosed = errors.New("registry is closed")

// Collection bundles everything one collection needs at runtime.
type Collection struct {
	Name        string
	Store       store.LocalStore
	Gateway     *gateway.Gateway
	Coordinator *syncer.Coordinator
	Bus         *events.Bus
}

// openStoreFunc is swappable in tests.
type openStoreFunc func(ctx context.Context, dir string, collection string, log *logger.Logger) (store.LocalStore, error)

// Registry opens collections lazily and owns their lifecycle.
type Registry struct {
	dir       string
	remote    adapter.RemoteStore
	monitor   *netmon.Monitor
	resolver  resolver.ConflictResolver
	syncCfg   syncer.Config
	logger    *logger.Logger
	openStore openStoreFunc

	mu          sync.Mutex
	collections map[string]*Collection
	closed      bool
}

// New constructs a Registry. dir is the directory holding one database file
// per collection; monitor may be nil for single-shot tools that never sync.
func New(
	dir string,
	remote adapter.RemoteStore,
	monitor *netmon.Monitor,
	res resolver.ConflictResolver,
	syncCfg syncer.Config,
	log *logger.Logger,
) *Registry {
	return &Registry{
		dir:         dir,
		remote:      remote,
		monitor:     monitor,
		resolver:    res,
		syncCfg:     syncCfg,
		logger:      log,
		openStore:   store.OpenLocalStore,
		collections: map[string]*Collection{},
	}
}

// Collection returns the named collection, opening its store and wiring its
// gateway, coordinator and event bus on first use. The coordinator is not
// started here; Start or StartAll does that.
func (r *Registry) Collection(ctx context.Context, name string) (*Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if coll, ok := r.collections[name]; ok {
		return coll, nil
	}

	localStore, err := r.openStore(ctx, r.dir, name, r.logger)
	if err != nil {
		return nil, fmt.Errorf("opening collection %q: %w", name, err)
	}

	bus := events.NewBus(name, 0)
	coordinator := syncer.NewCoordinator(name, localStore, r.remote, r.resolver, bus, r.syncCfg, r.logger)

	online := func() bool { return false }
	if r.monitor != nil {
		r.monitor.Register(coordinator)
		online = r.monitor.Online
	}

	coll := &Collection{
		Name:        name,
		Store:       localStore,
		Gateway:     gateway.New(name, localStore, r.remote, online, coordinator.Kick, r.logger),
		Coordinator: coordinator,
		Bus:         bus,
	}
	r.collections[name] = coll

	r.logger.Info().Str("collection", name).Msg("collection opened")
	return coll, nil
}

// StartAll opens the named collections and starts their coordinators. A
// collection that fails to open is reported and skipped; the rest keep
// running. The joined error lists every failure.
func (r *Registry) StartAll(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		coll, err := r.Collection(ctx, name)
		if err != nil {
			r.logger.Error().Err(err).Str("collection", name).Msg("collection failed to start")
			errs = append(errs, err)
			continue
		}
		coll.Coordinator.Start(ctx)
	}
	return errors.Join(errs...)
}

// Open returns the already-opened collections, in no particular order.
func (r *Registry) Open() []*Collection {
	r.mu.Lock()
	defer r.mu.Unlock()

	colls := make([]*Collection, 0, len(r.collections))
	for _, coll := range r.collections {
		colls = append(colls, coll)
	}
	return colls
}

// Close stops every coordinator, closes every store and bus, and rejects
// further Collection calls. Safe to call more than once.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	colls := make([]*Collection, 0, len(r.collections))
	for _, coll := range r.collections {
		colls = append(colls, coll)
	}
	r.mu.Unlock()

	var errs []error
	for _, coll := range colls {
		coll.Coordinator.Stop()
		coll.Bus.Close()
		if err := coll.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing collection %q: %w", coll.Name, err))
		}
	}
	return errors.Join(errs...)
}
