package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/resolver"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/syncer"
	"github.com/MKhiriev/go-doc-sync/models"
)

type stubStore struct {
	store.LocalStore
	name   string
	closed bool
}

func (s *stubStore) Close() error {
	s.closed = true
	return nil
}

type unreachableRemote struct {
	adapter.RemoteStore
}

func (unreachableRemote) Probe(context.Context) error {
	return fmt.Errorf("probe: %w", adapter.ErrUnreachable)
}

func newTestRegistry(opened *[]*stubStore, failing map[string]error) *Registry {
	r := New(
		"/tmp/unused",
		unreachableRemote{},
		nil,
		resolver.NewLastWriterWins(),
		syncer.Config{PullInterval: time.Hour},
		logger.Nop(),
	)
	r.openStore = func(_ context.Context, _ string, collection string, _ *logger.Logger) (store.LocalStore, error) {
		if err, ok := failing[collection]; ok {
			return nil, err
		}
		s := &stubStore{name: collection}
		*opened = append(*opened, s)
		return s, nil
	}
	return r
}

func TestRegistryOpensCollectionLazilyAndOnce(t *testing.T) {
	var opened []*stubStore
	r := newTestRegistry(&opened, nil)
	defer r.Close()

	coll, err := r.Collection(context.Background(), "documents")
	require.NoError(t, err)
	assert.Equal(t, "documents", coll.Name)
	assert.NotNil(t, coll.Gateway)
	assert.NotNil(t, coll.Coordinator)
	assert.NotNil(t, coll.Bus)

	again, err := r.Collection(context.Background(), "documents")
	require.NoError(t, err)
	assert.Same(t, coll, again)
	assert.Len(t, opened, 1, "a collection's store must be opened exactly once")
}

func TestRegistryIsolatesCollectionFailures(t *testing.T) {
	errBroken := errors.New("disk full")

	var opened []*stubStore
	r := newTestRegistry(&opened, map[string]error{"templates": errBroken})
	defer r.Close()

	err := r.StartAll(context.Background(), []string{"documents", "templates", "categories"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)

	// The healthy collections still started.
	require.Len(t, r.Open(), 2)
	for _, coll := range r.Open() {
		assert.NotEqual(t, "templates", coll.Name)
		require.Eventually(t, func() bool {
			return coll.Coordinator.State() != syncer.StateIdle
		}, time.Second, 5*time.Millisecond)
	}
}

func TestRegistryCloseStopsEverything(t *testing.T) {
	var opened []*stubStore
	r := newTestRegistry(&opened, nil)

	require.NoError(t, r.StartAll(context.Background(), []string{"documents", "templates"}))

	var coordinators []*syncer.Coordinator
	for _, coll := range r.Open() {
		coordinators = append(coordinators, coll.Coordinator)
	}

	require.NoError(t, r.Close())

	for _, s := range opened {
		assert.True(t, s.closed, "store %q must be closed", s.name)
	}
	for _, c := range coordinators {
		assert.Equal(t, syncer.StateIdle, c.State())
	}

	_, err := r.Collection(context.Background(), "documents")
	assert.ErrorIs(t, err, ErrClosed)

	require.NoError(t, r.Close(), "double close must be a no-op")
}

func TestRegistryBusDeliversPerCollection(t *testing.T) {
	var opened []*stubStore
	r := newTestRegistry(&opened, nil)
	defer r.Close()

	coll, err := r.Collection(context.Background(), "documents")
	require.NoError(t, err)

	sub := coll.Bus.Subscribe()
	coll.Bus.Publish(models.EventChanged, "doc-1", "")

	select {
	case event := <-sub:
		assert.Equal(t, "documents", event.Collection)
		assert.Equal(t, models.EventChanged, event.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected an event on the collection bus")
	}
}
