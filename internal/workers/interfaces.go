// Package workers provides abstractions for managing background workers:
// the network monitor and the per-collection sync coordinators. It defines
// the Worker interface and a Workers aggregate that starts and stops them
// uniformly.
package workers

import "context"

// Worker is a background process with an explicit lifecycle. Start launches
// the worker's goroutines and returns; Stop blocks until they have exited.
//
// Both netmon.Monitor and syncer.Coordinator satisfy this interface.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
