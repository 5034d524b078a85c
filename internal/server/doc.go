// Package server runs the replica's HTTP transport: startup, signal
// handling and graceful shutdown.
package server
