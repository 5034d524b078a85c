// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container. It is populated
// by merging values from environment variables, command-line flags and an
// optional JSON file (last non-zero source wins).
//
// Struct tags:
//   - envPrefix: prefix applied to nested env lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the set of collections
	// the sync core manages.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the persistence backends: the local
	// per-collection SQLite stores and the replica's PostgreSQL database.
	Storage Storage `envPrefix:"STORAGE_"`

	// Remote holds the settings of the remote replica endpoint used by the
	// client-side adapter.
	Remote Remote `envPrefix:"REMOTE_"`

	// Server holds network settings for the replica HTTP server.
	Server Server `envPrefix:"SERVER_"`

	// Sync holds tuning knobs for the per-collection sync coordinators.
	Sync Sync `envPrefix:"SYNC_"`

	// Network holds connectivity-monitor settings.
	Network Network `envPrefix:"NETWORK_"`

	// JSONFilePath is the optional path to a JSON configuration file,
	// populated via the CONFIG env variable or the -c/-config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level settings.
type App struct {
	// Collections is the list of collection names the store manager opens at
	// startup (e.g. "documents,templates,categories"). Each collection gets
	// its own local store and sync coordinator.
	// Env: APP_COLLECTIONS
	Collections []string `env:"COLLECTIONS" envSeparator:","`
}

// Storage groups persistence backend settings.
type Storage struct {
	// Local holds local store settings for the client.
	Local Local `envPrefix:"LOCAL_"`

	// DB holds the replica database connection settings.
	DB DB `envPrefix:"DB_"`
}

// Local contains settings for the per-collection SQLite stores.
type Local struct {
	// Dir is the directory holding one SQLite database file per collection.
	// Env: STORAGE_LOCAL_DIR
	Dir string `env:"DIR"`
}

// DB holds connection settings for the replica's PostgreSQL database.
type DB struct {
	// DSN is the PostgreSQL Data Source Name.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Remote holds settings for the remote replica endpoint.
type Remote struct {
	// BaseURL is the replica base URL, e.g. "http://localhost:8080".
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// Token is an opaque bearer token attached to every request. Issued and
	// refreshed by the surrounding application layer.
	// Env: REMOTE_TOKEN
	Token string `env:"TOKEN"`

	// RequestTimeout bounds a single CRUD or changes-feed request.
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// ProbeTimeout bounds the health probe performed before a sync session
	// so an unreachable replica degrades to offline mode instead of hanging.
	// Env: REMOTE_PROBE_TIMEOUT
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT"`
}

// Server holds network settings for the replica HTTP server.
type Server struct {
	// HTTPAddress is the TCP address the server listens on, "host:port".
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration of a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Token, when set, is the static bearer token every inbound request must
	// present. Empty disables the check; token issuing is the surrounding
	// application's concern.
	// Env: SERVER_TOKEN
	Token string `env:"TOKEN"`
}

// Sync holds coordinator tuning knobs.
type Sync struct {
	// BatchSize is the number of pending records pushed per bulk request.
	// Env: SYNC_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`

	// BatchTimeout bounds one push or pull batch.
	// Env: SYNC_BATCH_TIMEOUT
	BatchTimeout time.Duration `env:"BATCH_TIMEOUT"`

	// PullInterval is how long a paused coordinator waits before the next
	// scheduled pull when no local writes arrive.
	// Env: SYNC_PULL_INTERVAL
	PullInterval time.Duration `env:"PULL_INTERVAL"`

	// RetryAttempts is the number of consecutive probe failures tolerated
	// before the coordinator enters the error state.
	// Env: SYNC_RETRY_ATTEMPTS
	RetryAttempts int `env:"RETRY_ATTEMPTS"`

	// RetryBase is the initial backoff delay between retries.
	// Env: SYNC_RETRY_BASE
	RetryBase time.Duration `env:"RETRY_BASE"`

	// RetryCap caps the exponential backoff delay.
	// Env: SYNC_RETRY_CAP
	RetryCap time.Duration `env:"RETRY_CAP"`
}

// Network holds connectivity-monitor settings.
type Network struct {
	// CheckInterval is how often the monitor probes connectivity.
	// Env: NETWORK_CHECK_INTERVAL
	CheckInterval time.Duration `env:"CHECK_INTERVAL"`

	// Debounce is the minimum interval between accepted state flips;
	// faster flaps are ignored to avoid thrashing the coordinators.
	// Env: NETWORK_DEBOUNCE
	Debounce time.Duration `env:"DEBOUNCE"`
}

// Defaults applied by validate() when the merged config leaves a field unset.
const (
	DefaultBatchSize      = 10
	DefaultBatchTimeout   = 10 * time.Second
	DefaultPullInterval   = 30 * time.Second
	DefaultRetryAttempts  = 3
	DefaultRetryBase      = time.Second
	DefaultRetryCap       = 30 * time.Second
	DefaultProbeTimeout   = 3 * time.Second
	DefaultRequestTimeout = 15 * time.Second
	DefaultCheckInterval  = 5 * time.Second
	DefaultDebounce       = time.Second
)

// GetStructuredConfig loads, merges and validates the configuration from all
// sources in priority order (last non-zero source wins):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
