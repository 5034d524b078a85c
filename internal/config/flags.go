package config

import (
	"flag"
	"strings"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-r remote replica base URL
//	-l local stores directory
//	-d replica database DSN
//	-collections comma-separated collection names
//	-c/-config JSON file path with configs
//	-request-timeout request timeout (e.g. "30s", "1m")
//	-pull-interval coordinator pull interval
func ParseFlags() *StructuredConfig {
	var serverAddress string
	var remoteBaseURL string
	var localDir string
	var databaseDSN string
	var collections string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var pullInterval time.Duration

	flag.StringVar(&serverAddress, "a", "", "Net address host:port")
	flag.StringVar(&remoteBaseURL, "r", "", "Remote replica base URL")
	flag.StringVar(&localDir, "l", "", "Local stores directory")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&collections, "collections", "", "Comma-separated collection names")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g. 30s, 1m)")
	flag.DurationVar(&pullInterval, "pull-interval", 0, "Coordinator pull interval")

	flag.Parse()

	var names []string
	for _, name := range strings.Split(collections, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	return &StructuredConfig{
		App: App{
			Collections: names,
		},
		Storage: Storage{
			Local: Local{Dir: localDir},
			DB:    DB{DSN: databaseDSN},
		},
		Remote: Remote{
			BaseURL:        remoteBaseURL,
			RequestTimeout: requestTimeout,
		},
		Server: Server{
			HTTPAddress:    serverAddress,
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			PullInterval: pullInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}
