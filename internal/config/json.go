package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Duration is a time.Duration that unmarshals from a JSON string
// ("30s", "1m") or a number of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration value: %v", v)
	}
}

type structuredJSONConfig struct {
	App struct {
		Collections []string `json:"collections"`
	} `json:"app,omitempty"`

	Storage struct {
		Local struct {
			Dir string `json:"dir"`
		} `json:"local,omitempty"`
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Remote struct {
		BaseURL        string   `json:"base_url"`
		Token          string   `json:"token"`
		RequestTimeout Duration `json:"request_timeout"`
		ProbeTimeout   Duration `json:"probe_timeout"`
	} `json:"remote,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
		Token          string   `json:"token"`
	} `json:"server,omitempty"`

	Sync struct {
		BatchSize     int      `json:"batch_size"`
		BatchTimeout  Duration `json:"batch_timeout"`
		PullInterval  Duration `json:"pull_interval"`
		RetryAttempts int      `json:"retry_attempts"`
		RetryBase     Duration `json:"retry_base"`
		RetryCap      Duration `json:"retry_cap"`
	} `json:"sync,omitempty"`

	Network struct {
		CheckInterval Duration `json:"check_interval"`
		Debounce      Duration `json:"debounce"`
	} `json:"network,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg structuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Collections: jsonCfg.App.Collections,
		},
		Storage: Storage{
			Local: Local{Dir: jsonCfg.Storage.Local.Dir},
			DB:    DB{DSN: jsonCfg.Storage.DB.DSN},
		},
		Remote: Remote{
			BaseURL:        jsonCfg.Remote.BaseURL,
			Token:          jsonCfg.Remote.Token,
			RequestTimeout: time.Duration(jsonCfg.Remote.RequestTimeout),
			ProbeTimeout:   time.Duration(jsonCfg.Remote.ProbeTimeout),
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
			Token:          jsonCfg.Server.Token,
		},
		Sync: Sync{
			BatchSize:     jsonCfg.Sync.BatchSize,
			BatchTimeout:  time.Duration(jsonCfg.Sync.BatchTimeout),
			PullInterval:  time.Duration(jsonCfg.Sync.PullInterval),
			RetryAttempts: jsonCfg.Sync.RetryAttempts,
			RetryBase:     time.Duration(jsonCfg.Sync.RetryBase),
			RetryCap:      time.Duration(jsonCfg.Sync.RetryCap),
		},
		Network: Network{
			CheckInterval: time.Duration(jsonCfg.Network.CheckInterval),
			Debounce:      time.Duration(jsonCfg.Network.Debounce),
		},
	}

	return cfg, nil
}
