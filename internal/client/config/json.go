package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "15s" or as integer nanoseconds.
type JsonConfig struct {
	APIBaseURL           string         `json:"api_base_url"`
	StoragePath          string         `json:"storage_path"`
	RequestTimeout       timex.Duration `json:"request_timeout"`
	SessionCheckInterval timex.Duration `json:"session_check_interval"`
	AuthScheme           string         `json:"auth_scheme"`
	LogLevel             string         `json:"log_level"`
	MetricsAddr          string         `json:"metrics_addr"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Keys missing from the
// file keep their current value. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.StoragePath, jc.StoragePath)
	setString(&cfg.AuthScheme, jc.AuthScheme)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.SessionCheckInterval.Duration != 0 {
		cfg.SessionCheckInterval = jc.SessionCheckInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
