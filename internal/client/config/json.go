package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pennyplan/internal/flagx"
	"github.com/dmitrijs2005/pennyplan/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL string         `json:"server_url"`
	Timeout   timex.Duration `json:"timeout"`
}

func parseJson(cfg *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)
	if jsonConfigFile == "" {
		return nil
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.Timeout.IsSet() {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}
