package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR points the scenario at an already-running relay
	// (host:port). Left empty, the test hosts the relay in-process.
	RelayAddr string `envconfig:"RELAY_ADDR"`
	// E2E_DEBUG_JSON dumps every websocket frame seen by the scenario
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
