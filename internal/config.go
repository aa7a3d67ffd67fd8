package internal

import (
	"encoding/hex"
	"fmt"
	"time"

	"cipher-relay/crypto"
)

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	MaxMessageBytes      int           `env:"MAX_MESSAGE_BYTES,default=65536"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`

	// ROOT_KEY is 32 bytes hex; left empty, a fresh key is drawn at startup
	// and all sessions die with the process.
	RootKeyHex string `env:"ROOT_KEY"`
}

func (c Config) RootKey() ([]byte, error) {
	if c.RootKeyHex == "" {
		return crypto.RandomRootKey()
	}
	key, err := hex.DecodeString(c.RootKeyHex)
	if err != nil {
		return nil, fmt.Errorf("ROOT_KEY is not valid hex: %w", err)
	}
	if len(key) != crypto.KeySize {
		return nil, fmt.Errorf("ROOT_KEY must be %d bytes, got %d", crypto.KeySize, len(key))
	}
	return key, nil
}
