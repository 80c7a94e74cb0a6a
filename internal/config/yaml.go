package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize bounds a config file.
const MaxInputSize = 1 << 20

var errEmptyInput = errors.New("empty config")

// decodeStrict rejects unknown keys so typos surface instead of being ignored.
func decodeStrict(data []byte, v any) error {
	if len(data) == 0 {
		return errEmptyInput
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("config is %d bytes (max %d)", len(data), MaxInputSize)
	}
	return yaml.UnmarshalWithOptions(data, v, yaml.Strict())
}

// Marshal renders c as YAML, for `epaper config` and for writing a starter file.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
