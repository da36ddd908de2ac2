package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ReadClient reads the client configuration from path when the file exists,
// falling back to the environment otherwise. Environment variables override
// values from the file.
func ReadClient(path string) (*ClientConfig, error) {
	cfg := new(ClientConfig)
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			err = cleanenv.ReadConfig(path, cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			return cfg, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
