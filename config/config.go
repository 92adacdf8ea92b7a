package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr           string `env:"LUDO_ADDR" envDefault:":8080"`
	DBPath         string `env:"LUDO_DB_PATH" envDefault:"./ludo.db"`
	CookieHashKey  string `env:"LUDO_COOKIE_HASH_KEY"`
	CookieBlockKey string `env:"LUDO_COOKIE_BLOCK_KEY"`
}

// Load reads configuration from the environment. Cookie keys are generated
// randomly when unset, which means sessions do not survive a restart unless
// the keys are pinned via the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.CookieHashKey == "" {
		key, err := randomKey(32)
		if err != nil {
			return nil, err
		}
		cfg.CookieHashKey = key
	}
	if cfg.CookieBlockKey == "" {
		key, err := randomKey(32)
		if err != nil {
			return nil, err
		}
		cfg.CookieBlockKey = key
	}

	return cfg, nil
}

// CookieKeys decodes the base64 cookie keys for securecookie.
func (c *Config) CookieKeys() (hashKey, blockKey []byte, err error) {
	hashKey, err = base64.StdEncoding.DecodeString(c.CookieHashKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decode cookie hash key: %w", err)
	}
	blockKey, err = base64.StdEncoding.DecodeString(c.CookieBlockKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decode cookie block key: %w", err)
	}
	return hashKey, blockKey, nil
}

func randomKey(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate cookie key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(bytes), nil
}
