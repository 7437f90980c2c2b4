package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// Load populates the given configuration struct from environment variables
// based on `env` field tags. On first use it also loads the default .env
// file if one exists; a missing .env file is not an error.
//
// Example:
//
//	type BillingConfig struct {
//		WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
//		BaseURL       string `env:"BASE_URL" envDefault:"http://localhost:8080"`
//	}
//
//	var cfg BillingConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is a local development convenience only.
		_ = godotenv.Load()
	})

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Intended for configuration
// the application cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load required configuration: %v", err))
	}
}
