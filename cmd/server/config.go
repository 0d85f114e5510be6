package main

import (
	"github.com/dmitrymomot/stripesync/pkg/billing"
	"github.com/dmitrymomot/stripesync/pkg/httpserver"
	"github.com/dmitrymomot/stripesync/pkg/jwt"
	"github.com/dmitrymomot/stripesync/pkg/redis"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	BaseURL string `env:"BASE_URL,required"`
	Store   string `env:"BILLING_STORE" envDefault:"postgres"`

	Stripe billing.StripeConfig
	HTTP   httpserver.Config
	JWT    jwt.Config
	Redis  redis.Config
}
