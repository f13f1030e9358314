// Package config aggregates the environment configuration of the server
// binary. Each concern keeps its own Config struct next to its code; this
// package only adds the application-level knobs.
package config

// App holds application-level settings.
type App struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"gatherspace-backend"`
}
