// Package server parses arena command flags and composes the process
// entrypoint.
package server

import (
	"context"
	"flag"
	"fmt"

	"github.com/louisbranch/skirmish.cards/internal/arena"
	entrypoint "github.com/louisbranch/skirmish.cards/internal/platform/cmd"
)

// Config holds arena command configuration.
type Config struct {
	HTTPAddr     string `env:"SKIRMISH_CARDS_HTTP_ADDR"     envDefault:":8080"`
	DatabasePath string `env:"SKIRMISH_CARDS_DATABASE_PATH" envDefault:"skirmish.db"`
	TokenSecret  string `env:"SKIRMISH_CARDS_TOKEN_SECRET"  envDefault:"dev-secret"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "arena HTTP listen address")
	fs.StringVar(&cfg.DatabasePath, "database-path", cfg.DatabasePath, "identity SQLite database path")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "session token signing secret")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the arena app and starts the realtime transport.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceArena, func(context.Context) error {
		if err := arena.Run(ctx, arena.Config{
			HTTPAddr:     cfg.HTTPAddr,
			DatabasePath: cfg.DatabasePath,
			TokenSecret:  cfg.TokenSecret,
		}); err != nil {
			return fmt.Errorf("serve arena: %w", err)
		}
		return nil
	})
}
