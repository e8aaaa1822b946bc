package commands

import (
	"context"
	"fmt"

	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/logger"
	"github.com/standflow/standflow/internal/server"
	"github.com/standflow/standflow/internal/store"
	memorystore "github.com/standflow/standflow/internal/store/memory"
	postgresstore "github.com/standflow/standflow/internal/store/postgres"
)

type ServerCmd struct {
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"STANDFLOW_LISTEN"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" env:"STANDFLOW_CORS_ORIGINS"`

	// Auth configuration
	JWTSecret string `help:"secret used to sign session tokens" required:"" env:"STANDFLOW_JWT_SECRET"`

	// Store configuration
	StoreType string `help:"storage backend" enum:"memory,postgres" default:"memory" env:"STANDFLOW_STORE_TYPE"`

	PostgresConnString     string `help:"PostgreSQL connection string" env:"STANDFLOW_POSTGRES_CONN_STRING"`
	PostgresMaxConns       int32  `help:"maximum connections in the pool" default:"20" env:"STANDFLOW_POSTGRES_MAX_CONNS"`
	PostgresMinConns       int32  `help:"minimum connections in the pool" default:"5" env:"STANDFLOW_POSTGRES_MIN_CONNS"`
	PostgresSkipMigrations bool   `help:"skip running database migrations on startup" env:"STANDFLOW_POSTGRES_SKIP_MIGRATIONS"`
}

func (c *ServerCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Dev)

	stores, err := c.configureStores(ctx)
	if err != nil {
		return err
	}

	issuer, err := auth.NewTokenIssuer(c.JWTSecret)
	if err != nil {
		return err
	}

	srv := server.NewServer(stores, issuer, server.Config{
		CORSAllowedOrigins: c.CORSOrigins,
	})

	log.Info().
		Str("version", globals.Version).
		Str("listen", c.Listen).
		Str("store", c.StoreType).
		Msg("Starting server")

	return configureHTTPServer(c.Listen, srv.Handler(log)).ListenAndServe()
}

func (c *ServerCmd) configureStores(ctx context.Context) (*store.Stores, error) {
	switch c.StoreType {
	case "memory":
		return memorystore.NewStores(), nil
	case "postgres":
		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString: c.PostgresConnString,
			MaxConns:   c.PostgresMaxConns,
			MinConns:   c.PostgresMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if !c.PostgresSkipMigrations {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return nil, err
			}
		}
		return postgresstore.NewStores(pool), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", c.StoreType)
	}
}
