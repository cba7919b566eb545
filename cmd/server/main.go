// Package main provides the entry point for the graph explorer API server,
// an HTTP façade over a DuckDB database with the DuckPGQ property-graph
// extension.
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/dgg32/nvl-duckdb-public/domain/graph"
	"github.com/dgg32/nvl-duckdb-public/domain/health"
	"github.com/dgg32/nvl-duckdb-public/internal/config"
	"github.com/dgg32/nvl-duckdb-public/internal/server"
	"github.com/dgg32/nvl-duckdb-public/pkg/embeddings"
	"github.com/dgg32/nvl-duckdb-public/pkg/logger"
)

func main() {
	// Load .env if present (for local development)
	_ = godotenv.Load()

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		server.Module,

		// Embeddings module (backs the embeddings() scalar function)
		embeddings.Module,

		// Domain modules
		health.Module,
		graph.Module,
	).Run()
}
