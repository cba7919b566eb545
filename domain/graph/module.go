package graph

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/dgg32/nvl-duckdb-public/internal/config"
	"github.com/dgg32/nvl-duckdb-public/internal/database"
	"github.com/dgg32/nvl-duckdb-public/pkg/embeddings"
)

// Module provides graph domain dependencies.
var Module = fx.Module("graph",
	fx.Provide(provideRepository),
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

// provideRepository wires the repository to real DuckDB connection attempts
// and ties its cleanup to process shutdown.
func provideRepository(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger, emb *embeddings.Service) *Repository {
	open := func(ctx context.Context) (DBConn, error) {
		// Evaluated per attempt: the embeddings client is selected in an
		// fx OnStart hook, after this provider runs.
		return database.Open(ctx, cfg.Database, embedderFor(emb), log)
	}

	repo := NewRepository(open, cfg.Database.MaxAttempts, cfg.Database.RetryDelay, log)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return repo.Close()
		},
	})

	return repo
}

// embedderFor exposes the embeddings service as an EmbedFunc, or nil when no
// provider is configured. A nil func skips UDF registration entirely, so a
// query calling embeddings() fails with the engine's unknown-function error
// instead of producing NULL vectors.
func embedderFor(emb *embeddings.Service) database.EmbedFunc {
	if emb == nil || !emb.IsEnabled() {
		return nil
	}
	return emb.EmbedQuery
}
