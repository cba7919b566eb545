package embeddings

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/dgg32/nvl-duckdb-public/internal/config"
	"github.com/dgg32/nvl-duckdb-public/pkg/embeddings/genai"
	"github.com/dgg32/nvl-duckdb-public/pkg/embeddings/vertex"
)

// Module provides the embeddings fx.Module
var Module = fx.Module("embeddings",
	fx.Provide(NewService),
)

// Service provides embedding generation with automatic client selection
type Service struct {
	client  Client
	log     *slog.Logger
	enabled bool
}

// NewNoopService creates a service with a noop client (for testing)
func NewNoopService(log *slog.Logger) *Service {
	return &Service{
		client:  NewNoopClient(),
		log:     log,
		enabled: false,
	}
}

// NewWithClient creates an enabled service around an already-constructed
// client (for testing)
func NewWithClient(client Client, log *slog.Logger) *Service {
	return &Service{
		client:  client,
		log:     log,
		enabled: true,
	}
}

// NewService creates a new embeddings service
func NewService(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) *Service {
	embCfg := cfg.Embeddings

	if !embCfg.IsEnabled() {
		log.Info("embeddings service disabled - no configuration provided")
		return &Service{
			client:  NewNoopClient(),
			log:     log,
			enabled: false,
		}
	}

	svc := &Service{
		client:  NewNoopClient(), // Will be replaced on start
		log:     log,
		enabled: false,
	}

	// Initialize client on startup
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if embCfg.UseVertexAI() {
				log.Info("initializing Vertex AI embeddings client",
					slog.String("project", embCfg.GCPProjectID),
					slog.String("location", embCfg.VertexAILocation),
					slog.String("model", embCfg.Model),
				)

				client, err := vertex.NewClient(ctx, vertex.Config{
					ProjectID: embCfg.GCPProjectID,
					Location:  embCfg.VertexAILocation,
					Model:     embCfg.Model,
				}, vertex.WithLogger(log))
				if err != nil {
					log.Error("failed to initialize Vertex AI client", slog.String("error", err.Error()))
					// Keep noop client
					return nil // Don't fail startup
				}
				svc.client = client
				svc.enabled = true
				log.Info("Vertex AI embeddings client initialized")
			} else if embCfg.GoogleAPIKey != "" {
				log.Info("initializing Google Generative AI embeddings client",
					slog.String("model", embCfg.Model),
				)

				client, err := genai.NewClient(ctx, genai.Config{
					APIKey: embCfg.GoogleAPIKey,
					Model:  embCfg.Model,
				}, genai.WithLogger(log))
				if err != nil {
					log.Error("failed to initialize Generative AI client", slog.String("error", err.Error()))
					return nil
				}
				svc.client = client
				svc.enabled = true
				log.Info("Google Generative AI embeddings client initialized")
			}
			return nil
		},
	})

	return svc
}

// IsEnabled returns true if embeddings are available
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// EmbedQuery generates an embedding for a single text
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return s.client.EmbedQuery(ctx, query)
}
