package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgg32/nvl-duckdb-public/internal/database"
	"github.com/dgg32/nvl-duckdb-public/pkg/logger"
)

// DBConn is the subset of the database connection the repository uses.
// *database.Conn satisfies it; tests substitute a fake.
type DBConn interface {
	Query(ctx context.Context, query string, args ...any) (*database.Result, error)
	Ping(ctx context.Context) error
	Close() error
}

// OpenFunc performs one connection attempt: open the database file, load the
// graph and vector extensions, register the embeddings function.
type OpenFunc func(ctx context.Context) (DBConn, error)

// Repository owns the process-wide connection and the schema index derived
// from it. Initialization is lazy and idempotent: the first request triggers
// it, every later request reuses the memoized handle. A failed attempt leaves
// no partial state behind.
type Repository struct {
	open        OpenFunc
	log         *slog.Logger
	maxAttempts int
	retryDelay  time.Duration

	mu     sync.Mutex
	conn   DBConn
	schema *Schema
}

// NewRepository creates a repository around one connection-attempt function.
func NewRepository(open OpenFunc, maxAttempts int, retryDelay time.Duration, log *slog.Logger) *Repository {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Repository{
		open:        open,
		log:         log.With(logger.Scope("graph.repo")),
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// init returns the memoized connection and schema, connecting on first use.
// Each attempt starts from a fresh connection; on failure the attempt's
// connection is discarded, and after the final attempt the error propagates
// to the caller.
func (r *Repository) init(ctx context.Context) (DBConn, *Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return r.conn, r.schema, nil
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			r.log.Warn("retrying database initialization",
				slog.Int("attempt", attempt),
				slog.Duration("delay", r.retryDelay),
			)
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}

		conn, schema, err := r.connect(ctx)
		if err == nil {
			r.conn = conn
			r.schema = schema
			return conn, schema, nil
		}

		lastErr = err
		r.log.Error("database initialization attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", r.maxAttempts),
			logger.Error(err),
		)
	}

	return nil, nil, fmt.Errorf("initialize database after %d attempts: %w", r.maxAttempts, lastErr)
}

// connect performs a single initialization attempt: open the connection and
// build the schema index from the catalog. The index is replaced wholesale,
// never patched incrementally.
func (r *Repository) connect(ctx context.Context) (DBConn, *Schema, error) {
	conn, err := r.open(ctx)
	if err != nil {
		return nil, nil, err
	}

	res, err := conn.Query(ctx, catalogQuery)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("read graph catalog: %w", err)
	}

	rows := make([]CatalogRow, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) != 4 {
			continue
		}
		rows = append(rows, CatalogRow{
			PropertyGraph: asString(row[0]),
			Source:        asString(row[1]),
			Destination:   asString(row[2]),
			Relation:      asString(row[3]),
		})
	}

	schema := BuildSchema(rows)
	r.log.Info("graph schema discovered",
		slog.String("graph", schema.GraphName),
		slog.Int("labels", len(schema.Labels())),
		slog.Int("edge_tables", len(rows)),
	)

	return conn, schema, nil
}

// Ready forces initialization, connecting if needed.
func (r *Repository) Ready(ctx context.Context) error {
	_, _, err := r.init(ctx)
	return err
}

// Schema returns the discovered adjacency index, initializing on first use.
func (r *Repository) Schema(ctx context.Context) (*Schema, error) {
	_, schema, err := r.init(ctx)
	return schema, err
}

// Execute runs a query on the shared connection, initializing on first use.
func (r *Repository) Execute(ctx context.Context, query string, args ...any) (*database.Result, error) {
	conn, _, err := r.init(ctx)
	if err != nil {
		return nil, err
	}
	return conn.Query(ctx, query, args...)
}

// Initialized reports whether the connection has been established. It never
// triggers initialization; health checks must stay cheap.
func (r *Repository) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// Ping verifies connectivity of an established connection.
func (r *Repository) Ping(ctx context.Context) error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("database not initialized")
	}
	return conn.Ping(ctx)
}

// Close releases the connection if one was established.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	r.schema = nil
	if err != nil {
		return err
	}
	r.log.Info("database connection closed")
	return nil
}

func asString(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}
