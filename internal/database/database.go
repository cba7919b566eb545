// Package database manages the embedded DuckDB connection, its graph and
// vector extensions, and the registered embeddings UDF.
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"

	"github.com/dgg32/nvl-duckdb-public/internal/config"
	"github.com/dgg32/nvl-duckdb-public/pkg/logger"
)

// EmbedFunc maps a text input to a fixed-length float vector. It backs the
// embeddings() scalar function registered on the connection.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Conn is the single process-wide DuckDB connection. Extension loading and
// UDF registration are connection-scoped in DuckDB, so all queries are pinned
// to one *sql.Conn and serialized with a mutex.
type Conn struct {
	mu   sync.Mutex
	db   *sql.DB
	conn *sql.Conn
	log  *slog.Logger

	queryDebug bool
}

// Result holds a fully materialized query result. Rows are read to completion
// while the connection lock is held, so callers never hold the connection.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Open opens the DuckDB database file, installs and loads the duckpgq and vss
// extensions, and registers the embeddings scalar function. It performs a
// single attempt; retry policy belongs to the caller.
func Open(ctx context.Context, cfg config.DatabaseConfig, embed EmbedFunc, log *slog.Logger) (*Conn, error) {
	log = log.With(logger.Scope("database"))

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// One pinned connection; the pool must never hand out a second one
	// without the extensions loaded.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire duckdb connection: %w", err)
	}

	c := &Conn{
		db:         db,
		conn:       conn,
		log:        log,
		queryDebug: cfg.QueryDebug,
	}

	if cfg.Threads > 0 {
		if err := c.Exec(ctx, fmt.Sprintf("PRAGMA threads=%d", cfg.Threads)); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}

	for _, stmt := range []string{
		"INSTALL duckpgq FROM community",
		"LOAD duckpgq",
		"INSTALL vss",
		"LOAD vss",
	} {
		if err := c.Exec(ctx, stmt); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(stmt), err)
		}
	}

	if embed != nil {
		if err := registerEmbeddings(conn, embed); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("register embeddings function: %w", err)
		}
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	log.Info("connected to duckdb", slog.String("path", cfg.Path))
	return c, nil
}

// Query executes a query on the shared connection and materializes all rows.
// Column names fall back to col<i> when the result schema carries empty names.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: normalizeColumns(cols)}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if c.queryDebug {
		c.log.Debug("query",
			slog.String("query", query),
			slog.Int("rows", len(res.Rows)),
			slog.Duration("duration", time.Since(start)),
		)
	}

	return res, nil
}

// normalizeColumns substitutes col<i> for empty column names, which DuckDB
// produces for unaliased expression columns in GRAPH_TABLE projections.
func normalizeColumns(cols []string) []string {
	for i, col := range cols {
		if col == "" {
			cols[i] = fmt.Sprintf("col%d", i)
		}
	}
	return cols
}

// Exec executes a statement on the shared connection.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.conn.ExecContext(ctx, query, args...)
	return err
}

// Ping verifies connectivity.
func (c *Conn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.PingContext(ctx)
}

// Close releases the pinned connection and the underlying database handle.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []string
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		c.conn = nil
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		c.db = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close duckdb: %s", strings.Join(errs, "; "))
	}
	return nil
}

// embeddingsUDF adapts an EmbedFunc to DuckDB's scalar UDF interface as
// embeddings(VARCHAR) -> FLOAT[].
type embeddingsUDF struct {
	embed   EmbedFunc
	textT   duckdb.TypeInfo
	vectorT duckdb.TypeInfo
}

func (u *embeddingsUDF) Config() duckdb.ScalarFuncConfig {
	return duckdb.ScalarFuncConfig{
		InputTypeInfos: []duckdb.TypeInfo{u.textT},
		ResultTypeInfo: u.vectorT,
	}
}

func (u *embeddingsUDF) Executor() duckdb.ScalarFuncExecutor {
	return duckdb.ScalarFuncExecutor{
		RowExecutor: func(values []driver.Value) (any, error) {
			text, ok := values[0].(string)
			if !ok {
				return nil, fmt.Errorf("embeddings: expected VARCHAR input, got %T", values[0])
			}

			// The UDF machinery carries no context; bound the external call
			// so a hung embedding API cannot wedge the connection forever.
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			// The embedding API collapses newlines poorly; normalize first.
			text = strings.ReplaceAll(text, "\n", " ")

			vector, err := u.embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("embeddings: %w", err)
			}
			return vector, nil
		},
	}
}

func registerEmbeddings(conn *sql.Conn, embed EmbedFunc) error {
	textT, err := duckdb.NewTypeInfo(duckdb.TYPE_VARCHAR)
	if err != nil {
		return err
	}
	floatT, err := duckdb.NewTypeInfo(duckdb.TYPE_FLOAT)
	if err != nil {
		return err
	}
	vectorT, err := duckdb.NewListInfo(floatT)
	if err != nil {
		return err
	}

	return duckdb.RegisterScalarUDF(conn, "embeddings", &embeddingsUDF{
		embed:   embed,
		textT:   textT,
		vectorT: vectorT,
	})
}
