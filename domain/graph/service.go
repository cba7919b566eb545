package graph

import (
	"context"
	"log/slog"

	"github.com/dgg32/nvl-duckdb-public/pkg/apperror"
	"github.com/dgg32/nvl-duckdb-public/pkg/logger"
)

// Traversal directions accepted by the neighbors operation.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	DirectionBoth     = "both"
)

// Service handles business logic for graph operations.
type Service struct {
	repo *Repository
	log  *slog.Logger
}

// NewService creates a new graph service.
func NewService(repo *Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(logger.Scope("graph.svc")),
	}
}

// RunQuery executes a raw query and returns its rows as field-name → value
// mappings, using the result's positional schema for field names.
func (s *Service) RunQuery(ctx context.Context, query string) ([]map[string]any, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	s.log.Info("executing query", slog.String("query", query))

	res, err := s.repo.Execute(ctx, query)
	if err != nil {
		s.log.Error("query execution failed",
			slog.String("query", query),
			logger.Error(err),
		)
		return nil, apperror.NewQueryError(err)
	}

	results := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		rowObj := make(map[string]any, len(res.Columns))
		for i, value := range row {
			rowObj[res.Columns[i]] = value
		}
		results = append(results, rowObj)
	}
	return results, nil
}

// NodeLabels returns every node label discovered in the catalog.
func (s *Service) NodeLabels(ctx context.Context) ([]string, error) {
	schema, err := s.repo.Schema(ctx)
	if err != nil {
		return nil, initError(err)
	}
	labels := schema.Labels()
	if labels == nil {
		labels = []string{}
	}
	return labels, nil
}

// DefaultQuery synthesizes a bounded pattern-match over the first discovered
// edge, preferring outgoing descriptors. The output is deterministic for a
// fixed schema index.
func (s *Service) DefaultQuery(ctx context.Context) (string, error) {
	schema, err := s.repo.Schema(ctx)
	if err != nil {
		return "", initError(err)
	}

	if schema.GraphName == "" || !schema.HasEdges() {
		return "", apperror.ErrNoGraph
	}

	if source, d, ok := schema.FirstOutgoing(); ok {
		return renderDefaultQuery(schema.GraphName, source, d.Relation, d.Neighbor), nil
	}
	if destination, d, ok := schema.FirstIncoming(); ok {
		return renderDefaultQuery(schema.GraphName, d.Neighbor, d.Relation, destination), nil
	}
	return "", apperror.ErrNoGraph
}

// NeighborParams identifies the node to traverse from.
type NeighborParams struct {
	Label            string
	ID               string
	Direction        string
	RelationshipType string
}

// Neighbors runs one synthesized query per matching edge descriptor and
// aggregates the result groups, outgoing before incoming. Any execution
// failure discards the whole request; there are no partial results.
func (s *Service) Neighbors(ctx context.Context, p NeighborParams) ([]NeighborGroup, error) {
	schema, err := s.repo.Schema(ctx)
	if err != nil {
		return nil, initError(err)
	}

	groups := []NeighborGroup{}

	if p.Direction == DirectionBoth || p.Direction == DirectionOutgoing {
		for _, d := range schema.Outgoing(p.Label) {
			if p.RelationshipType != "" && d.Relation != p.RelationshipType {
				continue
			}
			query := renderOutgoingQuery(schema.GraphName, p.Label, p.ID, d.Relation, d.Neighbor)
			rows, err := s.runNeighborQuery(ctx, query)
			if err != nil {
				return nil, err
			}
			groups = append(groups, NeighborGroup{
				Relation:    d.Relation,
				Destination: d.Neighbor,
				Direction:   DirectionOutgoing,
				Results:     rows,
			})
		}
	}

	if p.Direction == DirectionBoth || p.Direction == DirectionIncoming {
		for _, d := range schema.Incoming(p.Label) {
			if p.RelationshipType != "" && d.Relation != p.RelationshipType {
				continue
			}
			query := renderIncomingQuery(schema.GraphName, d.Neighbor, d.Relation, p.Label, p.ID)
			rows, err := s.runNeighborQuery(ctx, query)
			if err != nil {
				return nil, err
			}
			groups = append(groups, NeighborGroup{
				Relation:  d.Relation,
				Source:    d.Neighbor,
				Direction: DirectionIncoming,
				Results:   rows,
			})
		}
	}

	return groups, nil
}

func (s *Service) runNeighborQuery(ctx context.Context, query string) ([][]any, error) {
	s.log.Info("executing neighbor query", slog.String("query", query))

	res, err := s.repo.Execute(ctx, query)
	if err != nil {
		s.log.Error("neighbor query failed",
			slog.String("query", query),
			logger.Error(err),
		)
		return nil, apperror.NewQueryError(err)
	}

	rows := res.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return rows, nil
}

func (s *Service) ready(ctx context.Context) error {
	if err := s.repo.Ready(ctx); err != nil {
		return initError(err)
	}
	return nil
}

func initError(err error) error {
	if appErr, ok := err.(*apperror.Error); ok {
		return appErr
	}
	return apperror.ErrDatabase.WithMessage("Failed to initialize database").WithInternal(err)
}
