package graph

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgg32/nvl-duckdb-public/internal/database"
	"github.com/dgg32/nvl-duckdb-public/pkg/apperror"
)

// fakeConn is an in-memory DBConn recording every executed query.
type fakeConn struct {
	results map[string]*database.Result
	errOn   map[string]error
	queries []string
	pingErr error
	closed  bool
}

func (f *fakeConn) Query(ctx context.Context, query string, args ...any) (*database.Result, error) {
	f.queries = append(f.queries, query)
	if err, ok := f.errOn[query]; ok {
		return nil, err
	}
	if res, ok := f.results[query]; ok {
		return res, nil
	}
	return &database.Result{}, nil
}

func (f *fakeConn) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

// catalogResult builds a catalog query result from (graph, source,
// destination, relation) rows.
func catalogResult(rows ...[]any) *database.Result {
	return &database.Result{
		Columns: []string{"property_graph", "source_table", "destination_table", "label"},
		Rows:    rows,
	}
}

func drugCatalog() *database.Result {
	return catalogResult(
		[]any{"drug_graph", nil, nil, nil},
		[]any{nil, "Patient", "Drug", "TAKES"},
		[]any{nil, "Drug", "Disease", "TREATS"},
	)
}

func newTestService(t *testing.T, conn *fakeConn) *Service {
	t.Helper()
	repo := NewRepository(func(ctx context.Context) (DBConn, error) {
		return conn, nil
	}, 1, 0, slog.Default())
	return NewService(repo, slog.Default())
}

func TestService_RunQuery(t *testing.T) {
	conn := &fakeConn{
		results: map[string]*database.Result{
			catalogQuery: drugCatalog(),
			"SELECT name, dosage FROM Drug": {
				Columns: []string{"name", "dosage"},
				Rows: [][]any{
					{"aspirin", int64(100)},
					{"ibuprofen", int64(200)},
				},
			},
		},
	}
	svc := newTestService(t, conn)

	results, err := svc.RunQuery(context.Background(), "SELECT name, dosage FROM Drug")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, map[string]any{"name": "aspirin", "dosage": int64(100)}, results[0])
	assert.Equal(t, map[string]any{"name": "ibuprofen", "dosage": int64(200)}, results[1])
}

func TestService_RunQuery_ExecutionError(t *testing.T) {
	conn := &fakeConn{
		results: map[string]*database.Result{catalogQuery: drugCatalog()},
		errOn:   map[string]error{"SELECT broken": errors.New("Parser Error: syntax error")},
	}
	svc := newTestService(t, conn)

	_, err := svc.RunQuery(context.Background(), "SELECT broken")
	require.Error(t, err)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "query_error", appErr.Code)
	assert.Contains(t, appErr.Message, "Parser Error")
}

func TestService_NodeLabels(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.Result{catalogQuery: drugCatalog()}}
	svc := newTestService(t, conn)

	labels, err := svc.NodeLabels(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Patient", "Drug", "Disease"}, labels)
}

func TestService_NodeLabels_EmptyCatalog(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.Result{catalogQuery: catalogResult()}}
	svc := newTestService(t, conn)

	labels, err := svc.NodeLabels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, labels)
	assert.NotNil(t, labels)
}

func TestService_DefaultQuery(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.Result{catalogQuery: drugCatalog()}}
	svc := newTestService(t, conn)

	query, err := svc.DefaultQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		"FROM GRAPH_TABLE (drug_graph MATCH (a:Patient)-[n:TAKES]->(b:Drug) COLUMNS (a, n, b)) LIMIT 5",
		query,
	)

	// Deterministic on repeated calls without schema mutation.
	again, err := svc.DefaultQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, query, again)
}

func TestService_DefaultQuery_NoGraph(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.Result{catalogQuery: catalogResult()}}
	svc := newTestService(t, conn)

	_, err := svc.DefaultQuery(context.Background())
	require.Error(t, err)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "no_graph_structure", appErr.Code)
}

func TestService_DefaultQuery_GraphWithoutEdges(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.Result{
		catalogQuery: catalogResult([]any{"drug_graph", nil, nil, nil}),
	}}
	svc := newTestService(t, conn)

	_, err := svc.DefaultQuery(context.Background())
	require.ErrorIs(t, err, apperror.ErrNoGraph)
}

func TestService_Neighbors_Outgoing(t *testing.T) {
	wantQuery := "FROM GRAPH_TABLE (drug_graph MATCH (a:Patient WHERE a.id = '42')-[n:TAKES]->(b:Drug) COLUMNS (b))"
	conn := &fakeConn{results: map[string]*database.Result{
		catalogQuery: drugCatalog(),
		wantQuery: {
			Columns: []string{"b"},
			Rows:    [][]any{{"aspirin"}},
		},
	}}
	svc := newTestService(t, conn)

	groups, err := svc.Neighbors(context.Background(), NeighborParams{
		Label:     "Patient",
		ID:        "42",
		Direction: DirectionOutgoing,
	})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, "TAKES", groups[0].Relation)
	assert.Equal(t, "Drug", groups[0].Destination)
	assert.Empty(t, groups[0].Source)
	assert.Equal(t, DirectionOutgoing, groups[0].Direction)
	assert.Equal(t, [][]any{{"aspirin"}}, groups[0].Results)

	// Exactly one synthesized query beyond the catalog read.
	assert.Equal(t, []string{catalogQuery, wantQuery}, conn.queries)
}

func TestService_Neighbors_DirectionsAreExclusive(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.Result{catalogQuery: drugCatalog()}}
	svc := newTestService(t, conn)

	outgoing, err := svc.Neighbors(context.Background(), NeighborParams{
		Label: "Drug", ID: "aspirin", Direction: DirectionOutgoing,
	})
	require.NoError(t, err)
	for _, g := range outgoing {
		assert.Equal(t, DirectionOutgoing, g.Direction)
	}

	incoming, err := svc.Neighbors(context.Background(), NeighborParams{
		Label: "Drug", ID: "aspirin", Direction: DirectionIncoming,
	})
	require.NoError(t, err)
	for _, g := range incoming {
		assert.Equal(t, DirectionIncoming, g.Direction)
	}

	both, err := svc.Neighbors(context.Background(), NeighborParams{
		Label: "Drug", ID: "aspirin", Direction: DirectionBoth,
	})
	require.NoError(t, err)

	// "both" is the union, outgoing groups first.
	require.Equal(t, len(outgoing)+len(incoming), len(both))
	assert.Equal(t, outgoing, both[:len(outgoing)])
	assert.Equal(t, incoming, both[len(outgoing):])
}

func TestService_Neighbors_RelationshipTypeFilter(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.Result{
		catalogQuery: catalogResult(
			[]any{"g", nil, nil, nil},
			[]any{nil, "Patient", "Drug", "TAKES"},
			[]any{nil, "Patient", "Drug", "ALLERGIC_TO"},
		),
	}}
	svc := newTestService(t, conn)

	groups, err := svc.Neighbors(context.Background(), NeighborParams{
		Label:            "Patient",
		ID:               "42",
		Direction:        DirectionOutgoing,
		RelationshipType: "ALLERGIC_TO",
	})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, "ALLERGIC_TO", groups[0].Relation)
}

func TestService_Neighbors_UnknownLabel(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.Result{catalogQuery: drugCatalog()}}
	svc := newTestService(t, conn)

	groups, err := svc.Neighbors(context.Background(), NeighborParams{
		Label: "Spaceship", ID: "1", Direction: DirectionBoth,
	})
	require.NoError(t, err)
	assert.Empty(t, groups)

	// Only the catalog read; no traversal queries for undiscovered labels.
	assert.Equal(t, []string{catalogQuery}, conn.queries)
}

func TestService_Neighbors_AllOrNothing(t *testing.T) {
	failing := "FROM GRAPH_TABLE (drug_graph MATCH (a:Patient)-[n:TAKES]->(b:Drug WHERE b.id = 'aspirin') COLUMNS (a))"
	conn := &fakeConn{
		results: map[string]*database.Result{catalogQuery: drugCatalog()},
		errOn:   map[string]error{failing: errors.New("Binder Error: column id not found")},
	}
	svc := newTestService(t, conn)

	// Drug has an outgoing TREATS edge (succeeds) and an incoming TAKES
	// edge (fails); the whole request must fail with no partial groups.
	groups, err := svc.Neighbors(context.Background(), NeighborParams{
		Label: "Drug", ID: "aspirin", Direction: DirectionBoth,
	})
	require.Error(t, err)
	assert.Nil(t, groups)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "query_error", appErr.Code)
}

func TestService_Neighbors_EscapesID(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.Result{catalogQuery: drugCatalog()}}
	svc := newTestService(t, conn)

	_, err := svc.Neighbors(context.Background(), NeighborParams{
		Label: "Patient", ID: "4'2", Direction: DirectionOutgoing,
	})
	require.NoError(t, err)

	require.Len(t, conn.queries, 2)
	assert.Contains(t, conn.queries[1], "a.id = '4''2'")
}

func TestService_InitializationFailure(t *testing.T) {
	repo := NewRepository(func(ctx context.Context) (DBConn, error) {
		return nil, errors.New("file is locked")
	}, 2, time.Millisecond, slog.Default())
	svc := NewService(repo, slog.Default())

	_, err := svc.RunQuery(context.Background(), "SELECT 1")
	require.Error(t, err)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "database_error", appErr.Code)
}
