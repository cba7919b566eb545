package graph

import (
	"fmt"
	"strings"
)

// catalogQuery reads the DuckPGQ internal catalog describing which tables
// back the property graph's nodes and edges.
const catalogQuery = `SELECT property_graph, source_table, destination_table, label FROM __duckpgq_internal`

// renderDefaultQuery produces a bounded pattern-match over one edge type,
// returning source, edge and destination.
func renderDefaultQuery(graphName, source, relation, destination string) string {
	return fmt.Sprintf(
		"FROM GRAPH_TABLE (%s MATCH (a:%s)-[n:%s]->(b:%s) COLUMNS (a, n, b)) LIMIT 5",
		graphName, source, relation, destination,
	)
}

// renderOutgoingQuery matches a node of the given label and id to its
// neighbors over one outgoing edge type, projecting only the neighbor.
func renderOutgoingQuery(graphName, label, id, relation, destination string) string {
	return fmt.Sprintf(
		"FROM GRAPH_TABLE (%s MATCH (a:%s WHERE a.id = '%s')-[n:%s]->(b:%s) COLUMNS (b))",
		graphName, label, quoteLiteral(id), relation, destination,
	)
}

// renderIncomingQuery is the symmetric form, with the id filter applied to
// the destination side.
func renderIncomingQuery(graphName, source, relation, label, id string) string {
	return fmt.Sprintf(
		"FROM GRAPH_TABLE (%s MATCH (a:%s)-[n:%s]->(b:%s WHERE b.id = '%s') COLUMNS (a))",
		graphName, source, relation, label, quoteLiteral(id),
	)
}

// quoteLiteral escapes a client-supplied value for interpolation into a
// single-quoted SQL string. Labels and relation types never pass through
// here: they are only ever taken from the discovered schema index.
func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
