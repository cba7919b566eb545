package graph

// QueryRequest is the request body for raw query execution.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse carries query result rows as field-name → value mappings.
type QueryResponse struct {
	Results []map[string]any `json:"results"`
}

// NodeTypesResponse lists the discovered node labels.
type NodeTypesResponse struct {
	Results []string `json:"results"`
}

// DefaultQueryResponse carries a synthesized starter query.
type DefaultQueryResponse struct {
	Query string `json:"query"`
}

// NeighborsRequest identifies a node and an optional traversal filter.
// Direction defaults to "both" when omitted.
type NeighborsRequest struct {
	Label            string `json:"label"`
	ID               string `json:"id"`
	Direction        string `json:"direction,omitempty"`
	RelationshipType string `json:"relationshipType,omitempty"`
}

// NeighborGroup is one per-edge-descriptor result group. Destination is set
// for outgoing groups, Source for incoming ones.
type NeighborGroup struct {
	Relation    string  `json:"relation"`
	Destination string  `json:"destination,omitempty"`
	Source      string  `json:"source,omitempty"`
	Direction   string  `json:"direction"`
	Results     [][]any `json:"results"`
}

// NeighborsResponse aggregates all result groups for one neighbor lookup.
type NeighborsResponse struct {
	Results []NeighborGroup `json:"results"`
}
