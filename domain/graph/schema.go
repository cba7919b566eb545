package graph

// EdgeDescriptor describes one relationship type available from or to a node
// label. Neighbor is the destination label for outgoing edges and the source
// label for incoming edges.
type EdgeDescriptor struct {
	Relation string
	Neighbor string
}

// CatalogRow is one row of the DuckPGQ internal catalog. Nil fields mark
// catalog entries that do not describe an edge table.
type CatalogRow struct {
	PropertyGraph *string
	Source        *string
	Destination   *string
	Relation      *string
}

// Schema is the adjacency index discovered from the graph catalog: for every
// node label, the outgoing and incoming edge descriptors, in catalog order.
// It is built once per connection and never mutated afterwards.
type Schema struct {
	// GraphName is the registered property graph (exactly one is assumed).
	GraphName string

	outgoing map[string][]EdgeDescriptor
	incoming map[string][]EdgeDescriptor

	// First-seen label order, so default-query selection is deterministic.
	outgoingOrder []string
	incomingOrder []string

	labels     map[string]struct{}
	labelOrder []string
}

// BuildSchema constructs the adjacency index from catalog rows. Rows with any
// missing field are skipped; duplicate (relation, neighbor) pairs under the
// same label are suppressed.
func BuildSchema(rows []CatalogRow) *Schema {
	s := &Schema{
		outgoing: make(map[string][]EdgeDescriptor),
		incoming: make(map[string][]EdgeDescriptor),
		labels:   make(map[string]struct{}),
	}

	for _, row := range rows {
		if row.PropertyGraph != nil && *row.PropertyGraph != "" {
			s.GraphName = *row.PropertyGraph
		}
		if row.Source == nil || row.Destination == nil || row.Relation == nil {
			continue
		}
		source, destination, relation := *row.Source, *row.Destination, *row.Relation

		s.addOutgoing(source, EdgeDescriptor{Relation: relation, Neighbor: destination})
		s.addIncoming(destination, EdgeDescriptor{Relation: relation, Neighbor: source})
		s.addLabel(source)
		s.addLabel(destination)
	}

	return s
}

func (s *Schema) addOutgoing(label string, d EdgeDescriptor) {
	existing, known := s.outgoing[label]
	if !known {
		s.outgoingOrder = append(s.outgoingOrder, label)
	}
	for _, e := range existing {
		if e == d {
			return
		}
	}
	s.outgoing[label] = append(existing, d)
}

func (s *Schema) addIncoming(label string, d EdgeDescriptor) {
	existing, known := s.incoming[label]
	if !known {
		s.incomingOrder = append(s.incomingOrder, label)
	}
	for _, e := range existing {
		if e == d {
			return
		}
	}
	s.incoming[label] = append(existing, d)
}

func (s *Schema) addLabel(label string) {
	if _, ok := s.labels[label]; ok {
		return
	}
	s.labels[label] = struct{}{}
	s.labelOrder = append(s.labelOrder, label)
}

// Outgoing returns the outgoing edge descriptors for a node label, in
// catalog order.
func (s *Schema) Outgoing(label string) []EdgeDescriptor {
	return s.outgoing[label]
}

// Incoming returns the incoming edge descriptors for a node label, in
// catalog order.
func (s *Schema) Incoming(label string) []EdgeDescriptor {
	return s.incoming[label]
}

// Labels returns every label appearing as a source or destination, in
// first-seen order.
func (s *Schema) Labels() []string {
	return s.labelOrder
}

// HasLabel reports whether the label was discovered in the catalog.
func (s *Schema) HasLabel(label string) bool {
	_, ok := s.labels[label]
	return ok
}

// HasEdges reports whether any edge was discovered.
func (s *Schema) HasEdges() bool {
	return len(s.outgoing) > 0 || len(s.incoming) > 0
}

// FirstOutgoing returns the first-inserted source label and its first edge
// descriptor.
func (s *Schema) FirstOutgoing() (string, EdgeDescriptor, bool) {
	if len(s.outgoingOrder) == 0 {
		return "", EdgeDescriptor{}, false
	}
	label := s.outgoingOrder[0]
	return label, s.outgoing[label][0], true
}

// FirstIncoming returns the first-inserted destination label and its first
// edge descriptor.
func (s *Schema) FirstIncoming() (string, EdgeDescriptor, bool) {
	if len(s.incomingOrder) == 0 {
		return "", EdgeDescriptor{}, false
	}
	label := s.incomingOrder[0]
	return label, s.incoming[label][0], true
}
