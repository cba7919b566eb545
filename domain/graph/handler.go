package graph

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dgg32/nvl-duckdb-public/pkg/apperror"
)

// Handler handles HTTP requests for graph operations.
type Handler struct {
	svc *Service
}

// NewHandler creates a new graph handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RunQuery executes a raw query.
// POST /api/query
func (h *Handler) RunQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return apperror.NewBadRequest("Query is required")
	}

	results, err := h.svc.RunQuery(c.Request().Context(), req.Query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, QueryResponse{Results: results})
}

// NodeTypes lists the discovered node labels.
// POST /api/node-types
func (h *Handler) NodeTypes(c echo.Context) error {
	labels, err := h.svc.NodeLabels(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NodeTypesResponse{Results: labels})
}

// DefaultQuery synthesizes a starter query from the discovered schema.
// GET /api/default-query
func (h *Handler) DefaultQuery(c echo.Context) error {
	query, err := h.svc.DefaultQuery(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DefaultQueryResponse{Query: query})
}

// Neighbors looks up a node's neighbors per discovered edge descriptor.
// POST /api/neighbors
func (h *Handler) Neighbors(c echo.Context) error {
	var req NeighborsRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body")
	}
	if req.Label == "" || req.ID == "" {
		return apperror.NewBadRequest("label and id are required")
	}

	direction := req.Direction
	if direction == "" {
		direction = DirectionBoth
	}
	switch direction {
	case DirectionOutgoing, DirectionIncoming, DirectionBoth:
	default:
		return apperror.NewBadRequest("direction must be one of outgoing, incoming, both")
	}

	groups, err := h.svc.Neighbors(c.Request().Context(), NeighborParams{
		Label:            req.Label,
		ID:               req.ID,
		Direction:        direction,
		RelationshipType: req.RelationshipType,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NeighborsResponse{Results: groups})
}
