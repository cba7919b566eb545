package embeddings

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticClient struct {
	vector []float32
}

func (c *staticClient) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return c.vector, nil
}

func TestNoopClient_EmbedQuery(t *testing.T) {
	c := NewNoopClient()

	vector, err := c.EmbedQuery(context.Background(), "aspirin")
	require.ErrorIs(t, err, ErrDisabled)
	assert.Nil(t, vector)
}

func TestNewNoopService(t *testing.T) {
	svc := NewNoopService(slog.Default())

	assert.False(t, svc.IsEnabled())

	// A disabled service must error, never answer with an empty vector.
	vector, err := svc.EmbedQuery(context.Background(), "aspirin")
	require.ErrorIs(t, err, ErrDisabled)
	assert.Nil(t, vector)
}

func TestNewWithClient(t *testing.T) {
	svc := NewWithClient(&staticClient{vector: []float32{0.1, 0.2}}, slog.Default())

	assert.True(t, svc.IsEnabled())

	vector, err := svc.EmbedQuery(context.Background(), "aspirin")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vector)
}
