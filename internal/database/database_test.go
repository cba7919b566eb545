package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumns(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "named columns untouched",
			in:   []string{"a", "n", "b"},
			want: []string{"a", "n", "b"},
		},
		{
			name: "empty names get positional fallback",
			in:   []string{"", "name", ""},
			want: []string{"col0", "name", "col2"},
		},
		{
			name: "no columns",
			in:   []string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeColumns(tt.in))
		})
	}
}

func TestEmbeddingsUDF_NormalizesNewlines(t *testing.T) {
	var got string
	udf := &embeddingsUDF{embed: func(ctx context.Context, text string) ([]float32, error) {
		got = text
		return []float32{0.5}, nil
	}}

	out, err := udf.Executor().RowExecutor([]driver.Value{"first line\nsecond line\nthird"})
	require.NoError(t, err)

	assert.Equal(t, "first line second line third", got)
	assert.Equal(t, []float32{0.5}, out)
}

func TestEmbeddingsUDF_NonStringInput(t *testing.T) {
	udf := &embeddingsUDF{embed: func(ctx context.Context, text string) ([]float32, error) {
		t.Fatal("embed must not be called for non-string input")
		return nil, nil
	}}

	_, err := udf.Executor().RowExecutor([]driver.Value{int64(42)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VARCHAR")
}

func TestEmbeddingsUDF_EmbedErrorPropagates(t *testing.T) {
	inner := errors.New("quota exceeded")
	udf := &embeddingsUDF{embed: func(ctx context.Context, text string) ([]float32, error) {
		return nil, inner
	}}

	_, err := udf.Executor().RowExecutor([]driver.Value{"aspirin"})
	require.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "embeddings:")
}
