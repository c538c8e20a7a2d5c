package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInsertRow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory([]string{"h"}, []string{"a"}, []string{"c"})

	require.NoError(t, m.InsertRow(ctx, 3, []string{"b"}))
	require.NoError(t, m.InsertRow(ctx, 99, []string{"d"}))

	rows, err := m.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"h"}, {"a"}, {"b"}, {"c"}, {"d"}}, rows)

	assert.Error(t, m.InsertRow(ctx, 0, []string{"x"}))
}

func TestMemoryWriteHeader(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.WriteHeader(ctx, []string{"A", "B"}))
	require.NoError(t, m.WriteHeader(ctx, []string{"A", "C"}))

	rows, err := m.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "C"}}, rows)
}

func TestMemoryUpdateCellPadsShortRow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory([]string{"h1", "h2", "h3"}, []string{"1"})

	require.NoError(t, m.UpdateCell(ctx, 2, 3, "x"))
	rows, _ := m.Rows(ctx)
	assert.Equal(t, []string{"1", "", "x"}, rows[1])

	assert.Error(t, m.UpdateCell(ctx, 5, 1, "x"))
}

func TestMemoryRowsIsACopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory([]string{"h"})

	rows, _ := m.Rows(ctx)
	rows[0][0] = "mutated"

	again, _ := m.Rows(ctx)
	assert.Equal(t, "h", again[0][0])
}

func TestMemoryTruncate(t *testing.T) {
	m := NewMemory([]string{"a", "", ""}, []string{"", ""})
	m.Truncate()
	rows, _ := m.Rows(context.Background())
	assert.Equal(t, [][]string{{"a"}, {}}, rows)
}

func TestMemoryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Rows(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
