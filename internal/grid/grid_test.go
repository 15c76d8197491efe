package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TrimsAndPads(t *testing.T) {
	g := New([][]string{
		{"  Revenue ", "1,000"},
		{"COGS"},
	})

	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 2, g.Cols())
	assert.Equal(t, "Revenue", g.Cell(1, 1))
	assert.Equal(t, "1,000", g.Cell(1, 2))
	assert.Equal(t, "", g.Cell(2, 2))
}

func TestCell_OutOfRange(t *testing.T) {
	g := New([][]string{{"a"}})

	assert.Equal(t, "", g.Cell(0, 1))
	assert.Equal(t, "", g.Cell(1, 0))
	assert.Equal(t, "", g.Cell(2, 1))
	assert.Equal(t, "", g.Cell(1, 2))
}

func TestSetNumber(t *testing.T) {
	g := New([][]string{{"a", ""}, {"b", "old"}})

	require.NoError(t, g.SetNumber(2, 2, -400))
	require.NoError(t, g.SetNumber(1, 2, 12.5))
	assert.Equal(t, "-400", g.Cell(2, 2))
	assert.Equal(t, "12.5", g.Cell(1, 2))
}

func TestSetNumber_OutOfRange(t *testing.T) {
	g := New([][]string{{"a"}})

	err := g.SetNumber(3, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside")
}

func TestBound(t *testing.T) {
	g := New([][]string{
		{"a", "b", "c"},
		{"d", "e", "f"},
		{"g", "h", "i"},
	})

	b := g.Bound(2, 2)
	assert.Equal(t, 2, b.Rows())
	assert.Equal(t, 2, b.Cols())
	assert.Equal(t, "e", b.Cell(2, 2))
	assert.Equal(t, "", b.Cell(3, 3))

	// Bounds larger than the grid keep everything.
	assert.Equal(t, 3, g.Bound(250, 30).Rows())
	assert.Equal(t, 3, g.Bound(250, 30).Cols())

	// The bounded copy does not alias the source.
	require.NoError(t, b.SetNumber(1, 1, 7))
	assert.Equal(t, "a", g.Cell(1, 1))
}

func TestRow(t *testing.T) {
	g := New([][]string{{"a", "b"}, {"c"}})
	assert.Equal(t, []string{"c", ""}, Row(g, 2))
}
