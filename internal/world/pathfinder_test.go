package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid(t *testing.T, rows []string) *Grid {
	t.Helper()
	grid, err := NewGrid(10, rows)
	require.NoError(t, err)
	return grid
}

func TestFindPathStraightCorridor(t *testing.T) {
	grid := testGrid(t, []string{
		"00000",
	})
	finder := NewPathfinder(grid)

	path := finder.FindPath(Point{X: 5, Y: 5}, Point{X: 45, Y: 5})
	require.Len(t, path, 4)

	// Start cell is elided; waypoints are cell centers in traversal order.
	assert.Equal(t, []Point{
		{X: 15, Y: 5},
		{X: 25, Y: 5},
		{X: 35, Y: 5},
		{X: 45, Y: 5},
	}, path)
}

func TestFindPathRoutesAroundWall(t *testing.T) {
	grid := testGrid(t, []string{
		"000",
		"010",
		"000",
	})
	finder := NewPathfinder(grid)

	path := finder.FindPath(Point{X: 5, Y: 15}, Point{X: 25, Y: 15})
	require.NotEmpty(t, path)

	// Every waypoint is walkable and the target cell terminates the path.
	for _, p := range path {
		assert.True(t, grid.Walkable(grid.WorldToCell(p)), "waypoint %v crosses a wall", p)
	}
	assert.Equal(t, Cell{Col: 2, Row: 1}, grid.WorldToCell(path[len(path)-1]))
	// Shortest detour around the center wall is 4 steps.
	assert.Len(t, path, 4)
}

func TestFindPathBlockedTarget(t *testing.T) {
	grid := testGrid(t, []string{
		"001",
	})
	finder := NewPathfinder(grid)

	assert.Nil(t, finder.FindPath(Point{X: 5, Y: 5}, Point{X: 25, Y: 5}))
}

func TestFindPathBlockedStart(t *testing.T) {
	grid := testGrid(t, []string{
		"100",
	})
	finder := NewPathfinder(grid)

	assert.Nil(t, finder.FindPath(Point{X: 5, Y: 5}, Point{X: 25, Y: 5}))
}

func TestFindPathOutOfBounds(t *testing.T) {
	grid := testGrid(t, []string{
		"000",
	})
	finder := NewPathfinder(grid)

	assert.Nil(t, finder.FindPath(Point{X: 5, Y: 5}, Point{X: 500, Y: 5}))
	assert.Nil(t, finder.FindPath(Point{X: -5, Y: 5}, Point{X: 25, Y: 5}))
}

func TestFindPathSameCellIsNoMove(t *testing.T) {
	grid := testGrid(t, []string{
		"000",
	})
	finder := NewPathfinder(grid)

	assert.Nil(t, finder.FindPath(Point{X: 2, Y: 2}, Point{X: 8, Y: 8}))
}

func TestFindPathUnreachableTarget(t *testing.T) {
	grid := testGrid(t, []string{
		"00100",
		"00100",
	})
	finder := NewPathfinder(grid)

	assert.Nil(t, finder.FindPath(Point{X: 5, Y: 5}, Point{X: 45, Y: 5}))
}

func TestFindPathIsDeterministic(t *testing.T) {
	grid := testGrid(t, []string{
		"000000",
		"001100",
		"000000",
		"011110",
		"000000",
	})
	finder := NewPathfinder(grid)

	first := finder.FindPath(Point{X: 5, Y: 5}, Point{X: 55, Y: 45})
	require.NotEmpty(t, first)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, finder.FindPath(Point{X: 5, Y: 5}, Point{X: 55, Y: 45}), "iteration %d diverged", i)
	}
}

func TestFindPathLengthIsShortest(t *testing.T) {
	grid := testGrid(t, []string{
		"0000",
		"0000",
	})
	finder := NewPathfinder(grid)

	// Manhattan distance from (0,0) to (3,1) is 4 cells.
	path := finder.FindPath(Point{X: 5, Y: 5}, Point{X: 35, Y: 15})
	assert.Len(t, path, 4)
}
