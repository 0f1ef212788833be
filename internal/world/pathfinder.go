package world

import "container/heap"

// Pathfinder runs A* over a grid's 4-connected cells. Neighbor expansion
// order and the priority-queue tie-break are fixed, so identical inputs
// always produce the identical waypoint sequence.
type Pathfinder struct {
	grid *Grid
}

func NewPathfinder(grid *Grid) *Pathfinder {
	return &Pathfinder{grid: grid}
}

// Fixed expansion order: up, down, left, right.
var neighborOffsets = [4]Cell{
	{Col: 0, Row: -1},
	{Col: 0, Row: 1},
	{Col: -1, Row: 0},
	{Col: 1, Row: 0},
}

// FindPath returns the walkable waypoint sequence from start to target as
// cell-center world coordinates. A nil result means no path: the target is
// blocked, out of bounds, unreachable, or already at the start cell. The
// start cell's own center is elided so movers never snap backwards.
func (p *Pathfinder) FindPath(start, target Point) []Point {
	startCell := p.grid.WorldToCell(start)
	targetCell := p.grid.WorldToCell(target)

	if !p.grid.Walkable(startCell) || !p.grid.Walkable(targetCell) {
		return nil
	}
	if startCell == targetCell {
		return nil
	}

	cols := p.grid.Cols()
	total := p.grid.Rows() * cols
	index := func(c Cell) int { return c.Row*cols + c.Col }

	gScore := make([]int, total)
	for i := range gScore {
		gScore[i] = -1
	}
	cameFrom := make([]int, total)
	closed := make([]bool, total)

	open := &nodeQueue{}
	heap.Init(open)

	startIdx := index(startCell)
	gScore[startIdx] = 0
	cameFrom[startIdx] = -1
	open.push(startIdx, manhattan(startCell, targetCell))

	targetIdx := index(targetCell)
	for open.Len() > 0 {
		current := heap.Pop(open).(node)
		if closed[current.idx] {
			continue
		}
		closed[current.idx] = true

		if current.idx == targetIdx {
			return p.reconstruct(cameFrom, current.idx, cols)
		}

		cell := Cell{Col: current.idx % cols, Row: current.idx / cols}
		for _, off := range neighborOffsets {
			next := Cell{Col: cell.Col + off.Col, Row: cell.Row + off.Row}
			if !p.grid.Walkable(next) {
				continue
			}
			nextIdx := index(next)
			if closed[nextIdx] {
				continue
			}
			tentative := gScore[current.idx] + 1
			if gScore[nextIdx] != -1 && tentative >= gScore[nextIdx] {
				continue
			}
			gScore[nextIdx] = tentative
			cameFrom[nextIdx] = current.idx
			open.push(nextIdx, tentative+manhattan(next, targetCell))
		}
	}

	return nil
}

func (p *Pathfinder) reconstruct(cameFrom []int, idx, cols int) []Point {
	var reversed []int
	for idx != -1 {
		reversed = append(reversed, idx)
		idx = cameFrom[idx]
	}

	// Drop the start cell: the mover is already there.
	points := make([]Point, 0, len(reversed)-1)
	for i := len(reversed) - 2; i >= 0; i-- {
		cell := Cell{Col: reversed[i] % cols, Row: reversed[i] / cols}
		points = append(points, p.grid.CellToWorld(cell))
	}
	return points
}

func manhattan(a, b Cell) int {
	return abs(a.Col-b.Col) + abs(a.Row-b.Row)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type node struct {
	idx      int
	priority int
	seq      int
}

// nodeQueue is a min-heap on (priority, insertion sequence). The sequence
// tie-break keeps expansion order stable across runs.
type nodeQueue struct {
	nodes []node
	seq   int
}

func (q *nodeQueue) push(idx, priority int) {
	q.seq++
	heap.Push(q, node{idx: idx, priority: priority, seq: q.seq})
}

func (q *nodeQueue) Len() int { return len(q.nodes) }

func (q *nodeQueue) Less(i, j int) bool {
	if q.nodes[i].priority != q.nodes[j].priority {
		return q.nodes[i].priority < q.nodes[j].priority
	}
	return q.nodes[i].seq < q.nodes[j].seq
}

func (q *nodeQueue) Swap(i, j int) {
	q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i]
}

func (q *nodeQueue) Push(x any) {
	q.nodes = append(q.nodes, x.(node))
}

func (q *nodeQueue) Pop() any {
	old := q.nodes
	n := len(old)
	item := old[n-1]
	q.nodes = old[:n-1]
	return item
}
