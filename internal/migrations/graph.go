package migrations

import "errors"

// errCycle is returned by toposort when the graph contains a cycle.
var errCycle = errors.New("cycle detected in the graph")

// graph is a directed graph over integer vertex indices, used to order
// CreateModel operations by their foreign-key dependencies.
type graph struct {
	vertexEdges [][]int
}

func newGraph(vertexNum int) *graph {
	return &graph{vertexEdges: make([][]int, vertexNum)}
}

func (g *graph) addEdge(from, to int) {
	g.vertexEdges[from] = append(g.vertexEdges[from], to)
}

func (g *graph) vertexNum() int {
	return len(g.vertexEdges)
}

type visitedStatus int

const (
	notVisited visitedStatus = iota
	visiting
	visited
)

// toposort returns a topological order of the vertices. Visitation order is
// fixed by vertex index, so the result is deterministic for a given edge
// set. On a cycle it returns errCycle along with the vertices forming the
// cycle, in edge order.
func (g *graph) toposort() (sorted []int, cycle []int, err error) {
	status := make([]visitedStatus, g.vertexNum())
	stack := make([]int, 0, g.vertexNum())
	var path []int

	var visit func(index int) []int
	visit = func(index int) []int {
		switch status[index] {
		case visited:
			return nil
		case visiting:
			// The cycle is the tail of the current path starting at the
			// revisited vertex.
			for i, v := range path {
				if v == index {
					return append([]int(nil), path[i:]...)
				}
			}
			return append([]int(nil), index)
		}
		status[index] = visiting
		path = append(path, index)
		for _, neighbor := range g.vertexEdges[index] {
			if c := visit(neighbor); c != nil {
				return c
			}
		}
		path = path[:len(path)-1]
		status[index] = visited
		stack = append(stack, index)
		return nil
	}

	for index := g.vertexNum() - 1; index >= 0; index-- {
		if c := visit(index); c != nil {
			return nil, c, errCycle
		}
	}

	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	return stack, nil, nil
}
