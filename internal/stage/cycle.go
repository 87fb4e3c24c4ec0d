package stage

import (
	"sort"
	"strings"

	"github.com/mrz1836/relab/internal/domain"
)

// findCycle proves the dependency table acyclic using Kahn's algorithm and,
// when peeling fails, extracts one cycle path for error reporting. Caller
// must hold at least a read lock.
func (g *Gate) findCycle() []string {
	// Adjacency upstream -> downstreams over every task named by an edge.
	indeg := make(map[string]int)
	next := make(map[string][]string)
	for _, edge := range g.edges {
		next[edge.Upstream] = append(next[edge.Upstream], edge.Downstream)
		indeg[edge.Downstream]++
		if _, ok := indeg[edge.Upstream]; !ok {
			indeg[edge.Upstream] = 0
		}
	}

	// Deterministic ready order keeps error messages stable.
	ready := make([]string, 0, len(indeg))
	for name, d := range indeg {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	removed := 0
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		removed++
		for _, m := range next[name] {
			indeg[m]--
			if indeg[m] == 0 {
				ready = append(ready, m)
			}
		}
	}

	if removed == len(indeg) {
		return nil
	}

	// Remaining nodes with positive indegree all sit on or behind a cycle;
	// walk forward from the smallest one until a node repeats.
	var stuck []string
	for name, d := range indeg {
		if d > 0 {
			stuck = append(stuck, name)
		}
	}
	sort.Strings(stuck)
	return walkCycle(stuck[0], g.edges)
}

// walkCycle follows downstream->upstream links from start until a task
// repeats, returning the cycle path in dependency order.
func walkCycle(start string, edges map[string]domain.StageEdge) []string {
	seen := map[string]int{}
	path := []string{}
	cur := start
	for {
		if at, ok := seen[cur]; ok {
			return append(path[at:], cur)
		}
		seen[cur] = len(path)
		path = append(path, cur)
		edge, ok := edges[cur]
		if !ok {
			return path
		}
		cur = edge.Upstream
	}
}

// formatCycle renders a cycle path as "a -> b -> a".
func formatCycle(cycle []string) string {
	return strings.Join(cycle, " -> ")
}
