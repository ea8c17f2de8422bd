// Package graph builds the validated model dependency graph from
// manifest entries: resolves declared dependencies into edges, rejects
// cycles, and computes the downstream transpose.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/pipecost/internal/models"
)

// CyclicDependencyError is fatal: cost attribution is meaningless over
// a graph that is not acyclic.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Cycle) == 0 {
		return "cyclic dependency detected"
	}
	return fmt.Sprintf("cyclic dependency: %s -> %s", strings.Join(e.Cycle, " -> "), e.Cycle[0])
}

// Build constructs the dependency graph from manifest models.
//
// Dangling dependency references are dropped with a warning; the model
// keeps a known-incomplete upstream set. Duplicate model names keep the
// first occurrence. A cycle aborts with *CyclicDependencyError.
func Build(manifest []models.Model) (*models.Graph, []models.Warning, error) {
	warnings := []models.Warning{}

	nodes := make([]models.Model, 0, len(manifest))
	index := make(map[string]int, len(manifest))
	for _, m := range manifest {
		if _, seen := index[m.Name]; seen {
			warnings = append(warnings, models.Warning{
				Kind:   models.WarningDuplicateModel,
				Model:  m.Name,
				Detail: fmt.Sprintf("model %q declared more than once, keeping the first entry", m.Name),
			})
			continue
		}
		node := m
		node.Downstream = nil
		index[m.Name] = len(nodes)
		nodes = append(nodes, node)
	}

	edges := []models.Edge{}
	for i := range nodes {
		resolved := make([]string, 0, len(nodes[i].Upstream))
		for _, dep := range nodes[i].Upstream {
			if _, ok := index[dep]; !ok {
				warnings = append(warnings, models.Warning{
					Kind:   models.WarningDanglingReference,
					Model:  nodes[i].Name,
					Detail: fmt.Sprintf("model %q depends on unknown model %q, edge dropped", nodes[i].Name, dep),
				})
				continue
			}
			resolved = append(resolved, dep)
			edges = append(edges, models.Edge{Upstream: dep, Downstream: nodes[i].Name})
		}
		sort.Strings(resolved)
		nodes[i].Upstream = resolved
	}

	if cycle := findCycle(nodes, index); len(cycle) > 0 {
		return nil, nil, &CyclicDependencyError{Cycle: cycle}
	}

	// Downstream sets are the transpose of the edge set.
	downstream := make(map[string][]string, len(nodes))
	for _, e := range edges {
		downstream[e.Upstream] = append(downstream[e.Upstream], e.Downstream)
	}
	for i := range nodes {
		deps := downstream[nodes[i].Name]
		sort.Strings(deps)
		nodes[i].Downstream = deps
	}

	return &models.Graph{Models: nodes, Edges: edges}, warnings, nil
}

// findCycle runs Kahn's algorithm over resolved upstream edges and, if
// any node survives, walks the residue to name one concrete cycle.
func findCycle(nodes []models.Model, index map[string]int) []string {
	indegree := make([]int, len(nodes))
	for i := range nodes {
		indegree[i] = len(nodes[i].Upstream)
	}

	queue := make([]int, 0, len(nodes))
	for i := range nodes {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visited++
		for j := range nodes {
			for _, dep := range nodes[j].Upstream {
				if index[dep] == cur {
					indegree[j]--
					if indegree[j] == 0 {
						queue = append(queue, j)
					}
				}
			}
		}
	}
	if visited == len(nodes) {
		return nil
	}

	// Walk upstream pointers inside the residue until a node repeats.
	residue := map[int]bool{}
	for i := range nodes {
		if indegree[i] > 0 {
			residue[i] = true
		}
	}
	start := -1
	for i := range nodes {
		if residue[i] {
			start = i
			break
		}
	}

	seen := map[int]int{}
	path := []int{}
	cur := start
	for {
		if pos, ok := seen[cur]; ok {
			cycle := make([]string, 0, len(path)-pos)
			for _, idx := range path[pos:] {
				cycle = append(cycle, nodes[idx].Name)
			}
			return cycle
		}
		seen[cur] = len(path)
		path = append(path, cur)

		next := -1
		for _, dep := range nodes[cur].Upstream {
			if residue[index[dep]] {
				next = index[dep]
				break
			}
		}
		if next < 0 {
			// Should not happen: every residue node has an in-residue parent.
			return []string{nodes[cur].Name}
		}
		cur = next
	}
}
