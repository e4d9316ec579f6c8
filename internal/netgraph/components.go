package netgraph

import "sort"

// ConnectedComponents returns the weakly connected components (ignoring
// edge direction), each sorted ascending, ordered by smallest member.
func (g *Graph) ConnectedComponents() [][]int {
	seen := map[int]bool{}
	var comps [][]int
	for _, start := range g.Nodes() {
		if seen[start] {
			continue
		}
		comp := []int{}
		queue := []int{start}
		seen[start] = true
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			comp = append(comp, v)
			for w := range g.out[v] {
				if !seen[w] {
					seen[w] = true
					queue = append(queue, w)
				}
			}
			for w := range g.in[v] {
				if !seen[w] {
					seen[w] = true
					queue = append(queue, w)
				}
			}
		}
		sort.Ints(comp)
		comps = append(comps, comp)
	}
	return comps
}

// StronglyConnectedComponents runs Tarjan over the directed adjacency.
// For undirected graphs the symmetric adjacency makes every connected
// component strongly connected, so both views agree.
func (g *Graph) StronglyConnectedComponents() [][]int {
	index := 0
	stack := []int{}
	onStack := map[int]bool{}
	id := map[int]int{}
	low := map[int]int{}
	var comps [][]int

	var dfs func(v int)
	dfs = func(v int) {
		index++
		id[v], low[v] = index, index
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.OutNeighbors(v) {
			if _, visited := id[w]; !visited {
				dfs(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && id[w] < low[v] {
				low[v] = id[w]
			}
		}
		// root?
		if low[v] == id[v] {
			comp := []int{}
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			sort.Ints(comp)
			comps = append(comps, comp)
		}
	}
	for _, v := range g.Nodes() {
		if _, visited := id[v]; !visited {
			dfs(v)
		}
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}

// Components returns the component partition relevant to random-walk
// analysis: strong components for directed graphs, connected components
// otherwise.
func (g *Graph) Components() [][]int {
	if g.directed {
		return g.StronglyConnectedComponents()
	}
	return g.ConnectedComponents()
}

// LargestComponent picks the biggest component, breaking size ties by
// smallest member id.
func (g *Graph) LargestComponent() []int {
	var best []int
	for _, comp := range g.Components() {
		switch {
		case best == nil, len(comp) > len(best):
			best = comp
		case len(comp) == len(best) && comp[0] < best[0]:
			best = comp
		}
	}
	return best
}

func (g *Graph) IsConnected() bool {
	if len(g.nodes) == 0 {
		return false
	}
	return len(g.ConnectedComponents()) == 1
}

func (g *Graph) IsStronglyConnected() bool {
	if len(g.nodes) == 0 {
		return false
	}
	return len(g.StronglyConnectedComponents()) == 1
}
