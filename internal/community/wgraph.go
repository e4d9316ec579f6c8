package community

import (
	"sort"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

// wgraph is the weighted working graph the aggregation levels run on.
// loop[v] holds twice the intra weight collapsed into v, so deg stays the
// plain row sum plus loop and total weight m is conserved across levels.
type wgraph struct {
	nodes []int
	adj   map[int]map[int]float64
	loop  map[int]float64
	deg   map[int]float64
	m     float64
}

func fromGraph(g *netgraph.Graph) *wgraph {
	w := &wgraph{
		nodes: g.Nodes(),
		adj:   map[int]map[int]float64{},
		loop:  map[int]float64{},
		deg:   map[int]float64{},
	}
	for _, v := range w.nodes {
		w.adj[v] = map[int]float64{}
	}
	for _, e := range g.Edges() {
		u, v := e.U, e.V
		if u > v {
			u, v = v, u
		}
		if w.adj[u][v] != 0 {
			continue // collapse reciprocal directed pairs
		}
		w.adj[u][v] += 1
		w.adj[v][u] += 1
	}
	for _, v := range w.nodes {
		for _, x := range w.adj[v] {
			w.deg[v] += x
		}
		w.m += w.deg[v]
	}
	w.m /= 2
	return w
}

// localMove sweeps nodes in ascending order, moving each to the adjacent
// community with the best modularity gain. Ties keep the smaller
// community id. Returns the node->community map and whether anything
// moved at all.
func (w *wgraph) localMove(opts Options) (map[int]int, bool) {
	comm := make(map[int]int, len(w.nodes))
	tot := make(map[int]float64, len(w.nodes))
	for _, v := range w.nodes {
		comm[v] = v
		tot[v] = w.deg[v] + w.loop[v]
	}
	anyMove := false
	for sweep := 0; sweep < opts.MaxSweeps; sweep++ {
		movedThisSweep := false
		for _, v := range w.nodes {
			dv := w.deg[v] + w.loop[v]
			own := comm[v]
			tot[own] -= dv

			neigh := map[int]float64{}
			for u, x := range w.adj[v] {
				neigh[comm[u]] += x
			}
			cands := make([]int, 0, len(neigh))
			for c := range neigh {
				cands = append(cands, c)
			}
			sort.Ints(cands)

			best := own
			bestGain := gain(neigh[own], tot[own], dv, w.m)
			for _, c := range cands {
				if c == own {
					continue
				}
				if g := gain(neigh[c], tot[c], dv, w.m); g > bestGain+opts.MinGain {
					best, bestGain = c, g
				}
			}
			comm[v] = best
			tot[best] += dv
			if best != own {
				movedThisSweep = true
				anyMove = true
			}
		}
		if !movedThisSweep {
			break
		}
	}
	return comm, anyMove
}

func gain(linksTo, commTot, deg, m float64) float64 {
	return linksTo/m - commTot*deg/(2*m*m)
}

// aggregate collapses each community into a supernode keyed by its
// community id. Ordered adjacency pairs are summed, so intra weight lands
// on loop at twice the undirected weight, keeping m constant.
func (w *wgraph) aggregate(comm map[int]int) *wgraph {
	next := &wgraph{
		adj:  map[int]map[int]float64{},
		loop: map[int]float64{},
		deg:  map[int]float64{},
	}
	super := map[int]bool{}
	for _, v := range w.nodes {
		c := comm[v]
		if !super[c] {
			super[c] = true
			next.nodes = append(next.nodes, c)
			next.adj[c] = map[int]float64{}
		}
		next.loop[c] += w.loop[v]
	}
	sort.Ints(next.nodes)
	for _, u := range w.nodes {
		cu := comm[u]
		for v, x := range w.adj[u] {
			cv := comm[v]
			if cu == cv {
				next.loop[cu] += x
			} else {
				next.adj[cu][cv] += x
			}
		}
	}
	for _, c := range next.nodes {
		for _, x := range next.adj[c] {
			next.deg[c] += x
		}
	}
	next.m = w.m
	return next
}
