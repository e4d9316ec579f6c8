package arrest

import (
	"fmt"
	"sort"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

// RiskExposure counts, per node, the incident edges whose endpoints sit
// in different groups. Directed edges charge both endpoints.
func RiskExposure(g *netgraph.Graph, assignment map[int]int) map[int]float64 {
	exposure := make(map[int]float64, g.NodeCount())
	for _, v := range g.Nodes() {
		exposure[v] = 0
	}
	for _, e := range g.Edges() {
		if (assignment[e.U] == 1) != (assignment[e.V] == 1) {
			exposure[e.U]++
			exposure[e.V]++
		}
	}
	return exposure
}

// RankOrder ranks every node for removal. A node's score is its
// centrality minus gamma times its risky-edge exposure under the given
// partition; higher scores are processed first, ties fall back to
// ascending node id. Gamma zero degenerates to a pure centrality
// ranking. The order is tied to the partition it was built from and must
// be rebuilt when the partition or the graph changes.
func RankOrder(g *netgraph.Graph, partition *PartitionResult, centrality map[int]float64, gamma float64) (Order, error) {
	if gamma < 0 {
		return nil, fmt.Errorf("%w: gamma %v", ErrBadOptions, gamma)
	}
	if partition == nil {
		return nil, fmt.Errorf("%w: no partition", ErrInvalidPartition)
	}
	if err := validateAssignment(g, partition.Assignment); err != nil {
		return nil, err
	}

	exposure := RiskExposure(g, partition.Assignment)
	order := make(Order, 0, g.NodeCount())
	for _, v := range g.Nodes() {
		e := OrderEntry{Node: v, Centrality: centrality[v], Exposure: exposure[v]}
		e.Score = e.Centrality - gamma*e.Exposure
		order = append(order, e)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].Score != order[j].Score {
			return order[i].Score > order[j].Score
		}
		return order[i].Node < order[j].Node
	})
	return order, nil
}
