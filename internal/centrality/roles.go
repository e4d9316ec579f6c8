package centrality

import (
	"context"
	"math"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

// Structural role tags assigned from degree and betweenness profiles.
// Hubs concentrate connections, brokers sit on many shortest paths
// without being hubs themselves, peripherals hang off the fringe.
const (
	RoleHub        = "hub"
	RoleBroker     = "broker"
	RolePeripheral = "peripheral"
	RoleMember     = "member"
)

// Roles classifies every node by z-scoring its degree and betweenness
// against the graph. The rule set is fixed and deterministic: degree one
// standard deviation up makes a hub, betweenness one up makes a broker,
// degree one down makes a peripheral, the rest are members.
func Roles(ctx context.Context, g *netgraph.Graph) (map[int]string, error) {
	deg := Degree(g)
	bet, err := Betweenness(ctx, g)
	if err != nil {
		return nil, err
	}
	degMean, degStd := meanStd(deg)
	betMean, betStd := meanStd(bet)

	roles := make(map[int]string, len(deg))
	for v, d := range deg {
		zd := zscore(d, degMean, degStd)
		zb := zscore(bet[v], betMean, betStd)
		switch {
		case zd >= 1:
			roles[v] = RoleHub
		case zb >= 1:
			roles[v] = RoleBroker
		case zd <= -1:
			roles[v] = RolePeripheral
		default:
			roles[v] = RoleMember
		}
	}
	return roles, nil
}

func meanStd(scores map[int]float64) (mean, std float64) {
	n := float64(len(scores))
	if n == 0 {
		return 0, 0
	}
	for _, v := range scores {
		mean += v
	}
	mean /= n
	for _, v := range scores {
		std += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(std / n)
}

func zscore(v, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (v - mean) / std
}
