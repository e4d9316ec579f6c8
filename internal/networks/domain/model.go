package domain

import (
	"time"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph/mtx"
)

// Network is a stored graph with its parse provenance. Payload carries the
// full node and edge lists; list endpoints omit it and return metadata only.
type Network struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Directed    bool             `json:"directed"`
	NodeCount   int              `json:"node_count"`
	EdgeCount   int              `json:"edge_count"`
	ContentHash string           `json:"content_hash"`
	Payload     *netgraph.Record `json:"payload,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// UploadResult pairs the stored network with the parser's report so the
// client can surface dropped self loops and collapsed duplicate entries.
// Duplicate marks uploads whose content hash matched an existing network;
// the existing row is returned instead of a twin.
type UploadResult struct {
	Network   *Network    `json:"network"`
	Report    *mtx.Report `json:"report"`
	Duplicate bool        `json:"duplicate,omitempty"`
}

// Overview summarizes a stored network's shape. Components counts weakly
// connected components for undirected graphs and strongly connected ones
// for directed graphs, matching what the robustness analyses care about.
type Overview struct {
	Nodes            int     `json:"nodes"`
	Edges            int     `json:"edges"`
	Directed         bool    `json:"directed"`
	Density          float64 `json:"density"`
	Components       int     `json:"components"`
	LargestComponent int     `json:"largest_component"`
	Connected        bool    `json:"connected"`
}
