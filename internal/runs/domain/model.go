package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Analysis kinds. Each kind is one derived artifact the engine can produce
// for a stored network; the kind is part of the memoization key.
const (
	KindCentrality  = "centrality"
	KindCommunities = "communities"
	KindKemeny      = "kemeny"
	KindSensitivity = "sensitivity"
	KindPartition   = "partition"
	KindOrder       = "order"
	KindSimulation  = "simulation"
)

func AllKinds() []string {
	return []string{
		KindCentrality, KindCommunities, KindKemeny, KindSensitivity,
		KindPartition, KindOrder, KindSimulation,
	}
}

func ValidKind(kind string) bool {
	for _, k := range AllKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// Run status constants
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalysisParams carries every tunable a run can take. Fields that do not
// apply to a kind stay at their zero value; nil pointers mean "use the
// configured default". The struct has no map fields, so its JSON encoding
// is stable and safe to hash.
type AnalysisParams struct {
	Basis    string   `json:"basis,omitempty"`
	Measures []string `json:"measures,omitempty"`
	Measure  string   `json:"measure,omitempty"`
	Alpha    *float64 `json:"alpha,omitempty"`
	Beta     *float64 `json:"beta,omitempty"`
	Gamma    *float64 `json:"gamma,omitempty"`
	Balance  *int     `json:"balance,omitempty"`
	BudgetMs *int64   `json:"budget_ms,omitempty"`
	Workers  int      `json:"workers,omitempty"`
	Order    []int    `json:"order,omitempty"`
}

// Hash digests the params for memo keys. Equal params always produce equal
// keys; the short digest keeps keys readable.
func (p AnalysisParams) Hash() string {
	b, _ := json.Marshal(p)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}

// AnalysisRun is one recorded analysis invocation with its JSON result
// payload. Cached marks invocations served from the memo instead of a
// fresh computation.
type AnalysisRun struct {
	ID          string          `json:"id"`
	NetworkID   string          `json:"network_id"`
	ContentHash string          `json:"content_hash"`
	Kind        string          `json:"kind"`
	Params      AnalysisParams  `json:"params"`
	Status      string          `json:"status"`
	Cached      bool            `json:"cached"`
	DurationMs  int64           `json:"duration_ms"`
	Error       string          `json:"error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
