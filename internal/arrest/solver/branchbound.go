package solver

import (
	"context"
	"math"
	"time"
)

const (
	// deadline polling stride: cheap enough to keep in the hot path,
	// frequent enough that overruns stay in the microsecond range
	checkMask = 4095
	eps       = 1e-9
)

// BranchBound is the exact strategy: depth-first enumeration with an
// admissible bound over the remaining centrality mass, a greedy seed for
// early pruning, and node 0 pinned to group 0 to break the group-swap
// symmetry. Branching follows Problem.Nodes order, so identical input
// always lands on the identical optimum.
type BranchBound struct{}

func NewBranchBound() *BranchBound { return &BranchBound{} }

func (*BranchBound) Name() string { return "branch_bound" }

func (s *BranchBound) Solve(ctx context.Context, p Problem, budget time.Duration) (*Solution, error) {
	if budget <= 0 {
		return nil, ErrTimeLimit
	}
	n := len(p.Nodes)
	if n == 0 {
		return &Solution{Assignment: map[int]int{}}, nil
	}
	if p.BalanceTol != nil && *p.BalanceTol < 0 {
		return nil, ErrInfeasible
	}

	e := newBBEngine(ctx, p, time.Now().Add(budget))
	e.seed()
	if err := e.dfs(0, 0, 0, 0, 0, 0, 0); err != nil {
		return nil, err
	}
	if !e.found {
		return nil, ErrInfeasible
	}

	sol := &Solution{Assignment: make(map[int]int, n), Objective: e.bestObj}
	for i, v := range p.Nodes {
		sol.Assignment[v] = int(e.best[i])
	}
	return sol, nil
}

type bbEngine struct {
	ctx      context.Context
	deadline time.Time
	steps    int

	n        int
	alpha    float64
	beta     float64
	c        []float64 // centrality in branch order
	adjBelow [][]int   // branch indices j < i adjacent to i
	sufC     []float64 // sum of c[i:]
	sufQ     []float64 // sum of c[i:] squared
	tol      int
	hasTol   bool

	assign  []int8
	best    []int8
	bestObj float64
	found   bool
}

func newBBEngine(ctx context.Context, p Problem, deadline time.Time) *bbEngine {
	n := len(p.Nodes)
	e := &bbEngine{
		ctx:      ctx,
		deadline: deadline,
		n:        n,
		alpha:    p.Alpha,
		beta:     p.Beta,
		c:        make([]float64, n),
		adjBelow: make([][]int, n),
		sufC:     make([]float64, n+1),
		sufQ:     make([]float64, n+1),
		assign:   make([]int8, n),
		best:     make([]int8, n),
		bestObj:  math.Inf(-1),
	}
	idx := make(map[int]int, n)
	for i, v := range p.Nodes {
		idx[v] = i
		e.c[i] = p.Centrality[v]
	}
	for _, edge := range p.Edges {
		iu, okU := idx[edge[0]]
		iv, okV := idx[edge[1]]
		if !okU || !okV {
			continue
		}
		if iu < iv {
			iu, iv = iv, iu
		}
		e.adjBelow[iu] = append(e.adjBelow[iu], iv)
	}
	for i := n - 1; i >= 0; i-- {
		e.sufC[i] = e.sufC[i+1] + e.c[i]
		e.sufQ[i] = e.sufQ[i+1] + e.c[i]*e.c[i]
	}
	if p.BalanceTol != nil {
		e.tol, e.hasTol = *p.BalanceTol, true
	}
	return e
}

// seed builds a greedy feasible assignment so the search starts with a
// real incumbent instead of pruning against nothing.
func (e *bbEngine) seed() {
	var s0, s1, pm, cross float64
	var n0, n1 int
	a := make([]int8, e.n)
	for i := 0; i < e.n; i++ {
		cnt0, cnt1 := e.assignedNeighbors(a, i)
		rem := e.n - i - 1
		ok0 := !e.hasTol || balanceReachable(n0+1-n1, rem, e.tol)
		ok1 := !e.hasTol || balanceReachable(n0-n1-1, rem, e.tol)
		if !ok0 && !ok1 {
			return
		}
		gain0 := e.alpha*e.c[i]*s0 - e.beta*float64(cnt1)
		gain1 := e.alpha*e.c[i]*s1 - e.beta*float64(cnt0)
		if ok0 && (!ok1 || gain0 >= gain1) {
			a[i] = 0
			pm += e.c[i] * s0
			cross += float64(cnt1)
			s0 += e.c[i]
			n0++
		} else {
			a[i] = 1
			pm += e.c[i] * s1
			cross += float64(cnt0)
			s1 += e.c[i]
			n1++
		}
	}
	if e.hasTol && absInt(n0-n1) > e.tol {
		return
	}
	copy(e.best, a)
	e.bestObj = e.alpha*pm - e.beta*cross
	e.found = true
}

func (e *bbEngine) dfs(i int, s0, s1 float64, n0, n1 int, pm, cross float64) error {
	e.steps++
	if e.steps&checkMask == 0 {
		if err := e.ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(e.deadline) {
			return ErrTimeLimit
		}
	}
	if i == e.n {
		if e.hasTol && absInt(n0-n1) > e.tol {
			return nil
		}
		if obj := e.alpha*pm - e.beta*cross; !e.found || obj > e.bestObj+eps {
			copy(e.best, e.assign)
			e.bestObj = obj
			e.found = true
		}
		return nil
	}
	rem := e.n - i
	if e.hasTol && !balanceReachable(n0-n1, rem, e.tol) {
		return nil
	}
	if e.found {
		// finish optimistically: every remaining node joins the heavier
		// group, remaining pairs all land together, no new cross edges
		heavier := s0
		if s1 > heavier {
			heavier = s1
		}
		ub := e.alpha*(pm+e.sufC[i]*heavier+(e.sufC[i]*e.sufC[i]-e.sufQ[i])/2) - e.beta*cross
		if ub <= e.bestObj+eps {
			return nil
		}
	}

	cnt0, cnt1 := e.assignedNeighbors(e.assign, i)
	e.assign[i] = 0
	if err := e.dfs(i+1, s0+e.c[i], s1, n0+1, n1, pm+e.c[i]*s0, cross+float64(cnt1)); err != nil {
		return err
	}
	if i > 0 {
		e.assign[i] = 1
		if err := e.dfs(i+1, s0, s1+e.c[i], n0, n1+1, pm+e.c[i]*s1, cross+float64(cnt0)); err != nil {
			return err
		}
	}
	return nil
}

func (e *bbEngine) assignedNeighbors(a []int8, i int) (cnt0, cnt1 int) {
	for _, j := range e.adjBelow[i] {
		if a[j] == 0 {
			cnt0++
		} else {
			cnt1++
		}
	}
	return cnt0, cnt1
}

// balanceReachable reports whether some split of rem unassigned nodes can
// land the final group size difference within tol of zero. The reachable
// differences form a fixed-parity ladder diff-rem, diff-rem+2, ..,
// diff+rem.
func balanceReachable(diff, rem, tol int) bool {
	lo, hi := diff-rem, diff+rem
	if lo < -tol {
		lo = -tol
	}
	if hi > tol {
		hi = tol
	}
	if lo > hi {
		return false
	}
	if hi-lo >= 1 {
		return true
	}
	return mod2(lo) == mod2(diff+rem)
}

func mod2(v int) int {
	return ((v % 2) + 2) % 2
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
