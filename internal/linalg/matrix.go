package linalg

import "errors"

var (
	ErrShape    = errors.New("linalg: dimension mismatch")
	ErrSingular = errors.New("linalg: matrix is singular")
)

// Dense is a row-major dense matrix. It is the only matrix shape the
// analysis engines need; graphs in this system are small enough that a
// dense solve is cheaper than maintaining sparse structures.
type Dense struct {
	rows, cols int
	data       []float64
}

func NewDense(rows, cols int) *Dense {
	return &Dense{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

func Identity(n int) *Dense {
	m := NewDense(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

func (m *Dense) Rows() int { return m.rows }
func (m *Dense) Cols() int { return m.cols }

func (m *Dense) At(i, j int) float64     { return m.data[i*m.cols+j] }
func (m *Dense) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }
func (m *Dense) Add(i, j int, v float64) { m.data[i*m.cols+j] += v }

func (m *Dense) Clone() *Dense {
	out := &Dense{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(out.data, m.data)
	return out
}

// Trace sums the main diagonal. Defined only for square matrices.
func (m *Dense) Trace() (float64, error) {
	if m.rows != m.cols {
		return 0, ErrShape
	}
	sum := 0.0
	for i := 0; i < m.rows; i++ {
		sum += m.data[i*m.cols+i]
	}
	return sum, nil
}

// MulVec computes m * x.
func (m *Dense) MulVec(x []float64) ([]float64, error) {
	if len(x) != m.cols {
		return nil, ErrShape
	}
	out := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		s := 0.0
		for j, v := range row {
			s += v * x[j]
		}
		out[i] = s
	}
	return out, nil
}

// lu holds an LU factorization with row pivoting. perm maps factored row
// index to original row index.
type lu struct {
	n    int
	f    []float64
	perm []int
}

// factorize performs Doolittle elimination with partial pivoting. Pivot
// selection takes the largest absolute value, first index on ties, so the
// factorization is deterministic for identical input.
func (m *Dense) factorize() (*lu, error) {
	if m.rows != m.cols {
		return nil, ErrShape
	}
	n := m.rows
	f := make([]float64, len(m.data))
	copy(f, m.data)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for k := 0; k < n; k++ {
		// pivot row for column k
		p, best := k, abs(f[k*n+k])
		for i := k + 1; i < n; i++ {
			if a := abs(f[i*n+k]); a > best {
				p, best = i, a
			}
		}
		if best == 0 {
			return nil, ErrSingular
		}
		if p != k {
			swapRows(f, n, p, k)
			perm[p], perm[k] = perm[k], perm[p]
		}
		piv := f[k*n+k]
		for i := k + 1; i < n; i++ {
			mult := f[i*n+k] / piv
			f[i*n+k] = mult
			for j := k + 1; j < n; j++ {
				f[i*n+j] -= mult * f[k*n+j]
			}
		}
	}
	return &lu{n: n, f: f, perm: perm}, nil
}

func (d *lu) solve(b []float64) []float64 {
	n := d.n
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = b[d.perm[i]]
	}
	// forward substitution, unit lower triangle
	for i := 1; i < n; i++ {
		s := x[i]
		for j := 0; j < i; j++ {
			s -= d.f[i*n+j] * x[j]
		}
		x[i] = s
	}
	// back substitution
	for i := n - 1; i >= 0; i-- {
		s := x[i]
		for j := i + 1; j < n; j++ {
			s -= d.f[i*n+j] * x[j]
		}
		x[i] = s / d.f[i*n+i]
	}
	return x
}

// Solve returns x with m*x = b.
func (m *Dense) Solve(b []float64) ([]float64, error) {
	if m.rows != m.cols || len(b) != m.rows {
		return nil, ErrShape
	}
	d, err := m.factorize()
	if err != nil {
		return nil, err
	}
	return d.solve(b), nil
}

// Inverse factorizes once and solves per basis column.
func (m *Dense) Inverse() (*Dense, error) {
	if m.rows != m.cols {
		return nil, ErrShape
	}
	d, err := m.factorize()
	if err != nil {
		return nil, err
	}
	n := m.rows
	inv := NewDense(n, n)
	e := make([]float64, n)
	for j := 0; j < n; j++ {
		e[j] = 1
		col := d.solve(e)
		for i := 0; i < n; i++ {
			inv.data[i*n+j] = col[i]
		}
		e[j] = 0
	}
	return inv, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func swapRows(f []float64, n, a, b int) {
	ra := f[a*n : a*n+n]
	rb := f[b*n : b*n+n]
	for j := 0; j < n; j++ {
		ra[j], rb[j] = rb[j], ra[j]
	}
}
