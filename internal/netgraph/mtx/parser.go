// Package mtx reads MatrixMarket coordinate files as graphs. The upload
// surface accepts the same files the original tooling produced with scipy:
// a square sparse adjacency matrix, 1-based indices, optional symmetric
// storage.
package mtx

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

var (
	ErrBadHeader   = errors.New("mtx: missing or malformed MatrixMarket header")
	ErrUnsupported = errors.New("mtx: unsupported MatrixMarket variant")
	ErrNotSquare   = errors.New("mtx: adjacency matrix must be square")
	ErrBadEntry    = errors.New("mtx: malformed entry")
)

// Report describes what the parser did with the file. Dropped self loops
// and collapsed duplicates surface as upload warnings, the way the
// original tooling reported them.
type Report struct {
	Rows                int  `json:"rows"`
	Cols                int  `json:"cols"`
	Entries             int  `json:"entries"`
	SelfLoopsDropped    int  `json:"selfLoopsDropped"`
	DuplicatesCollapsed int  `json:"duplicatesCollapsed"`
	ZerosDropped        int  `json:"zerosDropped"`
	Symmetric           bool `json:"symmetric"`
}

func ParseFile(path string, directed bool) (*netgraph.Graph, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Parse(f, directed)
}

func ParseBytes(b []byte, directed bool) (*netgraph.Graph, *Report, error) {
	return Parse(bytes.NewReader(b), directed)
}

// Parse reads one MatrixMarket coordinate matrix. Matrix entries become
// edges on nodes 0..N-1; every node exists afterwards even when isolated.
// The caller chooses directedness (the file's symmetry only controls
// whether stored entries are mirrored).
func Parse(r io.Reader, directed bool) (*netgraph.Graph, *Report, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	field, symmetric, err := readHeader(sc)
	if err != nil {
		return nil, nil, err
	}

	rows, cols, nnz, err := readDims(sc)
	if err != nil {
		return nil, nil, err
	}
	if rows != cols {
		return nil, nil, fmt.Errorf("%w: got %dx%d", ErrNotSquare, rows, cols)
	}

	g := netgraph.NewGraph(directed)
	for id := 0; id < rows; id++ {
		if err := g.AddNode(id); err != nil {
			return nil, nil, err
		}
	}

	rep := &Report{Rows: rows, Cols: cols, Symmetric: symmetric}
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		i, j, val, err := parseEntry(text, field)
		if err != nil {
			return nil, nil, fmt.Errorf("entry %d: %w", rep.Entries+1, err)
		}
		rep.Entries++
		if i < 1 || i > rows || j < 1 || j > cols {
			return nil, nil, fmt.Errorf("%w: index (%d,%d) outside %dx%d", ErrBadEntry, i, j, rows, cols)
		}
		if val == 0 {
			rep.ZerosDropped++
			continue
		}
		if i == j {
			rep.SelfLoopsDropped++
			continue
		}
		addEdge(g, rep, i-1, j-1)
		if symmetric && directed {
			addEdge(g, rep, j-1, i-1)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if rep.Entries != nnz {
		return nil, nil, fmt.Errorf("%w: header declares %d entries, file has %d", ErrBadEntry, nnz, rep.Entries)
	}
	return g, rep, nil
}

func addEdge(g *netgraph.Graph, rep *Report, u, v int) {
	if g.HasEdge(u, v) {
		rep.DuplicatesCollapsed++
		return
	}
	// endpoints already exist, only ErrSelfLoop is possible and i==j was
	// filtered above
	_ = g.AddEdge(u, v)
}

func readHeader(sc *bufio.Scanner) (field string, symmetric bool, err error) {
	if !sc.Scan() {
		return "", false, ErrBadHeader
	}
	parts := strings.Fields(strings.ToLower(sc.Text()))
	if len(parts) < 5 || parts[0] != "%%matrixmarket" || parts[1] != "matrix" {
		return "", false, ErrBadHeader
	}
	format, field, symmetry := parts[2], parts[3], parts[4]
	if format != "coordinate" {
		return "", false, fmt.Errorf("%w: format %q", ErrUnsupported, format)
	}
	switch field {
	case "real", "integer", "pattern":
	default:
		return "", false, fmt.Errorf("%w: field %q", ErrUnsupported, field)
	}
	switch symmetry {
	case "general":
	case "symmetric":
		symmetric = true
	default:
		return "", false, fmt.Errorf("%w: symmetry %q", ErrUnsupported, symmetry)
	}
	return field, symmetric, nil
}

func readDims(sc *bufio.Scanner) (rows, cols, nnz int, err error) {
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		parts := strings.Fields(text)
		if len(parts) != 3 {
			return 0, 0, 0, fmt.Errorf("%w: size line %q", ErrBadHeader, text)
		}
		dims := make([]int, 3)
		for k, p := range parts {
			dims[k], err = strconv.Atoi(p)
			if err != nil || dims[k] < 0 {
				return 0, 0, 0, fmt.Errorf("%w: size line %q", ErrBadHeader, text)
			}
		}
		return dims[0], dims[1], dims[2], nil
	}
	if err := sc.Err(); err != nil {
		return 0, 0, 0, err
	}
	return 0, 0, 0, fmt.Errorf("%w: no size line", ErrBadHeader)
}

func parseEntry(text, field string) (i, j int, val float64, err error) {
	parts := strings.Fields(text)
	wantCols := 3
	if field == "pattern" {
		wantCols = 2
	}
	if len(parts) != wantCols {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadEntry, text)
	}
	if i, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadEntry, text)
	}
	if j, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadEntry, text)
	}
	if field == "pattern" {
		return i, j, 1, nil
	}
	if val, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadEntry, text)
	}
	return i, j, val, nil
}
