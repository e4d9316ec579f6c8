package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrBadPartitionTable means a partition CSV does not parse back into a
// node-to-group mapping.
var ErrBadPartitionTable = errors.New("export: malformed partition table")

// ReadPartition parses a table written by WritePartition back into the
// assignment mapping.
func ReadPartition(r io.Reader) (map[int]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header: %v", ErrBadPartitionTable, err)
	}
	if header[0] != "node" || header[1] != "group" {
		return nil, fmt.Errorf("%w: unexpected header %v", ErrBadPartitionTable, header)
	}

	assignment := map[int]int{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return assignment, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPartitionTable, err)
		}
		node, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: node %q", ErrBadPartitionTable, row[0])
		}
		grp, err := strconv.Atoi(row[1])
		if err != nil || (grp != 0 && grp != 1) {
			return nil, fmt.Errorf("%w: group %q for node %d", ErrBadPartitionTable, row[1], node)
		}
		if _, dup := assignment[node]; dup {
			return nil, fmt.Errorf("%w: node %d listed twice", ErrBadPartitionTable, node)
		}
		assignment[node] = grp
	}
}
