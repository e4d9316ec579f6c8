// Package export renders analysis artifacts as row-based text: CSV
// tables for spreadsheets, GraphViz DOT for diagrams, and a YAML report
// bundling a whole run for archival.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/arrest"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/centrality"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/community"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/robustness"
)

func writeTable(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// WriteCentrality emits one row per node with a column per measure.
func WriteCentrality(w io.Writer, table *centrality.Table) error {
	header := append([]string{"node"}, table.Measures...)
	rows := make([][]string, 0, len(table.Nodes))
	for _, v := range table.Nodes {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(v))
		for _, m := range table.Measures {
			row = append(row, ftoa(table.Scores[m][v]))
		}
		rows = append(rows, row)
	}
	return writeTable(w, header, rows)
}

// WriteCommunities emits node,community rows in ascending node order.
func WriteCommunities(w io.Writer, res *community.Result) error {
	nodes := make([]int, 0, len(res.Labels))
	for v := range res.Labels {
		nodes = append(nodes, v)
	}
	sort.Ints(nodes)
	rows := make([][]string, 0, len(nodes))
	for _, v := range nodes {
		rows = append(rows, []string{strconv.Itoa(v), strconv.Itoa(res.Labels[v])})
	}
	return writeTable(w, []string{"node", "community"}, rows)
}

// WriteKemeny emits a one-row summary. The value cell stays empty when
// the constant is undefined so it cannot be mistaken for a number.
func WriteKemeny(w io.Writer, res *robustness.Result) error {
	value := ""
	if res.Defined {
		value = ftoa(res.Value)
	}
	row := []string{
		string(res.Basis),
		strconv.FormatBool(res.Defined),
		res.Reason,
		value,
		strconv.Itoa(res.Nodes),
		strconv.Itoa(res.Edges),
	}
	return writeTable(w, []string{"basis", "defined", "reason", "value", "nodes", "edges"}, [][]string{row})
}

// WriteSensitivity emits one row per edge delta in the order given, so
// callers can pass either the canonical listing or the severity ranking.
// Undefined removals leave the numeric cells empty.
func WriteSensitivity(w io.Writer, deltas []robustness.EdgeDelta) error {
	rows := make([][]string, 0, len(deltas))
	for _, d := range deltas {
		delta, after := "", ""
		if d.Defined {
			delta = ftoa(d.Delta)
			after = ftoa(d.After)
		}
		rows = append(rows, []string{
			strconv.Itoa(d.Edge.U),
			strconv.Itoa(d.Edge.V),
			strconv.FormatBool(d.Defined),
			delta,
			after,
		})
	}
	return writeTable(w, []string{"u", "v", "defined", "delta", "after"}, rows)
}

// WritePartition emits node,group rows in ascending node order. The
// table round-trips through ReadPartition.
func WritePartition(w io.Writer, res *arrest.PartitionResult) error {
	nodes := make([]int, 0, len(res.Assignment))
	for v := range res.Assignment {
		nodes = append(nodes, v)
	}
	sort.Ints(nodes)
	rows := make([][]string, 0, len(nodes))
	for _, v := range nodes {
		rows = append(rows, []string{strconv.Itoa(v), strconv.Itoa(res.Assignment[v])})
	}
	return writeTable(w, []string{"node", "group"}, rows)
}

// WriteOrder emits the removal ranking, one row per node.
func WriteOrder(w io.Writer, order arrest.Order) error {
	rows := make([][]string, 0, len(order))
	for i, e := range order {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(e.Node),
			ftoa(e.Centrality),
			ftoa(e.Exposure),
			ftoa(e.Score),
		})
	}
	return writeTable(w, []string{"rank", "node", "centrality", "exposure", "score"}, rows)
}

// WriteTrace emits one row per replay step. The kemeny cells stay empty
// when the snapshot did not record the constant or it was undefined.
func WriteTrace(w io.Writer, trace *arrest.Trace) error {
	rows := make([][]string, 0, len(trace.Snapshots))
	for _, s := range trace.Snapshots {
		defined, value := "", ""
		if s.Kemeny != nil {
			defined = strconv.FormatBool(s.Kemeny.Defined)
			if s.Kemeny.Defined {
				value = ftoa(s.Kemeny.Value)
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Step),
			strconv.Itoa(s.Node),
			ftoa(s.EffectiveArrests),
			strconv.Itoa(s.RemainingNodes),
			strconv.Itoa(s.RemainingEdges),
			strconv.Itoa(s.Components),
			strconv.Itoa(s.RiskyEdges),
			defined,
			value,
		})
	}
	header := []string{
		"step", "node", "effective_arrests", "remaining_nodes",
		"remaining_edges", "components", "risky_edges",
		"kemeny_defined", "kemeny_value",
	}
	return writeTable(w, header, rows)
}
