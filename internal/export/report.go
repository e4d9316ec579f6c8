package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/arrest"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/community"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/robustness"
)

// NetworkInfo describes the analyzed graph.
type NetworkInfo struct {
	Name     string  `yaml:"name"`
	Directed bool    `yaml:"directed"`
	Nodes    int     `yaml:"nodes"`
	Edges    int     `yaml:"edges"`
	Density  float64 `yaml:"density"`
}

// Report bundles the artifacts of one analysis run. Sections the run did
// not produce stay nil and are omitted from the output.
type Report struct {
	Network     NetworkInfo             `yaml:"network"`
	Kemeny      *robustness.Result      `yaml:"kemeny,omitempty"`
	Sensitivity []robustness.EdgeDelta  `yaml:"sensitivity,omitempty"`
	Communities *community.Result       `yaml:"communities,omitempty"`
	Partition   *arrest.PartitionResult `yaml:"partition,omitempty"`
	Order       arrest.Order            `yaml:"order,omitempty"`
	Trace       *arrest.Trace           `yaml:"trace,omitempty"`
}

// DescribeNetwork fills the graph section of a report.
func DescribeNetwork(name string, g *netgraph.Graph) NetworkInfo {
	return NetworkInfo{
		Name:     name,
		Directed: g.Directed(),
		Nodes:    g.NodeCount(),
		Edges:    g.EdgeCount(),
		Density:  g.Density(),
	}
}

// WriteYAML renders the report.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// ReadReportYAML parses a report written by WriteYAML.
func ReadReportYAML(r io.Reader) (*Report, error) {
	var rep Report
	if err := yaml.NewDecoder(r).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
