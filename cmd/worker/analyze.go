package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/arrest"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/centrality"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/community"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/export"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph/mtx"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/robustness"
)

func RunAnalyze(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker analyze <mtxPath> [outDir]")
	}
	path := args[0]
	outDir := "out"
	if len(args) > 1 {
		outDir = args[1]
	}
	if err := analyzeFile(path, outDir); err != nil {
		log.Fatal(err)
	}
}

// analyzeFile runs the whole pipeline over one matrix file and drops every
// artifact into outDir.
func analyzeFile(path, outDir string) error {
	ctx := context.Background()

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	g, parseReport, err := mtx.ParseBytes(b, false)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fmt.Printf("Parsed %s: %d nodes, %d edges\n", name, g.NodeCount(), g.EdgeCount())
	if n := parseReport.SelfLoopsDropped + parseReport.DuplicatesCollapsed + parseReport.ZerosDropped; n > 0 {
		fmt.Printf("Cleaned %d entries during parse\n", n)
	}

	central, err := centrality.NewService(centrality.DefaultOptions())
	if err != nil {
		return err
	}
	table, err := central.Compute(ctx, g, nil)
	if err != nil {
		return err
	}

	comm, err := community.Detect(ctx, g, community.DefaultOptions())
	if err != nil {
		return err
	}

	engine := robustness.NewEngine()
	kem, err := engine.ComputeKemeny(ctx, g, robustness.BasisFull)
	if err != nil {
		return err
	}
	if !kem.Defined {
		fmt.Printf("Kemeny undefined on full basis (%s), retrying on largest component\n", kem.Reason)
		kem, err = engine.ComputeKemeny(ctx, g, robustness.BasisLargestComponent)
		if err != nil {
			return err
		}
	}

	var sens *robustness.Sensitivity
	if kem.Defined {
		sens, err = engine.ComputeEdgeSensitivity(ctx, g, kem, 0)
		if err != nil {
			return err
		}
	}

	sig, err := central.Signal(ctx, g, centrality.MeasureDegree)
	if err != nil {
		return err
	}
	partitioner, err := arrest.NewPartitioner(arrest.PartitionOptions{
		Alpha:      1,
		Beta:       1,
		TimeBudget: 5 * time.Second,
	})
	if err != nil {
		return err
	}
	part, err := partitioner.Optimize(ctx, g, sig, comm.Labels)
	if err != nil {
		return err
	}
	order, err := arrest.RankOrder(g, part, sig, 0.5)
	if err != nil {
		return err
	}
	trace, err := arrest.Simulate(ctx, g, order.Nodes(),
		arrest.WithCentrality(sig),
		arrest.WithPartition(part.Assignment),
		arrest.WithKemeny(kem.Basis),
	)
	if err != nil {
		return err
	}

	if err := writeArtifact(outDir, "centrality.csv", func(w io.Writer) error {
		return export.WriteCentrality(w, table)
	}); err != nil {
		return err
	}
	if err := writeArtifact(outDir, "communities.csv", func(w io.Writer) error {
		return export.WriteCommunities(w, comm)
	}); err != nil {
		return err
	}
	if err := writeArtifact(outDir, "kemeny.csv", func(w io.Writer) error {
		return export.WriteKemeny(w, kem)
	}); err != nil {
		return err
	}
	if sens != nil {
		if err := writeArtifact(outDir, "sensitivity.csv", func(w io.Writer) error {
			return export.WriteSensitivity(w, sens.RankedBySeverity())
		}); err != nil {
			return err
		}
	}
	if err := writeArtifact(outDir, "partition.csv", func(w io.Writer) error {
		return export.WritePartition(w, part)
	}); err != nil {
		return err
	}
	if err := writeArtifact(outDir, "order.csv", func(w io.Writer) error {
		return export.WriteOrder(w, order)
	}); err != nil {
		return err
	}
	if err := writeArtifact(outDir, "trace.csv", func(w io.Writer) error {
		return export.WriteTrace(w, trace)
	}); err != nil {
		return err
	}

	dot := export.ToDOT(g, export.DOTOptions{Title: name, Assignment: part.Assignment})
	if err := os.WriteFile(filepath.Join(outDir, "network.dot"), []byte(dot), 0o644); err != nil {
		return err
	}

	report := &export.Report{
		Network:     export.DescribeNetwork(name, g),
		Kemeny:      kem,
		Communities: comm,
		Partition:   part,
		Order:       order,
		Trace:       trace,
	}
	if sens != nil {
		report.Sensitivity = sens.RankedBySeverity()
	}
	if err := writeArtifact(outDir, "report.yaml", report.WriteYAML); err != nil {
		return err
	}

	if kem.Defined {
		fmt.Printf("Kemeny (%s): %.6f\n", kem.Basis, kem.Value)
	} else {
		fmt.Printf("Kemeny (%s): undefined (%s)\n", kem.Basis, kem.Reason)
	}
	fmt.Printf("Partition [%s]: objective=%.4f, risky edges=%d\n", part.Status, part.Objective, len(part.CrossEdges(g)))
	top := order
	if len(top) > 5 {
		top = top[:5]
	}
	fmt.Printf("Arrest order (top %d):\n", len(top))
	for _, e := range top {
		fmt.Printf(" - node %d score=%.4f\n", e.Node, e.Score)
	}
	fmt.Printf("Wrote artifacts to %s\n", outDir)
	return nil
}

func writeArtifact(dir, name string, fn func(io.Writer) error) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
