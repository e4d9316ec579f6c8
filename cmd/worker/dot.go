package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/export"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph/mtx"
)

func RunDOT(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker dot <mtxPath> [outPath]")
	}
	in := args[0]
	out := "network.dot"
	if len(args) > 1 {
		out = args[1]
	}
	if err := writeDOT(in, out); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote: %s\n", out)
}

func writeDOT(inPath, outPath string) error {
	b, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	g, _, err := mtx.ParseBytes(b, false)
	if err != nil {
		return err
	}
	title := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	return os.WriteFile(outPath, []byte(export.ToDOT(g, export.DOTOptions{Title: title})), 0o644)
}
