//go:build ignore

// generate_testdata.go writes synthetic hierarchy documents for benchmarking
// and manual browsing.
// Usage: go run scripts/generate_testdata.go [output-dir]
//
// Creates (default dir testdata/domains):
//
//	small_hierarchy.json   (100 tasks)
//	medium_hierarchy.json  (1000 tasks)
//	large_hierarchy.json   (10000 tasks)
//
// Browse them with: tasktree --dir testdata/domains browse small
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/tasktree/pkg/testutil"
)

type datasetSpec struct {
	name       string
	size       int
	roots      int
	standalone int
}

var datasets = []datasetSpec{
	{"small", 90, 4, 10},
	{"medium", 900, 12, 100},
	{"large", 9000, 40, 1000},
}

func main() {
	outputDir := "testdata/domains"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s domain (%d tasks)...\n", ds.name, ds.size+ds.standalone)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.size) // Reproducible per-size
		cfg.NamePrefix = "Bench"
		cfg.IncludeTags = true

		gen := testutil.New(cfg)
		fixture := gen.WithStandalone(gen.Random(ds.size, ds.roots), ds.standalone)
		fixture.Document.Domain = ds.name
		data := testutil.ToJSON(fixture.Document)

		outputPath := filepath.Join(outputDir, ds.name+"_hierarchy.json")
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes, depth %d)\n", outputPath, len(data), fixture.Properties.MaxDepth)
	}

	fmt.Println("\nDone! Domains created in", outputDir)
}
