// Command docsgen generates markdown reference docs from the declarative
// schema artifacts produced by declarative-schema-gen.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/docsgen/declarative"
)

func main() {
	var (
		indexPath = flag.String("declarative-index", "schemas/declarative/v1/index.json", "path to declarative schema manifest")
		schemaDir = flag.String("declarative-dir", "schemas/declarative/v1", "path to declarative schema directory")
		outDir    = flag.String("outdir", "docs/reference/generated", "output directory for generated docs")
	)
	flag.Parse()

	out := filepath.Join(*outDir, "declarative")
	if err := declarative.Generate(*indexPath, *schemaDir, out); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: generate declarative docs: %v\n", err)
		os.Exit(1)
	}
}
