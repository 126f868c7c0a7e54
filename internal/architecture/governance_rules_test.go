// Package architecture_test enforces the dependency direction between
// packages. The rules live in one place so a violation fails with the layer
// hint instead of surfacing later as an import cycle or a leaked concern.
package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/skinclarityclub/Future-MarketingAI-sub004"

type layerRule struct {
	sourcePrefix string
	forbidden    []string
	hint         string
}

var architectureRules = []layerRule{
	{
		sourcePrefix: modulePath + "/internal/domain",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/config",
			modulePath + "/internal/db",
			modulePath + "/internal/declarative",
			modulePath + "/internal/engine",
			modulePath + "/internal/formula",
			modulePath + "/internal/lookup",
			modulePath + "/internal/middleware",
			modulePath + "/internal/quality",
			modulePath + "/internal/sampling",
			modulePath + "/internal/service",
			modulePath + "/internal/sink",
			modulePath + "/cmd",
			modulePath + "/pkg/cli",
		},
		hint: "domain may only import domain",
	},
	{
		sourcePrefix: modulePath + "/internal/engine",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/config",
			modulePath + "/internal/db",
			modulePath + "/internal/declarative",
			modulePath + "/internal/middleware",
			modulePath + "/internal/service",
			modulePath + "/internal/sink",
			modulePath + "/cmd",
			modulePath + "/pkg/cli",
		},
		hint: "engine depends on domain and the sampling/formula/lookup toolkits",
	},
	{
		sourcePrefix: modulePath + "/internal/service",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/db",
			modulePath + "/internal/middleware",
			modulePath + "/internal/sink",
			modulePath + "/cmd",
			modulePath + "/pkg/cli",
		},
		hint: "services reach storage and the sink through domain ports",
	},
	{
		sourcePrefix: modulePath + "/internal/api",
		forbidden: []string{
			modulePath + "/internal/app",
			modulePath + "/internal/db",
			modulePath + "/internal/engine",
			modulePath + "/internal/sink",
			modulePath + "/cmd",
			modulePath + "/pkg/cli",
		},
		hint: "api talks to services and domain types; registries and stores stay behind them",
	},
	{
		sourcePrefix: modulePath + "/internal/db",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/declarative",
			modulePath + "/internal/engine",
			modulePath + "/internal/middleware",
			modulePath + "/internal/service",
			modulePath + "/internal/sink",
			modulePath + "/cmd",
			modulePath + "/pkg/cli",
		},
		hint: "db should depend on domain and db-local packages",
	},
	{
		sourcePrefix: modulePath + "/internal/sink",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/config",
			modulePath + "/internal/db",
			modulePath + "/internal/engine",
			modulePath + "/internal/middleware",
			modulePath + "/internal/service",
			modulePath + "/cmd",
			modulePath + "/pkg/cli",
		},
		hint: "sink should depend on domain only",
	},
	{
		sourcePrefix: modulePath + "/internal/middleware",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/db",
			modulePath + "/internal/declarative",
			modulePath + "/internal/engine",
			modulePath + "/internal/service",
			modulePath + "/internal/sink",
			modulePath + "/cmd",
			modulePath + "/pkg/cli",
		},
		hint: "middleware should depend on config, domain, and middleware-local packages",
	},
	{
		sourcePrefix: modulePath + "/internal/declarative",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/db",
			modulePath + "/internal/engine",
			modulePath + "/internal/middleware",
			modulePath + "/internal/service",
			modulePath + "/internal/sink",
			modulePath + "/cmd",
			modulePath + "/pkg/cli",
		},
		hint: "declarative is shared by server and CLI and must stay side-effect free",
	},
	{
		sourcePrefix: modulePath + "/pkg/cli",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/db",
			modulePath + "/internal/middleware",
			modulePath + "/internal/sink",
		},
		hint: "the CLI reaches the server over HTTP; local generation goes through app wiring",
	},
}

func collectGoFiles(root string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func repoRootDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func internalRootDir() string {
	return filepath.Join(repoRootDir(), "internal")
}

func findRule(sourcePkg string) (layerRule, bool) {
	for _, rule := range architectureRules {
		if hasPathPrefix(sourcePkg, rule.sourcePrefix) {
			return rule, true
		}
	}
	return layerRule{}, false
}

func matchingForbiddenPrefix(importPath string, forbidden []string) string {
	for _, prefix := range forbidden {
		if hasPathPrefix(importPath, prefix) {
			return prefix
		}
	}
	return ""
}

func hasPathPrefix(value string, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}

// packageImportPath maps a file path back to its import path. Files are
// collected from absolute roots, so anchor on the module's directory markers.
func packageImportPath(file string) string {
	path := filepath.ToSlash(file)
	for _, marker := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if idx := strings.Index(path, marker); idx >= 0 {
			return modulePath + path[idx:len(path)-len("/"+filepath.Base(path))]
		}
	}
	return modulePath
}

func shouldSkipGeneratedFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".gen.go") || strings.HasSuffix(base, "_gen.go") || strings.HasSuffix(base, ".sql.go")
}

func isTestFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "_test.go")
}

func shouldSkipProductionGovernanceFile(path string) bool {
	return isTestFile(path) || shouldSkipGeneratedFile(path)
}

func parseImports(t *testing.T, file string) []string {
	t.Helper()

	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
	require.NoErrorf(t, err, "parse imports for %s", file)

	imports := make([]string, 0, len(parsed.Imports))
	for _, imp := range parsed.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, "\""))
	}
	return imports
}

func relToRepoRoot(path string) string {
	rel, err := filepath.Rel(repoRootDir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
