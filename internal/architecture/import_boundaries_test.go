package architecture_test

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportBoundaries(t *testing.T) {
	roots := []string{internalRootDir(), filepath.Join(repoRootDir(), "pkg", "cli")}

	violations := make([]string, 0)
	for _, root := range roots {
		files, err := collectGoFiles(root)
		require.NoError(t, err)

		for _, file := range files {
			if shouldSkipProductionGovernanceFile(file) {
				continue
			}

			sourcePkg := packageImportPath(file)
			rule, ok := findRule(sourcePkg)
			if !ok {
				continue
			}

			for _, importPath := range parseImports(t, file) {
				if !strings.HasPrefix(importPath, modulePath+"/") {
					continue
				}
				if prefix := matchingForbiddenPrefix(importPath, rule.forbidden); prefix != "" {
					violations = append(violations,
						sourcePkg+" imports "+importPath+" via "+relToRepoRoot(file)+"; allowed direction: "+rule.hint)
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("%s", strings.Join(violations, "\n"))
	}
}

// Rule prefixes must name directories that exist; otherwise a rename would
// silently retire a rule instead of failing it.
func TestImportBoundaryRulesCoverRealPackages(t *testing.T) {
	for _, rule := range architectureRules {
		rel := strings.TrimPrefix(rule.sourcePrefix, modulePath+"/")
		dir := filepath.Join(repoRootDir(), filepath.FromSlash(rel))
		require.DirExistsf(t, dir, "layer rule points at missing package %s", rel)
	}
}
