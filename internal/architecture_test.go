package internal_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestEngineImportRestrictions keeps the session engine on the raw side of
// the pipeline: it may use the stream-cleaning and transport packages but
// never the classifier or anything above it.
func TestEngineImportRestrictions(t *testing.T) {
	allowedPrefixes := []string{
		"oltd/internal/ansi",
		"oltd/internal/telnet",
		"oltd/internal/prompt",
		"oltd/internal/transport",
	}

	forbiddenPrefixes := []string{
		"oltd/internal/classify", // the engine resolves raw text only
		"oltd/internal/server",
		"oltd/internal/registry",
		"oltd/internal/history",
		"oltd/internal/config",
	}

	checkImports(t, "./session", allowedPrefixes, forbiddenPrefixes)
}

// TestClassifierImportRestrictions keeps the classifier a pure text stage:
// it never reaches into the engine, the transport or the HTTP layer.
func TestClassifierImportRestrictions(t *testing.T) {
	allowedPrefixes := []string{
		"oltd/internal/log",
	}

	forbiddenPrefixes := []string{
		"oltd/internal/session",
		"oltd/internal/transport",
		"oltd/internal/server",
		"oltd/internal/registry",
	}

	checkImports(t, "./classify", allowedPrefixes, forbiddenPrefixes)
}

// TestStreamPackagesAreLeaves ensures the byte-level cleaning packages stay
// dependency-free so they can be reasoned about in isolation.
func TestStreamPackagesAreLeaves(t *testing.T) {
	for _, dir := range []string{"./ansi", "./telnet", "./prompt"} {
		checkImports(t, dir, nil, []string{"oltd/internal"})
	}
}

func checkImports(t *testing.T, packageDir string, allowedPrefixes, forbiddenPrefixes []string) {
	err := filepath.Walk(packageDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fset := token.NewFileSet()
		node, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			return nil
		}

		for _, imp := range node.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)

			// Only module-internal imports are subject to the boundaries
			if !strings.Contains(importPath, "oltd/internal") {
				continue
			}

			for _, forbidden := range forbiddenPrefixes {
				if strings.HasPrefix(importPath, forbidden) {
					t.Errorf("FORBIDDEN import in %s: %s", path, importPath)
				}
			}

			if len(allowedPrefixes) > 0 {
				allowed := false
				for _, prefix := range allowedPrefixes {
					if strings.HasPrefix(importPath, prefix) {
						allowed = true
						break
					}
				}
				if !allowed {
					t.Errorf("DISALLOWED import in %s: %s (not in allowed list)", path, importPath)
				}
			}
		}

		return nil
	})

	if err != nil {
		t.Errorf("Failed to walk directory %s: %v", packageDir, err)
	}
}
