//go:build !cgo

// Package structural is the local, deterministic syntax-tree linter.
// This is a stub for non-CGO builds: tree-sitter grammars need cgo.
package structural

import (
	"errors"

	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

// ErrNoCGO is returned when structural analysis is unavailable.
var ErrNoCGO = errors.New("structural analysis requires CGO (tree-sitter)")

// DefaultComplexityThreshold flags functions above this cyclomatic count.
const DefaultComplexityThreshold = 10

// Analyzer implements analysis.StructuralScanner.
// Stub implementation for non-CGO builds.
type Analyzer struct {
	ComplexityThreshold int
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{ComplexityThreshold: DefaultComplexityThreshold}
}

// Scan reports every file as a parse gap when CGO is disabled.
func (a *Analyzer) Scan(file analysis.SourceFile) ([]analysis.Finding, error) {
	return nil, &analysis.ParseError{Path: file.Path, Err: ErrNoCGO}
}

// IsAvailable reports whether structural analysis is compiled in.
func IsAvailable() bool { return false }
