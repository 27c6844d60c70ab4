//go:build cgo

// Package structural is the local, deterministic syntax-tree linter. It never
// makes a network call; every finding is derived from the parse tree alone.
package structural

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

// DefaultComplexityThreshold flags functions above this cyclomatic count.
const DefaultComplexityThreshold = 10

var secretNamePattern = regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token|api_?key|access_?key|private_?key|credential)`)

// Analyzer implements analysis.StructuralScanner via tree-sitter.
type Analyzer struct {
	mu                  sync.Mutex
	parser              *sitter.Parser
	ComplexityThreshold int
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		parser:              sitter.NewParser(),
		ComplexityThreshold: DefaultComplexityThreshold,
	}
}

// Scan parses the file and emits findings for excess complexity, swallowed
// broad exceptions, constant conditionals and credential-looking literals.
// Running it twice on the same content yields identical findings.
func (a *Analyzer) Scan(file analysis.SourceFile) ([]analysis.Finding, error) {
	if file.Language == analysis.LangOther {
		return nil, nil
	}
	grammar, err := grammarFor(file.Language)
	if err != nil {
		return nil, nil
	}

	source := []byte(file.Content)

	// the underlying parser is not safe for concurrent use
	a.mu.Lock()
	a.parser.SetLanguage(grammar)
	tree, err := a.parser.ParseCtx(context.Background(), nil, source)
	a.mu.Unlock()
	if err != nil {
		return nil, &analysis.ParseError{Path: file.Path, Err: err}
	}
	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, &analysis.ParseError{
			Path: file.Path,
			Err:  fmt.Errorf("syntax errors for declared language %s", file.Language),
		}
	}

	var findings []analysis.Finding
	findings = append(findings, a.checkComplexity(root, source, file)...)
	findings = append(findings, checkBroadCatches(root, source, file)...)
	findings = append(findings, checkConstantConditions(root, source, file)...)
	findings = append(findings, checkSecretLiterals(root, source, file)...)
	return findings, nil
}

// checkComplexity flags functions whose cyclomatic branch count exceeds the
// threshold. Cyclomatic = decision points + 1.
func (a *Analyzer) checkComplexity(root *sitter.Node, source []byte, file analysis.SourceFile) []analysis.Finding {
	threshold := a.ComplexityThreshold
	if threshold <= 0 {
		threshold = DefaultComplexityThreshold
	}

	var findings []analysis.Finding
	for _, fn := range findNodes(root, functionNodeTypes(file.Language)) {
		complexity := 1
		for _, dn := range findNodes(fn, decisionNodeTypes(file.Language)) {
			if dn.Type() == "binary_expression" || dn.Type() == "boolean_operator" {
				if isBooleanOperator(dn, source) {
					complexity++
				}
				continue
			}
			complexity++
		}
		if complexity <= threshold {
			continue
		}
		findings = append(findings, analysis.Finding{
			Category:  analysis.CategoryQuality,
			FilePath:  file.Path,
			LineStart: int(fn.StartPoint().Row) + 1,
			LineEnd:   int(fn.EndPoint().Row) + 1,
			Severity:  analysis.SeverityMedium,
			Description: fmt.Sprintf("function %q has cyclomatic complexity %d (threshold %d)",
				functionName(fn, source), complexity, threshold),
			SuggestedFix: "split the function into smaller units with fewer branches",
			Source:       "structural",
		})
	}
	return findings
}

// checkBroadCatches flags handlers that catch a broad exception class and do
// nothing corrective: an empty body, or one that only logs/prints.
func checkBroadCatches(root *sitter.Node, source []byte, file analysis.SourceFile) []analysis.Finding {
	var findings []analysis.Finding
	for _, catch := range findNodes(root, catchNodeTypes(file.Language)) {
		if !catchesBroadly(catch, source, file.Language) {
			continue
		}
		if !bodySuppresses(catch, source) {
			continue
		}
		findings = append(findings, analysis.Finding{
			Category:     analysis.CategoryQuality,
			FilePath:     file.Path,
			LineStart:    int(catch.StartPoint().Row) + 1,
			LineEnd:      int(catch.EndPoint().Row) + 1,
			Severity:     analysis.SeverityMedium,
			Description:  "broad exception handler swallows errors without corrective action",
			SuggestedFix: "catch the specific exception type and handle or re-raise it",
			Source:       "structural",
		})
	}
	return findings
}

func catchesBroadly(catch *sitter.Node, source []byte, lang analysis.Language) bool {
	switch lang {
	case analysis.LangPython:
		// bare `except:` or `except Exception`/`except BaseException`
		typed := false
		for i := 0; i < int(catch.NamedChildCount()); i++ {
			child := catch.NamedChild(i)
			if child.Type() == "block" {
				continue
			}
			typed = true
			text := nodeText(child, source)
			if strings.Contains(text, "Exception") || strings.Contains(text, "BaseException") {
				return true
			}
		}
		return !typed
	case analysis.LangJava:
		param := firstChildOfType(catch, "catch_formal_parameter")
		if param == nil {
			return false
		}
		text := nodeText(param, source)
		return strings.Contains(text, "Exception ") || strings.Contains(text, "Throwable ")
	default:
		// javascript/typescript catch clauses are untyped, always broad
		return true
	}
}

// bodySuppresses reports whether the handler body is empty, a bare pass, or
// consists only of logging/printing statements.
func bodySuppresses(catch *sitter.Node, source []byte) bool {
	body := firstChildOfType(catch, "block")
	if body == nil {
		body = firstChildOfType(catch, "statement_block")
	}
	if body == nil {
		return true
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		switch stmt.Type() {
		case "pass_statement", "comment":
			continue
		case "expression_statement":
			text := strings.ToLower(nodeText(stmt, source))
			if strings.Contains(text, "log") || strings.Contains(text, "print") || strings.Contains(text, "console.") {
				continue
			}
			return false
		default:
			return false
		}
	}
	return true
}

// checkConstantConditions flags conditionals guarded by a literal constant;
// one of the branches can structurally never execute.
func checkConstantConditions(root *sitter.Node, source []byte, file analysis.SourceFile) []analysis.Finding {
	var findings []analysis.Finding
	for _, ifNode := range findNodes(root, []string{"if_statement"}) {
		cond := ifNode.ChildByFieldName("condition")
		if cond == nil {
			continue
		}
		text := strings.TrimSpace(nodeText(cond, source))
		text = strings.TrimPrefix(text, "(")
		text = strings.TrimSuffix(text, ")")
		text = strings.TrimSpace(text)
		switch text {
		case "true", "True", "false", "False", "0", "1":
		default:
			continue
		}
		findings = append(findings, analysis.Finding{
			Category:     analysis.CategoryQuality,
			FilePath:     file.Path,
			LineStart:    int(ifNode.StartPoint().Row) + 1,
			LineEnd:      int(ifNode.StartPoint().Row) + 1,
			Severity:     analysis.SeverityLow,
			Description:  fmt.Sprintf("conditional on constant literal %q makes a branch unreachable", text),
			SuggestedFix: "remove the dead branch or replace the literal with a real condition",
			Source:       "structural",
		})
	}
	return findings
}

// checkSecretLiterals flags string literals assigned to names that look like
// credentials.
func checkSecretLiterals(root *sitter.Node, source []byte, file analysis.SourceFile) []analysis.Finding {
	var findings []analysis.Finding
	for _, assign := range findNodes(root, assignmentNodeTypes(file.Language)) {
		name, value := assignmentParts(assign)
		if name == nil || value == nil {
			continue
		}
		if !secretNamePattern.MatchString(nodeText(name, source)) {
			continue
		}
		if !isStringLiteral(value) {
			continue
		}
		literal := strings.Trim(nodeText(value, source), "\"'`")
		if len(literal) < 6 || strings.HasPrefix(literal, "${") || strings.HasPrefix(literal, "<") {
			continue
		}
		findings = append(findings, analysis.Finding{
			Category:     analysis.CategorySecurity,
			FilePath:     file.Path,
			LineStart:    int(assign.StartPoint().Row) + 1,
			LineEnd:      int(assign.StartPoint().Row) + 1,
			Severity:     analysis.SeverityHigh,
			Description:  fmt.Sprintf("hard-coded credential assigned to %q", nodeText(name, source)),
			SuggestedFix: "load the value from environment configuration or a secret manager and rotate it",
			Source:       "structural",
		})
	}
	return findings
}

func assignmentParts(assign *sitter.Node) (name, value *sitter.Node) {
	name = assign.ChildByFieldName("left")
	if name == nil {
		name = assign.ChildByFieldName("name")
	}
	value = assign.ChildByFieldName("right")
	if value == nil {
		value = assign.ChildByFieldName("value")
	}
	return name, value
}

func isStringLiteral(node *sitter.Node) bool {
	switch node.Type() {
	case "string", "string_literal", "template_string":
		return true
	}
	return false
}

func functionName(fn *sitter.Node, source []byte) string {
	if name := fn.ChildByFieldName("name"); name != nil {
		return nodeText(name, source)
	}
	return "<anonymous>"
}

func firstChildOfType(node *sitter.Node, t string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == t {
			return child
		}
	}
	return nil
}

// IsAvailable reports whether structural analysis is compiled in.
func IsAvailable() bool { return true }
