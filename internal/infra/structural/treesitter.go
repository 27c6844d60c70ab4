//go:build cgo

package structural

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

// grammarFor returns the tree-sitter grammar for a supported language.
func grammarFor(lang analysis.Language) (*sitter.Language, error) {
	switch lang {
	case analysis.LangPython:
		return python.GetLanguage(), nil
	case analysis.LangJava:
		return java.GetLanguage(), nil
	case analysis.LangJavaScript:
		return javascript.GetLanguage(), nil
	case analysis.LangTypeScript:
		return typescript.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// functionNodeTypes are the node types that represent function-like units.
func functionNodeTypes(lang analysis.Language) []string {
	switch lang {
	case analysis.LangPython:
		return []string{"function_definition"}
	case analysis.LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	case analysis.LangJavaScript, analysis.LangTypeScript:
		return []string{"function_declaration", "function_expression", "arrow_function", "method_definition"}
	default:
		return nil
	}
}

// decisionNodeTypes contribute to the cyclomatic branch count.
func decisionNodeTypes(lang analysis.Language) []string {
	switch lang {
	case analysis.LangPython:
		return []string{
			"if_statement",
			"elif_clause",
			"for_statement",
			"while_statement",
			"except_clause",
			"boolean_operator",
			"conditional_expression",
			"list_comprehension",
			"dictionary_comprehension",
			"set_comprehension",
			"generator_expression",
		}
	case analysis.LangJava:
		return []string{
			"if_statement",
			"for_statement",
			"enhanced_for_statement",
			"while_statement",
			"do_statement",
			"switch_block_statement_group",
			"catch_clause",
			"ternary_expression",
			"binary_expression",
		}
	case analysis.LangJavaScript, analysis.LangTypeScript:
		return []string{
			"if_statement",
			"for_statement",
			"for_in_statement",
			"while_statement",
			"do_statement",
			"switch_case",
			"catch_clause",
			"ternary_expression",
			"binary_expression",
		}
	default:
		return nil
	}
}

// catchNodeTypes are exception-handler nodes per language.
func catchNodeTypes(lang analysis.Language) []string {
	switch lang {
	case analysis.LangPython:
		return []string{"except_clause"}
	case analysis.LangJava, analysis.LangJavaScript, analysis.LangTypeScript:
		return []string{"catch_clause"}
	default:
		return nil
	}
}

// assignmentNodeTypes are nodes that bind a name to a value.
func assignmentNodeTypes(lang analysis.Language) []string {
	switch lang {
	case analysis.LangPython:
		return []string{"assignment"}
	case analysis.LangJava:
		return []string{"variable_declarator", "assignment_expression"}
	case analysis.LangJavaScript, analysis.LangTypeScript:
		return []string{"variable_declarator", "assignment_expression"}
	default:
		return nil
	}
}

// isBooleanOperator reports whether a binary expression is && or ||, the only
// binary forms that add a branch.
func isBooleanOperator(node *sitter.Node, source []byte) bool {
	if node.Type() == "boolean_operator" {
		return true
	}
	text := nodeText(node, source)
	// cheap scan; the operator appears at the top level of the expression
	for i := 0; i+1 < len(text); i++ {
		if (text[i] == '&' && text[i+1] == '&') || (text[i] == '|' && text[i+1] == '|') {
			return true
		}
	}
	return false
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// findNodes collects all descendants (including root) of the given types,
// in tree order so repeated scans of the same file are deterministic.
func findNodes(root *sitter.Node, types []string) []*sitter.Node {
	var result []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if containsType(types, node.Type()) {
			result = append(result, node)
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return result
}

func containsType(types []string, t string) bool {
	for _, s := range types {
		if s == t {
			return true
		}
	}
	return false
}
