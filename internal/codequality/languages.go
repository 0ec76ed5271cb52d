package codequality

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
)

// grammar describes how to read complexity out of one tree-sitter grammar
type grammar struct {
	language *sitter.Language
	// nodes reported as functions, each with its own complexity
	functions map[string]bool
	// nodes adding one decision point
	decisions map[string]bool
	// leaf nodes counted as Halstead operands
	operands      map[string]bool
	commentPrefix string
	// logicalOperator reports whether n is a short-circuit boolean operation
	logicalOperator func(n *sitter.Node) bool
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

var grammars = map[string]*grammar{
	"Python": {
		language:  python.GetLanguage(),
		functions: set("function_definition"),
		decisions: set(
			"if_statement", "elif_clause", "for_statement", "while_statement",
			"except_clause", "conditional_expression", "for_in_clause", "if_clause", "case_clause",
		),
		operands:      set("identifier", "integer", "float", "string", "true", "false", "none"),
		commentPrefix: "#",
		logicalOperator: func(n *sitter.Node) bool {
			return n.Type() == "boolean_operator"
		},
	},
	"Go": {
		language:  golang.GetLanguage(),
		functions: set("function_declaration", "method_declaration"),
		decisions: set(
			"if_statement", "for_statement", "expression_case", "type_case", "communication_case",
		),
		operands: set(
			"identifier", "field_identifier", "type_identifier", "package_identifier",
			"int_literal", "float_literal", "imaginary_literal", "rune_literal",
			"interpreted_string_literal", "raw_string_literal", "true", "false", "nil", "iota",
		),
		commentPrefix: "//",
		logicalOperator: func(n *sitter.Node) bool {
			if n.Type() != "binary_expression" {
				return false
			}
			op := n.ChildByFieldName("operator")
			return op != nil && (op.Type() == "&&" || op.Type() == "||")
		},
	},
}

// Supported reports whether complexity analysis is available for language
func Supported(language string) bool {
	_, ok := grammars[language]
	return ok
}
