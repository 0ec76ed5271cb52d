package codequality

import (
	"bytes"
	"context"
	"fmt"
	"math"

	sitter "github.com/smacker/go-tree-sitter"
)

// HighComplexityThreshold is the complexity above which a function counts as high-complexity
const HighComplexityThreshold = 10

// FunctionComplexity is the cyclomatic complexity of one function or method
type FunctionComplexity struct {
	Name       string `json:"name"`
	Line       int    `json:"line"`
	Complexity int    `json:"complexity"`
}

// FileMetrics holds the per-file measurements used by the maintainability index
type FileMetrics struct {
	Functions            []FunctionComplexity
	SLOC                 int
	CommentLines         int
	HalsteadVolume       float64
	MaintainabilityIndex float64
}

// TotalComplexity sums the complexity of every function in the file
func (m *FileMetrics) TotalComplexity() int {
	total := 0
	for _, f := range m.Functions {
		total += f.Complexity
	}
	return total
}

// MaxComplexity returns the highest function complexity, 0 without functions
func (m *FileMetrics) MaxComplexity() int {
	highest := 0
	for _, f := range m.Functions {
		if f.Complexity > highest {
			highest = f.Complexity
		}
	}
	return highest
}

// AnalyzeSource parses src as language and measures it. A parser is created per
// call because tree-sitter parsers are not safe for concurrent use.
func AnalyzeSource(ctx context.Context, language string, src []byte) (*FileMetrics, error) {
	g, ok := grammars[language]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", language)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.language)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	metrics := &FileMetrics{}
	collectFunctions(root, src, g, &metrics.Functions)

	h := halstead{operators: map[string]int{}, operands: map[string]int{}}
	h.walk(root, src, g)
	metrics.HalsteadVolume = h.volume()

	metrics.CommentLines = countComments(root)
	metrics.SLOC = countSLOC(src, g.commentPrefix)
	metrics.MaintainabilityIndex = maintainabilityIndex(
		metrics.HalsteadVolume, metrics.TotalComplexity(), metrics.SLOC, metrics.CommentLines,
	)
	return metrics, nil
}

func collectFunctions(n *sitter.Node, src []byte, g *grammar, out *[]FunctionComplexity) {
	if g.functions[n.Type()] {
		name := "<anonymous>"
		if id := n.ChildByFieldName("name"); id != nil {
			name = id.Content(src)
		}
		*out = append(*out, FunctionComplexity{
			Name:       name,
			Line:       int(n.StartPoint().Row) + 1,
			Complexity: 1 + decisionPoints(n, g, true),
		})
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collectFunctions(n.Child(i), src, g, out)
	}
}

// decisionPoints counts branches below n without entering nested functions
func decisionPoints(n *sitter.Node, g *grammar, root bool) int {
	if !root && g.functions[n.Type()] {
		return 0
	}
	count := 0
	if g.decisions[n.Type()] || g.logicalOperator(n) {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += decisionPoints(n.Child(i), g, false)
	}
	return count
}

type halstead struct {
	operators      map[string]int
	operands       map[string]int
	totalOperators int
	totalOperands  int
}

func (h *halstead) walk(n *sitter.Node, src []byte, g *grammar) {
	switch {
	case g.operands[n.Type()]:
		h.operands[n.Content(src)]++
		h.totalOperands++
		return
	case n.Type() == "comment":
		return
	case n.ChildCount() == 0 && !n.IsNamed():
		h.operators[n.Type()]++
		h.totalOperators++
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		h.walk(n.Child(i), src, g)
	}
}

// volume is N * log2(n) over operators and operands
func (h *halstead) volume() float64 {
	vocabulary := len(h.operators) + len(h.operands)
	length := h.totalOperators + h.totalOperands
	if vocabulary < 2 {
		return 0
	}
	return float64(length) * math.Log2(float64(vocabulary))
}

func countComments(n *sitter.Node) int {
	if n.Type() == "comment" {
		return int(n.EndPoint().Row-n.StartPoint().Row) + 1
	}
	total := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		total += countComments(n.Child(i))
	}
	return total
}

// countSLOC counts non-blank lines that are not comment-only
func countSLOC(src []byte, commentPrefix string) int {
	sloc := 0
	for _, line := range bytes.Split(src, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || bytes.HasPrefix(line, []byte(commentPrefix)) {
			continue
		}
		sloc++
	}
	return sloc
}

// maintainabilityIndex uses the SEI formula rescaled to 0-100, with the comment
// term weighted by the share of comment lines.
func maintainabilityIndex(volume float64, complexity, sloc, comments int) float64 {
	if volume <= 0 || sloc <= 0 {
		return 100
	}
	commentPercent := float64(comments) / float64(sloc) * 100
	raw := 171 -
		5.2*math.Log(volume) -
		0.23*float64(complexity) -
		16.2*math.Log(float64(sloc)) +
		50*math.Sin(math.Sqrt(2.46*commentPercent*math.Pi/180))
	return math.Min(math.Max(0, raw*100/171), 100)
}
