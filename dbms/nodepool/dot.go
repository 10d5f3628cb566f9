package nodepool

import (
	"fmt"
	"io"
)

// ExportDOT renders the DAG reachable from root as Graphviz dot, one
// node per distinct stored address (so shared subtrees show as nodes
// with multiple inbound edges — the whole point of hash-consing).
// Adapted from the teacher's dbms/index/shared.Tree.ExportDOT, which
// walked a B-tree's page graph the same way; here the graph is a DAG
// rather than a tree, so visited addresses are memoized instead of
// merely named once.
func (p *Pool) ExportDOT(w io.Writer, root Pointer) error {
	fmt.Fprintln(w, "digraph NodePool {")
	fmt.Fprintln(w, "  node [shape=box, fontname=\"Helvetica\", fontsize=10];")

	seen := make(map[Pointer]string)
	counter := 0

	var walk func(level int, ptr Pointer) string
	walk = func(level int, ptr Pointer) string {
		if name, ok := seen[ptr]; ok {
			return name
		}
		name := fmt.Sprintf("n%d", counter)
		counter++
		seen[ptr] = name

		switch ptr {
		case Null:
			fmt.Fprintf(w, "  %s [label=\"Null\", style=dashed];\n", name)
			return name
		case Filled:
			fmt.Fprintf(w, "  %s [label=\"Filled\", style=filled, fillcolor=\"#D5E8D4\"];\n", name)
			return name
		}

		if level == p.cfg.LeafLevel() {
			words := p.Words(level, ptr)
			fmt.Fprintf(w, "  %s [label=\"leaf@%d\\n%08x%08x\"];\n", name, ptr, words[0], words[1])
			return name
		}

		words := p.Words(level, ptr)
		mask := childMask(words[0])
		fmt.Fprintf(w, "  %s [label=\"inner@%d\\nmask=%08b\"];\n", name, ptr, mask)
		for i := 0; i < 8; i++ {
			c := ChildAt(words, i)
			childName := walk(level+1, c)
			fmt.Fprintf(w, "  %s -> %s [label=\"%d\"];\n", name, childName, i)
		}
		return name
	}

	walk(0, root)
	fmt.Fprintln(w, "}")
	return nil
}
