package ir

import (
	"fmt"
	"sort"
	"strings"
)

func (n Node) String() string {
	return fmt.Sprintf("%%%d", uint32(n))
}

// SortedProcs returns the procedure ids of the program, main first and the
// rest ordered by name.
func (prog *Program) SortedProcs() []ProcId {
	pids := make([]ProcId, 0, len(prog.Procs))
	for pid := range prog.Procs {
		if pid != prog.Main {
			pids = append(pids, pid)
		}
	}
	sort.Slice(pids, func(i, j int) bool {
		return pids[i].String() < pids[j].String()
	})
	if _, ok := prog.Procs[prog.Main]; ok {
		pids = append([]ProcId{prog.Main}, pids...)
	}
	return pids
}

func (prog *Program) String() string {
	buf := new(strings.Builder)
	for _, pid := range prog.SortedProcs() {
		prog.writeProc(buf, pid)
	}
	return buf.String()
}

// ProcString renders a single procedure.
func (prog *Program) ProcString(pid ProcId) string {
	buf := new(strings.Builder)
	prog.writeProc(buf, pid)
	return buf.String()
}

func (prog *Program) writeProc(buf *strings.Builder, pid ProcId) {
	if pid == prog.Main {
		buf.WriteString("main ")
	}
	fmt.Fprintf(buf, "proc %s {\n", pid)

	// Invisible lets are substituted into their uses.
	inlined := make(map[Node]string)
	node := func(n Node) string {
		if s, ok := inlined[n]; ok {
			return s
		}
		return n.String()
	}

	for _, s := range prog.Procs[pid].Stmts {
		switch s := s.(type) {
		case Let:
			e := exprString(s.Expr, node)
			if s.Visible {
				fmt.Fprintf(buf, "    let %s = %s;\n", s.Node, e)
			} else {
				inlined[s.Node] = e
			}
		case Store:
			fmt.Fprintf(buf, "    %s[%s] <- %s;\n", node(s.Table), node(s.Key), node(s.Value))
		case Print:
			fmt.Fprintf(buf, "    print %s;\n", node(s.Value))
		case Jmp:
			fmt.Fprintf(buf, "    jmp %s;\n", node(s.Target))
		case Panic:
			fmt.Fprintf(buf, "    panic %s;\n", node(s.Value))
		case Fail:
			buf.WriteString("    fail;\n")
		case Exit:
			buf.WriteString("    exit;\n")
		}
	}
	buf.WriteString("}\n\n")
}

func exprString(e Expr, node func(Node) string) string {
	switch e := e.(type) {
	case Index:
		return fmt.Sprintf("%s[%s]", node(e.Table), node(e.Key))
	case Root:
		return "@"
	case NewTable:
		return "{}"
	case BinOp:
		return fmt.Sprintf("%s %s %s", node(e.Left), e.Op, node(e.Right))
	case Input:
		return "input"
	case Sym:
		return "$" + e.Value.String()
	case Int:
		return fmt.Sprint(e.Value)
	case Str:
		return fmt.Sprintf("%q", e.Value)
	}
	panic(fmt.Errorf("unknown expression %T", e))
}
