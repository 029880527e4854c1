package ir

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every problem found in a program.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid program (%d problems):\n  %s",
		len(e.Problems), strings.Join(e.Problems, "\n  "))
}

func (e *ValidationError) addf(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks the structural well-formedness the analysis relies on:
//   - the main procedure exists,
//   - every procedure is non-empty and ends with its only terminator,
//   - every node is bound exactly once and before it is read.
func (prog *Program) Validate() error {
	verr := &ValidationError{}

	if _, ok := prog.Procs[prog.Main]; !ok {
		verr.addf("main procedure %s is not declared", prog.Main)
	}

	for _, pid := range prog.SortedProcs() {
		proc := prog.Procs[pid]
		if proc == nil || len(proc.Stmts) == 0 {
			verr.addf("proc %s: empty body", pid)
			continue
		}

		bound := make(map[Node]bool)
		for i, s := range proc.Stmts {
			for _, n := range Uses(s) {
				if !bound[n] {
					verr.addf("proc %s, statement %d: %s is read before it is bound", pid, i, n)
				}
			}

			if let, ok := s.(Let); ok {
				if bound[let.Node] {
					verr.addf("proc %s, statement %d: %s is bound twice", pid, i, let.Node)
				}
				bound[let.Node] = true
				if let.Expr == nil {
					verr.addf("proc %s, statement %d: let without expression", pid, i)
				}
			}

			last := i == len(proc.Stmts)-1
			switch {
			case IsTerminator(s) && !last:
				verr.addf("proc %s, statement %d: terminator in the middle of the body", pid, i)
			case !IsTerminator(s) && last:
				verr.addf("proc %s: body does not end with a terminator", pid)
			}
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}
