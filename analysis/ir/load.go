package ir

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cs-au-dk/tabsafe/analysis/symbol"

	"gopkg.in/yaml.v3"
)

// Document layout:
//
//	main: Main
//	procs:
//	  Main:
//	    - let: 0
//	      new: true
//	    - let: 1
//	      str: x
//	    - store: [0, 1, 1]
//	    - jmp: 1
//
// Every statement sets exactly one of let, store, print, jmp, panic, fail or exit.
// A let sets exactly one expression field, and may be marked hidden.
type (
	yamlProgram struct {
		Main  string                `yaml:"main"`
		Procs map[string][]yamlStmt `yaml:"procs"`
	}

	yamlStmt struct {
		Let    *Node `yaml:"let"`
		Hidden bool  `yaml:"hidden"`

		Root  bool       `yaml:"root"`
		New   bool       `yaml:"new"`
		Input bool       `yaml:"input"`
		Index []Node     `yaml:"index"`
		BinOp *yamlBinOp `yaml:"binop"`
		Sym   *string    `yaml:"sym"`
		Int   *int64     `yaml:"int"`
		Str   *string    `yaml:"str"`

		Store []Node `yaml:"store"`
		Print *Node  `yaml:"print"`
		Jmp   *Node  `yaml:"jmp"`
		Panic *Node  `yaml:"panic"`
		Fail  bool   `yaml:"fail"`
		Exit  bool   `yaml:"exit"`
	}

	yamlBinOp struct {
		Op    string `yaml:"op"`
		Left  Node   `yaml:"l"`
		Right Node   `yaml:"r"`
	}
)

// LoadFile reads and validates a YAML program document.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	prog, err := LoadYAML(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// LoadYAML decodes and validates a YAML program document.
func LoadYAML(r io.Reader) (*Program, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc yamlProgram
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	if doc.Main == "" {
		return nil, fmt.Errorf("decoding program: missing main")
	}

	prog := &Program{
		Procs: make(map[ProcId]*Procedure, len(doc.Procs)),
		Main:  symbol.New(doc.Main),
	}
	for name, stmts := range doc.Procs {
		proc := &Procedure{Stmts: make([]Statement, 0, len(stmts))}
		for i, ys := range stmts {
			s, err := ys.convert()
			if err != nil {
				return nil, fmt.Errorf("proc %s, statement %d: %w", name, i, err)
			}
			proc.Stmts = append(proc.Stmts, s)
		}
		prog.Procs[symbol.New(name)] = proc
	}

	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return prog, nil
}

func (ys yamlStmt) convert() (Statement, error) {
	var (
		stmts []Statement
		exprs []Expr
	)

	if ys.Root {
		exprs = append(exprs, Root{})
	}
	if ys.New {
		exprs = append(exprs, NewTable{})
	}
	if ys.Input {
		exprs = append(exprs, Input{})
	}
	if ys.Index != nil {
		if len(ys.Index) != 2 {
			return nil, fmt.Errorf("index expects [table, key], got %v", ys.Index)
		}
		exprs = append(exprs, Index{Table: ys.Index[0], Key: ys.Index[1]})
	}
	if ys.BinOp != nil {
		op, err := ParseBinOp(ys.BinOp.Op)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, BinOp{Op: op, Left: ys.BinOp.Left, Right: ys.BinOp.Right})
	}
	if ys.Sym != nil {
		exprs = append(exprs, Sym{Value: symbol.New(*ys.Sym)})
	}
	if ys.Int != nil {
		exprs = append(exprs, Int{Value: *ys.Int})
	}
	if ys.Str != nil {
		exprs = append(exprs, Str{Value: *ys.Str})
	}

	if ys.Let != nil {
		if len(exprs) != 1 {
			return nil, fmt.Errorf("let %s expects exactly one expression, got %d", *ys.Let, len(exprs))
		}
		stmts = append(stmts, Let{Node: *ys.Let, Expr: exprs[0], Visible: !ys.Hidden})
	} else if len(exprs) > 0 || ys.Hidden {
		return nil, fmt.Errorf("expression fields outside of a let")
	}

	if ys.Store != nil {
		if len(ys.Store) != 3 {
			return nil, fmt.Errorf("store expects [table, key, value], got %v", ys.Store)
		}
		stmts = append(stmts, Store{Table: ys.Store[0], Key: ys.Store[1], Value: ys.Store[2]})
	}
	if ys.Print != nil {
		stmts = append(stmts, Print{Value: *ys.Print})
	}
	if ys.Jmp != nil {
		stmts = append(stmts, Jmp{Target: *ys.Jmp})
	}
	if ys.Panic != nil {
		stmts = append(stmts, Panic{Value: *ys.Panic})
	}
	if ys.Fail {
		stmts = append(stmts, Fail{})
	}
	if ys.Exit {
		stmts = append(stmts, Exit{})
	}

	if len(stmts) != 1 {
		return nil, fmt.Errorf("expected exactly one statement kind, got %d", len(stmts))
	}
	return stmts[0], nil
}
