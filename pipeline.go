package main

import (
	"fmt"
	"log"

	ai "github.com/cs-au-dk/tabsafe/analysis/absint"
	"github.com/cs-au-dk/tabsafe/analysis/ir"
)

// pipeline is a wrapper around the analysis pipeline.
type pipeline struct {
	path string
	prog *ir.Program
}

// load reads and validates the program document.
func (p *pipeline) load() error {
	log.Println("Loading", p.path)
	prog, err := ir.LoadFile(p.path)
	if err != nil {
		return err
	}
	p.prog = prog
	log.Printf("Loaded %d procedures\n", len(prog.Procs))

	if opts.PrintIR() {
		fmt.Print(prog)
	}
	return nil
}

// analyze runs the fixpoint computation. Internal errors raised by the
// analysis are reported as errors, and recorded in the metrics.
func (p *pipeline) analyze(cfg ai.Config) (a *ai.Analysis, err error) {
	a = ai.New(p.prog, cfg)

	defer func() {
		if r := recover(); r != nil {
			a.Metrics().Panic(r)
			err = fmt.Errorf("analysis aborted: %v", r)
		}
	}()

	log.Println("Running abstract interpretation...")
	a.Run()
	log.Println("Abstract interpretation done")
	return a, nil
}
