package utils

import (
	"flag"
	"log"
)

// MakePath returns the IR document to analyze.
// The first non-flag argument passed to tabsafe is the target file.
func MakePath() string {
	args := flag.Args()
	if len(args) < 1 {
		log.Fatalln("usage: tabsafe [flags] <program.yaml>")
	}
	return args[0]
}
