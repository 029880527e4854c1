package main

import (
	"fmt"
	"log"
	"os"
	"time"

	ai "github.com/cs-au-dk/tabsafe/analysis/absint"
	"github.com/cs-au-dk/tabsafe/utils"
)

var opts = utils.Opts()

// Exit codes.
const (
	exitSafe = iota
	exitUnsafe
	exitError
)

func main() {
	utils.ParseArgs()
	pl := &pipeline{path: utils.MakePath()}

	if err := pl.load(); err != nil {
		log.Println("Failed loading program")
		log.Println(err)
		os.Exit(exitError)
	}

	start := time.Now()
	a, err := pl.analyze(ai.ConfigFromOpts())
	opts.OnVerbose(func() {
		utils.TimeTrack(start, "Analysis")
	})
	gatherMetrics(pl.path, a)
	if err != nil {
		log.Println(err)
		os.Exit(exitError)
	}

	utils.VerbosePrint("Specializations:\n")
	for _, s := range a.Specs() {
		utils.VerbosePrint("%v\n", s)
	}

	if opts.Visualize() {
		img, err := a.Visualize(opts.OutputFile(), opts.OutputFormat())
		if err != nil {
			log.Println("Failed rendering specialization graph")
			log.Println(err)
		} else {
			log.Println("Specialization graph written to", img)
		}
	}

	if a.Safe() {
		fmt.Println(utils.Colorize.Safe("safe"))
		os.Exit(exitSafe)
	}
	fmt.Println(utils.Colorize.Unsafe("unsafe"))
	os.Exit(exitUnsafe)
}
