// station-sim runs the station firmware against simulated peripherals.
// Type console commands on stdin; station output goes to stdout and
// measured servo pulse widths are logged.
package main

import (
	"bufio"
	"flag"
	"os"
	"time"

	"github.com/golang/glog"

	"servostation/config"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	duration   = flag.Duration("duration", 0, "Stop after this much simulated time (0 = until stdin closes)")
	fast       = flag.Bool("fast", false, "Run as fast as possible instead of in real time")
)

// readInput forwards stdin byte by byte until EOF
func readInput(ch chan<- byte) {
	defer close(ch)
	r := bufio.NewReader(os.Stdin)
	for {
		c, err := r.ReadByte()
		if err != nil {
			return
		}
		ch <- c
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			glog.Exitf("config load failed: %v", err)
		}
	}
	if *fast {
		cfg.Sim.Fast = true
	}
	if err := config.Validate(cfg); err != nil {
		glog.Exitf("config validation failed: %v", err)
	}

	input := make(chan byte, 256)
	go readInput(input)

	sim, err := newSimulator(cfg.Sim, input, os.Stdout)
	if err != nil {
		glog.Exitf("board init failed: %v", err)
	}

	maxSteps := uint64(*duration / StepDuration)
	glog.Infof("station simulator started (report every %d ms)", cfg.Sim.ReportMs)
	sim.Run(maxSteps)
	glog.Infof("simulated %v", time.Duration(sim.steps)*StepDuration)
}
