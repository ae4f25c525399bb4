package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hermanndegner/ssd-core-engine/internal/replay"
)

// #region main
func main() {
	verbose := flag.Bool("v", false, "print every tick trace")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: replay [-v] <fixture.json>")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(flag.Arg(0))
	if err != nil {
		log.Fatalf("load fixture: %v", err)
	}

	harness := replay.NewHarnessForFixture(fixture)
	traces, err := harness.Run(fixture)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	if *verbose {
		for _, tr := range traces {
			fmt.Printf("tick %3d  clock=%6.2f  E=%6.3f  T=%.2f  decision=%-12s crisis=%-8s",
				tr.Tick, tr.Clock, tr.E, tr.Temperature, tr.Decision, tr.CrisisLevel)
			if tr.LeapFired {
				fmt.Printf("  leap=%s", tr.LeapType)
			}
			fmt.Println()
		}
	}

	printSummary(fixture, traces)
}
// #endregion main

// #region summary
func printSummary(fixture *replay.Fixture, traces []replay.TickTrace) {
	leaps := 0
	explored := 0
	crises := map[string]int{}
	for _, tr := range traces {
		if tr.LeapFired {
			leaps++
		}
		if tr.Explored {
			explored++
		}
		crises[tr.CrisisLevel]++
	}

	fmt.Printf("\nReplay: %s\n", fixture.Description)
	fmt.Printf("  seed=%d mode=%s ticks=%d\n", fixture.Seed, modeName(fixture), len(traces))
	fmt.Printf("  leaps=%d explored=%d\n", leaps, explored)
	for _, level := range []string{"none", "moderate", "severe", "critical"} {
		if n := crises[level]; n > 0 {
			fmt.Printf("  crisis %-8s %d\n", level, n)
		}
	}
	if len(traces) > 0 {
		last := traces[len(traces)-1]
		fmt.Printf("  final E=%.3f T=%.2f mean_inertia=%.3f heat=%.3f\n",
			last.E, last.Temperature, last.MeanInertia, last.HeatLoss)
	}
}

func modeName(f *replay.Fixture) string {
	if f.LeapMode == "chaotic" {
		return "chaotic"
	}
	return "basic"
}
// #endregion summary
