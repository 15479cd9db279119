package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/dd0wney/cluso-infomap/pkg/accumulator"
	"github.com/dd0wney/cluso-infomap/pkg/config"
	"github.com/dd0wney/cluso-infomap/pkg/flow"
	"github.com/dd0wney/cluso-infomap/pkg/mapeq"
	"github.com/dd0wney/cluso-infomap/pkg/network"
	"github.com/dd0wney/cluso-infomap/pkg/optimize"
)

func main() {
	groups := flag.Int("groups", 20, "Number of planted groups")
	groupSize := flag.Int("group-size", 50, "Nodes per group")
	pIn := flag.Float64("p-in", 0.2, "Link probability inside a group")
	pOut := flag.Float64("p-out", 0.002, "Link probability between groups")
	preferred := flag.Uint("preferred-modules", 0, "Preferred number of modules (0 disables the bias)")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	fmt.Printf("Infomap - Accumulator Benchmark\n")
	fmt.Printf("===============================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Groups: %d x %d nodes\n", *groups, *groupSize)
	fmt.Printf("  p_in/p_out: %g/%g\n", *pIn, *pOut)
	fmt.Printf("  Preferred modules: %d\n\n", *preferred)

	start := time.Now()
	net := plantedPartition(*groups, *groupSize, *pIn, *pOut, *seed)
	fmt.Printf("Generated %d nodes and %d links in %v\n", net.NumNodes, len(net.Links), time.Since(start))

	start = time.Now()
	fr, err := flow.Compute(net, flow.DefaultOptions())
	if err != nil {
		log.Fatalf("Flow calculation failed: %v", err)
	}
	fmt.Printf("Computed flow in %v (%d iterations)\n", time.Since(start), fr.Iterations)

	for _, kind := range []accumulator.Kind{accumulator.KindDense, accumulator.KindOrdered} {
		cfg := config.Default()
		cfg.PreferredNumberOfModules = *preferred
		cfg.Accumulator = string(kind)
		cfg.Seed = *seed

		model := mapeq.NewBiased(nil)
		model.Init(cfg)
		opt, err := optimize.New(fr, model, optimize.OptionsFromConfig(cfg), nil, nil)
		if err != nil {
			log.Fatalf("Optimizer setup failed: %v", err)
		}

		start = time.Now()
		res, err := opt.Run(context.Background())
		if err != nil {
			log.Fatalf("Optimization failed: %v", err)
		}
		duration := time.Since(start)

		fmt.Printf("\nAccumulator %q\n", kind)
		fmt.Printf("  Time: %v\n", duration)
		fmt.Printf("  Sweeps: %d\n", res.Sweeps)
		fmt.Printf("  Moves evaluated/accepted: %d/%d\n", res.MovesEvaluated, res.MovesAccepted)
		if res.MovesEvaluated > 0 {
			fmt.Printf("  Per move: %v\n", duration/time.Duration(res.MovesEvaluated))
		}
		fmt.Printf("  Modules: %d\n", res.NumModules)
		fmt.Printf("  Codelength: %s\n", res.Summary)
	}
}

// plantedPartition builds an undirected stochastic block graph with equal
// sized groups.
func plantedPartition(groups, size int, pIn, pOut float64, seed int64) *network.Network {
	rng := rand.New(rand.NewSource(seed))
	n := groups * size
	net := &network.Network{NumNodes: n}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p := pOut
			if i/size == j/size {
				p = pIn
			}
			if rng.Float64() < p {
				net.AddLink(i, j, 1)
			}
		}
	}
	return net
}
