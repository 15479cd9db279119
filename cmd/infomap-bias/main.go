package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-infomap/pkg/config"
	"github.com/dd0wney/cluso-infomap/pkg/flow"
	"github.com/dd0wney/cluso-infomap/pkg/logging"
	"github.com/dd0wney/cluso-infomap/pkg/metrics"
	"github.com/dd0wney/cluso-infomap/pkg/network"
	"github.com/dd0wney/cluso-infomap/pkg/optimize"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	input := flag.String("input", "", "Link list to cluster (source target [weight] per line)")
	output := flag.String("output", "", "Write the partition (.clu) here instead of stdout")
	preferred := flag.Int("preferred-modules", -1, "Preferred number of modules, 0 disables the bias (overrides config)")
	trials := flag.Int("trials", 0, "Number of optimization trials (overrides config)")
	directed := flag.Bool("directed", false, "Treat links as directed (overrides config when set)")
	metricsOut := flag.String("metrics-out", "", "Write Prometheus metrics in text format to this file")
	flag.Parse()

	if *input == "" {
		fmt.Println("Usage: infomap-bias --input network.txt [--config infomap.yaml] [--preferred-modules 4] [--output out.clu]")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *preferred >= 0 {
		cfg.PreferredNumberOfModules = uint(*preferred)
	}
	if *trials > 0 {
		cfg.Trials = *trials
	}
	if *directed {
		cfg.Directed = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *input, *output, *metricsOut, logger); err != nil {
		logger.Error("run failed", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, input, output, metricsOut string, logger logging.Logger) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	net, err := network.ReadLinkList(f)
	f.Close()
	if err != nil {
		return err
	}
	logger.Info("network loaded",
		logging.Path(input),
		logging.Int("nodes", net.NumNodes),
		logging.Int("links", len(net.Links)))

	opts := flow.DefaultOptions()
	opts.Directed = cfg.Directed
	opts.DampingFactor = cfg.Damping
	fr, err := flow.Compute(net, opts)
	if err != nil {
		return err
	}
	if !fr.Converged {
		logger.Warn("flow did not converge", logging.Int("iterations", fr.Iterations))
	}

	reg := metrics.NewRegistry()
	best, err := optimize.RunTrials(ctx, fr, cfg, logger, reg)
	if err != nil {
		return err
	}

	flows := make([]float64, len(fr.Nodes))
	for i, n := range fr.Nodes {
		flows[i] = n.Flow
	}
	writeClu := func(w io.Writer) error {
		if err := network.WriteClu(w, best.Modules, flows); err != nil {
			return fmt.Errorf("failed to write partition: %w", err)
		}
		return nil
	}
	if output == "" {
		err = writeClu(os.Stdout)
	} else {
		err = writeFile(output, writeClu)
	}
	if err != nil {
		return err
	}

	if metricsOut != "" {
		if err := writeFile(metricsOut, reg.WriteText); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Codelength %s (one-level %.9g) in %d modules\n",
		best.Summary, best.OneLevelCodelength, best.NumModules)
	return nil
}

// writeFile creates path, fills it with write and closes it, returning the
// close error too.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
