package optimize

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-infomap/pkg/config"
	"github.com/dd0wney/cluso-infomap/pkg/flow"
	"github.com/dd0wney/cluso-infomap/pkg/logging"
	"github.com/dd0wney/cluso-infomap/pkg/mapeq"
	"github.com/dd0wney/cluso-infomap/pkg/metrics"
	"github.com/dd0wney/cluso-infomap/pkg/parallel"
)

// RunTrials runs cfg.Trials independent optimizations on cfg.Workers
// goroutines and returns the partition with the shortest codelength. Trial
// i uses seed cfg.Seed+i and owns its model and accumulators. reg may be nil.
func RunTrials(ctx context.Context, fr *flow.Result, cfg config.Config, logger logging.Logger, reg *metrics.Registry) (*Result, error) {
	logger = logging.OrNop(logger)
	results := make([]*Result, cfg.Trials)

	err := parallel.RunIndexed(ctx, cfg.Workers, cfg.Trials, logger, func(ctx context.Context, i int) error {
		log := logger.With(logging.RunID(uuid.NewString()), logging.Trial(i))
		start := time.Now()

		model := mapeq.NewBiased(log)
		model.Init(cfg)

		opts := OptionsFromConfig(cfg)
		opts.Seed = cfg.Seed + int64(i)
		opt, err := New(fr, model, opts, log, reg)
		if err != nil {
			return err
		}

		timer := logging.StartTimer(log, "trial finished")
		res, err := opt.Run(ctx)
		if err != nil {
			if reg != nil {
				reg.RecordTrial(trialStatus(err), time.Since(start))
			}
			timer.EndError(err)
			return err
		}
		if reg != nil {
			reg.RecordTrial("success", time.Since(start))
		}
		timer.End(logging.Codelength(res.Codelength), logging.NumModules(res.NumModules))
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	var best *Result
	for _, res := range results {
		if res != nil && (best == nil || res.Codelength < best.Codelength) {
			best = res
		}
	}
	if best == nil {
		return nil, errors.New("no trial produced a partition")
	}
	if reg != nil {
		reg.SetResult(best.IndexCodelength, best.ModuleCodelength, best.Codelength, best.BiasedCost, best.NumModules)
	}
	logger.Info("best partition",
		logging.Codelength(best.Codelength),
		logging.NumModules(best.NumModules),
		logging.String("summary", best.Summary))
	return best, nil
}

func trialStatus(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "error"
}
