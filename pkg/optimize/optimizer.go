// Package optimize searches for a two-level partition by moving single
// nodes between modules, driving a mapeq.Model through its incremental
// preview and commit operations.
package optimize

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/dd0wney/cluso-infomap/pkg/accumulator"
	"github.com/dd0wney/cluso-infomap/pkg/config"
	"github.com/dd0wney/cluso-infomap/pkg/flow"
	"github.com/dd0wney/cluso-infomap/pkg/logging"
	"github.com/dd0wney/cluso-infomap/pkg/mapeq"
	"github.com/dd0wney/cluso-infomap/pkg/metrics"
)

// Options configures one optimization run
type Options struct {
	Accumulator    accumulator.Kind
	MaxSweeps      int
	MinImprovement float64 // smallest codelength gain, in bits, worth a move or another sweep
	Seed           int64
}

// OptionsFromConfig extracts the optimizer settings of a run configuration
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Accumulator:    accumulator.Kind(cfg.Accumulator),
		MaxSweeps:      cfg.MaxSweeps,
		MinImprovement: cfg.MinImprovement,
		Seed:           cfg.Seed,
	}
}

// Result is a partition of the leaf nodes
type Result struct {
	Modules            []int // module of each node, numbered 0..NumModules-1
	NumModules         int
	Codelength         float64
	IndexCodelength    float64
	ModuleCodelength   float64
	BiasedCost         float64
	OneLevelCodelength float64
	Sweeps             int
	MovesEvaluated     int
	MovesAccepted      int
	Summary            string
}

type neighbor struct {
	node int
	flow float64
}

// Optimizer holds the state of one local-move search. It is not safe for
// concurrent use; run separate optimizers for separate trials.
type Optimizer struct {
	model   mapeq.Model
	opts    Options
	logger  logging.Logger
	metrics *metrics.Registry
	rng     *rand.Rand

	root   *mapeq.Node
	leaves []*mapeq.Node
	out    [][]neighbor
	in     [][]neighbor

	module        []int
	moduleFlow    []mapeq.FlowData
	moduleMembers []int
	emptyModules  []int

	// flow from the current node to, and from, each neighboring module
	outFlow accumulator.Accumulator[float64]
	inFlow  accumulator.Accumulator[float64]
}

// New prepares an optimizer over the flow network. The model must already
// be configured with Init; reg may be nil.
func New(fr *flow.Result, model mapeq.Model, opts Options, logger logging.Logger, reg *metrics.Registry) (*Optimizer, error) {
	n := len(fr.Nodes)
	outFlow, err := accumulator.New[float64](opts.Accumulator, n)
	if err != nil {
		return nil, err
	}
	inFlow, err := accumulator.New[float64](opts.Accumulator, n)
	if err != nil {
		return nil, err
	}
	if opts.MaxSweeps <= 0 {
		opts.MaxSweeps = 1
	}

	o := &Optimizer{
		model:   model,
		opts:    opts,
		logger:  logging.OrNop(logger).With(logging.Component("optimizer")),
		metrics: reg,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		root:    mapeq.NewNode(-1, mapeq.FlowData{}),
		leaves:  make([]*mapeq.Node, n),
		out:     make([][]neighbor, n),
		in:      make([][]neighbor, n),
		outFlow: outFlow,
		inFlow:  inFlow,
	}

	for i, data := range fr.Nodes {
		o.leaves[i] = mapeq.NewNode(i, data)
		o.root.AddChild(o.leaves[i])
		o.root.Data.Flow += data.Flow
	}
	for _, l := range fr.Links {
		if l.Source == l.Target {
			continue
		}
		o.out[l.Source] = append(o.out[l.Source], neighbor{l.Target, l.Flow})
		o.in[l.Target] = append(o.in[l.Target], neighbor{l.Source, l.Flow})
	}
	return o, nil
}

// Run optimizes from the partition with every node in its own module. It
// stops early with ctx.Err() between sweeps.
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	n := len(o.leaves)
	o.model.InitNetwork(o.root)

	o.module = make([]int, n)
	o.moduleFlow = make([]mapeq.FlowData, n)
	o.moduleMembers = make([]int, n)
	o.emptyModules = o.emptyModules[:0]
	for i, leaf := range o.leaves {
		o.module[i] = i
		o.moduleFlow[i] = leaf.Data
		o.moduleMembers[i] = 1
	}
	o.model.InitPartition(o.moduleNodes(false))

	res := &Result{OneLevelCodelength: o.oneLevelCodelength()}
	o.logger.Debug("optimization started",
		logging.Count(n), logging.Codelength(o.model.Codelength()))

	for res.Sweeps < o.opts.MaxSweeps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("optimization stopped after %d sweeps: %w", res.Sweeps, err)
		}

		before := o.model.Codelength()
		evaluated, moved := o.sweep()
		res.Sweeps++
		res.MovesEvaluated += evaluated
		res.MovesAccepted += moved
		if o.metrics != nil {
			o.metrics.RecordSweep(evaluated, moved)
		}
		if o.logger.Enabled(logging.DebugLevel) {
			o.logger.Debug("sweep done",
				logging.Int("sweep", res.Sweeps),
				logging.Int("moved", moved),
				logging.Codelength(o.model.Codelength()))
		}

		if moved == 0 || before-o.model.Codelength() < o.opts.MinImprovement {
			break
		}
	}

	o.model.ConsolidateModules(o.moduleNodes(true))
	res.Modules, res.NumModules = o.renumber()
	res.Codelength = o.model.Codelength()
	res.IndexCodelength = o.model.IndexCodelength()
	res.ModuleCodelength = o.model.ModuleCodelength()
	if b, ok := o.model.(interface{ BiasedCost() float64 }); ok {
		res.BiasedCost = b.BiasedCost()
	}
	res.Summary = o.model.String()
	return res, nil
}

// sweep tries to move every node once, in random order
func (o *Optimizer) sweep() (evaluated, moved int) {
	for _, i := range o.rng.Perm(len(o.leaves)) {
		current := o.module[i]

		o.outFlow.StartRound()
		o.inFlow.StartRound()
		for _, e := range o.out[i] {
			o.outFlow.Add(o.module[e.node], e.flow)
		}
		for _, e := range o.in[i] {
			o.inFlow.Add(o.module[e.node], e.flow)
		}

		oldDelta := o.deltaFlow(current)
		best := oldDelta
		bestDeltaL := 0.0
		try := func(m int) {
			d := o.deltaFlow(m)
			deltaL := o.model.DeltaCodelengthOnMovingNode(o.leaves[i], oldDelta, d, o.moduleFlow, o.moduleMembers)
			evaluated++
			if deltaL < bestDeltaL {
				best, bestDeltaL = d, deltaL
			}
		}

		for _, m := range o.outFlow.Keys() {
			if m != current {
				try(m)
			}
		}
		for _, m := range o.inFlow.Keys() {
			if m != current && !o.outFlow.IsSet(m) {
				try(m)
			}
		}
		if o.moduleMembers[current] > 1 && len(o.emptyModules) > 0 {
			try(o.emptyModules[len(o.emptyModules)-1])
		}

		if best.Module == current || bestDeltaL > -o.opts.MinImprovement {
			continue
		}

		o.model.UpdateCodelengthOnMovingNode(o.leaves[i], oldDelta, best, o.moduleFlow, o.moduleMembers)
		o.moveMember(current, best.Module)
		o.module[i] = best.Module
		moved++
	}
	return evaluated, moved
}

func (o *Optimizer) deltaFlow(module int) mapeq.DeltaFlow {
	return mapeq.DeltaFlow{
		Module:     module,
		DeltaExit:  o.outFlow.Get(module),
		DeltaEnter: o.inFlow.Get(module),
	}
}

// moveMember updates member counts after a committed move
func (o *Optimizer) moveMember(from, to int) {
	if last := len(o.emptyModules) - 1; last >= 0 && o.emptyModules[last] == to {
		o.emptyModules = o.emptyModules[:last]
	}
	o.moduleMembers[from]--
	o.moduleMembers[to]++
	if o.moduleMembers[from] == 0 {
		o.emptyModules = append(o.emptyModules, from)
	}
}

// moduleNodes builds one node per module over its leaves. Empty modules
// are nil slots when keepEmpty is set and skipped otherwise.
func (o *Optimizer) moduleNodes(keepEmpty bool) []*mapeq.Node {
	nodes := make([]*mapeq.Node, len(o.moduleFlow))
	for i, leaf := range o.leaves {
		m := o.module[i]
		if nodes[m] == nil {
			nodes[m] = mapeq.NewNode(m, o.moduleFlow[m])
		}
		nodes[m].Children = append(nodes[m].Children, leaf)
	}
	if keepEmpty {
		return nodes
	}

	live := nodes[:0]
	for _, node := range nodes {
		if node != nil {
			live = append(live, node)
		}
	}
	return live
}

// renumber maps module ids to 0..k-1 in order of first appearance
func (o *Optimizer) renumber() ([]int, int) {
	ids := make(map[int]int)
	modules := make([]int, len(o.module))
	for i, m := range o.module {
		id, ok := ids[m]
		if !ok {
			id = len(ids)
			ids[m] = id
		}
		modules[i] = id
	}
	return modules, len(ids)
}

func (o *Optimizer) oneLevelCodelength() float64 {
	m := mapeq.NewMapEquation(nil)
	m.InitNetwork(o.root)
	m.InitPartition([]*mapeq.Node{mapeq.NewNode(0, mapeq.FlowData{Flow: o.root.Data.Flow})})
	return m.Codelength()
}
