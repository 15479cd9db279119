package mapeq

import (
	"fmt"

	"github.com/dd0wney/cluso-infomap/pkg/config"
	"github.com/dd0wney/cluso-infomap/pkg/logging"
)

// BiasedMapEquation adds a penalty of |modules - preferred| bits to the
// codelength of a base model, steering the search toward a preferred number
// of modules. A preferred count of zero disables the penalty.
//
// The penalty is global: it is added once to Codelength and
// ModuleCodelength, never to the per-module value of CalcCodelength.
type BiasedMapEquation[B BaseModel] struct {
	base   B
	logger logging.Logger

	preferredNumModules int
	currentNumModules   int
	// always NumModuleCost(currentNumModules); only written by setNumModules
	biasedCost float64
}

// NewBiasedMapEquation wraps base. A nil logger discards traces.
func NewBiasedMapEquation[B BaseModel](base B, logger logging.Logger) *BiasedMapEquation[B] {
	return &BiasedMapEquation[B]{
		base:   base,
		logger: logging.OrNop(logger).With(logging.Component("biased-mapeq")),
	}
}

// NewBiased returns a biased model over a fresh MapEquation
func NewBiased(logger logging.Logger) *BiasedMapEquation[*MapEquation] {
	return NewBiasedMapEquation(NewMapEquation(logger), logger)
}

// Base returns the wrapped model
func (b *BiasedMapEquation[B]) Base() B { return b.base }

// Init reads the preferred number of modules
func (b *BiasedMapEquation[B]) Init(cfg config.Config) {
	b.logger.Debug("biased map equation init",
		logging.Int("preferred_modules", int(cfg.PreferredNumberOfModules)))
	b.preferredNumModules = int(cfg.PreferredNumberOfModules)
}

func (b *BiasedMapEquation[B]) InitNetwork(root *Node) {
	b.logger.Debug("biased map equation init network")
	b.base.InitNetwork(root)
}

func (b *BiasedMapEquation[B]) InitSuperNetwork(root *Node) {
	b.base.InitSuperNetwork(root)
}

func (b *BiasedMapEquation[B]) InitSubNetwork(root *Node) {
	b.base.InitSubNetwork(root)
}

// InitPartition recomputes the base terms and takes every given node as a
// module.
func (b *BiasedMapEquation[B]) InitPartition(modules []*Node) {
	b.base.InitPartition(modules)
	b.setNumModules(len(modules))
	b.logger.Debug("biased map equation init partition",
		logging.NumModules(b.currentNumModules),
		logging.Float64("biased_cost", b.biasedCost))
}

// NumModuleCost is the penalty for having numModules modules
func (b *BiasedMapEquation[B]) NumModuleCost(numModules int) float64 {
	if b.preferredNumModules == 0 {
		return 0
	}
	d := numModules - b.preferredNumModules
	if d < 0 {
		d = -d
	}
	return float64(d)
}

func (b *BiasedMapEquation[B]) setNumModules(n int) {
	b.currentNumModules = n
	b.biasedCost = b.NumModuleCost(n)
}

// BiasedCost is the penalty currently included in the codelength
func (b *BiasedMapEquation[B]) BiasedCost() float64 { return b.biasedCost }

// CurrentNumModules is the model's count of non-empty modules
func (b *BiasedMapEquation[B]) CurrentNumModules() int { return b.currentNumModules }

// PreferredNumModules is the configured target, zero when disabled
func (b *BiasedMapEquation[B]) PreferredNumModules() int { return b.preferredNumModules }

func (b *BiasedMapEquation[B]) Codelength() float64 {
	return b.base.Codelength() + b.biasedCost
}

func (b *BiasedMapEquation[B]) IndexCodelength() float64 {
	return b.base.IndexCodelength()
}

func (b *BiasedMapEquation[B]) ModuleCodelength() float64 {
	return b.base.ModuleCodelength() + b.biasedCost
}

// CalcCodelength returns the base value for parent without the penalty.
// Modules of modules use the index codebook formula; the two-level code
// nests only once.
func (b *BiasedMapEquation[B]) CalcCodelength(parent *Node) float64 {
	if parent.IsLeafModule() {
		return b.base.CalcCodelengthOnModuleOfLeafNodes(parent)
	}
	return b.base.CalcCodelengthOnModuleOfModules(parent)
}

// DeltaNumModulesIfMoving infers from member counts how the number of
// non-empty modules changes when one node moves from oldModule to newModule.
func (b *BiasedMapEquation[B]) DeltaNumModulesIfMoving(oldModule, newModule int, moduleMembers []int) int {
	removesOld := moduleMembers[oldModule] == 1
	createsNew := moduleMembers[newModule] == 0
	switch {
	case removesOld && !createsNew:
		return -1
	case !removesOld && createsNew:
		return 1
	default:
		return 0
	}
}

// DeltaCodelengthOnMovingNode previews a move, including the change in
// penalty. It does not modify the model.
func (b *BiasedMapEquation[B]) DeltaCodelengthOnMovingNode(current *Node, oldDelta, newDelta DeltaFlow, moduleFlow []FlowData, moduleMembers []int) float64 {
	deltaL := b.base.DeltaCodelengthOnMovingNode(current, oldDelta, newDelta, moduleFlow, moduleMembers)
	if b.preferredNumModules == 0 {
		return deltaL
	}

	d := b.DeltaNumModulesIfMoving(oldDelta.Module, newDelta.Module, moduleMembers)
	return deltaL + b.NumModuleCost(b.currentNumModules+d) - b.biasedCost
}

// UpdateCodelengthOnMovingNode commits a move. The penalty is recomputed
// from the new module count rather than patched with the previewed delta.
func (b *BiasedMapEquation[B]) UpdateCodelengthOnMovingNode(current *Node, oldDelta, newDelta DeltaFlow, moduleFlow []FlowData, moduleMembers []int) {
	b.base.UpdateCodelengthOnMovingNode(current, oldDelta, newDelta, moduleFlow, moduleMembers)

	d := b.DeltaNumModulesIfMoving(oldDelta.Module, newDelta.Module, moduleMembers)
	b.setNumModules(b.currentNumModules + d)
}

// ConsolidateModules recounts the non-empty modules; nil entries are empty
// slots.
func (b *BiasedMapEquation[B]) ConsolidateModules(modules []*Node) {
	b.base.ConsolidateModules(modules)

	n := 0
	for _, module := range modules {
		if module != nil {
			n++
		}
	}
	b.setNumModules(n)
	b.logger.Debug("biased map equation consolidate",
		logging.NumModules(n),
		logging.Float64("biased_cost", b.biasedCost))
}

func (b *BiasedMapEquation[B]) String() string {
	return fmt.Sprintf("%s + %s + %s = %s",
		formatBits(b.base.IndexCodelength()),
		formatBits(b.base.ModuleCodelength()),
		formatBits(b.biasedCost),
		formatBits(b.Codelength()))
}
