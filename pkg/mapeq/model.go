// Package mapeq implements the two-level map equation and a variant biased
// toward a preferred number of modules, with incremental evaluation of
// single-node moves between modules.
//
// A model is driven through a fixed lifecycle: Init with the run
// configuration, InitNetwork (or InitSuperNetwork / InitSubNetwork) with the
// root of the level being optimized, InitPartition with the current modules,
// then any number of DeltaCodelengthOnMovingNode previews and
// UpdateCodelengthOnMovingNode commits, with ConsolidateModules after every
// structural rebuild of the module set.
//
// Models own mutable state and are not safe for concurrent use; give each
// optimization context its own instance.
package mapeq

import "github.com/dd0wney/cluso-infomap/pkg/config"

// Model is the lifecycle an optimizer drives a codelength model through
type Model interface {
	Init(cfg config.Config)
	InitNetwork(root *Node)
	InitSuperNetwork(root *Node)
	InitSubNetwork(root *Node)
	// InitPartition recomputes all terms from the given module nodes
	InitPartition(modules []*Node)

	Codelength() float64
	IndexCodelength() float64
	ModuleCodelength() float64
	// CalcCodelength returns the codelength contribution of one module subtree
	CalcCodelength(parent *Node) float64

	// DeltaCodelengthOnMovingNode previews the change in codelength from
	// moving current out of oldDelta.Module into newDelta.Module. The flow
	// table and member counts describe the state before the move.
	DeltaCodelengthOnMovingNode(current *Node, oldDelta, newDelta DeltaFlow, moduleFlow []FlowData, moduleMembers []int) float64
	// UpdateCodelengthOnMovingNode commits the move previewed with the same
	// arguments and updates moduleFlow in place. Member counts are left to
	// the caller and must still reflect the state before the move.
	UpdateCodelengthOnMovingNode(current *Node, oldDelta, newDelta DeltaFlow, moduleFlow []FlowData, moduleMembers []int)
	// ConsolidateModules resynchronizes after the module set was rebuilt.
	// Nil entries are empty slots.
	ConsolidateModules(modules []*Node)

	String() string
}

// BaseModel is a Model that also exposes its per-module formulas, so that a
// decorator can choose between them.
type BaseModel interface {
	Model
	CalcCodelengthOnModuleOfLeafNodes(parent *Node) float64
	CalcCodelengthOnModuleOfModules(parent *Node) float64
}

var (
	_ BaseModel = (*MapEquation)(nil)
	_ Model     = (*BiasedMapEquation[*MapEquation])(nil)
)
