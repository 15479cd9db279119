package mapeq

import (
	"fmt"

	"github.com/dd0wney/cluso-infomap/pkg/config"
	"github.com/dd0wney/cluso-infomap/pkg/logging"
)

// minFlow is the flow below which a module contributes no codelength
const minFlow = 1e-16

// MapEquation is the two-level map equation. The index codebook encodes
// entering modules (and exiting the enclosing network, for a sub-network);
// each module codebook encodes its members and exiting the module.
//
//	L_index  = plogp(Σ enter + exitNet) - Σ plogp(enter) - plogp(exitNet)
//	L_module = Σ plogp(exit + flow) - Σ plogp(exit) - Σ plogp(nodeFlow)
type MapEquation struct {
	logger logging.Logger

	indexCodelength  float64
	moduleCodelength float64
	codelength       float64

	// Terms kept up to date on every committed move
	nodeFlowLogNodeFlow   float64
	exitNetworkFlow       float64
	exitNetworkFlowLog    float64
	enterFlow             float64
	enterFlowLogEnterFlow float64
	exitFlowLogExitFlow   float64
	flowLogFlow           float64
}

// NewMapEquation creates an uninitialized map equation. A nil logger
// discards traces.
func NewMapEquation(logger logging.Logger) *MapEquation {
	return &MapEquation{
		logger: logging.OrNop(logger).With(logging.Component("mapeq")),
	}
}

// Init has nothing to configure for the unbiased model
func (m *MapEquation) Init(cfg config.Config) {
	m.logger.Debug("map equation init")
}

// InitNetwork takes the entropy of the leaf flow under root
func (m *MapEquation) InitNetwork(root *Node) {
	m.logger.Debug("map equation init network", logging.Count(root.ChildDegree()))
	m.nodeFlowLogNodeFlow = 0
	for _, n := range root.Children {
		m.nodeFlowLogNodeFlow += plogp(n.Data.Flow)
	}
	m.exitNetworkFlow = 0
	m.exitNetworkFlowLog = 0
}

// InitSuperNetwork is used when the children of root are modules being
// grouped further; their enter flow plays the role of node flow.
func (m *MapEquation) InitSuperNetwork(root *Node) {
	m.logger.Debug("map equation init super network", logging.Count(root.ChildDegree()))
	m.nodeFlowLogNodeFlow = 0
	for _, n := range root.Children {
		m.nodeFlowLogNodeFlow += plogp(n.Data.EnterFlow)
	}
}

// InitSubNetwork prepares optimizing inside the module root; exiting root is
// encoded in the sub-network's index codebook.
func (m *MapEquation) InitSubNetwork(root *Node) {
	m.logger.Debug("map equation init sub network", logging.Count(root.ChildDegree()))
	m.nodeFlowLogNodeFlow = 0
	for _, n := range root.Children {
		m.nodeFlowLogNodeFlow += plogp(n.Data.Flow)
	}
	m.exitNetworkFlow = root.Data.ExitFlow
	m.exitNetworkFlowLog = plogp(m.exitNetworkFlow)
}

// InitPartition recomputes every term from the module nodes
func (m *MapEquation) InitPartition(modules []*Node) {
	m.calculateCodelengthTerms(modules)
	m.calculateCodelengthFromTerms()
}

func (m *MapEquation) calculateCodelengthTerms(modules []*Node) {
	m.enterFlow = 0
	m.enterFlowLogEnterFlow = 0
	m.exitFlowLogExitFlow = 0
	m.flowLogFlow = 0

	for _, n := range modules {
		m.enterFlow += n.Data.EnterFlow
		m.enterFlowLogEnterFlow += plogp(n.Data.EnterFlow)
		m.exitFlowLogExitFlow += plogp(n.Data.ExitFlow)
		m.flowLogFlow += plogp(n.Data.ExitFlow + n.Data.Flow)
	}
	m.enterFlow += m.exitNetworkFlow
}

func (m *MapEquation) calculateCodelengthFromTerms() {
	m.indexCodelength = plogp(m.enterFlow) - m.enterFlowLogEnterFlow - m.exitNetworkFlowLog
	m.moduleCodelength = m.flowLogFlow - m.exitFlowLogExitFlow - m.nodeFlowLogNodeFlow
	m.codelength = m.indexCodelength + m.moduleCodelength
}

// Codelength returns the total description length in bits
func (m *MapEquation) Codelength() float64 { return m.codelength }

// IndexCodelength returns the index codebook part
func (m *MapEquation) IndexCodelength() float64 { return m.indexCodelength }

// ModuleCodelength returns the sum of the module codebooks
func (m *MapEquation) ModuleCodelength() float64 { return m.moduleCodelength }

// CalcCodelength dispatches on the kind of module
func (m *MapEquation) CalcCodelength(parent *Node) float64 {
	if parent.IsLeafModule() {
		return m.CalcCodelengthOnModuleOfLeafNodes(parent)
	}
	return m.CalcCodelengthOnModuleOfModules(parent)
}

// CalcCodelengthOnModuleOfLeafNodes is the module codebook of parent,
// weighted by its rate of use.
func (m *MapEquation) CalcCodelengthOnModuleOfLeafNodes(parent *Node) float64 {
	total := parent.Data.Flow + parent.Data.ExitFlow
	if total < minFlow {
		return 0
	}

	length := 0.0
	for _, n := range parent.Children {
		length -= plogp(n.Data.Flow / total)
	}
	length -= plogp(parent.Data.ExitFlow / total)
	return length * total
}

// CalcCodelengthOnModuleOfModules is the index codebook of parent: entering
// its submodules or exiting parent.
func (m *MapEquation) CalcCodelengthOnModuleOfModules(parent *Node) float64 {
	if parent.Data.Flow < minFlow {
		return 0
	}

	sumEnter := 0.0
	sumEnterLogEnter := 0.0
	for _, n := range parent.Children {
		sumEnter += n.Data.EnterFlow
		sumEnterLogEnter += plogp(n.Data.EnterFlow)
	}
	exit := parent.Data.ExitFlow
	return plogp(exit+sumEnter) - sumEnterLogEnter - plogp(exit)
}

// moveTerms holds the term changes and resulting module flow of one move
type moveTerms struct {
	enterFlow             float64
	enterFlowLogEnterFlow float64
	exitFlowLogExitFlow   float64
	flowLogFlow           float64
	oldModule             FlowData
	newModule             FlowData
}

func (m *MapEquation) moveTerms(current *Node, oldDelta, newDelta DeltaFlow, moduleFlow []FlowData) moveTerms {
	oldBefore := moduleFlow[oldDelta.Module]
	newBefore := moduleFlow[newDelta.Module]
	dOld := oldDelta.Exchanged()
	dNew := newDelta.Exchanged()

	// Links to the old module become boundary links, links to the new one
	// become internal.
	oldAfter := FlowData{
		Flow:      oldBefore.Flow - current.Data.Flow,
		EnterFlow: oldBefore.EnterFlow - current.Data.EnterFlow + dOld,
		ExitFlow:  oldBefore.ExitFlow - current.Data.ExitFlow + dOld,
	}
	newAfter := FlowData{
		Flow:      newBefore.Flow + current.Data.Flow,
		EnterFlow: newBefore.EnterFlow + current.Data.EnterFlow - dNew,
		ExitFlow:  newBefore.ExitFlow + current.Data.ExitFlow - dNew,
	}

	return moveTerms{
		enterFlow: dOld - dNew,
		enterFlowLogEnterFlow: plogp(oldAfter.EnterFlow) + plogp(newAfter.EnterFlow) -
			plogp(oldBefore.EnterFlow) - plogp(newBefore.EnterFlow),
		exitFlowLogExitFlow: plogp(oldAfter.ExitFlow) + plogp(newAfter.ExitFlow) -
			plogp(oldBefore.ExitFlow) - plogp(newBefore.ExitFlow),
		flowLogFlow: plogp(oldAfter.ExitFlow+oldAfter.Flow) + plogp(newAfter.ExitFlow+newAfter.Flow) -
			plogp(oldBefore.ExitFlow+oldBefore.Flow) - plogp(newBefore.ExitFlow+newBefore.Flow),
		oldModule: oldAfter,
		newModule: newAfter,
	}
}

// DeltaCodelengthOnMovingNode previews a move without changing any state
func (m *MapEquation) DeltaCodelengthOnMovingNode(current *Node, oldDelta, newDelta DeltaFlow, moduleFlow []FlowData, moduleMembers []int) float64 {
	t := m.moveTerms(current, oldDelta, newDelta, moduleFlow)

	deltaIndex := plogp(m.enterFlow+t.enterFlow) - plogp(m.enterFlow) - t.enterFlowLogEnterFlow
	deltaModule := t.flowLogFlow - t.exitFlowLogExitFlow
	return deltaIndex + deltaModule
}

// UpdateCodelengthOnMovingNode commits a move and rewrites the two affected
// entries of moduleFlow.
func (m *MapEquation) UpdateCodelengthOnMovingNode(current *Node, oldDelta, newDelta DeltaFlow, moduleFlow []FlowData, moduleMembers []int) {
	t := m.moveTerms(current, oldDelta, newDelta, moduleFlow)

	m.enterFlow += t.enterFlow
	m.enterFlowLogEnterFlow += t.enterFlowLogEnterFlow
	m.exitFlowLogExitFlow += t.exitFlowLogExitFlow
	m.flowLogFlow += t.flowLogFlow
	moduleFlow[oldDelta.Module] = t.oldModule
	moduleFlow[newDelta.Module] = t.newModule

	m.calculateCodelengthFromTerms()
}

// ConsolidateModules keeps no per-module state
func (m *MapEquation) ConsolidateModules(modules []*Node) {}

func (m *MapEquation) String() string {
	return fmt.Sprintf("%s + %s = %s",
		formatBits(m.indexCodelength), formatBits(m.moduleCodelength), formatBits(m.codelength))
}

func formatBits(v float64) string {
	return fmt.Sprintf("%.9g", v)
}
