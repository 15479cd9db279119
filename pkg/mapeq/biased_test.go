package mapeq

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-infomap/pkg/config"
)

func TestBiased_DeltaNumModulesIfMoving(t *testing.T) {
	b := NewBiased(nil)

	tests := []struct {
		name       string
		oldMembers int
		newMembers int
		expected   int
	}{
		{"sole member into empty module", 1, 0, 0},
		{"sole member into populated module", 1, 3, -1},
		{"one of many into empty module", 5, 0, 1},
		{"one of many into populated module", 5, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := []int{tt.oldMembers, tt.newMembers}
			if got := b.DeltaNumModulesIfMoving(0, 1, members); got != tt.expected {
				t.Errorf("DeltaNumModulesIfMoving() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestBiased_NumModuleCost(t *testing.T) {
	b := NewBiased(nil)
	assert.Zero(t, b.NumModuleCost(7), "disabled bias costs nothing")

	b.Init(config.Config{PreferredNumberOfModules: 3})
	assert.Equal(t, 3, b.PreferredNumModules())
	assert.Equal(t, 2.0, b.NumModuleCost(1))
	assert.Equal(t, 0.0, b.NumModuleCost(3))
	assert.Equal(t, 4.0, b.NumModuleCost(7))
}

func TestBiased_InitPartition(t *testing.T) {
	net := twoTriangles()
	b := NewBiased(nil)
	newHarness(t, net, b, 2, []int{0, 1, 2, 3, 4, 5, 6, 7}, 8)

	assert.Equal(t, 8, b.CurrentNumModules())
	assert.Equal(t, 6.0, b.BiasedCost())
	assert.InDelta(t, b.Base().Codelength()+6, b.Codelength(), tolerance)
	assert.InDelta(t, b.Base().ModuleCodelength()+6, b.ModuleCodelength(), tolerance)
	assert.Equal(t, b.Base().IndexCodelength(), b.IndexCodelength())
}

func TestBiased_DisabledMatchesBase(t *testing.T) {
	net := twoTriangles()
	assign := []int{0, 1, 2, 3, 4, 5, 6, 7}
	biased := newHarness(t, net, NewBiased(nil), 0, assign, 8)
	plain := newHarness(t, net, NewMapEquation(nil), 0, assign, 8)

	for _, mv := range [][2]int{{1, 0}, {2, 0}, {4, 3}, {5, 3}, {6, 7}} {
		bp, _, _ := biased.move(mv[0], mv[1])
		pp, _, _ := plain.move(mv[0], mv[1])
		assert.Equal(t, pp, bp)
		assert.Equal(t, plain.model.Codelength(), biased.model.Codelength())
	}
	assert.Zero(t, biased.model.(*BiasedMapEquation[*MapEquation]).BiasedCost())
}

func TestBiased_InitSuperNetworkDelegates(t *testing.T) {
	net := twoTriangles()
	assign := []int{0, 0, 0, 1, 1, 1, 2, 2}

	tests := []struct {
		name      string
		preferred uint
		cost      float64
	}{
		{"bias disabled", 0, 0},
		{"preferred count met", 3, 0},
		{"preferred count missed", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, modules := superRoot(net, assign, 3)
			base := NewMapEquation(nil)
			base.InitSuperNetwork(root)
			base.InitPartition(modules)

			b := NewBiased(nil)
			b.Init(config.Config{PreferredNumberOfModules: tt.preferred})
			b.InitSuperNetwork(root)
			b.InitPartition(modules)

			assert.Equal(t, 3, b.CurrentNumModules())
			assert.Equal(t, tt.cost, b.BiasedCost())
			assert.InDelta(t, base.Codelength()+tt.cost, b.Codelength(), tolerance)
			assert.InDelta(t, base.IndexCodelength(), b.IndexCodelength(), tolerance)
			assert.InDelta(t, base.Codelength(), b.Base().Codelength(), tolerance)
		})
	}
}

// A sole member of module A moves into empty module B: A vanishes, B appears.
func TestBiased_SoleMemberIntoEmptyModule(t *testing.T) {
	net := newTestNet(4, [][3]float64{{0, 1, 1}, {1, 2, 1}, {2, 3, 1}, {3, 0, 1}})
	b := NewBiased(nil)
	// modules: A=0 {0}, 1 {1}, 2 {2,3}, B=3 empty
	h := newHarness(t, net, b, 2, []int{0, 1, 2, 2}, 4)
	require.Equal(t, 3, b.CurrentNumModules())
	require.Equal(t, 1.0, b.BiasedCost())

	assert.Equal(t, 0, b.DeltaNumModulesIfMoving(0, 3, h.members))

	preview, before, after := h.move(0, 3)
	assert.Equal(t, 3, b.CurrentNumModules())
	assert.Equal(t, 1.0, b.BiasedCost())
	assert.InDelta(t, after-before, preview, tolerance)
	// relabeling a singleton changes nothing
	assert.InDelta(t, 0, preview, tolerance)
}

func TestBiased_PenaltyShapesDelta(t *testing.T) {
	net := twoTriangles()
	assign := []int{0, 0, 0, 1, 1, 1, 2, 2}
	plain := newHarness(t, net, NewMapEquation(nil), 0, assign, 4)
	b := NewBiased(nil)
	biased := newHarness(t, net, b, 2, assign, 4)
	require.Equal(t, 1.0, b.BiasedCost())

	deltas := func(h *harness, node, target int) float64 {
		return h.model.DeltaCodelengthOnMovingNode(net.leaves[node],
			net.deltaFlow(node, h.assign, h.assign[node]), net.deltaFlow(node, h.assign, target),
			h.flows, h.members)
	}

	// opening module 3 moves away from the preferred count
	assert.InDelta(t, deltas(plain, 0, 3)+1, deltas(biased, 0, 3), tolerance)
	// node 6 leaving a two-member module changes nothing
	assert.InDelta(t, deltas(plain, 6, 1), deltas(biased, 6, 1), tolerance)

	biased.move(7, 1)
	assert.Equal(t, 3, b.CurrentNumModules(), "module 2 still holds node 6")
	// emptying module 2 reaches the preferred count
	oldDelta := net.deltaFlow(6, biased.assign, 2)
	newDelta := net.deltaFlow(6, biased.assign, 1)
	baseDelta := b.Base().DeltaCodelengthOnMovingNode(net.leaves[6], oldDelta, newDelta, biased.flows, biased.members)
	assert.InDelta(t, baseDelta-1, deltas(biased, 6, 1), tolerance)
	assert.Equal(t, 1.0, b.BiasedCost(), "preview must not touch the penalty")
	assert.Equal(t, 3, b.CurrentNumModules())

	biased.move(6, 1)
	assert.Equal(t, 2, b.CurrentNumModules())
	assert.Zero(t, b.BiasedCost())
}

func TestBiased_ConsolidateCountsNonNil(t *testing.T) {
	b := NewBiased(nil)
	b.Init(config.Config{PreferredNumberOfModules: 4})
	b.InitPartition([]*Node{NewNode(0, FlowData{Flow: 1})})
	require.Equal(t, 3.0, b.BiasedCost())

	b.ConsolidateModules([]*Node{nil, NewNode(1, FlowData{}), nil, NewNode(3, FlowData{}), NewNode(4, FlowData{})})
	assert.Equal(t, 3, b.CurrentNumModules())
	assert.Equal(t, 1.0, b.BiasedCost(), "penalty follows the resynchronized count")

	b.ConsolidateModules(nil)
	assert.Zero(t, b.CurrentNumModules())
	assert.Equal(t, 4.0, b.BiasedCost())
}

func TestBiased_CalcCodelengthExcludesPenalty(t *testing.T) {
	net := twoTriangles()
	assign := []int{0, 0, 0, 1, 1, 1, 2, 2}
	b := NewBiased(nil)
	h := newHarness(t, net, b, 7, assign, 3)
	require.Equal(t, 4.0, b.BiasedCost())

	root := NewNode(-1, FlowData{Flow: 1})
	for _, module := range net.moduleNodes(assign, h.flows, false) {
		root.AddChild(module)
	}

	sum := b.CalcCodelength(root)
	assert.InDelta(t, b.Base().CalcCodelengthOnModuleOfModules(root), sum, tolerance)
	for _, module := range root.Children {
		v := b.CalcCodelength(module)
		assert.Equal(t, b.Base().CalcCodelengthOnModuleOfLeafNodes(module), v)
		sum += v
	}
	// the penalty is added once, globally
	assert.InDelta(t, b.Codelength()-b.BiasedCost(), sum, tolerance)
}

func TestBiased_String(t *testing.T) {
	b := NewBiased(nil)
	b.Init(config.Config{PreferredNumberOfModules: 2})
	b.InitPartition([]*Node{NewNode(0, FlowData{Flow: 1})})
	assert.Equal(t, "0 + 0 + 1 = 1", b.String())
}

// TestBiased_IncrementalProperties drives random move sequences and checks
// the penalty formula, preview/commit agreement and agreement with a full
// recomputation after consolidation.
func TestBiased_IncrementalProperties(t *testing.T) {
	net := twoTriangles()
	const numNodes, numSlots = 8, 8

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("incremental state stays consistent", prop.ForAll(
		func(preferred uint, ops []int) bool {
			b := NewBiased(nil)
			h := newHarness(t, net, b, preferred, []int{0, 1, 2, 3, 4, 5, 6, 7}, numSlots)

			for _, op := range ops {
				node, target := op%numNodes, op/numNodes
				if h.assign[node] == target {
					continue
				}
				preview, before, after := h.move(node, target)
				if math.Abs(preview-(after-before)) > 1e-9 {
					return false
				}
				if b.CurrentNumModules() != h.nonEmpty() {
					return false
				}
				want := 0.0
				if preferred > 0 {
					want = math.Abs(float64(b.CurrentNumModules()) - float64(preferred))
				}
				if b.BiasedCost() != want {
					return false
				}
			}

			b.ConsolidateModules(net.moduleNodes(h.assign, h.flows, true))
			if b.CurrentNumModules() != h.nonEmpty() {
				return false
			}

			ref := NewBiased(nil)
			ref.Init(config.Config{PreferredNumberOfModules: preferred})
			ref.InitNetwork(net.root())
			ref.InitPartition(net.moduleNodes(h.assign, net.moduleFlows(h.assign, numSlots), false))
			return math.Abs(ref.ModuleCodelength()-b.ModuleCodelength()) < 1e-9 &&
				math.Abs(ref.Codelength()-b.Codelength()) < 1e-9
		},
		gen.UIntRange(0, 10),
		gen.SliceOf(gen.IntRange(0, numNodes*numSlots-1)),
	))

	properties.TestingRun(t)
}
