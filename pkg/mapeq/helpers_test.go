package mapeq

import (
	"math"
	"testing"

	"github.com/dd0wney/cluso-infomap/pkg/config"
)

const tolerance = 1e-10

type testLink struct {
	from, to int
	flow     float64
}

// testNet is an undirected network with flow w/2W on each link direction
type testNet struct {
	leaves []*Node
	links  []testLink
}

func newTestNet(numNodes int, edges [][3]float64) *testNet {
	total := 0.0
	for _, e := range edges {
		total += e[2]
	}

	tn := &testNet{leaves: make([]*Node, numNodes)}
	for i := range tn.leaves {
		tn.leaves[i] = NewNode(i, FlowData{})
	}
	for _, e := range edges {
		a, b, f := int(e[0]), int(e[1]), e[2]/(2*total)
		tn.links = append(tn.links, testLink{a, b, f}, testLink{b, a, f})
		tn.leaves[a].Data.Flow += f
		tn.leaves[b].Data.Flow += f
		tn.leaves[a].Data.ExitFlow += f
		tn.leaves[b].Data.EnterFlow += f
		tn.leaves[b].Data.ExitFlow += f
		tn.leaves[a].Data.EnterFlow += f
	}
	return tn
}

// twoTriangles is two triangles joined by a weak edge plus a pendant pair
func twoTriangles() *testNet {
	return newTestNet(8, [][3]float64{
		{0, 1, 1}, {1, 2, 1}, {2, 0, 1},
		{3, 4, 1}, {4, 5, 1}, {5, 3, 1},
		{2, 3, 0.2},
		{5, 6, 0.5}, {6, 7, 1},
	})
}

func (tn *testNet) root() *Node {
	root := NewNode(-1, FlowData{Flow: 1})
	for _, leaf := range tn.leaves {
		root.Children = append(root.Children, leaf)
	}
	return root
}

// moduleFlows computes the flow of every module from scratch
func (tn *testNet) moduleFlows(assign []int, numModules int) []FlowData {
	flows := make([]FlowData, numModules)
	for i, leaf := range tn.leaves {
		flows[assign[i]].Flow += leaf.Data.Flow
	}
	for _, l := range tn.links {
		if assign[l.from] != assign[l.to] {
			flows[assign[l.from]].ExitFlow += l.flow
			flows[assign[l.to]].EnterFlow += l.flow
		}
	}
	return flows
}

func (tn *testNet) deltaFlow(node int, assign []int, module int) DeltaFlow {
	d := DeltaFlow{Module: module}
	for _, l := range tn.links {
		if l.from == node && l.to != node && assign[l.to] == module {
			d.DeltaExit += l.flow
		}
		if l.to == node && l.from != node && assign[l.from] == module {
			d.DeltaEnter += l.flow
		}
	}
	return d
}

// moduleNodes builds module nodes over leaves; empty modules become nil
// slots when keepEmpty is set and are skipped otherwise.
func (tn *testNet) moduleNodes(assign []int, flows []FlowData, keepEmpty bool) []*Node {
	nodes := make([]*Node, len(flows))
	for i, leaf := range tn.leaves {
		m := assign[i]
		if nodes[m] == nil {
			nodes[m] = NewNode(m, flows[m])
		}
		nodes[m].Children = append(nodes[m].Children, leaf)
	}
	if keepEmpty {
		return nodes
	}
	out := nodes[:0:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type harness struct {
	t       *testing.T
	net     *testNet
	model   Model
	assign  []int
	flows   []FlowData
	members []int
}

func newHarness(t *testing.T, net *testNet, model Model, preferred uint, assign []int, numModules int) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		net:     net,
		model:   model,
		assign:  append([]int(nil), assign...),
		members: make([]int, numModules),
	}
	for _, m := range assign {
		h.members[m]++
	}
	h.flows = net.moduleFlows(h.assign, numModules)

	model.Init(config.Config{PreferredNumberOfModules: preferred})
	model.InitNetwork(net.root())
	model.InitPartition(net.moduleNodes(h.assign, h.flows, false))
	return h
}

// move previews and commits moving node into target
func (h *harness) move(node, target int) (preview, before, after float64) {
	old := h.assign[node]
	oldDelta := h.net.deltaFlow(node, h.assign, old)
	newDelta := h.net.deltaFlow(node, h.assign, target)
	leaf := h.net.leaves[node]

	before = h.model.Codelength()
	preview = h.model.DeltaCodelengthOnMovingNode(leaf, oldDelta, newDelta, h.flows, h.members)
	h.model.UpdateCodelengthOnMovingNode(leaf, oldDelta, newDelta, h.flows, h.members)
	after = h.model.Codelength()

	h.members[old]--
	h.members[target]++
	h.assign[node] = target
	return preview, before, after
}

func (h *harness) nonEmpty() int {
	n := 0
	for _, c := range h.members {
		if c > 0 {
			n++
		}
	}
	return n
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}
