package mapeq

import "math"

// FlowData is the random-walk flow through a node or module together with
// the flow entering and exiting it.
type FlowData struct {
	Flow      float64
	EnterFlow float64
	ExitFlow  float64
}

// Add returns the component-wise sum
func (f FlowData) Add(o FlowData) FlowData {
	return FlowData{
		Flow:      f.Flow + o.Flow,
		EnterFlow: f.EnterFlow + o.EnterFlow,
		ExitFlow:  f.ExitFlow + o.ExitFlow,
	}
}

// Sub returns the component-wise difference
func (f FlowData) Sub(o FlowData) FlowData {
	return FlowData{
		Flow:      f.Flow - o.Flow,
		EnterFlow: f.EnterFlow - o.EnterFlow,
		ExitFlow:  f.ExitFlow - o.ExitFlow,
	}
}

// DeltaFlow describes the flow a node exchanges with the members of one
// module: DeltaExit from the node into the module, DeltaEnter from the
// module into the node.
type DeltaFlow struct {
	Module     int
	DeltaExit  float64
	DeltaEnter float64
}

// Exchanged is the total flow between the node and the module
func (d DeltaFlow) Exchanged() float64 {
	return d.DeltaExit + d.DeltaEnter
}

// plogp returns p*log2(p), with 0 for non-positive p
func plogp(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return p * math.Log2(p)
}
