// Package flow computes the random-walk flow on nodes and links that the
// map equation encodes.
package flow

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"github.com/dd0wney/cluso-infomap/pkg/mapeq"
	"github.com/dd0wney/cluso-infomap/pkg/network"
)

// ErrEmptyNetwork is returned when there is no link weight to walk on
var ErrEmptyNetwork = errors.New("network has no links with positive weight")

// Options configures the flow model
type Options struct {
	Directed      bool
	DampingFactor float64 // probability of following a link, usually 0.85
	MaxIterations int
	Tolerance     float64 // L1 convergence threshold
}

// DefaultOptions returns the usual undirected setup
func DefaultOptions() Options {
	return Options{
		DampingFactor: 0.85,
		MaxIterations: 200,
		Tolerance:     1e-15,
	}
}

// LinkFlow is the flow along one directed link
type LinkFlow struct {
	Source int
	Target int
	Flow   float64
}

// Result holds node and link flow
type Result struct {
	Nodes      []mapeq.FlowData
	Links      []LinkFlow
	Iterations int
	Converged  bool
}

// Compute derives flow for every node and link. Undirected networks use
// link weight directly; directed networks run PageRank and follow links
// with the damping factor, without recording teleportation as link flow.
func Compute(net *network.Network, opts Options) (*Result, error) {
	if net.NumNodes == 0 || net.TotalWeight() <= 0 {
		return nil, ErrEmptyNetwork
	}

	var res *Result
	if opts.Directed {
		res = directed(net, opts)
	} else {
		res = undirected(net)
	}

	for _, l := range res.Links {
		if l.Source == l.Target {
			continue
		}
		res.Nodes[l.Source].ExitFlow += l.Flow
		res.Nodes[l.Target].EnterFlow += l.Flow
	}
	return res, nil
}

func undirected(net *network.Network) *Result {
	res := &Result{
		Nodes:     make([]mapeq.FlowData, net.NumNodes),
		Links:     make([]LinkFlow, 0, 2*len(net.Links)),
		Converged: true,
	}
	scale := 1 / (2 * net.TotalWeight())

	for _, l := range net.Links {
		f := l.Weight * scale
		res.Nodes[l.Source].Flow += f
		res.Nodes[l.Target].Flow += f
		if l.Source == l.Target {
			res.Links = append(res.Links, LinkFlow{l.Source, l.Target, 2 * f})
			continue
		}
		res.Links = append(res.Links,
			LinkFlow{l.Source, l.Target, f},
			LinkFlow{l.Target, l.Source, f})
	}
	return res
}

func directed(net *network.Network, opts Options) *Result {
	n := net.NumNodes
	alpha := opts.DampingFactor

	outWeight := make([]float64, n)
	for _, l := range net.Links {
		outWeight[l.Source] += l.Weight
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	for i := range rank {
		rank[i] = 1 / float64(n)
	}

	res := &Result{}
	for res.Iterations < opts.MaxIterations {
		res.Iterations++

		dangling := 0.0
		for i, w := range outWeight {
			if w == 0 {
				dangling += rank[i]
			}
		}
		base := (1-alpha)/float64(n) + alpha*dangling/float64(n)
		for i := range next {
			next[i] = base
		}
		for _, l := range net.Links {
			// a source with only zero-weight links is dangling
			if l.Weight == 0 {
				continue
			}
			next[l.Target] += alpha * rank[l.Source] * l.Weight / outWeight[l.Source]
		}
		floats.Scale(1/floats.Sum(next), next)

		diff := floats.Distance(next, rank, 1)
		rank, next = next, rank
		if diff < opts.Tolerance {
			res.Converged = true
			break
		}
	}

	res.Nodes = make([]mapeq.FlowData, n)
	for i, p := range rank {
		res.Nodes[i].Flow = p
	}
	res.Links = make([]LinkFlow, 0, len(net.Links))
	for _, l := range net.Links {
		if l.Weight == 0 {
			continue
		}
		res.Links = append(res.Links, LinkFlow{
			Source: l.Source,
			Target: l.Target,
			Flow:   alpha * rank[l.Source] * l.Weight / outWeight[l.Source],
		})
	}
	return res
}
