// Package network holds weighted link lists and their text formats.
package network

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidLine is returned for a line that is not "source target [weight]"
	ErrInvalidLine = errors.New("invalid link line")
	// ErrNegativeWeight is returned for a link with negative weight
	ErrNegativeWeight = errors.New("negative link weight")
)

// Link is a weighted link between two node indices
type Link struct {
	Source int
	Target int
	Weight float64
}

// Network is a set of links over nodes 0..NumNodes-1
type Network struct {
	NumNodes int
	Links    []Link
}

// AddLink appends a link and grows the node range to cover its endpoints
func (n *Network) AddLink(source, target int, weight float64) {
	n.Links = append(n.Links, Link{Source: source, Target: target, Weight: weight})
	if source >= n.NumNodes {
		n.NumNodes = source + 1
	}
	if target >= n.NumNodes {
		n.NumNodes = target + 1
	}
}

// TotalWeight sums the link weights
func (n *Network) TotalWeight() float64 {
	total := 0.0
	for _, l := range n.Links {
		total += l.Weight
	}
	return total
}

// ReadLinkList parses one "source target [weight]" link per line. Blank
// lines and lines starting with '#' or '*' are skipped; the weight defaults
// to 1.
func ReadLinkList(r io.Reader) (*Network, error) {
	net := &Network{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '*' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrInvalidLine, lineNo, line)
		}
		source, err := strconv.Atoi(fields[0])
		if err != nil || source < 0 {
			return nil, fmt.Errorf("%w: line %d: bad source %q", ErrInvalidLine, lineNo, fields[0])
		}
		target, err := strconv.Atoi(fields[1])
		if err != nil || target < 0 {
			return nil, fmt.Errorf("%w: line %d: bad target %q", ErrInvalidLine, lineNo, fields[1])
		}
		weight := 1.0
		if len(fields) == 3 {
			weight, err = strconv.ParseFloat(fields[2], 64)
			if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) {
				return nil, fmt.Errorf("%w: line %d: bad weight %q", ErrInvalidLine, lineNo, fields[2])
			}
			if weight < 0 {
				return nil, fmt.Errorf("%w: line %d: %v", ErrNegativeWeight, lineNo, weight)
			}
		}
		net.AddLink(source, target, weight)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read link list: %w", err)
	}
	return net, nil
}

// WriteClu writes one "node module flow" line per node under a header
func WriteClu(w io.Writer, modules []int, flow []float64) error {
	if len(modules) != len(flow) {
		return fmt.Errorf("module and flow lengths differ: %d != %d", len(modules), len(flow))
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# node module flow")
	for i, m := range modules {
		fmt.Fprintf(bw, "%d %d %.9g\n", i, m, flow[i])
	}
	return bw.Flush()
}
