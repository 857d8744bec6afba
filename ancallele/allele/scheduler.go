// Copyright © 2024-2026 the ancallele authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package allele

import (
	"github.com/twotwotwo/sorts"
)

// Row is one output record of a run.
type Row struct {
	Chrom string
	Start int64
	End   int64

	RefBase      byte
	UsedAncestor string
	Allele       byte
	Evidence     string
}

// Scheduler drives the resolver over a batch of positions.  Positions
// are processed in (chrom, start) order for store-query locality
// unless NoSort is set; results always come back in input order, the
// processing order never leaks into the output.
type Scheduler struct {
	Ref      Genome
	Resolver *Resolver

	// NoSort disables the locality sort and processes positions in
	// input order.
	NoSort bool

	// ProgressEvery > 0 reports via OnProgress after every that many
	// positions, counted in processing order.  0 disables reporting.
	ProgressEvery int
	OnProgress    func(processed, total int)
}

// Run resolves all positions and returns one row per position, indexed
// by OriginalOrder.  The OriginalOrder values of positions must be a
// permutation of [0, len).
func (s *Scheduler) Run(positions []Position) []Row {
	order := make([]int, len(positions))
	for i := range order {
		order[i] = i
	}
	if !s.NoSort {
		sorts.Quicksort(&byLocus{order: order, positions: positions})
	}

	missingName := UnknownAncestor
	if len(s.Resolver.Candidates) > 0 {
		missingName = s.Resolver.Candidates[0]
	}

	rows := make([]Row, len(positions))
	for i, idx := range order {
		pos := positions[idx]

		if s.ProgressEvery > 0 && (i+1)%s.ProgressEvery == 0 && s.OnProgress != nil {
			s.OnProgress(i+1, len(positions))
		}

		row := Row{Chrom: pos.Chrom, Start: pos.Start, End: pos.End}

		start, ok := s.Ref.SequenceStart(pos.Chrom)
		if !ok {
			rows[pos.OriginalOrder] = missingRow(row, missingName)
			continue
		}

		abs := start + pos.Start
		refBase, err := s.Ref.BaseAt(abs)
		if err != nil {
			rows[pos.OriginalOrder] = missingRow(row, missingName)
			continue
		}
		row.RefBase = toUpper(refBase)

		result := s.Resolver.Resolve(abs)
		row.UsedAncestor = result.UsedAncestor
		row.Allele = result.Allele
		row.Evidence = result.Evidence

		rows[pos.OriginalOrder] = row
	}

	return rows
}

// missingRow fails one position softly: the reference sequence is
// unknown or the position lies outside of it.
func missingRow(row Row, usedAncestor string) Row {
	row.RefBase = 'N'
	row.UsedAncestor = usedAncestor
	row.Allele = 'N'
	row.Evidence = "Missing"
	return row
}

// byLocus sorts a permutation of position indices by (chrom, start),
// chromosomes compared lexicographically.
type byLocus struct {
	order     []int
	positions []Position
}

func (s *byLocus) Len() int { return len(s.order) }

func (s *byLocus) Less(i, j int) bool {
	a := s.positions[s.order[i]]
	b := s.positions[s.order[j]]
	if a.Chrom != b.Chrom {
		return a.Chrom < b.Chrom
	}
	return a.Start < b.Start
}

func (s *byLocus) Swap(i, j int) {
	s.order[i], s.order[j] = s.order[j], s.order[i]
}
