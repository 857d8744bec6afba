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

// Package allele infers ancestral alleles for reference-genome
// positions from a multi-genome alignment store.
//
// For each position, an ordered list of candidate ancestor genomes is
// consulted: the aligned bases of the first candidate with any signal
// are reduced to one allele call by majority vote, with ties reported
// as 'N'.  When no candidate has a base, paralogous copies within the
// reference genome itself serve as a last resort.  Every call carries
// an evidence string recording how it was derived.
package allele

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ancbio/ancallele/ancallele/align"
)

// Genome is the alignment-store capability the inference consumes.
// *align.Genome satisfies it.
type Genome interface {
	// Name returns the genome name.
	Name() string

	// SequenceStart resolves a sequence name to the start offset of
	// its first base in the genome's coordinate space.
	SequenceStart(name string) (int64, bool)

	// BaseAt returns the base at an absolute position.
	BaseAt(pos int64) (byte, error)

	// AlignedColumn returns the bases of genome target aligned to
	// position refPos of this genome, optionally including
	// duplicated/paralogous copies.
	AlignedColumn(target string, refPos int64, includeDups bool) ([]align.AlignedBase, error)
}

// BaseCount maps a base to its occurrence count in one alignment
// column, gap and unknown symbols excluded.
type BaseCount map[byte]int

func countBases(bases []byte) BaseCount {
	counts := make(BaseCount, 4)
	for _, b := range bases {
		if b == 'N' || b == '-' || b == 0 {
			continue
		}
		counts[b]++
	}
	return counts
}

// Total returns the number of counted bases.
func (c BaseCount) Total() int {
	var n int
	for _, v := range c {
		n += v
	}
	return n
}

// sortedBases returns the observed bases in ascending byte order.
// Map iteration order must never leak into allele calls or evidence
// strings.
func (c BaseCount) sortedBases() []byte {
	bases := make([]byte, 0, len(c))
	for b := range c {
		bases = append(bases, b)
	}
	sort.Slice(bases, func(i, j int) bool { return bases[i] < bases[j] })
	return bases
}

// Majority returns the base with the strictly highest count.  tie is
// true when two or more bases attain the maximum, the returned base is
// 'N' in that case.
func (c BaseCount) Majority() (byte, bool) {
	base := byte('N')
	var max int
	var tie bool
	for _, b := range c.sortedBases() {
		n := c[b]
		if n > max {
			base = b
			max = n
			tie = false
		} else if n == max {
			tie = true
		}
	}
	if tie {
		return 'N', true
	}
	return base, false
}

// Breakdown formats the counts as "A=2,C=1", bases in ascending order.
func (c BaseCount) Breakdown() string {
	var sb strings.Builder
	for i, b := range c.sortedBases() {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%c=%d", b, c[b])
	}
	return sb.String()
}

// resolveFromGenome collects the bases of target aligned to one
// reference position and counts them: direct orthologs first, then
// paralogous copies when the direct lookup comes back empty.  The
// second return value reports whether the paralog search supplied the
// bases.
func resolveFromGenome(ref Genome, pos int64, target string) (BaseCount, bool) {
	bases := collectColumn(ref, pos, target, false)
	if len(bases) > 0 {
		return countBases(bases), false
	}

	bases = collectColumn(ref, pos, target, true)
	return countBases(bases), len(bases) > 0
}

// resolveWithinSpecies searches for paralogous copies of one position
// within the reference genome itself, the query position excluded.
func resolveWithinSpecies(ref Genome, pos int64) BaseCount {
	return countBases(collectColumn(ref, pos, ref.Name(), true))
}

// collectColumn runs one column query and keeps the bases owned by
// target.  A store failure downgrades to an empty column: one bad
// lookup must not abort a batch run.  Self-queries never report the
// query position itself, a position must not count as its own
// evidence.
func collectColumn(ref Genome, pos int64, target string, includeDups bool) []byte {
	column, err := ref.AlignedColumn(target, pos, includeDups)
	if err != nil {
		return nil
	}

	self := target == ref.Name()
	bases := make([]byte, 0, len(column))
	for _, ab := range column {
		if ab.Genome != target {
			continue
		}
		if self && ab.Pos == pos {
			continue
		}
		bases = append(bases, toUpper(ab.Base))
	}
	return bases
}

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
