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
	"errors"
	"testing"

	"github.com/ancbio/ancallele/ancallele/align"
)

// testGenome is a map-backed Genome for exercising the inference
// without a store file.
type testGenome struct {
	name   string
	starts map[string]int64
	bases  map[int64]byte

	// columns per target genome, per reference position
	direct map[string]map[int64][]align.AlignedBase
	dups   map[string]map[int64][]align.AlignedBase

	err     error
	queries int
}

func (g *testGenome) Name() string { return g.name }

func (g *testGenome) SequenceStart(name string) (int64, bool) {
	start, ok := g.starts[name]
	return start, ok
}

func (g *testGenome) BaseAt(pos int64) (byte, error) {
	b, ok := g.bases[pos]
	if !ok {
		return 0, errors.New("position out of range")
	}
	return b, nil
}

func (g *testGenome) AlignedColumn(target string, refPos int64, includeDups bool) ([]align.AlignedBase, error) {
	g.queries++
	if g.err != nil {
		return nil, g.err
	}
	columns := g.direct
	if includeDups {
		columns = g.dups
	}
	return columns[target][refPos], nil
}

func column(genome string, pos int64, bases string) []align.AlignedBase {
	column := make([]align.AlignedBase, 0, len(bases))
	for i, b := range []byte(bases) {
		column = append(column, align.AlignedBase{
			Genome: genome,
			Pos:    pos + int64(i),
			Base:   b,
		})
	}
	return column
}

func TestBaseCountMajority(t *testing.T) {
	tests := []struct {
		bases  string
		allele byte
		tie    bool
	}{
		{"T", 'T', false},
		{"AAAC", 'A', false},
		{"AACC", 'N', true},
		{"GGTTA", 'N', true},
		{"CAGAA", 'A', false},
		{"", 'N', false},
	}
	for _, test := range tests {
		counts := countBases([]byte(test.bases))
		allele, tie := counts.Majority()
		if allele != test.allele || tie != test.tie {
			t.Errorf("bases %q: expected (%c, %v), got (%c, %v)",
				test.bases, test.allele, test.tie, allele, tie)
		}
	}
}

func TestBaseCountBreakdownSorted(t *testing.T) {
	counts := countBases([]byte("TGAAG"))
	expected := "A=2,G=2,T=1"
	if counts.Breakdown() != expected {
		t.Errorf("expected %s, got %s", expected, counts.Breakdown())
	}
}

func TestCountBasesFiltersGapsAndUnknowns(t *testing.T) {
	counts := countBases([]byte{'A', '-', 'N', 0, 'A', 'C'})
	if counts.Total() != 3 {
		t.Errorf("expected 3 counted bases, got %d", counts.Total())
	}
	if counts['A'] != 2 || counts['C'] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestResolveFromGenomeDirectFirst(t *testing.T) {
	ref := &testGenome{
		name: "ref",
		direct: map[string]map[int64][]align.AlignedBase{
			"anc": {7: column("anc", 100, "G")},
		},
		dups: map[string]map[int64][]align.AlignedBase{
			"anc": {7: column("anc", 100, "GTT")},
		},
	}

	counts, usedParalogs := resolveFromGenome(ref, 7, "anc")
	if usedParalogs {
		t.Error("direct hit should not fall through to the paralog search")
	}
	if counts.Total() != 1 || counts['G'] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestResolveFromGenomeParalogFallback(t *testing.T) {
	ref := &testGenome{
		name:   "ref",
		direct: map[string]map[int64][]align.AlignedBase{},
		dups: map[string]map[int64][]align.AlignedBase{
			"anc": {7: column("anc", 100, "TTC")},
		},
	}

	counts, usedParalogs := resolveFromGenome(ref, 7, "anc")
	if !usedParalogs {
		t.Error("expected the paralog search to supply the bases")
	}
	if counts['T'] != 2 || counts['C'] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestCollectColumnExcludesSelf(t *testing.T) {
	// a within-species search at position 7 must not count position 7
	ref := &testGenome{
		name: "ref",
		dups: map[string]map[int64][]align.AlignedBase{
			"ref": {7: {
				{Genome: "ref", Pos: 7, Base: 'A'},
				{Genome: "ref", Pos: 200, Base: 'C'},
				{Genome: "ref", Pos: 300, Base: 'C'},
			}},
		},
	}

	bases := collectColumn(ref, 7, "ref", true)
	if len(bases) != 2 {
		t.Errorf("expected 2 bases, got %d: %q", len(bases), bases)
		return
	}
	for _, b := range bases {
		if b != 'C' {
			t.Errorf("the query position leaked into its own evidence: %q", bases)
		}
	}
}

func TestCollectColumnIgnoresOtherGenomes(t *testing.T) {
	ref := &testGenome{
		name: "ref",
		direct: map[string]map[int64][]align.AlignedBase{
			"anc": {7: {
				{Genome: "anc", Pos: 100, Base: 'g'},
				{Genome: "other", Pos: 900, Base: 'T'},
			}},
		},
	}

	bases := collectColumn(ref, 7, "anc", false)
	if len(bases) != 1 || bases[0] != 'G' {
		t.Errorf("expected [G], got %q", bases)
	}
}

func TestCollectColumnStoreFailure(t *testing.T) {
	ref := &testGenome{
		name: "ref",
		err:  errors.New("transient query failure"),
	}

	if bases := collectColumn(ref, 7, "anc", false); bases != nil {
		t.Errorf("a store failure should yield no bases, got %q", bases)
	}
}
