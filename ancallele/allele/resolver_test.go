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

var errTransient = errors.New("transient query failure")

func TestResolveSingleDirectBase(t *testing.T) {
	ref := &testGenome{
		name: "ref",
		direct: map[string]map[int64][]align.AlignedBase{
			"anc": {7: column("anc", 100, "G")},
		},
	}
	r := &Resolver{Ref: ref, Candidates: []string{"anc"}}

	result := r.Resolve(7)
	if result.Allele != 'G' {
		t.Errorf("expected G, got %c", result.Allele)
	}
	// single candidate: no @genome suffix
	if result.Evidence != "Direct" {
		t.Errorf("expected Direct, got %s", result.Evidence)
	}
	if result.UsedAncestor != "anc" {
		t.Errorf("expected anc, got %s", result.UsedAncestor)
	}
}

func TestResolveMajorityVote(t *testing.T) {
	ref := &testGenome{
		name: "ref",
		direct: map[string]map[int64][]align.AlignedBase{
			"anc": {7: column("anc", 100, "TTC")},
		},
	}
	r := &Resolver{Ref: ref, Candidates: []string{"anc"}}

	result := r.Resolve(7)
	if result.Allele != 'T' {
		t.Errorf("expected T, got %c", result.Allele)
	}
	if result.Evidence != "MajorityVote:C=1,T=2" {
		t.Errorf("unexpected evidence: %s", result.Evidence)
	}
}

func TestResolveTie(t *testing.T) {
	ref := &testGenome{
		name: "ref",
		direct: map[string]map[int64][]align.AlignedBase{
			"anc": {7: column("anc", 100, "ACAC")},
		},
	}
	r := &Resolver{Ref: ref, Candidates: []string{"anc"}}

	result := r.Resolve(7)
	if result.Allele != 'N' {
		t.Errorf("a tie must yield N, got %c", result.Allele)
	}
	if result.Evidence != "MajorityTie:A=2,C=2" {
		t.Errorf("unexpected evidence: %s", result.Evidence)
	}
}

func TestResolveParalogVote(t *testing.T) {
	ref := &testGenome{
		name:   "ref",
		direct: map[string]map[int64][]align.AlignedBase{},
		dups: map[string]map[int64][]align.AlignedBase{
			"anc": {7: column("anc", 100, "GGC")},
		},
	}
	r := &Resolver{Ref: ref, Candidates: []string{"anc"}}

	result := r.Resolve(7)
	if result.Allele != 'G' {
		t.Errorf("expected G, got %c", result.Allele)
	}
	if result.Evidence != "AncestralParalogVote:C=1,G=2" {
		t.Errorf("unexpected evidence: %s", result.Evidence)
	}
}

func TestResolveFallbackShortCircuit(t *testing.T) {
	ref := &testGenome{
		name:   "ref",
		direct: map[string]map[int64][]align.AlignedBase{
			// anc1 has nothing at position 7
			"anc2": {7: column("anc2", 100, "TTT")},
		},
		dups: map[string]map[int64][]align.AlignedBase{},
	}
	r := &Resolver{Ref: ref, Candidates: []string{"anc1", "anc2"}}

	result := r.Resolve(7)
	if result.Allele != 'T' {
		t.Errorf("expected T, got %c", result.Allele)
	}
	if result.Evidence != "MajorityVote:T=3@anc2(fallback:1)" {
		t.Errorf("unexpected evidence: %s", result.Evidence)
	}
	if result.UsedAncestor != "anc2" {
		t.Errorf("expected anc2, got %s", result.UsedAncestor)
	}
	// anc1 direct + anc1 dups + anc2 direct; anc2 must decide the
	// call without further queries
	if ref.queries != 3 {
		t.Errorf("expected 3 column queries, got %d", ref.queries)
	}
}

func TestResolvePrimaryCandidateNoSuffixIndex(t *testing.T) {
	ref := &testGenome{
		name: "ref",
		direct: map[string]map[int64][]align.AlignedBase{
			"anc1": {7: column("anc1", 100, "A")},
		},
	}
	r := &Resolver{Ref: ref, Candidates: []string{"anc1", "anc2"}}

	result := r.Resolve(7)
	if result.Evidence != "Direct@anc1" {
		t.Errorf("unexpected evidence: %s", result.Evidence)
	}
}

func TestResolveWithinSpeciesLastResort(t *testing.T) {
	ref := &testGenome{
		name:   "ref",
		direct: map[string]map[int64][]align.AlignedBase{},
		dups: map[string]map[int64][]align.AlignedBase{
			"ref": {7: {
				{Genome: "ref", Pos: 7, Base: 'G'}, // the query position itself
				{Genome: "ref", Pos: 200, Base: 'A'},
				{Genome: "ref", Pos: 300, Base: 'A'},
				{Genome: "ref", Pos: 400, Base: 'C'},
			}},
		},
	}
	r := &Resolver{Ref: ref, Candidates: []string{"anc"}}

	result := r.Resolve(7)
	if result.Allele != 'A' {
		t.Errorf("expected A, got %c", result.Allele)
	}
	if result.Evidence != "WithinSpeciesParalogVote:A=2,C=1" {
		t.Errorf("unexpected evidence: %s", result.Evidence)
	}
	if result.UsedAncestor != UsedWithinSpecies {
		t.Errorf("expected %s, got %s", UsedWithinSpecies, result.UsedAncestor)
	}
}

func TestResolveWithinSpeciesSingleCopy(t *testing.T) {
	ref := &testGenome{
		name:   "ref",
		direct: map[string]map[int64][]align.AlignedBase{},
		dups: map[string]map[int64][]align.AlignedBase{
			"ref": {7: {
				{Genome: "ref", Pos: 7, Base: 'G'},
				{Genome: "ref", Pos: 200, Base: 'T'},
			}},
		},
	}
	r := &Resolver{Ref: ref, Candidates: []string{"anc"}}

	result := r.Resolve(7)
	if result.Allele != 'T' || result.Evidence != "WithinSpeciesParalog" {
		t.Errorf("unexpected result: %c %s", result.Allele, result.Evidence)
	}
}

func TestResolveMissing(t *testing.T) {
	ref := &testGenome{name: "ref"}

	r := &Resolver{Ref: ref, Candidates: []string{"anc"}}
	result := r.Resolve(7)
	if result.Allele != 'N' || result.Evidence != "Missing(+self)" {
		t.Errorf("unexpected result: %c %s", result.Allele, result.Evidence)
	}
	if result.UsedAncestor != "anc" {
		t.Errorf("expected anc, got %s", result.UsedAncestor)
	}

	r = &Resolver{Ref: ref, Candidates: []string{"anc1", "anc2"}}
	result = r.Resolve(7)
	if result.Evidence != "Missing(tried:2+self)" {
		t.Errorf("unexpected evidence: %s", result.Evidence)
	}
	if result.UsedAncestor != "anc1" {
		t.Errorf("expected anc1, got %s", result.UsedAncestor)
	}

	r = &Resolver{Ref: ref}
	result = r.Resolve(7)
	if result.UsedAncestor != UnknownAncestor {
		t.Errorf("expected %s, got %s", UnknownAncestor, result.UsedAncestor)
	}
}

func TestResolveStoreFailureDowngrades(t *testing.T) {
	ref := &testGenome{
		name: "ref",
		err:  errTransient,
	}
	r := &Resolver{Ref: ref, Candidates: []string{"anc"}}

	result := r.Resolve(7)
	if result.Allele != 'N' || result.Evidence != "Missing(+self)" {
		t.Errorf("a failing store must downgrade to a missing call, got: %c %s",
			result.Allele, result.Evidence)
	}
}
