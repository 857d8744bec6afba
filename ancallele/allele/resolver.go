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

import "fmt"

// UsedWithinSpecies marks calls derived from paralogous copies within
// the reference genome itself.
const UsedWithinSpecies = "WithinSpecies"

// UnknownAncestor marks calls made with no candidate genome configured.
const UnknownAncestor = "Unknown"

// Result is one resolved allele call.  Allele is 'N' for ties and
// missing calls.  Evidence records how the call was derived, see the
// package documentation for the tag grammar.
type Result struct {
	Allele       byte
	Evidence     string
	UsedAncestor string
}

// Resolver infers the ancestral allele at absolute reference positions
// by trying candidate ancestor genomes in priority order.  The first
// candidate with any signal wins outright, even if a later one would
// give a stronger majority.
type Resolver struct {
	Ref        Genome
	Candidates []string
}

// Resolve infers the allele for one absolute reference position.
func (r *Resolver) Resolve(pos int64) Result {
	multi := len(r.Candidates) > 1

	for i, name := range r.Candidates {
		counts, usedParalogs := resolveFromGenome(r.Ref, pos, name)
		total := counts.Total()
		if total == 0 {
			continue
		}

		var source string
		if multi {
			source = "@" + name
			if i > 0 {
				source += fmt.Sprintf("(fallback:%d)", i)
			}
		}

		method, vote, tieTag := "Direct", "MajorityVote:", "MajorityTie:"
		if usedParalogs {
			method, vote, tieTag = "AncestralParalog", "AncestralParalogVote:", "AncestralParalogTie:"
		}

		if total == 1 {
			base, _ := counts.Majority()
			return Result{Allele: base, Evidence: method + source, UsedAncestor: name}
		}

		base, tie := counts.Majority()
		if tie {
			return Result{Allele: 'N', Evidence: tieTag + counts.Breakdown(), UsedAncestor: name}
		}
		return Result{Allele: base, Evidence: vote + counts.Breakdown() + source, UsedAncestor: name}
	}

	// last resort: paralogous copies within the reference genome itself
	counts := resolveWithinSpecies(r.Ref, pos)
	if total := counts.Total(); total > 0 {
		if total == 1 {
			base, _ := counts.Majority()
			return Result{Allele: base, Evidence: "WithinSpeciesParalog", UsedAncestor: UsedWithinSpecies}
		}

		base, tie := counts.Majority()
		if tie {
			return Result{Allele: 'N', Evidence: "WithinSpeciesParalogTie:" + counts.Breakdown(), UsedAncestor: UsedWithinSpecies}
		}
		return Result{Allele: base, Evidence: "WithinSpeciesParalogVote:" + counts.Breakdown(), UsedAncestor: UsedWithinSpecies}
	}

	evidence := "Missing(+self)"
	if multi {
		evidence = fmt.Sprintf("Missing(tried:%d+self)", len(r.Candidates))
	}
	used := UnknownAncestor
	if len(r.Candidates) > 0 {
		used = r.Candidates[0]
	}
	return Result{Allele: 'N', Evidence: evidence, UsedAncestor: used}
}
