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

package align

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rdleal/intervalst/interval"
)

// Store is an opened alignment store, fully loaded into memory.
type Store struct {
	file    string
	genomes []*Genome
	byName  map[string]*Genome
	columns [][]cell
}

// Genome is a handle to one genome of a store.
type Genome struct {
	name  string
	seqs  []Sequence
	bases []byte // concatenated bases of all sequences

	store  *Store
	seqIdx map[string]int
	tree   *interval.SearchTree[int, int64] // position -> sequence index
	cols   map[int64]int                    // absolute position -> column index
}

// Open reads a whole store file into memory.
func Open(file string) (*Store, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	r := bufio.NewReaderSize(fh, BufferSize)

	buf := make([]byte, 24)

	// magic number
	if _, err = io.ReadFull(r, buf[:8]); err != nil {
		return nil, ErrInvalidFileFormat
	}
	for i := 0; i < 8; i++ {
		if buf[i] != Magic[i] {
			return nil, ErrInvalidFileFormat
		}
	}

	// version information
	if _, err = io.ReadFull(r, buf[:8]); err != nil {
		return nil, ErrInvalidFileFormat
	}
	if buf[0] != MainVersion {
		return nil, ErrVersionMismatch
	}

	s := &Store{file: file}

	// genome table
	if _, err = io.ReadFull(r, buf[:4]); err != nil {
		return nil, ErrBrokenFile
	}
	nGenomes := int(be.Uint32(buf[:4]))
	s.genomes = make([]*Genome, 0, nGenomes)
	s.byName = make(map[string]*Genome, nGenomes)

	for i := 0; i < nGenomes; i++ {
		g, err := readGenome(r, buf)
		if err != nil {
			return nil, err
		}
		g.store = s
		s.genomes = append(s.genomes, g)
		s.byName[g.name] = g
	}

	// column table
	if _, err = io.ReadFull(r, buf[:8]); err != nil {
		return nil, ErrBrokenFile
	}
	nColumns := int(be.Uint64(buf[:8]))
	s.columns = make([][]cell, 0, nColumns)

	for i := 0; i < nColumns; i++ {
		if _, err = io.ReadFull(r, buf[:4]); err != nil {
			return nil, ErrBrokenFile
		}
		nCells := int(be.Uint32(buf[:4]))
		cells := make([]cell, nCells)
		for j := 0; j < nCells; j++ {
			if _, err = io.ReadFull(r, buf[:13]); err != nil {
				return nil, ErrBrokenFile
			}
			cells[j] = cell{
				genome: be.Uint32(buf[:4]),
				pos:    be.Uint64(buf[4:12]),
				flags:  buf[12],
			}
			if int(cells[j].genome) >= nGenomes {
				return nil, ErrBrokenFile
			}
		}
		s.columns = append(s.columns, cells)
	}

	// index columns by the positions of their cells
	for i, cells := range s.columns {
		for _, c := range cells {
			g := s.genomes[c.genome]
			if int64(c.pos) >= int64(len(g.bases)) {
				return nil, ErrBrokenFile
			}
			g.cols[int64(c.pos)] = i
		}
	}

	return s, nil
}

func readGenome(r *bufio.Reader, buf []byte) (*Genome, error) {
	name, err := readString(r, buf)
	if err != nil {
		return nil, err
	}

	if _, err = io.ReadFull(r, buf[:4]); err != nil {
		return nil, ErrBrokenFile
	}
	nSeqs := int(be.Uint32(buf[:4]))

	g := &Genome{
		name:   name,
		seqs:   make([]Sequence, 0, nSeqs),
		seqIdx: make(map[string]int, nSeqs),
		cols:   make(map[int64]int, 1024),
	}
	g.tree = interval.NewSearchTree[int, int64](cmpPos)

	var start int64
	for i := 0; i < nSeqs; i++ {
		seqName, err := readString(r, buf)
		if err != nil {
			return nil, err
		}
		if _, err = io.ReadFull(r, buf[:8]); err != nil {
			return nil, ErrBrokenFile
		}
		length := int64(be.Uint64(buf[:8]))
		if length == 0 {
			return nil, ErrEmptySeq
		}

		g.seqs = append(g.seqs, Sequence{Name: seqName, Start: start, Length: length})
		g.seqIdx[seqName] = i
		if err = g.tree.Insert(start, start+length, i); err != nil {
			return nil, errors.Wrap(err, "indexing sequence intervals")
		}
		start += length
	}

	g.bases = make([]byte, start)
	if _, err = io.ReadFull(r, g.bases); err != nil {
		return nil, ErrBrokenFile
	}

	return g, nil
}

func readString(r *bufio.Reader, buf []byte) (string, error) {
	if _, err := io.ReadFull(r, buf[:2]); err != nil {
		return "", ErrBrokenFile
	}
	n := int(be.Uint16(buf[:2]))
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", ErrBrokenFile
	}
	return string(b), nil
}

func cmpPos(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// File returns the path the store was opened from.
func (s *Store) File() string { return s.file }

// Genomes returns all genome handles in file order.
func (s *Store) Genomes() []*Genome { return s.genomes }

// OpenGenome resolves a genome name to its handle.
func (s *Store) OpenGenome(name string) (*Genome, error) {
	g, ok := s.byName[name]
	if !ok {
		return nil, errors.Wrap(ErrGenomeNotFound, name)
	}
	return g, nil
}

// Name returns the genome name.
func (g *Genome) Name() string { return g.name }

// NumSeqs returns the number of sequences.
func (g *Genome) NumSeqs() int { return len(g.seqs) }

// Len returns the total number of bases.
func (g *Genome) Len() int64 { return int64(len(g.bases)) }

// Sequences returns all sequences in coordinate order.
func (g *Genome) Sequences() []Sequence { return g.seqs }

// Sequence resolves a sequence name.
func (g *Genome) Sequence(name string) (Sequence, bool) {
	i, ok := g.seqIdx[name]
	if !ok {
		return Sequence{}, false
	}
	return g.seqs[i], true
}

// SequenceStart returns the start offset of a named sequence in the
// genome's concatenated coordinate space.
func (g *Genome) SequenceStart(name string) (int64, bool) {
	s, ok := g.Sequence(name)
	if !ok {
		return 0, false
	}
	return s.Start, true
}

// SequenceAt resolves an absolute position to its owning sequence.
func (g *Genome) SequenceAt(pos int64) (Sequence, bool) {
	i, ok := g.tree.AnyIntersection(pos, pos+1)
	if !ok {
		return Sequence{}, false
	}
	// a query touching a sequence boundary may hit a neighbor,
	// sequences are contiguous so settle ownership by bounds
	for i > 0 && pos < g.seqs[i].Start {
		i--
	}
	for i < len(g.seqs)-1 && pos >= g.seqs[i].Start+g.seqs[i].Length {
		i++
	}
	s := g.seqs[i]
	if pos < s.Start || pos >= s.Start+s.Length {
		return Sequence{}, false
	}
	return s, true
}

// BaseAt returns the base at an absolute position.
func (g *Genome) BaseAt(pos int64) (byte, error) {
	if pos < 0 || pos >= int64(len(g.bases)) {
		return 0, ErrPositionOutOfRange
	}
	return g.bases[pos], nil
}

// AlignedColumn returns the bases of genome target aligned to position
// refPos of this genome.  Cells flagged as duplicated/paralogous copies
// are only included when includeDups is true.  A position with no
// column, or a column with no cell in target, yields an empty result
// and no error.
func (g *Genome) AlignedColumn(target string, refPos int64, includeDups bool) ([]AlignedBase, error) {
	tgt, ok := g.store.byName[target]
	if !ok {
		return nil, errors.Wrap(ErrGenomeNotFound, target)
	}
	if refPos < 0 || refPos >= int64(len(g.bases)) {
		return nil, ErrPositionOutOfRange
	}

	colIdx, ok := g.cols[refPos]
	if !ok {
		return nil, nil
	}

	var column []AlignedBase
	for _, c := range g.store.columns[colIdx] {
		if !includeDups && c.dup() {
			continue
		}
		owner := g.store.genomes[c.genome]
		if owner != tgt {
			continue
		}
		pos := int64(c.pos)
		seq, _ := owner.SequenceAt(pos)
		column = append(column, AlignedBase{
			Genome: owner.name,
			Seq:    seq.Name,
			Pos:    pos,
			Base:   owner.bases[pos],
		})
	}
	return column, nil
}
