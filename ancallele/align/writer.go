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
	"bytes"
	"os"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
)

// ColumnCell addresses one member of an alignment column while
// building a store: a base of sequence Seq of genome Genome at
// within-sequence offset Offset.  Dup marks a duplicated/paralogous
// copy, reported only by duplication-aware column queries.
type ColumnCell struct {
	Genome string
	Seq    string
	Offset int64
	Dup    bool
}

type writerGenome struct {
	name   string
	seqs   []Sequence
	seqIdx map[string]int
	bases  []byte
}

// Writer accumulates genomes, sequences and alignment columns, and
// serializes them into a store file on Close.  All sequences of a
// genome must be added before any column referencing them.
type Writer struct {
	file string
	fh   *os.File

	genomes []*writerGenome
	gIdx    map[string]int
	columns [][]cell
	nCells  int
}

// NewWriter creates a store file for writing.
func NewWriter(file string) (*Writer, error) {
	fh, err := os.Create(file)
	if err != nil {
		return nil, err
	}
	return &Writer{
		file:    file,
		fh:      fh,
		genomes: make([]*writerGenome, 0, 8),
		gIdx:    make(map[string]int, 8),
		columns: make([][]cell, 0, 1024),
	}, nil
}

// AddSequence appends a named sequence to a genome, creating the genome
// on first use.  Bases are validated against the redundant DNA alphabet
// and stored uppercase.
func (w *Writer) AddSequence(genome string, seqName string, bases []byte) error {
	if len(bases) == 0 {
		return errors.Wrapf(ErrEmptySeq, "%s:%s", genome, seqName)
	}
	if err := seq.DNAredundant.IsValid(bases); err != nil {
		return errors.Wrapf(err, "sequence %s:%s", genome, seqName)
	}

	i, ok := w.gIdx[genome]
	if !ok {
		i = len(w.genomes)
		w.gIdx[genome] = i
		w.genomes = append(w.genomes, &writerGenome{
			name:   genome,
			seqs:   make([]Sequence, 0, 8),
			seqIdx: make(map[string]int, 8),
			bases:  make([]byte, 0, 1<<10),
		})
	}
	g := w.genomes[i]

	if _, ok = g.seqIdx[seqName]; ok {
		return errors.Errorf("duplicated sequence %s in genome %s", seqName, genome)
	}

	start := int64(len(g.bases))
	g.seqIdx[seqName] = len(g.seqs)
	g.seqs = append(g.seqs, Sequence{Name: seqName, Start: start, Length: int64(len(bases))})
	g.bases = append(g.bases, bytes.ToUpper(bases)...)
	return nil
}

// AddColumn records one alignment column.  Every cell must reference a
// sequence already added with AddSequence, with its offset in range.
func (w *Writer) AddColumn(cells []ColumnCell) error {
	if len(cells) == 0 {
		return errors.New("align store: empty column")
	}

	stored := make([]cell, 0, len(cells))
	for _, c := range cells {
		i, ok := w.gIdx[c.Genome]
		if !ok {
			return errors.Wrap(ErrGenomeNotFound, c.Genome)
		}
		g := w.genomes[i]
		j, ok := g.seqIdx[c.Seq]
		if !ok {
			return errors.Wrapf(ErrSeqNotFound, "%s:%s", c.Genome, c.Seq)
		}
		s := g.seqs[j]
		if c.Offset < 0 || c.Offset >= s.Length {
			return errors.Wrapf(ErrPositionOutOfRange, "%s:%s:%d", c.Genome, c.Seq, c.Offset)
		}

		var flags uint8
		if c.Dup {
			flags |= dupFlag
		}
		stored = append(stored, cell{
			genome: uint32(i),
			pos:    uint64(s.Start + c.Offset),
			flags:  flags,
		})
	}

	w.columns = append(w.columns, stored)
	w.nCells += len(stored)
	return nil
}

// NumGenomes returns the number of genomes added so far.
func (w *Writer) NumGenomes() int { return len(w.genomes) }

// NumSequences returns the number of sequences added so far.
func (w *Writer) NumSequences() int {
	var n int
	for _, g := range w.genomes {
		n += len(g.seqs)
	}
	return n
}

// NumColumns returns the number of columns added so far.
func (w *Writer) NumColumns() int { return len(w.columns) }

// Close serializes all accumulated data and closes the file.
func (w *Writer) Close() error {
	bw := bufio.NewWriterSize(w.fh, BufferSize)

	buf := make([]byte, 24)

	// 8-byte magic number
	if _, err := bw.Write(Magic[:]); err != nil {
		return err
	}

	// 8-byte meta info, only 2 bytes used and the rest is reserved
	copy(buf[:8], []byte{MainVersion, MinorVersion, 0, 0, 0, 0, 0, 0})
	if _, err := bw.Write(buf[:8]); err != nil {
		return err
	}

	// genome table
	be.PutUint32(buf[:4], uint32(len(w.genomes)))
	if _, err := bw.Write(buf[:4]); err != nil {
		return err
	}
	for _, g := range w.genomes {
		if err := writeString(bw, buf, g.name); err != nil {
			return err
		}

		be.PutUint32(buf[:4], uint32(len(g.seqs)))
		if _, err := bw.Write(buf[:4]); err != nil {
			return err
		}
		for _, s := range g.seqs {
			if err := writeString(bw, buf, s.Name); err != nil {
				return err
			}
			be.PutUint64(buf[:8], uint64(s.Length))
			if _, err := bw.Write(buf[:8]); err != nil {
				return err
			}
		}

		if _, err := bw.Write(g.bases); err != nil {
			return err
		}
	}

	// column table
	be.PutUint64(buf[:8], uint64(len(w.columns)))
	if _, err := bw.Write(buf[:8]); err != nil {
		return err
	}
	for _, cells := range w.columns {
		be.PutUint32(buf[:4], uint32(len(cells)))
		if _, err := bw.Write(buf[:4]); err != nil {
			return err
		}
		for _, c := range cells {
			be.PutUint32(buf[:4], c.genome)
			be.PutUint64(buf[4:12], c.pos)
			buf[12] = c.flags
			if _, err := bw.Write(buf[:13]); err != nil {
				return err
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return w.fh.Close()
}

func writeString(bw *bufio.Writer, buf []byte, s string) error {
	be.PutUint16(buf[:2], uint16(len(s)))
	if _, err := bw.Write(buf[:2]); err != nil {
		return err
	}
	_, err := bw.WriteString(s)
	return err
}
