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

// Package align provides a read-only multi-genome alignment store.
//
// A store file holds a set of genomes (each a list of named sequences
// with their bases concatenated into one coordinate space) and a set of
// alignment columns.  A column is a group of cells, one per aligned
// base, addressed by (genome, absolute position); a cell may be flagged
// as a duplicated/paralogous copy, such cells are only reported when a
// column query asks for duplications.
//
// File layout (all integers big-endian):
//
//	8-byte magic number
//	8-byte meta: main version, minor version, 6 reserved bytes
//	uint32    number of genomes
//	per genome:
//	    uint16+bytes  genome name
//	    uint32        number of sequences
//	    per sequence: uint16+bytes name, uint64 length
//	    bases of all sequences, concatenated, one byte per base
//	uint64    number of columns
//	per column:
//	    uint32 number of cells
//	    per cell: uint32 genome index, uint64 absolute position,
//	              uint8 flags (bit 0: duplicated copy)
//
// Sequence start offsets are not stored, they are recomputed
// cumulatively when the file is opened.
package align

import (
	"encoding/binary"
	"errors"
)

var be = binary.BigEndian

// Magic number for checking file format
var Magic = [8]byte{'.', 'a', 'n', 'c', 'a', 'l', 'n', 's'}

// MainVersion is used for checking compatibility
var MainVersion uint8 = 0

// MinorVersion is less important
var MinorVersion uint8 = 1

// BufferSize is size of reading and writing buffer
var BufferSize = 65536

// ErrInvalidFileFormat means invalid file format.
var ErrInvalidFileFormat = errors.New("align store: invalid binary format")

// ErrVersionMismatch means version mismatch between files and program
var ErrVersionMismatch = errors.New("align store: version mismatch")

// ErrBrokenFile means the file is not complete.
var ErrBrokenFile = errors.New("align store: broken file")

// ErrGenomeNotFound means the genome name is not in the store.
var ErrGenomeNotFound = errors.New("align store: genome not found")

// ErrSeqNotFound means the sequence name is not in the genome.
var ErrSeqNotFound = errors.New("align store: sequence not found")

// ErrPositionOutOfRange means an absolute position is outside of the
// genome's coordinate space.
var ErrPositionOutOfRange = errors.New("align store: position out of range")

// ErrEmptySeq means the sequence has no bases.
var ErrEmptySeq = errors.New("align store: empty sequence")

const dupFlag uint8 = 1

// Sequence describes one named sequence inside a genome.  Start is the
// offset of its first base in the genome's concatenated coordinate
// space; absolute position = Start + within-sequence offset.
type Sequence struct {
	Name   string
	Start  int64
	Length int64
}

// AlignedBase is one cell of an alignment column: a base of some genome
// at an absolute position, with the owning sequence resolved.
type AlignedBase struct {
	Genome string
	Seq    string
	Pos    int64
	Base   byte
}

// cell is the stored form of one column member.
type cell struct {
	genome uint32
	pos    uint64
	flags  uint8
}

func (c cell) dup() bool { return c.flags&dupFlag > 0 }
