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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseText feeds alignment records in the text block format into w.
//
// The format is line-based and whitespace-delimited.  Blank lines and
// lines starting with # are skipped.  Two record types:
//
//	s <genome> <sequence> <bases>
//	a <genome>:<sequence>:<offset>[!] <genome>:<sequence>:<offset>[!] ...
//
// An "s" line adds one sequence.  An "a" line adds one alignment
// column; offsets are 0-based within the named sequence, and a
// trailing "!" marks the cell as a duplicated/paralogous copy.
// Sequences must appear before columns referencing them.
//
// It returns the numbers of sequences and columns added.
func ParseText(r io.Reader, w *Writer) (int, int, error) {
	var nSeqs, nCols int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)

	var nr int
	for scanner.Scan() {
		nr++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "s":
			if len(fields) != 4 {
				return nSeqs, nCols, errors.Errorf("line %d: s records need 3 fields: genome, sequence, bases", nr)
			}
			if err := w.AddSequence(fields[1], fields[2], []byte(fields[3])); err != nil {
				return nSeqs, nCols, errors.Wrapf(err, "line %d", nr)
			}
			nSeqs++
		case "a":
			if len(fields) < 2 {
				return nSeqs, nCols, errors.Errorf("line %d: a records need at least one cell", nr)
			}
			cells := make([]ColumnCell, 0, len(fields)-1)
			for _, token := range fields[1:] {
				c, err := parseCell(token)
				if err != nil {
					return nSeqs, nCols, errors.Wrapf(err, "line %d", nr)
				}
				cells = append(cells, c)
			}
			if err := w.AddColumn(cells); err != nil {
				return nSeqs, nCols, errors.Wrapf(err, "line %d", nr)
			}
			nCols++
		default:
			return nSeqs, nCols, errors.Errorf("line %d: unknown record type: %s", nr, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nSeqs, nCols, err
	}

	return nSeqs, nCols, nil
}

func parseCell(token string) (ColumnCell, error) {
	var c ColumnCell

	if strings.HasSuffix(token, "!") {
		c.Dup = true
		token = token[:len(token)-1]
	}

	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return c, errors.Errorf("invalid cell %q, expecting genome:sequence:offset", token)
	}

	offset, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return c, errors.Errorf("invalid offset in cell %q", token)
	}

	c.Genome = parts[0]
	c.Seq = parts[1]
	c.Offset = offset
	return c, nil
}
