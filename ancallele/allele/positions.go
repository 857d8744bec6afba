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
	"bufio"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
)

// Position is one query interval from a positions file: 0-based,
// half-open coordinates on a named reference sequence.  OriginalOrder
// is the index of the row among the kept input rows, used only to
// restore output order after locality-sorted processing.
type Position struct {
	Chrom string
	Start int64
	End   int64

	OriginalOrder int
}

// ReadPositions loads reference intervals from a BED/GFF-like file
// with whitespace/tab-delimited "chrom start end ..." rows.  Blank
// lines, lines starting with #, and rows failing to parse three fields
// are skipped.  Supports plain or gzip-compressed files and "-" for
// stdin.
func ReadPositions(file string) ([]Position, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, err
	}

	positions := make([]Position, 0, 1024)

	scanner := bufio.NewScanner(fh)
	var order int
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			continue
		}

		positions = append(positions, Position{
			Chrom:         fields[0],
			Start:         start,
			End:           end,
			OriginalOrder: order,
		})
		order++
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	return positions, fh.Close()
}
