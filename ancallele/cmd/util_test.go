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

package cmd

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/shenwei356/xopen"
)

// An unwritable output path must surface an error from outStream
// itself, so commands can fail before processing anything.
func TestOutStreamUnwritablePath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "no", "such", "dir", "out.tsv")
	_, _, _, err := outStream(file, false, -1)
	if err == nil {
		t.Error("expected an error for an unwritable output path")
	}
}

func TestOutStreamGzipRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.tsv.gz")

	outfh, gw, w, err := outStream(file, true, -1)
	if err != nil {
		t.Fatal(err)
	}
	outfh.WriteString("chr1\t7\t8\n")
	if err = outfh.Flush(); err != nil {
		t.Fatal(err)
	}
	if err = gw.Close(); err != nil {
		t.Fatal(err)
	}
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}

	fh, err := xopen.Ropen(file)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(fh)
	if err != nil {
		t.Fatal(err)
	}
	fh.Close()

	if string(data) != "chr1\t7\t8\n" {
		t.Errorf("unexpected content: %q", data)
	}
}
