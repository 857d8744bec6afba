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
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/ancbio/ancallele/ancallele/align"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an alignment store from text alignment input",
	Long: `Build an alignment store from text alignment input

Input format (line-based, whitespace-delimited, # for comments):

  s <genome> <sequence> <bases>
  a <genome>:<sequence>:<offset>[!] <genome>:<sequence>:<offset>[!] ...

An "s" line adds one sequence of a genome.  An "a" line adds one
alignment column linking bases of several genomes; offsets are 0-based
within the named sequence, a trailing "!" marks the cell as a
duplicated/paralogous copy.  Sequences must be defined before columns
referencing them.

Input files are given as positional arguments, or discovered from a
directory with -I/--in-dir.  All records end up in one store file.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		outFile := getFlagString(cmd, "out-file")
		if outFile == "" {
			checkError(fmt.Errorf("flag -o/--out-file needed"))
		}
		inDir := getFlagString(cmd, "in-dir")
		reFileStr := getFlagString(cmd, "file-regexp")

		outputLog := opt.Verbose || opt.Log2File

		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
		}()

		// ---------------------------------------------------------------

		files := args
		if inDir != "" {
			if len(args) > 0 {
				checkError(fmt.Errorf("given files should not be mixed with -I/--in-dir"))
			}
			existed, err := pathutil.DirExists(inDir)
			checkError(errors.Wrap(err, inDir))
			if !existed {
				checkError(fmt.Errorf("input directory not found: %s", inDir))
			}

			reFile, err := regexp.Compile(reFileStr)
			if err != nil {
				checkError(fmt.Errorf("invalid value of --file-regexp: %s", reFileStr))
			}

			files, err = getFileListFromDir(inDir, reFile, opt.NumCPUs)
			checkError(errors.Wrap(err, inDir))
			sort.Strings(files)
		} else {
			for _, file := range files {
				if isStdin(file) {
					continue
				}
				existed, err := pathutil.Exists(file)
				checkError(errors.Wrap(err, file))
				if !existed {
					checkError(fmt.Errorf("input file not found: %s", file))
				}
			}
		}
		if len(files) == 0 {
			checkError(fmt.Errorf("input files needed, or a directory via -I/--in-dir"))
		}

		if outputLog {
			log.Infof("ancallele v%s", VERSION)
			log.Infof("building alignment store from %d input file(s)", len(files))
		}

		// ---------------------------------------------------------------

		w, err := align.NewWriter(outFile)
		if err != nil {
			checkError(errors.Wrapf(err, "failed to create store file: %s", outFile))
		}

		var pbs *mpb.Progress
		var bar *mpb.Bar
		showProgress := opt.Verbose && len(files) > 1
		if showProgress {
			pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(int64(len(files)),
				mpb.PrependDecorators(
					decor.Name("processed files: ", decor.WC{W: len("processed files: "), C: decor.DindentRight}),
					decor.Name("", decor.WCSyncSpaceR),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
					decor.EwmaETA(decor.ET_STYLE_GO, 3),
					decor.OnComplete(decor.Name(""), ". done"),
				),
			)
		}

		var nSeqs, nCols int
		for _, file := range files {
			t := time.Now()

			fh, err := xopen.Ropen(file)
			if err != nil {
				checkError(errors.Wrap(err, file))
			}
			ns, nc, err := align.ParseText(fh, w)
			if err != nil {
				checkError(errors.Wrap(err, file))
			}
			checkError(fh.Close())

			nSeqs += ns
			nCols += nc

			if showProgress {
				bar.EwmaIncrBy(1, time.Since(t))
			}
		}
		if showProgress {
			pbs.Wait()
		}

		checkError(w.Close())

		if outputLog {
			log.Infof("saved %d genomes, %s sequences and %s alignment columns to %s",
				w.NumGenomes(), humanize.Comma(int64(nSeqs)), humanize.Comma(int64(nCols)), outFile)
		}
	},
}

func init() {
	RootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("out-file", "o", "",
		formatFlagUsage("Output alignment store file."))

	buildCmd.Flags().StringP("in-dir", "I", "",
		formatFlagUsage("Directory containing input files. Directory symlinks are followed."))

	buildCmd.Flags().StringP("file-regexp", "r", `\.(tsv|txt)(\.gz)?$`,
		formatFlagUsage("Regular expression for matching input files in -I/--in-dir."))

	buildCmd.SetUsageTemplate(usageTemplate("[input files]"))
}
