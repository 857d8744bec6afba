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
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ancbio/ancallele/ancallele/align"
	"github.com/ancbio/ancallele/ancallele/allele"
)

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Infer ancestral alleles for reference positions",
	Long: `Infer ancestral alleles for reference positions

For each reference position, candidate ancestor genomes are consulted in
the order given by -t/--target-genomes: direct orthologous bases first,
then duplicated/paralogous copies of the same genome.  The first
candidate with any aligned base decides the call; multiple bases are
reduced by majority vote, with ties reported as N.  When every
candidate comes back empty, paralogous copies within the reference
genome itself serve as a last resort.

Input:
  Positions are whitespace/tab-delimited "chrom start end ..." rows
  (0-based, half-open).  Blank lines, lines starting with #, and
  malformed rows are skipped.

Output format:
  Tab-delimited rows, one per valid input position, in input order:

    1. chrom     reference sequence name
    2. start     0-based start
    3. end       end (exclusive)
    4. refBase   reference base at the position
    5. ancestor  genome that produced the call, "WithinSpecies" for
                 within-reference paralogs
    6. allele    inferred ancestral base, or N
    7. evidence  how the call was derived

Evidence tags:
  Direct                        single direct orthologous base
  AncestralParalog              single paralogous copy
  MajorityVote:<b=n,...>        majority over direct orthologs
  AncestralParalogVote:<...>    majority over paralogous copies
  MajorityTie:<...>             tied direct vote, allele is N
  AncestralParalogTie:<...>     tied paralog vote, allele is N
  WithinSpeciesParalog[Vote:|Tie:]   last-resort within-reference call
  Missing(+self)                nothing found, one candidate tried
  Missing(tried:<k>+self)       nothing found, k candidates tried

  With more than one candidate genome, non-tie, non-missing tags carry
  a "@<genome>" suffix, plus "(fallback:<i>)" when the i-th candidate
  (0-based) decided the call for i > 0.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		outFile := getFlagString(cmd, "out-file")

		var fhLog *os.File
		if opt.Log2File {
			ro, err := filepath.Abs(outFile)
			if err != nil {
				checkError(fmt.Errorf("failed to check output file: %s", err))
			}
			rl, err := filepath.Abs(opt.LogFile)
			if err != nil {
				checkError(fmt.Errorf("failed to check log file: %s", err))
			}
			if ro == rl {
				checkError(fmt.Errorf("output file and log file should not be the same: %s", outFile))
			}
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}

		outputLog := opt.Verbose || opt.Log2File

		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		// ---------------------------------------------------------------

		alnFile := getFlagString(cmd, "alignment")
		if alnFile == "" {
			checkError(fmt.Errorf("flag -a/--alignment needed"))
		}
		refName := getFlagString(cmd, "ref-genome")
		if refName == "" {
			checkError(fmt.Errorf("flag -g/--ref-genome needed"))
		}
		targets := getFlagStringSlice(cmd, "target-genomes")
		if len(targets) == 0 {
			checkError(fmt.Errorf("flag -t/--target-genomes needed"))
		}
		posFile := getFlagString(cmd, "positions")
		if posFile == "" {
			checkError(fmt.Errorf("flag -p/--positions needed"))
		}
		noSort := getFlagBool(cmd, "no-sort")
		progress := getFlagNonNegativeInt(cmd, "progress")

		if outputLog {
			log.Infof("ancallele v%s", VERSION)
			log.Info("  https://github.com/ancbio/ancallele")
			log.Info()
		}

		// ---------------------------------------------------------------

		// an unwritable output file must fail before any position is
		// processed
		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		store, err := align.Open(alnFile)
		if err != nil {
			checkError(errors.Wrapf(err, "failed to open alignment store: %s", alnFile))
		}

		ref, err := store.OpenGenome(refName)
		if err != nil {
			checkError(fmt.Errorf("reference genome %s not found in %s", refName, alnFile))
		}
		for _, name := range targets {
			if _, err = store.OpenGenome(name); err != nil {
				checkError(fmt.Errorf("target genome %s not found in %s", name, alnFile))
			}
		}
		if outputLog && len(targets) > 1 {
			log.Infof("using %d candidate ancestor genomes: %s", len(targets), strings.Join(targets, ", "))
		}

		positions, err := allele.ReadPositions(posFile)
		if err != nil {
			checkError(errors.Wrapf(err, "failed to read positions file: %s", posFile))
		}
		if len(positions) == 0 {
			checkError(fmt.Errorf("no valid positions found in %s", posFile))
		}
		if outputLog {
			log.Infof("loaded %s positions from %s", humanize.Comma(int64(len(positions))), posFile)
			if !noSort {
				log.Info("sorting positions by (chrom, start) for query locality")
			}
		}

		// ---------------------------------------------------------------

		scheduler := &allele.Scheduler{
			Ref:           ref,
			Resolver:      &allele.Resolver{Ref: ref, Candidates: targets},
			NoSort:        noSort,
			ProgressEvery: progress,
		}
		if outputLog {
			scheduler.OnProgress = func(processed, total int) {
				log.Infof("processed %d/%d positions", processed, total)
			}
		}

		rows := scheduler.Run(positions)

		// ---------------------------------------------------------------

		for _, row := range rows {
			fmt.Fprintf(outfh, "%s\t%d\t%d\t%c\t%s\t%c\t%s\n",
				row.Chrom, row.Start, row.End, row.RefBase, row.UsedAncestor, row.Allele, row.Evidence)
		}

		if outputLog {
			log.Infof("%s rows saved to %s", humanize.Comma(int64(len(rows))), outFile)
		}
	},
}

func init() {
	RootCmd.AddCommand(inferCmd)

	inferCmd.Flags().StringP("alignment", "a", "",
		formatFlagUsage(`Alignment store file created by "ancallele build".`))

	inferCmd.Flags().StringP("ref-genome", "g", "",
		formatFlagUsage("Reference genome name."))

	inferCmd.Flags().StringSliceP("target-genomes", "t", nil,
		formatFlagUsage("Ancestor genome name, or a comma-separated list of genomes to try in order."))

	inferCmd.Flags().StringP("positions", "p", "",
		formatFlagUsage(`BED/GFF-like file with reference coordinates, supports the ".gz" suffix ("-" for stdin).`))

	inferCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	inferCmd.Flags().BoolP("no-sort", "", false,
		formatFlagUsage("Disable the position sorting optimization, positions are processed in input order."))

	inferCmd.Flags().IntP("progress", "", 0,
		formatFlagUsage("Report progress every N positions processed (0 for no reports)."))

	inferCmd.SetUsageTemplate(usageTemplate(""))
}
