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
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ancbio/ancallele/ancallele/align"
)

var genomesCmd = &cobra.Command{
	Use:   "genomes",
	Short: "View genomes and sequences in an alignment store",
	Long: `View genomes and sequences in an alignment store

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		// ------------------------------

		alnFile := getFlagString(cmd, "alignment")
		if alnFile == "" {
			checkError(fmt.Errorf("flag -a/--alignment needed"))
		}
		listSeqs := getFlagBool(cmd, "sequences")

		outFile := getFlagString(cmd, "out-file")

		// output file handler
		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		// ---------------------------------------------------------------

		store, err := align.Open(alnFile)
		if err != nil {
			checkError(errors.Wrapf(err, "failed to open alignment store: %s", alnFile))
		}

		if listSeqs {
			outfh.WriteString("genome\tseq\tstart\tlength\n")
			for _, g := range store.Genomes() {
				for _, s := range g.Sequences() {
					fmt.Fprintf(outfh, "%s\t%s\t%d\t%d\n", g.Name(), s.Name, s.Start, s.Length)
				}
			}
			return
		}

		outfh.WriteString("genome\tseqs\tbases\n")
		for _, g := range store.Genomes() {
			fmt.Fprintf(outfh, "%s\t%d\t%d\n", g.Name(), g.NumSeqs(), g.Len())
		}
	},
}

func init() {
	RootCmd.AddCommand(genomesCmd)

	genomesCmd.Flags().StringP("alignment", "a", "",
		formatFlagUsage(`Alignment store file created by "ancallele build".`))

	genomesCmd.Flags().BoolP("sequences", "s", false,
		formatFlagUsage("List every sequence with its start offset and length."))

	genomesCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	genomesCmd.SetUsageTemplate(usageTemplate(""))
}
