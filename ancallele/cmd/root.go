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
	"runtime"

	colorable "github.com/mattn/go-colorable"
	homedir "github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"
)

// VERSION of this tool
const VERSION = "0.2.1"

var app = "ancallele"

var log = logging.MustGetLogger(app)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   app,
	Short: "infer ancestral alleles from a multi-genome alignment store",
	Long: fmt.Sprintf(`
ancallele v%s: infer ancestral alleles from a multi-genome alignment store

For each reference position, the most likely ancestral base is inferred by
querying one or more ancestor genomes in priority order, falling back to
paralogous copies and finally to within-species paralogs when no direct
orthologous base exists.

Documents: https://github.com/ancbio/ancallele

Main commands:
  1. Building an alignment store from text alignment input
       ancallele build -o aln.anc blocks.tsv
  2. Inferring ancestral alleles for reference positions
       ancallele infer -a aln.anc -g ref -t anc1,anc2 -p sites.bed -o out.tsv

`, VERSION),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	var format = logging.MustStringFormatter(`%{color}%{time:15:04:05.000} %{color}[%{level:.4s}]%{color:reset} %{message}`)
	backend := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	backendFormatter := logging.NewBackendFormatter(backend, format)
	logging.SetBackend(backendFormatter)

	conf := loadConfig()

	RootCmd.PersistentFlags().IntP("threads", "j", conf.Threads,
		formatFlagUsage("Number of CPU cores to use (0 for all)."))
	RootCmd.PersistentFlags().BoolP("quiet", "", conf.Quiet,
		formatFlagUsage("Do not print any verbose information, you can write them to a file with --log."))
	RootCmd.PersistentFlags().StringP("log", "", "",
		formatFlagUsage("Log file."))

	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.SetUsageTemplate(usageTemplate(""))
}

// Config holds per-user default values of the global flags,
// read from ~/.ancallele.toml when present.
type Config struct {
	Threads int  `toml:"threads"`
	Quiet   bool `toml:"quiet"`
}

func loadConfig() Config {
	conf := Config{Threads: runtime.NumCPU()}

	home, err := homedir.Dir()
	if err != nil {
		return conf
	}
	file := filepath.Join(home, "."+app+".toml")
	data, err := os.ReadFile(file)
	if err != nil {
		return conf
	}
	if err = toml.Unmarshal(data, &conf); err != nil {
		log.Warningf("ignoring malformed config file %s: %s", file, err)
		return Config{Threads: runtime.NumCPU()}
	}
	return conf
}

// addLog adds a new logging backend writing to a file, along with the
// default stderr one when verbose is true.
func addLog(file string, verbose bool) *os.File {
	fh, err := os.Create(file)
	checkError(err)

	var format = logging.MustStringFormatter(`%{time:15:04:05.000} [%{level:.4s}] %{message}`)
	backendFile := logging.NewBackendFormatter(logging.NewLogBackend(fh, "", 0), format)

	if verbose {
		var formatStderr = logging.MustStringFormatter(`%{color}%{time:15:04:05.000} %{color}[%{level:.4s}]%{color:reset} %{message}`)
		backendStderr := logging.NewBackendFormatter(logging.NewLogBackend(colorable.NewColorableStderr(), "", 0), formatStderr)
		logging.SetBackend(backendStderr, backendFile)
	} else {
		logging.SetBackend(backendFile)
	}

	return fh
}

func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
