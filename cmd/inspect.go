/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/internal/ioarchive"
	"github.com/gnames/gnabcd/internal/ioexport"
	"github.com/gnames/gnabcd/internal/iofs"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/mapper"
	"github.com/gnames/gnabcd/pkg/parserpool"
	"github.com/spf13/cobra"
)

// getInspectCmd returns the inspect command.
func getInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect <archive.zip|url>",
		Short: "Map units of one archive without touching the store",
		Long: `Inspect parses a single ABCD archive, maps its units with the
field catalog and writes them as delimited text.

The archive can be a local file or a URL. Every row contains the unit
key, validity, WKT geometry, canonical name and one column per unit
field of the catalog. Repeated values are joined with '|'.

By default the output is written to the current directory as
<archive name>.tsv (or .csv when the delimiter is a comma).

Examples:
  gnabcd inspect archive.zip
  gnabcd inspect https://example.org/archives/1101.zip -o 1101.tsv
  gnabcd inspect archive.zip --delimiter ,`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	inspectCmd.Flags().StringP("delimiter", "D", "tab",
		"field delimiter: 'tab' or a single character")
	inspectCmd.Flags().StringP("output", "o", "",
		"output file")
	inspectCmd.Flags().IntP("jobs", "j", 0,
		"number of name parsers")

	return inspectCmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	applyFlags(cmd, jobsFlag)
	src := args[0]

	delim, _ := cmd.Flags().GetString("delimiter")
	comma, err := delimiter(delim)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = outputName(src, comma)
	}

	cat, err := iofs.LoadCatalog(cfg.FieldsFile())
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	pool := parserpool.NewPool(cfg.JobsNumber)
	defer pool.Close()

	f, err := os.Create(out)
	if err != nil {
		err = ioexport.ExportError(err)
		gn.PrintErrorMessage(err)
		return err
	}
	defer f.Close()

	fetcher := ioarchive.New(
		config.ArchiveCacheDir(cfg.HomeDir),
		cfg.BMS.Timeout,
		cfg.BMS.RequestsPerSecond,
	)
	m := mapper.New(cat, mapper.OptNameParser(pool))

	stats, err := ioexport.New(fetcher, m, comma).
		Export(context.Background(), src, f)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	gn.Info(`Units of <em>%s</em> are written to <em>%s</em>
Documents: %s, units: %s, invalid: %s, georeferenced: %s`,
		src, out,
		humanize.Comma(int64(stats.Documents)),
		humanize.Comma(int64(stats.Units)),
		humanize.Comma(int64(stats.Invalid)),
		humanize.Comma(int64(stats.Georeferenced)),
	)
	return nil
}

func delimiter(s string) (rune, error) {
	switch s {
	case "", "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be 'tab' or one character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q cannot be used", s)
	}
	return r, nil
}

func outputName(src string, comma rune) string {
	name := path.Base(strings.TrimRight(src, "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" || name == "." || name == "/" {
		name = "units"
	}
	if comma == ',' {
		return name + ".csv"
	}
	return name + ".tsv"
}
