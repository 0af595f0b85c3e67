// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package rank implements a command to rank the taxa
// of an enriched virus sequence metadata table
// by their number of sequences.
package rank

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/js-arias/command"
	"github.com/js-arias/virhost/records"
	"github.com/js-arias/virhost/stats"
	"github.com/js-arias/virhost/taxonomy"
	"github.com/js-arias/virhost/tsv"
)

var Command = &command.Command{
	Usage: `rank [--by <column>] [--tax <file>]
	[-i|--input <file>] [-o|--output <file>]`,
	Short: "rank taxa by sequence count",
	Long: `
Command rank reads an enriched virus sequence metadata table, as produced by
the enrich command, groups its records by a taxon, and writes the ranking of
the groups, from the most to the least sequenced, with the number of
sequences of each group, its fraction of the grouped records, and the
running sum of the fractions.

By default, the records will be grouped by the virus taxon. Use the flag
--by to select the grouping column, valid values are:

	virus    the resolved virus taxon
	host     the resolved host taxon
	species  the raw virus species label

Records without a value in the grouping column, for example records with an
unresolved host, are not part of any group; their number, and their fraction
of the whole table, are reported in the standard error, so the coverage of
the ranking is always explicit.

If a local taxonomy file (as produced by the mirror command) is defined with
the flag --tax, the ranking will include the name of each taxon.

By default, the table will be read from the standard input; use the flag
--input, or -i, to select a particular file.

By default, the ranking will be printed in the standard output. Use the flag
--output, or -o, to define an output file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var byFlag string
var input string
var output string
var taxFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&byFlag, "by", "virus", "")
	c.Flags().StringVar(&input, "input", "", "")
	c.Flags().StringVar(&input, "i", "", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
	c.Flags().StringVar(&taxFile, "tax", "", "")
}

func run(c *command.Command, args []string) (err error) {
	recs, err := readRecords(c.Stdin())
	if err != nil {
		return err
	}

	var tx *taxonomy.Taxonomy
	if taxFile != "" {
		tx, err = readTaxonomy()
		if err != nil {
			return err
		}
	}

	out := c.Stdout()
	if output != "" {
		var f *os.File
		f, err = os.Create(output)
		if err != nil {
			return err
		}
		defer func() {
			e := f.Close()
			if e != nil && err == nil {
				err = e
			}
		}()
		out = f
	} else {
		output = "stdout"
	}

	var total, grouped, unresolved int
	var unShare float64
	switch byFlag {
	case "virus", "host":
		sel := stats.VirusTaxon
		if byFlag == "host" {
			sel = stats.HostTaxon
		}
		tab := stats.Rank(recs, sel)
		if err := writeTaxa(out, tab, tx); err != nil {
			return fmt.Errorf("when writing to %q: %v", output, err)
		}
		total, grouped = tab.Total, tab.Grouped
		unresolved, unShare = tab.Unresolved(), tab.UnresolvedShare()
	case "species":
		tab := stats.Rank(recs, stats.SpeciesLabel)
		if err := writeSpecies(out, tab); err != nil {
			return fmt.Errorf("when writing to %q: %v", output, err)
		}
		total, grouped = tab.Total, tab.Grouped
		unresolved, unShare = tab.Unresolved(), tab.UnresolvedShare()
	default:
		return c.UsageError(fmt.Sprintf("invalid --by value %q", byFlag))
	}

	fmt.Fprintf(c.Stderr(), "# %d records, %d grouped, %d unresolved (%.6f)\n", total, grouped, unresolved, unShare)
	return nil
}

func writeTaxa(w io.Writer, tab *stats.Table[int64], tx *taxonomy.Taxonomy) error {
	out := tsv.NewWriter(w)

	header := []string{"rank", "taxid", "name", "count", "fraction", "cumulative"}
	if err := out.Write(header); err != nil {
		return err
	}
	for _, row := range tab.Rows {
		name := ""
		if tx != nil {
			name = tx.Taxon(row.Group).Name
		}
		v := []string{
			strconv.Itoa(row.Rank),
			strconv.FormatInt(row.Group, 10),
			name,
			strconv.Itoa(row.Count),
			strconv.FormatFloat(row.Share, 'f', 6, 64),
			strconv.FormatFloat(row.CumShare, 'f', 6, 64),
		}
		if err := out.Write(v); err != nil {
			return err
		}
	}

	out.Flush()
	return out.Error()
}

func writeSpecies(w io.Writer, tab *stats.Table[string]) error {
	out := tsv.NewWriter(w)

	header := []string{"rank", "species", "count", "fraction", "cumulative"}
	if err := out.Write(header); err != nil {
		return err
	}
	for _, row := range tab.Rows {
		v := []string{
			strconv.Itoa(row.Rank),
			row.Group,
			strconv.Itoa(row.Count),
			strconv.FormatFloat(row.Share, 'f', 6, 64),
			strconv.FormatFloat(row.CumShare, 'f', 6, 64),
		}
		if err := out.Write(v); err != nil {
			return err
		}
	}

	out.Flush()
	return out.Error()
}

func readRecords(r io.Reader) ([]records.Record, error) {
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		input = "stdin"
	}

	recs, err := records.Read(r)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", input, err)
	}
	return recs, nil
}

func readTaxonomy() (*taxonomy.Taxonomy, error) {
	f, err := os.Open(taxFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tx, err := taxonomy.Read(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", taxFile, err)
	}
	return tx, nil
}
