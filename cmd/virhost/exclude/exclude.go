// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package exclude implements a command to remove
// all the records of a virus subtree
// from an enriched metadata table.
package exclude

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/js-arias/command"
	"github.com/js-arias/virhost/ncbi"
	"github.com/js-arias/virhost/records"
	"github.com/js-arias/virhost/resolve"
	"github.com/js-arias/virhost/taxcache"
	"github.com/js-arias/virhost/taxonomy"
)

var Command = &command.Command{
	Usage: `exclude [--tax <file>] [--cache <file>] [--key <api-key>]
	[-i|--input <file>] [-o|--output <file>]
	<taxid> [<taxid>...]`,
	Short: "remove records of a virus subtree",
	Long: `
Command exclude reads an enriched virus sequence metadata table, as produced
by the enrich command, and removes every record whose virus taxon is one of
the given taxa, or any of their descendants. The remaining records are
written as a new table, so the rankings of the filtered and the unfiltered
tables can be compared.

One or more taxon IDs should be given as arguments of the command.

By default, the descendants of each taxon will be retrieved from the NCBI
taxonomy service, and an internet connection is required. Use the flag --key
to indicate an NCBI API key. Use the flag --cache to store, and reuse, the
answers of the service in a database file. Use the flag --tax to use a local
taxonomy file (as produced by the mirror command) without any internet
connection.

By default, the table will be read from the standard input; use the flag
--input, or -i, to select a particular file.

By default, the results will be printed in the standard output. Use the flag
--output, or -o, to define an output file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var input string
var output string
var taxFile string
var cacheFile string
var apiKey string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&input, "input", "", "")
	c.Flags().StringVar(&input, "i", "", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
	c.Flags().StringVar(&taxFile, "tax", "", "")
	c.Flags().StringVar(&cacheFile, "cache", "", "")
	c.Flags().StringVar(&apiKey, "key", "", "")
}

func run(c *command.Command, args []string) (err error) {
	if len(args) == 0 {
		return c.UsageError("expecting taxon ID argument")
	}
	var roots []int64
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return c.UsageError(fmt.Sprintf("invalid taxon ID %q", a))
		}
		roots = append(roots, id)
	}

	recs, err := readRecords(c.Stdin())
	if err != nil {
		return err
	}

	o, closer, err := newOracle()
	if err != nil {
		return err
	}
	defer func() {
		e := closer()
		if e != nil && err == nil {
			err = e
		}
	}()

	ctx := context.Background()
	kept, err := records.ExcludeSubtrees(ctx, o, recs, roots)
	if err != nil {
		return err
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
	if err := records.Write(out, kept); err != nil {
		return fmt.Errorf("when writing to %q: %v", output, err)
	}

	fmt.Fprintf(c.Stderr(), "# removed %d of %d records\n", len(recs)-len(kept), len(recs))
	return nil
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

func newOracle() (resolve.Oracle, func() error, error) {
	noop := func() error { return nil }

	if taxFile != "" {
		f, err := os.Open(taxFile)
		if err != nil {
			return nil, noop, err
		}
		defer f.Close()

		tx, err := taxonomy.Read(f)
		if err != nil {
			return nil, noop, fmt.Errorf("on file %q: %v", taxFile, err)
		}
		return tx, noop, nil
	}

	cl := ncbi.NewClient(ncbi.Config{APIKey: apiKey})
	if cacheFile == "" {
		return cl, noop, nil
	}
	cache, err := taxcache.Open(cacheFile, cl)
	if err != nil {
		return nil, noop, err
	}
	return cache, cache.Close, nil
}
