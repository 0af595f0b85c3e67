// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package enrich implements a command to add the resolved taxa
// to a virus sequence metadata table.
package enrich

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/virhost/ncbi"
	"github.com/js-arias/virhost/records"
	"github.com/js-arias/virhost/resolve"
	"github.com/js-arias/virhost/taxcache"
	"github.com/js-arias/virhost/taxonomy"
)

var Command = &command.Command{
	Usage: `enrich --hosts <file>
	[--tax <file>] [--cache <file>] [--key <api-key>]
	[-i|--input <file>] [-o|--output <file>]`,
	Short: "add resolved taxa to a metadata table",
	Long: `
Command enrich reads a virus sequence metadata table and writes it with two
additional columns: the taxon of the host of each sequence, and the taxon of
the virus species of each sequence.

Host taxa are taken from a host catalog file, as produced by the match
command, which must be defined with the flag --hosts. Records whose host key
is not in the catalog keep an empty host taxon; they are ignored by
host-centric rankings but still count for virus-centric rankings.

Virus species labels are resolved directly, as virus taxonomy is expected to
be unambiguous: if any species label matches multiple taxa, the command
fails, reporting every offending label, as that indicates a problem with the
underlying data that would silently corrupt any virus ranking.

By default, the species labels will be resolved with the NCBI taxonomy
service, and an internet connection is required. Use the flag --key to
indicate an NCBI API key. Use the flag --cache to store, and reuse, the
answers of the service in a database file. Use the flag --tax to resolve
against a local taxonomy file (as produced by the mirror command) without
any internet connection.

By default, the metadata will be read from the standard input; use the flag
--input, or -i, to select a particular file.

By default, the enriched table will be printed in the standard output. Use
the flag --output, or -o, to define an output file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var input string
var output string
var hostFile string
var taxFile string
var cacheFile string
var apiKey string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&input, "input", "", "")
	c.Flags().StringVar(&input, "i", "", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
	c.Flags().StringVar(&hostFile, "hosts", "", "")
	c.Flags().StringVar(&taxFile, "tax", "", "")
	c.Flags().StringVar(&cacheFile, "cache", "", "")
	c.Flags().StringVar(&apiKey, "key", "", "")
}

func run(c *command.Command, args []string) (err error) {
	if hostFile == "" {
		return c.UsageError("flag --hosts undefined")
	}

	hosts, err := readCatalog()
	if err != nil {
		return err
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

	var labels []string
	for _, rec := range recs {
		labels = append(labels, rec.Species)
	}

	ctx := context.Background()
	r := resolve.NewResolver(o)
	viruses, unresolved, err := r.Species(ctx, labels)
	if err != nil {
		return err
	}

	enriched := records.Enrich(recs, hosts, viruses)

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
	if err := records.Write(out, enriched); err != nil {
		return fmt.Errorf("when writing to %q: %v", output, err)
	}

	for _, n := range unresolved {
		fmt.Fprintf(c.Stderr(), "# unresolved species: %q\n", n)
	}
	return nil
}

func readCatalog() (*resolve.Catalog, error) {
	f, err := os.Open(hostFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cat, err := resolve.ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", hostFile, err)
	}
	return cat, nil
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
