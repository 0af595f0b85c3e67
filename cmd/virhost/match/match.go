// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package match implements a command to match host annotations
// of a virus sequence metadata table
// with taxa of the NCBI taxonomy.
package match

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/js-arias/command"
	"github.com/js-arias/virhost/ncbi"
	"github.com/js-arias/virhost/records"
	"github.com/js-arias/virhost/resolve"
	"github.com/js-arias/virhost/taxcache"
	"github.com/js-arias/virhost/taxonomy"
)

var Command = &command.Command{
	Usage: `match [--tax <file>] [--cache <file>] [--key <api-key>]
	[-i|--input <file>] [-o|--output <file>]`,
	Short: "match host annotations to taxa",
	Long: `
Command match reads a virus sequence metadata table, extracts the binomial
key of every host annotation (its first two words), matches the keys with the
taxa of the NCBI taxonomy, and writes a catalog of the resolved keys, with
one taxon per key.

Keys that match multiple taxa, as happens with genus name collisions between
kingdoms, are collapsed to the last common ancestor of all the matched taxa.
Keys without any match are reported in the standard error and left out of
the catalog.

By default, the keys will be matched against the NCBI taxonomy service, and
an internet connection is required. Use the flag --key to indicate an NCBI
API key (which rises the permitted query rate). Use the flag --cache to
store, and reuse, the answers of the service in a database file, so an
interrupted run can be restarted without querying the service again. Use the
flag --tax to match against a local taxonomy file (as produced by the mirror
command) without any internet connection.

By default, the metadata will be read from the standard input; use the flag
--input, or -i, to select a particular file.

By default, the catalog will be printed in the standard output. Use the flag
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

	var keys []string
	for _, rec := range recs {
		if rec.HostKey == "" {
			continue
		}
		keys = append(keys, rec.HostKey)
	}

	ctx := context.Background()
	r := resolve.NewResolver(o)
	candidates, err := r.Resolve(ctx, keys)
	if err != nil {
		return err
	}
	ids, unresolved := r.Reduce(ctx, candidates)
	cat, err := r.Catalog(ctx, ids)
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
	if err := cat.Write(out); err != nil {
		return fmt.Errorf("when writing to %q: %v", output, err)
	}

	seen := make(map[string]bool, len(keys))
	distinct := 0
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		distinct++
		if _, ok := cat.Get(k); ok {
			continue
		}
		if _, ok := candidates[k]; ok {
			continue
		}
		// keys without any candidate;
		// failed reductions are already in unresolved
		unresolved = append(unresolved, k)
	}
	slices.Sort(unresolved)

	fmt.Fprintf(c.Stderr(), "# matched %d of %d host keys\n", cat.Len(), distinct)
	for _, k := range unresolved {
		fmt.Fprintf(c.Stderr(), "# unresolved: %q\n", k)
	}

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
