// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mirror implements a command to build a local mirror
// of one or more subtrees
// of the NCBI taxonomy.
package mirror

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/js-arias/command"
	"github.com/js-arias/virhost/ncbi"
	"github.com/js-arias/virhost/taxonomy"
)

var Command = &command.Command{
	Usage: `mirror [--key <api-key>] [-o|--output <file>]
	<taxid> [<taxid>...]`,
	Short: "build a local taxonomy mirror",
	Long: `
Command mirror retrieves one or more subtrees of the NCBI taxonomy and
writes them as a local taxonomy file. The other commands can then use the
file, with their flag --tax, instead of querying the NCBI service on every
run.

One or more taxon IDs should be given as arguments of the command; each
taxon, all of its descendants, and all of its ancestors, will be part of the
mirror.

This command requires an internet connection, and can take a long time for
large subtrees, as the queries to the NCBI service are rate limited. Use the
flag --key to indicate an NCBI API key, which rises the permitted query
rate.

By default, the taxonomy will be printed in the standard output. Use the
flag --output, or -o, to define an output file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var output string
var apiKey string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
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

	cl := ncbi.NewClient(ncbi.Config{APIKey: apiKey})
	ctx := context.Background()

	tx := taxonomy.NewTaxonomy()
	if err := tx.Add(taxonomy.Taxon{Name: "root", ID: ncbi.RootID}); err != nil {
		return err
	}
	for _, r := range roots {
		ids, err := cl.Subtree(ctx, r)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := addTaxon(ctx, cl, tx, id); err != nil {
				return err
			}
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

	if err := tx.Write(out); err != nil {
		return fmt.Errorf("when writing to %q: %v", output, err)
	}

	fmt.Fprintf(c.Stderr(), "# mirrored %d taxa\n", tx.Len())
	return nil
}

func addTaxon(ctx context.Context, cl *ncbi.Client, tx *taxonomy.Taxonomy, id int64) error {
	if tx.Taxon(id).ID == id {
		return nil
	}

	tax, err := cl.Taxon(ctx, id)
	if err != nil {
		return err
	}

	// add the ancestors first,
	// each one parent of the next
	parent := int64(ncbi.RootID)
	for _, ln := range tax.Lineage {
		if ln.ID == ncbi.RootID {
			continue
		}
		if tx.Taxon(ln.ID).ID != ln.ID {
			at := taxonomy.Taxon{
				Name:   ln.Name,
				ID:     ln.ID,
				Rank:   taxonomy.GetRank(ln.Rank),
				Parent: parent,
			}
			if err := tx.Add(at); err != nil {
				return err
			}
		}
		parent = ln.ID
	}

	return tx.Add(taxonomy.Taxon{
		Name:   tax.Name,
		Common: tax.Common(),
		ID:     tax.ID,
		Rank:   taxonomy.GetRank(tax.Rank),
		Parent: parent,
	})
}
