// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package resolve implements the resolution
// of free-text taxon names
// to canonical taxon IDs
// using a hierarchy oracle
// such as the NCBI taxonomy service,
// a local taxonomy mirror,
// or a resolution cache.
package resolve

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/js-arias/virhost/taxonomy"
)

// An Oracle is a read-only taxonomic hierarchy,
// such as the NCBI taxonomy.
type Oracle interface {
	// ResolveNames returns the candidate IDs
	// for each of the given names.
	// Names without any candidate
	// are left out of the returned map.
	ResolveNames(ctx context.Context, names []string) (map[string][]int64, error)

	// CanonicalName returns the scientific name of a taxon.
	CanonicalName(ctx context.Context, id int64) (string, error)

	// CommonName returns the common name of a taxon,
	// or an empty string
	// if the taxon has no common name.
	CommonName(ctx context.Context, id int64) (string, error)

	// AncestorPath returns the IDs of all the taxa
	// from the root of the hierarchy
	// up to,
	// and including,
	// the given taxon.
	AncestorPath(ctx context.Context, id int64) ([]int64, error)

	// Descendants returns the IDs of a taxon
	// and all of its descendants.
	Descendants(ctx context.Context, id int64) ([]int64, error)
}

// Key returns the binomial key of a host annotation,
// that is its first two whitespace separated tokens
// joined by a single space.
// An annotation without tokens produces an empty key.
func Key(host string) string {
	f := strings.Fields(host)
	if len(f) > 2 {
		f = f[:2]
	}
	return strings.Join(f, " ")
}

// A PendingError is the error produced
// when one or more names of a batch resolution
// could not be queried.
// The resolutions that did succeed
// are still returned alongside this error.
type PendingError struct {
	// Names still pending resolution
	Names []string

	Err error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("%d names pending: %v", len(e.Names), e.Err)
}

func (e *PendingError) Unwrap() error { return e.Err }

// A Resolver resolves sets of taxon names
// against a hierarchy oracle.
type Resolver struct {
	// Jobs is the maximum number of concurrent oracle queries.
	Jobs int

	// Batch is the number of names sent on each oracle query.
	Batch int

	oracle Oracle
}

// NewResolver creates a new resolver
// over the given oracle.
func NewResolver(o Oracle) *Resolver {
	return &Resolver{
		Jobs:   4,
		Batch:  10,
		oracle: o,
	}
}

// Resolve maps each of the given names
// to the set of its candidate IDs.
// Names are deduplicated before the query;
// names without any candidate
// are left out of the returned map.
//
// Each batch of names is queried independently:
// a failed batch does not stop the others,
// and the successful resolutions are always returned.
// If any batch failed,
// the error is a *PendingError
// with the names still pending.
func (r *Resolver) Resolve(ctx context.Context, names []string) (map[string][]int64, error) {
	names = dedup(names)
	if len(names) == 0 {
		return map[string][]int64{}, nil
	}

	batch := r.Batch
	if batch <= 0 {
		batch = 10
	}
	var chunks [][]string
	for len(names) > batch {
		chunks = append(chunks, names[:batch])
		names = names[batch:]
	}
	chunks = append(chunks, names)

	// Each chunk writes only to its own slot,
	// so results are merged without shared state
	// after all lookups finish.
	got := make([]map[string][]int64, len(chunks))
	errs := make([]error, len(chunks))

	var g errgroup.Group
	jobs := r.Jobs
	if jobs <= 0 {
		jobs = 4
	}
	g.SetLimit(jobs)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			got[i], errs[i] = r.oracle.ResolveNames(ctx, c)
			return nil
		})
	}
	g.Wait()

	m := make(map[string][]int64)
	var pending []string
	var firstErr error
	for i, c := range chunks {
		if errs[i] != nil {
			pending = append(pending, c...)
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		for n, ids := range got[i] {
			if len(ids) == 0 {
				continue
			}
			m[n] = ids
		}
	}
	if firstErr != nil {
		slices.Sort(pending)
		return m, &PendingError{Names: pending, Err: firstErr}
	}
	return m, nil
}

// Reduce collapses every multi-candidate resolution
// to a single ID,
// the last common ancestor of all the candidates.
// Names whose ancestor paths cannot be retrieved,
// or whose candidates do not share any ancestor,
// are returned as unresolved.
func (r *Resolver) Reduce(ctx context.Context, candidates map[string][]int64) (map[string]int64, []string) {
	ids := make(map[string]int64, len(candidates))
	var unresolved []string

	for _, n := range sortedKeys(candidates) {
		c := candidates[n]
		if len(c) == 0 {
			unresolved = append(unresolved, n)
			continue
		}
		if len(c) == 1 {
			ids[n] = c[0]
			continue
		}

		paths := make([][]int64, 0, len(c))
		ok := true
		for _, id := range c {
			p, err := r.oracle.AncestorPath(ctx, id)
			if err != nil {
				ok = false
				break
			}
			paths = append(paths, p)
		}
		if !ok {
			unresolved = append(unresolved, n)
			continue
		}

		lca := taxonomy.LCA(paths...)
		if lca == 0 {
			unresolved = append(unresolved, n)
			continue
		}
		ids[n] = lca
	}
	return ids, unresolved
}

func dedup(names []string) []string {
	seen := make(map[string]bool, len(names))
	var v []string
	for _, n := range names {
		if n == "" {
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		v = append(v, n)
	}
	slices.Sort(v)
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	v := make([]string, 0, len(m))
	for k := range m {
		v = append(v, k)
	}
	slices.Sort(v)
	return v
}
