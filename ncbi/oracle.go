// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ncbi

import (
	"context"
)

// RootID is the ID of the root
// of the NCBI taxonomy.
const RootID = 1

// The methods in this file
// make a Client usable as a hierarchy oracle
// for the resolution pipeline
// (see the resolve package).

// ResolveNames returns the candidate IDs
// for each of the given names.
// Names without any candidate are left out of the returned map.
// If any of the lookups fails,
// the whole batch fails.
func (c *Client) ResolveNames(ctx context.Context, names []string) (map[string][]int64, error) {
	m := make(map[string][]int64, len(names))
	for _, n := range names {
		ids, err := c.SearchName(ctx, n)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			continue
		}
		m[n] = ids
	}
	return m, nil
}

// CanonicalName returns the scientific name of a taxon.
func (c *Client) CanonicalName(ctx context.Context, id int64) (string, error) {
	tax, err := c.Taxon(ctx, id)
	if err != nil {
		return "", err
	}
	return tax.Name, nil
}

// CommonName returns the common name of a taxon,
// or an empty string
// if the taxon has no common name.
func (c *Client) CommonName(ctx context.Context, id int64) (string, error) {
	tax, err := c.Taxon(ctx, id)
	if err != nil {
		return "", err
	}
	return tax.Common(), nil
}

// AncestorPath returns the IDs of all the taxa
// from the root of the taxonomy
// up to,
// and including,
// the given taxon.
// The taxonomy root is always the first ID of the path,
// even if the service leaves it out of the lineage.
func (c *Client) AncestorPath(ctx context.Context, id int64) ([]int64, error) {
	if id == RootID {
		return []int64{RootID}, nil
	}

	tax, err := c.Taxon(ctx, id)
	if err != nil {
		return nil, err
	}

	path := make([]int64, 0, len(tax.Lineage)+2)
	if len(tax.Lineage) == 0 || tax.Lineage[0].ID != RootID {
		path = append(path, RootID)
	}
	for _, p := range tax.Lineage {
		path = append(path, p.ID)
	}
	return append(path, tax.ID), nil
}

// Descendants returns the IDs of a taxon
// and all of its descendants.
func (c *Client) Descendants(ctx context.Context, id int64) ([]int64, error) {
	return c.Subtree(ctx, id)
}
