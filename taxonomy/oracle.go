// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package taxonomy

import (
	"context"
	"fmt"
)

// The methods in this file
// make a Taxonomy usable as a hierarchy oracle
// for the resolution pipeline
// (see the resolve package),
// so a local mirror can replace the remote NCBI service.

// ResolveNames returns the candidate IDs
// for each of the given names.
// Names without any candidate are left out of the returned map.
func (tx *Taxonomy) ResolveNames(_ context.Context, names []string) (map[string][]int64, error) {
	m := make(map[string][]int64, len(names))
	for _, n := range names {
		ids := tx.ByName(n)
		if len(ids) == 0 {
			continue
		}
		m[n] = ids
	}
	return m, nil
}

// CanonicalName returns the scientific name of a taxon.
func (tx *Taxonomy) CanonicalName(_ context.Context, id int64) (string, error) {
	tax, ok := tx.ids[id]
	if !ok {
		return "", fmt.Errorf("taxonomy: taxon %d: not in taxonomy", id)
	}
	return tax.data.Name, nil
}

// CommonName returns the common name of a taxon,
// or an empty string
// if the taxon has no common name.
func (tx *Taxonomy) CommonName(_ context.Context, id int64) (string, error) {
	tax, ok := tx.ids[id]
	if !ok {
		return "", fmt.Errorf("taxonomy: taxon %d: not in taxonomy", id)
	}
	return tax.data.Common, nil
}

// AncestorPath returns the IDs of all the taxa
// from a root of the taxonomy
// up to,
// and including,
// the given taxon.
func (tx *Taxonomy) AncestorPath(_ context.Context, id int64) ([]int64, error) {
	p := tx.Path(id)
	if p == nil {
		return nil, fmt.Errorf("taxonomy: taxon %d: not in taxonomy", id)
	}
	return p, nil
}

// Descendants returns the IDs of a taxon
// and all of its descendants.
func (tx *Taxonomy) Descendants(_ context.Context, id int64) ([]int64, error) {
	ids := tx.Subtree(id)
	if ids == nil {
		return nil, fmt.Errorf("taxonomy: taxon %d: not in taxonomy", id)
	}
	return ids, nil
}
