// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// An AmbiguityError is the error produced
// when one or more virus species labels
// resolve to multiple taxon IDs.
// Virus taxonomy is expected to be unambiguous,
// so this error indicates a data integrity problem
// and aborts the run.
type AmbiguityError struct {
	// Labels maps each offending label
	// to its candidate IDs.
	Labels map[string][]int64

	Err error
}

func (e *AmbiguityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v:", e.Err)
	for _, n := range sortedKeys(e.Labels) {
		fmt.Fprintf(&b, " %q %v", n, e.Labels[n])
	}
	return b.String()
}

func (e *AmbiguityError) Unwrap() error { return e.Err }

var errAmbiguous = errors.New("ambiguous species label")

// Species resolves a set of virus species labels,
// which must resolve to at most one ID each.
// It returns the resolved labels
// and the labels without any candidate.
// If any label resolves to multiple IDs
// it returns an *AmbiguityError
// listing every offending label.
func (r *Resolver) Species(ctx context.Context, labels []string) (map[string]int64, []string, error) {
	candidates, err := r.Resolve(ctx, labels)
	if err != nil {
		return nil, nil, err
	}

	ambiguous := make(map[string][]int64)
	ids := make(map[string]int64, len(candidates))
	for n, c := range candidates {
		if len(c) > 1 {
			ambiguous[n] = c
			continue
		}
		ids[n] = c[0]
	}
	if len(ambiguous) > 0 {
		return nil, nil, &AmbiguityError{
			Labels: ambiguous,
			Err:    errAmbiguous,
		}
	}

	var unresolved []string
	for _, n := range dedup(labels) {
		if _, ok := ids[n]; !ok {
			unresolved = append(unresolved, n)
		}
	}
	return ids, unresolved, nil
}
