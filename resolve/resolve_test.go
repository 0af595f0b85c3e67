// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package resolve_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/js-arias/virhost/resolve"
)

// A fakeOracle is an in-memory hierarchy oracle
// for the tests.
type fakeOracle struct {
	names map[string][]int64
	taxa  map[int64]string
	comm  map[int64]string
	paths map[int64][]int64
	desc  map[int64][]int64

	// names that make their whole batch fail
	fail map[string]bool
}

func (o *fakeOracle) ResolveNames(_ context.Context, names []string) (map[string][]int64, error) {
	m := make(map[string][]int64, len(names))
	for _, n := range names {
		if o.fail[n] {
			return nil, errors.New("fakeOracle: unreachable")
		}
		if ids := o.names[n]; len(ids) > 0 {
			m[n] = ids
		}
	}
	return m, nil
}

func (o *fakeOracle) CanonicalName(_ context.Context, id int64) (string, error) {
	n, ok := o.taxa[id]
	if !ok {
		return "", fmt.Errorf("fakeOracle: taxon %d: not found", id)
	}
	return n, nil
}

func (o *fakeOracle) CommonName(_ context.Context, id int64) (string, error) {
	return o.comm[id], nil
}

func (o *fakeOracle) AncestorPath(_ context.Context, id int64) ([]int64, error) {
	p, ok := o.paths[id]
	if !ok {
		return nil, fmt.Errorf("fakeOracle: taxon %d: no path", id)
	}
	return p, nil
}

func (o *fakeOracle) Descendants(_ context.Context, id int64) ([]int64, error) {
	d, ok := o.desc[id]
	if !ok {
		return nil, fmt.Errorf("fakeOracle: taxon %d: not found", id)
	}
	return d, nil
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		names: map[string][]int64{
			"Homo sapiens": {9606},
			"Aedes":        {149531, 7158},
			"Drosophila":   {7215, 2081351},
		},
		taxa: map[int64]string{
			9606: "Homo sapiens",
			7158: "Aedes",
		},
		comm: map[int64]string{
			9606: "human",
		},
		paths: map[int64][]int64{
			9606:    {1, 131567, 9605, 9606},
			149531:  {1, 50, 7158, 149531},
			7158:    {1, 50, 7158},
			7215:    {1, 50, 7215},
			2081351: {2, 60, 2081351},
		},
		fail: map[string]bool{},
	}
}

func TestKey(t *testing.T) {
	tests := map[string]struct {
		host string
		key  string
	}{
		"binomial":    {host: "Homo sapiens", key: "Homo sapiens"},
		"trinomial":   {host: "Canis lupus familiaris", key: "Canis lupus"},
		"single":      {host: "Aedes", key: "Aedes"},
		"spaces":      {host: "  Homo   sapiens;\tadult ", key: "Homo sapiens;"},
		"empty":       {host: ""},
		"only spaces": {host: "   \t "},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := resolve.Key(test.host); got != test.key {
				t.Errorf("%s: got %q, want %q", name, got, test.key)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	o := newFakeOracle()
	r := resolve.NewResolver(o)
	ctx := context.Background()

	got, err := r.Resolve(ctx, []string{"Homo sapiens", "Aedes", "Homo sapiens", "Nonsense name", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string][]int64{
		"Homo sapiens": {9606},
		"Aedes":        {149531, 7158},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolvePending(t *testing.T) {
	o := newFakeOracle()
	o.fail["Aedes"] = true
	r := resolve.NewResolver(o)
	r.Batch = 1
	ctx := context.Background()

	got, err := r.Resolve(ctx, []string{"Homo sapiens", "Aedes"})
	if err == nil {
		t.Fatalf("expecting error")
	}
	var pe *resolve.PendingError
	if !errors.As(err, &pe) {
		t.Fatalf("got error %q, want a *PendingError", err)
	}
	if !reflect.DeepEqual(pe.Names, []string{"Aedes"}) {
		t.Errorf("pending names: got %v, want %v", pe.Names, []string{"Aedes"})
	}

	// successful resolutions are kept
	want := map[string][]int64{"Homo sapiens": {9606}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReduce(t *testing.T) {
	o := newFakeOracle()
	r := resolve.NewResolver(o)
	ctx := context.Background()

	tests := map[string]struct {
		candidates map[string][]int64
		ids        map[string]int64
		unresolved []string
	}{
		"single candidate": {
			candidates: map[string][]int64{"Homo sapiens": {9606}},
			ids:        map[string]int64{"Homo sapiens": 9606},
		},
		"ambiguous": {
			candidates: map[string][]int64{"Aedes": {149531, 7158}},
			ids:        map[string]int64{"Aedes": 7158},
		},
		"no path": {
			candidates: map[string][]int64{"Culex": {7174, 7175}},
			ids:        map[string]int64{},
			unresolved: []string{"Culex"},
		},
		"no common ancestor": {
			candidates: map[string][]int64{"Drosophila": {7215, 2081351}},
			ids:        map[string]int64{},
			unresolved: []string{"Drosophila"},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ids, unresolved := r.Reduce(ctx, test.candidates)
			if !reflect.DeepEqual(ids, test.ids) {
				t.Errorf("%s: got %v, want %v", name, ids, test.ids)
			}
			if !reflect.DeepEqual(unresolved, test.unresolved) {
				t.Errorf("%s: unresolved: got %v, want %v", name, unresolved, test.unresolved)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	o := newFakeOracle()
	r := resolve.NewResolver(o)
	ctx := context.Background()

	c, err := r.Catalog(ctx, map[string]int64{
		"Homo sapiens": 9606,
		"Aedes":        7158,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []resolve.Entry{
		{Key: "Aedes", ID: 7158, Name: "Aedes"},
		{Key: "Homo sapiens", ID: 9606, Name: "Homo sapiens", Common: "human"},
	}
	if !reflect.DeepEqual(c.Entries(), want) {
		t.Errorf("got %v, want %v", c.Entries(), want)
	}

	if _, err := r.Catalog(ctx, map[string]int64{"Culex": 7174}); err == nil {
		t.Errorf("expecting error for taxon without name")
	}
}

func TestCatalogAdd(t *testing.T) {
	c := resolve.NewCatalog()
	if err := c.Add(resolve.Entry{Key: "Homo sapiens", ID: 9606, Name: "Homo sapiens"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// same key, same ID
	if err := c.Add(resolve.Entry{Key: "Homo sapiens", ID: 9606, Name: "Homo sapiens"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// same key, different ID
	if err := c.Add(resolve.Entry{Key: "Homo sapiens", ID: 9605, Name: "Homo"}); err == nil {
		t.Errorf("expecting error for key with multiple IDs")
	}
	if c.Len() != 1 {
		t.Errorf("catalog length: got %d, want 1", c.Len())
	}
}

func TestCatalogReadWrite(t *testing.T) {
	c := resolve.NewCatalog()
	entries := []resolve.Entry{
		{Key: "Aedes", ID: 7158, Name: "Aedes"},
		{Key: "Homo sapiens", ID: 9606, Name: "Homo sapiens", Common: "human"},
	}
	for _, e := range entries {
		if err := c.Add(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	var b bytes.Buffer
	if err := c.Write(&b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nc, err := resolve.ReadCatalog(&b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(nc.Entries(), entries) {
		t.Errorf("got %v, want %v", nc.Entries(), entries)
	}
}

func TestSpecies(t *testing.T) {
	o := newFakeOracle()
	o.names["Zika virus"] = []int64{64320}
	o.names["West Nile virus"] = []int64{11082}
	r := resolve.NewResolver(o)
	ctx := context.Background()

	ids, unresolved, err := r.Species(ctx, []string{"Zika virus", "West Nile virus", "Unknown virus"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]int64{
		"Zika virus":      64320,
		"West Nile virus": 11082,
	}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("got %v, want %v", ids, want)
	}
	if !reflect.DeepEqual(unresolved, []string{"Unknown virus"}) {
		t.Errorf("unresolved: got %v, want %v", unresolved, []string{"Unknown virus"})
	}
}

func TestSpeciesAmbiguous(t *testing.T) {
	o := newFakeOracle()
	o.names["Zika virus"] = []int64{64320}
	o.names["Doubtful virus"] = []int64{1000, 2000}
	r := resolve.NewResolver(o)
	ctx := context.Background()

	_, _, err := r.Species(ctx, []string{"Zika virus", "Doubtful virus"})
	if err == nil {
		t.Fatalf("expecting error")
	}
	var ae *resolve.AmbiguityError
	if !errors.As(err, &ae) {
		t.Fatalf("got error %q, want an *AmbiguityError", err)
	}
	want := map[string][]int64{"Doubtful virus": {1000, 2000}}
	if !reflect.DeepEqual(ae.Labels, want) {
		t.Errorf("labels: got %v, want %v", ae.Labels, want)
	}
}
