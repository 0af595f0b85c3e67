// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/js-arias/virhost/tsv"
)

// An Entry is a resolved name:
// a textual key
// with its canonical taxon ID,
// scientific name,
// and common name,
// if any.
type Entry struct {
	Key    string
	ID     int64
	Name   string
	Common string
}

// A Catalog stores resolved names,
// with exactly one taxon ID per key.
type Catalog struct {
	m map[string]Entry
}

// NewCatalog creates a new empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{m: make(map[string]Entry)}
}

// Add adds an entry to the catalog.
// It is an error to add a key
// already in the catalog
// with a different ID.
func (c *Catalog) Add(e Entry) error {
	if e.Key == "" {
		return errors.New("catalog: entry without key")
	}
	if e.ID == 0 {
		return fmt.Errorf("catalog: key %q: entry without ID", e.Key)
	}
	if old, ok := c.m[e.Key]; ok && old.ID != e.ID {
		return fmt.Errorf("catalog: key %q: multiple IDs: %d and %d", e.Key, old.ID, e.ID)
	}
	c.m[e.Key] = e
	return nil
}

// Get returns the entry for a key.
func (c *Catalog) Get(key string) (Entry, bool) {
	e, ok := c.m[key]
	return e, ok
}

// Len returns the number of entries in the catalog.
func (c *Catalog) Len() int {
	return len(c.m)
}

// Entries returns all the entries of the catalog
// sorted by key.
func (c *Catalog) Entries() []Entry {
	v := make([]Entry, 0, len(c.m))
	for _, k := range sortedKeys(c.m) {
		v = append(v, c.m[k])
	}
	return v
}

// Catalog builds a catalog
// from a set of reduced key-to-ID resolutions,
// fetching the canonical name of every ID
// from the oracle.
// A failed common name lookup leaves the common name empty,
// as it is used only for display.
func (r *Resolver) Catalog(ctx context.Context, ids map[string]int64) (*Catalog, error) {
	c := NewCatalog()
	for _, k := range sortedKeys(ids) {
		id := ids[k]
		name, err := r.oracle.CanonicalName(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("catalog: key %q: taxon %d: %v", k, id, err)
		}
		common, err := r.oracle.CommonName(ctx, id)
		if err != nil {
			common = ""
		}
		e := Entry{
			Key:    k,
			ID:     id,
			Name:   name,
			Common: common,
		}
		if err := c.Add(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

var catalogCols = []string{
	"key",
	"taxid",
	"name",
	"common",
}

// ReadCatalog reads a catalog from a TSV-encoded file.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	tab := tsv.NewReader(r)
	header, err := tsv.ReadHeader(tab, catalogCols...)
	if err != nil {
		return nil, fmt.Errorf("when reading catalog: %v", err)
	}

	c := NewCatalog()
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln := tab.Line()
		if err != nil {
			return nil, fmt.Errorf("catalog: row %d: %v", ln, err)
		}

		id, err := strconv.ParseInt(header.Field(row, "taxid"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("catalog: row %d: %q: %v", ln, "taxid", err)
		}
		e := Entry{
			Key:    header.Field(row, "key"),
			ID:     id,
			Name:   header.Field(row, "name"),
			Common: header.Field(row, "common"),
		}
		if err := c.Add(e); err != nil {
			return nil, fmt.Errorf("catalog: row %d: %v", ln, err)
		}
	}
	return c, nil
}

// Write writes a catalog into a TSV table
// sorted by key.
func (c *Catalog) Write(w io.Writer) error {
	out := tsv.NewWriter(w)

	if err := out.Write(catalogCols); err != nil {
		return fmt.Errorf("when writing catalog: %v", err)
	}
	for _, e := range c.Entries() {
		row := []string{
			e.Key,
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.Common,
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("when writing catalog: %v", err)
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("when writing catalog: %v", err)
	}
	return nil
}

// Keys returns the sorted keys of a catalog.
func (c *Catalog) Keys() []string {
	return sortedKeys(c.m)
}
