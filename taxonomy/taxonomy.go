// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package taxonomy implements a basic taxonomy
// to be used as a local mirror
// of the NCBI taxonomy database.
package taxonomy

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/js-arias/virhost/tsv"
)

// Rank is a linnean rank.
// Ranks are arranged in a way that an inclusive rank in the taxonomy
// is always smaller than more exclusive ranks.
// Then it is possible to use the form:
//
//	if rank < taxonomy.Genus {
//		// do something
//	}
type Rank uint

// Valid taxonomic ranks.
const (
	Unranked Rank = iota
	Superkingdom
	Kingdom
	Phylum
	Class
	Order
	Family
	Genus
	Species
)

// ranks holds a list of the accepted rank names.
var ranks = []string{
	Unranked:     "unranked",
	Superkingdom: "superkingdom",
	Kingdom:      "kingdom",
	Phylum:       "phylum",
	Class:        "class",
	Order:        "order",
	Family:       "family",
	Genus:        "genus",
	Species:      "species",
}

// GetRank returns a rank value from a string.
// Unknown rank names,
// such as the intermediate ranks
// used by the NCBI taxonomy
// ("no rank", "clade", "subgenus", etc.),
// are treated as unranked.
func GetRank(s string) Rank {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, r := range ranks {
		if r == s {
			return Rank(i)
		}
	}
	return Unranked
}

// String returns the rank string of a rank.
func (r Rank) String() string {
	i := int(r)
	if i >= len(ranks) {
		return ranks[Unranked]
	}
	return ranks[i]
}

// A Taxon stores the taxon information.
type Taxon struct {
	Name   string // scientific name
	Common string // common name, if any
	ID     int64  // ID of the taxon
	Rank   Rank   // taxon rank
	Parent int64  // ID of the parent taxon
}

type taxon struct {
	data     Taxon
	children map[int64]*taxon
}

// A Taxonomy stores taxa indexed by ID and by name.
// The zero value is not usable;
// use NewTaxonomy.
type Taxonomy struct {
	ids   map[int64]*taxon
	root  map[int64]*taxon          // list of parent-less taxa
	names map[string]map[int64]bool // map of taxon names to IDs
}

// NewTaxonomy creates a new empty taxonomy.
func NewTaxonomy() *Taxonomy {
	return &Taxonomy{
		ids:   make(map[int64]*taxon),
		root:  make(map[int64]*taxon),
		names: make(map[string]map[int64]bool),
	}
}

// Add adds a taxon to the taxonomy.
// The taxon must have a valid ID and a name,
// and its parent,
// if defined,
// must be already in the taxonomy.
// Adding a taxon already in the taxonomy is a no-op.
func (tx *Taxonomy) Add(data Taxon) error {
	if data.ID == 0 {
		return fmt.Errorf("taxonomy: taxon %q without ID", data.Name)
	}
	data.Name = Canon(data.Name)
	if data.Name == "" {
		return fmt.Errorf("taxonomy: taxon %d without name", data.ID)
	}
	data.Common = strings.Join(strings.Fields(data.Common), " ")
	if _, ok := tx.ids[data.ID]; ok {
		return nil
	}

	tax := &taxon{
		data:     data,
		children: make(map[int64]*taxon),
	}
	if data.Parent != 0 {
		p, ok := tx.ids[data.Parent]
		if !ok {
			return fmt.Errorf("taxonomy: taxon %d: parent %d not in taxonomy", data.ID, data.Parent)
		}
		p.children[data.ID] = tax
	} else {
		tx.root[data.ID] = tax
	}
	tx.ids[data.ID] = tax

	tx.addName(data.Name, data.ID)
	if data.Common != "" {
		tx.addName(Canon(data.Common), data.ID)
	}
	return nil
}

func (tx *Taxonomy) addName(name string, id int64) {
	byName, ok := tx.names[name]
	if !ok {
		byName = make(map[int64]bool)
		tx.names[name] = byName
	}
	byName[id] = true
}

// ByName returns the IDs of all the taxa with a given name,
// either scientific or common.
func (tx *Taxonomy) ByName(name string) []int64 {
	name = Canon(name)
	if name == "" {
		return nil
	}

	ids, ok := tx.names[name]
	if !ok {
		return nil
	}
	if len(ids) == 0 {
		return nil
	}

	v := make([]int64, 0, len(ids))
	for id := range ids {
		v = append(v, id)
	}
	slices.Sort(v)

	return v
}

// IDs return the ID of all taxa in the taxonomy.
func (tx *Taxonomy) IDs() []int64 {
	ids := make([]int64, 0, len(tx.ids))
	for _, tax := range tx.ids {
		ids = append(ids, tax.data.ID)
	}
	slices.Sort(ids)

	return ids
}

// Len returns the number of taxa in the taxonomy.
func (tx *Taxonomy) Len() int {
	return len(tx.ids)
}

// Taxon returns a taxon with a given ID.
func (tx *Taxonomy) Taxon(id int64) Taxon {
	tax, ok := tx.ids[id]
	if !ok {
		return Taxon{}
	}
	return tax.data
}

// Path returns the IDs of all the taxa
// from a root of the taxonomy
// up to,
// and including,
// the given taxon.
func (tx *Taxonomy) Path(id int64) []int64 {
	if _, ok := tx.ids[id]; !ok {
		return nil
	}

	var ids []int64
	seen := make(map[int64]bool)
	for id != 0 {
		if seen[id] {
			break
		}
		seen[id] = true
		tax, ok := tx.ids[id]
		if !ok {
			break
		}
		ids = append(ids, id)
		id = tax.data.Parent
	}
	slices.Reverse(ids)
	return ids
}

// Subtree returns the IDs of a taxon
// and all of its descendants.
func (tx *Taxonomy) Subtree(id int64) []int64 {
	tax, ok := tx.ids[id]
	if !ok {
		return nil
	}

	ids := append(tax.allChildren(), id)
	slices.Sort(ids)

	return ids
}

func (tax *taxon) allChildren() []int64 {
	var ids []int64
	for _, c := range tax.children {
		cIDs := c.allChildren()
		ids = append(ids, c.data.ID)
		ids = append(ids, cIDs...)
	}
	return ids
}

// LCA returns the last common ancestor
// of a set of root-to-taxon paths,
// that is the deepest taxon
// that is in every path.
// It returns 0 if the paths do not share any taxon.
func LCA(paths ...[]int64) int64 {
	if len(paths) == 0 {
		return 0
	}

	var lca int64
	for i := 0; ; i++ {
		var node int64
		for _, p := range paths {
			if i >= len(p) {
				return lca
			}
			if node == 0 {
				node = p[i]
				continue
			}
			if p[i] != node {
				return lca
			}
		}
		lca = node
	}
}

var headerCols = []string{
	"name",
	"common",
	"taxid",
	"rank",
	"parent",
}

// Read reads a taxonomy from a TSV-encoded file.
// Parent taxa must appear before their children,
// as produced by Write.
func Read(r io.Reader) (*Taxonomy, error) {
	tab := tsv.NewReader(r)
	header, err := tsv.ReadHeader(tab, headerCols...)
	if err != nil {
		return nil, fmt.Errorf("when reading taxonomy: %v", err)
	}

	tx := NewTaxonomy()
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln := tab.Line()
		if err != nil {
			return nil, fmt.Errorf("taxonomy: row %d: %v", ln, err)
		}

		if Canon(header.Field(row, "name")) == "" {
			continue
		}
		id, err := strconv.ParseInt(header.Field(row, "taxid"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("taxonomy: row %d: %q: %v", ln, "taxid", err)
		}

		var parent int64
		if p := header.Field(row, "parent"); p != "" {
			parent, err = strconv.ParseInt(p, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("taxonomy: row %d: %q: %v", ln, "parent", err)
			}
		}

		data := Taxon{
			Name:   header.Field(row, "name"),
			Common: header.Field(row, "common"),
			ID:     id,
			Rank:   GetRank(header.Field(row, "rank")),
			Parent: parent,
		}
		if err := tx.Add(data); err != nil {
			return nil, fmt.Errorf("taxonomy: row %d: %v", ln, err)
		}
	}
	return tx, nil
}

// Write writes a taxonomy into a TSV table,
// with parent taxa before their children.
func (tx *Taxonomy) Write(w io.Writer) error {
	out := tsv.NewWriter(w)

	if err := out.Write(headerCols); err != nil {
		return fmt.Errorf("when writing taxonomy: %v", err)
	}

	for _, tax := range sortChildren(tx.root) {
		if err := tax.write(out); err != nil {
			return err
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("when writing taxonomy: %v", err)
	}

	return nil
}

func sortChildren(m map[int64]*taxon) []*taxon {
	children := make([]*taxon, 0, len(m))
	for _, c := range m {
		children = append(children, c)
	}
	slices.SortFunc(children, func(a, b *taxon) int {
		return cmp.Compare(a.data.ID, b.data.ID)
	})
	return children
}

func (tax *taxon) write(w *tsv.Writer) error {
	parent := ""
	if tax.data.Parent != 0 {
		parent = strconv.FormatInt(tax.data.Parent, 10)
	}
	row := []string{
		tax.data.Name,
		tax.data.Common,
		strconv.FormatInt(tax.data.ID, 10),
		tax.data.Rank.String(),
		parent,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("when writing taxonomy: %v", err)
	}

	for _, c := range sortChildren(tax.children) {
		if err := c.write(w); err != nil {
			return err
		}
	}
	return nil
}

// Canon transforms a name into its canonical form.
func Canon(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	name = strings.ToLower(name)
	r, n := utf8.DecodeRuneInString(name)
	return string(unicode.ToTitle(r)) + name[n:]
}
