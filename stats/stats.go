// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package stats implements ranked counts
// of a virus sequence record set
// grouped by a taxon ID
// or a species label.
package stats

import (
	"slices"

	"github.com/js-arias/virhost/records"
)

// A Row is one group of an aggregation:
// a group value with its record count,
// its rank
// (1 is the largest group),
// its fraction of the grouped records,
// and the running sum of the fractions
// up to its rank.
type Row[K comparable] struct {
	Group    K
	Count    int
	Rank     int
	Share    float64
	CumShare float64
}

// A Table is an aggregation of a record set.
// Records rejected by the group selector
// are counted as unresolved:
// they are part of the total
// but not of any group.
type Table[K comparable] struct {
	Rows []Row[K]

	Total   int // records in the input set
	Grouped int // records counted in a group
}

// Unresolved returns the number of records
// that were not counted in any group.
func (t *Table[K]) Unresolved() int {
	return t.Total - t.Grouped
}

// UnresolvedShare returns the fraction of the input records
// that were not counted in any group.
func (t *Table[K]) UnresolvedShare() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Unresolved()) / float64(t.Total)
}

// Rank aggregates a record set
// by the value given by a group selector,
// in descending order of group size.
// Groups with the same size
// keep the order in which they were first seen,
// so the ranking is deterministic
// for a given input order.
//
// Fractions are relative to the grouped records,
// so they always sum 1
// even if some records were rejected by the selector.
func Rank[K comparable](recs []records.Record, sel func(records.Record) (K, bool)) *Table[K] {
	counts := make(map[K]int)
	var order []K
	grouped := 0
	for _, rec := range recs {
		g, ok := sel(rec)
		if !ok {
			continue
		}
		if _, ok := counts[g]; !ok {
			order = append(order, g)
		}
		counts[g]++
		grouped++
	}

	rows := make([]Row[K], 0, len(order))
	for _, g := range order {
		rows = append(rows, Row[K]{
			Group: g,
			Count: counts[g],
		})
	}
	slices.SortStableFunc(rows, func(a, b Row[K]) int {
		// descending by count,
		// ties keep first-seen order
		return b.Count - a.Count
	})

	cum := 0.0
	for i := range rows {
		rows[i].Rank = i + 1
		rows[i].Share = float64(rows[i].Count) / float64(grouped)
		cum += rows[i].Share
		rows[i].CumShare = cum
	}

	return &Table[K]{
		Rows:    rows,
		Total:   len(recs),
		Grouped: grouped,
	}
}

// HostTaxon selects the resolved host taxon of a record.
// Records without a resolved host are rejected.
func HostTaxon(rec records.Record) (int64, bool) {
	return rec.HostID, rec.HostID != 0
}

// VirusTaxon selects the resolved virus taxon of a record.
// Records without a resolved virus are rejected.
func VirusTaxon(rec records.Record) (int64, bool) {
	return rec.VirusID, rec.VirusID != 0
}

// SpeciesLabel selects the raw virus species label of a record.
func SpeciesLabel(rec records.Record) (string, bool) {
	return rec.Species, rec.Species != ""
}
