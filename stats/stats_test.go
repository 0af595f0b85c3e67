// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package stats_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/js-arias/virhost/records"
	"github.com/js-arias/virhost/stats"
)

func virusRecords(ids ...int64) []records.Record {
	recs := make([]records.Record, 0, len(ids))
	for i, id := range ids {
		recs = append(recs, records.Record{
			Accession: string(rune('a' + i)),
			Species:   "virus",
			VirusID:   id,
		})
	}
	return recs
}

func TestRank(t *testing.T) {
	// A(x3), B(x1), C(x1); B seen before C
	recs := virusRecords(10, 10, 20, 30, 10)

	tab := stats.Rank(recs, stats.VirusTaxon)

	want := []stats.Row[int64]{
		{Group: 10, Count: 3, Rank: 1, Share: 0.6, CumShare: 0.6},
		{Group: 20, Count: 1, Rank: 2, Share: 0.2, CumShare: 0.8},
		{Group: 30, Count: 1, Rank: 3, Share: 0.2, CumShare: 1.0},
	}
	if len(tab.Rows) != len(want) {
		t.Fatalf("rows: got %d, want %d", len(tab.Rows), len(want))
	}
	for i, row := range tab.Rows {
		if row.Group != want[i].Group || row.Count != want[i].Count || row.Rank != want[i].Rank {
			t.Errorf("row %d: got %+v, want %+v", i, row, want[i])
		}
		if math.Abs(row.Share-want[i].Share) > 1e-9 {
			t.Errorf("row %d: share: got %g, want %g", i, row.Share, want[i].Share)
		}
		if math.Abs(row.CumShare-want[i].CumShare) > 1e-9 {
			t.Errorf("row %d: cumulative share: got %g, want %g", i, row.CumShare, want[i].CumShare)
		}
	}
	if tab.Total != 5 || tab.Grouped != 5 {
		t.Errorf("totals: got %d grouped of %d, want 5 of 5", tab.Grouped, tab.Total)
	}
	if tab.Unresolved() != 0 {
		t.Errorf("unresolved: got %d, want 0", tab.Unresolved())
	}
}

func TestRankTieBreak(t *testing.T) {
	// all groups with the same count:
	// ranking must keep first-seen order
	recs := virusRecords(30, 10, 20)

	tab := stats.Rank(recs, stats.VirusTaxon)
	var got []int64
	for _, row := range tab.Rows {
		got = append(got, row.Group)
	}
	want := []int64{30, 10, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRankDeterminism(t *testing.T) {
	recs := virusRecords(10, 20, 10, 30, 20, 40, 10)

	first := stats.Rank(recs, stats.VirusTaxon)
	for i := 0; i < 10; i++ {
		again := stats.Rank(recs, stats.VirusTaxon)
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("run %d: got %+v, want %+v", i, again, first)
		}
	}
}

func TestRankUnresolved(t *testing.T) {
	recs := []records.Record{
		{Accession: "a", Species: "x", HostID: 9606},
		{Accession: "b", Species: "x", HostID: 9606},
		{Accession: "c", Species: "x", HostID: 7159},
		{Accession: "d", Species: "x"}, // unresolved host
	}

	tab := stats.Rank(recs, stats.HostTaxon)
	if tab.Total != 4 || tab.Grouped != 3 {
		t.Errorf("totals: got %d grouped of %d, want 3 of 4", tab.Grouped, tab.Total)
	}
	if tab.Unresolved() != 1 {
		t.Errorf("unresolved: got %d, want 1", tab.Unresolved())
	}
	if math.Abs(tab.UnresolvedShare()-0.25) > 1e-9 {
		t.Errorf("unresolved share: got %g, want 0.25", tab.UnresolvedShare())
	}

	// fractions are relative to the grouped records
	sum := 0.0
	for _, row := range tab.Rows {
		sum += row.Share
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("share sum: got %g, want 1", sum)
	}
}

func TestRankShareInvariants(t *testing.T) {
	recs := virusRecords(1, 2, 2, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5)

	tab := stats.Rank(recs, stats.VirusTaxon)

	sum := 0.0
	last := 0.0
	for _, row := range tab.Rows {
		sum += row.Share
		if row.CumShare < last {
			t.Errorf("rank %d: cumulative share decreases: %g after %g", row.Rank, row.CumShare, last)
		}
		last = row.CumShare
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("share sum: got %g, want 1", sum)
	}
	if math.Abs(last-1) > 1e-9 {
		t.Errorf("final cumulative share: got %g, want 1", last)
	}
}

func TestRankBySpecies(t *testing.T) {
	recs := []records.Record{
		{Accession: "a", Species: "Zika virus"},
		{Accession: "b", Species: "Zika virus"},
		{Accession: "c", Species: "West Nile virus"},
	}

	tab := stats.Rank(recs, stats.SpeciesLabel)
	if len(tab.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(tab.Rows))
	}
	if tab.Rows[0].Group != "Zika virus" || tab.Rows[0].Count != 2 {
		t.Errorf("first row: got %+v", tab.Rows[0])
	}
}

func TestRankEmpty(t *testing.T) {
	tab := stats.Rank(nil, stats.VirusTaxon)
	if len(tab.Rows) != 0 {
		t.Errorf("rows: got %d, want 0", len(tab.Rows))
	}
	if tab.Total != 0 || tab.Grouped != 0 {
		t.Errorf("totals: got %d grouped of %d, want 0 of 0", tab.Grouped, tab.Total)
	}
	if tab.UnresolvedShare() != 0 {
		t.Errorf("unresolved share: got %g, want 0", tab.UnresolvedShare())
	}
}
