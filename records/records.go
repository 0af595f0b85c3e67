// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package records implements a table
// of virus sequence metadata records,
// one record per deposited sequence.
package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/js-arias/virhost/resolve"
	"github.com/js-arias/virhost/tsv"
)

// A Record is one deposited virus sequence.
// The host and virus taxon IDs
// are zero until the record is enriched,
// and remain zero
// if the resolution of the record fails.
type Record struct {
	Accession string // accession of the sequence
	Length    int64  // sequence length
	Host      string // raw host annotation
	Species   string // virus species label
	HostKey   string // binomial key derived from the host annotation
	HostID    int64  // resolved host taxon
	VirusID   int64  // resolved virus taxon
}

var headerCols = []string{
	"accession",
	"length",
	"host",
	"species",
}

// enriched tables carry the resolved taxon IDs
var taxidCols = []string{
	"hostTaxid",
	"virusTaxid",
}

// Read reads a record table from a TSV-encoded file.
// The table must have at least
// the accession, length, host, and species columns;
// the hostTaxid and virusTaxid columns of an enriched table
// are read when present.
// The host binomial key is derived on reading.
func Read(r io.Reader) ([]Record, error) {
	tab := tsv.NewReader(r)
	header, err := tsv.ReadHeader(tab, headerCols...)
	if err != nil {
		return nil, fmt.Errorf("when reading records: %v", err)
	}

	var recs []Record
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln := tab.Line()
		if err != nil {
			return nil, fmt.Errorf("records: row %d: %v", ln, err)
		}

		rec := Record{
			Accession: header.Field(row, "accession"),
			Host:      header.Field(row, "host"),
			Species:   header.Field(row, "species"),
		}
		if rec.Accession == "" {
			return nil, fmt.Errorf("records: row %d: record without accession", ln)
		}
		if rec.Species == "" {
			return nil, fmt.Errorf("records: row %d: %q: record without species", ln, rec.Accession)
		}
		rec.HostKey = resolve.Key(rec.Host)

		if f := header.Field(row, "length"); f != "" {
			rec.Length, err = strconv.ParseInt(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("records: row %d: %q: %v", ln, "length", err)
			}
			if rec.Length < 0 {
				return nil, fmt.Errorf("records: row %d: %q: negative length", ln, rec.Accession)
			}
		}
		for i, f := range []string{"hosttaxid", "virustaxid"} {
			v := header.Field(row, f)
			if v == "" {
				continue
			}
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("records: row %d: %q: %v", ln, f, err)
			}
			if i == 0 {
				rec.HostID = id
			} else {
				rec.VirusID = id
			}
		}

		recs = append(recs, rec)
	}
	return recs, nil
}

// Write writes a record table into a TSV table.
func Write(w io.Writer, recs []Record) error {
	out := tsv.NewWriter(w)

	header := make([]string, 0, len(headerCols)+len(taxidCols))
	header = append(header, headerCols...)
	header = append(header, taxidCols...)
	if err := out.Write(header); err != nil {
		return fmt.Errorf("when writing records: %v", err)
	}

	for _, rec := range recs {
		hostID := ""
		if rec.HostID != 0 {
			hostID = strconv.FormatInt(rec.HostID, 10)
		}
		virusID := ""
		if rec.VirusID != 0 {
			virusID = strconv.FormatInt(rec.VirusID, 10)
		}
		row := []string{
			rec.Accession,
			strconv.FormatInt(rec.Length, 10),
			rec.Host,
			rec.Species,
			hostID,
			virusID,
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("when writing records: %v", err)
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("when writing records: %v", err)
	}
	return nil
}

// Enrich returns a copy of the record set
// with the host taxon
// of each record with a cataloged host key,
// and the virus taxon
// of each record with a resolved species label.
// Records whose host or species did not resolve
// keep a zero ID.
func Enrich(recs []Record, hosts *resolve.Catalog, viruses map[string]int64) []Record {
	enriched := make([]Record, len(recs))
	for i, rec := range recs {
		if e, ok := hosts.Get(rec.HostKey); ok {
			rec.HostID = e.ID
		}
		if id, ok := viruses[rec.Species]; ok {
			rec.VirusID = id
		}
		enriched[i] = rec
	}
	return enriched
}

// ExcludeSubtrees returns the records
// whose virus taxon is not a descendant
// of any of the given root taxa
// (the roots themselves included).
// The input record set is never modified.
func ExcludeSubtrees(ctx context.Context, o resolve.Oracle, recs []Record, roots []int64) ([]Record, error) {
	excluded := make(map[int64]bool)
	for _, r := range roots {
		ids, err := o.Descendants(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("records: exclude taxon %d: %v", r, err)
		}
		excluded[r] = true
		for _, id := range ids {
			excluded[id] = true
		}
	}

	var kept []Record
	for _, rec := range recs {
		if rec.VirusID != 0 && excluded[rec.VirusID] {
			continue
		}
		kept = append(kept, rec)
	}
	return kept, nil
}
