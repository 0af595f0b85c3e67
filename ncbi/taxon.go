// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ncbi

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
)

// A Taxon stores the taxonomic information
// of an NCBI taxonomy record.
type Taxon struct {
	ID     int64  `xml:"TaxId"`
	Name   string `xml:"ScientificName"`
	Rank   string `xml:"Rank"`
	Parent int64  `xml:"ParentTaxId"`

	GenBankCommon string   `xml:"OtherNames>GenbankCommonName"`
	CommonNames   []string `xml:"OtherNames>CommonName"`

	// Lineage is the ancestor list of the taxon,
	// from the most inclusive taxon inwards,
	// not including the taxon itself.
	Lineage []LineageTaxon `xml:"LineageEx>Taxon"`
}

// A LineageTaxon is an ancestor reference
// inside a taxonomy record.
type LineageTaxon struct {
	ID   int64  `xml:"TaxId"`
	Name string `xml:"ScientificName"`
	Rank string `xml:"Rank"`
}

// Common returns the preferred common name of a taxon,
// or an empty string
// if the taxon has no common name.
func (tax *Taxon) Common() string {
	if tax.GenBankCommon != "" {
		return tax.GenBankCommon
	}
	if len(tax.CommonNames) > 0 {
		return tax.CommonNames[0]
	}
	return ""
}

type taxaSet struct {
	Taxa []*Taxon `xml:"Taxon"`
}

// Taxon returns the taxonomy record
// of the taxon with a given ID.
func (c *Client) Taxon(ctx context.Context, id int64) (*Taxon, error) {
	if id == 0 {
		return nil, fmt.Errorf("ncbi: taxon: search an empty ID")
	}

	q := url.Values{}
	q.Set("db", "taxonomy")
	q.Set("id", strconv.FormatInt(id, 10))

	body, err := c.get(ctx, "efetch.fcgi", q)
	if err != nil {
		return nil, err
	}

	var ts taxaSet
	if err := xml.Unmarshal(body, &ts); err != nil {
		return nil, fmt.Errorf("ncbi: taxon %d: %v", id, err)
	}
	if len(ts.Taxa) == 0 {
		return nil, fmt.Errorf("ncbi: taxon %d: not found", id)
	}
	return ts.Taxa[0], nil
}
