// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ncbi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// SearchAnswer is the answer for an esearch request.
type searchAnswer struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// searchPageSize is the number of IDs
// requested on each esearch page.
const searchPageSize = 10000

func (c *Client) search(ctx context.Context, term string, retStart, retMax int) (ids []int64, count int, err error) {
	q := url.Values{}
	q.Set("db", "taxonomy")
	q.Set("term", term)
	q.Set("retmode", "json")
	q.Set("retstart", strconv.Itoa(retStart))
	q.Set("retmax", strconv.Itoa(retMax))

	body, err := c.get(ctx, "esearch.fcgi", q)
	if err != nil {
		return nil, 0, err
	}

	var a searchAnswer
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, 0, fmt.Errorf("ncbi: search %q: %v", term, err)
	}
	count, err = strconv.Atoi(a.Result.Count)
	if err != nil {
		return nil, 0, fmt.Errorf("ncbi: search %q: count: %v", term, err)
	}

	ids = make([]int64, 0, len(a.Result.IDList))
	for _, s := range a.Result.IDList {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("ncbi: search %q: %v", term, err)
		}
		ids = append(ids, id)
	}
	return ids, count, nil
}

// SearchName returns the IDs of all the taxa
// with the given name
// (scientific, common, or synonym).
// An unknown name returns an empty set.
func (c *Client) SearchName(ctx context.Context, name string) ([]int64, error) {
	term := fmt.Sprintf("%q[All Names]", name)
	ids, _, err := c.search(ctx, term, 0, 100)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Subtree returns the IDs of a taxon
// and all of its descendants.
func (c *Client) Subtree(ctx context.Context, id int64) ([]int64, error) {
	term := fmt.Sprintf("txid%d[Subtree]", id)

	var ids []int64
	for {
		page, count, err := c.search(ctx, term, len(ids), searchPageSize)
		if err != nil {
			return nil, err
		}
		ids = append(ids, page...)
		if len(ids) >= count || len(page) == 0 {
			break
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("ncbi: subtree: taxon %d: not found", id)
	}
	return ids, nil
}
