// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ncbi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/js-arias/virhost/ncbi"
)

const searchAnswer = `{
	"esearchresult": {
		"count": "2",
		"idlist": ["149531", "7158"]
	}
}`

const fetchAnswer = `<?xml version="1.0" ?>
<TaxaSet>
	<Taxon>
		<TaxId>9606</TaxId>
		<ScientificName>Homo sapiens</ScientificName>
		<ParentTaxId>9605</ParentTaxId>
		<Rank>species</Rank>
		<OtherNames>
			<GenbankCommonName>human</GenbankCommonName>
			<CommonName>man</CommonName>
		</OtherNames>
		<LineageEx>
			<Taxon>
				<TaxId>131567</TaxId>
				<ScientificName>cellular organisms</ScientificName>
				<Rank>no rank</Rank>
			</Taxon>
			<Taxon>
				<TaxId>9605</TaxId>
				<ScientificName>Homo</ScientificName>
				<Rank>genus</Rank>
			</Taxon>
		</LineageEx>
	</Taxon>
</TaxaSet>`

func newServer(t testing.TB) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		if db := r.FormValue("db"); db != "taxonomy" {
			http.Error(w, "bad db", http.StatusBadRequest)
			return
		}
		w.Write([]byte(searchAnswer))
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		if id := r.FormValue("id"); id != "9606" {
			w.Write([]byte(`<?xml version="1.0" ?><TaxaSet></TaxaSet>`))
			return
		}
		w.Write([]byte(fetchAnswer))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string) *ncbi.Client {
	return ncbi.NewClient(ncbi.Config{
		URL: url + "/",
		QPS: 1000,
	})
}

func TestSearchName(t *testing.T) {
	srv := newServer(t)
	c := newClient(srv.URL)
	ctx := context.Background()

	ids, err := c.SearchName(ctx, "Aedes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{149531, 7158}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("got %v, want %v", ids, want)
	}
}

func TestTaxon(t *testing.T) {
	srv := newServer(t)
	c := newClient(srv.URL)
	ctx := context.Background()

	tax, err := c.Taxon(ctx, 9606)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tax.Name != "Homo sapiens" {
		t.Errorf("name: got %q, want %q", tax.Name, "Homo sapiens")
	}
	if tax.Rank != "species" {
		t.Errorf("rank: got %q, want %q", tax.Rank, "species")
	}
	if tax.Parent != 9605 {
		t.Errorf("parent: got %d, want %d", tax.Parent, 9605)
	}
	if tax.Common() != "human" {
		t.Errorf("common name: got %q, want %q", tax.Common(), "human")
	}

	if _, err := c.Taxon(ctx, 1000000); err == nil {
		t.Errorf("expecting error for unknown taxon")
	}
}

func TestAncestorPath(t *testing.T) {
	srv := newServer(t)
	c := newClient(srv.URL)
	ctx := context.Background()

	path, err := c.AncestorPath(ctx, 9606)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the NCBI lineage does not include the taxonomy root
	want := []int64{1, 131567, 9605, 9606}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("got %v, want %v", path, want)
	}

	path, err = c.AncestorPath(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(path, []int64{1}) {
		t.Errorf("root path: got %v, want %v", path, []int64{1})
	}
}

func TestRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(searchAnswer))
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	ctx := context.Background()

	if _, err := c.SearchName(ctx, "Aedes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls: got %d, want 2", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	ctx := context.Background()

	if _, err := c.SearchName(ctx, "Aedes"); err == nil {
		t.Fatalf("expecting error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}
