// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package taxcache implements a hierarchy oracle
// that caches the answers of another oracle
// in an SQLite database,
// so a long batch resolution can be stopped
// and restarted
// without querying the remote service again.
//
// Names without any candidate are also cached,
// as unknown names are common
// in free-text host annotations.
package taxcache

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/js-arias/virhost/resolve"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS names (
		name TEXT PRIMARY KEY,
		ids  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS taxa (
		taxid  INTEGER PRIMARY KEY,
		name   TEXT NOT NULL,
		common TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS paths (
		taxid INTEGER PRIMARY KEY,
		path  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subtrees (
		taxid INTEGER PRIMARY KEY,
		ids   TEXT NOT NULL
	)`,
}

// A Cache is a hierarchy oracle
// backed by an SQLite database.
// Answers not found in the database
// are retrieved from a source oracle
// and stored.
type Cache struct {
	db  *sql.DB
	src resolve.Oracle
}

// Open opens a cache database,
// creating it if needed.
// The source oracle can be nil,
// in which case any answer not already in the database
// is an error.
func Open(name string, src resolve.Oracle) (*Cache, error) {
	db, err := sql.Open("sqlite", name)
	if err != nil {
		return nil, fmt.Errorf("taxcache: on file %q: %v", name, err)
	}
	for _, s := range schema {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("taxcache: on file %q: %v", name, err)
		}
	}
	return &Cache{
		db:  db,
		src: src,
	}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// ResolveNames returns the candidate IDs
// for each of the given names.
// Names without any candidate are left out of the returned map.
// Names not in the cache
// are resolved with the source oracle
// and stored,
// including the names without candidates.
func (c *Cache) ResolveNames(ctx context.Context, names []string) (map[string][]int64, error) {
	m := make(map[string][]int64, len(names))
	var misses []string
	for _, n := range names {
		var enc string
		err := c.db.QueryRowContext(ctx, "SELECT ids FROM names WHERE name = ?", n).Scan(&enc)
		if err == sql.ErrNoRows {
			misses = append(misses, n)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("taxcache: name %q: %v", n, err)
		}
		ids, err := decodeIDs(enc)
		if err != nil {
			return nil, fmt.Errorf("taxcache: name %q: %v", n, err)
		}
		if len(ids) == 0 {
			continue
		}
		m[n] = ids
	}
	if len(misses) == 0 {
		return m, nil
	}
	if c.src == nil {
		return nil, fmt.Errorf("taxcache: %d names not cached: %q", len(misses), misses[0])
	}

	got, err := c.src.ResolveNames(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, n := range misses {
		ids := got[n]
		if _, err := c.db.ExecContext(ctx, "INSERT OR REPLACE INTO names (name, ids) VALUES (?, ?)", n, encodeIDs(ids)); err != nil {
			return nil, fmt.Errorf("taxcache: name %q: %v", n, err)
		}
		if len(ids) == 0 {
			continue
		}
		m[n] = ids
	}
	return m, nil
}

// CanonicalName returns the scientific name of a taxon.
func (c *Cache) CanonicalName(ctx context.Context, id int64) (string, error) {
	name, _, err := c.taxon(ctx, id)
	return name, err
}

// CommonName returns the common name of a taxon,
// or an empty string
// if the taxon has no common name.
func (c *Cache) CommonName(ctx context.Context, id int64) (string, error) {
	_, common, err := c.taxon(ctx, id)
	return common, err
}

func (c *Cache) taxon(ctx context.Context, id int64) (name, common string, err error) {
	err = c.db.QueryRowContext(ctx, "SELECT name, common FROM taxa WHERE taxid = ?", id).Scan(&name, &common)
	if err == nil {
		return name, common, nil
	}
	if err != sql.ErrNoRows {
		return "", "", fmt.Errorf("taxcache: taxon %d: %v", id, err)
	}
	if c.src == nil {
		return "", "", fmt.Errorf("taxcache: taxon %d: not cached", id)
	}

	name, err = c.src.CanonicalName(ctx, id)
	if err != nil {
		return "", "", err
	}
	common, err = c.src.CommonName(ctx, id)
	if err != nil {
		common = ""
	}
	if _, err := c.db.ExecContext(ctx, "INSERT OR REPLACE INTO taxa (taxid, name, common) VALUES (?, ?, ?)", id, name, common); err != nil {
		return "", "", fmt.Errorf("taxcache: taxon %d: %v", id, err)
	}
	return name, common, nil
}

// AncestorPath returns the IDs of all the taxa
// from the root of the hierarchy
// up to,
// and including,
// the given taxon.
func (c *Cache) AncestorPath(ctx context.Context, id int64) ([]int64, error) {
	return c.idList(ctx, id, "paths", "path", c.srcPath)
}

// Descendants returns the IDs of a taxon
// and all of its descendants.
func (c *Cache) Descendants(ctx context.Context, id int64) ([]int64, error) {
	return c.idList(ctx, id, "subtrees", "ids", c.srcSubtree)
}

func (c *Cache) srcPath(ctx context.Context, id int64) ([]int64, error) {
	return c.src.AncestorPath(ctx, id)
}

func (c *Cache) srcSubtree(ctx context.Context, id int64) ([]int64, error) {
	return c.src.Descendants(ctx, id)
}

func (c *Cache) idList(ctx context.Context, id int64, table, column string, from func(context.Context, int64) ([]int64, error)) ([]int64, error) {
	var enc string
	err := c.db.QueryRowContext(ctx, "SELECT "+column+" FROM "+table+" WHERE taxid = ?", id).Scan(&enc)
	if err == nil {
		return decodeIDs(enc)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("taxcache: taxon %d: %v", id, err)
	}
	if c.src == nil {
		return nil, fmt.Errorf("taxcache: taxon %d: not cached", id)
	}

	ids, err := from(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := c.db.ExecContext(ctx, "INSERT OR REPLACE INTO "+table+" (taxid, "+column+") VALUES (?, ?)", id, encodeIDs(ids)); err != nil {
		return nil, fmt.Errorf("taxcache: taxon %d: %v", id, err)
	}
	return ids, nil
}

func encodeIDs(ids []int64) string {
	v := make([]string, 0, len(ids))
	for _, id := range ids {
		v = append(v, strconv.FormatInt(id, 10))
	}
	return strings.Join(v, " ")
}

func decodeIDs(enc string) ([]int64, error) {
	f := strings.Fields(enc)
	if len(f) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(f))
	for _, s := range f {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
