// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tsv

import (
	"fmt"
	"strings"
)

// A Header maps column names,
// in lower case,
// to their position in a table row.
type Header map[string]int

// ReadHeader reads the first row of a table
// and returns its header.
// It returns an error
// if any of the given columns is not in the header.
func ReadHeader(r *Reader, cols ...string) (Header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("when reading header: %v", err)
	}

	h := make(Header, len(row))
	for i, f := range row {
		h[strings.ToLower(strings.TrimSpace(f))] = i
	}
	for _, c := range cols {
		if _, ok := h[strings.ToLower(c)]; !ok {
			return nil, fmt.Errorf("when reading header: expecting %q field", c)
		}
	}
	return h, nil
}

// Field returns the content of a named column in a row,
// or an empty string
// if the column is not defined in the header.
func (h Header) Field(row []string, col string) string {
	i, ok := h[strings.ToLower(col)]
	if !ok {
		return ""
	}
	if i >= len(row) {
		return ""
	}
	return row[i]
}
