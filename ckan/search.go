// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package ckan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// number of rows requested when a search doesn't specify one
const DefaultRows = 50

// parameters that define a search for packages
type SearchParameters struct {
	// free-text search query (optional)
	Query string
	// resource format filter (optional, matched literally and case-sensitively)
	Format string
	// pagination support
	Pagination SearchPaginationParameters
}

type SearchPaginationParameters struct {
	// number of search results to skip
	Offset int
	// maximum number of search results to include (0 indicates DefaultRows)
	MaxNum int
}

// builds the package_search parameters for the given search, validating its
// pagination
func searchParams(params SearchParameters) (Params, error) {
	if params.Pagination.Offset < 0 {
		return nil, InvalidSearchParameterError{
			Message: fmt.Sprintf("offset must be non-negative (got %d)", params.Pagination.Offset),
		}
	}
	if params.Pagination.MaxNum < 0 {
		return nil, InvalidSearchParameterError{
			Message: fmt.Sprintf("maximum number of results must be positive (got %d)", params.Pagination.MaxNum),
		}
	}
	rows := params.Pagination.MaxNum
	if rows == 0 {
		rows = DefaultRows
	}
	p := Params{
		"rows":  rows,
		"start": params.Pagination.Offset,
	}
	if params.Query != "" {
		p["q"] = params.Query
	}
	if params.Format != "" {
		p["fq"] = fmt.Sprintf("res_format:%s", params.Format)
	}
	return p, nil
}

// SearchPackages runs a package search and returns its results as a
// normalized table. If nothing matches, it returns a nil table and no error.
func (c *Client) SearchPackages(ctx context.Context, params SearchParameters) (*Table, error) {
	const action = "package_search"
	p, err := searchParams(params)
	if err != nil {
		return nil, err
	}
	result, err := c.call(ctx, action, p)
	if err != nil {
		return nil, err
	}

	var searchResult struct {
		Count   int               `json:"count"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(result, &searchResult); err != nil {
		return nil, c.invalidResponse(action, p, fmt.Sprintf("malformed search result: %s", err.Error()))
	}
	if searchResult.Results == nil {
		return nil, c.invalidResponse(action, p, "search result has no results list")
	}
	slog.Debug(fmt.Sprintf("Search matched %d package(s), %d returned",
		searchResult.Count, len(searchResult.Results)))
	if len(searchResult.Results) == 0 {
		return nil, nil
	}

	packages := make([]Package, len(searchResult.Results))
	for i, raw := range searchResult.Results {
		packages[i], err = parsePackage(raw)
		if err != nil {
			return nil, c.invalidResponse(action, p, err.Error())
		}
	}
	table := Normalize(packages)
	return &table, nil
}
