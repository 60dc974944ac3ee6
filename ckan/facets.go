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
)

const (
	// name of the facet that aggregates resource formats
	ResourceFormatFacet = "res_format"
	// number of facet values requested when no limit is given
	DefaultFacetLimit = 20
)

// the number of packages sharing one facet value
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// facet values with their counts, in the order the portal reported them
// (typically by descending count)
type FacetCounts []FacetCount

// returns the count for the given facet value, and whether it's present
func (f FacetCounts) Count(value string) (int, bool) {
	for _, fc := range f {
		if fc.Value == value {
			return fc.Count, true
		}
	}
	return 0, false
}

// returns the facet values in order
func (f FacetCounts) Values() []string {
	values := make([]string, len(f))
	for i, fc := range f {
		values[i] = fc.Value
	}
	return values
}

// returns the counts as an (unordered) map
func (f FacetCounts) Map() map[string]int {
	counts := make(map[string]int, len(f))
	for _, fc := range f {
		counts[fc.Value] = fc.Count
	}
	return counts
}

// ListFacet asks the portal to aggregate all packages over the given facet
// field and returns up to limit values with their counts. A limit of zero or
// less requests DefaultFacetLimit values.
func (c *Client) ListFacet(ctx context.Context, facet string, limit int) (FacetCounts, error) {
	const action = "package_search"
	if limit <= 0 {
		limit = DefaultFacetLimit
	}
	// CKAN expects facet.field to hold a JSON list
	facetFields, err := json.Marshal([]string{facet})
	if err != nil {
		return nil, err
	}
	p := Params{
		"rows":        0,
		"facet.field": string(facetFields),
		"facet.limit": limit,
	}
	result, err := c.call(ctx, action, p)
	if err != nil {
		return nil, err
	}

	var searchResult struct {
		Facets json.RawMessage `json:"facets"`
	}
	if err := json.Unmarshal(result, &searchResult); err != nil {
		return nil, c.invalidResponse(action, p, fmt.Sprintf("malformed search result: %s", err.Error()))
	}
	if isNull(searchResult.Facets) {
		return nil, c.invalidResponse(action, p, "search result has no facets")
	}
	facets, err := decodeObject(searchResult.Facets)
	if err != nil {
		return nil, c.invalidResponse(action, p, fmt.Sprintf("malformed facets: %s", err.Error()))
	}
	field, found := findField(facets, facet)
	if !found || isNull(field.Value) {
		return nil, c.invalidResponse(action, p, fmt.Sprintf("facet '%s' is missing", facet))
	}
	values, err := decodeObject(field.Value)
	if err != nil {
		return nil, c.invalidResponse(action, p,
			fmt.Sprintf("malformed counts for facet '%s': %s", facet, err.Error()))
	}

	counts := make(FacetCounts, len(values))
	for i, value := range values {
		counts[i].Value = value.Name
		if err := json.Unmarshal(value.Value, &counts[i].Count); err != nil {
			return nil, c.invalidResponse(action, p,
				fmt.Sprintf("invalid count for facet value '%s': %s", value.Name, string(value.Value)))
		}
	}
	return counts, nil
}

// lists the resource formats offered by the portal's packages with their
// package counts
func (c *Client) ListResourceFormats(ctx context.Context) (FacetCounts, error) {
	return c.ListFacet(ctx, ResourceFormatFacet, DefaultFacetLimit)
}
