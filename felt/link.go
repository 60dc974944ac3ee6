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

// Package felt builds "Open in Felt" links that create a new Felt map from a
// list of layer URLs.
package felt

import (
	"net/url"
	"strings"
)

const (
	// the Felt page that creates a new map from the link's parameters
	BaseURL = "https://felt.com/map/new"
	// query parameter repeated once per layer URL
	LayerParameter = "layer_urls[]"
	// query parameter holding the map title
	TitleParameter = "title"
)

// BuildLink returns a link that opens a new Felt map with one layer per URL.
// Layers are listed in the given order and duplicates are kept, since the
// order determines how Felt stacks them. The title is omitted if empty.
func BuildLink(layerURLs []string, title string) string {
	var query strings.Builder
	for _, layerURL := range layerURLs {
		appendParam(&query, LayerParameter, layerURL)
	}
	if title != "" {
		appendParam(&query, TitleParameter, title)
	}
	if query.Len() == 0 {
		return BaseURL
	}
	return BaseURL + "?" + query.String()
}

func appendParam(query *strings.Builder, key, value string) {
	if query.Len() > 0 {
		query.WriteByte('&')
	}
	query.WriteString(url.QueryEscape(key))
	query.WriteByte('=')
	query.WriteString(url.QueryEscape(value))
}
