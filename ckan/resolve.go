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
	"strings"
)

// resource formats preferred for map layers, best first
var DefaultFormatPreference = []string{"GPKG", "SHP", "GeoJSON", "CSV"}

// BestResourceURL picks the URL of the package resource whose format comes
// first in the given preference order (DefaultFormatPreference if none is
// given). Formats are compared case-insensitively. If no resource has a
// preferred format, the URL of the package's last resource is returned.
//
// Resources sharing a format collapse to the last one seen.
// FIXME: it's not clear whether the first resource of a format should win
// instead, so we keep the last-wins behavior of existing clients.
func BestResourceURL(pkg Package, preference ...string) (string, error) {
	res, err := BestResource(pkg, preference...)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

// BestResource returns the resource whose URL BestResourceURL picks.
func BestResource(pkg Package, preference ...string) (Resource, error) {
	if len(pkg.Resources) == 0 {
		return Resource{}, EmptyResourceListError{PackageId: pkg.Id}
	}
	if len(preference) == 0 {
		preference = DefaultFormatPreference
	}

	// map formats to resources, keeping each format's first position
	formats := make([]string, 0, len(pkg.Resources))
	indexForFormat := make(map[string]int)
	for i, res := range pkg.Resources {
		if _, found := indexForFormat[res.Format]; !found {
			formats = append(formats, res.Format)
		}
		indexForFormat[res.Format] = i
	}

	for _, preferredFormat := range preference {
		for _, format := range formats {
			if strings.EqualFold(preferredFormat, format) {
				return pkg.Resources[indexForFormat[format]], nil
			}
		}
	}

	// none of the preferred formats were found, so fall back to the last resource
	return pkg.Resources[len(pkg.Resources)-1], nil
}
