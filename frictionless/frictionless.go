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

package frictionless

import (
	"strings"
)

// a Frictionless data resource describing one layer of an export
// (https://specs.frictionlessdata.io/data-resource/)
type DataResource struct {
	// the name of the resource, lower case (see DataResourceName)
	Name string `json:"name"`
	// the URL from which the resource's file is downloaded
	Path string `json:"path"`
	// a title or label for the resource (optional)
	Title string `json:"title,omitempty"`
	// a description of the resource (optional)
	Description string `json:"description,omitempty"`
	// indicates the format of the resource's file, often used as an extension
	Format string `json:"format,omitempty"`
	// the mediatype/mimetype of the resource (optional, e.g. "text/csv")
	MediaType string `json:"mediatype,omitempty"`
	// a list identifying the sources for this resource (optional)
	Sources []DataSource `json:"sources,omitempty"`
}

// information about the source of a DataResource
type DataSource struct {
	// a URI pointing to the source (optional)
	Path string `json:"path,omitempty"`
	// a descriptive title for the source
	Title string `json:"title"`
}

// returns a descriptor for the resource suitable for datapackage-go
func (res DataResource) Descriptor() map[string]any {
	descriptor := map[string]any{
		"name": res.Name,
		"path": res.Path,
	}
	if res.Title != "" {
		descriptor["title"] = res.Title
	}
	if res.Description != "" {
		descriptor["description"] = res.Description
	}
	if res.Format != "" {
		descriptor["format"] = res.Format
	}
	if res.MediaType != "" {
		descriptor["mediatype"] = res.MediaType
	}
	if len(res.Sources) > 0 {
		sources := make([]any, len(res.Sources))
		for i, source := range res.Sources {
			s := map[string]any{"title": source.Title}
			if source.Path != "" {
				s["path"] = source.Path
			}
			sources[i] = s
		}
		descriptor["sources"] = sources
	}
	return descriptor
}

// a mapping from file format labels to mime types
var formatToMimeType = map[string]string{
	"csv":     "text/csv",
	"geojson": "application/geo+json",
	"gpkg":    "application/geopackage+sqlite3",
	"json":    "application/json",
	"kml":     "application/vnd.google-earth.kml+xml",
	"kmz":     "application/vnd.google-earth.kmz",
	"shp":     "application/zip", // shapefiles are distributed as zip archives
	"zip":     "application/zip",
	"xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// returns the mime type for a format label, or "" if it's not known
func MimeTypeFromFormat(format string) string {
	return formatToMimeType[strings.ToLower(format)]
}

// creates a Frictionless DataResource-savvy name from a label:
// * the name consists of lower case characters plus '.', '-', and '_'
// * sequences of forbidden characters are replaced with '_'
// * leading and trailing '_' are dropped
func DataResourceName(label string) string {
	name := strings.ToLower(label)

	// replace sequences of invalid characters with '_'
	isValid := func(c rune) bool {
		return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' || c == '.'
	}
	var b strings.Builder
	inInvalidRun := false
	for _, c := range name {
		if !isValid(c) {
			if !inInvalidRun {
				b.WriteRune('_')
				inInvalidRun = true
			}
			continue
		}
		inInvalidRun = false
		b.WriteRune(c)
	}
	name = strings.Trim(b.String(), "_")
	if name == "" {
		return "layer"
	}
	return name
}
