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
	"fmt"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"
)

// keywords attached to every manifest
var ManifestKeywords = []string{"ckan", "felt", "layers"}

// creates a Frictionless data package describing the given resources, each of
// which is given a unique name within the package
func NewManifest(title string, resources []DataResource) (*datapackage.Package, error) {
	descriptors := make([]any, len(resources))
	names := make(map[string]int)
	for i, resource := range resources {
		if resource.Name == "" {
			resource.Name = DataResourceName(resource.Title)
		}
		resource.Name = uniqueName(resource.Name, names)
		descriptors[i] = resource.Descriptor()
	}

	keywords := make([]any, len(ManifestKeywords))
	for i, keyword := range ManifestKeywords {
		keywords[i] = keyword
	}

	name := "manifest"
	if title != "" {
		name = DataResourceName(title)
	}
	descriptor := map[string]any{
		"name":      name,
		"resources": descriptors,
		"created":   time.Now().Format(time.RFC3339),
		"profile":   "data-package",
		"keywords":  keywords,
	}
	if title != "" {
		descriptor["title"] = title
	}

	manifest, err := datapackage.New(descriptor, ".")
	if err != nil {
		return nil, fmt.Errorf("creating manifest: %s", err.Error())
	}
	return manifest, nil
}

// reads a manifest from its JSON descriptor
func ParseManifest(descriptor string) (*datapackage.Package, error) {
	return datapackage.FromString(descriptor, "manifest.json", validator.InMemoryLoader())
}

// appends a number suffix to a name that has already been used
func uniqueName(name string, used map[string]int) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	for {
		candidate := fmt.Sprintf("%s_%d", name, n+1)
		if _, taken := used[candidate]; !taken {
			used[candidate] = 1
			return candidate
		}
		n++
	}
}
