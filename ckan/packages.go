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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// a downloadable file attached to a CKAN package
type Resource struct {
	Id     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Format string `json:"format"`
	URL    string `json:"url"`
}

// A CKAN package (dataset) record. Id is always present; Resources is empty
// (never nil) for packages without resources. Fields holds every top-level
// field of the record in the order the portal sent them.
type Package struct {
	Id        string
	Name      string
	Title     string
	Resources []Resource
	Fields    []Field
}

// returns the unique formats of the package's resources, in the order in
// which they first appear (case as provided). A resource without a format
// contributes the empty string.
func (p Package) Formats() []string {
	formats := make([]string, 0, len(p.Resources))
	seen := make(map[string]bool)
	for _, res := range p.Resources {
		if seen[res.Format] {
			continue
		}
		seen[res.Format] = true
		formats = append(formats, res.Format)
	}
	return formats
}

// encodes the package as a JSON object with its fields in their original
// order
func (p Package) MarshalJSON() ([]byte, error) {
	if len(p.Fields) == 0 {
		return json.Marshal(struct {
			Id        string     `json:"id"`
			Name      string     `json:"name,omitempty"`
			Title     string     `json:"title,omitempty"`
			Resources []Resource `json:"resources"`
		}{p.Id, p.Name, p.Title, p.Resources})
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range p.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if isNull(field.Value) {
			buf.WriteString("null")
		} else {
			buf.Write(field.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parses a raw package record, failing if it isn't a JSON object with a
// non-empty string identifier or if its resources aren't a list
func parsePackage(raw json.RawMessage) (Package, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Package{}, fmt.Errorf("malformed package record: %s", err.Error())
	}
	pkg := Package{
		Resources: make([]Resource, 0),
		Fields:    fields,
	}

	idField, found := findField(fields, "id")
	if !found {
		return Package{}, fmt.Errorf("package record has no id")
	}
	if err := json.Unmarshal(idField.Value, &pkg.Id); err != nil || pkg.Id == "" {
		return Package{}, fmt.Errorf("package record has an invalid id: %s", string(idField.Value))
	}

	// name and title are informational, so we only take them if they're strings
	if field, found := findField(fields, "name"); found {
		json.Unmarshal(field.Value, &pkg.Name)
	}
	if field, found := findField(fields, "title"); found {
		json.Unmarshal(field.Value, &pkg.Title)
	}

	if field, found := findField(fields, "resources"); found && !isNull(field.Value) {
		var resources []struct {
			Id     *string `json:"id"`
			Name   *string `json:"name"`
			Format *string `json:"format"`
			URL    *string `json:"url"`
		}
		if err := json.Unmarshal(field.Value, &resources); err != nil {
			return Package{}, fmt.Errorf("package '%s' has malformed resources: %s", pkg.Id, err.Error())
		}
		deref := func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		}
		for _, res := range resources {
			pkg.Resources = append(pkg.Resources, Resource{
				Id:     deref(res.Id),
				Name:   deref(res.Name),
				Format: deref(res.Format),
				URL:    deref(res.URL),
			})
		}
	}
	return pkg, nil
}

// fetches the full record for the package with the given ID or name
func (c *Client) GetPackage(ctx context.Context, id string) (Package, error) {
	const action = "package_show"
	params := Params{"id": id}
	result, err := c.call(ctx, action, params)
	if err != nil {
		return Package{}, err
	}
	pkg, err := parsePackage(result)
	if err != nil {
		return Package{}, c.invalidResponse(action, params, err.Error())
	}
	slog.Debug(fmt.Sprintf("Package %s has %d resource(s)", pkg.Id, len(pkg.Resources)))
	return pkg, nil
}

// lists the names of all packages published by the portal
func (c *Client) ListPackages(ctx context.Context) ([]string, error) {
	const action = "package_list"
	params := Params{}
	result, err := c.call(ctx, action, params)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(result, &names); err != nil {
		return nil, c.invalidResponse(action, params,
			fmt.Sprintf("result is not a list of package names: %s", err.Error()))
	}
	return names, nil
}
