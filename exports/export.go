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

// Package exports turns a selection of CKAN packages into a Felt map: one
// layer per package, the Felt link that opens them all, and a Frictionless
// manifest describing the layers.
package exports

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/opendata-tools/ckan2felt/ckan"
	"github.com/opendata-tools/ckan2felt/felt"
	"github.com/opendata-tools/ckan2felt/frictionless"
)

// anything that fetches package details from a CKAN portal (satisfied by
// *ckan.Client)
type PackageSource interface {
	GetPackage(ctx context.Context, id string) (ckan.Package, error)
}

// a request to export a set of packages
type Request struct {
	// name or URL of the portal hosting the packages (informational)
	Portal string
	// identifiers of the packages to export, in layer order
	PackageIds []string
	// title of the Felt map (omitted from the link if empty)
	Title string
	// resource formats in descending order of preference (defaults to
	// ckan.DefaultFormatPreference)
	Preference []string
	// number of packages resolved concurrently (0 or 1: sequentially)
	Workers int
}

// a single map layer, resolved from one package
type Layer struct {
	PackageId string `json:"package_id"`
	Title     string `json:"title"`
	Format    string `json:"format"`
	URL       string `json:"url"`
}

// the result of an export
type Result struct {
	Id       uuid.UUID
	Portal   string
	Title    string
	Link     string
	Layers   []Layer
	Created  time.Time
	// layers available over http(s), described as a data package (nil if
	// there are none)
	Manifest *datapackage.Package
}

// resolves every requested package to its best resource and builds the Felt
// link and manifest for the resulting layers, which appear in the order in
// which their packages were requested
func Export(ctx context.Context, source PackageSource, request Request) (Result, error) {
	if len(request.PackageIds) == 0 {
		return Result{}, NoPackagesError{}
	}
	if request.Workers < 0 {
		return Result{}, InvalidWorkersError{Workers: request.Workers}
	}
	preference := request.Preference
	if len(preference) == 0 {
		preference = ckan.DefaultFormatPreference
	}

	slog.Info(fmt.Sprintf("Exporting %d package(s) from %s...",
		len(request.PackageIds), request.Portal))

	var layers []Layer
	var err error
	if request.Workers <= 1 {
		layers, err = resolveSequentially(ctx, source, request.PackageIds, preference)
	} else {
		layers, err = resolveConcurrently(ctx, source, request.PackageIds, preference, request.Workers)
	}
	if err != nil {
		return Result{}, err
	}

	urls := make([]string, len(layers))
	for i, layer := range layers {
		urls[i] = layer.URL
	}

	return Result{
		Id:       uuid.New(),
		Portal:   request.Portal,
		Title:    request.Title,
		Link:     felt.BuildLink(urls, request.Title),
		Layers:   layers,
		Created:  time.Now(),
		Manifest: newManifest(request.Title, layers),
	}, nil
}

// builds a manifest for the layers that can be downloaded over http(s), or
// returns nil if there are none or the manifest can't be created. The manifest
// never prevents an export.
func newManifest(title string, layers []Layer) *datapackage.Package {
	resources := make([]frictionless.DataResource, 0, len(layers))
	for _, layer := range layers {
		if !isWebURL(layer.URL) {
			slog.Warn(fmt.Sprintf("Layer %s (%s) left out of manifest: not an http(s) URL",
				layer.PackageId, layer.URL))
			continue
		}
		resources = append(resources, dataResource(layer))
	}
	if len(resources) == 0 {
		return nil
	}
	manifest, err := frictionless.NewManifest(title, resources)
	if err != nil {
		slog.Warn(fmt.Sprintf("Couldn't create export manifest: %s", err.Error()))
		return nil
	}
	return manifest
}

// returns true if the given string is an absolute http(s) URL
func isWebURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func resolveSequentially(ctx context.Context, source PackageSource,
	ids []string, preference []string) ([]Layer, error) {
	layers := make([]Layer, len(ids))
	for i, id := range ids {
		layer, err := resolveLayer(ctx, source, id, preference)
		if err != nil {
			return nil, err
		}
		layers[i] = layer
	}
	return layers, nil
}

// resolves up to numWorkers packages at once; each layer lands in the slot of
// its package, so order is preserved
func resolveConcurrently(ctx context.Context, source PackageSource,
	ids []string, preference []string, numWorkers int) ([]Layer, error) {
	layers := make([]Layer, len(ids))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(numWorkers)
	for i, id := range ids {
		group.Go(func() error {
			layer, err := resolveLayer(groupCtx, source, id, preference)
			if err != nil {
				return err
			}
			layers[i] = layer
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}

func resolveLayer(ctx context.Context, source PackageSource,
	id string, preference []string) (Layer, error) {
	pkg, err := source.GetPackage(ctx, id)
	if err != nil {
		return Layer{}, err
	}
	resource, err := ckan.BestResource(pkg, preference...)
	if err != nil {
		return Layer{}, err
	}
	title := pkg.Title
	if title == "" {
		title = pkg.Name
	}
	if title == "" {
		title = pkg.Id
	}
	slog.Debug(fmt.Sprintf("Package %s resolved to %s (%s)", id, resource.URL, resource.Format))
	return Layer{
		PackageId: pkg.Id,
		Title:     title,
		Format:    resource.Format,
		URL:       resource.URL,
	}, nil
}

// describes a layer as a Frictionless data resource
func dataResource(layer Layer) frictionless.DataResource {
	return frictionless.DataResource{
		Name:      frictionless.DataResourceName(layer.Title),
		Path:      layer.URL,
		Title:     layer.Title,
		Format:    strings.ToLower(layer.Format),
		MediaType: frictionless.MimeTypeFromFormat(layer.Format),
		Sources: []frictionless.DataSource{
			{Title: layer.PackageId},
		},
	}
}
