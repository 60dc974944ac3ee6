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

// Package portals maps the names of configured CKAN portals (or ad-hoc API
// URLs) to CKAN clients.
package portals

import (
	"cmp"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/opendata-tools/ckan2felt/ckan"
	"github.com/opendata-tools/ckan2felt/config"
)

// a configured portal, as reported to callers
type Portal struct {
	// short name used to refer to the portal
	Id string `json:"id"`
	// descriptive name of the portal
	Name string `json:"name"`
	// root of the portal's CKAN API
	URL string `json:"url"`
	// organization that publishes the portal (if any)
	Organization string `json:"organization,omitempty"`
}

// we maintain a table of clients for configured portals, identified by
// portal name (clients are stateless, so they can be shared)
var (
	mu         sync.Mutex
	allClients = make(map[string]*ckan.Client)
)

// returns a CKAN client for the given portal reference, which is either the
// name of a configured portal or the absolute http(s) URL of a CKAN API root.
// Clients for configured portals are reused; a client for an ad-hoc URL is
// created anew for each call.
func NewPortal(ref string) (*ckan.Client, error) {
	timeout := time.Duration(config.Service.RequestTimeout) * time.Second
	if portal, found := config.Portals[ref]; found {
		mu.Lock()
		defer mu.Unlock()

		// do we have one of these already?
		if client, found := allClients[ref]; found {
			return client, nil
		}
		client, err := ckan.NewClient(portal.URL, timeout)
		if err != nil {
			return nil, err
		}
		allClients[ref] = client // stash it
		return client, nil
	}

	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, NotFoundError{Portal: ref}
	}
	return ckan.NewClient(ref, timeout)
}

// returns all configured portals, sorted by name
func Portals() []Portal {
	portals := make([]Portal, 0, len(config.Portals))
	for id, portal := range config.Portals {
		portals = append(portals, Portal{
			Id:           id,
			Name:         portal.Name,
			URL:          portal.URL,
			Organization: portal.Organization,
		})
	}
	slices.SortFunc(portals, func(p1, p2 Portal) int { // sort by name
		if c := cmp.Compare(p1.Name, p2.Name); c != 0 {
			return c
		}
		return cmp.Compare(p1.Id, p2.Id)
	})
	return portals
}

// forgets all clients created so far (e.g. after the configuration changes)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	allClients = make(map[string]*ckan.Client)
}
