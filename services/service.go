package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/opendata-tools/ckan2felt/ckan"
	"github.com/opendata-tools/ckan2felt/exports"
	"github.com/opendata-tools/ckan2felt/portals"
)

// this type encodes a JSON object for responding to root queries
type ServiceInfoResponse struct {
	Name          string `json:"name" example:"ckan2felt" doc:"The name of the service API"`
	Version       string `json:"version" example:"1.0.0" doc:"The version string (major.minor.patch)"`
	Uptime        int    `json:"uptime" example:"345600" doc:"The time the service has been up (seconds)"`
	Documentation string `json:"documentation" example:"/docs" doc:"The OpenAPI documentation endpoint"`
}

// a response for a portal-related query (GET)
type PortalsResponse struct {
	Portals []portals.Portal `json:"portals" doc:"the configured CKAN portals, sorted by name"`
}

// a response for a facet query (GET)
type FacetResponse struct {
	// name or URL of the portal
	Portal string `json:"portal" example:"toronto" doc:"the portal queried"`
	// name of the facet field
	Facet string `json:"facet" example:"res_format" doc:"the facet field"`
	// distinct values and their counts, most frequent first
	Counts ckan.FacetCounts `json:"counts" doc:"facet values with the number of packages having them"`
}

// a response for a package search (GET)
type SearchResultsResponse struct {
	// name or URL of the portal
	Portal string `json:"portal" example:"toronto" doc:"the portal searched"`
	// search terms
	Query string `json:"query" example:"parks" doc:"the given query string"`
	// resource format filter
	Format string `json:"format,omitempty" example:"GeoJSON" doc:"the given resource format filter"`
	// true iff nothing matched the search
	NoResults bool `json:"no_results" doc:"set if no packages matched"`
	// column names, in order
	Columns []string `json:"columns,omitempty" doc:"the columns of the result table"`
	// one row per matching package
	Rows []ckan.Row `json:"rows,omitempty" doc:"the rows of the result table"`
}

// a response for a package listing (GET)
type PackageIdsResponse struct {
	Portal string   `json:"portal" example:"toronto" doc:"the portal queried"`
	Ids    []string `json:"ids" doc:"the identifiers (names) of all packages in the portal"`
}

// a response for a single package (GET)
type PackageResponse struct {
	Portal string `json:"portal" example:"toronto" doc:"the portal queried"`
	Id     string `json:"id" doc:"the package's identifier"`
	Title  string `json:"title,omitempty" doc:"the package's title"`
	// formats of the package's resources
	Formats []string `json:"formats" doc:"the distinct formats of the package's resources"`
	// URL of the package's most suitable resource for mapping
	BestURL string `json:"best_url" doc:"the URL of the resource best suited for a map layer"`
	// the package record as sent by the portal
	Record json.RawMessage `json:"record" doc:"the package record, with fields in the portal's order"`
}

// a request for a Felt map export (POST)
type ExportRequest struct {
	// name or URL of the portal
	Portal string `json:"portal" example:"toronto" doc:"portal name or CKAN API URL"`
	// identifiers of packages, one layer each
	PackageIds []string `json:"package_ids" doc:"identifiers of packages to export, in layer order"`
	// map title
	Title string `json:"title,omitempty" example:"My Map" doc:"the title of the Felt map"`
	// preferred resource formats
	FormatPreference []string `json:"format_preference,omitempty" doc:"resource formats in descending order of preference"`
}

// a response for an export request (POST)
type ExportResponse struct {
	Id       uuid.UUID       `json:"id" doc:"a UUID for the export"`
	Portal   string          `json:"portal" doc:"the portal hosting the packages"`
	Title    string          `json:"title,omitempty" doc:"the title of the Felt map"`
	Link     string          `json:"link" doc:"a link that opens the layers in a new Felt map"`
	Layers   []exports.Layer `json:"layers" doc:"the layers of the map, in request order"`
	Manifest map[string]any  `json:"manifest,omitempty" doc:"a Frictionless data package describing the layers available over http(s)"`
}

// Service defines the interface for our CKAN-to-Felt service.
type Service interface {
	// Starts the service on the selected port, returning an error that indicates
	// success or failure.
	Start(port int) error
	// Gracefully shuts down the service without interrupting active connections.
	Shutdown(ctx context.Context) error
	// Closes down the service, freeing all resources.
	Close()
}
