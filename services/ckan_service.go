package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/opendata-tools/ckan2felt/ckan"
	"github.com/opendata-tools/ckan2felt/config"
	"github.com/opendata-tools/ckan2felt/exports"
	"github.com/opendata-tools/ckan2felt/portals"
)

// Version numbers
var majorVersion = 0
var minorVersion = 1
var patchVersion = 0

// Version string
var version = fmt.Sprintf("%d.%d.%d", majorVersion, minorVersion, patchVersion)

// This type implements the Service interface, allowing clients to search CKAN
// portals and to export selected packages as layers of a Felt map.
type ckanService struct {
	// name of the service
	Name string
	// service version identifier
	Version string
	// time which the service was started
	StartTime time.Time
	// port on which the service currently runs
	Port int
	// router for REST endpoints
	Router *mux.Router
	// API wrapper
	API huma.API
	// HTTP server.
	Server *http.Server
}

// maps errors from CKAN clients and exports to HTTP status codes
func apiError(err error) error {
	var notFound portals.NotFoundError
	var badParameter ckan.InvalidSearchParameterError
	var badEndpoint ckan.InvalidEndpointError
	var noPackages exports.NoPackagesError
	var badWorkers exports.InvalidWorkersError
	var noResources ckan.EmptyResourceListError
	var failure ckan.RequestFailureError
	var badResponse ckan.InvalidResponseError
	switch {
	case errors.As(err, &notFound):
		return huma.Error404NotFound(err.Error())
	case errors.As(err, &badParameter), errors.As(err, &badEndpoint),
		errors.As(err, &noPackages), errors.As(err, &badWorkers):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &noResources):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.As(err, &failure):
		if failure.StatusCode == http.StatusNotFound {
			return huma.Error404NotFound(err.Error())
		}
		return huma.Error502BadGateway(err.Error())
	case errors.As(err, &badResponse):
		return huma.Error502BadGateway(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}

type ServiceInfoOutput struct {
	Body ServiceInfoResponse `doc:"information about the service itself"`
}

// handler method for root
func (service *ckanService) getRoot(ctx context.Context,
	input *struct{}) (*ServiceInfoOutput, error) {

	slog.Info("Querying root endpoint...")
	return &ServiceInfoOutput{
		Body: ServiceInfoResponse{
			Name:          service.Name,
			Version:       service.Version,
			Uptime:        int(service.uptime()),
			Documentation: "/docs",
		},
	}, nil
}

type PortalsOutput struct {
	Body PortalsResponse `doc:"A list of information about configured portals"`
}

// handler method for querying all configured portals
func (service *ckanService) getPortals(ctx context.Context,
	input *struct{}) (*PortalsOutput, error) {

	slog.Info("Querying configured portals...")
	return &PortalsOutput{
		Body: PortalsResponse{
			Portals: portals.Portals(),
		},
	}, nil
}

type FacetOutput struct {
	Body FacetResponse `doc:"Values of a facet field with their package counts"`
}

type FormatsInput struct {
	Portal string `query:"portal" required:"true" example:"toronto" doc:"portal name or CKAN API URL"`
	Limit  int    `query:"limit" minimum:"0" doc:"maximum number of values (default: 20)"`
}

// handler method for listing the resource formats available in a portal
func (service *ckanService) getFormats(ctx context.Context,
	input *FormatsInput) (*FacetOutput, error) {
	return listFacet(ctx, input.Portal, ckan.ResourceFormatFacet, input.Limit)
}

// handler method for listing the values of an arbitrary facet field
func (service *ckanService) getFacet(ctx context.Context,
	input *struct {
		Facet string `path:"facet" example:"organization" doc:"the name of the facet field"`
		FormatsInput
	}) (*FacetOutput, error) {
	return listFacet(ctx, input.Portal, input.Facet, input.Limit)
}

// implements facet listing for all facet endpoints
func listFacet(ctx context.Context, portal, facet string, limit int) (*FacetOutput, error) {
	slog.Info(fmt.Sprintf("Listing facet %s for portal %s...", facet, portal))
	client, err := portals.NewPortal(portal)
	if err != nil {
		return nil, apiError(err)
	}
	counts, err := client.ListFacet(ctx, facet, limit)
	if err != nil {
		return nil, apiError(err)
	}
	return &FacetOutput{
		Body: FacetResponse{
			Portal: portal,
			Facet:  facet,
			Counts: counts,
		},
	}, nil
}

type SearchResultsOutput struct {
	Body SearchResultsResponse `doc:"The results of a package search as a table"`
}

// handler method for searching a portal for packages
func (service *ckanService) searchPackages(ctx context.Context,
	input *struct {
		Portal string `query:"portal" required:"true" example:"toronto" doc:"portal name or CKAN API URL"`
		Query  string `query:"q" example:"parks" doc:"free-text search terms"`
		Format string `query:"format" example:"GeoJSON" doc:"only packages with resources in this format"`
		Rows   int    `query:"rows" doc:"maximum number of results (default: 50)"`
		Start  int    `query:"start" doc:"number of results to skip"`
	}) (*SearchResultsOutput, error) {

	slog.Info(fmt.Sprintf("Searching portal %s for packages...", input.Portal))
	client, err := portals.NewPortal(input.Portal)
	if err != nil {
		return nil, apiError(err)
	}
	table, err := client.SearchPackages(ctx, ckan.SearchParameters{
		Query:  input.Query,
		Format: input.Format,
		Pagination: ckan.SearchPaginationParameters{
			Offset: input.Start,
			MaxNum: input.Rows,
		},
	})
	if err != nil {
		return nil, apiError(err)
	}
	output := &SearchResultsOutput{
		Body: SearchResultsResponse{
			Portal: input.Portal,
			Query:  input.Query,
			Format: input.Format,
		},
	}
	if table == nil {
		output.Body.NoResults = true
	} else {
		output.Body.Columns = table.Columns
		output.Body.Rows = table.Rows
	}
	return output, nil
}

type PackageIdsOutput struct {
	Body PackageIdsResponse `doc:"The identifiers of all packages in a portal"`
}

// handler method for listing all package identifiers in a portal
func (service *ckanService) getPackageIds(ctx context.Context,
	input *struct {
		Portal string `query:"portal" required:"true" example:"toronto" doc:"portal name or CKAN API URL"`
	}) (*PackageIdsOutput, error) {

	slog.Info(fmt.Sprintf("Listing packages in portal %s...", input.Portal))
	client, err := portals.NewPortal(input.Portal)
	if err != nil {
		return nil, apiError(err)
	}
	ids, err := client.ListPackages(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	return &PackageIdsOutput{
		Body: PackageIdsResponse{
			Portal: input.Portal,
			Ids:    ids,
		},
	}, nil
}

type PackageOutput struct {
	Body PackageResponse `doc:"A package with the URL of its best resource"`
}

// handler method for fetching a single package and resolving its best resource
func (service *ckanService) getPackage(ctx context.Context,
	input *struct {
		Id     string `path:"id" example:"parks" doc:"the identifier or name of a package"`
		Portal string `query:"portal" required:"true" example:"toronto" doc:"portal name or CKAN API URL"`
	}) (*PackageOutput, error) {

	slog.Info(fmt.Sprintf("Fetching package %s from portal %s...", input.Id, input.Portal))
	client, err := portals.NewPortal(input.Portal)
	if err != nil {
		return nil, apiError(err)
	}
	pkg, err := client.GetPackage(ctx, input.Id)
	if err != nil {
		return nil, apiError(err)
	}
	bestURL, err := ckan.BestResourceURL(pkg, config.Export.FormatPreference...)
	if err != nil {
		return nil, apiError(err)
	}
	record, err := json.Marshal(pkg)
	if err != nil {
		return nil, err
	}
	return &PackageOutput{
		Body: PackageResponse{
			Portal:  input.Portal,
			Id:      pkg.Id,
			Title:   pkg.Title,
			Formats: pkg.Formats(),
			BestURL: bestURL,
			Record:  record,
		},
	}, nil
}

type ExportOutput struct {
	Body   ExportResponse `doc:"The Felt link and manifest for the exported packages"`
	Status int
}

// handler method for exporting packages to a Felt map
func (service *ckanService) createExport(ctx context.Context,
	input *struct {
		Body        ExportRequest `doc:"The body of a POST request for an export"`
		ContentType string        `header:"Content-Type" doc:"Content-Type header (must be application/json)"`
	}) (*ExportOutput, error) {

	client, err := portals.NewPortal(input.Body.Portal)
	if err != nil {
		return nil, apiError(err)
	}
	preference := input.Body.FormatPreference
	if len(preference) == 0 {
		preference = config.Export.FormatPreference
	}
	export, err := exports.Export(ctx, client, exports.Request{
		Portal:     input.Body.Portal,
		PackageIds: input.Body.PackageIds,
		Title:      input.Body.Title,
		Preference: preference,
		Workers:    config.Export.Workers,
	})
	if err != nil {
		return nil, apiError(err)
	}
	slog.Info(fmt.Sprintf("Created export %s (%d layers)", export.Id.String(), len(export.Layers)))
	var manifest map[string]any
	if export.Manifest != nil {
		manifest = export.Manifest.Descriptor()
	}
	return &ExportOutput{
		Body: ExportResponse{
			Id:       export.Id,
			Portal:   export.Portal,
			Title:    export.Title,
			Link:     export.Link,
			Layers:   export.Layers,
			Manifest: manifest,
		},
		Status: http.StatusCreated,
	}, nil
}

// returns the uptime for the service in seconds
func (service *ckanService) uptime() float64 {
	return time.Since(service.StartTime).Seconds()
}

// constructs a CKAN-to-Felt service given our configuration
func NewService() (Service, error) {
	if len(config.Portals) == 0 {
		return nil, fmt.Errorf("No portals were specified.")
	}

	service := new(ckanService)
	service.Name = "ckan2felt"
	service.Version = version
	service.Port = -1
	service.StartTime = time.Now()

	// set up routing
	service.Router = mux.NewRouter()
	service.API = humamux.New(service.Router, huma.DefaultConfig(service.Name, service.Version))
	huma.Get(service.API, "/", service.getRoot)

	// API v1
	huma.Get(service.API, "/api/v1/portals", service.getPortals)
	huma.Get(service.API, "/api/v1/formats", service.getFormats)
	huma.Get(service.API, "/api/v1/facets/{facet}", service.getFacet)
	huma.Get(service.API, "/api/v1/packages", service.searchPackages)
	huma.Get(service.API, "/api/v1/package-ids", service.getPackageIds)
	huma.Get(service.API, "/api/v1/packages/{id}", service.getPackage)
	huma.Post(service.API, "/api/v1/exports", service.createExport)

	return service, nil
}

// starts the service
func (service *ckanService) Start(port int) error {
	slog.Info(fmt.Sprintf("Starting %s service on port %d...", service.Name, port))
	slog.Info(fmt.Sprintf("(Accepting up to %d connections)", config.Service.MaxConnections))

	service.StartTime = time.Now()

	// create a listener that limits the number of incoming connections
	service.Port = port
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return err
	}
	defer listener.Close()
	listener = netutil.LimitListener(listener, config.Service.MaxConnections)

	// start the server
	service.Server = &http.Server{
		Handler: service.Router}
	err = service.Server.Serve(listener)

	// we don't report the server closing as an error
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// gracefully shuts down the service without interrupting active connections
func (service *ckanService) Shutdown(ctx context.Context) error {
	if service.Server != nil {
		return service.Server.Shutdown(ctx)
	}
	return nil
}

// closes down the service abruptly, freeing all resources
func (service *ckanService) Close() {
	if service.Server != nil {
		service.Server.Close()
	}
}
