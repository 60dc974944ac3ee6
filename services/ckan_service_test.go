package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opendata-tools/ckan2felt/config"
	"github.com/opendata-tools/ckan2felt/dtstest"
	"github.com/opendata-tools/ckan2felt/portals"
)

// service URLs
var (
	baseUrl   string
	apiPrefix = "api/v1/"
)

// service instance and test server
var (
	service    Service
	server     *httptest.Server
	ckanServer *dtstest.CkanServer
)

const serviceConfig string = `
service:
  port: 8080
  max_connections: 100
export:
  workers: 2
  format_preference: [GeoJSON, CSV]
portals:
  test:
    name: Test Portal
    url: CKAN_URL
    organization: The Test Company
  other:
    name: Another Portal
    url: https://ckan.example.org/api/3/
`

const searchResult string = `{
  "count": 2,
  "results": [
    {"id": "parks", "title": "City Parks", "notes": "Green spaces",
     "resources": [{"format": "CSV", "url": "https://data.example.org/parks.csv"},
                   {"format": "GeoJSON", "url": "https://data.example.org/parks.geojson"}]},
    {"id": "trees", "title": "Street Trees", "author": "Forestry",
     "resources": [{"format": "SHP", "url": "https://data.example.org/trees.zip"}]}
  ],
  "facets": {
    "res_format": {"CSV": 120, "GeoJSON": 45}
  }
}`

const parksPackage string = `{"id": "parks", "name": "city-parks", "title": "City Parks",
  "resources": [{"format": "CSV", "url": "https://data.example.org/parks.csv"},
                {"format": "GeoJSON", "url": "https://data.example.org/parks.geojson"}]}`

const treesPackage string = `{"id": "trees", "name": "street-trees", "title": "Street Trees",
  "resources": [{"format": "CSV", "url": "https://data.example.org/trees.csv"}]}`

const ftpPackage string = `{"id": "ftp", "title": "FTP Layer",
  "resources": [{"format": "CSV", "url": "ftp://example.org/a.zip"}]}`

// performs testing setup
func setup() {
	dtstest.EnableDebugLogging()

	ckanServer = dtstest.NewCkanServer(map[string]string{
		"package_search":        dtstest.Success(searchResult),
		"package_list":          dtstest.Success(`["parks", "trees"]`),
		"package_show?id=parks": dtstest.Success(parksPackage),
		"package_show?id=trees": dtstest.Success(treesPackage),
		"package_show?id=empty": dtstest.Success(`{"id": "empty", "resources": []}`),
		"package_show?id=ftp":   dtstest.Success(ftpPackage),
	})

	myConfig := strings.ReplaceAll(serviceConfig, "CKAN_URL", ckanServer.BaseURL())
	err := config.Init([]byte(myConfig))
	if err != nil {
		log.Panicf("Couldn't initialize configuration: %s", err)
	}

	service, err = NewService()
	if err != nil {
		log.Panicf("Couldn't construct the service: %s", err.Error())
	}
	server = httptest.NewServer(service.(*ckanService).Router)
	baseUrl = server.URL + "/"
}

// Performs testing breakdown.
func breakdown() {
	if server != nil {
		server.Close()
	}
	if ckanServer != nil {
		ckanServer.Close()
	}
	portals.Reset()
}

// sends a GET query and decodes its JSON response into v
func get(resource string, v any) (*http.Response, error) {
	resp, err := http.Get(resource)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if v != nil && resp.StatusCode == http.StatusOK {
		err = json.Unmarshal(body, v)
	}
	return resp, err
}

// sends a POST query with a JSON payload and decodes its response into v
func post(resource string, payload any, v any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(resource, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if v != nil && resp.StatusCode < 300 {
		err = json.Unmarshal(body, v)
	}
	return resp, err
}

// queries the service's root endpoint
func TestQueryRoot(t *testing.T) {
	assert := assert.New(t)

	var root ServiceInfoResponse
	resp, err := get(baseUrl, &root)
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal("ckan2felt", root.Name)
	assert.Equal(version, root.Version)
	assert.Equal("/docs", root.Documentation)
}

// queries the configured portals
func TestQueryPortals(t *testing.T) {
	assert := assert.New(t)

	var response PortalsResponse
	resp, err := get(baseUrl+apiPrefix+"portals", &response)
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal(2, len(response.Portals))
	assert.Equal("other", response.Portals[0].Id)
	assert.Equal("Another Portal", response.Portals[0].Name)
	assert.Equal("test", response.Portals[1].Id)
	assert.Equal("The Test Company", response.Portals[1].Organization)
}

// lists resource formats
func TestQueryFormats(t *testing.T) {
	assert := assert.New(t)

	var response FacetResponse
	resp, err := get(baseUrl+apiPrefix+"formats?portal=test", &response)
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal("res_format", response.Facet)
	assert.Equal([]string{"CSV", "GeoJSON"}, response.Counts.Values())
	count, found := response.Counts.Count("GeoJSON")
	assert.True(found)
	assert.Equal(45, count)
}

// lists values of a named facet
func TestQueryFacet(t *testing.T) {
	assert := assert.New(t)

	var response FacetResponse
	resp, err := get(baseUrl+apiPrefix+"facets/res_format?portal=test&limit=5", &response)
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal("res_format", response.Facet)
	assert.Equal("5", ckanServer.LastRequest().Query().Get("facet.limit"))
}

// queries a portal that doesn't exist
func TestQueryInvalidPortal(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl+apiPrefix+"formats?portal=nonexistentportal", nil)
	assert.Nil(err)
	assert.Equal(http.StatusNotFound, resp.StatusCode)
}

// searches a portal for packages
func TestSearchPackages(t *testing.T) {
	assert := assert.New(t)

	var response SearchResultsResponse
	resp, err := get(baseUrl+apiPrefix+"packages?portal=test&q=parks&rows=10", &response)
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.False(response.NoResults)
	assert.Equal("parks", response.Query)
	assert.Equal([]string{"title", "formats", "author", "notes", "id", "resources"}, response.Columns)
	assert.Equal(2, len(response.Rows))
	assert.Equal("CSV,GeoJSON", response.Rows[0]["formats"])
	assert.Equal("trees", response.Rows[1]["id"])

	query := ckanServer.LastRequest().Query()
	assert.Equal("parks", query.Get("q"))
	assert.Equal("10", query.Get("rows"))
}

// searches with a negative row count
func TestSearchPackagesWithBadRows(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl+apiPrefix+"packages?portal=test&rows=-1", nil)
	assert.Nil(err)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
}

// lists all package identifiers
func TestQueryPackageIds(t *testing.T) {
	assert := assert.New(t)

	var response PackageIdsResponse
	resp, err := get(baseUrl+apiPrefix+"package-ids?portal=test", &response)
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal([]string{"parks", "trees"}, response.Ids)
}

// fetches a package with its best resource
func TestQueryPackage(t *testing.T) {
	assert := assert.New(t)

	var response PackageResponse
	resp, err := get(baseUrl+apiPrefix+"packages/parks?portal=test", &response)
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal("parks", response.Id)
	assert.Equal("City Parks", response.Title)
	assert.Equal([]string{"CSV", "GeoJSON"}, response.Formats)
	assert.Equal("https://data.example.org/parks.geojson", response.BestURL)
	assert.True(strings.HasPrefix(string(response.Record), `{"id":"parks","name":"city-parks"`))
}

// fetches packages that can't be resolved
func TestQueryInvalidPackages(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl+apiPrefix+"packages/empty?portal=test", nil)
	assert.Nil(err)
	assert.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = get(baseUrl+apiPrefix+"packages/nope?portal=test", nil)
	assert.Nil(err)
	assert.Equal(http.StatusNotFound, resp.StatusCode)
}

// exports packages to a Felt map
func TestCreateExport(t *testing.T) {
	assert := assert.New(t)

	var response ExportResponse
	resp, err := post(baseUrl+apiPrefix+"exports", ExportRequest{
		Portal:     "test",
		PackageIds: []string{"trees", "parks"},
		Title:      "My Map",
	}, &response)
	assert.Nil(err)
	assert.Equal(http.StatusCreated, resp.StatusCode)
	assert.Equal(2, len(response.Layers))
	assert.Equal("trees", response.Layers[0].PackageId)
	assert.Equal("https://data.example.org/trees.csv", response.Layers[0].URL)
	assert.Equal("parks", response.Layers[1].PackageId)
	assert.Equal("https://data.example.org/parks.geojson", response.Layers[1].URL)
	assert.Equal(fmt.Sprintf("https://felt.com/map/new?layer_urls%%5B%%5D=%s&layer_urls%%5B%%5D=%s&title=My+Map",
		"https%3A%2F%2Fdata.example.org%2Ftrees.csv",
		"https%3A%2F%2Fdata.example.org%2Fparks.geojson"), response.Link)
	assert.Equal("data-package", response.Manifest["profile"])
}

// exports a package whose resource isn't served over http(s)
func TestCreateExportWithFtpLayer(t *testing.T) {
	assert := assert.New(t)

	var response ExportResponse
	resp, err := post(baseUrl+apiPrefix+"exports", ExportRequest{
		Portal:     "test",
		PackageIds: []string{"ftp"},
	}, &response)
	assert.Nil(err)
	assert.Equal(http.StatusCreated, resp.StatusCode)
	assert.Equal("https://felt.com/map/new?layer_urls%5B%5D=ftp%3A%2F%2Fexample.org%2Fa.zip", response.Link)
	assert.Nil(response.Manifest)
}

// requests exports that can't be fulfilled
func TestCreateInvalidExports(t *testing.T) {
	assert := assert.New(t)

	resp, err := post(baseUrl+apiPrefix+"exports", ExportRequest{
		Portal:     "test",
		PackageIds: []string{},
	}, nil)
	assert.Nil(err)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, err = post(baseUrl+apiPrefix+"exports", ExportRequest{
		Portal:     "test",
		PackageIds: []string{"parks", "empty"},
	}, nil)
	assert.Nil(err)
	assert.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = post(baseUrl+apiPrefix+"exports", ExportRequest{
		Portal:     "nonexistentportal",
		PackageIds: []string{"parks"},
	}, nil)
	assert.Nil(err)
	assert.Equal(http.StatusNotFound, resp.StatusCode)
}

// runs setup, runs all tests, and does breakdown
func TestMain(m *testing.M) {
	setup()
	status := m.Run()
	breakdown()
	os.Exit(status)
}
