package ckan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// builds a package with resources given as alternating formats and URLs
func packageWithResources(id string, formatsAndURLs ...string) Package {
	pkg := Package{Id: id, Resources: make([]Resource, 0)}
	for i := 0; i+1 < len(formatsAndURLs); i += 2 {
		pkg.Resources = append(pkg.Resources, Resource{
			Format: formatsAndURLs[i],
			URL:    formatsAndURLs[i+1],
		})
	}
	return pkg
}

func TestBestResourceURLPrefersEarlierFormats(t *testing.T) {
	assert := assert.New(t)
	url, err := BestResourceURL(packageWithResources("p", "SHP", "u1", "CSV", "u2"))
	assert.Nil(err)
	assert.Equal("u1", url)

	url, err = BestResourceURL(packageWithResources("p", "CSV", "u1", "GeoJSON", "u2", "GPKG", "u3"))
	assert.Nil(err)
	assert.Equal("u3", url)
}

func TestBestResourceURLIgnoresCase(t *testing.T) {
	assert := assert.New(t)
	url, err := BestResourceURL(packageWithResources("p", "csv", "u1", "geojson", "u2"))
	assert.Nil(err)
	assert.Equal("u2", url)
}

func TestBestResourceURLFallsBackToLastResource(t *testing.T) {
	assert := assert.New(t)
	url, err := BestResourceURL(packageWithResources("p", "TXT", "u1"))
	assert.Nil(err)
	assert.Equal("u1", url)

	url, err = BestResourceURL(packageWithResources("p", "PDF", "u1", "XLSX", "u2"))
	assert.Nil(err)
	assert.Equal("u2", url)
}

func TestBestResourceURLFailsWithoutResources(t *testing.T) {
	assert := assert.New(t)
	url, err := BestResourceURL(packageWithResources("lonely"))
	assert.Equal("", url)
	assert.Equal(EmptyResourceListError{PackageId: "lonely"}, err)
	assert.Equal("Package 'lonely' has no resources", err.Error())
}

func TestBestResourceURLKeepsLastURLForDuplicateFormats(t *testing.T) {
	assert := assert.New(t)
	url, err := BestResourceURL(packageWithResources("p", "CSV", "u1", "PDF", "u2", "CSV", "u3"))
	assert.Nil(err)
	assert.Equal("u3", url)
}

func TestBestResourceURLWithCustomPreference(t *testing.T) {
	assert := assert.New(t)
	pkg := packageWithResources("p", "SHP", "u1", "KML", "u2", "CSV", "u3")
	url, err := BestResourceURL(pkg, "KML", "SHP")
	assert.Nil(err)
	assert.Equal("u2", url)

	url, err = BestResourceURL(pkg, "XLS")
	assert.Nil(err)
	assert.Equal("u3", url)
}

func TestBestResource(t *testing.T) {
	assert := assert.New(t)
	res, err := BestResource(packageWithResources("p", "CSV", "u1", "SHP", "u2"))
	assert.Nil(err)
	assert.Equal(Resource{Format: "SHP", URL: "u2"}, res)

	_, err = BestResource(packageWithResources("p"))
	assert.IsType(EmptyResourceListError{}, err)
}
