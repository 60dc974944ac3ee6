package frictionless

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataResourceName(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("parks", DataResourceName("Parks"))
	assert.Equal("street_trees_2024", DataResourceName("Street Trees (2024)"))
	assert.Equal("bike-lanes.v2", DataResourceName("bike-lanes.v2"))
	assert.Equal("z_rich_wards", DataResourceName("Zürich Wards"))
	assert.Equal("layer", DataResourceName(""))
	assert.Equal("layer", DataResourceName("???"))
}

func TestMimeTypeFromFormat(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("text/csv", MimeTypeFromFormat("CSV"))
	assert.Equal("application/geo+json", MimeTypeFromFormat("GeoJSON"))
	assert.Equal("application/zip", MimeTypeFromFormat("shp"))
	assert.Equal("", MimeTypeFromFormat("WMS"))
}

func TestDataResourceDescriptor(t *testing.T) {
	assert := assert.New(t)
	resource := DataResource{
		Name:    "parks",
		Path:    "https://example.org/parks.geojson",
		Title:   "Parks",
		Format:  "geojson",
		Sources: []DataSource{{Title: "City Parks"}},
	}
	descriptor := resource.Descriptor()
	assert.Equal("parks", descriptor["name"])
	assert.Equal("https://example.org/parks.geojson", descriptor["path"])
	assert.Equal("Parks", descriptor["title"])
	assert.Equal("geojson", descriptor["format"])
	assert.NotContains(descriptor, "description")
	assert.NotContains(descriptor, "mediatype")
	assert.Equal([]any{map[string]any{"title": "City Parks"}}, descriptor["sources"])
}

func TestNewManifest(t *testing.T) {
	assert := assert.New(t)
	resources := []DataResource{
		{Name: "parks", Path: "https://example.org/parks.geojson", Title: "Parks", Format: "geojson"},
		{Name: "trees", Path: "https://example.org/trees.csv", Title: "Trees", Format: "csv"},
	}
	manifest, err := NewManifest("My Map", resources)
	assert.Nil(err)
	assert.NotNil(manifest)
	assert.Equal([]string{"parks", "trees"}, manifest.ResourceNames())

	descriptor := manifest.Descriptor()
	assert.Equal("my_map", descriptor["name"])
	assert.Equal("My Map", descriptor["title"])
	assert.Equal("data-package", descriptor["profile"])
	assert.Contains(descriptor, "created")

	parks := manifest.GetResource("parks")
	assert.NotNil(parks)
	assert.Equal("https://example.org/parks.geojson", parks.Descriptor()["path"])
}

func TestNewManifestWithoutTitle(t *testing.T) {
	assert := assert.New(t)
	manifest, err := NewManifest("", []DataResource{
		{Name: "parks", Path: "https://example.org/parks.geojson"},
	})
	assert.Nil(err)
	descriptor := manifest.Descriptor()
	assert.Equal("manifest", descriptor["name"])
	assert.NotContains(descriptor, "title")
}

func TestNewManifestMakesNamesUnique(t *testing.T) {
	assert := assert.New(t)
	manifest, err := NewManifest("Layers", []DataResource{
		{Name: "parks", Path: "https://example.org/a.csv"},
		{Name: "parks", Path: "https://example.org/b.csv"},
		{Name: "parks_2", Path: "https://example.org/c.csv"},
		{Title: "Trees", Path: "https://example.org/d.csv"},
	})
	assert.Nil(err)
	assert.Equal([]string{"parks", "parks_2", "parks_2_2", "trees"}, manifest.ResourceNames())
}

func TestParseManifest(t *testing.T) {
	assert := assert.New(t)
	manifest, err := NewManifest("Layers", []DataResource{
		{Name: "parks", Path: "https://example.org/parks.geojson", Format: "geojson"},
	})
	assert.Nil(err)
	data, err := json.Marshal(manifest.Descriptor())
	assert.Nil(err)

	parsed, err := ParseManifest(string(data))
	assert.Nil(err)
	assert.Equal(manifest.ResourceNames(), parsed.ResourceNames())
}
