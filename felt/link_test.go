package felt

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildLink(t *testing.T) {
	assert := assert.New(t)
	link := BuildLink([]string{"https://a/x.csv", "https://b/y.shp"}, "My Map")
	assert.Equal("https://felt.com/map/new?layer_urls%5B%5D=https%3A%2F%2Fa%2Fx.csv&layer_urls%5B%5D=https%3A%2F%2Fb%2Fy.shp&title=My+Map", link)

	u, err := url.Parse(link)
	assert.Nil(err)
	assert.Equal("felt.com", u.Host)
	assert.Equal("/map/new", u.Path)
	query := u.Query()
	assert.Equal([]string{"https://a/x.csv", "https://b/y.shp"}, query["layer_urls[]"])
	assert.Equal("My Map", query.Get("title"))
}

func TestBuildLinkOmitsEmptyTitle(t *testing.T) {
	assert := assert.New(t)
	link := BuildLink([]string{"https://a/x.csv"}, "")
	assert.False(strings.Contains(link, "title"))
	u, _ := url.Parse(link)
	assert.False(u.Query().Has("title"))
}

func TestBuildLinkKeepsOrderAndDuplicates(t *testing.T) {
	assert := assert.New(t)
	layers := []string{
		"https://c/z.geojson",
		"https://a/x.csv",
		"https://c/z.geojson",
	}
	u, err := url.Parse(BuildLink(layers, ""))
	assert.Nil(err)
	assert.Equal(layers, u.Query()["layer_urls[]"])
}

func TestBuildLinkEscapesValues(t *testing.T) {
	assert := assert.New(t)
	layer := "https://example.org/download?id=7&format=shp"
	link := BuildLink([]string{layer}, "Parks & Rec: 100%")
	assert.Equal(1, strings.Count(link, "&")) // one separator; value ampersands are escaped
	u, err := url.Parse(link)
	assert.Nil(err)
	assert.Equal(layer, u.Query().Get("layer_urls[]"))
	assert.Equal("Parks & Rec: 100%", u.Query().Get("title"))
}

func TestBuildLinkWithoutLayers(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(BaseURL, BuildLink(nil, ""))
	assert.Equal(BaseURL+"?title=Empty", BuildLink(nil, "Empty"))
}
