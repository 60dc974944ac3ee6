package portals

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opendata-tools/ckan2felt/config"
	"github.com/opendata-tools/ckan2felt/dtstest"
)

const portalsConfig string = `
portals:
  zurich:
    name: Stadt Zürich
    url: https://data.stadt-zuerich.ch/api/3/
  demo:
    name: CKAN Demo
    url: https://demo.ckan.org/api/3/
    organization: CKAN Association
`

// this function gets called at the begіnning of a test session
func setup() {
	dtstest.EnableDebugLogging()
	config.Init([]byte(portalsConfig))
}

// this function gets called after all tests have been run
func breakdown() {
	Reset()
}

func TestNewPortalByName(t *testing.T) {
	assert := assert.New(t)
	client, err := NewPortal("demo")
	assert.Nil(err, "Configured portal creation encountered an error")
	assert.NotNil(client, "Configured portal not created")
	assert.Equal("https://demo.ckan.org/api/3/", client.BaseURL())

	// clients are reused
	again, err := NewPortal("demo")
	assert.Nil(err)
	assert.True(client == again)
}

func TestNewPortalByURL(t *testing.T) {
	assert := assert.New(t)
	client, err := NewPortal("https://catalog.data.gov/api/3/")
	assert.Nil(err, "Ad-hoc portal creation encountered an error")
	assert.Equal("https://catalog.data.gov/api/3/", client.BaseURL())
}

func TestAdHocPortalsAreNotCached(t *testing.T) {
	assert := assert.New(t)
	_, err := NewPortal("demo")
	assert.Nil(err)
	mu.Lock()
	numClients := len(allClients)
	mu.Unlock()

	for i := 0; i < 100; i++ {
		client, err := NewPortal(fmt.Sprintf("https://ckan%d.example.org/api/3/", i))
		assert.Nil(err)
		assert.NotNil(client)
	}
	again, err := NewPortal("https://ckan0.example.org/api/3/")
	assert.Nil(err)
	assert.Equal("https://ckan0.example.org/api/3/", again.BaseURL())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(numClients, len(allClients))
	assert.Contains(allClients, "demo")
}

func TestInvalidPortal(t *testing.T) {
	assert := assert.New(t)
	for _, ref := range []string{"booga booga", "ftp://files.example.org/", "/api/3/", ""} {
		client, err := NewPortal(ref)
		assert.Nil(client, "Invalid portal should not be created")
		assert.Equal(NotFoundError{Portal: ref}, err)
	}
	assert.Equal("The portal 'booga' was not found", NotFoundError{Portal: "booga"}.Error())
}

func TestPortals(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]Portal{
		{
			Id:           "demo",
			Name:         "CKAN Demo",
			URL:          "https://demo.ckan.org/api/3/",
			Organization: "CKAN Association",
		},
		{
			Id:   "zurich",
			Name: "Stadt Zürich",
			URL:  "https://data.stadt-zuerich.ch/api/3/",
		},
	}, Portals())
}

// this runs setup, runs all tests, and does breakdown
func TestMain(m *testing.M) {
	setup()
	status := m.Run()
	breakdown()
	os.Exit(status)
}
