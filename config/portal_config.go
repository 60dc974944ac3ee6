package config

// a CKAN portal that callers can refer to by a short name
type portalConfig struct {
	// descriptive name of the portal
	Name string `yaml:"name"`
	// root of the portal's CKAN API (ending in /api/3/)
	URL string `yaml:"url"`
	// organization that publishes the portal (optional)
	Organization string `yaml:"organization,omitempty"`
}

// well-known CKAN portals, used when the configuration doesn't list any
var knownPortals = map[string]portalConfig{
	"toronto": {
		Name:         "City Of Toronto",
		URL:          "https://ckan0.cf.opendata.inter.prod-toronto.ca/api/3/",
		Organization: "City of Toronto",
	},
	"switzerland": {
		Name:         "Switzerland Open Data",
		URL:          "https://opendata.swiss/api/3/",
		Organization: "Swiss Federal Statistical Office",
	},
}

// returns a copy of the table of well-known CKAN portals
func KnownPortals() map[string]portalConfig {
	portals := make(map[string]portalConfig, len(knownPortals))
	for name, portal := range knownPortals {
		portals[name] = portal
	}
	return portals
}
