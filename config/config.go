package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

type serviceConfig struct {
	// port on which the service listens
	Port int `json:"port" yaml:"port"`
	// maximum number of allowed incoming connections
	MaxConnections int `json:"max_connections" yaml:"max_connections"`
	// timeout for each request to a CKAN portal, in seconds (0 = transport
	// default)
	RequestTimeout int `json:"request_timeout" yaml:"request_timeout"`
	// set to true to enable debug-level logging
	Debug bool `json:"debug" yaml:"debug"`
	// set to true to write logs as JSON instead of text
	LogJSON bool `json:"log_json" yaml:"log_json"`
}

type exportConfig struct {
	// number of packages resolved concurrently for an export (1 = sequential)
	Workers int `json:"workers" yaml:"workers"`
	// resource formats preferred for map layers, best first
	FormatPreference []string `json:"format_preference" yaml:"format_preference"`
}

// global config variables
var Service serviceConfig
var Export exportConfig
var Portals map[string]portalConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Service serviceConfig           `yaml:"service"`
	Export  exportConfig            `yaml:"export"`
	Portals map[string]portalConfig `yaml:"portals"`
}

// This helper reads configuration data, returning an error indicating success
// or failure. All environment variables of the form ${ENV_VAR} are expanded.
func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Service.Port = 8080
	conf.Service.MaxConnections = 100
	conf.Export.Workers = 1
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		slog.Error(fmt.Sprintf("Couldn't parse configuration data: %s", err))
		return err
	}

	// fall back on defaults where nothing was given
	if len(conf.Export.FormatPreference) == 0 {
		conf.Export.FormatPreference = []string{"GPKG", "SHP", "GeoJSON", "CSV"}
	}
	if len(conf.Portals) == 0 {
		conf.Portals = KnownPortals()
	}

	// copy the config data into place
	Service = conf.Service
	Export = conf.Export
	Portals = conf.Portals

	return err
}

// This helper validates the given service parameters, returning an
// error indicating success or failure.
func validateServiceParameters(params serviceConfig) error {
	if params.Port < 0 || params.Port > 65535 {
		return fmt.Errorf("Invalid port: %d (must be 0-65535)", params.Port)
	}
	if params.MaxConnections <= 0 {
		return fmt.Errorf("Invalid max_connections: %d (must be positive)",
			params.MaxConnections)
	}
	if params.RequestTimeout < 0 {
		return fmt.Errorf("Invalid request_timeout: %d (must be non-negative)",
			params.RequestTimeout)
	}
	return nil
}

// This helper validates the given export parameters.
func validateExportParameters(params exportConfig) error {
	if params.Workers <= 0 {
		return fmt.Errorf("Invalid export workers: %d (must be positive)", params.Workers)
	}
	for _, format := range params.FormatPreference {
		if format == "" {
			return fmt.Errorf("Empty format in export format_preference")
		}
	}
	return nil
}

// This helper validates the portal table.
func validatePortals(portals map[string]portalConfig) error {
	for name, portal := range portals {
		if portal.URL == "" {
			return fmt.Errorf("No URL was given for portal '%s'", name)
		}
		u, err := url.Parse(portal.URL)
		if err != nil {
			return fmt.Errorf("Invalid URL for portal '%s': %s", name, err.Error())
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("Invalid URL for portal '%s': %s (must be an absolute http(s) URL)",
				name, portal.URL)
		}
	}
	return nil
}

// This helper validates the configuration, returning an error that indicates
// success or failure.
func validateConfig() error {
	err := validateServiceParameters(Service)
	if err != nil {
		return err
	}
	err = validateExportParameters(Export)
	if err != nil {
		return err
	}
	return validatePortals(Portals)
}

// Initializes the service configuration using the given YAML byte data.
func Init(yamlData []byte) error {

	// Read the configuration from our YAML file.
	err := readConfig(yamlData)
	if err != nil {
		return err
	}

	// Validate the configuration.
	err = validateConfig()
	return err
}
