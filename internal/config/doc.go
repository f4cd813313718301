// Package config defines settings used by the catpoint binaries and provides
// helpers to load, validate and save them in YAML format.
//
// Validate fills defaults for optional sections: state persistence, the image
// classifier, MQTT and InfluxDB integrations.
package config
