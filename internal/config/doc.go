// Package config holds runtime configuration for wirefeed: build options
// populated from CLI flags and the YAML feed definition describing the
// channel, its sources, and crawl limits.
package config
