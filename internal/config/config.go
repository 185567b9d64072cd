package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Network defaults follow the behavior the
// published feed's consumers already depend on; crawl defaults are
// politeness-driven.
const (
	// DefaultTimeout is the per-request timeout. Newswire pages are
	// occasionally slow behind CDNs; 30 seconds keeps slow items without
	// hanging a build on a dead host.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPages caps listing pages walked per source. Pagination
	// probing must terminate even against a server that always answers,
	// and keyword searches rarely span more pages than this.
	DefaultMaxPages = 25

	// DefaultMaxItems caps the serialized feed size. Readers poll the
	// document whole, so it must stay bounded regardless of how much
	// history the walks uncover.
	DefaultMaxItems = 1000

	// DefaultDelay is the pause between consecutive requests to the same
	// host. This is a politeness setting: issuing item fetches without
	// spacing gets a crawler rate-limited by newswire sites.
	DefaultDelay = 1 * time.Second

	// DefaultMaxBodySize limits the response body size to read. 5MB is
	// ample for press pages while preventing memory exhaustion from
	// unexpected payloads.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultOutputPath is where the feed document is written when the
	// definition and flags specify nothing else.
	DefaultOutputPath = "docs/rss.xml"

	// AppName is the application name used for XDG directory paths.
	AppName = "wirefeed"
)

// Config holds all options for a build. It is populated from CLI flags
// plus the loaded feed definition and passed through the application via
// dependency injection rather than global state.
type Config struct {
	// DefinitionPath is the path to the YAML feed definition.
	DefinitionPath string

	// Definition is the loaded feed definition.
	Definition *Definition

	// OutputPath overrides the definition's output location when set.
	// "-" writes the document to stdout.
	OutputPath string

	// Timeout is the per-request timeout for page and item fetches.
	Timeout time.Duration

	// MaxPages is the hard cap on listing pages per walk.
	MaxPages int

	// MaxItems caps the serialized feed, newest first.
	MaxItems int

	// Delay is the politeness pause between consecutive requests.
	Delay time.Duration

	// UserAgent overrides the fetcher's client identity when non-empty.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// Verbose enables debug-level log output.
	Verbose bool

	// SummaryPath, when set, writes a Markdown build summary there.
	SummaryPath string

	// Archive records the build's items in the local history database.
	Archive bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be wrong; this also documents
// what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxPages:    DefaultMaxPages,
		MaxItems:    DefaultMaxItems,
		Delay:       DefaultDelay,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for wirefeed.
// On Linux: ~/.local/share/wirefeed
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wirefeed.
// On Linux: ~/.config/wirefeed
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration, returning the first problem found as
// a sentinel error. Called once after flag parsing and definition
// loading, before any network activity; configuration errors are the only
// pre-build fatal condition.
func (c *Config) Validate() error {
	if c.Definition == nil || len(c.Definition.Sources) == 0 {
		return ErrNoSource
	}

	for _, s := range c.Definition.Sources {
		if err := s.validate(); err != nil {
			return err
		}
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxItems < 0 {
		return ErrInvalidMaxItems
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// Output resolves the feed destination: flag override first, then the
// definition, then the default path.
func (c *Config) Output() string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	if c.Definition != nil && c.Definition.Output != "" {
		return c.Definition.Output
	}
	return DefaultOutputPath
}
