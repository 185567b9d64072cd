package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wirefeed-dev/wirefeed/internal/feed"
)

// Source types recognized in the feed definition.
const (
	// SourceListing is a paginated HTML listing to walk and extract.
	SourceListing = "listing"

	// SourceFeed is an existing RSS/Atom feed to merge as-is.
	SourceFeed = "feed"
)

// Source describes one place items come from.
type Source struct {
	// URL is the listing start URL or the feed URL.
	URL string `yaml:"url"`

	// Type is SourceListing (default) or SourceFeed.
	Type string `yaml:"type,omitempty"`

	// Keyword overrides the definition-level subject term for this
	// source's relevance check.
	Keyword string `yaml:"keyword,omitempty"`

	// ItemPattern overrides the item-URL shape for this listing.
	ItemPattern string `yaml:"itemPattern,omitempty"`

	// MaxPages overrides the global page cap for this listing.
	MaxPages int `yaml:"maxPages,omitempty"`
}

// validate checks one source entry.
func (s Source) validate() error {
	if s.URL == "" {
		return ErrSourceWithoutURL
	}
	switch s.Type {
	case "", SourceListing, SourceFeed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSourceType, s.Type)
	}
}

// Kind returns the effective source type.
func (s Source) Kind() string {
	if s.Type == "" {
		return SourceListing
	}
	return s.Type
}

// Definition is the YAML feed definition: what to build and from where.
type Definition struct {
	// Channel is the output feed's channel metadata.
	Channel feed.Channel `yaml:"channel"`

	// Keyword is the subject term items must mention to be kept.
	Keyword string `yaml:"keyword"`

	// Sources lists where items are discovered.
	Sources []Source `yaml:"sources"`

	// Output is the feed document destination path.
	Output string `yaml:"output,omitempty"`

	// MaxPages, MaxItems, RequestTimeout, and RequestDelay mirror the
	// corresponding CLI flags; flags win when both are set explicitly.
	// Durations are Go duration strings ("30s", "1500ms").
	MaxPages       int    `yaml:"maxPages,omitempty"`
	MaxItems       int    `yaml:"maxItems,omitempty"`
	RequestTimeout string `yaml:"requestTimeout,omitempty"`
	RequestDelay   string `yaml:"requestDelay,omitempty"`
}

// Durations parses the definition's timing fields. Empty fields return
// zero with no error; the caller keeps its defaults then.
func (d *Definition) Durations() (timeout, delay time.Duration, err error) {
	if d.RequestTimeout != "" {
		timeout, err = time.ParseDuration(d.RequestTimeout)
		if err != nil {
			return 0, 0, fmt.Errorf("parse requestTimeout %q: %w", d.RequestTimeout, err)
		}
	}
	if d.RequestDelay != "" {
		delay, err = time.ParseDuration(d.RequestDelay)
		if err != nil {
			return 0, 0, fmt.Errorf("parse requestDelay %q: %w", d.RequestDelay, err)
		}
	}
	return timeout, delay, nil
}

// ErrDefinitionNotFound is returned when the feed definition file does
// not exist.
var ErrDefinitionNotFound = errors.New("feed definition not found")

// DefaultDefinitionFile is the definition file name searched for in the
// current directory.
const DefaultDefinitionFile = "wirefeed.yaml"

// LoadDefinition reads and parses a YAML feed definition.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided definition path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, path)
		}
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse feed definition %s: %w", path, err)
	}

	return &def, nil
}

// SourceKeyword returns the relevance term for a source: its own keyword
// when set, otherwise the definition-level one.
func (d *Definition) SourceKeyword(s Source) string {
	if s.Keyword != "" {
		return s.Keyword
	}
	return d.Keyword
}

// FindDefinition resolves the definition path: an explicit path is used
// as-is; otherwise wirefeed.yaml is looked up in the current directory
// and then in the XDG config directory. Returns empty when none exists.
func FindDefinition(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if _, err := os.Stat(DefaultDefinitionFile); err == nil {
		return DefaultDefinitionFile
	}

	xdgPath := XDGConfigDir() + string(os.PathSeparator) + DefaultDefinitionFile
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}

	return ""
}
