package feed

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// Channel holds the required channel-level feed metadata.
type Channel struct {
	// Title is the feed title shown by readers.
	Title string `yaml:"title"`

	// Link is the canonical URL of the published feed or its site.
	Link string `yaml:"link"`

	// Description describes what the feed aggregates.
	Description string `yaml:"description"`
}

// pubDateFormat is RFC 1123 with the GMT zone feed readers expect,
// the same shape net/http uses for header timestamps.
const pubDateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// rssDoc is the encoding/xml shape of an RSS 2.0 document. Marshalling
// through it guarantees every interpolated field is escaped; titles
// routinely contain "&" and must never reach the output raw.
type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	GUID        string        `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Description string        `xml:"description"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssEnclosure struct {
	URL string `xml:"url,attr"`

	// Length is required by RSS 2.0. The media is never downloaded
	// during a build, so the size is unknown and "0" is declared.
	Length string `xml:"length,attr"`

	Type string `xml:"type,attr"`
}

// enclosureType guesses a MIME type from the URL's path extension.
// Extension-less download-resource URLs serve JPEG in practice, so that
// is the fallback.
func enclosureType(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "image/jpeg"
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}

// BuildRSS serializes records into an RSS 2.0 document. It is a pure
// function: no I/O, and the build timestamp is passed in rather than read
// from the clock. Zero records produce a well-formed empty channel.
func BuildRSS(ch Channel, records []model.FeedRecord, buildTime time.Time) ([]byte, error) {
	items := make([]rssItem, 0, len(records))
	for _, r := range records {
		item := rssItem{
			Title:       r.Title,
			Link:        r.Link,
			GUID:        r.GUID,
			PubDate:     r.PublishedAt.UTC().Format(pubDateFormat),
			Description: r.Summary,
		}
		if r.ImageURL != "" {
			item.Enclosure = &rssEnclosure{
				URL:    r.ImageURL,
				Length: "0",
				Type:   enclosureType(r.ImageURL),
			}
		}
		items = append(items, item)
	}

	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:         ch.Title,
			Link:          ch.Link,
			Description:   ch.Description,
			LastBuildDate: buildTime.UTC().Format(pubDateFormat),
			Items:         items,
		},
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize feed: %w", err)
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}
