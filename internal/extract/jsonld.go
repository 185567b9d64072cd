package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// newsArticle holds the fields of interest from a JSON-LD structured-data
// block. Publishers embed these for search engines, which makes them the
// most reliable metadata source when present.
type newsArticle struct {
	Type          string          `json:"@type"`
	Headline      string          `json:"headline"`
	DatePublished string          `json:"datePublished"`
	Description   string          `json:"description"`
	Image         json.RawMessage `json:"image"`
}

// articleTypes are the @type values treated as press-release articles.
var articleTypes = map[string]bool{
	"NewsArticle":  true,
	"Article":      true,
	"PressRelease": true,
}

// parseJSONLD scans the document's ld+json script blocks and returns the
// first article-typed object found, directly, inside a top-level array,
// or inside an @graph. Returns nil when no block parses to an article;
// malformed blocks are skipped, never fatal.
func parseJSONLD(doc *goquery.Document) *newsArticle {
	var found *newsArticle

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		if art := decodeArticle([]byte(raw)); art != nil {
			found = art
			return false
		}
		return true
	})

	return found
}

// decodeArticle tries the three shapes JSON-LD blocks come in.
func decodeArticle(raw []byte) *newsArticle {
	// Single object
	var single struct {
		newsArticle
		Graph []newsArticle `json:"@graph"`
	}
	if err := json.Unmarshal(raw, &single); err == nil {
		if articleTypes[single.Type] {
			art := single.newsArticle
			return &art
		}
		for i := range single.Graph {
			if articleTypes[single.Graph[i].Type] {
				return &single.Graph[i]
			}
		}
	}

	// Top-level array
	var list []newsArticle
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			if articleTypes[list[i].Type] {
				return &list[i]
			}
		}
	}

	return nil
}

// imageURL extracts an image URL from the polymorphic JSON-LD image field,
// which may be a string, an ImageObject, or an array of either.
func (a *newsArticle) imageURL() string {
	if a == nil || len(a.Image) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(a.Image, &asString); err == nil {
		return asString
	}

	var asObject struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(a.Image, &asObject); err == nil && asObject.URL != "" {
		return asObject.URL
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(a.Image, &asList); err == nil && len(asList) > 0 {
		nested := &newsArticle{Image: asList[0]}
		return nested.imageURL()
	}

	return ""
}
