package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}
	return doc
}

// TestParseJSONLD tests the shapes ld+json blocks come in.
func TestParseJSONLD(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		html     string
		wantNil  bool
		headline string
	}{
		{
			name: "single object",
			html: `<script type="application/ld+json">
				{"@type": "NewsArticle", "headline": "Direct"}
			</script>`,
			headline: "Direct",
		},
		{
			name: "graph wrapper",
			html: `<script type="application/ld+json">
				{"@graph": [{"@type": "WebSite"}, {"@type": "Article", "headline": "Graphed"}]}
			</script>`,
			headline: "Graphed",
		},
		{
			name: "top-level array",
			html: `<script type="application/ld+json">
				[{"@type": "BreadcrumbList"}, {"@type": "PressRelease", "headline": "Listed"}]
			</script>`,
			headline: "Listed",
		},
		{
			name: "malformed block then valid block",
			html: `<script type="application/ld+json">{not json</script>
				<script type="application/ld+json">
				{"@type": "NewsArticle", "headline": "Second"}
			</script>`,
			headline: "Second",
		},
		{
			name:    "no article type",
			html:    `<script type="application/ld+json">{"@type": "Organization"}</script>`,
			wantNil: true,
		},
		{
			name:    "no block at all",
			html:    `<p>plain page</p>`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			art := parseJSONLD(docFrom(t, "<html><head>"+tt.html+"</head></html>"))
			if tt.wantNil {
				if art != nil {
					t.Fatalf("expected nil, got %+v", art)
				}
				return
			}
			if art == nil {
				t.Fatal("expected an article, got nil")
			}
			if art.Headline != tt.headline {
				t.Errorf("headline: got %q, want %q", art.Headline, tt.headline)
			}
		})
	}
}

// TestNewsArticleImageURL tests the polymorphic image field.
func TestNewsArticleImageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"https://example.com/a.jpg"`, "https://example.com/a.jpg"},
		{"object", `{"url": "https://example.com/b.jpg"}`, "https://example.com/b.jpg"},
		{"array of strings", `["https://example.com/c.jpg", "https://example.com/d.jpg"]`, "https://example.com/c.jpg"},
		{"array of objects", `[{"url": "https://example.com/e.jpg"}]`, "https://example.com/e.jpg"},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			art := &newsArticle{}
			if tt.raw != "" {
				art.Image = []byte(tt.raw)
			}
			if got := art.imageURL(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	var nilArticle *newsArticle
	if got := nilArticle.imageURL(); got != "" {
		t.Errorf("nil article should yield empty image, got %q", got)
	}
}
