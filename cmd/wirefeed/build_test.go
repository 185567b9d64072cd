package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wirefeed-dev/wirefeed/internal/config"
)

func writeDefinition(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wirefeed.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write definition: %v", err)
	}
	return path
}

// TestBuildConfigPrecedence tests flag over definition over default.
func TestBuildConfigPrecedence(t *testing.T) {
	t.Parallel()

	path := writeDefinition(t, `
keyword: acme
requestTimeout: 45s
requestDelay: 2s
maxPages: 7
sources:
  - url: https://example.com/search?kw=acme
`)

	t.Run("definition overrides defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewBuildCmd()
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Timeout != 45*time.Second {
			t.Errorf("timeout: got %v, want 45s", cfg.Timeout)
		}
		if cfg.Delay != 2*time.Second {
			t.Errorf("delay: got %v, want 2s", cfg.Delay)
		}
		if cfg.MaxPages != 7 {
			t.Errorf("max pages: got %d, want 7", cfg.MaxPages)
		}
		if cfg.MaxItems != config.DefaultMaxItems {
			t.Errorf("max items: got %d, want default %d", cfg.MaxItems, config.DefaultMaxItems)
		}
	})

	t.Run("flags override definition", func(t *testing.T) {
		t.Parallel()

		cmd := NewBuildCmd()
		if err := cmd.ParseFlags([]string{"-c", path, "--timeout", "5s", "--max-pages", "3"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("timeout: got %v, want 5s", cfg.Timeout)
		}
		if cfg.MaxPages != 3 {
			t.Errorf("max pages: got %d, want 3", cfg.MaxPages)
		}
		if cfg.Delay != 2*time.Second {
			t.Errorf("delay: got %v, want definition's 2s", cfg.Delay)
		}
	})
}

// TestBuildConfigMissingDefinition tests the explicit-path error.
func TestBuildConfigMissingDefinition(t *testing.T) {
	t.Parallel()

	cmd := NewBuildCmd()
	if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "absent.yaml")}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	if _, err := buildConfig(cmd); err == nil {
		t.Error("expected error for missing explicit definition")
	}
}

// TestFillChannelDefaults tests keyword-derived channel metadata.
func TestFillChannelDefaults(t *testing.T) {
	t.Parallel()

	def := &config.Definition{Keyword: "acme corp"}
	fillChannelDefaults(def)

	if def.Channel.Title != "Acme Corp Newswire (Merged)" {
		t.Errorf("title: got %q", def.Channel.Title)
	}
	if !strings.Contains(def.Channel.Description, "Acme Corp") {
		t.Errorf("description: got %q", def.Channel.Description)
	}

	// Explicit metadata stays untouched
	def = &config.Definition{Keyword: "acme"}
	def.Channel.Title = "My Feed"
	fillChannelDefaults(def)
	if def.Channel.Title != "My Feed" {
		t.Errorf("explicit title overwritten: %q", def.Channel.Title)
	}
}

// TestOpenOutput tests destination resolution, in particular that the
// stdout path never turns into a file named "-".
func TestOpenOutput(t *testing.T) {
	t.Run("dash selects stdout", func(t *testing.T) {
		t.Chdir(t.TempDir())

		out, closeOutput, err := openOutput("-")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != os.Stdout {
			t.Error("expected stdout writer")
		}
		if err := closeOutput(); err != nil {
			t.Errorf("close: unexpected error: %v", err)
		}
		if _, err := os.Stat("-"); !os.IsNotExist(err) {
			t.Error(`a file named "-" was created in the working directory`)
		}
	})

	t.Run("path creates file and parents", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "docs", "rss.xml")
		out, closeOutput, err := openOutput(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := fmt.Fprint(out, "<rss/>"); err != nil {
			t.Fatalf("write: unexpected error: %v", err)
		}
		if err := closeOutput(); err != nil {
			t.Fatalf("close: unexpected error: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("output not written: %v", err)
		}
		if string(got) != "<rss/>" {
			t.Errorf("output contents: got %q", got)
		}
	})
}

// TestBuildCmdEndToEnd runs the build command against a local server
// and checks the written feed and summary.
func TestBuildCmdEndToEnd(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="/news-release/2024/first">First</a>
<a href="/news-release/2024/second">Second</a>
</body></html>`)
	})
	mux.HandleFunc("/news-release/2024/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
<title>Acme release %[1]s</title>
<meta property="article:published_time" content="2024-05-01T09:00:00Z">
<meta name="description" content="Acme announced %[1]s.">
</head><body><article><p>Acme announced %[1]s.</p></article></body></html>`,
			filepath.Base(r.URL.Path))
	})

	dir := t.TempDir()
	defPath := filepath.Join(dir, "wirefeed.yaml")
	outPath := filepath.Join(dir, "docs", "rss.xml")
	sumPath := filepath.Join(dir, "docs", "build.md")

	definition := fmt.Sprintf(`
channel:
  title: Acme Newswire (Merged)
  link: https://example.github.io/acme-rss/rss.xml
  description: Merged newswire items
keyword: acme
sources:
  - url: %s/search?kw=acme
`, srv.URL)
	if err := os.WriteFile(defPath, []byte(definition), 0600); err != nil {
		t.Fatalf("failed to write definition: %v", err)
	}

	root := NewRootCmd()
	root.SetArgs([]string{"build",
		"-c", defPath,
		"-o", outPath,
		"--summary", sumPath,
		"--delay", "0s",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("feed not written: %v", err)
	}
	feedXML := string(out)
	if !strings.Contains(feedXML, "<rss") {
		t.Error("output is not an RSS document")
	}
	if strings.Count(feedXML, "<item>") != 2 {
		t.Errorf("feed items: got %d, want 2", strings.Count(feedXML, "<item>"))
	}
	if !strings.Contains(feedXML, "/news-release/2024/first") {
		t.Error("feed missing extracted item link")
	}

	summary, err := os.ReadFile(sumPath)
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if !strings.Contains(string(summary), "Feed Build Summary") {
		t.Errorf("unexpected summary contents: %s", summary)
	}
}
