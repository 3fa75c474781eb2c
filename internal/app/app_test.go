package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/briefing/internal/config"
	"github.com/deusflow/briefing/internal/llm"
	"github.com/deusflow/briefing/internal/logger"
	"github.com/deusflow/briefing/internal/metrics"
	"github.com/deusflow/briefing/internal/ratelimit"
	"github.com/deusflow/briefing/internal/render"
)

const body = "Researchers published a detailed account of the new battery chemistry on Monday, describing " +
	"how the cells retained most of their capacity after several thousand charge cycles in laboratory conditions."

func feedXML(base string, paths ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>feed</title>`)
	for _, p := range paths {
		fmt.Fprintf(&b, `<item><title>Story %s</title><link>%s/%s</link><description>About %s</description></item>`, p, base, p, p)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func page(title string) string {
	return fmt.Sprintf(`<html><head><title>%[1]s</title></head><body><article><h1>%[1]s</h1>
<p>%[2]s</p><p>%[2]s Independent groups are now trying to reproduce the result.</p>
<p>%[2]s Manufacturers have not announced production plans.</p></article></body></html>`, title, body)
}

// newsSite serves two feeds of three entries each. Article "c" is missing.
func newsSite(t *testing.T) *httptest.Server {
	t.Helper()
	var base string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed1":
			fmt.Fprint(w, feedXML(base, "a", "b", "c"))
		case "/feed2":
			fmt.Fprint(w, feedXML(base, "d", "e", "f"))
		case "/a", "/b", "/d", "/e", "/f":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, page("Story "+strings.TrimPrefix(r.URL.Path, "/")))
		default:
			http.NotFound(w, r)
		}
	}))
	base = srv.URL
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, base string) *config.Config {
	return &config.Config{
		Feeds:              []string{base + "/feed1", base + "/feed2"},
		Interests:          "Batteries and energy storage.",
		Provider:           config.ProviderGemini,
		MaxModelRequests:   2,
		MaxItemsPerFeed:    10,
		SelectMin:          10,
		SelectMax:          15,
		FallbackCount:      5,
		SelectionPolicy:    config.PolicyPassthrough,
		FeedConcurrency:    1,
		ExtractConcurrency: 1,
		OutputPath:         filepath.Join(t.TempDir(), "out", "index.html"),
	}
}

// fakeModel answers selection and digest prompts separately and records
// the digest prompt.
type fakeModel struct {
	mu           sync.Mutex
	selection    string
	digest       string
	digestErr    error
	digestPrompt string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(prompt, "professional news editor") {
		f.digestPrompt = prompt
		return f.digest, f.digestErr
	}
	return f.selection, nil
}

func TestRun_SelectedArticlesReachThePage(t *testing.T) {
	srv := newsSite(t)
	cfg := testConfig(t, srv.URL)
	urlA, urlC := srv.URL+"/a", srv.URL+"/c"

	model := &fakeModel{
		selection: fmt.Sprintf("```json\n[%q, %q]\n```", urlA, urlC),
		digest:    fmt.Sprintf("## Energy\n\nA new battery chemistry held up.\n\n[Read full article](%s)", urlA),
	}
	stats := metrics.New()
	limited := llm.NewLimited(model, cfg.Provider, ratelimit.NewBudget(cfg.MaxModelRequests), stats)
	var out bytes.Buffer

	p := NewPipeline(cfg, limited, srv.Client(), &out, logger.Discard(), stats)
	require.NoError(t, p.Run(context.Background()))

	assert.Contains(t, model.digestPrompt, "SOURCE URL: "+urlA+"\n")
	assert.NotContains(t, model.digestPrompt, "SOURCE URL: "+urlC)
	assert.Equal(t, 1, strings.Count(model.digestPrompt, "SOURCE URL: "))

	html, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), `href="`+urlA+`"`)

	got := stats.GetStats()
	assert.EqualValues(t, 6, got["candidates_collected"])
	assert.EqualValues(t, 2, got["urls_selected"])
	assert.EqualValues(t, 1, got["articles_extracted"])
	assert.EqualValues(t, 1, got["extraction_failures"])
	assert.EqualValues(t, 2, got["model_requests"])
	assert.Contains(t, got, "synthesize_ms")

	for _, line := range []string{"1. Fetching", "2. Selecting", "3. Extracting", "4. Writing", "5. Publishing", "Done."} {
		assert.Contains(t, out.String(), line)
	}
}

func TestRun_UnparsableSelectionFallsBack(t *testing.T) {
	srv := newsSite(t)
	cfg := testConfig(t, srv.URL)

	model := &fakeModel{selection: "not json", digest: "## Briefing\n\nSomething happened."}
	stats := metrics.New()
	var out bytes.Buffer

	p := NewPipeline(cfg, model, srv.Client(), &out, logger.Discard(), stats)
	require.NoError(t, p.Run(context.Background()))

	assert.Contains(t, out.String(), "Falling back to the first 5 candidates")
	// a, b, d and e extract; c is missing.
	assert.Equal(t, 4, strings.Count(model.digestPrompt, "SOURCE URL: "))

	html, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.NotEmpty(t, html)
	assert.EqualValues(t, 1, stats.GetStats()["selection_fallbacks"])
}

func TestRun_NoContentWritesEmptyEdition(t *testing.T) {
	srv := newsSite(t)
	cfg := testConfig(t, srv.URL)

	model := &fakeModel{selection: fmt.Sprintf("[%q]", srv.URL+"/c")}
	var out bytes.Buffer

	p := NewPipeline(cfg, model, srv.Client(), &out, logger.Discard(), metrics.New())
	require.NoError(t, p.Run(context.Background()))

	assert.Empty(t, model.digestPrompt, "digest model must not be called without content")
	html, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "No stories today")
}

func TestRun_SynthesisFailureKeepsPreviousPage(t *testing.T) {
	srv := newsSite(t)
	cfg := testConfig(t, srv.URL)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755))
	require.NoError(t, os.WriteFile(cfg.OutputPath, []byte("yesterday"), 0o644))

	model := &fakeModel{selection: fmt.Sprintf("[%q]", srv.URL+"/a"), digestErr: errors.New("quota exceeded")}
	stats := metrics.New()

	p := NewPipeline(cfg, model, srv.Client(), &bytes.Buffer{}, logger.Discard(), stats)
	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	prev, rerr := os.ReadFile(cfg.OutputPath)
	require.NoError(t, rerr)
	assert.Equal(t, "yesterday", string(prev))
	assert.Equal(t, false, stats.GetStats()["is_healthy"])
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Name() string { return "broken" }

func (f *failingPublisher) Publish(ctx context.Context, art render.Artifact) error {
	f.calls++
	return errors.New("unreachable")
}

func TestRun_OptionalPublisherFailureIsNotFatal(t *testing.T) {
	srv := newsSite(t)
	cfg := testConfig(t, srv.URL)

	model := &fakeModel{selection: fmt.Sprintf("[%q]", srv.URL+"/a"), digest: "## Briefing"}
	broken := &failingPublisher{}

	p := NewPipeline(cfg, model, srv.Client(), &bytes.Buffer{}, logger.Discard(), metrics.New())
	p.Publishers = append(p.Publishers, broken)
	p.Now = func() time.Time { return time.Date(2025, 1, 2, 7, 0, 0, 0, time.UTC) }

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 1, broken.calls)

	html, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "2025-01-02")
}

func TestOptionalPublishers(t *testing.T) {
	cfg := &config.Config{TelegramToken: "T", TelegramChatID: "1"}

	pubs, err := OptionalPublishers(context.Background(), cfg, http.DefaultClient, logger.Discard())
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, "telegram", pubs[0].Name())

	none, err := OptionalPublishers(context.Background(), &config.Config{}, http.DefaultClient, logger.Discard())
	require.NoError(t, err)
	assert.Empty(t, none)
}
