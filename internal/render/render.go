// Package render turns the markdown digest into the published HTML page.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

//go:embed page.html.tmpl
var pageTemplate string

// Artifact is the finished page of one run.
type Artifact struct {
	HTML        string
	GeneratedAt time.Time
}

type Renderer struct {
	md   goldmark.Markdown
	page *template.Template
}

func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	return &Renderer{
		md:   md,
		page: template.Must(template.New("page").Parse(pageTemplate)),
	}
}

// Render converts the digest to HTML and embeds it in the page chrome.
// Raw HTML inside the digest is dropped by the markdown renderer.
func (r *Renderer) Render(digest string, now time.Time) (Artifact, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(digest), &body); err != nil {
		return Artifact{}, fmt.Errorf("failed to convert markdown: %w", err)
	}

	var page bytes.Buffer
	err := r.page.Execute(&page, struct {
		Date      string
		Generated string
		Content   template.HTML
	}{
		Date:      now.Format("2006-01-02"),
		Generated: now.Format(time.RFC1123),
		Content:   template.HTML(body.String()),
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to render page: %w", err)
	}

	return Artifact{HTML: page.String(), GeneratedAt: now}, nil
}
