// Package news holds the values handed from one pipeline stage to the next.
package news

import (
	"strings"
	"unicode/utf8"
)

// MaxSummaryRunes bounds Candidate.Summary.
const MaxSummaryRunes = 500

// Candidate is a feed entry offered to the relevance selector.
type Candidate struct {
	Title   string
	Link    string
	Summary string
}

// Selection is the ordered list of URLs chosen for extraction.
type Selection struct {
	URLs []string

	// FellBack is set when the model answer was unusable and URLs is a
	// prefix of the candidate list instead.
	FellBack bool
	Err      error
}

// Document is the readable text of one selected page.
type Document struct {
	SourceURL string
	Text      string
}

// TruncateSummary cuts s to MaxSummaryRunes runes.
func TruncateSummary(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxSummaryRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxSummaryRunes])
}

// Links returns the links of the first n candidates in ingestion order.
func Links(candidates []Candidate, n int) []string {
	if n > len(candidates) {
		n = len(candidates)
	}
	if n < 0 {
		n = 0
	}
	urls := make([]string, 0, n)
	for _, c := range candidates[:n] {
		urls = append(urls, c.Link)
	}
	return urls
}

// FormatSources joins documents into the block format the synthesizer
// prompt expects. No documents gives an empty string.
func FormatSources(docs []Document) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		var b strings.Builder
		b.WriteString("SOURCE URL: ")
		b.WriteString(d.SourceURL)
		b.WriteString("\nCONTENT:\n")
		b.WriteString(d.Text)
		b.WriteString("\n---")
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}
