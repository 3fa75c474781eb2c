package scraper

import (
	"strings"
	"unicode/utf8"
)

// maxTextRunes bounds one article's share of the synthesis prompt.
const maxTextRunes = 20000

// junkIndicators mark short boilerplate lines left over from page chrome.
var junkIndicators = []string{
	"cookie", "gdpr", "privacy policy", "subscribe", "sign up", "sign in", "log in",
	"newsletter", "advertisement", "share this", "share on", "follow us",
	"all rights reserved", "read more", "click here", "print this",
}

// cleanContent normalises extracted text into paragraphs separated by
// blank lines, dropping boilerplate lines.
func cleanContent(content string) string {
	if content == "" {
		return ""
	}

	var paragraphs []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" || isJunk(line) {
			continue
		}
		paragraphs = append(paragraphs, line)
	}

	return limitRunes(strings.Join(paragraphs, "\n\n"), maxTextRunes)
}

func isJunk(line string) bool {
	// Long lines are prose even if they mention a junk word.
	if len(line) > 120 {
		return false
	}
	lower := strings.ToLower(line)
	for _, indicator := range junkIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// limitRunes cuts text to max runes, preferring a paragraph boundary.
func limitRunes(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	trimmed := string([]rune(text)[:max])
	if idx := strings.LastIndex(trimmed, "\n\n"); idx > max/2 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
