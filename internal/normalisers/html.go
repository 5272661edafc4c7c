package normalisers

import (
	"html"
	"regexp"
	"strings"
)

// HTML strips markup and takes the title from the <title> element.
type HTML struct{}

var (
	htmlTitle      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlDropped    = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)[^>]*>.*?</(script|style|noscript|head|svg)>`)
	htmlComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlBlock      = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>|<(br|hr)\s*/?>`)
	htmlTag        = regexp.MustCompile(`<[^>]+>`)
	htmlMultiSpace = regexp.MustCompile(`[ \t]+`)
)

// Extensions returns the extensions handled.
func (HTML) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Normalise returns the readable text of the page, one block per line.
func (HTML) Normalise(path string, content []byte) Text {
	raw := string(content)
	title := titleFromPath(path)
	if m := htmlTitle.FindStringSubmatch(raw); len(m) > 1 {
		if t := strings.TrimSpace(html.UnescapeString(m[1])); t != "" {
			title = t
		}
	}
	return Text{Title: title, Body: stripHTML(raw)}
}

func stripHTML(content string) string {
	content = htmlDropped.ReplaceAllString(content, "")
	content = htmlComment.ReplaceAllString(content, "")
	content = htmlBlock.ReplaceAllString(content, "\n")
	content = htmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = htmlMultiSpace.ReplaceAllString(content, " ")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
