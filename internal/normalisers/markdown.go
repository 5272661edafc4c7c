package normalisers

import (
	"regexp"
	"strings"
)

// Markdown strips formatting and takes the title from the first H1.
type Markdown struct{}

var (
	mdCodeBlock    = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode   = regexp.MustCompile("`[^`]+`")
	mdImage        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s*`)
	mdRule         = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	mdBullet       = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumbered     = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdMultiNewline = regexp.MustCompile(`\n{3,}`)
)

// Extensions returns the extensions handled.
func (Markdown) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Normalise returns the markdown as plain text.
func (Markdown) Normalise(path string, content []byte) Text {
	raw := string(content)
	return Text{Title: markdownTitle(raw, path), Body: stripMarkdown(raw)}
}

func markdownTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return titleFromPath(path)
}

func stripMarkdown(content string) string {
	content = mdCodeBlock.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "")
	content = mdImage.ReplaceAllString(content, "")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")

	// Emphasis markers; underscores become spaces so snake_case splits.
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")
	content = strings.ReplaceAll(content, "_", " ")

	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdBullet.ReplaceAllString(content, "")
	content = mdNumbered.ReplaceAllString(content, "")
	content = mdMultiNewline.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
