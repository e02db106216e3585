package report

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
)

var (
	listItemRegex = regexp.MustCompile(`^(\d+\.|[-*+])\s`)
	emphasisRegex = regexp.MustCompile(`(\*\*|__)(.*?)(\*\*|__)`)
)

// SummaryHTML converts the model's markdown summary to HTML. Raw HTML in
// the summary is dropped.
func SummaryHTML(text string) string {
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return string(markdown.ToHTML([]byte(normalizeMarkdownLists(text)), nil, renderer))
}

// normalizeMarkdownLists inserts the blank line markdown needs before a list
// that directly follows a paragraph.
func normalizeMarkdownLists(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	for i, line := range lines {
		if i > 0 && listItemRegex.MatchString(strings.TrimSpace(line)) {
			prev := strings.TrimSpace(lines[i-1])
			if prev != "" && !listItemRegex.MatchString(prev) {
				result = append(result, "")
			}
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
}

// plainText drops the markdown markers the PDF cannot show.
func plainText(text string) string {
	text = emphasisRegex.ReplaceAllString(text, "$2")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, "# ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
