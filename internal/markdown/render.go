// A small Markdown-to-HTML renderer for file previews. It is a fixed set
// of string-substitution rules applied in order, not a real parser; the
// preview pane only needs the common subset.

package markdown

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	fencedCodePattern = regexp.MustCompile("(?s)```([^`]*)```")
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")
	headingPattern    = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	boldPattern       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern     = regexp.MustCompile(`\*([^*]+)\*`)
	imagePattern      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	listItemPattern   = regexp.MustCompile(`(?m)^[-*]\s+(.+)$`)
)

// Render converts a Markdown source string into HTML. Source markup is
// escaped before any rule runs, so raw HTML never reaches the page.
func Render(src string) string {
	out := html.EscapeString(src)

	// Code first so later rules do not rewrite inside code spans.
	out = fencedCodePattern.ReplaceAllString(out, "<pre><code>$1</code></pre>")
	out = inlineCodePattern.ReplaceAllString(out, "<code>$1</code>")

	out = headingPattern.ReplaceAllStringFunc(out, func(m string) string {
		parts := headingPattern.FindStringSubmatch(m)
		level := len(parts[1])
		return fmt.Sprintf("<h%d>%s</h%d>", level, parts[2], level)
	})

	out = boldPattern.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicPattern.ReplaceAllString(out, "<em>$1</em>")

	// Images before links: the patterns overlap on the bracket syntax.
	out = imagePattern.ReplaceAllString(out, `<img src="$2" alt="$1">`)
	out = linkPattern.ReplaceAllString(out, `<a href="$2" target="_blank" rel="noopener">$1</a>`)

	out = listItemPattern.ReplaceAllString(out, "<li>$1</li>")
	out = wrapListItems(out)

	return linesToHTML(out)
}

// wrapListItems wraps consecutive <li> lines into a single <ul>.
func wrapListItems(src string) string {
	lines := strings.Split(src, "\n")
	var out []string
	inList := false
	for _, line := range lines {
		isItem := strings.HasPrefix(strings.TrimSpace(line), "<li>")
		if isItem && !inList {
			out = append(out, "<ul>")
			inList = true
		}
		if !isItem && inList {
			out = append(out, "</ul>")
			inList = false
		}
		out = append(out, line)
	}
	if inList {
		out = append(out, "</ul>")
	}
	return strings.Join(out, "\n")
}

// linesToHTML converts remaining plain-text line breaks to <br>, leaving
// block elements on their own lines untouched.
func linesToHTML(src string) string {
	lines := strings.Split(src, "\n")
	var b strings.Builder
	inPre := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "<pre>") {
			inPre = true
		}
		b.WriteString(line)
		closesPre := strings.Contains(trimmed, "</pre>")
		if i == len(lines)-1 {
			break
		}
		if (inPre && !closesPre) || trimmed == "" || isBlockLine(trimmed) {
			b.WriteString("\n")
		} else {
			b.WriteString("<br>\n")
		}
		if closesPre {
			inPre = false
		}
	}
	return b.String()
}

func isBlockLine(line string) bool {
	for _, prefix := range []string{"<h", "<ul", "</ul", "<li", "<pre", "</pre", "<code", "</code"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
