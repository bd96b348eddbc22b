// Package textfmt converts the constrained markup subset used in question
// and annotation text into renderable HTML, and formats clock values for
// the session UI.
package textfmt

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	blockMathRe  = regexp.MustCompile(`\$\$[^$]+\$\$`)
	inlineMathRe = regexp.MustCompile(`\$[^$\n]+\$`)
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.+?)\*`)
)

// mathToken is an unlikely-to-collide placeholder used while math spans are
// carved out of the text so markup rules cannot touch delimiter contents.
const mathToken = "\x00math:%d\x00"

var mathTokenRe = regexp.MustCompile("\x00math:([0-9]+)\x00")

// FormatText renders the markup subset (bold, italic, bullet lists, line
// breaks) as HTML. Everything outside math delimiters is HTML-escaped;
// `$...$` and `$$...$$` spans pass through untouched for the typesetter.
func FormatText(text string) string {
	if text == "" {
		return ""
	}

	// Carve out math spans first. Block delimiters before inline so `$$`
	// is never misread as two empty inline spans.
	var spans []string
	carve := func(s string) string {
		spans = append(spans, s)
		return fmt.Sprintf(mathToken, len(spans)-1)
	}
	text = blockMathRe.ReplaceAllStringFunc(text, carve)
	text = inlineMathRe.ReplaceAllStringFunc(text, carve)

	text = html.EscapeString(text)
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")
	text = formatLines(text)

	return mathTokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		m := mathTokenRe.FindStringSubmatch(tok)
		var idx int
		fmt.Sscanf(m[1], "%d", &idx)
		return spans[idx]
	})
}

// formatLines groups consecutive "- " lines into a <ul> and turns the
// remaining line breaks into <br>.
func formatLines(text string) string {
	lines := strings.Split(text, "\n")
	var b strings.Builder
	needBreak := false
	i := 0
	for i < len(lines) {
		if _, ok := cutBullet(lines[i]); ok {
			b.WriteString("<ul>")
			for i < len(lines) {
				item, ok := cutBullet(lines[i])
				if !ok {
					break
				}
				b.WriteString("<li>" + item + "</li>")
				i++
			}
			b.WriteString("</ul>")
			needBreak = false
			continue
		}
		if needBreak {
			b.WriteString("<br>")
		}
		b.WriteString(lines[i])
		needBreak = true
		i++
	}
	return b.String()
}

func cutBullet(line string) (string, bool) {
	return strings.CutPrefix(strings.TrimLeft(line, " \t"), "- ")
}

// FormatClock renders whole seconds as M:SS with no leading zero on the
// minutes. Negative input clamps to 0:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatDuration renders whole seconds in a compact h/m/s form used on the
// report screen, e.g. "1h 2m 5s", "4m 5s", "32s".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
