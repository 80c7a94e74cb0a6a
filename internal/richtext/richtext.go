// Package richtext turns stored article bodies into plain text and paragraphs.
//
// Bodies are pre-sanitized HTML, or markdown rendered with goldmark. Nothing
// here re-validates markup safety.
package richtext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ellipsis marks text that was cut.
const Ellipsis = "…"

// ErrMarkdown indicates a markdown body could not be rendered.
var ErrMarkdown = errors.New("markdown rendering failed")

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithXHTML(),
		// Article bodies are sanitized upstream; keep their inline HTML.
		html.WithUnsafe(),
	),
)

// ToHTML renders a markdown body to an HTML fragment.
func ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdown, err)
	}
	return buf.String(), nil
}

// BodyHTML returns body as HTML, rendering it first when format is "markdown".
// Rendering failures fall back to the raw text.
func BodyHTML(body, format string) string {
	if format != "markdown" {
		return body
	}
	out, err := ToHTML(body)
	if err != nil {
		return body
	}
	return out
}

// blockAtoms end a paragraph when their element closes.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Pre: true, atom.Figcaption: true, atom.Tr: true, atom.Section: true, atom.Article: true,
}

// skipAtoms have content that is never shown as body text.
var skipAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

// Paragraphs splits an HTML fragment into plain-text paragraphs.
// Text outside any block element forms its own paragraph; empty ones are dropped.
func Paragraphs(fragment string) []string {
	var (
		out  []string
		cur  strings.Builder
		skip int
	)
	flush := func() {
		if p := collapse(cur.String()); p != "" {
			out = append(out, p)
		}
		cur.Reset()
	}

	z := nethtml.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			// io.EOF or malformed input: keep what was read.
			flush()
			return out
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipAtoms[a] && tt == nethtml.StartTagToken {
				skip++
				continue
			}
			if a == atom.Br {
				cur.WriteByte(' ')
				continue
			}
			if blockAtoms[a] {
				flush()
			}
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipAtoms[a] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if blockAtoms[a] {
				flush()
			}
		case nethtml.TextToken:
			if skip == 0 {
				cur.Write(z.Text())
			}
		}
	}
}

// Strip removes all markup and collapses whitespace.
func Strip(fragment string) string {
	return strings.Join(Paragraphs(fragment), " ")
}

// collapse trims and folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Truncate cuts s to at most budget runes, preferring the last word boundary,
// and appends Ellipsis when anything was cut. A budget <= 0 returns "".
func Truncate(s string, budget int) string {
	s = collapse(s)
	if budget <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= budget {
		return s
	}

	runes := []rune(s)
	cut := runes[:budget]
	if i := lastSpace(cut); i > budget/2 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + Ellipsis
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsSpace(rs[i]) {
			return i
		}
	}
	return -1
}
