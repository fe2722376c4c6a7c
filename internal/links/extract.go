// Package links audits the links in the generated site sources:
// extraction, internal-target checking, and reporting.
package links

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Link is one extracted link occurrence.
type Link struct {
	File     string `json:"file"`
	Text     string `json:"text"`
	URL      string `json:"url"`
	External bool   `json:"external"`
	System   string `json:"system"`
}

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// ExtractLinks parses markdown source and returns all link and
// autolink destinations with their display text. Reference-style
// links are resolved by the parser.
func ExtractLinks(src []byte) []Link {
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var out []Link
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			out = append(out, Link{
				Text: nodeText(v, src),
				URL:  string(v.Destination),
			})
		case *ast.AutoLink:
			out = append(out, Link{
				Text: "autolink",
				URL:  string(v.URL(src)),
			})
		}
		return ast.WalkContinue, nil
	})
	return out
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
	}
	return b.String()
}

// NormalizeURL trims wrappers and drops the fragment so links group by
// target. Relative paths and anchors pass through.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ")")
	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") {
		raw = raw[1 : len(raw)-1]
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	u.Fragment = ""
	return u.String()
}

// IsExternal reports whether a URL leaves the site.
func IsExternal(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// SystemKey groups links by target system: hostname (www stripped) for
// external links, "internal" otherwise.
func SystemKey(raw string) string {
	if !IsExternal(raw) {
		return "internal"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "internal"
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
