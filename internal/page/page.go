// Package page loads host pages into documents and writes them back out.
package page

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/naka-gawa/github-star-badge/internal/dom"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
)

// Load reads an HTML page, or a Markdown page (.md, .markdown) rendered into
// the host's main content container.
func Load(path string) (*dom.Document, error) {
	src, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FromMarkdown(src)
	default:
		return dom.Parse(bytes.NewReader(src))
	}
}

// FromMarkdown renders src the way the host renders a page: inside
// div#main-content-container, with external links opening in a new tab.
func FromMarkdown(src []byte) (*dom.Document, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(externalLinks{}, 500)),
		),
	)
	var buf bytes.Buffer
	buf.WriteString(`<html><body><div id="main-content-container">`)
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	buf.WriteString(`</div></body></html>`)
	return dom.Parse(&buf)
}

// WriteFile renders doc to path.
func WriteFile(doc *dom.Document, path string) error {
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write page %s: %w", path, err)
	}
	return nil
}

// Refresh moves the contents of each root in fresh into the matching root of
// live. Roots missing from either document are skipped. Replacing the
// children is a structural change, so watchers on live are notified.
func Refresh(live, fresh *dom.Document, selectors []string) error {
	for _, sel := range selectors {
		var children []*html.Node
		found := false
		if err := fresh.Do(func(tx *dom.Tx) error {
			root, err := tx.QueryFirst(sel)
			if err != nil || root == nil {
				return err
			}
			found = true
			for c := root.FirstChild; c != nil; c = c.NextSibling {
				children = append(children, c)
			}
			return nil
		}); err != nil {
			return err
		}
		if !found {
			continue
		}

		if err := live.Do(func(tx *dom.Tx) error {
			root, err := tx.QueryFirst(sel)
			if err != nil || root == nil {
				return err
			}
			tx.ReplaceChildren(root, children)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// externalLinks marks http(s) links with target="_blank".
type externalLinks struct{}

func (externalLinks) Transform(doc *gmast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			if isExternal(string(node.Destination)) {
				node.SetAttributeString("target", []byte("_blank"))
			}
		case *gmast.AutoLink:
			if isExternal(string(node.URL(source))) {
				node.SetAttributeString("target", []byte("_blank"))
			}
		}
		return gmast.WalkContinue, nil
	})
}

func isExternal(dest string) bool {
	return strings.HasPrefix(dest, "https://") || strings.HasPrefix(dest, "http://")
}
