// Package dom models the host page as an HTML tree that can be queried with
// CSS selectors, mutated, and observed for structural changes.
//
// All access to the tree goes through Document.Do, which serialises readers
// and writers. Subscribers registered with Observe are notified after the
// lock is released whenever a child list under their root changed.
package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Document is a mutable, observable HTML tree.
type Document struct {
	mu     sync.Mutex
	root   *html.Node
	nextID int
	subs   map[int]*subscription
}

type subscription struct {
	root *html.Node
	fn   func()
}

// New wraps an already parsed tree.
func New(root *html.Node) *Document {
	return &Document{root: root, subs: make(map[int]*subscription)}
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return New(root), nil
}

// ParseString is Parse for in-memory markup.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Do runs fn with exclusive access to the tree. Structural changes made
// through tx are delivered to subscribers once fn has returned.
func (d *Document) Do(fn func(tx *Tx) error) error {
	d.mu.Lock()
	tx := &Tx{doc: d}
	err := fn(tx)
	notify := d.affected(tx.mutated)
	d.mu.Unlock()

	for _, f := range notify {
		f()
	}
	return err
}

// Observe subscribes fn to child list changes anywhere under root.
// Attribute changes are not reported. The returned func cancels the
// subscription and is safe to call more than once.
func (d *Document) Observe(root *html.Node, fn func()) (cancel func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = &subscription{root: root, fn: fn}
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// QuerySelector returns the first element in the document matching sel, or nil.
func (d *Document) QuerySelector(sel string) (*html.Node, error) {
	var found *html.Node
	err := d.Do(func(tx *Tx) error {
		var err error
		found, err = tx.QueryFirst(sel)
		return err
	})
	return found, err
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	return d.Do(func(tx *Tx) error {
		return html.Render(w, d.root)
	})
}

// String renders the document, returning an empty string on error.
func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

// affected returns the callbacks of subscriptions whose root contains any of
// the mutated parents. Must be called with d.mu held.
func (d *Document) affected(mutated []*html.Node) []func() {
	if len(mutated) == 0 {
		return nil
	}
	var fns []func()
	for _, sub := range d.subs {
		for _, n := range mutated {
			if contains(sub.root, n) {
				fns = append(fns, sub.fn)
				break
			}
		}
	}
	return fns
}

// contains reports whether n is root or one of its descendants.
func contains(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// Tx is the handle passed to Document.Do. It must not be retained after fn returns.
type Tx struct {
	doc     *Document
	mutated []*html.Node
}

// QueryFirst returns the first element in the document matching sel, or nil.
func (tx *Tx) QueryFirst(sel string) (*html.Node, error) {
	s, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", sel, err)
	}
	return s.MatchFirst(tx.doc.root), nil
}

// QueryAll returns the descendants of root matching sel, in document order.
// root itself is never included.
func (tx *Tx) QueryAll(root *html.Node, sel string) ([]*html.Node, error) {
	s, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", sel, err)
	}
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, s.MatchAll(c)...)
	}
	return out, nil
}

// FirstMatching returns the first descendant of n matching sel, or nil.
// n itself is never matched.
func (tx *Tx) FirstMatching(n *html.Node, sel string) (*html.Node, error) {
	s, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", sel, err)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := s.MatchFirst(c); m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// Attr returns the value of attribute key on n.
func (tx *Tx) Attr(n *html.Node, key string) (string, bool) {
	return Attr(n, key)
}

// SetAttr sets attribute key on n, replacing any existing value.
func (tx *Tx) SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key from n.
func (tx *Tx) RemoveAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

// AppendChild appends child to parent, detaching it from any previous parent.
func (tx *Tx) AppendChild(parent, child *html.Node) {
	if child.Parent != nil {
		tx.RemoveChild(child.Parent, child)
	}
	parent.AppendChild(child)
	tx.mutated = append(tx.mutated, parent)
}

// RemoveChild removes child from parent. It is a no-op if child is not a child of parent.
func (tx *Tx) RemoveChild(parent, child *html.Node) {
	if child.Parent != parent {
		return
	}
	parent.RemoveChild(child)
	tx.mutated = append(tx.mutated, parent)
}

// ReplaceChildren removes every child of parent and appends children in order.
func (tx *Tx) ReplaceChildren(parent *html.Node, children []*html.Node) {
	for c := parent.FirstChild; c != nil; c = parent.FirstChild {
		parent.RemoveChild(c)
	}
	for _, c := range children {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		parent.AppendChild(c)
	}
	tx.mutated = append(tx.mutated, parent)
}

// Attr returns the value of the un-namespaced attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
