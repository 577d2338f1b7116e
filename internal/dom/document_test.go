package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const page = `<html><body>
<div id="main-content-container">
  <p><a target="_blank" href="https://github.com/foo/bar">foo/bar</a></p>
  <a href="https://github.com/foo/baz">same tab</a>
</div>
<div id="right-sidebar"><a target="_blank" href="https://example.com">example</a></div>
</body></html>`

func parsePage(t *testing.T) *Document {
	doc, err := ParseString(page)
	require.NoError(t, err)
	return doc
}

func TestDocument_Query(t *testing.T) {
	doc := parsePage(t)

	root, err := doc.QuerySelector("div#main-content-container")
	require.NoError(t, err)
	require.NotNil(t, root)

	missing, err := doc.QuerySelector("div#nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = doc.Do(func(tx *Tx) error {
		anchors, err := tx.QueryAll(root, `a[target="_blank"][href*="github.com"]`)
		require.NoError(t, err)
		require.Len(t, anchors, 1)
		href, ok := tx.Attr(anchors[0], "href")
		assert.True(t, ok)
		assert.Equal(t, "https://github.com/foo/bar", href)
		return nil
	})
	require.NoError(t, err)

	_, err = doc.QuerySelector("div[")
	assert.Error(t, err)
}

func TestDocument_ObserveChildList(t *testing.T) {
	doc := parsePage(t)
	main, err := doc.QuerySelector("div#main-content-container")
	require.NoError(t, err)
	sidebar, err := doc.QuerySelector("div#right-sidebar")
	require.NoError(t, err)

	var mainCalls, sidebarCalls int
	cancelMain := doc.Observe(main, func() { mainCalls++ })
	doc.Observe(sidebar, func() { sidebarCalls++ })

	p, err := doc.QuerySelector("div#main-content-container > p")
	require.NoError(t, err)

	// Nested append is reported to the ancestor root only.
	require.NoError(t, doc.Do(func(tx *Tx) error {
		tx.AppendChild(p, &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span})
		return nil
	}))
	assert.Equal(t, 1, mainCalls)
	assert.Equal(t, 0, sidebarCalls)

	// Attribute changes are not reported.
	require.NoError(t, doc.Do(func(tx *Tx) error {
		tx.SetAttr(p, "data-x", "1")
		return nil
	}))
	assert.Equal(t, 1, mainCalls)

	cancelMain()
	cancelMain()
	require.NoError(t, doc.Do(func(tx *Tx) error {
		tx.ReplaceChildren(main, nil)
		return nil
	}))
	assert.Equal(t, 1, mainCalls)
}

func TestTx_Attributes(t *testing.T) {
	doc := parsePage(t)
	a, err := doc.QuerySelector("a")
	require.NoError(t, err)

	require.NoError(t, doc.Do(func(tx *Tx) error {
		tx.SetAttr(a, "data-show-github-star", "true")
		tx.SetAttr(a, "data-show-github-star", "true")
		v, ok := tx.Attr(a, "data-show-github-star")
		assert.True(t, ok)
		assert.Equal(t, "true", v)

		tx.RemoveAttr(a, "data-show-github-star")
		_, ok = tx.Attr(a, "data-show-github-star")
		assert.False(t, ok)
		return nil
	}))
	_, ok := Attr(a, "href")
	assert.True(t, ok)
}

func TestTx_FirstMatchingAndRemove(t *testing.T) {
	doc := parsePage(t)
	a, err := doc.QuerySelector("a")
	require.NoError(t, err)

	box := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span, Attr: []html.Attribute{{Key: "class", Val: "githubStarBox"}}}
	box.AppendChild(&html.Node{Type: html.TextNode, Data: "42"})

	require.NoError(t, doc.Do(func(tx *Tx) error {
		tx.AppendChild(a, box)
		found, err := tx.FirstMatching(a, ".githubStarBox")
		require.NoError(t, err)
		assert.Same(t, box, found)
		assert.Equal(t, "foo/bar42", TextContent(a))

		tx.RemoveChild(a, found)
		found, err = tx.FirstMatching(a, ".githubStarBox")
		require.NoError(t, err)
		assert.Nil(t, found)
		return nil
	}))
	assert.NotContains(t, doc.String(), "githubStarBox")
}

func TestTx_FirstMatchingNested(t *testing.T) {
	doc := parsePage(t)
	a, err := doc.QuerySelector("a")
	require.NoError(t, err)

	wrapper := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
	box := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span, Attr: []html.Attribute{{Key: "class", Val: "githubStarBox"}}}
	wrapper.AppendChild(box)

	require.NoError(t, doc.Do(func(tx *Tx) error {
		tx.AppendChild(a, wrapper)
		found, err := tx.FirstMatching(a, ".githubStarBox")
		require.NoError(t, err)
		assert.Same(t, box, found)

		self, err := tx.FirstMatching(a, "a")
		require.NoError(t, err)
		assert.Nil(t, self)
		return nil
	}))
}
