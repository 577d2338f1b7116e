package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/naka-gawa/github-star-badge/internal/annotator"
	"github.com/naka-gawa/github-star-badge/internal/dom"
	"github.com/naka-gawa/github-star-badge/internal/domain"
	"github.com/naka-gawa/github-star-badge/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const page = `<html><body>
<div id="main-content-container">
  <a target="_blank" href="https://github.com/foo/bar">foo/bar</a>
  <a target="_blank" href="https://github.com/foo/missing">missing</a>
  <a href="https://github.com/foo/bar">same tab</a>
  <a target="_blank" href="https://example.com/foo/bar">elsewhere</a>
</div>
<div id="right-sidebar"><a target="_blank" href="https://github.com/baz/qux">baz/qux</a></div>
</body></html>`

// staticResolver serves counts from a map and fails for everything else.
type staticResolver struct {
	counts map[string]int
	calls  atomic.Int32
}

func (r *staticResolver) Resolve(ctx context.Context, repo domain.RepoIdentity) (int, error) {
	r.calls.Add(1)
	if count, ok := r.counts[repo.Key()]; ok {
		return count, nil
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrRepoNotFound, repo)
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type fixture struct {
	doc      *dom.Document
	watcher  *Watcher
	clock    fakeClock
	resolver *staticResolver
	scans    atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	doc, err := dom.ParseString(page)
	require.NoError(t, err)

	f := &fixture{
		doc:      doc,
		clock:    clockwork.NewFakeClock(),
		resolver: &staticResolver{counts: map[string]int{"foo/bar": 42, "baz/qux": 7, "new/repo": 1}},
	}
	logger := log.New(io.Discard, "", 0)
	a := annotator.New(doc, f.resolver, settings.MapStore{}, logger, nil)
	f.watcher = New(doc, a, logger,
		WithClock(f.clock),
		WithOnScan(func(string) { f.scans.Add(1) }),
	)
	return f
}

func (f *fixture) badgeTexts(t *testing.T, selector string) []string {
	root, err := f.doc.QuerySelector(selector)
	require.NoError(t, err)
	var texts []string
	require.NoError(t, f.doc.Do(func(tx *dom.Tx) error {
		boxes, err := tx.QueryAll(root, "."+annotator.BadgeClass)
		for _, b := range boxes {
			texts = append(texts, dom.TextContent(b))
		}
		return err
	}))
	return texts
}

func (f *fixture) appendAnchor(t *testing.T, selector, href string) {
	frag, err := html.Parse(strings.NewReader(fmt.Sprintf(`<a target="_blank" href=%q>new</a>`, href)))
	require.NoError(t, err)
	anchor, err := dom.New(frag).QuerySelector("a")
	require.NoError(t, err)
	root, err := f.doc.QuerySelector(selector)
	require.NoError(t, err)
	require.NoError(t, f.doc.Do(func(tx *dom.Tx) error {
		tx.AppendChild(root, anchor)
		return nil
	}))
}

func TestWatcher_StartScansImmediately(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.watcher.Start(context.Background(), "div#main-content-container"))

	// Only the qualifying, resolvable anchor is annotated; the failing one
	// does not abort the scan.
	assert.Equal(t, []string{"42"}, f.badgeTexts(t, "div#main-content-container"))
	assert.Empty(t, f.badgeTexts(t, "div#right-sidebar"))
	assert.Equal(t, int32(1), f.scans.Load())
	assert.Equal(t, []string{"div#main-content-container"}, f.watcher.Selectors())
}

func TestWatcher_StartMissingRoot(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.watcher.Start(context.Background(), "div#nope"))

	assert.Empty(t, f.watcher.Selectors())
	assert.Equal(t, int32(0), f.scans.Load())
}

func TestWatcher_DebouncedRescan(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.watcher.Start(context.Background(), "div#right-sidebar"))
	require.Equal(t, int32(1), f.scans.Load())

	// A burst of mutations inside one window.
	for i := 0; i < 3; i++ {
		f.appendAnchor(t, "div#right-sidebar", "https://github.com/new/repo")
		f.clock.Advance(100 * time.Millisecond)
	}
	f.clock.Advance(399 * time.Millisecond)
	assert.Never(t, func() bool { return f.scans.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, []string{"7"}, f.badgeTexts(t, "div#right-sidebar"))

	f.clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return f.scans.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"7", "1", "1", "1"}, f.badgeTexts(t, "div#right-sidebar"))

	// One resolution per new anchor; the annotated one is skipped.
	assert.Equal(t, int32(4), f.resolver.calls.Load())
}

func TestWatcher_Stop(t *testing.T) {
	f := newFixture(t)
	before := f.doc.String()
	require.NoError(t, f.watcher.Start(context.Background(), "div#main-content-container"))
	require.NotEqual(t, before, f.doc.String())

	require.NoError(t, f.watcher.Stop("div#main-content-container"))

	assert.Empty(t, f.badgeTexts(t, "div#main-content-container"))
	assert.NotContains(t, f.doc.String(), annotator.MarkerAttr)
	assert.Empty(t, f.watcher.Selectors())

	// The subscription is gone: further mutations never trigger a scan.
	scans := f.scans.Load()
	f.appendAnchor(t, "div#main-content-container", "https://github.com/new/repo")
	f.clock.Advance(time.Second)
	assert.Never(t, func() bool { return f.scans.Load() > scans }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestWatcher_StopMissingRoot(t *testing.T) {
	f := newFixture(t)

	err := f.watcher.Stop("div#nope")

	assert.True(t, errors.Is(err, domain.ErrRootElementMissing))
}

func TestWatcher_RestartReplacesRegistration(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.watcher.Start(context.Background(), "div#right-sidebar"))
	require.NoError(t, f.watcher.Start(context.Background(), "div#right-sidebar"))

	assert.Equal(t, []string{"div#right-sidebar"}, f.watcher.Selectors())
	assert.Equal(t, []string{"7"}, f.badgeTexts(t, "div#right-sidebar"))
}
