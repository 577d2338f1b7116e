// Package watcher keeps the badges of a document's root containers up to date.
//
// Each started root container is observed for child list changes. Changes are
// debounced and answered with a full re-scan of the container's anchors; the
// change notifications themselves carry no payload.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/naka-gawa/github-star-badge/internal/annotator"
	"github.com/naka-gawa/github-star-badge/internal/dom"
	"github.com/naka-gawa/github-star-badge/internal/domain"
	"github.com/naka-gawa/github-star-badge/internal/metrics"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultWait is the quiet period between the last change and a re-scan.
	DefaultWait = 500 * time.Millisecond

	// DefaultConcurrency bounds the anchors resolved at once during a scan.
	DefaultConcurrency = 4
)

// Annotator adds and removes badges on single anchors.
type Annotator interface {
	AddStar(ctx context.Context, el *html.Node) error
	RemoveStar(el *html.Node) error
}

// Watcher manages one registration per root selector.
type Watcher struct {
	doc         *dom.Document
	annotator   Annotator
	logger      *log.Logger
	metrics     *metrics.Metrics
	clock       clockwork.Clock
	wait        time.Duration
	concurrency int
	onScan      func(selector string)

	mu            sync.Mutex
	registrations map[string]*registration
}

type registration struct {
	selector  string
	root      *html.Node
	cancel    func()
	debouncer *Debouncer

	// scanMu keeps scans of one root from overlapping.
	scanMu sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithClock replaces the real clock, e.g. with clockwork.NewFakeClock in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(w *Watcher) { w.clock = clock }
}

// WithWait sets the debounce wait.
func WithWait(wait time.Duration) Option {
	return func(w *Watcher) {
		if wait > 0 {
			w.wait = wait
		}
	}
}

// WithConcurrency sets how many anchors of one scan are resolved in parallel.
func WithConcurrency(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithMetrics records scans on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithOnScan registers fn to run after every completed scan.
func WithOnScan(fn func(selector string)) Option {
	return func(w *Watcher) { w.onScan = fn }
}

// New creates a Watcher over doc.
func New(doc *dom.Document, a Annotator, logger *log.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		doc:           doc,
		annotator:     a,
		logger:        logger,
		clock:         clockwork.NewRealClock(),
		wait:          DefaultWait,
		concurrency:   DefaultConcurrency,
		registrations: make(map[string]*registration),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start observes the first element matching selector and annotates the
// anchors it already contains before returning. A selector that matches
// nothing is not an error; there is simply nothing to watch.
//
// Debounced scans run with ctx, so it should live as long as the session.
func (w *Watcher) Start(ctx context.Context, selector string) error {
	root, err := w.doc.QuerySelector(selector)
	if err != nil {
		return err
	}
	if root == nil {
		w.logger.Printf("Root element %s not found; nothing to watch.", selector)
		return nil
	}

	reg := &registration{selector: selector, root: root}
	reg.debouncer = NewDebouncer(w.clock, w.wait, func() { w.scan(ctx, reg) })
	reg.cancel = w.doc.Observe(root, reg.debouncer.Trigger)

	w.mu.Lock()
	if old, ok := w.registrations[selector]; ok {
		w.logger.Printf("Warning: %s was already being watched; replacing the previous registration.", selector)
		old.cancel()
		old.debouncer.Cancel()
	}
	w.registrations[selector] = reg
	w.mu.Unlock()

	w.logger.Printf("Watching %s for changes.", selector)

	w.scan(ctx, reg)
	return nil
}

// Stop ends the observation of selector and removes every badge under its
// root. Requests still in flight are not cancelled.
//
// If the root element no longer exists, Stop returns domain.ErrRootElementMissing.
func (w *Watcher) Stop(selector string) error {
	w.mu.Lock()
	reg, ok := w.registrations[selector]
	delete(w.registrations, selector)
	w.mu.Unlock()

	if ok {
		reg.cancel()
		reg.debouncer.Cancel()
	}

	root, err := w.doc.QuerySelector(selector)
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("%w: %s", domain.ErrRootElementMissing, selector)
	}

	anchors, err := w.anchors(root)
	if err != nil {
		return err
	}
	var errs []error
	for _, el := range anchors {
		if err := w.annotator.RemoveStar(el); err != nil {
			errs = append(errs, err)
		}
	}
	w.logger.Printf("Stopped watching %s.", selector)
	return errors.Join(errs...)
}

// Selectors returns the selectors currently being watched.
func (w *Watcher) Selectors() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	selectors := make([]string, 0, len(w.registrations))
	for s := range w.registrations {
		selectors = append(selectors, s)
	}
	return selectors
}

// scan annotates every qualifying anchor under the registration's root. A
// failing anchor never stops the others.
func (w *Watcher) scan(ctx context.Context, reg *registration) {
	reg.scanMu.Lock()
	defer reg.scanMu.Unlock()

	w.metrics.Scan(reg.selector)
	anchors, err := w.anchors(reg.root)
	if err != nil {
		w.logger.Printf("Failed to query anchors under %s: %v", reg.selector, err)
		return
	}

	var eg errgroup.Group
	eg.SetLimit(w.concurrency)
	for _, el := range anchors {
		el := el
		eg.Go(func() error {
			// Errors are already logged by the annotator and are retried next scan.
			_ = w.annotator.AddStar(ctx, el)
			return nil
		})
	}
	_ = eg.Wait()

	if w.onScan != nil {
		w.onScan(reg.selector)
	}
}

func (w *Watcher) anchors(root *html.Node) ([]*html.Node, error) {
	var anchors []*html.Node
	err := w.doc.Do(func(tx *dom.Tx) error {
		var err error
		anchors, err = tx.QueryAll(root, annotator.AnchorSelector)
		return err
	})
	return anchors, err
}
