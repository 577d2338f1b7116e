// Package annotator appends star count badges to repository links and removes them again.
package annotator

import (
	"context"
	"log"

	"github.com/naka-gawa/github-star-badge/internal/dom"
	"github.com/naka-gawa/github-star-badge/internal/domain"
	"github.com/naka-gawa/github-star-badge/internal/metrics"
	"github.com/naka-gawa/github-star-badge/internal/settings"
	"golang.org/x/net/html"
)

const (
	// AnchorSelector matches links that may point at a repository.
	AnchorSelector = `a[target="_blank"][href*="github.com"]`

	// MarkerAttr is set to "true" on annotated anchors.
	MarkerAttr = "data-show-github-star"

	// BadgeClass is the class of the badge element appended to an anchor.
	BadgeClass = "githubStarBox"
)

// Resolver turns a repository into its star count.
type Resolver interface {
	Resolve(ctx context.Context, repo domain.RepoIdentity) (int, error)
}

// Annotator adds and removes badges on anchors of a single document.
type Annotator struct {
	doc      *dom.Document
	resolver Resolver
	store    settings.Store
	logger   *log.Logger
	metrics  *metrics.Metrics
}

// New creates an Annotator. Colors are read from store each time a badge is built.
func New(doc *dom.Document, resolver Resolver, store settings.Store, logger *log.Logger, m *metrics.Metrics) *Annotator {
	return &Annotator{
		doc:      doc,
		resolver: resolver,
		store:    store,
		logger:   logger,
		metrics:  m,
	}
}

// AddStar annotates el with the star count of the repository it links to.
//
// Anchors that are already annotated, or whose href is not a repository URL,
// are left untouched and nil is returned. A resolution failure is logged and
// returned; el stays unmarked so a later scan retries it.
func (a *Annotator) AddStar(ctx context.Context, el *html.Node) error {
	var href string
	var marked bool
	_ = a.doc.Do(func(tx *dom.Tx) error {
		marked = isMarked(tx, el)
		href, _ = tx.Attr(el, "href")
		return nil
	})
	if marked {
		return nil
	}

	repo, err := domain.ParseRepoURL(href)
	if err != nil {
		return nil
	}

	count, err := a.resolver.Resolve(ctx, repo)
	if err != nil {
		a.logger.Printf("get GithubStarCount err (%s) for %s: %v", domain.ErrorKind(err), repo, err)
		return err
	}

	badge, err := buildBadge(count, settings.Read(a.store))
	if err != nil {
		return err
	}

	added := false
	err = a.doc.Do(func(tx *dom.Tx) error {
		// Another scan may have finished first while we were resolving.
		existing, err := tx.FirstMatching(el, "."+BadgeClass)
		if err != nil || existing != nil {
			return err
		}
		tx.AppendChild(el, badge)
		tx.SetAttr(el, MarkerAttr, "true")
		added = true
		return nil
	})
	if added {
		a.metrics.BadgeAdded()
	}
	return err
}

// RemoveStar removes the badge from el and clears its marker. It is a no-op
// for anchors that are not annotated.
func (a *Annotator) RemoveStar(el *html.Node) error {
	removed := false
	err := a.doc.Do(func(tx *dom.Tx) error {
		if !isMarked(tx, el) {
			return nil
		}
		box, err := tx.FirstMatching(el, "."+BadgeClass)
		if err != nil {
			return err
		}
		if box != nil {
			tx.RemoveChild(box.Parent, box)
		}
		tx.RemoveAttr(el, MarkerAttr)
		removed = true
		return nil
	})
	if removed {
		a.metrics.BadgeRemoved()
	}
	return err
}

func isMarked(tx *dom.Tx, el *html.Node) bool {
	v, _ := tx.Attr(el, MarkerAttr)
	return v == "true"
}
