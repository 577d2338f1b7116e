// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/naka-gawa/github-star-badge/internal/domain"
)

// DefaultRoots are the host containers whose links are annotated.
var DefaultRoots = []string{"div#main-content-container", "div#right-sidebar"}

// RootWatcher starts and stops the observation of one root container.
type RootWatcher interface {
	Start(ctx context.Context, selector string) error
	Stop(selector string) error
}

// StarSource exposes the star counts resolved so far.
type StarSource interface {
	Snapshot() map[string]int
}

// Session ties the watcher to the host lifecycle: OnLoad when the host
// activates us, OnUnload when it deactivates us.
type Session struct {
	watcher RootWatcher
	stars   StarSource
	roots   []string
	logger  *log.Logger
}

// NewSession creates a Session watching roots, or DefaultRoots when roots is empty.
func NewSession(watcher RootWatcher, stars StarSource, roots []string, logger *log.Logger) *Session {
	if len(roots) == 0 {
		roots = DefaultRoots
	}
	return &Session{
		watcher: watcher,
		stars:   stars,
		roots:   roots,
		logger:  logger,
	}
}

// OnLoad starts watching every root. A failing root does not keep the others
// from starting.
func (s *Session) OnLoad(ctx context.Context) error {
	s.logger.Println("Usecase: Session load.")
	var errs []error
	for _, root := range s.roots {
		if err := s.watcher.Start(ctx, root); err != nil {
			errs = append(errs, fmt.Errorf("failed to start watching %s: %w", root, err))
		}
	}
	return errors.Join(errs...)
}

// OnUnload stops watching every root and removes the badges under each.
func (s *Session) OnUnload() error {
	s.logger.Println("Usecase: Session unload.")
	var errs []error
	for _, root := range s.roots {
		if err := s.watcher.Stop(root); err != nil {
			s.logger.Printf("Failed to stop watching %s: %v", root, err)
			errs = append(errs, fmt.Errorf("failed to stop watching %s: %w", root, err))
		}
	}
	return errors.Join(errs...)
}

// Summary aggregates the star counts resolved during the session.
func (s *Session) Summary() (*domain.StarSummary, error) {
	return Summarize(s.stars.Snapshot())
}
