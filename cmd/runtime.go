package cmd

import (
	"fmt"
	"log"

	"github.com/naka-gawa/github-star-badge/internal/annotator"
	"github.com/naka-gawa/github-star-badge/internal/cache"
	"github.com/naka-gawa/github-star-badge/internal/dom"
	"github.com/naka-gawa/github-star-badge/internal/gateway"
	"github.com/naka-gawa/github-star-badge/internal/metrics"
	"github.com/naka-gawa/github-star-badge/internal/settings"
	"github.com/naka-gawa/github-star-badge/internal/usecase"
	"github.com/naka-gawa/github-star-badge/internal/watcher"
	"github.com/spf13/viper"
)

// runtime is one embedding session over a document.
type runtime struct {
	session *usecase.Session
	metrics *metrics.Metrics
	roots   []string
}

// newRuntime injects dependencies for a session over doc. onScan may be nil.
func newRuntime(doc *dom.Document, logger *log.Logger, onScan func(selector string)) (*runtime, error) {
	var opts []gateway.Option
	switch api := viper.GetString("api"); api {
	case "", "rest":
	case "graphql":
		opts = append(opts, gateway.WithGraphQL())
	default:
		return nil, fmt.Errorf("unknown --api %q: want rest or graphql", api)
	}
	if apiURL := viper.GetString("api-url"); apiURL != "" {
		opts = append(opts, gateway.WithBaseURL(apiURL))
	}

	githubGateway, err := gateway.NewGitHubGateway(settings.Read(viper.GetViper()).Token, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	m := metrics.New()
	starCache := cache.NewStarCache(githubGateway, logger, m)
	a := annotator.New(doc, starCache, viper.GetViper(), logger, m)

	watcherOpts := []watcher.Option{
		watcher.WithWait(viper.GetDuration("wait")),
		watcher.WithConcurrency(viper.GetInt("concurrency")),
		watcher.WithMetrics(m),
	}
	if onScan != nil {
		watcherOpts = append(watcherOpts, watcher.WithOnScan(onScan))
	}
	w := watcher.New(doc, a, logger, watcherOpts...)

	roots := viper.GetStringSlice("root")
	if len(roots) == 0 {
		roots = usecase.DefaultRoots
	}
	return &runtime{
		session: usecase.NewSession(w, starCache, roots, logger),
		metrics: m,
		roots:   roots,
	}, nil
}
