// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/github-star-badge/internal/domain"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// Fetcher defines the behavior of a gateway for fetching star counts from GitHub.
type Fetcher interface {
	FetchStarCount(ctx context.Context, repo domain.RepoIdentity) (int, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	useGraphQL    bool
	logger        *log.Logger
}

// Option configures a GitHubGateway.
type Option func(*gatewayConfig)

type gatewayConfig struct {
	useGraphQL bool
	baseURL    string
}

// WithGraphQL resolves star counts through the GraphQL API instead of REST.
// The GraphQL API rejects anonymous requests, so a token is required.
func WithGraphQL() Option {
	return func(c *gatewayConfig) { c.useGraphQL = true }
}

// WithBaseURL points both clients at a different API root, e.g. a GitHub
// Enterprise instance ("https://ghe.example.com/api/v3/").
func WithBaseURL(baseURL string) Option {
	return func(c *gatewayConfig) { c.baseURL = baseURL }
}

// repoPayload is the subset of GET /repos/{owner}/{name} we care about.
// Message is set on error bodies, which GitHub also sends with 200 from some proxies.
type repoPayload struct {
	StargazersCount *int   `json:"stargazers_count"`
	Message         string `json:"message"`
}

// stargazerQuery fetches the star count of a single repository.
type stargazerQuery struct {
	Repository struct {
		StargazerCount int
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// An empty token sends anonymous requests without an Authorization header.
func NewGitHubGateway(token string, logger *log.Logger, opts ...Option) (Fetcher, error) {
	cfg := &gatewayConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	// Secondary rate limits are reported, never waited on: one attempt per miss.
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(0, func(*github_ratelimit.CallbackContext) {
		logger.Println("Secondary rate limit hit; not waiting for reset.")
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}
	httpClient := &http.Client{Transport: transport}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if cfg.baseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", cfg.baseURL, err)
		}
		restClient.BaseURL = baseURL
		graphqlClient = githubv4.NewEnterpriseClient(baseURL.String()+"graphql", httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		useGraphQL:    cfg.useGraphQL,
		logger:        logger,
	}, nil
}

// FetchStarCount returns the stargazer count of repo. Failures wrap one of
// domain.ErrRateLimitExceeded, domain.ErrRepoNotFound or domain.ErrUnknownResolution.
func (g *GitHubGateway) FetchStarCount(ctx context.Context, repo domain.RepoIdentity) (int, error) {
	if g.useGraphQL {
		return g.fetchGraphQL(ctx, repo)
	}
	return g.fetchREST(ctx, repo)
}

func (g *GitHubGateway) fetchREST(ctx context.Context, repo domain.RepoIdentity) (int, error) {
	g.logger.Printf("Fetching star count for %s using REST API...", repo)
	path := fmt.Sprintf("repos/%s/%s", url.PathEscape(repo.Owner), url.PathEscape(repo.Name))
	req, err := g.restClient.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: failed to build request: %w", domain.ErrUnknownResolution, repo, err)
	}

	var payload repoPayload
	if _, err := g.restClient.Do(ctx, req, &payload); err != nil {
		return 0, classifyRESTError(repo, err)
	}
	if payload.StargazersCount == nil {
		return 0, classifyMessage(repo, payload.Message, nil)
	}
	return *payload.StargazersCount, nil
}

func (g *GitHubGateway) fetchGraphQL(ctx context.Context, repo domain.RepoIdentity) (int, error) {
	g.logger.Printf("Fetching star count for %s using GraphQL API...", repo)
	variables := map[string]interface{}{
		"owner": githubv4.String(repo.Owner),
		"name":  githubv4.String(repo.Name),
	}
	var q stargazerQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return 0, classifyMessage(repo, err.Error(), err)
	}
	return q.Repository.StargazerCount, nil
}

func classifyRESTError(repo domain.RepoIdentity, err error) error {
	var rateLimitErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var errResp *github.ErrorResponse
	switch {
	case errors.As(err, &rateLimitErr), errors.As(err, &abuseErr):
		return fmt.Errorf("%w: %s: %w", domain.ErrRateLimitExceeded, repo, err)
	case errors.As(err, &errResp):
		return classifyMessage(repo, errResp.Message, err)
	default:
		return classifyMessage(repo, err.Error(), err)
	}
}

// classifyMessage maps an API message onto the resolution error kinds.
func classifyMessage(repo domain.RepoIdentity, message string, cause error) error {
	kind := domain.ErrUnknownResolution
	switch {
	case strings.Contains(message, "API rate limit exceeded"):
		kind = domain.ErrRateLimitExceeded
	case strings.Contains(message, "Not Found"), strings.Contains(message, "Could not resolve to a Repository"):
		kind = domain.ErrRepoNotFound
	}
	if cause != nil {
		return fmt.Errorf("%w: %s: %w", kind, repo, cause)
	}
	return fmt.Errorf("%w: %s", kind, repo)
}
