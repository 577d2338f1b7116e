package domain

import "errors"

var (
	// ErrMalformedURL is returned when an href is not a repository URL.
	// Callers skip such anchors silently.
	ErrMalformedURL = errors.New("not a github repository url")

	// ErrRateLimitExceeded means the API refused the request because the
	// caller ran out of quota.
	ErrRateLimitExceeded = errors.New("API rate limit exceeded")

	// ErrRepoNotFound means the repository does not exist or is not visible
	// with the configured token.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrUnknownResolution covers every other failure to obtain a star count.
	ErrUnknownResolution = errors.New("cant get star count")

	// ErrRootElementMissing is returned when a root container cannot be found.
	ErrRootElementMissing = errors.New("root element missing")
)

// ErrorKind returns a short label for a resolution error, used for logging
// and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimitExceeded):
		return "rate_limit_exceeded"
	case errors.Is(err, ErrRepoNotFound):
		return "repo_not_found"
	case errors.Is(err, ErrMalformedURL):
		return "malformed_url"
	default:
		return "unknown"
	}
}
