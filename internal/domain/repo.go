// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"regexp"
)

// repoURLPattern matches the first two path segments of a github.com URL.
// Segments stop at a query or fragment.
var repoURLPattern = regexp.MustCompile(`https?://github\.com/([^/?#]+)/([^/?#]+)`)

// RepoIdentity identifies a single GitHub repository.
// It is the core domain entity of this application.
type RepoIdentity struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ParseRepoURL extracts the repository identity from a github.com URL.
// Only the first two path segments are used, so deep links such as
// https://github.com/foo/bar/issues/1 resolve to foo/bar.
func ParseRepoURL(rawURL string) (RepoIdentity, error) {
	match := repoURLPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return RepoIdentity{}, fmt.Errorf("%w: %q", ErrMalformedURL, rawURL)
	}
	return RepoIdentity{Owner: match[1], Name: match[2]}, nil
}

// Key returns the cache key "owner/name".
func (r RepoIdentity) Key() string {
	return r.Owner + "/" + r.Name
}

func (r RepoIdentity) String() string {
	return r.Key()
}
