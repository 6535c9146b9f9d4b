// Package repo fetches the grounding text for a paper from a public GitHub
// repository.
package repo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidURL reports a locator that does not name an owner and repository.
	ErrInvalidURL = errors.New("invalid GitHub repository URL")
	// ErrFetch wraps network, HTTP and not-found failures.
	ErrFetch = errors.New("fetch failed")
)

// Locator names one repository.
type Locator struct {
	Owner string
	Repo  string
}

func (l Locator) String() string {
	return l.Owner + "/" + l.Repo
}

// URL returns the repository's web address.
func (l Locator) URL() string {
	return "https://github.com/" + l.String()
}

// ParseURL accepts full URLs, scheme-less "github.com/owner/repo" forms and
// bare "owner/repo".
func ParseURL(raw string) (Locator, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err == nil && u.Host != "" {
			parts := splitPath(u.Path)
			if len(parts) >= 2 {
				return newLocator(parts[0], parts[1])
			}
		}
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	parts := splitPath(raw)
	if len(parts) < 2 {
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	for i, part := range parts {
		if strings.EqualFold(part, "github.com") && len(parts) > i+2 {
			return newLocator(parts[i+1], parts[i+2])
		}
	}
	return newLocator(parts[len(parts)-2], parts[len(parts)-1])
}

func newLocator(owner, repo string) (Locator, error) {
	repo = strings.TrimSuffix(repo, ".git")
	if owner == "" || repo == "" {
		return Locator{}, ErrInvalidURL
	}
	return Locator{Owner: owner, Repo: repo}, nil
}

func splitPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
