// Package spider defines the core types and components of the journal
// crawler: the issue-spec parser, the selector fallback navigator, the
// per-row extractor, the detail enricher, and the orchestrator that ties
// them together for one crawl invocation.
package spider

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/google/uuid"
)

// Paper is one article row crawled from the issue listing, optionally
// enriched with fields from its detail page.
type Paper struct {
	Year        int    `json:"year"`
	Issue       int    `json:"issue"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Pages       string `json:"pages"`
	AbstractURL string `json:"abstract_url"`
	// Abstract is nil when detail fetching was not requested, and points to
	// an empty string when requested but not (or unsuccessfully) fetched.
	// The two states must stay distinguishable in the serialized output.
	Abstract      *string `json:"abstract"`
	Keywords      string  `json:"keywords,omitempty"`
	DOI           string  `json:"doi,omitempty"`
	Fund          string  `json:"fund,omitempty"`
	AuthorsDetail string  `json:"authors_detail,omitempty"`
}

// Detail carries the fields scraped from an article's detail page.
type Detail struct {
	Abstract string
	Keywords string
	DOI      string
	Fund     string
	Authors  string
}

// Session accumulates the results of one crawl invocation. It is owned by
// the Spider for the duration of the run and returned to the caller; it is
// never shared or persisted.
type Session struct {
	ID         string
	URL        string
	Year       int
	Issues     []int
	GetDetails bool

	// Papers is the flat, append-in-order result list across issues.
	Papers []Paper
	// ByIssue maps each crawled issue number to its extracted papers. A
	// failed issue maps to an empty slice.
	ByIssue map[int][]Paper
}

// NewSession validates the target and seeds a session for one invocation.
func NewSession(cfg Config) (*Session, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", cfg.URL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid url %q: scheme and host are required", cfg.URL)
	}
	seen := make(map[int]struct{}, len(cfg.Issues))
	issues := make([]int, 0, len(cfg.Issues))
	for _, issue := range cfg.Issues {
		if issue < minIssue || issue > maxIssue {
			return nil, fmt.Errorf("%w: issue %d outside %d-%d", ErrSpecRange, issue, minIssue, maxIssue)
		}
		if _, dup := seen[issue]; dup {
			continue
		}
		seen[issue] = struct{}{}
		issues = append(issues, issue)
	}
	sort.Ints(issues)

	return &Session{
		ID:         uuid.NewString(),
		URL:        cfg.URL,
		Year:       cfg.Year,
		Issues:     issues,
		GetDetails: cfg.GetDetails,
		ByIssue:    make(map[int][]Paper, len(issues)),
	}, nil
}
