// Package github fetches a developer's activity counters from the GitHub API.
//
// A fetch is all-or-nothing: if any counter cannot be read the whole fetch
// fails, so callers never see a snapshot with silently zeroed fields.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v66/github"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/metrics"
	"github.com/asteroid-belt/gitquest/internal/models"
	"github.com/asteroid-belt/gitquest/pkg/version"
)

const (
	// AuthenticatedRateLimit is requests per minute with token.
	AuthenticatedRateLimit = 60

	// UnauthenticatedRateLimit is requests per minute without token.
	UnauthenticatedRateLimit = 10

	// DefaultLowRateFloor triggers a warning when a class has fewer requests left.
	DefaultLowRateFloor = 100

	reposPerPage = 100
)

// Config configures a Client.
type Config struct {
	Token        string
	BaseURL      string // empty for api.github.com; must end with a slash otherwise
	RateLimit    int    // requests per minute
	LowRateFloor int
	HTTPClient   *http.Client // overrides the oauth2 client, mainly for tests
}

// Profile is the public profile of a GitHub user.
type Profile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	Bio         string    `json:"bio,omitempty"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

// Client reads activity counters with pacing, rate-limit accounting and a
// circuit breaker around the whole fetch.
type Client struct {
	rest     *gh.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[*models.StatsSnapshot]
	lowFloor int
	now      func() time.Time

	mu    sync.RWMutex
	rates models.RateLimitInfo
	etag  string

	requestCount int
}

// NewClient creates a GitHub client.
func NewClient(cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil && cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		if cfg.Token != "" {
			rateLimit = AuthenticatedRateLimit
		} else {
			rateLimit = UnauthenticatedRateLimit
		}
	}

	rest := gh.NewClient(httpClient)
	rest.UserAgent = version.UserAgent()
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		rest.BaseURL = u
	}

	lowFloor := cfg.LowRateFloor
	if lowFloor <= 0 {
		lowFloor = DefaultLowRateFloor
	}

	return &Client{
		rest:     rest,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rateLimit)), rateLimit),
		breaker:  newBreaker("github-api"),
		lowFloor: lowFloor,
		now:      time.Now,
	}, nil
}

// Fetch reads every counter of a subject and returns the snapshot together
// with the rate-limit headroom observed during the fetch.
func (c *Client) Fetch(ctx context.Context, subject string) (*models.StatsSnapshot, *models.RateLimitInfo, error) {
	if subject == "" {
		return nil, nil, &FetchError{Kind: KindPartialResponse, Op: "fetch", Err: errors.New("empty subject")}
	}
	start := time.Now()

	snap, err := c.breaker.Execute(func() (*models.StatsSnapshot, error) {
		return c.fetch(ctx, subject)
	})
	metrics.GitHubFetchDuration.Observe(time.Since(start).Seconds())

	info := c.RateLimits()
	if err != nil {
		return nil, &info, classify("fetch", err, c.now())
	}
	return snap, &info, nil
}

func (c *Client) fetch(ctx context.Context, subject string) (*models.StatsSnapshot, error) {
	snap := &models.StatsSnapshot{Subject: subject}

	counts := []struct {
		op    string
		query string
		dst   *int64
	}{
		{"search commits", "author:" + subject, &snap.Commits},
		{"search prs created", "type:pr author:" + subject, &snap.PRsCreated},
		{"search prs merged", "type:pr is:merged author:" + subject, &snap.PRsMerged},
		{"search issues created", "type:issue author:" + subject, &snap.IssuesCreated},
		{"search issues closed", "type:issue is:closed author:" + subject, &snap.IssuesClosed},
		{"search reviews", "type:pr reviewed-by:" + subject + " -author:" + subject, &snap.Reviews},
	}
	for i, q := range counts {
		var n int
		var err error
		if i == 0 {
			n, err = c.searchCommits(ctx, q.query)
		} else {
			n, err = c.searchIssues(ctx, q.query)
		}
		if err != nil {
			return nil, classify(q.op, err, c.now())
		}
		*q.dst = int64(n)
	}

	stars, languages, err := c.ownedRepos(ctx, subject)
	if err != nil {
		return nil, classify("list repositories", err, c.now())
	}
	snap.Stars = stars
	snap.LanguageNames = languages
	snap.Languages = len(languages)

	contributions, err := c.contributions(ctx, subject)
	if err != nil {
		return nil, classify("graphql contributions", err, c.now())
	}
	snap.Contributions = contributions

	snap.FetchedAt = c.now()
	return snap, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	c.mu.Lock()
	c.requestCount++
	c.mu.Unlock()
	return nil
}

func (c *Client) searchCommits(ctx context.Context, query string) (int, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	res, resp, err := c.rest.Search.Commits(ctx, query, &gh.SearchOptions{ListOptions: gh.ListOptions{PerPage: 1}})
	c.recordRate(models.RateLimitSearch, resp, err)
	if err != nil {
		return 0, err
	}
	if res.GetIncompleteResults() {
		return 0, partial("search commits", errors.New("incomplete results"))
	}
	return res.GetTotal(), nil
}

func (c *Client) searchIssues(ctx context.Context, query string) (int, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	res, resp, err := c.rest.Search.Issues(ctx, query, &gh.SearchOptions{ListOptions: gh.ListOptions{PerPage: 1}})
	c.recordRate(models.RateLimitSearch, resp, err)
	if err != nil {
		return 0, err
	}
	if res.GetIncompleteResults() {
		return 0, partial("search issues", errors.New("incomplete results"))
	}
	return res.GetTotal(), nil
}

// ownedRepos sums stargazers and collects primary languages of the subject's
// own (non-fork) repositories.
func (c *Client) ownedRepos(ctx context.Context, subject string) (int64, []string, error) {
	opts := &gh.RepositoryListByUserOptions{
		Type:        "owner",
		ListOptions: gh.ListOptions{PerPage: reposPerPage},
	}

	var stars int64
	seen := map[string]bool{}
	for {
		if err := c.wait(ctx); err != nil {
			return 0, nil, err
		}
		repos, resp, err := c.rest.Repositories.ListByUser(ctx, subject, opts)
		c.recordRate(models.RateLimitCore, resp, err)
		if err != nil {
			return 0, nil, err
		}
		if resp != nil && opts.Page <= 1 {
			c.setETag(resp.Header.Get("ETag"))
		}

		for _, r := range repos {
			if r.GetFork() {
				continue
			}
			stars += int64(r.GetStargazersCount())
			if lang := r.GetLanguage(); lang != "" {
				seen[lang] = true
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	languages := make([]string, 0, len(seen))
	for l := range seen {
		languages = append(languages, l)
	}
	sort.Strings(languages)
	return stars, languages, nil
}

const contributionsQuery = `query($login: String!) {
  user(login: $login) {
    contributionsCollection {
      contributionCalendar {
        totalContributions
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		User *struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					TotalContributions int64 `json:"totalContributions"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"errors"`
}

// contributions runs the one GraphQL query for the contribution calendar.
func (c *Client) contributions(ctx context.Context, subject string) (int64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	req, err := c.rest.NewRequest(http.MethodPost, "graphql", graphQLRequest{
		Query:     contributionsQuery,
		Variables: map[string]any{"login": subject},
	})
	if err != nil {
		return 0, fmt.Errorf("build graphql request: %w", err)
	}

	var out graphQLResponse
	resp, err := c.rest.Do(ctx, req, &out)
	c.recordRate(models.RateLimitGraphQL, resp, err)
	if err != nil {
		return 0, err
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return 0, partial("graphql contributions", errors.New(strings.Join(msgs, "; ")))
	}
	if out.Data.User == nil {
		return 0, &FetchError{Kind: KindNotFound, Op: "graphql contributions", Err: fmt.Errorf("user %q not found", subject)}
	}
	return out.Data.User.ContributionsCollection.ContributionCalendar.TotalContributions, nil
}

// Profile fetches the public profile of a user.
func (c *Client) Profile(ctx context.Context, subject string) (*Profile, error) {
	if err := c.wait(ctx); err != nil {
		return nil, classify("get user", err, c.now())
	}
	user, resp, err := c.rest.Users.Get(ctx, subject)
	c.recordRate(models.RateLimitCore, resp, err)
	if err != nil {
		return nil, classify("get user", err, c.now())
	}
	return &Profile{
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		AvatarURL:   user.GetAvatarURL(),
		HTMLURL:     user.GetHTMLURL(),
		Bio:         user.GetBio(),
		PublicRepos: user.GetPublicRepos(),
		Followers:   user.GetFollowers(),
		CreatedAt:   user.GetCreatedAt().Time,
	}, nil
}

// recordRate stores the rate-limit headers of a response under an API class.
func (c *Client) recordRate(class models.RateLimitClass, resp *gh.Response, err error) {
	metrics.RecordGitHubRequest(string(class), err)

	var r gh.Rate
	switch {
	case resp != nil && resp.Response != nil && resp.Rate.Limit > 0:
		r = resp.Rate
	default:
		var rle *gh.RateLimitError
		if !errors.As(err, &rle) {
			return
		}
		r = rle.Rate
	}

	rl := models.RateLimit{Remaining: r.Remaining, Limit: r.Limit, ResetAt: r.Reset.Time}
	c.mu.Lock()
	c.rates.Set(class, rl)
	c.rates.RecordedAt = c.now()
	c.mu.Unlock()

	metrics.SetRateRemaining(string(class), r.Remaining)
	if r.Remaining < c.lowFloor {
		log.Warn().
			Str("class", string(class)).
			Int("remaining", r.Remaining).
			Int("limit", r.Limit).
			Time("reset_at", r.Reset.Time).
			Msg("github rate limit low")
	}
}

func (c *Client) setETag(etag string) {
	if etag == "" {
		return
	}
	c.mu.Lock()
	c.etag = etag
	c.mu.Unlock()
}

// RateLimits returns the last observed rate-limit headroom of every class.
func (c *Client) RateLimits() models.RateLimitInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rates
}

// ETag returns the ETag of the last repository listing.
func (c *Client) ETag() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.etag
}

// RequestCount returns the number of API requests issued.
func (c *Client) RequestCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requestCount
}

// BreakerState returns the circuit breaker state name.
func (c *Client) BreakerState() string {
	return stateToString(c.breaker.State())
}
