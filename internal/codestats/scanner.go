// Package codestats counts per-day line changes of a subject in local git
// repositories.
package codestats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/models"
)

// ScanError represents a repository scan failure.
type ScanError struct {
	Repo string
	Op   string // "open", "log", "stats"
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Repo, e.Op, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Options selects what a scan counts.
type Options struct {
	// Days is how many calendar days back, today included, are counted.
	Days int
	// Authors are matched case-insensitively against the commit author's
	// name, email and GitHub noreply login. Defaults to the subject.
	Authors []string
}

// Result summarizes one scan.
type Result struct {
	Subject string                  `json:"subject"`
	Repos   int                     `json:"repos"`
	Commits int64                   `json:"commits"`
	Rows    []models.DailyCodeStats `json:"rows"`
	Errors  []string                `json:"errors,omitempty"`
}

// Scanner reads local repositories and persists daily counters.
type Scanner struct {
	db  *db.DB
	loc *time.Location
	now func() time.Time
}

// NewScanner creates a scanner. Days are cut in loc.
func NewScanner(database *db.DB, loc *time.Location) *Scanner {
	if loc == nil {
		loc = time.Local
	}
	return &Scanner{db: database, loc: loc, now: time.Now}
}

// Scan counts the subject's non-merge commits in every repository and
// replaces the stored counters of the scanned days. A repository that
// cannot be read is reported in Result.Errors and skipped.
func (s *Scanner) Scan(ctx context.Context, subject string, repos []string, opts Options) (*Result, error) {
	if subject == "" {
		return nil, errors.New("subject is required")
	}
	if opts.Days <= 0 {
		opts.Days = 30
	}
	if len(opts.Authors) == 0 {
		opts.Authors = []string{subject}
	}

	now := s.now().In(s.loc)
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, -(opts.Days - 1))

	res := &Result{Subject: subject}
	for _, path := range repos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := s.scanRepo(ctx, subject, path, since, opts.Authors)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Warn().Err(err).Str("repo", path).Msg("skipping repository")
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		res.Repos++
		for _, r := range rows {
			res.Commits += r.Commits
		}
		res.Rows = append(res.Rows, rows...)
	}

	if err := s.db.UpsertDailyCodeStats(res.Rows); err != nil {
		return nil, fmt.Errorf("save code stats: %w", err)
	}

	stamp := s.now()
	meta := &models.SyncMetadata{
		SubjectID:  subject,
		SyncType:   models.SyncTypeCodeStats,
		LastSyncAt: &stamp,
		LastError:  strings.Join(res.Errors, "; "),
	}
	if err := s.db.SaveSyncMetadata(meta); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to save code stats metadata")
	}

	log.Info().
		Str("subject", subject).
		Int("repos", res.Repos).
		Int64("commits", res.Commits).
		Int("days", opts.Days).
		Msg("code stats scanned")
	return res, nil
}

func (s *Scanner) scanRepo(ctx context.Context, subject, path string, since time.Time, authors []string) ([]models.DailyCodeStats, error) {
	name := filepath.Base(filepath.Clean(path))
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, &ScanError{Repo: name, Op: "open", Err: err}
	}

	iter, err := r.Log(&git.LogOptions{Since: &since, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, &ScanError{Repo: name, Op: "log", Err: err}
	}
	defer iter.Close()

	days := make(map[string]*models.DailyCodeStats)
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.NumParents() > 1 || !matchesAuthor(c.Author, authors) {
			return nil
		}
		stats, err := c.Stats()
		if err != nil {
			return &ScanError{Repo: name, Op: "stats", Err: err}
		}

		date := c.Author.When.In(s.loc).Format("2006-01-02")
		row, ok := days[date]
		if !ok {
			row = &models.DailyCodeStats{SubjectID: subject, Date: date, Repo: name, UpdatedAt: s.now()}
			days[date] = row
		}
		row.Commits++
		row.FilesChanged += int64(len(stats))
		for _, fs := range stats {
			row.Additions += int64(fs.Addition)
			row.Deletions += int64(fs.Deletion)
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) && !errors.Is(err, io.EOF) {
		var se *ScanError
		if errors.As(err, &se) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &ScanError{Repo: name, Op: "log", Err: err}
	}

	out := make([]models.DailyCodeStats, 0, len(days))
	for _, row := range days {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// matchesAuthor reports whether sig belongs to one of authors. GitHub
// noreply addresses (12345+login@users.noreply.github.com) match the login.
func matchesAuthor(sig object.Signature, authors []string) bool {
	email := strings.ToLower(sig.Email)
	login := ""
	if local, ok := strings.CutSuffix(email, "@users.noreply.github.com"); ok {
		login = local
		if _, after, found := strings.Cut(local, "+"); found {
			login = after
		}
	}
	for _, a := range authors {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if a == email || a == login || strings.EqualFold(a, sig.Name) {
			return true
		}
	}
	return false
}

// Summary totals stored counters per day across repositories.
type Summary struct {
	Date      string `json:"date"`
	Commits   int64  `json:"commits"`
	Additions int64  `json:"additions"`
	Deletions int64  `json:"deletions"`
}

// Daily returns the stored counters of a subject in [from, to], one entry per day.
func (s *Scanner) Daily(subject, from, to string) ([]Summary, error) {
	rows, err := s.db.GetDailyCodeStats(subject, from, to)
	if err != nil {
		return nil, fmt.Errorf("load code stats: %w", err)
	}
	var out []Summary
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].Date == r.Date {
			out[n-1].Commits += r.Commits
			out[n-1].Additions += r.Additions
			out[n-1].Deletions += r.Deletions
			continue
		}
		out = append(out, Summary{Date: r.Date, Commits: r.Commits, Additions: r.Additions, Deletions: r.Deletions})
	}
	return out, nil
}
