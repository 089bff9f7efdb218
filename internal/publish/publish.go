// Package publish turns approved PRDs into GitHub issues.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/models"
)

// sectionTitles are the issue body headings in document order.
var sectionTitles = map[string]string{
	models.SectionBackground:     "Background",
	models.SectionProblem:        "Problem",
	models.SectionSolution:       "Solution",
	models.SectionUXRequirements: "UX requirements",
	models.SectionEdgeCases:      "Edge cases",
}

// issuesService abstracts the go-github Issues methods we use.
type issuesService interface {
	Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
}

// IssuePublisher files PRDs as issues in one repository.
type IssuePublisher struct {
	issues issuesService
	owner  string
	repo   string
	labels []string
}

// Opts configures an IssuePublisher.
type Opts struct {
	Token  string
	Owner  string
	Repo   string
	Labels []string
	// For testing: inject a mock issues service.
	Issues issuesService
}

// New creates an IssuePublisher authenticated with a static token.
func New(ctx context.Context, opts Opts) (*IssuePublisher, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("publish: github owner and repo are required")
	}
	p := &IssuePublisher{issues: opts.Issues, owner: opts.Owner, repo: opts.Repo, labels: opts.Labels}
	if p.issues == nil {
		if opts.Token == "" {
			return nil, fmt.Errorf("publish: github token is required")
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		p.issues = github.NewClient(oauth2.NewClient(ctx, ts)).Issues
	}
	return p, nil
}

// Repo returns "owner/repo".
func (p *IssuePublisher) Repo() string {
	return p.owner + "/" + p.repo
}

// PublishPRD creates an issue for prd and returns its HTML URL.
func (p *IssuePublisher) PublishPRD(ctx context.Context, prd *models.PRDDraft) (string, error) {
	req := &github.IssueRequest{
		Title: github.Ptr(prd.Title),
		Body:  github.Ptr(RenderBody(prd)),
	}
	if len(p.labels) > 0 {
		labels := append([]string(nil), p.labels...)
		req.Labels = &labels
	}

	issue, _, err := p.issues.Create(ctx, p.owner, p.repo, req)
	if err != nil {
		return "", classify(err, p.Repo())
	}
	return issue.GetHTMLURL(), nil
}

// RenderBody renders the PRD sections as issue markdown. Empty sections
// are omitted.
func RenderBody(prd *models.PRDDraft) string {
	var b strings.Builder
	for _, name := range models.SectionNames {
		text := strings.TrimSpace(prd.Section(name))
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", sectionTitles[name], text)
	}
	fmt.Fprintf(&b, "---\nPRD `%s` v%d", prd.ID, prd.Version)
	return b.String()
}

func classify(err error, repo string) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return apperr.Wrap(err, apperr.AccessDenied, "publish: cannot create issues in "+repo)
		}
	}
	return apperr.Wrap(err, apperr.Upstream, "publish: create issue in "+repo)
}
