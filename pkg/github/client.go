// pkg/github/client.go

package github

import (
	"fmt"
	"time"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/go-resty/resty/v2"
)

// Client is a thin wrapper over the pull-request host API.
type Client struct {
	rest  *resty.Client
	owner string
	repo  string
}

// NewClient builds a client for one repository. The token may be empty for
// public repositories; the host will rate-limit harder.
func NewClient(owner, repo, token string) *Client {
	rest := resty.New().
		SetBaseURL("https://api.github.com").
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("User-Agent", "versio")
	if token != "" {
		rest.SetAuthToken(token)
	}
	return &Client{rest: rest, owner: owner, repo: repo}
}

// PullRequest is the slice of PR metadata stitching needs.
type PullRequest struct {
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	HTMLURL        string     `json:"html_url"`
	MergedAt       *time.Time `json:"merged_at"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
}

// Merged reports whether the pull-request actually landed.
func (pr *PullRequest) Merged() bool { return pr.MergedAt != nil }

// apiCommit is the host's commit shape, used both for PR commit listings
// and single-commit detail (which adds files).
type apiCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message   string `json:"message"`
		Author    apiIdentity `json:"author"`
		Committer apiIdentity `json:"committer"`
	} `json:"commit"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
	Files []struct {
		Filename         string `json:"filename"`
		PreviousFilename string `json:"previous_filename"`
	} `json:"files"`
}

type apiIdentity struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// PullsForCommit answers "which pull-requests merged this commit?".
func (c *Client) PullsForCommit(rc *versio_io.RuntimeContext, sha string) ([]PullRequest, error) {
	var prs []PullRequest
	resp, err := c.rest.R().
		SetContext(rc.Ctx).
		SetResult(&prs).
		Get(fmt.Sprintf("/repos/%s/%s/commits/%s/pulls", c.owner, c.repo, sha))
	if err != nil {
		return nil, versio_err.VCSError(err, "can't query pull-requests for %s", sha)
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}
	return prs, nil
}

// PullCommits lists a pull-request's source commits. ok is false when the
// pull-request or its branch is gone.
func (c *Client) PullCommits(rc *versio_io.RuntimeContext, number int) ([]string, bool, error) {
	var commits []apiCommit
	resp, err := c.rest.R().
		SetContext(rc.Ctx).
		SetResult(&commits).
		SetQueryParam("per_page", "250").
		Get(fmt.Sprintf("/repos/%s/%s/pulls/%d/commits", c.owner, c.repo, number))
	if err != nil {
		return nil, false, versio_err.VCSError(err, "can't list commits of pull-request %d", number)
	}
	if resp.StatusCode() == 404 || resp.StatusCode() == 422 {
		return nil, false, nil
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, false, err
	}
	shas := make([]string, 0, len(commits))
	for _, commit := range commits {
		shas = append(shas, commit.SHA)
	}
	return shas, true, nil
}

// CommitDetail fetches one commit with its changed files. ok is false when
// the commit is no longer reachable on the remote.
func (c *Client) CommitDetail(rc *versio_io.RuntimeContext, sha string) (*RemoteCommit, bool, error) {
	var commit apiCommit
	resp, err := c.rest.R().
		SetContext(rc.Ctx).
		SetResult(&commit).
		Get(fmt.Sprintf("/repos/%s/%s/commits/%s", c.owner, c.repo, sha))
	if err != nil {
		return nil, false, versio_err.VCSError(err, "can't read remote commit %s", sha)
	}
	if resp.StatusCode() == 404 || resp.StatusCode() == 422 {
		return nil, false, nil
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, false, err
	}

	out := &RemoteCommit{
		SHA:           commit.SHA,
		Message:       commit.Commit.Message,
		AuthorName:    commit.Commit.Author.Name,
		AuthorEmail:   commit.Commit.Author.Email,
		CommitterTime: commit.Commit.Committer.Date,
	}
	for _, p := range commit.Parents {
		out.Parents = append(out.Parents, p.SHA)
	}
	for _, f := range commit.Files {
		out.Files = append(out.Files, f.Filename)
		if f.PreviousFilename != "" {
			out.Files = append(out.Files, f.PreviousFilename)
		}
	}
	return out, true, nil
}

// RemoteCommit is a commit as the host reports it, files included.
type RemoteCommit struct {
	SHA           string
	Message       string
	AuthorName    string
	AuthorEmail   string
	CommitterTime time.Time
	Parents       []string
	Files         []string
}

func (c *Client) checkStatus(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == 401 || resp.StatusCode() == 403:
		return versio_err.RemoteAuthError(fmt.Errorf("%s", resp.Status()), "api.github.com")
	case resp.StatusCode() >= 400:
		return versio_err.VCSError(fmt.Errorf("%s: %s", resp.Status(), resp.String()), "pull-request query failed")
	}
	return nil
}
