package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRC(t *testing.T) *versio_io.RuntimeContext {
	t.Helper()
	return versio_io.NewContext(context.Background(), "test")
}

func at(minute int) time.Time {
	return time.Date(2025, 6, 1, 10, minute, 0, 0, time.UTC)
}

// hostStub is a canned pull-request host.
type hostStub struct {
	pullsByCommit map[string][]map[string]interface{}
	prCommits     map[int][]string
	details       map[string]map[string]interface{}
}

func (h *hostStub) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/commits/", func(w http.ResponseWriter, r *http.Request) {
		var sha string
		if n, _ := fmt.Sscanf(r.URL.Path, "/repos/o/r/commits/%s", &sha); n == 1 {
			if len(sha) > 6 && sha[len(sha)-6:] == "/pulls" {
				sha = sha[:len(sha)-6]
				prs := h.pullsByCommit[sha]
				if prs == nil {
					prs = []map[string]interface{}{}
				}
				_ = json.NewEncoder(w).Encode(prs)
				return
			}
			if detail, ok := h.details[sha]; ok {
				_ = json.NewEncoder(w).Encode(detail)
				return
			}
			w.WriteHeader(404)
		}
	})
	mux.HandleFunc("/repos/o/r/pulls/", func(w http.ResponseWriter, r *http.Request) {
		var number int
		if n, _ := fmt.Sscanf(r.URL.Path, "/repos/o/r/pulls/%d/commits", &number); n == 1 {
			shas, ok := h.prCommits[number]
			if !ok {
				w.WriteHeader(404)
				return
			}
			out := make([]map[string]interface{}, 0, len(shas))
			for _, sha := range shas {
				out = append(out, map[string]interface{}{"sha": sha})
			}
			_ = json.NewEncoder(w).Encode(out)
		}
	})
	return httptest.NewServer(mux)
}

func detail(sha, message string, minute int, files ...string) map[string]interface{} {
	fileObjs := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		fileObjs = append(fileObjs, map[string]interface{}{"filename": f})
	}
	return map[string]interface{}{
		"sha": sha,
		"commit": map[string]interface{}{
			"message":   message,
			"author":    map[string]interface{}{"name": "Dev", "email": "dev@example.com", "date": at(minute)},
			"committer": map[string]interface{}{"name": "Dev", "email": "dev@example.com", "date": at(minute)},
		},
		"files": fileObjs,
	}
}

func mergedPR(number int, title, mergeSHA string) map[string]interface{} {
	return map[string]interface{}{
		"number":           number,
		"title":            title,
		"html_url":         fmt.Sprintf("https://example.com/pr/%d", number),
		"merged_at":        at(30),
		"merge_commit_sha": mergeSHA,
	}
}

func newStitcher(t *testing.T, stub *hostStub) (*Stitcher, func()) {
	t.Helper()
	server := stub.serve(t)
	client := NewClient("o", "r", "")
	client.rest.SetBaseURL(server.URL)
	return &Stitcher{Client: client}, server.Close
}

func TestUnsquashReplacesSquashCommit(t *testing.T) {
	squash := "aaaa000000000000000000000000000000000000"
	stub := &hostStub{
		pullsByCommit: map[string][]map[string]interface{}{
			squash: {mergedPR(12, "remove bozo", squash)},
		},
		prCommits: map[int][]string{12: {"s1", "s2", "s3"}},
		details: map[string]map[string]interface{}{
			"s1": detail("s1", "fix: first step", 1, "covered/one.go"),
			"s2": detail("s2", "feat: second step", 2, "elsewhere/two.go"),
			"s3": detail("s3", "feat!: remove bozo", 3, "elsewhere/three.go"),
		},
	}
	stitcher, done := newStitcher(t, stub)
	defer done()

	commits := []repogate.CommitInfo{{
		Hash: squash, Summary: "feat!: remove bozo", Message: "feat!: remove bozo",
		CommitterTime: at(30), Parents: []string{"p1"},
		Files: []string{"covered/one.go", "elsewhere/two.go", "elsewhere/three.go"},
	}}

	groups, err := stitcher.Stitch(testRC(t), commits)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, 12, g.Number)
	assert.False(t, g.BestEffort)
	require.Len(t, g.Commits, 3)

	// The sources stand in for the squash, each with its own changed paths.
	assert.Equal(t, "s1", g.Commits[0].Hash)
	assert.Equal(t, []string{"covered/one.go"}, g.Commits[0].Files)
	assert.Equal(t, "fix: first step", g.Commits[0].Summary)
	assert.Equal(t, "s3", g.Commits[2].Hash)
}

func TestSquashRetainedWhenSourcesGone(t *testing.T) {
	squash := "bbbb000000000000000000000000000000000000"
	stub := &hostStub{
		pullsByCommit: map[string][]map[string]interface{}{
			squash: {mergedPR(7, "vanished branch", squash)},
		},
		prCommits: map[int][]string{}, // 404 for PR 7
	}
	stitcher, done := newStitcher(t, stub)
	defer done()

	commits := []repogate.CommitInfo{{
		Hash: squash, Summary: "feat!: big squash", Message: "feat!: big squash",
		CommitterTime: at(30), Parents: []string{"p1"}, Files: []string{"a.go"},
	}}

	groups, err := stitcher.Stitch(testRC(t), commits)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].BestEffort)
	require.Len(t, groups[0].Commits, 1)
	assert.Equal(t, squash, groups[0].Commits[0].Hash)
}

func TestUnmatchedCommitsFormOtherGroup(t *testing.T) {
	stub := &hostStub{pullsByCommit: map[string][]map[string]interface{}{}}
	stitcher, done := newStitcher(t, stub)
	defer done()

	commits := []repogate.CommitInfo{
		{Hash: "cccc000000000000000000000000000000000000", Summary: "fix: direct push", CommitterTime: at(1)},
		{Hash: "dddd000000000000000000000000000000000000", Summary: "docs: direct push", CommitterTime: at(2)},
	}

	groups, err := stitcher.Stitch(testRC(t), commits)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, OtherCommitsTitle, groups[0].Title)
	assert.Len(t, groups[0].Commits, 2)
}

func TestGroupOrderingByNewestCommit(t *testing.T) {
	m1 := "eeee000000000000000000000000000000000000"
	m2 := "ffff000000000000000000000000000000000000"
	stub := &hostStub{
		pullsByCommit: map[string][]map[string]interface{}{
			m1: {mergedPR(5, "late pr", "unrelated")},
			m2: {mergedPR(3, "early pr", "unrelated")},
		},
	}
	stitcher, done := newStitcher(t, stub)
	defer done()

	commits := []repogate.CommitInfo{
		{Hash: m2, Summary: "feat: early", CommitterTime: at(1), Parents: []string{"p"}},
		{Hash: m1, Summary: "feat: late", CommitterTime: at(9), Parents: []string{"p"}},
	}

	groups, err := stitcher.Stitch(testRC(t), commits)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, 3, groups[0].Number)
	assert.Equal(t, 5, groups[1].Number)
}

func TestAuthFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	}))
	defer server.Close()

	client := NewClient("o", "r", "bad-token")
	client.rest.SetBaseURL(server.URL)
	stitcher := &Stitcher{Client: client}

	_, err := stitcher.Stitch(testRC(t), []repogate.CommitInfo{
		{Hash: "abcd000000000000000000000000000000000000", CommitterTime: at(1)},
	})
	require.Error(t, err)
	assert.True(t, versio_err.IsKind(err, versio_err.KindRemoteAuth))
}
