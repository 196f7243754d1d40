package plan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/location"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/size"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// currentCoverage judges coverage under the current configuration, which is
// what history degenerates to when the config never changed.
type currentCoverage struct {
	cfg *config.Config
}

func (c currentCoverage) Covers(_ *versio_io.RuntimeContext, commit repogate.CommitInfo, id uint32) bool {
	proj := c.cfg.Get(id)
	if proj == nil {
		return false
	}
	for _, path := range commit.Files {
		if proj.DoesCover(path) {
			return true
		}
	}
	return false
}

func testRC(t *testing.T) *versio_io.RuntimeContext {
	t.Helper()
	return versio_io.NewContext(context.Background(), "test")
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func commit(hash, message string, minute int, files ...string) repogate.CommitInfo {
	summary := message
	for i := 0; i < len(message); i++ {
		if message[i] == '\n' {
			summary = message[:i]
			break
		}
	}
	return repogate.CommitInfo{
		Hash:          hash,
		Message:       message,
		Summary:       summary,
		CommitterTime: time.Date(2025, 6, 1, 10, minute, 0, 0, time.UTC),
		Files:         files,
	}
}

func newBuilder(t *testing.T, dir, doc string, lockTags bool) *Builder {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return &Builder{
		Current:   cfg,
		Projector: currentCoverage{cfg: cfg},
		Store:     location.NewStore(dir, nil),
		LockTags:  lockTags,
	}
}

const twoProjectDoc = `
projects:
  - name: proj_1
    id: 1
    root: "proj_1"
    version: { file: "package.json", json: "version" }
  - name: proj_2
    id: 2
    root: "proj_2"
    version: { file: "Cargo.toml", toml: "package.version" }
sizes:
  use_angular: true
  fail: ["*"]
`

func twoProjectDir(t *testing.T) string {
	dir := t.TempDir()
	write(t, dir, "proj_1/package.json", "{\n  \"version\": \"0.0.1\"\n}\n")
	write(t, dir, "proj_2/Cargo.toml", "[package]\nversion = \"0.0.1\"\n")
	return dir
}

func TestMonorepoTwoProjectsTwoCommits(t *testing.T) {
	dir := twoProjectDir(t)
	b := newBuilder(t, dir, twoProjectDoc, false)

	groups := SingletonGroups([]repogate.CommitInfo{
		commit("aaa1", "feat: add new feature to proj_1", 1, "proj_1/file.txt"),
		commit("aaa2", "fix: bug fix proj_2", 2, "proj_2/file.txt"),
	})

	built, err := b.Build(testRC(t), groups)
	require.NoError(t, err)
	require.Len(t, built.Projects, 2)

	p1 := built.Get(1)
	require.NotNil(t, p1)
	assert.Equal(t, "0.0.1", p1.Current)
	assert.Equal(t, "0.1.0", p1.Target)
	assert.Equal(t, size.Minor, p1.Size)

	p2 := built.Get(2)
	require.NotNil(t, p2)
	assert.Equal(t, "0.0.2", p2.Target)
	assert.Equal(t, size.Patch, p2.Size)
}

func TestDependencyMatch(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "lib/lib.json", "{\"version\": \"1.2.3\"}\n")
	write(t, dir, "app/app.json", "{\"version\": \"0.4.0\"}\n")
	write(t, dir, "app/go.mod", "require lib v1.2.3\n")

	const doc = `
projects:
  - name: lib
    id: 1
    root: "lib"
    version: { file: "lib.json", json: "version" }
  - name: app
    id: 2
    root: "app"
    version: { file: "app.json", json: "version" }
    depends:
      1:
        size: match
        files:
          - file: "app/go.mod"
            pattern: "lib v(\\d+\\.\\d+\\.\\d+)"
sizes:
  use_angular: true
  fail: ["*"]
`
	b := newBuilder(t, dir, doc, false)
	groups := SingletonGroups([]repogate.CommitInfo{
		commit("bbb1", "feat!: break lib API", 1, "lib/x.go"),
	})

	built, err := b.Build(testRC(t), groups)
	require.NoError(t, err)

	lib := built.Get(1)
	require.NotNil(t, lib)
	assert.Equal(t, "2.0.0", lib.Target)

	app := built.Get(2)
	require.NotNil(t, app)
	assert.Equal(t, "0.4.0", app.Current)
	assert.Equal(t, "2.0.0", app.Target)
	assert.Equal(t, "2.0.0", app.DependencyBumps[1])
}

func TestDependencyExactSize(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "lib/lib.json", "{\"version\": \"1.2.3\"}\n")
	write(t, dir, "app/app.json", "{\"version\": \"0.4.0\"}\n")

	const doc = `
projects:
  - name: lib
    id: 1
    root: "lib"
    version: { file: "lib.json", json: "version" }
  - name: app
    id: 2
    root: "app"
    version: { file: "app.json", json: "version" }
    depends:
      1: { size: patch }
sizes:
  use_angular: true
  fail: ["*"]
`
	b := newBuilder(t, dir, doc, false)
	groups := SingletonGroups([]repogate.CommitInfo{
		commit("ccc1", "feat!: break lib API", 1, "lib/x.go"),
	})

	built, err := b.Build(testRC(t), groups)
	require.NoError(t, err)

	app := built.Get(2)
	require.NotNil(t, app)
	assert.Equal(t, "0.4.1", app.Target)
}

func TestChainedPropagation(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a/v.json", "{\"version\": \"1.0.0\"}\n")
	write(t, dir, "b/v.json", "{\"version\": \"2.0.0\"}\n")
	write(t, dir, "c/v.json", "{\"version\": \"3.0.0\"}\n")

	const doc = `
projects:
  - name: a
    id: 1
    root: "a"
    version: { file: "v.json", json: "version" }
  - name: b
    id: 2
    root: "b"
    version: { file: "v.json", json: "version" }
    depends:
      1: { size: minor }
  - name: c
    id: 3
    root: "c"
    version: { file: "v.json", json: "version" }
    depends:
      2: { size: patch }
sizes:
  use_angular: true
  fail: ["*"]
`
	b := newBuilder(t, dir, doc, false)
	groups := SingletonGroups([]repogate.CommitInfo{
		commit("ddd1", "fix: patch a", 1, "a/file.go"),
	})

	built, err := b.Build(testRC(t), groups)
	require.NoError(t, err)

	assert.Equal(t, "1.0.1", built.Get(1).Target)
	assert.Equal(t, "2.1.0", built.Get(2).Target)
	assert.Equal(t, "3.0.1", built.Get(3).Target)
}

func TestGroupAggregationTakesMax(t *testing.T) {
	dir := twoProjectDir(t)
	b := newBuilder(t, dir, twoProjectDoc, false)

	// One group holding fix + feat + feat!; only the first covers proj_1.
	group := &Group{Number: 12, Title: "remove bozo", Commits: []repogate.CommitInfo{
		commit("e1", "fix: small", 1, "proj_1/a.txt"),
		commit("e2", "feat: bigger", 2, "proj_2/b.txt"),
		commit("e3", "feat!: biggest", 3, "proj_2/c.txt"),
	}}

	built, err := b.Build(testRC(t), []*Group{group})
	require.NoError(t, err)

	p1 := built.Get(1)
	require.NotNil(t, p1)
	assert.Equal(t, size.Patch, p1.Size)
	assert.Equal(t, "0.0.2", p1.Target)

	p2 := built.Get(2)
	require.NotNil(t, p2)
	assert.Equal(t, size.Major, p2.Size)
	assert.Equal(t, "1.0.0", p2.Target)
}

func TestFailSizedCommit(t *testing.T) {
	dir := twoProjectDir(t)
	const doc = `
projects:
  - name: proj_1
    id: 1
    root: "proj_1"
    version: { file: "package.json", json: "version" }
sizes:
  use_angular: true
  fail: ["-"]
  patch: ["*"]
`
	b := newBuilder(t, dir, doc, false)
	groups := SingletonGroups([]repogate.CommitInfo{
		commit("fff1", "random stuff", 1, "proj_1/file.txt"),
	})

	_, err := b.Build(testRC(t), groups)
	require.Error(t, err)
	assert.True(t, versio_err.IsKind(err, versio_err.KindPolicyFail))
	assert.Contains(t, err.Error(), "random stuff")
}

func TestTagOnlyFlag(t *testing.T) {
	dir := twoProjectDir(t)
	b := newBuilder(t, dir, twoProjectDoc, false)

	groups := SingletonGroups([]repogate.CommitInfo{
		commit("g1", "docs: clarify readme", 1, "proj_1/README.md"),
	})

	built, err := b.Build(testRC(t), groups)
	require.NoError(t, err)

	p1 := built.Get(1)
	require.NotNil(t, p1)
	assert.True(t, p1.TagOnly)
	assert.Equal(t, p1.Current, p1.Target)
	assert.Nil(t, built.Get(2))
}

func TestLockTagsClearsTagOnly(t *testing.T) {
	dir := twoProjectDir(t)
	b := newBuilder(t, dir, twoProjectDoc, true)

	groups := SingletonGroups([]repogate.CommitInfo{
		commit("h1", "docs: clarify readme", 1, "proj_1/README.md"),
	})

	built, err := b.Build(testRC(t), groups)
	require.NoError(t, err)
	assert.True(t, built.Empty())
}

func TestSubdivisionGuard(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "kit/kit.json", "{\"version\": \"1.4.0\"}\n")

	const doc = `
projects:
  - name: kit
    id: 1
    root: "kit"
    version: { file: "kit.json", json: "version" }
    subs: { dirs: "v<>", tops: [0, 1] }
sizes:
  use_angular: true
  fail: ["*"]
`
	b := newBuilder(t, dir, doc, false)
	groups := SingletonGroups([]repogate.CommitInfo{
		commit("i1", "feat!: break the kit", 1, "kit/core.go"),
	})

	built, err := b.Build(testRC(t), groups)
	require.NoError(t, err)
	require.Len(t, built.Subdivisions, 1)
	assert.Equal(t, uint64(2), built.Subdivisions[0].Major)
	assert.Contains(t, built.Subdivisions[0].Dir, "v2")

	// With the directory in place the guard passes.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "kit", "v2"), 0755))
	built, err = b.Build(testRC(t), groups)
	require.NoError(t, err)
	assert.Empty(t, built.Subdivisions)
}

func TestNoCoverageNoEntry(t *testing.T) {
	dir := twoProjectDir(t)
	b := newBuilder(t, dir, twoProjectDoc, false)

	groups := SingletonGroups([]repogate.CommitInfo{
		commit("j1", "feat: elsewhere", 1, "docs/guide.md"),
	})

	built, err := b.Build(testRC(t), groups)
	require.NoError(t, err)
	assert.True(t, built.Empty())
}

func TestTargetNeverBelowCurrent(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "lib/lib.json", "{\"version\": \"0.9.0\"}\n")
	write(t, dir, "app/app.json", "{\"version\": \"5.0.0\"}\n")

	// app already sits past lib's new target; match must not regress it.
	const doc = `
projects:
  - name: lib
    id: 1
    root: "lib"
    version: { file: "lib.json", json: "version" }
  - name: app
    id: 2
    root: "app"
    version: { file: "app.json", json: "version" }
    depends:
      1: { size: match }
sizes:
  use_angular: true
  fail: ["*"]
`
	b := newBuilder(t, dir, doc, false)
	groups := SingletonGroups([]repogate.CommitInfo{
		commit("k1", "feat: grow lib", 1, "lib/x.go"),
	})

	built, err := b.Build(testRC(t), groups)
	require.NoError(t, err)
	assert.Equal(t, "0.10.0", built.Get(1).Target)
	assert.Nil(t, built.Get(2), "a regressed match must not produce an entry")
}

func TestPlanDeterminism(t *testing.T) {
	dir := twoProjectDir(t)
	groups := SingletonGroups([]repogate.CommitInfo{
		commit("l1", "feat: add new feature to proj_1", 1, "proj_1/file.txt"),
		commit("l2", "fix: bug fix proj_2", 2, "proj_2/file.txt"),
	})

	b1 := newBuilder(t, dir, twoProjectDoc, false)
	first, err := b1.Build(testRC(t), groups)
	require.NoError(t, err)

	b2 := newBuilder(t, dir, twoProjectDoc, false)
	second, err := b2.Build(testRC(t), groups)
	require.NoError(t, err)

	assert.Equal(t, first.Digest(), second.Digest())
	assert.NotEmpty(t, first.Digest())
}
