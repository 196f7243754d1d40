package config

import (
	"testing"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/conventional"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/size"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const monorepoDoc = `
options:
  prev_tag: "versio-prev"

projects:
  - name: proj_1
    id: 1
    root: "proj_1"
    version:
      file: "package.json"
      json: "version"
    tag_prefix: "one"

  - name: proj_2
    id: 2
    root: "proj_2"
    version:
      file: "Cargo.toml"
      toml: "package.version"
    depends:
      1:
        size: match
        files:
          - file: "go.mod"
            pattern: "proj_1 v(\\d+\\.\\d+\\.\\d+)"
            value: "proj_1 v{v}"

sizes:
  use_angular: true
  fail: ["*"]
`

func TestParseMonorepoDoc(t *testing.T) {
	cfg, err := Parse([]byte(monorepoDoc))
	require.NoError(t, err)
	require.Len(t, cfg.Projects, 2)

	p1 := cfg.Get(1)
	require.NotNil(t, p1)
	assert.Equal(t, "proj_1", p1.Name)
	assert.Equal(t, "proj_1", p1.Root)
	assert.Equal(t, []string{"**/*"}, p1.Includes)
	assert.Equal(t, "-", p1.TagPrefixSeparator)
	assert.Equal(t, FormatJSON, p1.Version.Format)
	require.Len(t, p1.Version.Selector.Atoms, 1)
	assert.Equal(t, "version", p1.Version.Selector.Atoms[0].Key)

	p2 := cfg.Get(2)
	require.NotNil(t, p2)
	assert.Equal(t, FormatTOML, p2.Version.Format)
	assert.Equal(t, "package.version", p2.Version.Selector.String())

	dep := p2.Depends[1]
	require.NotNil(t, dep)
	assert.True(t, dep.Size.Match)
	require.Len(t, dep.Files, 1)
	assert.Equal(t, "go.mod", dep.Files[0].File)
	assert.Equal(t, FormatPattern, dep.Files[0].Format)
	assert.Equal(t, "proj_1 v{v}", dep.Files[0].Value)

	assert.Equal(t, []uint32{2}, cfg.Dependents(1))
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "versio-prev", cfg.Options.PrevTag)
	assert.Empty(t, cfg.Projects)
	assert.Equal(t, size.Fail, cfg.SizeMap()["*"])
	assert.Equal(t, size.Minor, cfg.SizeMap()["feat"])
	assert.NotEmpty(t, cfg.Commit.Author)
	assert.NotEmpty(t, cfg.Commit.Message)
}

func TestUnknownKeysRejected(t *testing.T) {
	_, err := Parse([]byte("projects: []\nbogus: true\n"))
	require.Error(t, err)
	assert.True(t, versio_err.IsKind(err, versio_err.KindConfig))
}

func TestDuplicateID(t *testing.T) {
	doc := `
projects:
  - { name: a, id: 1, version: { file: "a.json", json: "version" } }
  - { name: b, id: 1, version: { file: "b.json", json: "version" } }
sizes: { use_angular: true, fail: ["*"] }
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicated")
}

func TestDuplicateTagPrefix(t *testing.T) {
	doc := `
projects:
  - { name: a, id: 1, tag_prefix: app, version: { file: "a.json", json: "version" } }
  - { name: b, id: 2, tag_prefix: app, version: { file: "b.json", json: "version" } }
sizes: { use_angular: true, fail: ["*"] }
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag_prefix")
}

func TestEmptyTagPrefixesMayRepeat(t *testing.T) {
	doc := `
projects:
  - { name: a, id: 1, tag_prefix: "", version: { tags: { default: "0.0.0" } } }
  - { name: b, id: 2, tag_prefix: "app", version: { file: "b.json", json: "version" } }
sizes: { use_angular: true, fail: ["*"] }
`
	_, err := Parse([]byte(doc))
	require.NoError(t, err)
}

func TestTagsVersionRequiresPrefixAndDefault(t *testing.T) {
	doc := `
projects:
  - { name: a, id: 1, version: { tags: { default: "0.0.0" } } }
sizes: { use_angular: true, fail: ["*"] }
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag_prefix")

	doc = `
projects:
  - { name: a, id: 1, tag_prefix: app, version: { tags: {} } }
sizes: { use_angular: true, fail: ["*"] }
`
	_, err = Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default")
}

func TestSubsRequiresPlaceholder(t *testing.T) {
	doc := `
projects:
  - name: a
    id: 1
    version: { file: "a.json", json: "version" }
    subs: { dirs: "major" }
sizes: { use_angular: true, fail: ["*"] }
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<>")
}

func TestSubsDefaults(t *testing.T) {
	doc := `
projects:
  - name: a
    id: 1
    version: { file: "a.json", json: "version" }
    subs: {}
sizes: { use_angular: true, fail: ["*"] }
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	subs := cfg.Get(1).Subs
	assert.Equal(t, "v<>", subs.Dirs)
	assert.Equal(t, []uint32{0, 1}, subs.Tops)
	assert.Equal(t, "v2", subs.Dir(2))
	assert.True(t, subs.IsTop(1))
	assert.False(t, subs.IsTop(2))
}

func TestSizesRequireCatchAll(t *testing.T) {
	doc := `
projects: []
sizes:
  major: ["break"]
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "*")
}

func TestDependsCycleRejected(t *testing.T) {
	doc := `
projects:
  - { name: a, id: 1, depends: { 2: { size: minor } }, version: { file: "a.json", json: "version" } }
  - { name: b, id: 2, depends: { 1: { size: minor } }, version: { file: "b.json", json: "version" } }
sizes: { use_angular: true, fail: ["*"] }
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestDependsUnknownID(t *testing.T) {
	doc := `
projects:
  - { name: a, id: 1, depends: { 9: { size: minor } }, version: { file: "a.json", json: "version" } }
sizes: { use_angular: true, fail: ["*"] }
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown id")
}

func TestDependsDefaultSizeIsMatch(t *testing.T) {
	doc := `
projects:
  - { name: a, id: 1, version: { file: "a.json", json: "version" } }
  - { name: b, id: 2, depends: { 1: {} }, version: { file: "b.json", json: "version" } }
sizes: { use_angular: true, fail: ["*"] }
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.True(t, cfg.Get(2).Depends[1].Size.Match)
}

func TestSelectorForms(t *testing.T) {
	t.Run("dotted_numeric_is_ambiguous", func(t *testing.T) {
		sel, err := ParseDottedSelector("deps.0.version")
		require.NoError(t, err)
		require.Len(t, sel.Atoms, 3)
		assert.False(t, sel.Atoms[0].Ambiguous)
		assert.True(t, sel.Atoms[1].Ambiguous)
		assert.Equal(t, 0, sel.Atoms[1].Index)
		assert.Equal(t, "0", sel.Atoms[1].Key)
	})

	t.Run("list_form_disambiguates", func(t *testing.T) {
		doc := `
projects:
  - name: a
    id: 1
    version:
      file: "a.yaml"
      yaml: ["deps", 0, "ver.sion"]
sizes: { use_angular: true, fail: ["*"] }
`
		cfg, err := Parse([]byte(doc))
		require.NoError(t, err)
		atoms := cfg.Get(1).Version.Selector.Atoms
		require.Len(t, atoms, 3)
		assert.Equal(t, "deps", atoms[0].Key)
		assert.True(t, atoms[1].IsIndex)
		assert.False(t, atoms[1].Ambiguous)
		assert.Equal(t, "ver.sion", atoms[2].Key)
	})
}

func TestLocationShape(t *testing.T) {
	for name, doc := range map[string]string{
		"two_selectors": `
projects:
  - { name: a, id: 1, version: { file: "a.json", json: "version", toml: "v" } }
sizes: { use_angular: true, fail: ["*"] }
`,
		"get_without_set": `
projects:
  - { name: a, id: 1, version: { get: "cat VERSION" } }
sizes: { use_angular: true, fail: ["*"] }
`,
		"file_without_selector": `
projects:
  - { name: a, id: 1, version: { file: "a.json" } }
sizes: { use_angular: true, fail: ["*"] }
`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestDoesCover(t *testing.T) {
	p := &Project{Name: "p", ID: 1, Root: "proj_1", Includes: []string{"**/*"}, Excludes: []string{"docs/**"}}
	p.applyDefaults()

	assert.True(t, p.DoesCover("proj_1/file.txt"))
	assert.True(t, p.DoesCover("proj_1/src/deep/file.go"))
	assert.False(t, p.DoesCover("proj_2/file.txt"))
	assert.False(t, p.DoesCover("proj_1/docs/readme.md"))
	assert.False(t, p.DoesCover("proj_10/file.txt"))
}

func TestDoesCoverRootDot(t *testing.T) {
	p := &Project{Name: "p", ID: 1, Includes: []string{"src/**"}}
	p.applyDefaults()

	assert.True(t, p.DoesCover("src/main.go"))
	assert.False(t, p.DoesCover("other/main.go"))
}

func TestFullVersionTag(t *testing.T) {
	pref := "lib"
	p := &Project{TagPrefix: &pref, TagPrefixSeparator: "-"}
	tag, ok := p.FullVersionTag("1.2.3")
	require.True(t, ok)
	assert.Equal(t, "lib-v1.2.3", tag)

	empty := ""
	p = &Project{TagPrefix: &empty, TagPrefixSeparator: "-"}
	tag, ok = p.FullVersionTag("1.2.3")
	require.True(t, ok)
	assert.Equal(t, "v1.2.3", tag)

	p = &Project{}
	_, ok = p.FullVersionTag("1.2.3")
	assert.False(t, ok)
}

func TestLabels(t *testing.T) {
	doc := `
projects:
  - { name: a, id: 1, labels: api, version: { file: "a.json", json: "version" } }
  - { name: b, id: 2, labels: [api, cli], version: { file: "b.json", json: "version" } }
sizes: { use_angular: true, fail: ["*"] }
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.True(t, cfg.Get(1).HasLabel("api"))
	assert.True(t, cfg.Get(2).HasLabel("cli"))
	assert.False(t, cfg.Get(1).HasLabel("cli"))
}

func TestSizeMapResolve(t *testing.T) {
	cfg, err := Parse([]byte(monorepoDoc))
	require.NoError(t, err)
	m := cfg.SizeMap()

	assert.Equal(t, size.Minor, m.Resolve(conventional.Parse("feat: shiny")))
	assert.Equal(t, size.Patch, m.Resolve(conventional.Parse("fix: oops")))
	assert.Equal(t, size.Major, m.Resolve(conventional.Parse("feat!: breaking")))
	assert.Equal(t, size.None, m.Resolve(conventional.Parse("docs: readme")))
	assert.Equal(t, size.Fail, m.Resolve(conventional.Parse("surprise: unknown type")))
}

func TestSizeMapDashAndOverride(t *testing.T) {
	doc := `
projects: []
sizes:
  use_angular: true
  fail: ["-"]
  patch: ["*"]
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	m := cfg.SizeMap()

	assert.Equal(t, size.Fail, m.Resolve(conventional.Parse("random stuff")))
	assert.Equal(t, size.Patch, m.Resolve(conventional.Parse("surprise: unknown type")))
	assert.Equal(t, size.Minor, m.Resolve(conventional.Parse("feat: angular entry survives")))
}

func TestAngularOverridable(t *testing.T) {
	doc := `
projects: []
sizes:
  use_angular: true
  major: ["feat"]
  fail: ["*"]
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, size.Minor, AngularSizes()["feat"])
	assert.Equal(t, size.Major, cfg.SizeMap()["feat"])
}

func TestParseLenient(t *testing.T) {
	cfg := ParseLenient([]byte("this is: [not, valid"))
	assert.Empty(t, cfg.Projects)
	assert.Equal(t, size.Fail, cfg.SizeMap()["*"])
}
