// pkg/repogate/gate.go
//
// Version-control operations behind four capability levels. Every operation
// declares a minimum level; the gate holds the negotiated effective level
// and refuses calls above it. Dry-run is orthogonal: it forbids writes at
// any level but never restricts reads.

package repogate

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/ProtonMail/go-crypto/openpgp"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/viper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Level is a capability: None < Local < Remote < Smart.
type Level int

const (
	None Level = iota
	Local
	Remote
	Smart
)

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case Local:
		return "local"
	case Remote:
		return "remote"
	case Smart:
		return "smart"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel reads a user-supplied level word; "max" means "as high as
// detection allows".
func ParseLevel(word string) (Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "", "max":
		return Smart, true, nil
	case "none":
		return None, false, nil
	case "local":
		return Local, false, nil
	case "remote":
		return Remote, false, nil
	case "smart":
		return Smart, false, nil
	}
	return None, false, versio_err.ConfigError("unrecognized vcs level %q", word)
}

var githubSSHRE = regexp.MustCompile(`^git@github\.com:([^/]+)/(.+?)(\.git)?$`)
var githubHTTPSRE = regexp.MustCompile(`^https://github\.com/([^/]+)/(.+?)(\.git)?$`)

// Gate is one opened repository at a negotiated level.
type Gate struct {
	repo       *gogit.Repository
	root       string
	level      Level
	dryRun     bool
	branch     string
	remoteName string
	remoteURL  string

	identityName  string
	identityEmail string
	signKey       *openpgp.Entity

	// tags created or moved by this run, for push and for conflict rollback
	createdTags []string
	movedTags   map[string]plumbing.Hash
}

// Open detects capabilities under dir, negotiates against the preferred and
// required levels, and returns a gate at the effective level. An empty
// intersection is a configuration error, reported before any read.
func Open(rc *versio_io.RuntimeContext, dir string, preferred, required Level, dryRun bool) (*Gate, error) {
	g := &Gate{root: dir, level: None, dryRun: dryRun, movedTags: map[string]plumbing.Hash{}}

	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		g.repo = repo
		if wt, err := repo.Worktree(); err == nil {
			g.root = wt.Filesystem.Root()
		}
		g.detect(rc)
	}

	effective := g.level
	if preferred < effective {
		effective = preferred
	}
	if effective < required {
		return nil, versio_err.ConfigError(
			"this operation requires vcs level %s, but only %s is available (preferred %s, detected %s)",
			required, effective, preferred, g.level)
	}
	g.level = effective

	otelzap.Ctx(rc.Ctx).Debug("repository gate opened",
		zap.String("root", g.root),
		zap.String("level", g.level.String()),
		zap.Bool("dry_run", dryRun))
	return g, nil
}

// detect raises the gate's level as far as the repository supports: local on
// a branch, remote with exactly one configured remote, smart when that
// remote is a recognized pull-request host.
func (g *Gate) detect(rc *versio_io.RuntimeContext) {
	head, err := g.repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return
	}
	g.level = Local
	g.branch = head.Name().Short()

	cfg, err := g.repo.Config()
	if err != nil {
		return
	}
	if bc, ok := cfg.Branches[g.branch]; ok && bc.Remote != "" {
		g.remoteName = bc.Remote
	} else if len(cfg.Remotes) == 1 {
		for name := range cfg.Remotes {
			g.remoteName = name
		}
	}
	if g.remoteName == "" {
		return
	}
	rem, ok := cfg.Remotes[g.remoteName]
	if !ok || len(rem.URLs) == 0 {
		g.remoteName = ""
		return
	}
	g.level = Remote
	g.remoteURL = rem.URLs[0]

	if _, _, ok := g.OriginOwnerRepo(); ok {
		g.level = Smart
	}
}

// Level returns the negotiated effective level.
func (g *Gate) Level() Level { return g.level }

// DryRun reports whether writes are forbidden this run.
func (g *Gate) DryRun() bool { return g.dryRun }

// Root returns the repository root on disk.
func (g *Gate) Root() string { return g.root }

// Branch returns the checked-out branch name; empty below local.
func (g *Gate) Branch() string { return g.branch }

// OriginOwnerRepo parses the remote URL into a GitHub owner and repository.
func (g *Gate) OriginOwnerRepo() (string, string, bool) {
	for _, re := range []*regexp.Regexp{githubSSHRE, githubHTTPSRE} {
		if m := re.FindStringSubmatch(g.remoteURL); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

// Token returns the pull-request host credential: the environment wins,
// then the user preferences file.
func Token() string {
	if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		return tok
	}
	return viper.GetString("github_token")
}

func (g *Gate) require(op string, min Level) error {
	if g.level < min {
		return versio_err.ConfigError("%s requires vcs level %s, but the gate is at %s", op, min, g.level)
	}
	return nil
}

func (g *Gate) requireWrite(op string) error {
	if g.dryRun {
		return versio_err.ConfigError("%s is a write, forbidden under dry-run", op)
	}
	return nil
}
