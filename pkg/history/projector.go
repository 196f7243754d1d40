// pkg/history/projector.go
//
// The historical projector reconstructs the configuration as it was written
// at any ancestor commit, and answers coverage questions against that era's
// projection. It never fails: an absent or malformed historical document
// degrades to "no projects, angular sizes".

package history

import (
	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Projector materializes configurations from commit trees, memoizing per
// commit since replay visits each commit once per plan build anyway.
type Projector struct {
	gate  *repogate.Gate
	cache map[string]*config.Config
}

func NewProjector(gate *repogate.Gate) *Projector {
	return &Projector{gate: gate, cache: map[string]*config.Config{}}
}

// ConfigAt returns the configuration as committed at hash.
func (p *Projector) ConfigAt(rc *versio_io.RuntimeContext, hash string) *config.Config {
	if cfg, ok := p.cache[hash]; ok {
		return cfg
	}

	cfg := config.Default()
	data, found, err := p.gate.ReadFileAt(hash, config.Filename)
	switch {
	case err != nil:
		otelzap.Ctx(rc.Ctx).Debug("historical config unreadable; assuming default",
			zap.String("commit", hash), zap.Error(err))
	case found:
		cfg = config.ParseLenient(data)
	}

	p.cache[hash] = cfg
	return cfg
}

// Covers reports whether a commit covered the project with the given id:
// the project existed in the configuration at that commit, and some changed
// path falls inside it under that era's roots and globs. Identity across
// eras is the numeric id.
func (p *Projector) Covers(rc *versio_io.RuntimeContext, commit repogate.CommitInfo, id uint32) bool {
	cfg := p.ConfigAt(rc, commit.Hash)
	proj := cfg.Get(id)
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
