// pkg/repogate/sign.go

package repogate

import (
	"os"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/ProtonMail/go-crypto/openpgp"
)

// LoadSigningKey reads an armored private key and arms the gate so that
// subsequent commits and annotated tags are signed. The key path comes
// from the environment; a passphrase-protected key must be decrypted by
// the user's agent first.
func (g *Gate) LoadSigningKey(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return versio_err.ConfigErrorWrap(err, "can't open signing key %s", path)
	}
	defer file.Close()

	ring, err := openpgp.ReadArmoredKeyRing(file)
	if err != nil {
		return versio_err.ConfigErrorWrap(err, "can't parse signing key %s", path)
	}
	if len(ring) == 0 || ring[0].PrivateKey == nil {
		return versio_err.ConfigError("signing key %s holds no private key", path)
	}
	if ring[0].PrivateKey.Encrypted {
		return versio_err.ConfigError("signing key %s is passphrase-protected; decrypt it for versio first", path)
	}

	g.signKey = ring[0]
	return nil
}
