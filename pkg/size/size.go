// pkg/size/size.go
//
// The ordered size lattice and semver arithmetic. Sizes only ever increase
// during a plan build, which is what makes dependency propagation terminate.

package size

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// versionRE accepts exactly MAJOR.MINOR.PATCH; go-version alone is too
// lenient (it pads missing segments and allows prerelease suffixes).
var versionRE = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Size is one member of the ordered lattice none < patch < minor < major < fail.
type Size int

const (
	None Size = iota
	Patch
	Minor
	Major
	Fail
)

func (s Size) String() string {
	switch s {
	case None:
		return "none"
	case Patch:
		return "patch"
	case Minor:
		return "minor"
	case Major:
		return "major"
	case Fail:
		return "fail"
	}
	return fmt.Sprintf("size(%d)", int(s))
}

// Parse converts a configured size word into a Size.
func Parse(v string) (Size, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none":
		return None, nil
	case "patch":
		return Patch, nil
	case "minor":
		return Minor, nil
	case "major":
		return Major, nil
	case "fail":
		return Fail, nil
	}
	return None, fmt.Errorf("unrecognized size %q", v)
}

// Max returns the larger of two sizes under the lattice order.
func Max(a, b Size) Size {
	if a > b {
		return a
	}
	return b
}

// Parts splits a MAJOR.MINOR.PATCH string into its three numbers.
func Parts(v string) ([3]uint64, error) {
	var parts [3]uint64
	m := versionRE.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return parts, fmt.Errorf("version %q is not MAJOR.MINOR.PATCH", v)
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return parts, fmt.Errorf("malformed version %q: %w", v, err)
		}
		parts[i] = n
	}
	return parts, nil
}

// Bump advances a version by this size. Output is canonical, no leading
// zeros, always three segments.
func (s Size) Bump(v string) (string, error) {
	p, err := Parts(v)
	if err != nil {
		return "", err
	}
	switch s {
	case Major:
		return fmt.Sprintf("%d.0.0", p[0]+1), nil
	case Minor:
		return fmt.Sprintf("%d.%d.0", p[0], p[1]+1), nil
	case Patch:
		return fmt.Sprintf("%d.%d.%d", p[0], p[1], p[2]+1), nil
	case None:
		return fmt.Sprintf("%d.%d.%d", p[0], p[1], p[2]), nil
	}
	return "", fmt.Errorf("size %s can't bump a version", s)
}

// Compare orders two version strings under semver: -1, 0, or 1.
func Compare(a, b string) (int, error) {
	va, err := goversion.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("malformed version %q: %w", a, err)
	}
	vb, err := goversion.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("malformed version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// IsVersion reports whether v parses as a plain MAJOR.MINOR.PATCH string.
func IsVersion(v string) bool {
	_, err := Parts(v)
	return err == nil
}
