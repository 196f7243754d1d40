// pkg/location/pattern.go

package location

import (
	"fmt"
	"regexp"
)

// patternLocate returns the first capturing group of the first match.
func patternLocate(data []byte, pattern string) (span, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return span{}, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	if re.NumSubexp() < 1 {
		return span{}, fmt.Errorf("pattern %q has no capturing group", pattern)
	}
	loc := re.FindSubmatchIndex(data)
	if loc == nil || loc[2] < 0 {
		return span{}, fmt.Errorf("pattern %q does not match", pattern)
	}
	return span{start: loc[2], end: loc[3], value: string(data[loc[2]:loc[3]])}, nil
}
