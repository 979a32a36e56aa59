package update

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// ParseVersion parses a dot-separated version such as "2.0.0.0".
// Any number of numeric segments is accepted.
func ParseVersion(s string) (*goversion.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version string")
	}
	v, err := goversion.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}

// Compare compares two version strings segment by segment.
// Missing trailing segments count as zero, so "1.0" equals "1.0.0.0".
// Returns -1, 0 or 1.
func Compare(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// NeedsUpdate reports whether remote should replace local. An empty local
// version means nothing managed is installed yet, which always needs an
// update. A local version that cannot be parsed is treated the same way.
// An unparseable remote version never triggers an update.
func NeedsUpdate(remote, local string) bool {
	rv, err := ParseVersion(remote)
	if err != nil {
		return false
	}
	if strings.TrimSpace(local) == "" {
		return true
	}
	lv, err := ParseVersion(local)
	if err != nil {
		return true
	}
	return rv.GreaterThan(lv)
}
