// Package update compares CLI versions.
package update

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// Status is the result of comparing the running version with another one
type Status struct {
	Current *version.Version
	Latest  *version.Version
}

// Outdated reports whether the latest version is newer
func (s Status) Outdated() bool {
	return s.Current.LessThan(s.Latest)
}

// Check compares the current version with latest
func Check(current, latest string) (Status, error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return Status{}, fmt.Errorf("invalid version format %q: %w", current, err)
	}
	lat, err := version.NewVersion(latest)
	if err != nil {
		return Status{}, fmt.Errorf("invalid latest version format %q: %w", latest, err)
	}
	return Status{Current: cur, Latest: lat}, nil
}
