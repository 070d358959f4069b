package suitejson

import (
	"strings"

	"github.com/coreos/go-semver/semver"
)

// PendingStateSince is the first host version that records an explicit run
// state on pending tests it actually visited.
var PendingStateSince = *semver.New("2.0.0")

// Capabilities describe how the host that produced a tree behaves. They are
// resolved once per run and handed to the Visitor.
type Capabilities struct {
	// PendingHasState is true when the host marks visited pending tests with
	// an explicit state, so a pending test without one was never reached.
	PendingHasState bool
}

// ResolveCapabilities derives Capabilities from a host version string such as
// "2.1.0" or "v1.4.2". Versions that are not valid semver are treated as
// legacy hosts.
func ResolveCapabilities(hostVersion string) Capabilities {
	v, err := semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(hostVersion), "v"))
	if err != nil {
		return Capabilities{}
	}

	return Capabilities{
		PendingHasState: !v.LessThan(PendingStateSince),
	}
}
