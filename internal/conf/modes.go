package conf

import "fmt"

// DetectionMode controls what happens when a detection violates the
// configured strictness. Values are validated at configuration load so the
// rest of the engine can switch on them without a default branch.
type DetectionMode string

const (
	ModeOff    DetectionMode = "off"    // filtering disabled, everything accepted
	ModeWarn   DetectionMode = "warn"   // violations logged, detection still stored
	ModeFilter DetectionMode = "filter" // violations rejected
)

// ParseDetectionMode converts a config string to a DetectionMode.
func ParseDetectionMode(s string) (DetectionMode, error) {
	switch DetectionMode(s) {
	case ModeOff, ModeWarn, ModeFilter:
		return DetectionMode(s), nil
	default:
		return "", fmt.Errorf("invalid detection mode %q, must be off, warn or filter", s)
	}
}

// UnknownSpeciesPolicy controls handling of species absent from the active
// region pack.
type UnknownSpeciesPolicy string

const (
	UnknownSpeciesAllow UnknownSpeciesPolicy = "allow"
	UnknownSpeciesBlock UnknownSpeciesPolicy = "block"
)

// ParseUnknownSpeciesPolicy converts a config string to an UnknownSpeciesPolicy.
func ParseUnknownSpeciesPolicy(s string) (UnknownSpeciesPolicy, error) {
	switch UnknownSpeciesPolicy(s) {
	case UnknownSpeciesAllow, UnknownSpeciesBlock:
		return UnknownSpeciesPolicy(s), nil
	default:
		return "", fmt.Errorf("invalid unknown species policy %q, must be allow or block", s)
	}
}

// validStrictness holds the accepted strictness strings. The ordering
// semantics live with the tier type in the regionpack package; config only
// checks membership.
var validStrictness = map[string]bool{
	"common":   true,
	"uncommon": true,
	"rare":     true,
	"vagrant":  true,
}
