package regionpack

import "github.com/birdstation/ebird-engine/internal/errors"

// Tier ranks the regional occurrence frequency of a species within a cell.
// Higher values mean more frequently observed. The integer ordering is part
// of the contract: strictness comparisons and threshold derivation rely on it.
type Tier int

const (
	TierVagrant Tier = iota
	TierRare
	TierUncommon
	TierCommon
)

var tierNames = map[Tier]string{
	TierVagrant:  "vagrant",
	TierRare:     "rare",
	TierUncommon: "uncommon",
	TierCommon:   "common",
}

// String returns the pack-file string form of the tier.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTier converts a tier string from a pack file or configuration.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "vagrant":
		return TierVagrant, nil
	case "rare":
		return TierRare, nil
	case "uncommon":
		return TierUncommon, nil
	case "common":
		return TierCommon, nil
	default:
		return 0, errors.Newf("invalid tier %q, must be common, uncommon, rare or vagrant", s).
			Category(errors.CategoryValidation).
			Component("regionpack").
			Build()
	}
}

// Meets reports whether the tier satisfies a minimum tier threshold.
func (t Tier) Meets(minimum Tier) bool {
	return t >= minimum
}

// RequiredTier derives the minimum tier a species must hold to pass a filter
// of this strictness. Strictness names the rarest tier that is excluded:
// strictness vagrant passes rare and above, strictness uncommon passes only
// common. Strictness common also requires common, the tightest threshold
// the scale can express.
func (t Tier) RequiredTier() Tier {
	if t == TierCommon {
		return TierCommon
	}
	return t + 1
}

// tierNamesAtOrAbove returns the pack-file tier strings at or above the
// threshold, for use in SQL IN clauses.
func tierNamesAtOrAbove(minimum Tier) []string {
	var names []string
	for t := minimum; t <= TierCommon; t++ {
		names = append(names, t.String())
	}
	return names
}
