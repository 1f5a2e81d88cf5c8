package contest

import "fmt"

// Profile names the two deployment variants of the contest contract. The
// variants diverged in the source deployments on four axes, so they are kept
// as explicit configuration rather than silently merged.
const (
	ProfileArcade = "arcade"
	ProfileLeague = "league"
)

// ProfileConfig controls the variant-specific behaviour of the engine.
type ProfileConfig struct {
	// Name is the profile identifier, used for logging and config validation.
	Name string
	// AdminFeeBps is the flat admin cut taken from the prize pool before the
	// tier split. Zero disables the cut.
	AdminFeeBps uint32
	// AllowEarlyEnd permits the admin to settle a round before its deadline.
	AllowEarlyEnd bool
	// MutableEntryFee permits the admin to update the entry fee mid-round.
	MutableEntryFee bool
	// CombinedPlay enables the single-call pay-and-submit entry point.
	CombinedPlay bool
	// TierBps is the basis-point share of the distributable pool per rank.
	TierBps []uint32
}

// ArcadeProfile returns the default variant: a 10% admin fee ahead of the
// 50/30/20 split, early settlement allowed, entry fee fixed per round, and
// pay/submit as two strictly alternating calls.
func ArcadeProfile() ProfileConfig {
	return ProfileConfig{
		Name:          ProfileArcade,
		AdminFeeBps:   1_000,
		AllowEarlyEnd: true,
		TierBps:       []uint32{5_000, 3_000, 2_000},
	}
}

// LeagueProfile returns the stricter variant: no admin fee, settlement only
// after the deadline, an admin-updatable entry fee, and the combined
// pay-and-play call enabled.
func LeagueProfile() ProfileConfig {
	return ProfileConfig{
		Name:            ProfileLeague,
		AllowEarlyEnd:   false,
		MutableEntryFee: true,
		CombinedPlay:    true,
		TierBps:         []uint32{5_000, 3_000, 2_000},
	}
}

// ProfileByName resolves a configured profile name to its preset.
func ProfileByName(name string) (ProfileConfig, error) {
	switch name {
	case ProfileArcade, "":
		return ArcadeProfile(), nil
	case ProfileLeague:
		return LeagueProfile(), nil
	default:
		return ProfileConfig{}, fmt.Errorf("contest: unknown profile %q", name)
	}
}
