// Package levels holds the static per-level membership configuration:
// NFT pricing, platform fees and upgrade gates. Pure lookups, no state.
package levels

// MinLevel and MaxLevel bound the membership ladder.
const (
	MinLevel = 1
	MaxLevel = 19
)

// DirectReferralsForLevel2 is the only referral gate the engine enforces:
// upgrading to Level 2 requires this many direct referrals.
const DirectReferralsForLevel2 = 3

// Config describes one membership level.
type Config struct {
	Level            int
	Name             string
	NFTPriceCents    int64 // base NFT price; this is also the layer reward amount
	PlatformFeeCents int64 // activation fee on top of the NFT price, never part of rewards
}

// Pricing: Level 1 costs 130 USDC total (100 NFT + 30 activation fee),
// Level 2 is 150, Level 3 is 200, then +50 per level up to 1000 at 19.
var table = buildTable()

func buildTable() [MaxLevel + 1]Config {
	var t [MaxLevel + 1]Config

	t[1] = Config{Level: 1, Name: "Bronze Member", NFTPriceCents: 100_00, PlatformFeeCents: 30_00}
	t[2] = Config{Level: 2, Name: "Silver Member", NFTPriceCents: 150_00}
	t[3] = Config{Level: 3, Name: "Gold Member", NFTPriceCents: 200_00}
	t[4] = Config{Level: 4, Name: "Platinum Member", NFTPriceCents: 250_00}
	t[5] = Config{Level: 5, Name: "Diamond Member", NFTPriceCents: 300_00}

	for level := 6; level <= 18; level++ {
		t[level] = Config{
			Level:         level,
			Name:          "Elite Member",
			NFTPriceCents: int64(200+(level-3)*50) * 100,
		}
	}

	t[19] = Config{Level: 19, Name: "Master Member", NFTPriceCents: 1000_00}

	return t
}

// Valid reports whether level is a defined membership level.
func Valid(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// Get returns the configuration for a level.
func Get(level int) (Config, bool) {
	if !Valid(level) {
		return Config{}, false
	}
	return table[level], true
}

// RewardAmountCents returns the layer reward paid when a member activates
// the given level. The platform fee is excluded.
func RewardAmountCents(level int) int64 {
	cfg, ok := Get(level)
	if !ok {
		return 0
	}
	return cfg.NFTPriceCents
}

// TotalPriceCents returns what the activating member pays: NFT price plus
// platform fee.
func TotalPriceCents(level int) int64 {
	cfg, ok := Get(level)
	if !ok {
		return 0
	}
	return cfg.NFTPriceCents + cfg.PlatformFeeCents
}

// RequiredDirectReferrals returns the direct-referral gate for upgrading
// to the given level.
func RequiredDirectReferrals(level int) int {
	if level == 2 {
		return DirectReferralsForLevel2
	}
	return 0
}
