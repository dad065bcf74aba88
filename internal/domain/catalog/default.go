package catalog

// Default returns the shipped catalog. Operators can replace it with a
// JSON file at startup or through the admin bridge; both paths run
// Validate first.
func Default() *Catalog {
	return &Catalog{
		Upgrades: []UpgradeDefinition{
			{
				ID:         "whisker_power",
				Name:       "Whisker Power",
				Category:   CategoryTap,
				BaseCost:   10,
				CostGrowth: 1.15,
				BaseEffect: 1, // +1 LP per tap per level
				MaxLevel:   50,
			},
			{
				ID:         "laser_pointer",
				Name:       "Laser Pointer",
				Category:   CategoryTap,
				BaseCost:   500,
				CostGrowth: 1.2,
				BaseEffect: 5,
				MaxLevel:   25,
			},
			{
				ID:         "auto_groomer",
				Name:       "Auto Groomer",
				Category:   CategoryPassiveIncome,
				BaseCost:   100,
				CostGrowth: 1.15,
				BaseEffect: 25, // +25 LP/hour per level
				MaxLevel:   40,
			},
			{
				ID:         "moon_garden",
				Name:       "Moon Garden",
				Category:   CategoryPassiveIncome,
				BaseCost:   2500,
				CostGrowth: 1.18,
				BaseEffect: 120,
				MaxLevel:   30,
			},
			{
				ID:         "catnip_tea",
				Name:       "Catnip Tea",
				Category:   CategoryEnergyRegen,
				BaseCost:   250,
				CostGrowth: 1.25,
				BaseEffect: 0.05, // +0.05 energy/sec per level
				MaxLevel:   20,
			},
			{
				ID:         "cozy_bed",
				Name:       "Cozy Bed",
				Category:   CategoryEnergyCap,
				BaseCost:   400,
				CostGrowth: 1.3,
				BaseEffect: 50, // +50 max energy per level
				MaxLevel:   10,
			},
			{
				ID:         "bargain_collar",
				Name:       "Bargain Collar",
				Category:   CategoryCostReduction,
				BaseCost:   1000,
				CostGrowth: 1.5,
				BaseEffect: 2.5, // -2.5% upgrade cost per level, global ceiling applies
				MaxLevel:   10,
			},
		},

		Thresholds: []LevelThreshold{
			{Level: 1, LifetimeLP: 0},
			{Level: 2, LifetimeLP: 100},
			{Level: 3, LifetimeLP: 500},
			{Level: 4, LifetimeLP: 2_000},
			{Level: 5, LifetimeLP: 6_000},
			{Level: 6, LifetimeLP: 15_000},
			{Level: 7, LifetimeLP: 40_000},
			{Level: 8, LifetimeLP: 100_000},
			{Level: 9, LifetimeLP: 250_000},
			{Level: 10, LifetimeLP: 600_000},
			{Level: 11, LifetimeLP: 1_500_000},
			{Level: 12, LifetimeLP: 4_000_000},
		},

		Tasks: []TaskDefinition{
			{
				ID:     "first_steps",
				Name:   "First Steps",
				Stat:   StatTaps,
				Target: 10,
				Reward: Reward{Kind: RewardCurrency, Amount: 50},
			},
			{
				ID:     "hundred_taps",
				Name:   "Warm Paws",
				Stat:   StatTaps,
				Target: 100,
				Reward: Reward{Kind: RewardCurrency, Amount: 250},
			},
			{
				ID:     "thousand_taps",
				Name:   "Getting Serious",
				Stat:   StatTaps,
				Target: 1_000,
				Reward: Reward{Kind: RewardEnergy, Amount: 200},
			},
			{
				ID:     "collector",
				Name:   "Collector",
				Stat:   StatUpgradesOwned,
				Target: 5,
				Reward: Reward{Kind: RewardCurrency, Amount: 500},
			},
			{
				ID:     "level_five",
				Name:   "Rising Star",
				Stat:   StatLevel,
				Target: 5,
				Reward: Reward{Kind: RewardUnlock, UnlockKey: "golden_skin"},
			},
			{
				ID:     "millionaire",
				Name:   "Lunar Millionaire",
				Stat:   StatLifetimeLP,
				Target: 1_000_000,
				Reward: Reward{Kind: RewardCurrency, Amount: 50_000},
			},
		},

		Achievements: []AchievementDefinition{
			{
				ID:   "tap_titan",
				Name: "Tap Titan",
				Stat: StatTaps,
				Tiers: []AchievementTier{
					{Target: 100, Reward: Reward{Kind: RewardCurrency, Amount: 100}},
					{Target: 1_000, Reward: Reward{Kind: RewardCurrency, Amount: 1_000}},
					{Target: 10_000, Reward: Reward{Kind: RewardCurrency, Amount: 10_000}},
					{Target: 100_000, Reward: Reward{Kind: RewardCurrency, Amount: 100_000}},
				},
			},
			{
				ID:   "moon_mogul",
				Name: "Moon Mogul",
				Stat: StatLifetimeLP,
				Tiers: []AchievementTier{
					{Target: 1_000, Reward: Reward{Kind: RewardCurrency, Amount: 250}},
					{Target: 50_000, Reward: Reward{Kind: RewardCurrency, Amount: 2_500}},
					{Target: 1_000_000, Reward: Reward{Kind: RewardCurrency, Amount: 25_000}},
				},
			},
			{
				ID:   "upgrade_addict",
				Name: "Upgrade Addict",
				Stat: StatUpgradesOwned,
				Tiers: []AchievementTier{
					{Target: 10, Reward: Reward{Kind: RewardCurrency, Amount: 500}},
					{Target: 25, Reward: Reward{Kind: RewardCurrency, Amount: 2_000}},
					{Target: 50, Reward: Reward{Kind: RewardEnergy, Amount: 300}},
				},
			},
			{
				ID:   "ascendant",
				Name: "Ascendant",
				Stat: StatLevel,
				Tiers: []AchievementTier{
					{Target: 3, Reward: Reward{Kind: RewardCurrency, Amount: 300}},
					{Target: 6, Reward: Reward{Kind: RewardCurrency, Amount: 3_000}},
					{Target: 9, Reward: Reward{Kind: RewardCurrency, Amount: 30_000}},
					{Target: 12, Reward: Reward{Kind: RewardUnlock, UnlockKey: "nebula_trail"}},
				},
			},
		},
	}
}
