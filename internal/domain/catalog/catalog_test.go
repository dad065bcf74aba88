package catalog

import "testing"

func TestDefaultCatalogValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("shipped catalog must validate: %v", err)
	}
}

func TestValidateRejectsBadDefinitions(t *testing.T) {
	base := func() *Catalog {
		return &Catalog{
			Upgrades: []UpgradeDefinition{
				{ID: "u1", Category: CategoryTap, BaseCost: 10, CostGrowth: 1.15, BaseEffect: 1, MaxLevel: 5},
			},
			Thresholds: []LevelThreshold{
				{Level: 1, LifetimeLP: 0},
				{Level: 2, LifetimeLP: 100},
			},
		}
	}

	cases := []struct {
		name   string
		mutate func(c *Catalog)
	}{
		{"duplicate upgrade id", func(c *Catalog) {
			c.Upgrades = append(c.Upgrades, c.Upgrades[0])
		}},
		{"growth factor at 1", func(c *Catalog) {
			c.Upgrades[0].CostGrowth = 1
		}},
		{"unknown category", func(c *Catalog) {
			c.Upgrades[0].Category = "turbo"
		}},
		{"zero max level", func(c *Catalog) {
			c.Upgrades[0].MaxLevel = 0
		}},
		{"empty threshold table", func(c *Catalog) {
			c.Thresholds = nil
		}},
		{"first threshold not zero", func(c *Catalog) {
			c.Thresholds[0].LifetimeLP = 10
		}},
		{"non-increasing thresholds", func(c *Catalog) {
			c.Thresholds[1].LifetimeLP = 0
		}},
		{"unknown task stat", func(c *Catalog) {
			c.Tasks = []TaskDefinition{{ID: "t1", Stat: "combo", Target: 1,
				Reward: Reward{Kind: RewardCurrency, Amount: 1}}}
		}},
		{"task reward without amount", func(c *Catalog) {
			c.Tasks = []TaskDefinition{{ID: "t1", Stat: StatTaps, Target: 1,
				Reward: Reward{Kind: RewardCurrency}}}
		}},
		{"unlock reward without key", func(c *Catalog) {
			c.Tasks = []TaskDefinition{{ID: "t1", Stat: StatTaps, Target: 1,
				Reward: Reward{Kind: RewardUnlock}}}
		}},
		{"achievement tiers not increasing", func(c *Catalog) {
			c.Achievements = []AchievementDefinition{{ID: "a1", Stat: StatTaps, Tiers: []AchievementTier{
				{Target: 100, Reward: Reward{Kind: RewardCurrency, Amount: 1}},
				{Target: 50, Reward: Reward{Kind: RewardCurrency, Amount: 1}},
			}}}
		}},
		{"achievement without tiers", func(c *Catalog) {
			c.Achievements = []AchievementDefinition{{ID: "a1", Stat: StatTaps}}
		}},
	}

	for _, tc := range cases {
		c := base()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error, got nil", tc.name)
		}
	}
}

func TestHolderSwapRejectsInvalid(t *testing.T) {
	h := NewHolder(Default())

	bad := &Catalog{}
	if err := h.Swap(bad); err == nil {
		t.Fatalf("expected swap of invalid catalog to fail")
	}

	// Active catalog untouched after a failed swap
	if len(h.Current().Upgrades) == 0 {
		t.Errorf("active catalog lost after rejected swap")
	}
}

func TestCategoryBoostable(t *testing.T) {
	if !CategoryTap.Boostable() || !CategoryPassiveIncome.Boostable() || !CategoryEnergyRegen.Boostable() {
		t.Errorf("rate categories must accept boosters")
	}
	if CategoryCostReduction.Boostable() || CategoryEnergyCap.Boostable() {
		t.Errorf("cost reduction and energy cap must not accept boosters")
	}
}
