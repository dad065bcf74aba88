package rules

import (
	"testing"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Upgrades: []catalog.UpgradeDefinition{
			{ID: "tap_1", Category: catalog.CategoryTap, BaseCost: 100, CostGrowth: 1.15, BaseEffect: 1, MaxLevel: 50},
			{ID: "tap_2", Category: catalog.CategoryTap, BaseCost: 500, CostGrowth: 1.2, BaseEffect: 5, MaxLevel: 20},
			{ID: "passive_1", Category: catalog.CategoryPassiveIncome, BaseCost: 100, CostGrowth: 1.15, BaseEffect: 25, MaxLevel: 40},
			{ID: "regen_1", Category: catalog.CategoryEnergyRegen, BaseCost: 250, CostGrowth: 1.25, BaseEffect: 0.05, MaxLevel: 20},
			{ID: "cap_1", Category: catalog.CategoryEnergyCap, BaseCost: 400, CostGrowth: 1.3, BaseEffect: 50, MaxLevel: 10},
			{ID: "discount_1", Category: catalog.CategoryCostReduction, BaseCost: 1000, CostGrowth: 1.5, BaseEffect: 2.5, MaxLevel: 10},
		},
		Thresholds: []catalog.LevelThreshold{
			{Level: 1, LifetimeLP: 0},
			{Level: 2, LifetimeLP: 100},
			{Level: 3, LifetimeLP: 500},
			{Level: 4, LifetimeLP: 2000},
		},
	}
}

func TestUpgradeCostCurve(t *testing.T) {
	// Setup
	def := catalog.UpgradeDefinition{BaseCost: 100, CostGrowth: 1.15}

	// Act + Assert: floor(100 * 1.15^3) = floor(152.0875) = 152
	if got := UpgradeCost(def, 3); got != 152 {
		t.Errorf("expected cost 152 at level 3, got %v", got)
	}

	// Level 0 pays the base cost exactly
	if got := UpgradeCost(def, 0); got != 100 {
		t.Errorf("expected base cost 100 at level 0, got %v", got)
	}
}

func TestDiscountedCost(t *testing.T) {
	// 20% off 152: floor(152 * 0.8) = floor(121.6) = 121
	if got := DiscountedCost(152, 20); got != 121 {
		t.Errorf("expected discounted cost 121, got %v", got)
	}

	// Never below 1 LP
	if got := DiscountedCost(1, 50); got != 1 {
		t.Errorf("expected floor price 1, got %v", got)
	}

	// Zero discount leaves the cost untouched
	if got := DiscountedCost(152, 0); got != 152 {
		t.Errorf("expected undiscounted 152, got %v", got)
	}
}

func TestDiscountCeiling(t *testing.T) {
	// Setup: 8 levels of 2.5% would stack to 20%, 30 levels would breach the cap
	c := testCatalog()
	now := time.Now()
	p := player.New("P1", 500, now)
	p.Upgrades["discount_1"] = 8

	if got := DiscountPct(p, c, 50); got != 20 {
		t.Errorf("expected 20%% discount, got %v", got)
	}

	// Act: push past the ceiling
	p.Upgrades["discount_1"] = 30

	// Assert: capped at the ceiling
	if got := DiscountPct(p, c, 50); got != 50 {
		t.Errorf("expected discount ceiling 50%%, got %v", got)
	}
}

func TestTapValueStacksUpgradesAndBooster(t *testing.T) {
	// Setup
	c := testCatalog()
	now := time.Now()
	p := player.New("P1", 500, now)
	p.Upgrades["tap_1"] = 3 // +3
	p.Upgrades["tap_2"] = 2 // +10

	// base 1 + 13 = 14
	if got := TapValue(1, p, c, now); got != 14 {
		t.Errorf("expected tap value 14, got %v", got)
	}

	// Act: active 2x tap booster
	p.SetBooster(catalog.CategoryTap, player.Booster{Multiplier: 2, ExpiresAt: now.Add(time.Minute)})

	// Assert
	if got := TapValue(1, p, c, now); got != 28 {
		t.Errorf("expected boosted tap value 28, got %v", got)
	}

	// Expired booster contributes nothing
	if got := TapValue(1, p, c, now.Add(2*time.Minute)); got != 14 {
		t.Errorf("expected expired booster ignored, got %v", got)
	}
}

func TestPassiveRateVIP(t *testing.T) {
	// Setup: base 50, +50 from two passive levels
	c := testCatalog()
	now := time.Now()
	p := player.New("P1", 500, now)
	p.Upgrades["passive_1"] = 2

	if got := PassivePerHour(50, 1.5, p, c, now); got != 100 {
		t.Errorf("expected 100 LP/h without VIP, got %v", got)
	}

	// Act: grant VIP
	p.VIPUntil = now.Add(time.Hour)

	// Assert: 100 * 1.5
	if got := PassivePerHour(50, 1.5, p, c, now); got != 150 {
		t.Errorf("expected 150 LP/h with VIP, got %v", got)
	}
}

func TestMaxEnergyFromCapUpgrades(t *testing.T) {
	c := testCatalog()
	p := player.New("P1", 500, time.Now())
	p.Upgrades["cap_1"] = 4

	if got := MaxEnergy(500, p, c); got != 700 {
		t.Errorf("expected max energy 700, got %v", got)
	}
}

func TestLevelForBoundaryInclusive(t *testing.T) {
	thresholds := testCatalog().Thresholds

	cases := []struct {
		lifetime float64
		want     int
	}{
		{0, 1},
		{99, 1},
		{100, 2}, // exactly on the boundary grants the level
		{499, 2},
		{500, 3},
		{2000, 4},
		{1_000_000, 4}, // beyond the table stays at the top
	}

	for _, tc := range cases {
		if got := LevelFor(tc.lifetime, thresholds); got != tc.want {
			t.Errorf("LevelFor(%v) = %d, want %d", tc.lifetime, got, tc.want)
		}
	}
}

func TestNextThreshold(t *testing.T) {
	thresholds := testCatalog().Thresholds

	next, ok := NextThreshold(2, thresholds)
	if !ok || next.Level != 3 || next.LifetimeLP != 500 {
		t.Errorf("expected next threshold level 3 at 500, got %+v ok=%v", next, ok)
	}

	if _, ok := NextThreshold(4, thresholds); ok {
		t.Errorf("expected no threshold above the table top")
	}
}
