// Package rules contains the pure calculation logic for the economy.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"math"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
)

// categorySum totals BaseEffect * ownedLevel across all upgrades of one category.
func categorySum(p *player.Player, c *catalog.Catalog, cat catalog.Category) float64 {
	total := 0.0
	for _, def := range c.Upgrades {
		if def.Category != cat {
			continue
		}
		if lvl := p.UpgradeLevel(def.ID); lvl > 0 {
			total += def.BaseEffect * float64(lvl)
		}
	}
	return total
}

// TapValue is the LP earned per tap: (base + tap upgrades) * active tap booster.
func TapValue(base float64, p *player.Player, c *catalog.Catalog, now time.Time) float64 {
	return (base + categorySum(p, c, catalog.CategoryTap)) * p.BoosterMultiplier(catalog.CategoryTap, now)
}

// PassivePerHour is the idle income rate: (base + passive upgrades)
// * VIP multiplier while active * active passive booster.
func PassivePerHour(base, vipMultiplier float64, p *player.Player, c *catalog.Catalog, now time.Time) float64 {
	rate := base + categorySum(p, c, catalog.CategoryPassiveIncome)
	if p.VIPActive(now) {
		rate *= vipMultiplier
	}
	return rate * p.BoosterMultiplier(catalog.CategoryPassiveIncome, now)
}

// RegenPerSecond is the energy refill rate: (base + regen upgrades)
// * active regen booster.
func RegenPerSecond(base float64, p *player.Player, c *catalog.Catalog, now time.Time) float64 {
	return (base + categorySum(p, c, catalog.CategoryEnergyRegen)) * p.BoosterMultiplier(catalog.CategoryEnergyRegen, now)
}

// MaxEnergy is the effective energy cap: base + cap upgrades.
// Boosters never raise the cap.
func MaxEnergy(base float64, p *player.Player, c *catalog.Catalog) float64 {
	return base + categorySum(p, c, catalog.CategoryEnergyCap)
}

// DiscountPct is the stacked cost reduction in percent, capped at ceiling.
func DiscountPct(p *player.Player, c *catalog.Catalog, ceiling float64) float64 {
	pct := categorySum(p, c, catalog.CategoryCostReduction)
	if pct > ceiling {
		return ceiling
	}
	return pct
}

// UpgradeCost is the undiscounted price of the next level:
// floor(BaseCost * CostGrowth^ownedLevel).
func UpgradeCost(def catalog.UpgradeDefinition, ownedLevel int) float64 {
	return math.Floor(def.BaseCost * math.Pow(def.CostGrowth, float64(ownedLevel)))
}

// DiscountedCost applies a percentage discount to a base cost.
// The result floors again and never drops below 1.
func DiscountedCost(baseCost, discountPct float64) float64 {
	cost := math.Floor(baseCost * (1 - discountPct/100))
	if cost < 1 {
		return 1
	}
	return cost
}
