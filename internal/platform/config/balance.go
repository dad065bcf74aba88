package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Balance holds the economy tuning knobs. Every rate the engine
// computes starts from one of these values.
type Balance struct {
	BaseTapValue       float64 `env:"LUNATAP_BASE_TAP_VALUE" envDefault:"1"`
	TapEnergyCost      float64 `env:"LUNATAP_TAP_ENERGY_COST" envDefault:"1"`
	BaseMaxEnergy      float64 `env:"LUNATAP_BASE_MAX_ENERGY" envDefault:"500"`
	BaseRegenPerSecond float64 `env:"LUNATAP_BASE_REGEN_PER_SEC" envDefault:"0.3"`
	BasePassivePerHour float64 `env:"LUNATAP_BASE_PASSIVE_PER_HOUR" envDefault:"50"`
	OfflineCapHours    float64 `env:"LUNATAP_OFFLINE_CAP_HOURS" envDefault:"8"`
	DiscountCeilingPct float64 `env:"LUNATAP_DISCOUNT_CEILING_PCT" envDefault:"50"`
	VIPPassiveBonus    float64 `env:"LUNATAP_VIP_PASSIVE_BONUS" envDefault:"1.5"`
	MaxWriteAttempts   int     `env:"LUNATAP_MAX_WRITE_ATTEMPTS" envDefault:"5"`
}

// DefaultBalance returns the tuned production values.
func DefaultBalance() Balance {
	return Balance{
		BaseTapValue:       1,
		TapEnergyCost:      1,
		BaseMaxEnergy:      500,
		BaseRegenPerSecond: 0.3,
		BasePassivePerHour: 50,
		OfflineCapHours:    8,
		DiscountCeilingPct: 50,
		VIPPassiveBonus:    1.5,
		MaxWriteAttempts:   5,
	}
}

// LoadBalance parses balance overrides from the environment on top of
// the defaults, then validates. Any error is fatal to startup.
func LoadBalance() (Balance, error) {
	var b Balance
	if err := env.Parse(&b); err != nil {
		return Balance{}, fmt.Errorf("parse env: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Balance{}, err
	}
	return b, nil
}

// Validate rejects values the economy math cannot run on.
func (b Balance) Validate() error {
	if b.BaseTapValue <= 0 {
		return fmt.Errorf("base tap value must be positive, got %v", b.BaseTapValue)
	}
	if b.TapEnergyCost <= 0 {
		return fmt.Errorf("tap energy cost must be positive, got %v", b.TapEnergyCost)
	}
	if b.BaseMaxEnergy < b.TapEnergyCost {
		return fmt.Errorf("base max energy %v cannot be below the tap cost %v", b.BaseMaxEnergy, b.TapEnergyCost)
	}
	if b.BaseRegenPerSecond <= 0 {
		return fmt.Errorf("base regen must be positive, got %v", b.BaseRegenPerSecond)
	}
	if b.BasePassivePerHour < 0 {
		return fmt.Errorf("base passive rate cannot be negative, got %v", b.BasePassivePerHour)
	}
	if b.OfflineCapHours <= 0 {
		return fmt.Errorf("offline cap must be positive, got %v", b.OfflineCapHours)
	}
	if b.DiscountCeilingPct < 0 || b.DiscountCeilingPct >= 100 {
		return fmt.Errorf("discount ceiling must be in [0, 100), got %v", b.DiscountCeilingPct)
	}
	if b.VIPPassiveBonus < 1 {
		return fmt.Errorf("vip passive bonus cannot reduce income, got %v", b.VIPPassiveBonus)
	}
	if b.MaxWriteAttempts < 1 {
		return fmt.Errorf("max write attempts must be at least 1, got %d", b.MaxWriteAttempts)
	}
	return nil
}
