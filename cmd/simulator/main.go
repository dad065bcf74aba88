// Package main - simulator
// Offline balance simulator. Drives a scripted player through N days of
// tapping, buying and claiming against the real engine, then prints a
// per-day progression table. Deterministic: same balance env, same
// numbers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/engine"
	"github.com/avelia-studio/lunatap-server/internal/events"
	"github.com/avelia-studio/lunatap-server/internal/infra/storage"
	"github.com/avelia-studio/lunatap-server/internal/platform/config"
	"github.com/avelia-studio/lunatap-server/internal/platform/logger"
)

// scriptClock is a manually stepped clock driving the engine.
type scriptClock struct {
	now time.Time
}

func (c *scriptClock) Now() time.Time { return c.now }

func (c *scriptClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// dayRow captures the player's state at the end of one simulated day.
type dayRow struct {
	Day       int
	Level     int
	LP        float64
	Lifetime  float64
	Taps      int
	Purchases int
	Claims    int
}

func main() {
	days := flag.Int("days", 7, "Days to simulate")
	sessions := flag.Int("sessions", 3, "Play sessions per day")
	taps := flag.Int("taps", 500, "Taps attempted per session")
	flag.Parse()

	fmt.Println("🌙 LUNATAP BALANCE SIMULATOR")
	fmt.Println("================================================")

	balance, err := config.LoadBalance()
	if err != nil {
		fmt.Println("❌ Balance config rejected:", err)
		os.Exit(1)
	}

	cat := catalog.Default()
	clock := &scriptClock{now: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
	eng := engine.NewEngine(
		storage.NewMemoryPlayerRepository(),
		events.NewLedger(nil, nil),
		catalog.NewHolder(cat),
		balance,
		clock,
		logger.NewDiscardLogger(),
	)

	fmt.Printf("Simulating %d days, %d sessions/day, %d taps/session\n\n",
		*days, *sessions, *taps)

	rows := simulate(eng, cat, clock, *days, *sessions, *taps)
	printTable(rows)
	printFinal(eng)
}

func simulate(eng *engine.Engine, cat *catalog.Catalog, clock *scriptClock, days, sessions, taps int) []dayRow {
	ctx := context.Background()
	const playerID = "SIM"

	// Waking hours span 16h; whatever remains of the day is the
	// overnight gap, which exercises the offline earning cap.
	sessionGap := 16 * time.Hour / time.Duration(sessions)

	var rows []dayRow
	for day := 1; day <= days; day++ {
		row := dayRow{Day: day}

		for s := 0; s < sessions; s++ {
			for i := 0; i < taps; i++ {
				if _, err := eng.Tap(ctx, playerID); err != nil {
					break
				}
				row.Taps++
			}
			row.Purchases += buyGreedily(ctx, eng, cat, playerID)
			row.Claims += claimEverything(ctx, eng, cat, playerID)
			clock.advance(sessionGap)
		}
		clock.advance(8 * time.Hour)

		snap, err := eng.Player(ctx, playerID)
		if err != nil {
			fmt.Println("❌ Simulation aborted:", err)
			os.Exit(1)
		}
		row.Level = snap.Level
		row.LP = snap.LP
		row.Lifetime = snap.LifetimeLP
		rows = append(rows, row)
	}
	return rows
}

// buyGreedily purchases upgrade levels in catalog order until nothing
// is affordable.
func buyGreedily(ctx context.Context, eng *engine.Engine, cat *catalog.Catalog, playerID string) int {
	bought := 0
	for {
		progress := false
		for _, u := range cat.Upgrades {
			if _, err := eng.Purchase(ctx, playerID, u.ID); err == nil {
				bought++
				progress = true
			}
		}
		if !progress {
			return bought
		}
	}
}

// claimEverything sweeps all claimable tasks and achievement tiers.
func claimEverything(ctx context.Context, eng *engine.Engine, cat *catalog.Catalog, playerID string) int {
	claimed := 0
	for _, task := range cat.Tasks {
		if _, err := eng.ClaimTask(ctx, playerID, task.ID); err == nil {
			claimed++
		}
	}
	for _, ach := range cat.Achievements {
		for tier := 0; tier < len(ach.Tiers); tier++ {
			if _, err := eng.ClaimAchievement(ctx, playerID, ach.ID, tier); err == nil {
				claimed++
			}
		}
	}
	return claimed
}

func printTable(rows []dayRow) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tLEVEL\tLP\tLIFETIME LP\tTAPS\tBUYS\tCLAIMS")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%d\t%d\n",
			r.Day, r.Level,
			humanize.Commaf(r.LP), humanize.Commaf(r.Lifetime),
			r.Taps, r.Purchases, r.Claims)
	}
	w.Flush()
}

func printFinal(eng *engine.Engine) {
	snap, err := eng.Player(context.Background(), "SIM")
	if err != nil {
		return
	}

	fmt.Println("\n------------------------------------------------")
	fmt.Printf("Final level: %d  (lifetime %s LP)\n",
		snap.Level, humanize.Commaf(snap.LifetimeLP))

	fmt.Println("Upgrades owned:")
	for id, level := range snap.Upgrades {
		fmt.Printf("   %s: level %d\n", id, level)
	}
	if len(snap.Unlocks) > 0 {
		fmt.Println("Unlocks:")
		for _, key := range snap.Unlocks {
			fmt.Printf("   %s\n", key)
		}
	}
	fmt.Println("================================================")
}
