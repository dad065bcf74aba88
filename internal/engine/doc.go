// Package engine owns every mutation of player progression state.
// This is the heartbeat of the LunaTap backend.
//
// ARCHITECTURAL RULE: there is no background game loop. Passive income,
// energy regen and booster expiry are derived from timestamp deltas
// whenever a player is touched, so balances stay correct across
// restarts and idle periods of any length.
package engine
