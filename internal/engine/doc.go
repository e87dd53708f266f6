// Package engine contains the game loop and simulation logic.
// This is the heartbeat of Lumenfall.
//
// ARCHITECTURAL RULE: all arena state lives in the World, and the World
// is touched only from the loop goroutine, inside Step or a queued
// command. The network side speaks to the simulation through the command
// queue and reads back snapshots and chronicle events, never the World
// itself. Events are stamped with the match and tick by the World, so
// every system emits through it.
package engine
