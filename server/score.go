package main

import (
	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
)

// applyScore changes a player's coin count by delta, never going below
// zero, and regrows its collider to match.
func (g *Game) applyScore(entry *donburi.Entry, delta int64) {
	p := Player.Get(entry)
	p.Score += delta
	if p.Score < 0 {
		p.Score = 0
	}
	Collider.Set(entry, ptr(physics.PlayerCollider(p.Score)))
}

// hitPenalty is the number of coins a struck player loses.
func hitPenalty(score int64) int64 {
	if score < MaxHitPenalty {
		return score
	}
	return MaxHitPenalty
}
