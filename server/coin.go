package main

import (
	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

// spawnCoin places a coin and announces it.
func (g *Game) spawnCoin(pos physics.Vec2) {
	e := g.world.Create(Transform, Collider, Networked, CoinTag)
	entry := g.world.Entry(e)
	Transform.Set(entry, &TransformData{Pos: pos, Z: coinLayer})
	Collider.Set(entry, ptr(physics.CoinCollider()))
	id := g.allocNetID()
	Networked.Set(entry, &NetworkedData{ID: id})

	g.broadcast(protocol.SpawnCoin{Entity: id, Translation: Transform.Get(entry).Translation()})
}

// spawnCoins drops a coin somewhere in the visible area every
// CoinSpawnInterval.
func (g *Game) spawnCoins(dt float64) {
	if !g.coinTimer.Tick(dt) {
		return
	}
	g.spawnCoin(physics.Vec2{
		X: (g.rng.Float64() - 0.5) * VisibleArea.X,
		Y: (g.rng.Float64() - 0.5) * VisibleArea.Y,
	})
}
