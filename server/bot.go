package main

import (
	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

// spawnBot adds a server-driven player that is always ready and fires in a
// random direction every BotCastInterval.
func (g *Game) spawnBot() {
	id := g.nextBotID
	for {
		if _, taken := g.lobby[id]; !taken {
			break
		}
		id++
	}
	g.nextBotID = id + 1

	pos := SpawnRing[g.nextSpawn%len(SpawnRing)]
	g.nextSpawn++
	entry := g.spawnPlayer(id, pos, true)
	donburi.Add(entry, Bot, &BotData{AutoCast: NewTimer(BotCastInterval)})
	g.lobby[id] = entry.Entity()

	Log.Infow("bot spawned", "client", id)
	g.broadcast(protocol.PlayerCreate{
		Entity:      Networked.Get(entry).ID,
		ID:          id,
		Translation: Transform.Get(entry).Translation(),
		IsReady:     true,
	})
}

func (g *Game) botAutoCast(dt float64) {
	var casters []donburi.Entity
	Bot.Each(g.world, func(entry *donburi.Entry) {
		if Bot.Get(entry).AutoCast.Tick(dt) {
			casters = append(casters, entry.Entity())
		}
	})
	for _, e := range casters {
		if !g.world.Valid(e) {
			continue
		}
		dir := physics.Normalize(physics.Vec2{X: g.rng.Float64() - 0.5, Y: g.rng.Float64() - 0.5})
		if dir.X == 0 && dir.Y == 0 {
			continue
		}
		g.spawnProjectile(g.world.Entry(e), dir, botCastOffset, botProjectileLayer)
	}
}
