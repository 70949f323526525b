package main

import (
	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

// spawnPlayer creates a player entity. Bots get the same body without an
// owning connection.
func (g *Game) spawnPlayer(id protocol.ClientID, pos physics.Vec2, bot bool) *donburi.Entry {
	e := g.world.Create(Transform, Collider, Networked, Player, Movement, Facing, ScreenWrapTag)
	entry := g.world.Entry(e)
	Transform.Set(entry, &TransformData{Pos: pos, Z: playerLayer})
	Collider.Set(entry, ptr(physics.PlayerCollider(0)))
	Networked.Set(entry, &NetworkedData{ID: g.allocNetID()})
	Player.Set(entry, &PlayerData{ClientID: id, Ready: bot, Bot: bot})
	Movement.Set(entry, &MovementData{MaxSpeed: PlayerMoveSpeed})
	return entry
}

// updateIntents turns each player's key state into a unit movement intent.
// Facing follows the intent.
func (g *Game) updateIntents() {
	Movement.Each(g.world, func(entry *donburi.Entry) {
		m := Movement.Get(entry)
		m.Intent = intentFor(m.Input)
		if entry.HasComponent(Facing) {
			Facing.Get(entry).Dir = m.Intent
		}
	})
}

func intentFor(in protocol.PlayerInput) physics.Vec2 {
	var x, y float64
	if in.Right {
		x++
	}
	if in.Left {
		x--
	}
	if in.Up {
		y++
	}
	if in.Down {
		y--
	}
	return physics.Normalize(physics.Vec2{X: x, Y: y})
}

// applyMovement resolves every mover against the colliders as they stood
// at the start of the tick, then applies the granted displacements and
// awards claimed coins.
func (g *Game) applyMovement(dt float64) {
	var (
		bodies  []physics.Body
		entries []*donburi.Entry
		movers  []physics.Mover
	)
	Collider.Each(g.world, func(entry *donburi.Entry) {
		idx := len(bodies)
		bodies = append(bodies, physics.Body{
			Pos:      Transform.Get(entry).Pos,
			Collider: *Collider.Get(entry),
			Coin:     entry.HasComponent(CoinTag),
		})
		entries = append(entries, entry)
		if entry.HasComponent(Movement) {
			m := Movement.Get(entry)
			movers = append(movers, physics.Mover{
				Body:  idx,
				Delta: physics.Vec2{X: m.Intent.X * m.MaxSpeed * dt, Y: m.Intent.Y * m.MaxSpeed * dt},
			})
		}
	})
	if len(movers) == 0 {
		return
	}

	res := g.resolver.Resolve(bodies, movers)
	for i, mv := range movers {
		d := res.Moves[i]
		if d.X == 0 && d.Y == 0 {
			continue
		}
		entry := entries[mv.Body]
		t := Transform.Get(entry)
		t.Pos = physics.Vec2{X: t.Pos.X + d.X, Y: t.Pos.Y + d.Y}
		if entry.HasComponent(ScreenWrapTag) {
			t.Pos = physics.Wrap(t.Pos, WrapArea)
		}
	}

	// Ids are captured before removal starts; entries may move when the
	// world shrinks.
	claims := make([][2]donburi.Entity, len(res.Claims))
	for i, c := range res.Claims {
		claims[i] = [2]donburi.Entity{entries[c.Mover].Entity(), entries[c.Coin].Entity()}
	}
	for _, c := range claims {
		g.despawn(c[1])
		if !g.world.Valid(c[0]) {
			continue
		}
		if player := g.world.Entry(c[0]); player.HasComponent(Player) {
			g.applyScore(player, 1)
		}
	}
}
