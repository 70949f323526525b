package main

import (
	"math"
	"sort"

	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

// spawnProjectile fires from owner along dir (a unit vector), starting
// offset units ahead of it.
func (g *Game) spawnProjectile(owner *donburi.Entry, dir physics.Vec2, offset, layer float64) {
	from := Transform.Get(owner).Pos
	pos := physics.Vec2{X: from.X + dir.X*offset, Y: from.Y + dir.Y*offset}
	angle := physics.Angle(dir)

	e := g.world.Create(Transform, Collider, Networked, Facing, Projectile)
	entry := g.world.Entry(e)
	Transform.Set(entry, &TransformData{Pos: pos, Z: layer, Angle: angle})
	Collider.Set(entry, ptr(physics.ProjectileCollider()))
	Facing.Set(entry, &FacingData{Dir: dir})
	Projectile.Set(entry, &ProjectileData{Speed: ProjectileMoveSpeed, Dir: dir, Owner: owner.Entity()})
	id := g.allocNetID()
	Networked.Set(entry, &NetworkedData{ID: id})

	g.broadcast(protocol.SpawnProjectile{
		Entity:      id,
		Translation: Transform.Get(entry).Translation(),
		Angle:       float32(angle),
	})
}

type projTarget struct {
	entity donburi.Entity
	pos    physics.Vec2
	size   physics.Vec2
}

// moveProjectiles advances every projectile. A projectile whose next
// position would overlap a collider it can hit (never its owner) is
// removed without moving; a struck player loses up to MaxHitPenalty coins,
// which scatter around them.
func (g *Game) moveProjectiles(dt float64) {
	var projectiles []donburi.Entity
	Projectile.Each(g.world, func(entry *donburi.Entry) {
		projectiles = append(projectiles, entry.Entity())
	})
	if len(projectiles) == 0 {
		return
	}
	sort.Slice(projectiles, func(i, j int) bool {
		return g.netID(projectiles[i]) < g.netID(projectiles[j])
	})

	var targets []projTarget
	Collider.Each(g.world, func(entry *donburi.Entry) {
		if entry.HasComponent(Projectile) {
			return
		}
		c := Collider.Get(entry)
		if !c.CollidesWithProjectile {
			return
		}
		targets = append(targets, projTarget{entity: entry.Entity(), pos: Transform.Get(entry).Pos, size: c.Size})
	})

	for _, pe := range projectiles {
		if !g.world.Valid(pe) {
			continue
		}
		entry := g.world.Entry(pe)
		proj := Projectile.Get(entry)
		t := Transform.Get(entry)

		proj.Age += dt
		if proj.Age > ProjectileLifetime || outside(t.Pos, WrapArea) {
			g.despawn(pe)
			continue
		}

		next := physics.Vec2{X: t.Pos.X + proj.Dir.X*proj.Speed*dt, Y: t.Pos.Y + proj.Dir.Y*proj.Speed*dt}
		size := Collider.Get(entry).Size
		owner := proj.Owner

		hit := false
		for _, tg := range targets {
			if tg.entity == owner || !g.world.Valid(tg.entity) {
				continue
			}
			target := g.world.Entry(tg.entity)
			// Player colliders grow and shrink within the tick.
			tsize := tg.size
			if target.HasComponent(Player) {
				tsize = Collider.Get(target).Size
			}
			if !physics.Overlaps(next, size, tg.pos, tsize) {
				continue
			}
			if target.HasComponent(Player) {
				g.strikePlayer(target)
			}
			hit = true
			break
		}
		if hit {
			g.despawn(pe)
			continue
		}
		t.Pos = next
	}
}

// strikePlayer applies the hit penalty and scatters the lost coins.
func (g *Game) strikePlayer(target *donburi.Entry) {
	p := Player.Get(target)
	penalty := hitPenalty(p.Score)
	clientID := p.ClientID
	g.journal.Track(JournalEvent{Type: EvtHit, ClientID: clientID, RoundID: g.roundID, Value: penalty})
	if penalty == 0 {
		return
	}
	g.applyScore(target, -penalty)
	at := Transform.Get(target).Pos
	for i := int64(0); i < penalty; i++ {
		g.spawnCoin(physics.Vec2{
			X: at.X + (g.rng.Float64()*2-1)*coinScatter,
			Y: at.Y + (g.rng.Float64()*2-1)*coinScatter,
		})
	}
}

func (g *Game) netID(e donburi.Entity) protocol.EntityID {
	if !g.world.Valid(e) {
		return 0
	}
	entry := g.world.Entry(e)
	if !entry.HasComponent(Networked) {
		return 0
	}
	return Networked.Get(entry).ID
}

func outside(pos, area physics.Vec2) bool {
	return math.Abs(pos.X) > area.X/2 || math.Abs(pos.Y) > area.Y/2
}
