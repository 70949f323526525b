package main

import (
	"math"
	"math/rand"
	"sort"

	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

// StaticSpec is a world object produced by world generation.
type StaticSpec struct {
	Kind physics.ObjectKind
	Pos  physics.Vec2
	Z    float64
}

const (
	minTrees     = 12
	maxTrees     = 20
	treeMinDist  = 270.0
	treeMaxDist  = 500.0
	wallMaxXJit  = 2.5
	wallMaxYJit  = 1.4
	groundLayer  = 2.0
	objectsLayer = 3.0
)

// SpawnRing holds the eight player spawn points, also used for the dirt
// patches.
var SpawnRing = [8]physics.Vec2{
	{X: -250, Y: 0}, {X: 250, Y: 0}, {X: 0, Y: 250}, {X: 0, Y: -250},
	{X: 176, Y: 176}, {X: -176, Y: 176}, {X: -176, Y: -176}, {X: 176, Y: -176},
}

var wallBase = [8]physics.Vec2{
	{X: -300, Y: 0}, {X: 300, Y: 0}, {X: 0, Y: 300}, {X: 0, Y: -300},
	{X: 212, Y: 212}, {X: -212, Y: 212}, {X: -212, Y: -212}, {X: 212, Y: -212},
}

// GenerateWorld lays out the arena: dirt patches on the spawn ring, a pond
// at the centre, a scatter of trees in the annulus around it and one wall
// near each of eight compass points.
func GenerateWorld(rng *rand.Rand) []StaticSpec {
	var objs []StaticSpec
	for _, p := range SpawnRing {
		objs = append(objs, StaticSpec{Kind: physics.KindDirtPatch, Pos: p, Z: groundLayer})
	}
	objs = append(objs, StaticSpec{Kind: physics.KindPond, Z: groundLayer})

	trees := minTrees + rng.Intn(maxTrees-minTrees+1)
	for i := 0; i < trees; i++ {
		angle := rng.Float64() * 2 * math.Pi
		dist := treeMinDist + rng.Float64()*(treeMaxDist-treeMinDist)
		objs = append(objs, StaticSpec{
			Kind: physics.KindTree,
			Pos:  physics.Vec2{X: dist * math.Cos(angle), Y: dist * math.Sin(angle)},
			Z:    objectsLayer,
		})
	}

	for _, base := range wallBase {
		xj := 1 + rng.Float64()*(wallMaxXJit-1)
		yj := 1 + rng.Float64()*(wallMaxYJit-1)
		kind := physics.KindWallSmall + physics.ObjectKind(rng.Intn(physics.WallKindCount))
		objs = append(objs, StaticSpec{
			Kind: kind,
			Pos:  physics.Vec2{X: base.X * xj, Y: base.Y * yj},
			Z:    objectsLayer,
		})
	}
	return objs
}

// spawnStatic adds a generated object to the world. Static objects have no
// network id; clients learn of them through SpawnGameObject only.
func (g *Game) spawnStatic(obj StaticSpec) {
	e := g.world.Create(Transform, StaticObject, Collider)
	entry := g.world.Entry(e)
	Transform.Set(entry, &TransformData{Pos: obj.Pos, Z: obj.Z})
	StaticObject.Set(entry, &StaticObjectData{Kind: obj.Kind})
	c, _ := physics.ObjectCollider(obj.Kind)
	Collider.Set(entry, &c)
}

// catchUpWorld lists the spawn messages a late joiner needs: static objects
// first, then live coins and projectiles, each in creation order.
func (g *Game) catchUpWorld() []protocol.ServerMessage {
	var msgs []protocol.ServerMessage
	StaticObject.Each(g.world, func(entry *donburi.Entry) {
		msgs = append(msgs, protocol.SpawnGameObject{
			Kind:        uint64(StaticObject.Get(entry).Kind),
			Translation: Transform.Get(entry).Translation(),
		})
	})

	type live struct {
		id  protocol.EntityID
		msg protocol.ServerMessage
	}
	var dynamic []live
	Networked.Each(g.world, func(entry *donburi.Entry) {
		id := Networked.Get(entry).ID
		t := Transform.Get(entry)
		switch {
		case entry.HasComponent(CoinTag):
			dynamic = append(dynamic, live{id, protocol.SpawnCoin{Entity: id, Translation: t.Translation()}})
		case entry.HasComponent(Projectile):
			dynamic = append(dynamic, live{id, protocol.SpawnProjectile{Entity: id, Translation: t.Translation(), Angle: float32(t.Angle)}})
		}
	})
	sort.Slice(dynamic, func(i, j int) bool { return dynamic[i].id < dynamic[j].id })
	for _, d := range dynamic {
		msgs = append(msgs, d.msg)
	}
	return msgs
}
