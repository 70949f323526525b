package main

import (
	"testing"

	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

func projectiles(g *Game) []*donburi.Entry {
	var out []*donburi.Entry
	Projectile.Each(g.world, func(entry *donburi.Entry) {
		out = append(out, entry)
	})
	return out
}

func TestProjectileIgnoresOwner(t *testing.T) {
	g := newTestGame(t)
	clearStatics(g)
	join(g, 1)

	owner := playerOf(t, g, 1)
	start := Transform.Get(owner).Pos
	g.spawnProjectile(owner, physics.Vec2{X: 1}, 0, projectileLayer)
	g.moveProjectiles(1.0 / TickRate)

	ps := projectiles(g)
	if len(ps) != 1 {
		t.Fatalf("projectile overlapping its owner should survive, got %d", len(ps))
	}
	if pos := Transform.Get(ps[0]).Pos; pos.X <= start.X {
		t.Errorf("projectile should have moved, at %v", pos)
	}
}

func TestProjectileHitPenalty(t *testing.T) {
	tests := []struct {
		score     int64
		wantScore int64
		wantCoins int
	}{
		{score: 0, wantScore: 0, wantCoins: 0},
		{score: 3, wantScore: 0, wantCoins: 3},
		{score: 5, wantScore: 0, wantCoins: 5},
		{score: 7, wantScore: 2, wantCoins: 5},
	}
	for _, tt := range tests {
		g := newTestGame(t)
		clearStatics(g)
		a := join(g, 1)
		join(g, 2)

		target := playerOf(t, g, 2)
		g.applyScore(target, tt.score)
		at := Transform.Get(target).Pos
		shooter := playerOf(t, g, 1)
		Transform.Get(shooter).Pos = physics.Vec2{X: at.X - 40, Y: at.Y}
		a.reset()

		g.spawnProjectile(playerOf(t, g, 1), physics.Vec2{X: 1}, playerCastOffset, projectileLayer)
		g.moveProjectiles(1.0 / TickRate)
		g.flushDespawns()

		if got := Player.Get(playerOf(t, g, 2)).Score; got != tt.wantScore {
			t.Errorf("score %d: expected %d after hit, got %d", tt.score, tt.wantScore, got)
		}
		if got := a.count(protocol.TagSpawnCoin); got != tt.wantCoins {
			t.Errorf("score %d: expected %d scattered coins, got %d", tt.score, tt.wantCoins, got)
		}
		if len(projectiles(g)) != 0 {
			t.Errorf("score %d: projectile should be removed on hit", tt.score)
		}
		if got := a.count(protocol.TagDespawnEntity); got != 1 {
			t.Errorf("score %d: expected one despawn, got %d", tt.score, got)
		}
		if got := Player.Get(playerOf(t, g, 1)).Score; got != 0 {
			t.Errorf("score %d: shooter should not be rewarded, got %d", tt.score, got)
		}
	}
}

func TestProjectileScatterStaysNearTarget(t *testing.T) {
	g := newTestGame(t)
	clearStatics(g)
	a := join(g, 1)
	join(g, 2)

	target := playerOf(t, g, 2)
	g.applyScore(target, 5)
	at := Transform.Get(target).Pos
	g.strikePlayer(target)

	for _, m := range a.all(protocol.TagSpawnCoin) {
		tr := m.(protocol.SpawnCoin).Translation
		dx, dy := float64(tr[0])-at.X, float64(tr[1])-at.Y
		if dx < -coinScatter-1 || dx > coinScatter+1 || dy < -coinScatter-1 || dy > coinScatter+1 {
			t.Errorf("coin scattered too far: offset (%f, %f)", dx, dy)
		}
	}
}

func TestProjectileStoppedByWall(t *testing.T) {
	g := newTestGame(t)
	clearStatics(g)
	join(g, 1)
	owner := playerOf(t, g, 1)
	Transform.Get(owner).Pos = physics.Vec2{X: 0, Y: 400}

	g.spawnStatic(StaticSpec{Kind: physics.KindWallSmall, Pos: physics.Vec2{X: 80, Y: 400}, Z: objectsLayer})
	g.spawnProjectile(playerOf(t, g, 1), physics.Vec2{X: 1}, playerCastOffset, projectileLayer)
	for i := 0; i < 10; i++ {
		g.moveProjectiles(1.0 / TickRate)
	}
	if len(projectiles(g)) != 0 {
		t.Error("projectile should stop at the wall")
	}
}

func TestProjectilePassesOverPond(t *testing.T) {
	g := newTestGame(t)
	clearStatics(g)
	join(g, 1)
	owner := playerOf(t, g, 1)
	Transform.Get(owner).Pos = physics.Vec2{X: -100, Y: 0}

	g.spawnStatic(StaticSpec{Kind: physics.KindPond, Z: groundLayer})
	g.spawnProjectile(playerOf(t, g, 1), physics.Vec2{X: 1}, playerCastOffset, projectileLayer)
	for i := 0; i < 20; i++ {
		g.moveProjectiles(1.0 / TickRate)
	}
	ps := projectiles(g)
	if len(ps) != 1 {
		t.Fatal("projectile should fly over the pond")
	}
	if x := Transform.Get(ps[0]).Pos.X; x <= 55 {
		t.Errorf("projectile should be past the pond, at x=%f", x)
	}
}

func TestProjectileLifetime(t *testing.T) {
	g := newTestGame(t)
	clearStatics(g)
	join(g, 1)
	g.spawnProjectile(playerOf(t, g, 1), physics.Vec2{Y: 1}, playerCastOffset, projectileLayer)
	Projectile.Get(projectiles(g)[0]).Speed = 0

	for i := 0; i < 170; i++ {
		g.moveProjectiles(1.0 / TickRate)
	}
	if len(projectiles(g)) != 1 {
		t.Fatal("projectile expired early")
	}
	for i := 0; i < 30; i++ {
		g.moveProjectiles(1.0 / TickRate)
	}
	if len(projectiles(g)) != 0 {
		t.Error("projectile should expire after its lifetime")
	}
}

func TestProjectileLeavesArena(t *testing.T) {
	g := newTestGame(t)
	clearStatics(g)
	join(g, 1)
	g.spawnProjectile(playerOf(t, g, 1), physics.Vec2{Y: 1}, playerCastOffset, projectileLayer)

	for i := 0; i < 90; i++ {
		g.moveProjectiles(1.0 / TickRate)
	}
	if len(projectiles(g)) != 0 {
		t.Error("projectile outside the wrap area should be removed")
	}
}

func TestHitPenalty(t *testing.T) {
	for score, want := range map[int64]int64{0: 0, 1: 1, 4: 4, 5: 5, 6: 5, 100: 5} {
		if got := hitPenalty(score); got != want {
			t.Errorf("hitPenalty(%d) = %d, want %d", score, got, want)
		}
	}
}

func TestApplyScoreClampsAtZero(t *testing.T) {
	g := newTestGame(t)
	join(g, 1)
	entry := playerOf(t, g, 1)

	g.applyScore(entry, 2)
	g.applyScore(entry, -10)
	if s := Player.Get(entry).Score; s != 0 {
		t.Errorf("score should clamp at zero, got %d", s)
	}
	if size := Collider.Get(entry).Size; size != physics.PlayerBaseSize {
		t.Errorf("collider should shrink back to base, got %v", size)
	}
}
