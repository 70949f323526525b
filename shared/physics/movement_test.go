package physics

import (
	"math/rand"
	"testing"
)

var testArea = Vec2{X: 1756, Y: 1056}

func wall(x, y, w, h float64) Body {
	return Body{Pos: Vec2{X: x, Y: y}, Collider: Collider{Size: Vec2{X: w, Y: h}, CollidesWithPlayer: true, CollidesWithProjectile: true}}
}

func player(x, y float64) Body {
	return Body{Pos: Vec2{X: x, Y: y}, Collider: PlayerCollider(0)}
}

func coin(x, y float64) Body {
	return Body{Pos: Vec2{X: x, Y: y}, Collider: CoinCollider(), Coin: true}
}

func TestResolveFreeMovement(t *testing.T) {
	r := NewResolver(testArea)
	bodies := []Body{player(0, 0)}
	res := r.Resolve(bodies, []Mover{{Body: 0, Delta: Vec2{X: 5, Y: -3}}})
	if res.Moves[0] != (Vec2{X: 5, Y: -3}) {
		t.Errorf("expected full move, got %v", res.Moves[0])
	}
	if bodies[0].Pos != (Vec2{}) {
		t.Error("resolver must not modify bodies")
	}
}

func TestResolveSlidesAlongWall(t *testing.T) {
	r := NewResolver(testArea)
	// Wall directly right of the player
	bodies := []Body{player(0, 0), wall(20, 0, 20, 200)}
	res := r.Resolve(bodies, []Mover{{Body: 0, Delta: Vec2{X: 5, Y: 5}}})
	if res.Moves[0] != (Vec2{X: 0, Y: 5}) {
		t.Errorf("expected slide along Y, got %v", res.Moves[0])
	}
}

func TestResolveBlockedBothAxes(t *testing.T) {
	r := NewResolver(testArea)
	bodies := []Body{player(0, 0), wall(20, 0, 20, 200), wall(0, 25, 200, 20)}
	res := r.Resolve(bodies, []Mover{{Body: 0, Delta: Vec2{X: 5, Y: 5}}})
	if res.Moves[0] != (Vec2{}) {
		t.Errorf("expected no movement, got %v", res.Moves[0])
	}
}

func TestResolveIgnoresNonBlocking(t *testing.T) {
	r := NewResolver(testArea)
	ghost := Body{Pos: Vec2{X: 10}, Collider: Collider{Size: Vec2{X: 20, Y: 20}, CollidesWithProjectile: true}}
	bodies := []Body{player(0, 0), ghost}
	res := r.Resolve(bodies, []Mover{{Body: 0, Delta: Vec2{X: 5}}})
	if res.Moves[0] != (Vec2{X: 5}) {
		t.Errorf("non-blocking collider should not stop movement, got %v", res.Moves[0])
	}
}

func TestResolveCoinClaim(t *testing.T) {
	r := NewResolver(testArea)
	bodies := []Body{player(0, 0), coin(20, 0)}
	res := r.Resolve(bodies, []Mover{{Body: 0, Delta: Vec2{X: 5}}})
	if len(res.Claims) != 1 || res.Claims[0] != (CoinClaim{Mover: 0, Coin: 1}) {
		t.Fatalf("expected one coin claim, got %v", res.Claims)
	}
	if res.Moves[0] != (Vec2{X: 5}) {
		t.Errorf("coins should not block, got %v", res.Moves[0])
	}
}

func TestResolveCoinFirstToucherWins(t *testing.T) {
	r := NewResolver(testArea)
	bodies := []Body{player(-20, 0), player(20, 0), coin(0, 0)}
	res := r.Resolve(bodies, []Mover{
		{Body: 0, Delta: Vec2{X: 5}},
		{Body: 1, Delta: Vec2{X: -5}},
	})
	if len(res.Claims) != 1 {
		t.Fatalf("expected exactly one claim, got %v", res.Claims)
	}
	if res.Claims[0].Mover != 0 {
		t.Errorf("first mover should win the coin, got %v", res.Claims[0])
	}
}

func TestResolveIdleMoverClaimsOverlappingCoin(t *testing.T) {
	r := NewResolver(testArea)
	bodies := []Body{player(0, 0), coin(5, 0), coin(200, 0)}
	res := r.Resolve(bodies, []Mover{{Body: 0}})
	if len(res.Claims) != 1 || res.Claims[0].Coin != 1 {
		t.Errorf("coin spawned on a player should be claimed, got %v", res.Claims)
	}
}

// The broad phase must agree with testing every collider.
func TestResolveMatchesFullScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := NewResolver(testArea)
	for round := 0; round < 200; round++ {
		var bodies []Body
		for i := 0; i < 30; i++ {
			x := rng.Float64()*2400 - 1200
			y := rng.Float64()*1400 - 700
			bodies = append(bodies, wall(x, y, 10+rng.Float64()*150, 10+rng.Float64()*150))
		}
		bodies = append(bodies, player(rng.Float64()*200-100, rng.Float64()*200-100))
		mi := len(bodies) - 1
		delta := Vec2{X: rng.Float64()*20 - 10, Y: rng.Float64()*20 - 10}

		got := r.Resolve(bodies, []Mover{{Body: mi, Delta: delta}}).Moves[0]
		want := fullScan(bodies, mi, delta)
		if got != want {
			t.Fatalf("round %d: grid %v, full scan %v", round, got, want)
		}
	}
}

func fullScan(bodies []Body, mi int, d Vec2) Vec2 {
	m := bodies[mi]
	mx, my := 1.0, 1.0
	for i, b := range bodies {
		if i == mi || !b.Collider.CollidesWithPlayer {
			continue
		}
		if Overlaps(Vec2{X: m.Pos.X + d.X, Y: m.Pos.Y}, m.Collider.Size, b.Pos, b.Collider.Size) {
			mx = 0
		}
		if Overlaps(Vec2{X: m.Pos.X, Y: m.Pos.Y + d.Y}, m.Collider.Size, b.Pos, b.Collider.Size) {
			my = 0
		}
	}
	return Vec2{X: d.X * mx, Y: d.Y * my}
}

func TestWrap(t *testing.T) {
	area := Vec2{X: 100, Y: 50}
	cases := []struct{ in, want Vec2 }{
		{Vec2{X: 0, Y: 0}, Vec2{X: 0, Y: 0}},
		{Vec2{X: 60, Y: 0}, Vec2{X: -40, Y: 0}},
		{Vec2{X: -60, Y: 30}, Vec2{X: 40, Y: -20}},
		{Vec2{X: 49, Y: -24}, Vec2{X: 49, Y: -24}},
	}
	for _, c := range cases {
		if got := Wrap(c.in, area); got != c.want {
			t.Errorf("Wrap(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
