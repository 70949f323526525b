package physics

import (
	"math"

	dmath "github.com/yohamta/donburi/features/math"
)

// Vec2 is the planar vector used for positions, sizes and directions.
type Vec2 = dmath.Vec2

// Collider is an axis-aligned box centred on its owner's position.
type Collider struct {
	Size                   Vec2 // full width and height
	CollidesWithPlayer     bool
	CollidesWithProjectile bool
}

var (
	PlayerBaseSize     = Vec2{X: 14, Y: 24}
	ProjectileSize     = Vec2{X: 12, Y: 18}
	CoinSize           = Vec2{X: 20, Y: 24}
	PlayerGrowthFactor = 0.1
)

// Overlaps reports whether the boxes centred at aPos and bPos intersect.
// Shared edges or corners do not count, and a box with zero width or
// height never overlaps anything.
func Overlaps(aPos, aSize, bPos, bSize Vec2) bool {
	if aSize.X <= 0 || aSize.Y <= 0 || bSize.X <= 0 || bSize.Y <= 0 {
		return false
	}
	aMinX, aMaxX := aPos.X-aSize.X/2, aPos.X+aSize.X/2
	aMinY, aMaxY := aPos.Y-aSize.Y/2, aPos.Y+aSize.Y/2
	bMinX, bMaxX := bPos.X-bSize.X/2, bPos.X+bSize.X/2
	bMinY, bMaxY := bPos.Y-bSize.Y/2, bPos.Y+bSize.Y/2
	return aMinX < bMaxX && aMaxX > bMinX && aMinY < bMaxY && aMaxY > bMinY
}

// ScaleFor returns the growth multiplier a player of the given score has.
func ScaleFor(score int64) float64 {
	return 1 + PlayerGrowthFactor*float64(score)
}

// PlayerCollider returns the collider of a player carrying score coins.
func PlayerCollider(score int64) Collider {
	s := ScaleFor(score)
	return Collider{
		Size:                   Vec2{X: PlayerBaseSize.X * s, Y: PlayerBaseSize.Y * s},
		CollidesWithPlayer:     true,
		CollidesWithProjectile: true,
	}
}

func ProjectileCollider() Collider {
	return Collider{Size: ProjectileSize, CollidesWithPlayer: true, CollidesWithProjectile: true}
}

func CoinCollider() Collider {
	return Collider{Size: CoinSize, CollidesWithPlayer: true}
}

// Normalize returns v scaled to unit length, or the zero vector.
func Normalize(v Vec2) Vec2 {
	l := math.Hypot(v.X, v.Y)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Angle returns the sprite rotation for a unit direction, where zero
// faces +Y.
func Angle(dir Vec2) float64 {
	return math.Atan2(dir.Y, dir.X) - math.Pi/2
}
