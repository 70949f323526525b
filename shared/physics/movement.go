package physics

import "math"

// Body is a collider taking part in a movement pass, at its position from
// the start of the tick.
type Body struct {
	Pos      Vec2
	Collider Collider
	Coin     bool
}

// Mover asks for Body to be displaced by Delta this tick.
type Mover struct {
	Body  int
	Delta Vec2
}

// CoinClaim records that the mover body touched the coin body.
type CoinClaim struct {
	Mover int
	Coin  int
}

// Resolution holds the displacement granted to each mover (parallel to the
// movers slice) and the coins claimed during the pass.
type Resolution struct {
	Moves  []Vec2
	Claims []CoinClaim
}

// Resolver resolves axis-separated movement against a set of bodies. It
// keeps its broad-phase grid and scratch buffers between passes.
type Resolver struct {
	grid *Grid
	buf  []int
}

// NewResolver creates a resolver whose broad phase covers area (centred on
// the origin).
func NewResolver(area Vec2) *Resolver {
	return &Resolver{grid: NewGrid(area, DefaultCellSize)}
}

// Resolve runs one movement pass. Each axis is tested on its own: a blocking
// collider zeroes that axis, a coin is claimed instead of blocking. A coin
// claimed by an earlier mover is gone for later ones. Positions in bodies
// are never modified.
func (r *Resolver) Resolve(bodies []Body, movers []Mover) Resolution {
	res := Resolution{Moves: make([]Vec2, len(movers))}
	if len(movers) == 0 {
		return res
	}

	r.grid.Clear()
	for i, b := range bodies {
		if !b.Collider.CollidesWithPlayer {
			continue
		}
		r.grid.InsertBox(b.Pos, b.Collider.Size, i)
	}

	consumed := make(map[int]bool)
	for mi, m := range movers {
		mover := bodies[m.Body]
		stepX := Vec2{X: mover.Pos.X + m.Delta.X, Y: mover.Pos.Y}
		stepY := Vec2{X: mover.Pos.X, Y: mover.Pos.Y + m.Delta.Y}
		maskX, maskY := 1.0, 1.0

		reach := Vec2{
			X: mover.Collider.Size.X + 2*math.Abs(m.Delta.X),
			Y: mover.Collider.Size.Y + 2*math.Abs(m.Delta.Y),
		}
		r.buf = r.grid.QueryBox(mover.Pos, reach, r.buf[:0])

		blocked := false
		for _, ci := range r.buf {
			if ci == m.Body || consumed[ci] {
				continue
			}
			other := bodies[ci]

			if Overlaps(stepX, mover.Collider.Size, other.Pos, other.Collider.Size) {
				if other.Coin {
					consumed[ci] = true
					res.Claims = append(res.Claims, CoinClaim{Mover: m.Body, Coin: ci})
					continue
				}
				maskX = 0
			}
			if Overlaps(stepY, mover.Collider.Size, other.Pos, other.Collider.Size) {
				if other.Coin {
					consumed[ci] = true
					res.Claims = append(res.Claims, CoinClaim{Mover: m.Body, Coin: ci})
					continue
				}
				maskY = 0
			}
			if maskX == 0 && maskY == 0 {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		res.Moves[mi] = Vec2{X: m.Delta.X * maskX, Y: m.Delta.Y * maskY}
	}
	return res
}

// Wrap folds pos back into the rectangle of the given size centred on the
// origin.
func Wrap(pos, area Vec2) Vec2 {
	return Vec2{X: wrapAxis(pos.X, area.X), Y: wrapAxis(pos.Y, area.Y)}
}

func wrapAxis(v, size float64) float64 {
	if size <= 0 {
		return v
	}
	half := size / 2
	m := math.Mod(v+half, size)
	if m < 0 {
		m += size
	}
	return m - half
}
