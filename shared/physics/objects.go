package physics

// ObjectKind identifies a static world object. The numeric values are the
// ids carried by SpawnGameObject.
type ObjectKind uint64

const (
	KindDirtPatch ObjectKind = iota
	KindPond
	KindTree
	KindWallSmall
	KindWallWide
	KindWallTall
	KindWallTower
)

// WallKindCount is the number of wall variants following KindWallSmall.
const WallKindCount = 4

const wallScale = 1.5

var objectColliders = [...]Collider{
	KindDirtPatch: {},
	KindPond:      {Size: Vec2{X: 110, Y: 80}, CollidesWithPlayer: true},
	KindTree:      {Size: Vec2{X: 26, Y: 30}, CollidesWithPlayer: true, CollidesWithProjectile: true},
	KindWallSmall: {Size: Vec2{X: 64 * wallScale, Y: 48 * wallScale}, CollidesWithPlayer: true, CollidesWithProjectile: true},
	KindWallWide:  {Size: Vec2{X: 94 * wallScale, Y: 48 * wallScale}, CollidesWithPlayer: true, CollidesWithProjectile: true},
	KindWallTall:  {Size: Vec2{X: 32 * wallScale, Y: 80 * wallScale}, CollidesWithPlayer: true, CollidesWithProjectile: true},
	KindWallTower: {Size: Vec2{X: 32 * wallScale, Y: 114 * wallScale}, CollidesWithPlayer: true, CollidesWithProjectile: true},
}

// ObjectCollider returns the collider for kind. Unknown kinds get an empty
// collider and ok=false.
func ObjectCollider(kind ObjectKind) (c Collider, ok bool) {
	if uint64(kind) >= uint64(len(objectColliders)) {
		return Collider{}, false
	}
	return objectColliders[kind], true
}

func (k ObjectKind) String() string {
	switch k {
	case KindDirtPatch:
		return "dirt"
	case KindPond:
		return "pond"
	case KindTree:
		return "tree"
	case KindWallSmall, KindWallWide, KindWallTall, KindWallTower:
		return "wall"
	}
	return "unknown"
}
