package client

import (
	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

type TransformData struct {
	Pos   physics.Vec2
	Z     float64
	Angle float64
	Scale float64
}

type PlayerData struct {
	ClientID   protocol.ClientID
	Server     protocol.EntityID
	Score      int64
	Ready      bool
	Controlled bool
}

type FacingData struct {
	Dir physics.Vec2
}

type ObjectData struct {
	Kind physics.ObjectKind
}

var (
	Transform = donburi.NewComponentType[TransformData]()
	Collider  = donburi.NewComponentType[physics.Collider]()
	Player    = donburi.NewComponentType[PlayerData]()
	Facing    = donburi.NewComponentType[FacingData]()
	Object    = donburi.NewComponentType[ObjectData]()

	CoinTag       = donburi.NewTag().SetName("Coin")
	ProjectileTag = donburi.NewTag().SetName("Projectile")
)
