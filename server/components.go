package main

import (
	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

// TransformData is an entity's position, depth layer and sprite rotation.
type TransformData struct {
	Pos   physics.Vec2
	Z     float64
	Angle float64
}

func (t TransformData) Translation() protocol.Translation {
	return protocol.Translation{float32(t.Pos.X), float32(t.Pos.Y), float32(t.Z)}
}

// NetworkedData carries the id clients know the entity by.
type NetworkedData struct {
	ID protocol.EntityID
}

type PlayerData struct {
	ClientID protocol.ClientID
	Score    int64
	Ready    bool
	Bot      bool
}

// MovementData holds the latest input and the intent derived from it.
type MovementData struct {
	Input    protocol.PlayerInput
	Intent   physics.Vec2
	MaxSpeed float64
}

type FacingData struct {
	Dir physics.Vec2
}

type ProjectileData struct {
	Speed float64
	Dir   physics.Vec2
	Owner donburi.Entity
	Age   float64
}

type BotData struct {
	AutoCast *Timer
}

type StaticObjectData struct {
	Kind physics.ObjectKind
}

var (
	Transform    = donburi.NewComponentType[TransformData]()
	Collider     = donburi.NewComponentType[physics.Collider]()
	Networked    = donburi.NewComponentType[NetworkedData]()
	Player       = donburi.NewComponentType[PlayerData]()
	Movement     = donburi.NewComponentType[MovementData]()
	Facing       = donburi.NewComponentType[FacingData]()
	Projectile   = donburi.NewComponentType[ProjectileData]()
	Bot          = donburi.NewComponentType[BotData]()
	StaticObject = donburi.NewComponentType[StaticObjectData]()

	CoinTag       = donburi.NewTag().SetName("Coin")
	ScreenWrapTag = donburi.NewTag().SetName("ScreenWrap")
)
