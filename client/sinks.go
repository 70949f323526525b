package client

import (
	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

// Screen is the client's top-level state.
type Screen int

const (
	ScreenTitle Screen = iota
	ScreenLobby
	ScreenGameplay
)

func (s Screen) String() string {
	switch s {
	case ScreenTitle:
		return "title"
	case ScreenLobby:
		return "lobby"
	case ScreenGameplay:
		return "gameplay"
	}
	return "unknown"
}

type VisualKind int

const (
	VisualPlayer VisualKind = iota
	VisualProjectile
	VisualCoin
	VisualObject
)

// Visual describes something the renderer should draw. Object is set for
// VisualObject only.
type Visual struct {
	Kind        VisualKind
	Object      physics.ObjectKind
	Translation protocol.Translation
	Angle       float64
	Controlled  bool
}

// RenderSink receives spawn and despawn notifications for visuals. Per-tick
// transforms are read from the mirror.
type RenderSink interface {
	Spawn(local donburi.Entity, v Visual)
	Despawn(local donburi.Entity)
}

// UISink receives lobby and HUD changes.
type UISink interface {
	ReadyChanged(id protocol.ClientID, ready bool)
	ScoreChanged(score int64)
	ScreenChanged(s Screen)
	GameOver(result protocol.EndGame)
}

type nopRender struct{}

func (nopRender) Spawn(donburi.Entity, Visual) {}
func (nopRender) Despawn(donburi.Entity)       {}

type nopUI struct{}

func (nopUI) ReadyChanged(protocol.ClientID, bool) {}
func (nopUI) ScoreChanged(int64)                   {}
func (nopUI) ScreenChanged(Screen)                 {}
func (nopUI) GameOver(protocol.EndGame)            {}
