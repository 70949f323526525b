// Package client mirrors the server's authoritative state for rendering. It
// applies reliable lifecycle messages and unreliable snapshots, keeping a
// mapping from server entity ids to local entities.
package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

// LobbyEntry pairs a client's local player entity with the server's id for
// it.
type LobbyEntry struct {
	Local  donburi.Entity
	Server protocol.EntityID
}

// PlayerView is a read-only copy of a mirrored player.
type PlayerView struct {
	ClientID   protocol.ClientID
	Entity     protocol.EntityID
	Pos        physics.Vec2
	Z          float64
	Facing     physics.Vec2
	Score      int64
	Scale      float64
	Ready      bool
	Controlled bool
}

// Mirror is the client-side replica of one lobby.
type Mirror struct {
	mu         sync.Mutex
	world      donburi.World
	self       protocol.ClientID
	mapping    map[protocol.EntityID]donburi.Entity
	lobby      map[protocol.ClientID]LobbyEntry
	controlled protocol.EntityID
	screen     Screen
	lastTick   uint64
	haveTick   bool
	warned     map[protocol.EntityID]struct{}

	render RenderSink
	ui     UISink
	log    *zap.Logger
}

type Option func(*Mirror)

func WithRenderSink(r RenderSink) Option { return func(m *Mirror) { m.render = r } }
func WithUISink(u UISink) Option         { return func(m *Mirror) { m.ui = u } }
func WithLogger(l *zap.Logger) Option    { return func(m *Mirror) { m.log = l } }

// NewMirror creates a mirror for the client self, starting in the lobby.
func NewMirror(self protocol.ClientID, opts ...Option) *Mirror {
	m := &Mirror{
		world:   donburi.NewWorld(),
		self:    self,
		mapping: make(map[protocol.EntityID]donburi.Entity),
		lobby:   make(map[protocol.ClientID]LobbyEntry),
		screen:  ScreenLobby,
		warned:  make(map[protocol.EntityID]struct{}),
		render:  nopRender{},
		ui:      nopUI{},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// HandleFrame decodes one frame and applies it. Malformed frames return a
// ProtocolError and change nothing; messages naming unknown entities are
// skipped.
func (m *Mirror) HandleFrame(frame []byte) error {
	ch, payload, err := protocol.DecodeFrame(frame)
	if err != nil {
		return err
	}
	switch protocol.ServerChannel(ch) {
	case protocol.ChannelServerMessages:
		msg, err := protocol.DecodeServerMessage(payload)
		if err != nil {
			return err
		}
		if err := m.ApplyMessage(msg); err != nil && !errors.Is(err, protocol.ErrStateInconsistency) {
			return err
		}
		return nil
	case protocol.ChannelNetworkedEntities:
		snap, err := protocol.DecodeSnapshot(payload)
		if err != nil {
			return err
		}
		m.ApplySnapshot(snap)
		return nil
	}
	return &protocol.ProtocolError{Op: "handle frame", Err: protocol.ErrUnknownChannel}
}

// ApplyMessage applies one lifecycle message.
func (m *Mirror) ApplyMessage(msg protocol.ServerMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch v := msg.(type) {
	case protocol.PlayerCreate:
		m.createPlayer(v)
	case protocol.PlayerRemove:
		if entry, ok := m.lobby[v.ID]; ok {
			delete(m.lobby, v.ID)
			m.remove(entry.Server)
		}
	case protocol.SpawnProjectile:
		m.spawnMapped(v.Entity, v.Translation, v.Angle, physics.ProjectileCollider(), ProjectileTag, VisualProjectile)
	case protocol.SpawnCoin:
		m.spawnMapped(v.Entity, v.Translation, 0, physics.CoinCollider(), CoinTag, VisualCoin)
	case protocol.SpawnGameObject:
		return m.spawnObject(v)
	case protocol.DespawnEntity:
		if !m.remove(v.Entity) {
			return m.inconsistent(v.Entity, "despawn")
		}
	case protocol.SetPlayerReady:
		local, ok := m.mapping[v.Entity]
		if !ok || !m.world.Valid(local) {
			return m.inconsistent(v.Entity, "set ready")
		}
		entry := m.world.Entry(local)
		if !entry.HasComponent(Player) {
			return m.inconsistent(v.Entity, "set ready")
		}
		p := Player.Get(entry)
		p.Ready = v.IsReady
		m.ui.ReadyChanged(p.ClientID, v.IsReady)
	case protocol.StartGame:
		m.setScreen(ScreenGameplay)
	case protocol.EndGame:
		m.ui.GameOver(v)
		m.setScreen(ScreenLobby)
	}
	return nil
}

func (m *Mirror) createPlayer(v protocol.PlayerCreate) {
	if old, ok := m.lobby[v.ID]; ok {
		delete(m.lobby, v.ID)
		m.remove(old.Server)
	}
	if _, dup := m.mapping[v.Entity]; dup {
		m.log.Warn("duplicate player entity", zap.Uint64("entity", v.Entity))
		return
	}
	controlled := v.ID == m.self

	e := m.world.Create(Transform, Collider, Player, Facing)
	entry := m.world.Entry(e)
	Transform.Set(entry, &TransformData{Pos: physics.Vec2{X: float64(v.Translation[0]), Y: float64(v.Translation[1])}, Z: float64(v.Translation[2]), Scale: 1})
	c := physics.PlayerCollider(0)
	Collider.Set(entry, &c)
	Player.Set(entry, &PlayerData{ClientID: v.ID, Server: v.Entity, Ready: v.IsReady, Controlled: controlled})
	Facing.Set(entry, &FacingData{Dir: physics.Vec2{Y: 1}})

	m.mapping[v.Entity] = e
	m.lobby[v.ID] = LobbyEntry{Local: e, Server: v.Entity}
	if controlled {
		m.controlled = v.Entity
	}
	m.render.Spawn(e, Visual{Kind: VisualPlayer, Translation: v.Translation, Controlled: controlled})
}

func (m *Mirror) spawnMapped(id protocol.EntityID, t protocol.Translation, angle float32, c physics.Collider, tag donburi.IComponentType, kind VisualKind) {
	if _, dup := m.mapping[id]; dup {
		return
	}
	e := m.world.Create(Transform, Collider, tag)
	entry := m.world.Entry(e)
	Transform.Set(entry, &TransformData{
		Pos:   physics.Vec2{X: float64(t[0]), Y: float64(t[1])},
		Z:     float64(t[2]),
		Angle: float64(angle),
		Scale: 1,
	})
	Collider.Set(entry, &c)
	m.mapping[id] = e
	m.render.Spawn(e, Visual{Kind: kind, Translation: t, Angle: float64(angle)})
}

// spawnObject adds a static object. Unknown kinds are rejected.
func (m *Mirror) spawnObject(v protocol.SpawnGameObject) error {
	kind := physics.ObjectKind(v.Kind)
	c, ok := physics.ObjectCollider(kind)
	if !ok {
		m.log.Warn("unknown object kind", zap.Uint64("kind", v.Kind))
		return &protocol.ProtocolError{Op: "spawn game object", Err: fmt.Errorf("unknown kind %d", v.Kind)}
	}
	e := m.world.Create(Transform, Collider, Object)
	entry := m.world.Entry(e)
	Transform.Set(entry, &TransformData{
		Pos:   physics.Vec2{X: float64(v.Translation[0]), Y: float64(v.Translation[1])},
		Z:     float64(v.Translation[2]),
		Scale: 1,
	})
	Collider.Set(entry, &c)
	Object.Set(entry, &ObjectData{Kind: kind})
	m.render.Spawn(e, Visual{Kind: VisualObject, Object: kind, Translation: v.Translation})
	return nil
}

// remove despawns the local entity mapped to id, reporting whether one
// existed.
func (m *Mirror) remove(id protocol.EntityID) bool {
	local, ok := m.mapping[id]
	if !ok {
		return false
	}
	delete(m.mapping, id)
	if id == m.controlled {
		m.controlled = 0
	}
	if m.world.Valid(local) {
		m.world.Remove(local)
	}
	m.render.Despawn(local)
	return true
}

func (m *Mirror) inconsistent(id protocol.EntityID, op string) error {
	err := &protocol.StateInconsistency{Entity: id, Op: op}
	if _, seen := m.warned[id]; !seen {
		m.warned[id] = struct{}{}
		m.log.Debug("unknown entity", zap.Uint64("entity", id), zap.String("op", op))
	}
	return err
}

func (m *Mirror) setScreen(s Screen) {
	if m.screen == s {
		return
	}
	m.screen = s
	m.ui.ScreenChanged(s)
}

// ApplySnapshot copies positions, facing and scores onto mapped entities.
// Snapshots older than the last applied one are dropped and unmapped ids
// are skipped. It returns how many entities were updated.
func (m *Mirror) ApplySnapshot(s *protocol.NetworkedEntities) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.haveTick && s.Tick < m.lastTick {
		return 0
	}
	m.haveTick = true
	m.lastTick = s.Tick

	applied := 0
	for i, id := range s.Entities {
		local, ok := m.mapping[id]
		if !ok || !m.world.Valid(local) {
			if _, seen := m.warned[id]; !seen {
				m.warned[id] = struct{}{}
				m.log.Debug("snapshot for unmapped entity", zap.Uint64("entity", id))
			}
			continue
		}
		entry := m.world.Entry(local)
		t := Transform.Get(entry)
		tr := s.Translations[i]
		t.Pos = physics.Vec2{X: float64(tr[0]), Y: float64(tr[1])}
		t.Z = float64(tr[2])

		if f := s.Facing[i]; f != nil && entry.HasComponent(Facing) {
			Facing.Get(entry).Dir = physics.Vec2{X: float64(f[0]), Y: float64(f[1])}
		}
		if sc := s.Scores[i]; sc != nil && entry.HasComponent(Player) {
			p := Player.Get(entry)
			changed := p.Score != *sc
			p.Score = *sc
			t.Scale = physics.ScaleFor(*sc)
			c := physics.PlayerCollider(*sc)
			Collider.Set(entry, &c)
			if changed && p.Controlled {
				m.ui.ScoreChanged(*sc)
			}
		}
		applied++
	}
	return applied
}

// ReturnToTitle leaves the lobby locally, e.g. after the connection drops.
func (m *Mirror) ReturnToTitle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setScreen(ScreenTitle)
}

func (m *Mirror) Screen() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screen
}

// Self returns the id of the local client.
func (m *Mirror) Self() protocol.ClientID { return m.self }

// Player returns the mirrored player of a client.
func (m *Mirror) Player(id protocol.ClientID) (PlayerView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	le, ok := m.lobby[id]
	if !ok || !m.world.Valid(le.Local) {
		return PlayerView{}, false
	}
	return m.playerView(m.world.Entry(le.Local)), true
}

// Controlled returns the local client's own player.
func (m *Mirror) Controlled() (PlayerView, bool) {
	return m.Player(m.self)
}

func (m *Mirror) playerView(entry *donburi.Entry) PlayerView {
	p := Player.Get(entry)
	t := Transform.Get(entry)
	return PlayerView{
		ClientID:   p.ClientID,
		Entity:     p.Server,
		Pos:        t.Pos,
		Z:          t.Z,
		Facing:     Facing.Get(entry).Dir,
		Score:      p.Score,
		Scale:      t.Scale,
		Ready:      p.Ready,
		Controlled: p.Controlled,
	}
}

// Lobby returns a copy of the lobby table.
func (m *Mirror) Lobby() map[protocol.ClientID]LobbyEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[protocol.ClientID]LobbyEntry, len(m.lobby))
	for k, v := range m.lobby {
		out[k] = v
	}
	return out
}

// Mapped reports whether a server entity has a local counterpart.
func (m *Mirror) Mapped(id protocol.EntityID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.mapping[id]
	return ok
}

// Position returns the mirrored position of a server entity.
func (m *Mirror) Position(id protocol.EntityID) (physics.Vec2, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	local, ok := m.mapping[id]
	if !ok || !m.world.Valid(local) {
		return physics.Vec2{}, false
	}
	return Transform.Get(m.world.Entry(local)).Pos, true
}

// Counts reports how many coins, projectiles and static objects are
// mirrored.
func (m *Mirror) Counts() (coins, projectiles, objects int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	CoinTag.Each(m.world, func(*donburi.Entry) { coins++ })
	ProjectileTag.Each(m.world, func(*donburi.Entry) { projectiles++ })
	Object.Each(m.world, func(*donburi.Entry) { objects++ })
	return
}
