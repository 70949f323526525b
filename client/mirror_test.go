package client

import (
	"errors"
	"math"
	"testing"

	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

type recordingSink struct {
	spawned   map[donburi.Entity]Visual
	despawned []donburi.Entity
	ready     map[protocol.ClientID]bool
	scores    []int64
	screens   []Screen
	results   []protocol.EndGame
}

func newRecordingSink() *recordingSink {
	return &recordingSink{spawned: map[donburi.Entity]Visual{}, ready: map[protocol.ClientID]bool{}}
}

func (r *recordingSink) Spawn(e donburi.Entity, v Visual)          { r.spawned[e] = v }
func (r *recordingSink) Despawn(e donburi.Entity)                  { r.despawned = append(r.despawned, e) }
func (r *recordingSink) ReadyChanged(id protocol.ClientID, b bool) { r.ready[id] = b }
func (r *recordingSink) ScoreChanged(s int64)                      { r.scores = append(r.scores, s) }
func (r *recordingSink) ScreenChanged(s Screen)                    { r.screens = append(r.screens, s) }
func (r *recordingSink) GameOver(g protocol.EndGame)               { r.results = append(r.results, g) }

func newTestMirror(self protocol.ClientID) (*Mirror, *recordingSink) {
	sink := newRecordingSink()
	return NewMirror(self, WithRenderSink(sink), WithUISink(sink)), sink
}

func score(v int64) *int64 { return &v }

func TestPlayerCreateMapsEntity(t *testing.T) {
	m, sink := newTestMirror(7)
	m.ApplyMessage(protocol.PlayerCreate{Entity: 10, ID: 7, Translation: protocol.Translation{250, 0, 8}})
	m.ApplyMessage(protocol.PlayerCreate{Entity: 11, ID: 8, Translation: protocol.Translation{-250, 0, 8}, IsReady: true})

	if !m.Mapped(10) || !m.Mapped(11) {
		t.Fatal("both players should be mapped")
	}
	if len(m.Lobby()) != 2 {
		t.Errorf("expected 2 lobby entries, got %d", len(m.Lobby()))
	}
	me, ok := m.Controlled()
	if !ok || me.Entity != 10 || !me.Controlled {
		t.Errorf("expected to control entity 10, got %+v", me)
	}
	other, _ := m.Player(8)
	if other.Controlled || !other.Ready {
		t.Errorf("unexpected other player %+v", other)
	}
	if len(sink.spawned) != 2 {
		t.Errorf("expected 2 visuals, got %d", len(sink.spawned))
	}
}

func TestPlayerRemoveUnmaps(t *testing.T) {
	m, sink := newTestMirror(7)
	m.ApplyMessage(protocol.PlayerCreate{Entity: 10, ID: 8})
	m.ApplyMessage(protocol.PlayerRemove{ID: 8})

	if m.Mapped(10) {
		t.Error("removed player should be unmapped")
	}
	if len(m.Lobby()) != 0 {
		t.Error("lobby should be empty")
	}
	if len(sink.despawned) != 1 {
		t.Errorf("expected 1 despawn, got %d", len(sink.despawned))
	}

	// Removing again is harmless
	if err := m.ApplyMessage(protocol.PlayerRemove{ID: 8}); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDespawnUnknownIsIgnored(t *testing.T) {
	m, _ := newTestMirror(1)
	err := m.ApplyMessage(protocol.DespawnEntity{Entity: 99})
	if !errors.Is(err, protocol.ErrStateInconsistency) {
		t.Errorf("expected state inconsistency, got %v", err)
	}
}

func TestCoinAndProjectileLifecycle(t *testing.T) {
	m, _ := newTestMirror(1)
	m.ApplyMessage(protocol.SpawnCoin{Entity: 5, Translation: protocol.Translation{1, 2, 3}})
	m.ApplyMessage(protocol.SpawnProjectile{Entity: 6, Translation: protocol.Translation{0, 20, 10}, Angle: 0.5})
	coins, projectiles, _ := m.Counts()
	if coins != 1 || projectiles != 1 {
		t.Fatalf("expected 1 coin and 1 projectile, got %d %d", coins, projectiles)
	}

	m.ApplyMessage(protocol.DespawnEntity{Entity: 5})
	m.ApplyMessage(protocol.DespawnEntity{Entity: 6})
	coins, projectiles, _ = m.Counts()
	if coins != 0 || projectiles != 0 {
		t.Errorf("expected everything despawned, got %d %d", coins, projectiles)
	}
	if m.Mapped(5) || m.Mapped(6) {
		t.Error("despawned ids should be unmapped")
	}
}

func TestSpawnGameObject(t *testing.T) {
	m, sink := newTestMirror(1)
	m.ApplyMessage(protocol.SpawnGameObject{Kind: uint64(physics.KindTree), Translation: protocol.Translation{300, 0, 3}})
	_, _, objects := m.Counts()
	if objects != 1 {
		t.Fatalf("expected 1 object, got %d", objects)
	}
	for _, v := range sink.spawned {
		if v.Kind != VisualObject || v.Object != physics.KindTree {
			t.Errorf("unexpected visual %+v", v)
		}
	}
}

func TestSetPlayerReady(t *testing.T) {
	m, sink := newTestMirror(1)
	m.ApplyMessage(protocol.PlayerCreate{Entity: 3, ID: 1})
	m.ApplyMessage(protocol.SetPlayerReady{Entity: 3, IsReady: true})

	p, _ := m.Player(1)
	if !p.Ready {
		t.Error("player should be ready")
	}
	if !sink.ready[1] {
		t.Error("ui should be told the player is ready")
	}

	if err := m.ApplyMessage(protocol.SetPlayerReady{Entity: 40, IsReady: true}); !errors.Is(err, protocol.ErrStateInconsistency) {
		t.Errorf("expected state inconsistency for unknown entity, got %v", err)
	}
}

func TestScreenTransitions(t *testing.T) {
	m, sink := newTestMirror(1)
	if m.Screen() != ScreenLobby {
		t.Fatalf("expected lobby, got %s", m.Screen())
	}
	m.ApplyMessage(protocol.StartGame{})
	m.ApplyMessage(protocol.StartGame{})
	if m.Screen() != ScreenGameplay {
		t.Errorf("expected gameplay, got %s", m.Screen())
	}
	if len(sink.screens) != 1 {
		t.Errorf("repeated StartGame should change screen once, got %v", sink.screens)
	}

	m.ApplyMessage(protocol.EndGame{Winner: 1, Score: 4, HasWinner: true})
	if m.Screen() != ScreenLobby || len(sink.results) != 1 {
		t.Errorf("EndGame should return to lobby, got %s", m.Screen())
	}

	m.ReturnToTitle()
	if m.Screen() != ScreenTitle {
		t.Errorf("expected title, got %s", m.Screen())
	}
}

func TestSnapshotUpdatesMappedEntities(t *testing.T) {
	m, sink := newTestMirror(1)
	m.ApplyMessage(protocol.PlayerCreate{Entity: 3, ID: 1})

	var s protocol.NetworkedEntities
	s.Tick = 10
	s.Append(3, protocol.Translation{40, -20, 8}, &[2]float32{1, 0}, score(3))
	s.Append(77, protocol.Translation{1, 1, 1}, nil, nil) // unmapped
	if n := m.ApplySnapshot(&s); n != 1 {
		t.Errorf("expected 1 entity updated, got %d", n)
	}

	p, _ := m.Player(1)
	if p.Pos.X != 40 || p.Pos.Y != -20 {
		t.Errorf("unexpected position %v", p.Pos)
	}
	if p.Facing.X != 1 || p.Facing.Y != 0 {
		t.Errorf("unexpected facing %v", p.Facing)
	}
	if p.Score != 3 || math.Abs(p.Scale-1.3) > 1e-9 {
		t.Errorf("expected score 3 and scale 1.3, got %d %f", p.Score, p.Scale)
	}
	if len(sink.scores) != 1 || sink.scores[0] != 3 {
		t.Errorf("expected score HUD update, got %v", sink.scores)
	}
}

func TestSnapshotWithoutScoreKeepsScale(t *testing.T) {
	m, _ := newTestMirror(1)
	m.ApplyMessage(protocol.PlayerCreate{Entity: 3, ID: 1})
	var s protocol.NetworkedEntities
	s.Tick = 1
	s.Append(3, protocol.Translation{5, 5, 8}, nil, nil)
	m.ApplySnapshot(&s)

	p, _ := m.Player(1)
	if p.Scale != 1 || p.Score != 0 {
		t.Errorf("absent score should leave the player unchanged, got %+v", p)
	}
	if p.Facing.Y != 1 {
		t.Errorf("absent facing should keep the default, got %v", p.Facing)
	}
}

func TestStaleSnapshotDropped(t *testing.T) {
	m, _ := newTestMirror(1)
	m.ApplyMessage(protocol.PlayerCreate{Entity: 3, ID: 1})

	newer := protocol.NetworkedEntities{Tick: 20}
	newer.Append(3, protocol.Translation{100, 0, 8}, nil, nil)
	older := protocol.NetworkedEntities{Tick: 18}
	older.Append(3, protocol.Translation{50, 0, 8}, nil, nil)

	m.ApplySnapshot(&newer)
	if n := m.ApplySnapshot(&older); n != 0 {
		t.Errorf("older snapshot should be dropped, applied %d", n)
	}
	pos, _ := m.Position(3)
	if pos.X != 100 {
		t.Errorf("expected position from newer snapshot, got %v", pos)
	}
}

func TestHandleFrameRejectsGarbage(t *testing.T) {
	m, _ := newTestMirror(1)
	if err := m.HandleFrame(nil); !errors.Is(err, protocol.ErrProtocol) {
		t.Errorf("empty frame: expected protocol error, got %v", err)
	}
	if err := m.HandleFrame([]byte{9, 0x80}); !errors.Is(err, protocol.ErrUnknownChannel) {
		t.Errorf("unknown channel: expected error, got %v", err)
	}
	if err := m.HandleFrame([]byte{uint8(protocol.ChannelServerMessages), 0xc1}); !errors.Is(err, protocol.ErrProtocol) {
		t.Errorf("garbage payload: expected protocol error, got %v", err)
	}
}

func TestHandleFrameAppliesMessage(t *testing.T) {
	m, _ := newTestMirror(1)
	b, _ := protocol.EncodeServerMessage(protocol.SpawnCoin{Entity: 4, Translation: protocol.Translation{1, 1, 3}})
	if err := m.HandleFrame(protocol.EncodeFrame(uint8(protocol.ChannelServerMessages), b)); err != nil {
		t.Fatal(err)
	}
	if !m.Mapped(4) {
		t.Error("coin should be mapped")
	}
	// Despawning an unknown entity through a frame is not an error.
	b, _ = protocol.EncodeServerMessage(protocol.DespawnEntity{Entity: 1234})
	if err := m.HandleFrame(protocol.EncodeFrame(uint8(protocol.ChannelServerMessages), b)); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestJoinURL(t *testing.T) {
	u, err := JoinURL("ws://localhost:5000/ws", 42)
	if err != nil {
		t.Fatal(err)
	}
	if u != "ws://localhost:5000/ws?client_id=42&protocol=7" {
		t.Errorf("unexpected url %s", u)
	}
}

func TestHandleFrameRejectsUnknownObjectKind(t *testing.T) {
	m, sink := newTestMirror(1)
	for _, kind := range []uint64{uint64(physics.KindWallTower) + 1, 1 << 63, math.MaxUint64} {
		b, err := protocol.EncodeServerMessage(protocol.SpawnGameObject{Kind: kind, Translation: protocol.Translation{1, 2, 3}})
		if err != nil {
			t.Fatal(err)
		}
		err = m.HandleFrame(protocol.EncodeFrame(uint8(protocol.ChannelServerMessages), b))
		if !errors.Is(err, protocol.ErrProtocol) {
			t.Errorf("kind %d: expected protocol error, got %v", kind, err)
		}
	}
	if _, _, objects := m.Counts(); objects != 0 {
		t.Errorf("unknown kinds should not create objects, got %d", objects)
	}
	if len(sink.spawned) != 0 {
		t.Errorf("unknown kinds should not reach the renderer, got %d", len(sink.spawned))
	}
}
