package main

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

const (
	TickRate       = 60 // physics ticks per second
	BroadcastRate  = 30 // snapshots per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const (
	PlayerMoveSpeed     = 300.0
	ProjectileMoveSpeed = 500.0
	ProjectileLifetime  = 3.0 // seconds
	CoinSpawnInterval   = 1.2 // seconds
	BotCastInterval     = 1.0 // seconds
	MaxHitPenalty       = 5
	DefaultMaxClients   = 64

	playerLayer        = 8.0
	projectileLayer    = 10.0
	botProjectileLayer = 8.0
	coinLayer          = 3.0
	playerCastOffset   = 20.0
	botCastOffset      = 50.0
	coinScatter        = 200.0
	inboxSize          = 4096
)

var (
	// VisibleArea is the part of the arena coins spawn in.
	VisibleArea = physics.Vec2{X: 1500, Y: 800}
	// WrapArea is where players fold back to the opposite edge.
	WrapArea = physics.Vec2{X: VisibleArea.X + 256, Y: VisibleArea.Y + 256}
)

// Peer is the send side of a connected client.
type Peer interface {
	Send(ch protocol.ServerChannel, payload []byte) error
	Close()
}

// GameConfig tunes a Game. Zero values fall back to defaults.
type GameConfig struct {
	TickRate      int
	BroadcastRate int
	RoundSeconds  float64 // 0 keeps a single endless round
	Seed          int64
}

type eventKind uint8

const (
	evConnect eventKind = iota
	evDisconnect
	evCommand
	evInput
	evSpawnBot
)

type inboundEvent struct {
	kind   eventKind
	client protocol.ClientID
	peer   Peer
	cmd    protocol.PlayerCommand
	input  protocol.PlayerInput
}

// Game owns the authoritative simulation of the single process-wide lobby.
// All mutation happens on the tick goroutine; other goroutines talk to it
// through the inbox.
type Game struct {
	mu       sync.RWMutex
	cfg      GameConfig
	world    donburi.World
	rng      *rand.Rand
	inbox    chan inboundEvent
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{} // closed when Run returns

	phase     Phase
	lobby     map[protocol.ClientID]donburi.Entity
	peers     map[protocol.ClientID]Peer
	tick      uint64
	nextNetID protocol.EntityID
	nextSpawn int
	nextBotID protocol.ClientID

	coinTimer  *Timer
	roundTimer *Timer
	roundID    string

	resolver       *physics.Resolver
	pendingDespawn []protocol.EntityID
	dropped        []protocol.ClientID

	journal Recorder
	metrics *Metrics
}

// NewGame creates a Game and generates its world.
func NewGame(cfg GameConfig, journal Recorder, metrics *Metrics) *Game {
	if cfg.TickRate <= 0 {
		cfg.TickRate = TickRate
	}
	if cfg.BroadcastRate <= 0 || cfg.BroadcastRate > cfg.TickRate {
		cfg.BroadcastRate = BroadcastRate
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if journal == nil {
		journal = nopRecorder{}
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	g := &Game{
		cfg:       cfg,
		world:     donburi.NewWorld(),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		inbox:     make(chan inboundEvent, inboxSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		phase:     PhaseLobby,
		lobby:     make(map[protocol.ClientID]donburi.Entity),
		peers:     make(map[protocol.ClientID]Peer),
		nextNetID: 1,
		coinTimer: NewTimer(CoinSpawnInterval),
		resolver:  physics.NewResolver(WrapArea),
		journal:   journal,
		metrics:   metrics,
	}
	if cfg.RoundSeconds > 0 {
		g.roundTimer = NewTimer(cfg.RoundSeconds)
	}
	for _, obj := range GenerateWorld(g.rng) {
		g.spawnStatic(obj)
	}
	return g
}

// Run starts the game loop
func (g *Game) Run() {
	defer close(g.done)
	ticker := time.NewTicker(time.Second / time.Duration(g.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop. It is safe to call more than once.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// Done is closed once Run has returned and no tick is in flight.
func (g *Game) Done() <-chan struct{} {
	return g.done
}

// Connect queues the arrival of a client.
func (g *Game) Connect(id protocol.ClientID, peer Peer) {
	g.enqueue(inboundEvent{kind: evConnect, client: id, peer: peer})
}

// Disconnect queues the departure of the client behind peer. It is ignored
// unless peer is the one that owns id in the lobby.
func (g *Game) Disconnect(id protocol.ClientID, peer Peer) {
	g.enqueue(inboundEvent{kind: evDisconnect, client: id, peer: peer})
}

// Command queues a command from a client.
func (g *Game) Command(id protocol.ClientID, cmd protocol.PlayerCommand) {
	g.enqueue(inboundEvent{kind: evCommand, client: id, cmd: cmd})
}

// Input records the latest input of a client. When the inbox is full the
// input is dropped; a newer one will follow.
func (g *Game) Input(id protocol.ClientID, in protocol.PlayerInput) {
	select {
	case g.inbox <- inboundEvent{kind: evInput, client: id, input: in}:
	default:
		g.metrics.IncInboxDropped()
	}
}

// SpawnBot queues the creation of a bot player.
func (g *Game) SpawnBot() {
	g.enqueue(inboundEvent{kind: evSpawnBot})
}

func (g *Game) enqueue(ev inboundEvent) {
	select {
	case g.inbox <- ev:
	case <-g.stop:
	}
}

// PlayerCount returns the number of players in the lobby, bots included.
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.lobby)
}

// CurrentPhase returns the lobby phase.
func (g *Game) CurrentPhase() Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// update runs one game tick
func (g *Game) update() {
	start := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	g.drainInbox()
	g.step(1.0 / float64(g.cfg.TickRate))

	if g.tick%uint64(g.cfg.TickRate/g.cfg.BroadcastRate) == 0 {
		g.broadcastSnapshot()
	}
	g.metrics.AddTick(time.Since(start))
}

// drainInbox applies every queued event in arrival order without blocking.
func (g *Game) drainInbox() {
	for {
		select {
		case ev := <-g.inbox:
			g.apply(ev)
		default:
			return
		}
	}
}

func (g *Game) apply(ev inboundEvent) {
	switch ev.kind {
	case evConnect:
		g.handleConnect(ev.client, ev.peer)
	case evDisconnect:
		if cur, ok := g.peers[ev.client]; ok && cur == ev.peer {
			g.handleDisconnect(ev.client)
		}
	case evCommand:
		g.handleCommand(ev.client, ev.cmd)
	case evInput:
		g.handleInput(ev.client, ev.input)
	case evSpawnBot:
		g.spawnBot()
	}
}

// step advances the simulation by dt seconds. Despawn notifications for
// everything removed during the step go out at its end.
func (g *Game) step(dt float64) {
	g.updateIntents()
	g.applyMovement(dt)
	g.moveProjectiles(dt)
	if g.phase == PhaseGameplay {
		g.spawnCoins(dt)
		g.tickRound(dt)
	}
	g.botAutoCast(dt)
	g.flushDespawns()
}

func (g *Game) allocNetID() protocol.EntityID {
	id := g.nextNetID
	g.nextNetID++
	return id
}

// despawn removes a networked entity and queues its DespawnEntity
// notification. Removing an entity twice is a no-op.
func (g *Game) despawn(e donburi.Entity) {
	if !g.world.Valid(e) {
		return
	}
	entry := g.world.Entry(e)
	if entry.HasComponent(Networked) {
		g.pendingDespawn = append(g.pendingDespawn, Networked.Get(entry).ID)
	}
	g.world.Remove(e)
}

func (g *Game) flushDespawns() {
	for _, id := range g.pendingDespawn {
		g.broadcast(protocol.DespawnEntity{Entity: id})
	}
	g.pendingDespawn = g.pendingDespawn[:0]
}

// broadcast sends m reliably to every connected client.
func (g *Game) broadcast(m protocol.ServerMessage) {
	data, err := protocol.EncodeServerMessage(m)
	if err != nil {
		Log.Errorw("encode server message", "tag", m.Tag(), "err", err)
		return
	}
	for id, p := range g.peers {
		if err := p.Send(protocol.ChannelServerMessages, data); err != nil {
			g.markDropped(id, err)
		}
	}
	g.dropFailedPeers()
}

// sendTo sends m reliably to one client.
func (g *Game) sendTo(id protocol.ClientID, m protocol.ServerMessage) {
	p, ok := g.peers[id]
	if !ok {
		return
	}
	data, err := protocol.EncodeServerMessage(m)
	if err != nil {
		Log.Errorw("encode server message", "tag", m.Tag(), "err", err)
		return
	}
	if err := p.Send(protocol.ChannelServerMessages, data); err != nil {
		g.markDropped(id, err)
	}
}

func (g *Game) markDropped(id protocol.ClientID, err error) {
	Log.Warnw("dropping client", "client", id, "err", err)
	g.metrics.IncTransportErrors()
	if p, ok := g.peers[id]; ok {
		p.Close()
		delete(g.peers, id)
	}
	g.dropped = append(g.dropped, id)
}

// dropFailedPeers runs the disconnect path for clients whose sends failed.
func (g *Game) dropFailedPeers() {
	for len(g.dropped) > 0 {
		id := g.dropped[0]
		g.dropped = g.dropped[1:]
		g.handleDisconnect(id)
	}
}

// broadcastSnapshot sends positions of players and projectiles on the
// unreliable channel.
func (g *Game) broadcastSnapshot() {
	if len(g.peers) == 0 {
		return
	}
	snap := protocol.NetworkedEntities{Tick: g.tick}
	var entries []*donburi.Entry
	Networked.Each(g.world, func(entry *donburi.Entry) {
		if entry.HasComponent(Player) || entry.HasComponent(Projectile) {
			entries = append(entries, entry)
		}
	})
	sort.Slice(entries, func(i, j int) bool {
		return Networked.Get(entries[i]).ID < Networked.Get(entries[j]).ID
	})
	for _, entry := range entries {
		var facing *[2]float32
		if entry.HasComponent(Facing) {
			d := Facing.Get(entry).Dir
			facing = &[2]float32{float32(d.X), float32(d.Y)}
		}
		var score *int64
		if entry.HasComponent(Player) {
			s := Player.Get(entry).Score
			score = &s
		}
		snap.Append(Networked.Get(entry).ID, Transform.Get(entry).Translation(), facing, score)
	}

	data, err := protocol.EncodeSnapshot(&snap)
	if err != nil {
		Log.Errorw("encode snapshot", "err", err)
		return
	}
	for id, p := range g.peers {
		if err := p.Send(protocol.ChannelNetworkedEntities, data); err != nil {
			g.markDropped(id, err)
		}
	}
	g.dropFailedPeers()
}

// playerEntry returns the lobby entry of a client, if any.
func (g *Game) playerEntry(id protocol.ClientID) (*donburi.Entry, bool) {
	e, ok := g.lobby[id]
	if !ok || !g.world.Valid(e) {
		return nil, false
	}
	return g.world.Entry(e), true
}

// sortedLobby returns lobby client ids in ascending order.
func (g *Game) sortedLobby() []protocol.ClientID {
	ids := make([]protocol.ClientID, 0, len(g.lobby))
	for id := range g.lobby {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
