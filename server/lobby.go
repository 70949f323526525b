package main

import (
	"chexy-balloons/shared/protocol"
)

// handleConnect catches the new client up on the world, then spawns its
// player and announces it to everyone, the new client included.
func (g *Game) handleConnect(id protocol.ClientID, peer Peer) {
	if _, ok := g.lobby[id]; ok {
		Log.Warnw("client id already in lobby", "client", id)
		peer.Close()
		return
	}
	g.peers[id] = peer
	Log.Infow("player connected", "client", id)

	g.sendCatchUp(id)
	if _, ok := g.peers[id]; !ok {
		// Catch-up overflowed the client's channel.
		return
	}

	pos := SpawnRing[g.nextSpawn%len(SpawnRing)]
	g.nextSpawn++
	entry := g.spawnPlayer(id, pos, false)
	g.lobby[id] = entry.Entity()

	g.journal.Track(JournalEvent{Type: EvtConnect, ClientID: id})
	g.broadcast(protocol.PlayerCreate{
		Entity:      Networked.Get(entry).ID,
		ID:          id,
		Translation: Transform.Get(entry).Translation(),
		IsReady:     false,
	})
}

// sendCatchUp sends a joining client everything spawned before it.
func (g *Game) sendCatchUp(id protocol.ClientID) {
	for _, other := range g.sortedLobby() {
		entry, ok := g.playerEntry(other)
		if !ok {
			continue
		}
		p := Player.Get(entry)
		g.sendTo(id, protocol.PlayerCreate{
			Entity:      Networked.Get(entry).ID,
			ID:          other,
			Translation: Transform.Get(entry).Translation(),
			IsReady:     p.Ready,
		})
	}
	for _, m := range g.catchUpWorld() {
		g.sendTo(id, m)
	}
	if g.phase == PhaseGameplay {
		g.sendTo(id, protocol.StartGame{})
	}
	g.dropFailedPeers()
}

// handleDisconnect removes a client's player. Unknown clients are ignored,
// so a client is announced as removed at most once.
func (g *Game) handleDisconnect(id protocol.ClientID) {
	delete(g.peers, id)
	entry, ok := g.playerEntry(id)
	if !ok {
		delete(g.lobby, id)
		return
	}
	score := Player.Get(entry).Score
	delete(g.lobby, id)
	g.world.Remove(entry.Entity())

	Log.Infow("player disconnected", "client", id, "score", score)
	g.journal.Track(JournalEvent{Type: EvtDisconnect, ClientID: id, RoundID: g.roundID, Value: score})
	g.broadcast(protocol.PlayerRemove{ID: id})
}

func (g *Game) handleCommand(id protocol.ClientID, cmd protocol.PlayerCommand) {
	entry, ok := g.playerEntry(id)
	if !ok {
		Log.Debugw("command from client without player", "client", id, "cmd", cmd.Kind)
		return
	}
	switch cmd.Kind {
	case protocol.CommandBasicAttack:
		// Commands are applied before this tick derives intents from input.
		dir := intentFor(Movement.Get(entry).Input)
		if dir.X == 0 && dir.Y == 0 {
			return
		}
		g.spawnProjectile(entry, dir, playerCastOffset, projectileLayer)
	case protocol.CommandToggleReady:
		p := Player.Get(entry)
		p.Ready = !p.Ready
		Log.Debugw("ready toggled", "client", id, "ready", p.Ready)
		g.journal.Track(JournalEvent{Type: EvtReady, ClientID: id, Value: boolToInt(p.Ready)})
		g.broadcast(protocol.SetPlayerReady{Entity: Networked.Get(entry).ID, IsReady: p.Ready})
		g.checkReady()
	}
}

// handleInput stores the latest input; the last one received before a
// tick is the one that tick uses.
func (g *Game) handleInput(id protocol.ClientID, in protocol.PlayerInput) {
	entry, ok := g.playerEntry(id)
	if !ok {
		return
	}
	Movement.Get(entry).Input = in
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
