package main

import (
	"github.com/google/uuid"
	"github.com/yohamta/donburi"

	"chexy-balloons/shared/physics"
	"chexy-balloons/shared/protocol"
)

// Phase is the lifecycle of the lobby.
type Phase int

const (
	PhaseLobby    Phase = 0
	PhaseGameplay Phase = 1
)

func (p Phase) String() string {
	if p == PhaseGameplay {
		return "gameplay"
	}
	return "lobby"
}

// checkReady starts the game once more than one player is present and
// every one of them is ready.
func (g *Game) checkReady() {
	if g.phase != PhaseLobby || len(g.lobby) < 2 {
		return
	}
	for _, e := range g.lobby {
		if !g.world.Valid(e) || !Player.Get(g.world.Entry(e)).Ready {
			return
		}
	}
	g.startGame()
}

func (g *Game) startGame() {
	g.phase = PhaseGameplay
	g.coinTimer.Reset()
	if g.roundTimer != nil {
		g.roundTimer.Reset()
	}
	g.roundID = uuid.NewString()
	Log.Infow("game started", "round", g.roundID, "players", len(g.lobby))
	g.journal.Track(JournalEvent{Type: EvtGameStart, RoundID: g.roundID, Value: int64(len(g.lobby))})
	g.broadcast(protocol.StartGame{})
}

func (g *Game) tickRound(dt float64) {
	if g.roundTimer == nil || !g.roundTimer.Tick(dt) {
		return
	}
	g.endRound()
}

// endRound closes a timed round: the highest score wins (lowest client id
// on ties), coins are cleared, scores reset and humans must ready up
// again.
func (g *Game) endRound() {
	result := protocol.EndGame{}
	scores := make(map[protocol.ClientID]int64, len(g.lobby))
	for _, id := range g.sortedLobby() {
		entry, ok := g.playerEntry(id)
		if !ok {
			continue
		}
		s := Player.Get(entry).Score
		scores[id] = s
		if !result.HasWinner || s > result.Score {
			result = protocol.EndGame{Winner: id, Score: s, HasWinner: true}
		}
	}
	Log.Infow("round over", "round", g.roundID, "winner", result.Winner, "score", result.Score)
	g.journal.Track(JournalEvent{Type: EvtGameEnd, RoundID: g.roundID, ClientID: result.Winner, Value: result.Score, Scores: scores})
	g.broadcast(result)

	var coins []donburi.Entity
	CoinTag.Each(g.world, func(entry *donburi.Entry) {
		coins = append(coins, entry.Entity())
	})
	for _, e := range coins {
		g.despawn(e)
	}

	for _, id := range g.sortedLobby() {
		entry, ok := g.playerEntry(id)
		if !ok {
			continue
		}
		p := Player.Get(entry)
		p.Score = 0
		Collider.Set(entry, ptr(physics.PlayerCollider(0)))
		if p.Ready && !p.Bot {
			p.Ready = false
			g.broadcast(protocol.SetPlayerReady{Entity: Networked.Get(entry).ID, IsReady: false})
		}
	}
	g.phase = PhaseLobby
	g.roundID = ""
}

func ptr[T any](v T) *T { return &v }
