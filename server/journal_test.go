package main

import (
	"path/filepath"
	"testing"

	"chexy-balloons/shared/protocol"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJournalPersistsOnStop(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db)
	j.Track(JournalEvent{Type: EvtConnect, ClientID: 1})
	j.Track(JournalEvent{Type: EvtConnect, ClientID: 2})
	j.Track(JournalEvent{Type: EvtReady, ClientID: 1, Value: 1})
	j.Stop()

	n, err := db.CountEvents(EvtConnect)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 connect events, got %d", n)
	}
	if n, _ := db.CountEvents(EvtReady); n != 1 {
		t.Errorf("expected 1 ready event, got %d", n)
	}
}

func TestLeaderboard(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db)
	j.Track(JournalEvent{Type: EvtGameStart, RoundID: "r1", Value: 2})
	j.Track(JournalEvent{Type: EvtDisconnect, ClientID: 4, RoundID: "r1", Value: 7})
	j.Track(JournalEvent{Type: EvtDisconnect, ClientID: 5, Value: 9}) // left the lobby, not a round
	j.Track(JournalEvent{
		Type:     EvtGameEnd,
		RoundID:  "r1",
		ClientID: 2,
		Value:    3,
		Scores:   map[protocol.ClientID]int64{1: 1, 2: 3},
	})
	j.Stop()

	rows, err := db.Leaderboard(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []LeaderboardRow{
		{ClientID: 4, Best: 7, Rounds: 1},
		{ClientID: 2, Best: 3, Rounds: 1},
		{ClientID: 1, Best: 1, Rounds: 1},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %+v", len(want), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], rows[i])
		}
	}

	top, _ := db.Leaderboard(1)
	if len(top) != 1 || top[0].ClientID != 4 {
		t.Errorf("limit not applied: %+v", top)
	}
}

func TestGameJournalsLifecycle(t *testing.T) {
	rec := &recordingJournal{}
	g := NewGame(GameConfig{Seed: 1}, rec, nil)
	join(g, 1)
	b := join(g, 2)
	readyUp(g, 1, 2)
	g.Disconnect(2, b)
	g.update()

	for _, typ := range []string{EvtConnect, EvtReady, EvtGameStart, EvtDisconnect} {
		if rec.count(typ) == 0 {
			t.Errorf("expected a %s event", typ)
		}
	}
	if n := rec.count(EvtConnect); n != 2 {
		t.Errorf("expected 2 connects, got %d", n)
	}
}

type recordingJournal struct {
	events []JournalEvent
}

func (r *recordingJournal) Track(evt JournalEvent) { r.events = append(r.events, evt) }

func (r *recordingJournal) count(typ string) int {
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}
