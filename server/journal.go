package main

import (
	"sync"
	"time"

	"chexy-balloons/shared/protocol"
)

// Event types for the journal
const (
	EvtConnect    = "connect"
	EvtDisconnect = "disconnect"
	EvtReady      = "ready"
	EvtGameStart  = "game_start"
	EvtGameEnd    = "game_end"
	EvtHit        = "hit"
)

// JournalEvent is one journaled occurrence. Scores is set on game_end
// only.
type JournalEvent struct {
	Type      string
	ClientID  protocol.ClientID
	RoundID   string
	Value     int64
	Scores    map[protocol.ClientID]int64
	Timestamp time.Time
}

// Recorder accepts journal events without blocking the caller.
type Recorder interface {
	Track(evt JournalEvent)
}

type nopRecorder struct{}

func (nopRecorder) Track(JournalEvent) {}

// Journal persists events with batched background writes
type Journal struct {
	db     *DB
	events chan JournalEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	flushN int
	every  time.Duration
}

// NewJournal creates and starts the background writer
func NewJournal(db *DB) *Journal {
	j := &Journal{
		db:     db,
		events: make(chan JournalEvent, 1024),
		stop:   make(chan struct{}),
		flushN: 50,
		every:  5 * time.Second,
	}
	j.wg.Add(1)
	go j.writer()
	return j
}

// Track enqueues an event for async persistence (non-blocking)
func (j *Journal) Track(evt JournalEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	select {
	case j.events <- evt:
	default:
		// Channel full, drop rather than stall the tick
	}
}

// Stop drains pending events and shuts down the writer
func (j *Journal) Stop() {
	close(j.stop)
	j.wg.Wait()
}

func (j *Journal) writer() {
	defer j.wg.Done()

	batch := make([]JournalEvent, 0, 64)
	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	for {
		select {
		case evt := <-j.events:
			batch = append(batch, evt)
			if len(batch) >= j.flushN {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-j.stop:
		drain:
			for {
				select {
				case evt := <-j.events:
					batch = append(batch, evt)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				j.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of events in one transaction
func (j *Journal) flush(events []JournalEvent) {
	if j.db == nil || len(events) == 0 {
		return
	}
	tx, err := j.db.conn.Begin()
	if err != nil {
		Log.Errorw("journal: begin tx", "err", err)
		return
	}
	defer tx.Rollback()

	for _, evt := range events {
		if err := insertEvent(tx, evt); err != nil {
			Log.Errorw("journal: insert event", "type", evt.Type, "err", err)
			continue
		}
		if evt.Type == EvtGameEnd && evt.RoundID != "" {
			if err := insertRound(tx, evt); err != nil {
				Log.Errorw("journal: insert round", "round", evt.RoundID, "err", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		Log.Errorw("journal: commit", "err", err)
	}
}
