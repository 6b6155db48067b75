// Package indexdb keeps a read-model of finished episodes in SQLite. It is
// an observability surface, not part of episode state: writes go through an
// async single-writer goroutine and are dropped under backpressure.
package indexdb

import (
	"database/sql"
	"log"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"gravitybench.ai/internal/session"
)

type SQLiteIndex struct {
	db  *sql.DB
	log *log.Logger

	ch     chan session.EpisodeRecord
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	dropped atomic.Uint64
}

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	finished_at  TEXT    NOT NULL,
	session_id   TEXT    NOT NULL,
	task         TEXT    NOT NULL,
	version      TEXT    NOT NULL,
	seed         INTEGER NOT NULL,
	steps        INTEGER NOT NULL,
	success      INTEGER NOT NULL,
	reason       TEXT    NOT NULL,
	total_reward REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_episodes_task ON episodes(task, version);
CREATE INDEX IF NOT EXISTS idx_episodes_session ON episodes(session_id);
`

func Open(path string, logger *log.Logger) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &SQLiteIndex{
		db:  db,
		log: logger,
		ch:  make(chan session.EpisodeRecord, 1024),
	}
	idx.wg.Add(1)
	go idx.writer()
	return idx, nil
}

// WriteEpisode implements session.EpisodeSink. Non-blocking: a full queue
// drops the record rather than stalling a step response.
func (idx *SQLiteIndex) WriteEpisode(rec session.EpisodeRecord) {
	if idx.closed.Load() {
		return
	}
	select {
	case idx.ch <- rec:
	default:
		idx.dropped.Add(1)
	}
}

func (idx *SQLiteIndex) writer() {
	defer idx.wg.Done()
	for rec := range idx.ch {
		_, err := idx.db.Exec(
			`INSERT INTO episodes
			 (finished_at, session_id, task, version, seed, steps, success, reason, total_reward)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.FinishedAt.Format("2006-01-02T15:04:05.000Z"),
			rec.SessionID, rec.Task, rec.Version, rec.Seed,
			rec.Steps, boolInt(rec.Success), rec.Reason, rec.TotalReward,
		)
		if err != nil {
			idx.log.Printf("indexdb: insert episode: %v", err)
		}
	}
}

// Dropped reports how many records were discarded under backpressure.
func (idx *SQLiteIndex) Dropped() uint64 {
	return idx.dropped.Load()
}

func (idx *SQLiteIndex) Close() error {
	var err error
	idx.once.Do(func() {
		idx.closed.Store(true)
		close(idx.ch)
		idx.wg.Wait()
		err = idx.db.Close()
	})
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
