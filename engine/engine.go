package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"coursesync/database"
	"coursesync/remote"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine is the offline-first synchronization engine. All domain writes go
// through it: they mutate the local replica immediately and enqueue a
// durable mutation for later replay against the remote store.
//
// A single mutex serializes sync cycles, so overlapping connectivity or
// login triggers queue up instead of interleaving.
type Engine struct {
	store  *database.Store
	remote *remote.Client

	syncMu sync.Mutex
	online atomic.Bool

	statusMu  sync.Mutex
	lastSync  time.Time
	lastError string
}

// New builds an engine around an opened replica store and a remote client.
func New(store *database.Store, remoteClient *remote.Client) *Engine {
	return &Engine{store: store, remote: remoteClient}
}

// Online reports the last observed connectivity state.
func (e *Engine) Online() bool {
	return e.online.Load()
}

// upsertRow writes a row keyed by primary key: existing ids update in place,
// new ids insert. Mirrors the remote store's upsert semantics locally.
func upsertRow(tx *gorm.DB, value interface{}) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

func (e *Engine) recordSyncResult(err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.lastSync = time.Now()
	if err != nil {
		e.lastError = err.Error()
	} else {
		e.lastError = ""
	}
}
